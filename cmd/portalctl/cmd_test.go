package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopystack/Portal/internal/adapter/memstore"
	"github.com/loopystack/Portal/internal/bootstrap"
	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/infra"
	"github.com/loopystack/Portal/internal/middleware"
)

func testCLI(store *memstore.Store) *cli {
	now := time.Date(2024, 5, 15, 3, 0, 0, 0, time.UTC)
	return &cli{
		loadConfig: func() (*infra.Config, error) {
			return &infra.Config{AppEnv: "test", StoreDriver: infra.StoreDriverMemory, JWTSecret: "cli-secret", TZOffsetMinutes: 540}, nil
		},
		openStores: func(context.Context, *infra.Config, zerolog.Logger) (*bootstrap.Stores, error) {
			return bootstrap.Memory(store), nil
		},
		migrate: func(context.Context, *infra.Config, zerolog.Logger) ([]string, error) {
			return []string{"001_users"}, nil
		},
		now: func() time.Time { return now },
	}
}

func run(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	root := SetupCommands(c)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserAddRoleAndToken(t *testing.T) {
	store := memstore.New()
	c := testCLI(store)

	out, err := run(t, c, "user", "add", "--email", "kim@example.com")
	if err != nil {
		t.Fatalf("user add: %v", err)
	}
	id := strings.Fields(out)[0]
	u, err := store.Users().GetByID(context.Background(), id)
	if err != nil || u.DisplayName != "kim" || u.Role != domain.UserRoleMember {
		t.Fatalf("stored user = %+v, %v", u, err)
	}

	if _, err := run(t, c, "user", "role", id, "ADMIN"); err != nil {
		t.Fatalf("user role: %v", err)
	}
	if _, err := run(t, c, "user", "role", id, "owner"); err == nil {
		t.Fatalf("user role with bad role expected error")
	}

	c.now = time.Now
	out, err = run(t, c, "token", id, "--ttl", "1h")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	claims, err := middleware.VerifyJWT("cli-secret", strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if claims.Sub != id || claims.Role != "admin" || claims.Audience != "portal" {
		t.Fatalf("claims = %+v", claims)
	}

	out, err = run(t, c, "user", "list")
	if err != nil || !strings.Contains(out, "kim@example.com") {
		t.Fatalf("user list = %q, %v", out, err)
	}
}

func TestRankingCommands(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	c := testCLI(store)
	a, _ := store.Users().Create(ctx, &domain.User{Email: "a@example.com", DisplayName: "Alpha", Role: domain.UserRoleMember})
	_, _ = store.Users().Create(ctx, &domain.User{Email: "b@example.com", DisplayName: "Bravo", Role: domain.UserRoleMember})
	_, err := store.TimeBlocks().Create(ctx, &domain.TimeBlock{
		UserID: a.ID,
		Start:  time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 5, 15, 1, 30, 0, 0, time.UTC),
		Label:  domain.LabelWork,
	})
	if err != nil {
		t.Fatalf("seed block: %v", err)
	}

	out, err := run(t, c, "ranking", "work")
	if err != nil {
		t.Fatalf("ranking work: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "Alpha") || !strings.Contains(lines[1], "1.50") || !strings.Contains(lines[2], "Bravo") {
		t.Fatalf("ranking work output:\n%s", out)
	}

	out, err = run(t, c, "ranking", "revenue", "--year", "2024", "--month", "5")
	if err != nil {
		t.Fatalf("ranking revenue: %v", err)
	}
	if !strings.Contains(out, "EXPECTED") || strings.Count(out, "0.00") < 4 {
		t.Fatalf("ranking revenue output:\n%s", out)
	}
	if _, err := run(t, c, "ranking", "revenue", "--month", "13"); err == nil {
		t.Fatalf("ranking revenue with bad month expected error")
	}
}

func TestMigrateCommand(t *testing.T) {
	out, err := run(t, testCLI(memstore.New()), "migrate")
	if err != nil || !strings.Contains(out, "applied 001_users") {
		t.Fatalf("migrate = %q, %v", out, err)
	}
}
