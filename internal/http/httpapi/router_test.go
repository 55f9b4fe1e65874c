package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopystack/Portal/internal/adapter/memstore"
	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/http/handlers"
	"github.com/loopystack/Portal/internal/middleware"
	"github.com/loopystack/Portal/internal/period"
)

const testSecret = "router-test-secret"

type testEnv struct {
	t      *testing.T
	server *httptest.Server
	store  *memstore.Store
	loc    *time.Location
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	cal := period.NewCalculator(nil)
	loc := cal.Location()
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, loc)
	cal = cal.WithClock(func() time.Time { return now })

	app := handlers.NewApp(zerolog.Nop(), store.Users(), store.TimeBlocks(), store.Revenue(), cal)
	router := NewRouter(app, Options{JWTSecret: testSecret, RateLimitPerMin: 1000, Logger: zerolog.Nop()})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{t: t, server: srv, store: store, loc: loc}
}

func (e *testEnv) user(email string, role domain.UserRole) (domain.User, string) {
	e.t.Helper()
	u, err := e.store.Users().Create(context.Background(), &domain.User{Email: email, DisplayName: email, Role: role})
	if err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	token, err := middleware.SignJWT(testSecret, middleware.TokenClaims{
		Sub:  u.ID,
		Role: string(role),
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		e.t.Fatalf("sign token: %v", err)
	}
	return *u, token
}

func (e *testEnv) do(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (e *testEnv) at(hour int) string {
	return time.Date(2024, 5, 15, hour, 0, 0, 0, e.loc).Format(time.RFC3339)
}

func TestHealthAndAuth(t *testing.T) {
	env := newTestEnv(t)
	if code, _ := env.do(http.MethodGet, "/v1/healthz", "", nil); code != http.StatusOK {
		t.Fatalf("healthz status = %d", code)
	}
	if code, _ := env.do(http.MethodGet, "/v1/me", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("me without token status = %d", code)
	}
	u, token := env.user("a@example.com", domain.UserRoleMember)
	code, body := env.do(http.MethodGet, "/v1/me", token, nil)
	if code != http.StatusOK || body["id"] != u.ID || body["role"] != "member" {
		t.Fatalf("me = %d %v", code, body)
	}
}

func TestUsersAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	_, member := env.user("m@example.com", domain.UserRoleMember)
	_, admin := env.user("admin@example.com", domain.UserRoleAdmin)

	if code, _ := env.do(http.MethodGet, "/v1/users", member, nil); code != http.StatusForbidden {
		t.Fatalf("member list users status = %d", code)
	}
	code, body := env.do(http.MethodPost, "/v1/users", admin, map[string]string{"email": "new@example.com"})
	if code != http.StatusCreated || body["display_name"] != "new" || body["role"] != "member" {
		t.Fatalf("create user = %d %v", code, body)
	}
	if code, _ := env.do(http.MethodPost, "/v1/users", admin, map[string]string{"email": "NEW@example.com"}); code != http.StatusConflict {
		t.Fatalf("duplicate email status = %d", code)
	}
	if code, _ := env.do(http.MethodPost, "/v1/users", admin, map[string]string{"email": "x@example.com", "role": "owner"}); code != http.StatusBadRequest {
		t.Fatalf("bad role status = %d", code)
	}
	code, body = env.do(http.MethodGet, "/v1/users", admin, nil)
	if code != http.StatusOK || len(body["items"].([]any)) != 3 {
		t.Fatalf("list users = %d %v", code, body)
	}
}

func TestPeriodsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user("a@example.com", domain.UserRoleMember)

	code, body := env.do(http.MethodGet, "/v1/periods?at=2024-05-13T15:30:00Z", token, nil)
	if code != http.StatusOK {
		t.Fatalf("periods status = %d %v", code, body)
	}
	// 2024-05-13T15:30Z is 2024-05-14 00:30 in UTC+9; the week began Sunday the 12th.
	today := body["today"].(map[string]any)
	week := body["week"].(map[string]any)
	if today["start"] != "2024-05-13T15:00:00Z" || today["end"] != "2024-05-14T15:00:00Z" {
		t.Fatalf("today = %v", today)
	}
	if week["start"] != "2024-05-11T15:00:00Z" || week["end"] != "2024-05-18T15:00:00Z" {
		t.Fatalf("week = %v", week)
	}
	if body["timezone"] != "UTC+09:00" {
		t.Fatalf("timezone = %v", body["timezone"])
	}
	if code, _ := env.do(http.MethodGet, "/v1/periods?at=yesterday", token, nil); code != http.StatusBadRequest {
		t.Fatalf("bad at status = %d", code)
	}
}

func TestTimeBlockLifecycle(t *testing.T) {
	env := newTestEnv(t)
	u, token := env.user("a@example.com", domain.UserRoleMember)
	_, other := env.user("b@example.com", domain.UserRoleMember)

	code, created := env.do(http.MethodPost, "/v1/time-blocks", token, map[string]any{
		"start": env.at(9), "end": env.at(12), "label": "work", "note": "sprint",
	})
	if code != http.StatusCreated || created["label"] != "Work" || created["description"] != "Work\n\nsprint" {
		t.Fatalf("create = %d %v", code, created)
	}
	id := created["id"].(string)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"overlap", map[string]any{"start": env.at(11), "end": env.at(13)}, http.StatusConflict},
		{"end before start", map[string]any{"start": env.at(14), "end": env.at(13)}, http.StatusBadRequest},
		{"zero length", map[string]any{"start": env.at(14), "end": env.at(14)}, http.StatusBadRequest},
		{"missing end", map[string]any{"start": env.at(14)}, http.StatusBadRequest},
		{"touching", map[string]any{"start": env.at(12), "end": env.at(13), "description": "Idle\n\nlunch"}, http.StatusCreated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code, body := env.do(http.MethodPost, "/v1/time-blocks", token, tc.body); code != tc.want {
				t.Fatalf("status = %d, want %d (%v)", code, tc.want, body)
			}
		})
	}

	code, body := env.do(http.MethodGet, "/v1/time-blocks?"+url.Values{"from": {env.at(0)}, "to": {env.at(24)}}.Encode(), token, nil)
	items := body["items"].([]any)
	if code != http.StatusOK || len(items) != 2 {
		t.Fatalf("list = %d %v", code, body)
	}
	if second := items[1].(map[string]any); second["label"] != "Idle" || second["note"] != "lunch" {
		t.Fatalf("legacy description not unpacked: %v", second)
	}

	if code, _ := env.do(http.MethodPatch, "/v1/time-blocks/"+id, token, map[string]any{"end": env.at(13)}); code != http.StatusConflict {
		t.Fatalf("resize into neighbour status = %d", code)
	}
	code, patched := env.do(http.MethodPatch, "/v1/time-blocks/"+id, token, map[string]any{"start": env.at(8), "label": "Sleep"})
	if code != http.StatusOK || patched["label"] != "Sleep" || patched["note"] != "sprint" {
		t.Fatalf("patch = %d %v", code, patched)
	}
	if code, _ := env.do(http.MethodPatch, "/v1/time-blocks/"+id, token, map[string]any{}); code != http.StatusBadRequest {
		t.Fatalf("empty patch status = %d", code)
	}

	if code, _ := env.do(http.MethodPatch, "/v1/time-blocks/"+id, other, map[string]any{"label": "Idle"}); code != http.StatusNotFound {
		t.Fatalf("patch by other user status = %d", code)
	}
	if code, _ := env.do(http.MethodGet, "/v1/time-blocks?user_id="+u.ID, other, nil); code != http.StatusForbidden {
		t.Fatalf("member reading other user status = %d", code)
	}
	if code, _ := env.do(http.MethodDelete, "/v1/time-blocks/"+id, other, nil); code != http.StatusNotFound {
		t.Fatalf("delete by other user status = %d", code)
	}
	if code, _ := env.do(http.MethodDelete, "/v1/time-blocks/not-a-uuid", token, nil); code != http.StatusNotFound {
		t.Fatalf("delete bad id status = %d", code)
	}
	if code, _ := env.do(http.MethodDelete, "/v1/time-blocks/"+id, token, nil); code != http.StatusNoContent {
		t.Fatalf("delete status = %d", code)
	}
}

func TestConcurrentOverlappingPostsOneSucceeds(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user("a@example.com", domain.UserRoleMember)

	const writers = 16
	var wg sync.WaitGroup
	codes := make(chan int, writers)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			body, _ := json.Marshal(map[string]any{
				"start": time.Date(2024, 5, 15, 9, i, 0, 0, env.loc),
				"end":   time.Date(2024, 5, 15, 11, i, 0, 0, env.loc),
			})
			req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/v1/time-blocks", bytes.NewReader(body))
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				codes <- 0
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}(i)
	}
	close(start)
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for c := range codes {
		counts[c]++
	}
	if counts[http.StatusCreated] != 1 || counts[http.StatusConflict] != writers-1 {
		t.Fatalf("status counts = %v, want one 201 and %d 409", counts, writers-1)
	}
}

func TestSummaryAndWorkRanking(t *testing.T) {
	env := newTestEnv(t)
	busy, busyToken := env.user("busy@example.com", domain.UserRoleMember)
	idle, _ := env.user("idle@example.com", domain.UserRoleMember)
	_, admin := env.user("admin@example.com", domain.UserRoleAdmin)

	// 22:00 the previous day to 02:00 today: two hours fall inside today.
	prev := time.Date(2024, 5, 14, 22, 0, 0, 0, env.loc).Format(time.RFC3339)
	for _, b := range []map[string]any{
		{"start": prev, "end": env.at(2)},
		{"start": env.at(9), "end": env.at(10), "label": "Work"},
		{"start": env.at(10), "end": env.at(11), "label": "Sleep"},
	} {
		if code, body := env.do(http.MethodPost, "/v1/time-blocks", busyToken, b); code != http.StatusCreated {
			t.Fatalf("seed block = %d %v", code, body)
		}
	}

	code, summary := env.do(http.MethodGet, "/v1/time-blocks/summary", busyToken, nil)
	hours := summary["hours"].(map[string]any)
	if code != http.StatusOK || hours["today"] != 3.0 || hours["total"] != 5.0 {
		t.Fatalf("summary = %d %v", code, summary)
	}
	code, summary = env.do(http.MethodGet, "/v1/time-blocks/summary?label=sleep&user_id="+busy.ID, admin, nil)
	if code != http.StatusOK || summary["hours"].(map[string]any)["total"] != 1.0 {
		t.Fatalf("admin sleep summary = %d %v", code, summary)
	}

	code, body := env.do(http.MethodGet, "/v1/rankings/work-hours", busyToken, nil)
	items := body["items"].([]any)
	if code != http.StatusOK || len(items) != 2 {
		t.Fatalf("work ranking = %d %v", code, body)
	}
	top, last := items[0].(map[string]any), items[1].(map[string]any)
	if top["user_id"] != busy.ID || top["daily_hours"] != 3.0 || top["total_hours"] != 5.0 || top["rank"] != 1.0 {
		t.Fatalf("top row = %v", top)
	}
	if last["user_id"] != idle.ID || last["total_hours"] != 0.0 {
		t.Fatalf("inactive member row = %v", last)
	}
}

func TestRevenueEndpointsAndRanking(t *testing.T) {
	env := newTestEnv(t)
	a, aToken := env.user("a@example.com", domain.UserRoleMember)
	b, bToken := env.user("b@example.com", domain.UserRoleMember)
	_, admin := env.user("admin@example.com", domain.UserRoleAdmin)

	code, entry := env.do(http.MethodPost, "/v1/revenue", aToken, map[string]any{"date": "2024-05-02", "amount": "100.10"})
	if code != http.StatusCreated || entry["amount"] != 100.1 {
		t.Fatalf("create revenue = %d %v", code, entry)
	}
	if code, _ := env.do(http.MethodPost, "/v1/revenue", aToken, map[string]any{"date": "2024-05-20", "amount": -20.05}); code != http.StatusCreated {
		t.Fatalf("deduction status = %d", code)
	}
	if code, _ := env.do(http.MethodPost, "/v1/revenue", aToken, map[string]any{"date": "2024-04-30", "amount": 50}); code != http.StatusCreated {
		t.Fatalf("april entry status = %d", code)
	}
	if code, _ := env.do(http.MethodPost, "/v1/revenue", aToken, map[string]any{"date": "05/02/2024", "amount": 1}); code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d", code)
	}
	if code, _ := env.do(http.MethodPost, "/v1/revenue", aToken, map[string]any{"date": "2024-05-02"}); code != http.StatusBadRequest {
		t.Fatalf("missing amount status = %d", code)
	}
	if code, _ := env.do(http.MethodPost, "/v1/revenue", aToken, map[string]any{"user_id": b.ID, "amount": 1}); code != http.StatusForbidden {
		t.Fatalf("member booking for other user status = %d", code)
	}

	code, list := env.do(http.MethodGet, "/v1/revenue", aToken, nil)
	if code != http.StatusOK || len(list["items"].([]any)) != 2 || list["total"] != 80.05 {
		t.Fatalf("list current month = %d %v", code, list)
	}

	if code, _ := env.do(http.MethodPut, "/v1/revenue/expected", admin, map[string]any{"user_id": a.ID, "year": 2024, "month": 5, "amount": 500}); code != http.StatusOK {
		t.Fatalf("put expected status = %d", code)
	}
	if code, _ := env.do(http.MethodPut, "/v1/revenue/expected", aToken, map[string]any{"year": 2024, "month": 13, "amount": 1}); code != http.StatusBadRequest {
		t.Fatalf("bad month status = %d", code)
	}
	code, exp := env.do(http.MethodGet, "/v1/revenue/expected", bToken, nil)
	if code != http.StatusOK || exp["amount"] != nil {
		t.Fatalf("unset expected = %d %v", code, exp)
	}

	code, body := env.do(http.MethodGet, "/v1/rankings/revenue?year=2024&month=5", bToken, nil)
	items := body["items"].([]any)
	if code != http.StatusOK || len(items) != 2 {
		t.Fatalf("revenue ranking = %d %v", code, body)
	}
	top, last := items[0].(map[string]any), items[1].(map[string]any)
	if top["user_id"] != a.ID || top["monthly"] != 80.05 || top["total"] != 130.05 || top["expected"] != 500.0 {
		t.Fatalf("top revenue row = %v", top)
	}
	if last["user_id"] != b.ID || last["total"] != 0.0 || last["expected"] != nil {
		t.Fatalf("empty revenue row = %v", last)
	}

	id := entry["id"].(string)
	if code, _ := env.do(http.MethodDelete, "/v1/revenue/"+id, bToken, nil); code != http.StatusNotFound {
		t.Fatalf("delete by other member status = %d", code)
	}
	if code, _ := env.do(http.MethodDelete, "/v1/revenue/"+id, admin, nil); code != http.StatusNoContent {
		t.Fatalf("delete by admin status = %d", code)
	}
}
