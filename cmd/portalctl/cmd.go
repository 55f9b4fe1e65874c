package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/loopystack/Portal/internal/bootstrap"
	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/infra"
	"github.com/loopystack/Portal/internal/middleware"
	"github.com/loopystack/Portal/internal/period"
	"github.com/loopystack/Portal/internal/ranking"
)

type cli struct {
	loadConfig func() (*infra.Config, error)
	openStores func(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*bootstrap.Stores, error)
	migrate    func(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) ([]string, error)
	now        func() time.Time
}

func newCLI() *cli {
	return &cli{
		loadConfig: infra.LoadConfig,
		openStores: bootstrap.OpenStores,
		migrate:    runMigrations,
		now:        time.Now,
	}
}

func runMigrations(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) ([]string, error) {
	if cfg.StoreDriver != infra.StoreDriverPostgres {
		return nil, fmt.Errorf("migrate requires STORE_DRIVER=postgres")
	}
	db, err := infra.OpenSQL(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return infra.RunMigrations(ctx, db, logger)
}

// session is the per-invocation state shared by subcommands.
type session struct {
	cfg    *infra.Config
	logger zerolog.Logger
	stores *bootstrap.Stores
}

func (c *cli) open(cmd *cobra.Command) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := infra.NewLoggerTo(cmd.ErrOrStderr(), cfg.AppEnv)
	stores, err := c.openStores(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, stores: stores}, nil
}

func SetupCommands(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Administer the team portal",
		SilenceUsage: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			logger := infra.NewLoggerTo(cmd.ErrOrStderr(), cfg.AppEnv)
			applied, err := c.migrate(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
			}
			return nil
		},
	}

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCommand(c))
	rootCmd.AddCommand(tokenCommand(c))
	rootCmd.AddCommand(rankingCommand(c))
	return rootCmd
}

func userCommand(c *cli) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage portal accounts",
	}

	var email, name, role string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseUserRole(role)
			if err != nil {
				return err
			}
			if !strings.Contains(email, "@") {
				return fmt.Errorf("--email is required")
			}
			s, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer s.stores.Close()
			if strings.TrimSpace(name) == "" {
				name, _, _ = strings.Cut(email, "@")
			}
			u, err := s.stores.Users.Create(cmd.Context(), &domain.User{Email: email, DisplayName: name, Role: r})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.ID, u.Email, u.Role)
			return nil
		},
	}
	addCmd.Flags().StringVar(&email, "email", "", "email address")
	addCmd.Flags().StringVar(&name, "name", "", "display name (defaults to the email local part)")
	addCmd.Flags().StringVar(&role, "role", string(domain.UserRoleMember), "member or admin")

	roleCmd := &cobra.Command{
		Use:   "role [user-id] [member|admin]",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseUserRole(args[1])
			if err != nil {
				return err
			}
			s, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer s.stores.Close()
			u, err := s.stores.Users.SetRole(cmd.Context(), args[0], r)
			if err != nil {
				return fmt.Errorf("set role: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.ID, u.Email, u.Role)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer s.stores.Close()
			users, err := s.stores.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.DisplayName, u.Role)
			}
			return tw.Flush()
		},
	}

	userCmd.AddCommand(addCmd, roleCmd, listCmd)
	return userCmd
}

func tokenCommand(c *cli) *cobra.Command {
	var ttl time.Duration
	var issuer, audience string
	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Mint a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer s.stores.Close()
			u, err := s.stores.Users.GetByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load user: %w", err)
			}
			now := c.now()
			token, err := middleware.SignJWT(s.cfg.JWTSecret, middleware.TokenClaims{
				Sub:      u.ID,
				Role:     string(u.Role),
				Iat:      now.Unix(),
				Exp:      now.Add(ttl).Unix(),
				Issuer:   issuer,
				Audience: audience,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&issuer, "iss", "portalctl", "issuer claim")
	cmd.Flags().StringVar(&audience, "aud", "portal", "audience claim")
	return cmd
}

func rankingCommand(c *cli) *cobra.Command {
	rankingCmd := &cobra.Command{
		Use:   "ranking",
		Short: "Print member rankings",
	}

	var at string
	workCmd := &cobra.Command{
		Use:   "work",
		Short: "Rank members by Work hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := c.now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				ref = t
			}
			s, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer s.stores.Close()
			rows, _, err := s.service().WorkHours(cmd.Context(), ref)
			if err != nil {
				return err
			}
			return printWorkRanking(cmd.OutOrStdout(), rows)
		},
	}
	workCmd.Flags().StringVar(&at, "at", "", "reference instant (RFC3339, default now)")

	var year, month int
	revenueCmd := &cobra.Command{
		Use:   "revenue",
		Short: "Rank members by revenue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer s.stores.Close()
			svc := s.service()
			y, m := svc.Calendar.YearMonth(c.now())
			if year != 0 {
				y = year
			}
			if month != 0 {
				if month < 1 || month > 12 {
					return fmt.Errorf("--month must be 1..12")
				}
				m = time.Month(month)
			}
			rows, err := svc.RevenueFor(cmd.Context(), y, m)
			if err != nil {
				return err
			}
			return printRevenueRanking(cmd.OutOrStdout(), rows)
		},
	}
	revenueCmd.Flags().IntVar(&year, "year", 0, "target year (default current)")
	revenueCmd.Flags().IntVar(&month, "month", 0, "target month 1..12 (default current)")

	rankingCmd.AddCommand(workCmd, revenueCmd)
	return rankingCmd
}

func (s *session) service() *ranking.Service {
	return &ranking.Service{
		Users:      s.stores.Users,
		TimeBlocks: s.stores.TimeBlocks,
		Revenue:    s.stores.Revenue,
		Calendar:   period.NewCalculator(period.FixedOffset(s.cfg.TZOffset())),
	}
}

func printWorkRanking(w io.Writer, rows []ranking.WorkRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMEMBER\tTODAY\tWEEK\tMONTH\tTOTAL")
	for i, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, r.Member.DisplayName,
			ranking.Hours(r.Daily).StringFixed(2),
			ranking.Hours(r.Weekly).StringFixed(2),
			ranking.Hours(r.Monthly).StringFixed(2),
			ranking.Hours(r.Total).StringFixed(2))
	}
	return tw.Flush()
}

func printRevenueRanking(w io.Writer, rows []ranking.RevenueRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMEMBER\tMONTH\tTOTAL\tEXPECTED")
	for i, r := range rows {
		expected := "-"
		if r.Expected != nil {
			expected = ranking.Money(*r.Expected).StringFixed(2)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, r.Member.DisplayName,
			ranking.Money(r.Monthly).StringFixed(2),
			ranking.Money(r.Total).StringFixed(2),
			expected)
	}
	return tw.Flush()
}
