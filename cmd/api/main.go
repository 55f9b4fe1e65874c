package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/loopystack/Portal/internal/bootstrap"
	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/http/handlers"
	"github.com/loopystack/Portal/internal/http/httpapi"
	"github.com/loopystack/Portal/internal/infra"
	"github.com/loopystack/Portal/internal/middleware"
	"github.com/loopystack/Portal/internal/period"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer stores.Close()

	if cfg.StoreDriver == infra.StoreDriverMemory {
		seedMemoryAdmin(ctx, cfg, stores, logger)
	}

	calendar := period.NewCalculator(period.FixedOffset(cfg.TZOffset()))
	app := handlers.NewApp(logger, stores.Users, stores.TimeBlocks, stores.Revenue, calendar)
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().
		Str("addr", server.Addr()).
		Str("store", cfg.StoreDriver).
		Str("timezone", calendar.Location().String()).
		Msg("API listening")
	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}

// seedMemoryAdmin creates an admin in a fresh in-memory store and logs a
// token for it; the store is otherwise unreachable.
func seedMemoryAdmin(ctx context.Context, cfg *infra.Config, stores *bootstrap.Stores, logger zerolog.Logger) {
	admin, err := stores.Users.Create(ctx, &domain.User{
		Email:       "admin@localhost",
		DisplayName: "Admin",
		Role:        domain.UserRoleAdmin,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin")
	}
	token, err := middleware.SignJWT(cfg.JWTSecret, middleware.TokenClaims{
		Sub:  admin.ID,
		Role: string(admin.Role),
		Iat:  time.Now().Unix(),
		Exp:  time.Now().Add(24 * time.Hour).Unix(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to sign admin token")
	}
	logger.Warn().Str("user_id", admin.ID).Str("token", token).Msg("memory store seeded with admin")
}
