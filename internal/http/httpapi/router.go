package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/loopystack/Portal/internal/http/handlers"
	"github.com/loopystack/Portal/internal/middleware"
)

// Options configures the cross-cutting middleware.
type Options struct {
	JWTSecret       string
	CORSOrigins     []string
	RateLimitPerMin int
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret))
			if opts.RateLimitPerMin > 0 {
				r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
			}

			r.Get("/me", app.Me)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", app.ListUsers)
				r.Post("/", app.CreateUser)
			})
			r.Get("/periods", app.Periods)

			r.Route("/time-blocks", func(r chi.Router) {
				r.Get("/", app.ListTimeBlocks)
				r.Post("/", app.CreateTimeBlock)
				r.Get("/summary", app.TimeBlockSummary)
				r.Patch("/{id}", app.UpdateTimeBlock)
				r.Delete("/{id}", app.DeleteTimeBlock)
			})

			r.Route("/revenue", func(r chi.Router) {
				r.Get("/", app.ListRevenue)
				r.Post("/", app.CreateRevenue)
				r.Get("/expected", app.GetExpectedRevenue)
				r.Put("/expected", app.PutExpectedRevenue)
				r.Delete("/{id}", app.DeleteRevenue)
			})

			r.Route("/rankings", func(r chi.Router) {
				r.Get("/work-hours", app.WorkHoursRanking)
				r.Get("/revenue", app.RevenueRanking)
			})
		})
	})

	return r
}
