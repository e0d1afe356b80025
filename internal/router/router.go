package router

import (
	"context"
	"net/http"
	"time"

	mem "health-inventory/internal/adapters/storage/memory"
	"health-inventory/internal/adapters/storage/sqlstore"
	"health-inventory/internal/domain/agegroups"
	"health-inventory/internal/domain/vaccines"
	"health-inventory/internal/middleware"
	"health-inventory/internal/platform/logger"
	"health-inventory/internal/platform/metrics"
	"health-inventory/internal/ports/auth"

	_ "health-inventory/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa la base SQL (postgres o sqlite). Si no, in-memory.
	Store *sqlstore.Store

	// Opcional: directorio externo de grupos etarios. Si es nil se usa el local.
	AgeGroups agegroups.Source

	Logger  logger.Logger     // nil => nop
	Metrics *metrics.Registry // nil => sin /metrics
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(middleware.AccessLog(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", healthHandler(opts.Store))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		vaccineRepo  vaccines.Repository
		ageGroupRepo agegroups.Repository
	)
	if opts.Store != nil {
		vaccineRepo = sqlstore.NewVaccineRepo(opts.Store)
		ageGroupRepo = sqlstore.NewAgeGroupRepo(opts.Store)
	} else {
		vaccineRepo = mem.NewVaccineRepo()
		ageGroupRepo = mem.NewAgeGroupRepo()
	}

	var ageGroupSrc agegroups.Source = agegroups.NewService(ageGroupRepo)
	if opts.AgeGroups != nil {
		ageGroupSrc = opts.AgeGroups
	}

	vacOpts := []vaccines.Option{vaccines.WithLogger(log)}
	if opts.Metrics != nil {
		vacOpts = append(vacOpts, vaccines.WithObserver(opts.Metrics))
	}
	vaccinesSvc := vaccines.NewService(vaccineRepo, ageGroupSrc, vacOpts...)

	agegroups.RegisterRoutes(r, ageGroupSrc)
	vaccines.RegisterRoutes(r, vaccinesSvc)

	return r
}

// healthHandler responde "ok"; con base SQL además la pinguea.
func healthHandler(store *sqlstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
