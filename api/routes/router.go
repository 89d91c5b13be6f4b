package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voltbridge/markethub/api/controllers"
	"github.com/voltbridge/markethub/api/middleware"
	"github.com/voltbridge/markethub/pkg/config"
	"github.com/voltbridge/markethub/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	pubsubP controllers.Pinger,
	intakeService controllers.IntakeService,
	retrievalService controllers.RetrievalService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.HealthCheck{Name: "database", Pinger: dbP},
			controllers.HealthCheck{Name: "redis", Pinger: redisP},
			controllers.HealthCheck{Name: "pubsub", Pinger: pubsubP},
		))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/requests", controllers.SubmitMarketRequest(intakeService, logg))
		r.Get("/peek", controllers.PeekBundles(retrievalService, logg))
	})

	return r
}
