package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/adwikanair2008-hue/swim-flow/internal/metrics"
)

func NewRouter(apiHandler *APIHandler, m *metrics.Manager, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.StandardLogger(), NoColor: true}))
	r.Use(PanicRecovery(m))
	r.Use(middleware.StripSlashes)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(RequestMetrics(m))

		r.Get("/health", apiHandler.HealthHandler)
		r.Get("/state", apiHandler.GetStateHandler)
		r.Put("/profile", apiHandler.PutProfileHandler)

		// Backup and reset
		r.Get("/export", apiHandler.ExportHandler)
		r.Post("/import", apiHandler.ImportHandler)
		r.Delete("/data", apiHandler.WipeHandler)

		// Everything below needs a completed profile
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.OnboardedMiddleware)

			r.Get("/profile/bmi", apiHandler.GetBMIHandler)
			r.Put("/tab", apiHandler.PutTabHandler)

			r.Get("/sessions", apiHandler.ListSessionsHandler)
			r.Post("/sessions", apiHandler.CreateSessionHandler)

			r.Get("/dashboard", apiHandler.DashboardHandler)
			r.Get("/progress", apiHandler.ProgressHandler)
			r.Get("/progress/insights", apiHandler.InsightsHandler)

			r.Get("/coach/messages", apiHandler.ListMessagesHandler)
			r.Post("/coach/messages", apiHandler.PostMessageHandler)

			r.Post("/nutrition", apiHandler.NutritionHandler)
			r.Post("/drylands", apiHandler.DrylandsHandler)
		})
	})

	return r
}
