package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	CORSOrigins []string
	// AdminTokenHash is a bcrypt hash; empty disables the admin check.
	AdminTokenHash string
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))

	r.Route("/v1", func(r chi.Router) {
		// Visitor-facing reads.
		r.Get("/status", h.GetStatus)
		r.Get("/stats", h.GetStats)
		r.Get("/widget", h.GetWidget)
		r.Get("/badge", h.GetBadge)
		r.Get("/indicator", h.GetIndicator)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin([]byte(cfg.AdminTokenHash)))

			r.Post("/stats/refresh", h.RefreshStats)
			r.Post("/status/refresh", h.RefreshStatus)
			r.Get("/admin-bar", h.GetAdminBar)

			r.Get("/monitor", h.GetMonitor)
			r.Post("/monitor", h.CreateMonitor)
			r.Put("/monitor", h.UpdateMonitor)
			r.Delete("/monitor", h.DeleteMonitor)
			r.Get("/monitor/results", h.GetResults)
			r.Get("/monitors", h.ListMonitors)
			r.Get("/pops", h.ListPoPs)

			r.Post("/api-key/verify", h.VerifyAPIKey)
			r.Get("/settings", h.GetSettings)
			r.Put("/settings/api-key", h.PutAPIKey)
			r.Put("/settings/badge", h.PutBadge)
			r.Post("/lifecycle/deactivate", h.Deactivate)

			r.Post("/tools/ping", h.RunPing)
			r.Post("/tools/http", h.RunHTTP)
			r.Post("/tools/dns", h.RunDNS)
		})
	})

	var handler http.Handler = r
	handler = handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-ID"}),
	)(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(h.log)),
		handlers.PrintRecoveryStack(false),
	)(handler)
	return otelhttp.NewHandler(handler, "httpapi")
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
