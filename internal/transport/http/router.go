package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lucas-remigio/graocerto.pt/internal/metrics"
	"github.com/lucas-remigio/graocerto.pt/pkg/httputil"
)

type RouterConfig struct {
	WSPath         string
	AllowedOrigins []string
	Debug          bool
}

func NewRouter(cfg RouterConfig, h *Handler, ws http.HandlerFunc) http.Handler {
	if cfg.WSPath == "" {
		cfg.WSPath = "/ws"
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// WS endpoint
	r.Get(cfg.WSPath, ws)

	r.Get("/health", h.Health)
	if cfg.Debug {
		r.Get("/debug/rooms", h.DebugRooms)
		r.Get("/debug-rooms", h.DebugRooms)
	}

	r.Post("/rooms/{key}/notify", h.Notify)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	return r
}
