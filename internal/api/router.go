package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/yegors/flight-kiosk/pkg/logger"
)

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	AllowedOrigins []string
	StaticDir      string // empty disables the kiosk page
	RequestTimeout time.Duration
}

// Router wires the handlers into a chi mux
type Router struct {
	handler *Handler
	cfg     RouterConfig
	logger  *logger.Logger
}

// NewRouter creates a new router
func NewRouter(handler *Handler, cfg RouterConfig, log *logger.Logger) *Router {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Router{
		handler: handler,
		cfg:     cfg,
		logger:  log.Named("router"),
	}
}

// Routes returns the root handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(rt.cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", rt.handler.GetHealth)

	r.Route("/api/flights", func(r chi.Router) {
		r.Get("/local", rt.handler.GetLocalFlights)
		r.Get("/best", rt.handler.GetBestFlight)
		r.Get("/global", rt.handler.GetGlobalFlights)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/config", rt.handler.GetConfig)
		r.Post("/config", rt.handler.UpdateConfig)
	})

	if rt.cfg.StaticDir != "" {
		r.Handle("/*", NewStaticFileHandler(rt.cfg.StaticDir, rt.logger))
	}

	return r
}

func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			rt.logger.Debug("HTTP request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Int("bytes", ww.BytesWritten()),
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.Duration("duration", time.Since(start)))
		}()

		next.ServeHTTP(ww, r)
	})
}
