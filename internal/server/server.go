// Package server exposes classification and normalization over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/joseph-ayodele/doc-classifier/internal/classify"
	"github.com/joseph-ayodele/doc-classifier/internal/common"
	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

// ClassifyService is satisfied by *classify.Service.
type ClassifyService interface {
	Classify(ctx context.Context, doc normalize.InputDocument) (classify.Outcome, error)
}

type Options struct {
	MaxUploadBytes  int64    // default 20 MiB
	RateLimitPerMin int      // per client IP; 0 disables the limit
	AllowedOrigins  []string // default "*"
}

type Server struct {
	classifier ClassifyService
	normalizer classify.Normalizer
	opts       Options
	logger     *slog.Logger
}

func New(svc ClassifyService, n classify.Normalizer, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{classifier: svc, normalizer: n, opts: opts, logger: logger}
}

// OptionsFromConfig converts the server section of the app config.
func OptionsFromConfig(cfg common.ServerConfig) Options {
	return Options{
		MaxUploadBytes:  int64(cfg.MaxUploadMB) << 20,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		s.requestID,
		s.accessLog,
		middleware.Recoverer,
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(v1 chi.Router) {
		if s.opts.RateLimitPerMin > 0 {
			v1.Use(httprate.LimitByIP(s.opts.RateLimitPerMin, time.Minute))
		}
		v1.Post("/classify", s.handleClassify)
		v1.Post("/normalize", s.handleNormalize)
	})
	return r
}

const requestIDHeader = "X-Request-Id"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if rid := r.Header.Get(requestIDHeader); rid != "" && len(rid) <= 128 {
			ctx = common.WithRequestID(ctx, rid)
		}
		ctx, rid := common.EnsureRequestID(ctx)
		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			"req_id", common.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
