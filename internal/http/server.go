package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/ledger"
	"kakeibo/internal/middleware/ratelimit"
	"kakeibo/internal/middleware/security"
	"kakeibo/internal/middleware/trace"
	"kakeibo/internal/services"
	appweb "kakeibo/web"
)

type Server struct {
	http.Server
	templates    *template.Template
	service      *services.LedgerService
	aggregator   *ledger.Aggregator
	auth         *authenticator
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	caches       *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, agg *ledger.Aggregator, users UserResolver, sessionTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:     svc,
		aggregator:  agg,
		auth:        newAuthenticator(users, sessionTTL),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
		caches:      cache.NewManager(),
	}

	s.caches.Register(s.auth.tokens)
	s.caches.StartCleanup(time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /month", s.handleMonth)
	mux.HandleFunc("GET /week", s.handleWeek)
	mux.HandleFunc("GET /day/{date}", s.handleDay)
	mux.HandleFunc("POST /day/{date}", s.handleCreateEntry)
	mux.HandleFunc("POST /entries/{id}/delete", s.handleDeleteEntry)
	mux.HandleFunc("GET /recurring", s.handleRecurring)
	mux.HandleFunc("POST /recurring", s.handleCreateCharge)
	mux.HandleFunc("POST /recurring/{id}/delete", s.handleDeleteCharge)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// Middleware chain: tracing, security headers, probe flagging,
	// write rate limiting, then token auth.
	traceMW := trace.NewMiddleware(extractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handler := traceMW.Middleware(
		headersMW.Middleware(
			s.flagProbes(
				s.limitWrites(
					s.auth.middleware(mux)))))

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}

	return s
}

// flagProbes logs requests that look like scanner probes. They are
// served normally; the log line is for operators watching the noise.
func (s *Server) flagProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			slog.WarnContext(r.Context(), "Suspicious request flagged",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", extractClientIP(r),
				"flagged_total", s.detector.FlaggedCount())
		}
		next.ServeHTTP(w, r)
	})
}

// limitWrites applies per-IP rate limiting to mutating requests only.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.rateLimiter.Allow(extractClientIP(r)) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", extractClientIP(r),
				"method", r.Method,
				"path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		if s.caches != nil {
			s.caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/month", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
