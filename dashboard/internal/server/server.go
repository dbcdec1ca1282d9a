package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbd888/resumeiq-web/dashboard/internal/forms"
	"github.com/mbd888/resumeiq-web/dashboard/internal/session"
	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
	"github.com/mbd888/resumeiq-web/pkg/auth"
	"github.com/mbd888/resumeiq-web/pkg/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server hosts the dashboard web UI.
type Server struct {
	cfg       config.DashboardConfig
	api       *apiclient.Client
	sessions  session.Manager
	validator *forms.Validator
	templates *template.Template
	mux       *http.ServeMux
	logger    *slog.Logger
	limiter   RateLimiter
	apiOpts   []apiclient.Option

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	upstreamTotal      *prometheus.CounterVec
	upstreamDuration   *prometheus.HistogramVec
	uploadResults      *prometheus.CounterVec
	rateLimitHits      *prometheus.CounterVec
}

// Option customises server construction.
type Option func(*Server)

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimiter replaces the in-memory limiter.
func WithRateLimiter(limiter RateLimiter) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// WithAPIOptions passes extra options to the API client.
func WithAPIOptions(opts ...apiclient.Option) Option {
	return func(s *Server) {
		s.apiOpts = append(s.apiOpts, opts...)
	}
}

// New constructs a configured server ready to serve HTTP traffic.
func New(cfg config.DashboardConfig, opts ...Option) (*Server, error) {
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, errors.New("SESSION_SECRET must be configured for the dashboard")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.AnalysisConcurrency < 1 {
		cfg.AnalysisConcurrency = 1
	}
	sessionMgr, err := session.New(cfg.SessionSecret, cfg.CookieName, cfg.CookieSecure)
	if err != nil {
		return nil, err
	}
	tmplFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	templates, err := template.New("base").Funcs(templateFuncs()).ParseFS(tmplFS, "*.html")
	if err != nil {
		return nil, err
	}
	srv := &Server{
		cfg:       cfg,
		sessions:  sessionMgr,
		validator: forms.New(),
		templates: templates,
		mux:       http.NewServeMux(),
		logger:    slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.limiter == nil {
		srv.limiter = NewMemoryRateLimiter()
	}
	srv.initMetrics()

	apiOpts := append([]apiclient.Option{
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithUserAgent("resumeiq-dashboard"),
		apiclient.WithObserver(srv.observeUpstream),
	}, srv.apiOpts...)
	srv.api, err = apiclient.New(cfg.APIBaseURL, apiOpts...)
	if err != nil {
		return nil, err
	}
	srv.registerRoutes()
	return srv, nil
}

// ServeHTTP conforms to http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}

func (s *Server) registerRoutes() {
	authLimit, authWindow := s.cfg.AuthRateLimit, s.cfg.AuthRateWindow

	s.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	s.handle("/healthz", "/healthz", s.handleHealthz)
	s.handle("/", "/", s.handleLanding)
	s.handle("/login", "/login", s.withRateLimit("/login", authLimit, authWindow, s.handleLogin))
	s.handle("/register", "/register", s.withRateLimit("/register", authLimit, authWindow, s.handleRegister))
	s.handle("/logout", "/logout", s.handleLogout)
	s.handle("/dashboard", "/dashboard", s.requireAuth(s.handleDashboard))
	s.handle("/dashboard/upload", "/dashboard/upload", s.requireAuth(s.handleUpload))
	s.handle("/dashboard/resumes/", "/dashboard/resumes/:id", s.requireAuth(s.handleResumeSubroutes))
	s.handle("/dashboard/jobs", "/dashboard/jobs", s.requireAuth(s.handleJobs))
	s.handle("/dashboard/jobs/", "/dashboard/jobs/:id", s.requireAuth(s.handleJobSubroutes))
	s.handle("/dashboard/analysis", "/dashboard/analysis", s.requireAuth(s.handleAnalysis))
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.sessions.TokenFromRequest(r); err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			s.logger.Warn("session validation failed", "error", err)
			http.SetCookie(w, s.sessions.ExpireCookie())
			redirectWithFlash(w, r, "/login", "Please sign in")
			return
		}
		next(w, r)
	}
}

// sessionFor binds the session manager to the cookie of this request.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *auth.Manager {
	return auth.NewManager(s.api, s.sessions.Store(w, r))
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
}

// loadFailed answers a failed page load. Authentication failures drop the
// session and send the user to the login page; other failures render the
// error page unless the legacy redirect behaviour is enabled. Either way the
// user sees exactly one flash message.
func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, err error, message string) {
	if auth.IsAuthFailure(err) {
		s.logger.Info("session rejected by api", "path", r.URL.Path, "error", err)
		http.SetCookie(w, s.sessions.ExpireCookie())
		redirectWithFlash(w, r, "/login", message)
		return
	}
	s.logger.Warn("page load failed", "path", r.URL.Path, "error", err)
	if s.cfg.RedirectOnAnyFailure {
		redirectWithFlash(w, r, "/login", message)
		return
	}
	s.renderError(w, r, http.StatusBadGateway, message)
}

// sessionExpired handles authentication failures of form submissions. It
// reports whether the response was written.
func (s *Server) sessionExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !auth.IsAuthFailure(err) {
		return false
	}
	http.SetCookie(w, s.sessions.ExpireCookie())
	redirectWithFlash(w, r, "/login", "Please sign in")
	return true
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"api":       s.api.BaseURL(),
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
