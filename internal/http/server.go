package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"viajjo/internal/auth"
	"viajjo/internal/core"
	applog "viajjo/internal/log"
	"viajjo/internal/metrics"
	"viajjo/internal/middleware/ratelimit"
	"viajjo/internal/middleware/security"
	"viajjo/internal/middleware/trace"
	"viajjo/internal/report"
	"viajjo/internal/services"
	appweb "viajjo/web"
)

// Checker reports whether a dependency is ready to serve traffic.
type Checker func(ctx context.Context) error

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth      *auth.Service
	Tracker   *services.TrackerService
	Reports   *report.Generator
	Distances *core.DistanceTable
	Metrics   *metrics.Metrics
	// Checks run on /readyz, keyed by dependency name.
	Checks             map[string]Checker
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *slog.Logger
	// Now defaults to time.Now; the expense form uses it for the default date.
	Now func() time.Time
}

type Server struct {
	http.Server

	auth      *auth.Service
	tracker   *services.TrackerService
	reports   *report.Generator
	distances *core.DistanceTable
	metrics   *metrics.Metrics
	checks    map[string]Checker
	pages     map[View]*template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	logger    *slog.Logger
	now       func() time.Time
	stopOnce  sync.Once
}

var templateFuncs = template.FuncMap{
	"reais": formatReais,
	"lines": func(items []string) string { return strings.Join(items, "\n") },
}

// parsePages builds one template set per view: the shared layout and
// partials plus the view's own "content" definition.
func parsePages() (map[View]*template.Template, error) {
	base, err := template.New("base").Funcs(templateFuncs).
		ParseFS(appweb.TemplatesFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	pages := make(map[View]*template.Template, len(views))
	for _, v := range views {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(appweb.TemplatesFS, "templates/"+v.String()+".html"); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", v, err)
		}
		pages[v] = t
	}
	return pages, nil
}

func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Tracker == nil {
		return nil, errors.New("http server requires auth and tracker services")
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	distances := deps.Distances
	if distances == nil {
		distances = core.DefaultDistanceTable()
	}
	reports := deps.Reports
	if reports == nil {
		reports = report.NewGenerator(nil)
	}

	detector := security.NewDetector()
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	s := &Server{
		auth:      deps.Auth,
		tracker:   deps.Tracker,
		reports:   reports,
		distances: distances,
		metrics:   deps.Metrics,
		checks:    deps.Checks,
		pages:     pages,
		detector:  detector,
		logger:    logger,
		now:       deps.Now,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
	}
	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limitMutations(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = detector.Middleware(handler)
	handler = trace.NewMiddleware(logger, detector.ExtractClientIP, deps.Metrics).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.Handle("GET /{$}", security.NoStore(s.page(ViewDashboard)))
	for _, v := range []View{ViewTrips, ViewExpenses, ViewReports, ViewProfile} {
		mux.Handle("GET "+v.Path(), security.NoStore(s.page(v)))
	}

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("POST /trips", s.requireUser(s.handleCreateTrip))
	mux.Handle("POST /trips/delete", s.requireUser(s.handleDeleteTrip))
	mux.Handle("DELETE /trips/delete", s.requireUser(s.handleDeleteTrip))

	mux.Handle("POST /expenses", s.requireUser(s.handleCreateExpense))
	mux.Handle("POST /expenses/delete", s.requireUser(s.handleDeleteExpense))
	mux.Handle("DELETE /expenses/delete", s.requireUser(s.handleDeleteExpense))

	mux.Handle("GET /reports/download", security.NoStore(s.requireUser(s.handleReportDownload)))
	mux.Handle("POST /profile", s.requireUser(s.handleSaveProfile))

	mux.Handle("GET /ui/chart", security.NoStore(s.requireUser(s.handleChart)))
	mux.Handle("GET /ui/distance", s.requireUser(s.handleDistance))
}

// limitMutations applies the rate limiter to state-changing requests.
// Page loads and static assets are not limited.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).Warn("Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Muitas requisições, aguarde um minuto").Write(w)
	})(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(s.limiter.Stop)
	return s.Server.Shutdown(ctx)
}

// renderView executes the view. HTMX requests get only the "content"
// block; full loads get the layout around it.
func (s *Server) renderView(w http.ResponseWriter, r *http.Request, data pageData, resp *HTMXResponseBuilder) {
	t, ok := s.pages[data.View]
	if !ok {
		s.internalError(w, r, fmt.Errorf("no template for view %s", data.View))
		return
	}
	name := "layout"
	if isHTMX(r) && r.Header.Get("HX-Boosted") != "true" {
		name = "content"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		s.internalError(w, r, fmt.Errorf("render %s: %w", data.View, err))
		return
	}
	if resp == nil {
		resp = NewHTMXResponse()
	}
	resp.Header("Cache-Control", "no-store").BodyHTML(buf.Bytes()).Write(w)
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages[ViewTrips].ExecuteTemplate(&buf, name, data); err != nil {
		s.internalError(w, r, fmt.Errorf("render %s: %w", name, err))
		return
	}
	NewHTMXResponse().BodyHTML(buf.Bytes()).Write(w)
}

// internalError logs err and sends a generic 500.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).Error("Request failed",
		applog.FieldPath, r.URL.Path,
		applog.FieldError, err)
	ErrorResponse(http.StatusInternalServerError, "Erro interno, tente novamente").Write(w)
}

// lookupError marks a form failure caused by reading stored state rather
// than by the submitted values.
type lookupError struct{ err error }

func (e lookupError) Error() string { return "load form context: " + e.err.Error() }
func (e lookupError) Unwrap() error { return e.err }

// formError answers a failed form: 500 for storage failures, 422 otherwise.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, err error) {
	var le lookupError
	if errors.As(err, &le) {
		s.internalError(w, r, err)
		return
	}
	validationError(w, err)
}

// validationError answers a rejected form with 422.
func validationError(w http.ResponseWriter, err error) {
	ErrorResponse(http.StatusUnprocessableEntity, userMessage(err)).Write(w)
}

// redirect sends the browser to path, through HX-Redirect for HTMX.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(path).Write(w)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
