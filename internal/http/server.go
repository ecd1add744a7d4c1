package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/YC815/my-accounting/internal/core"
	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/middleware/ratelimit"
	"github.com/YC815/my-accounting/internal/middleware/security"
	"github.com/YC815/my-accounting/internal/middleware/trace"
	"github.com/YC815/my-accounting/internal/services"
	"github.com/YC815/my-accounting/internal/storage"
	appweb "github.com/YC815/my-accounting/web"
)

// Config holds the server settings that are not handlers.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	TrustedProxies     []string // CIDRs whose X-Forwarded-For is believed
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	ledger  *services.LedgerService
	reports *services.ReportService
	pinger  storage.Pinger
	pages   map[string]*template.Template
	logger  *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(cfg Config, ledger *services.LedgerService, reports *services.ReportService, pinger storage.Pinger) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	s := &Server{
		ledger:    ledger,
		reports:   reports,
		pinger:    pinger,
		pages:     pages,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:  detector,
		startedAt: time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, detector.ExtractClientIP)

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = detector.BlockSuspicious(s.onSuspicious)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleHome)

	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/{id}/edit", s.handleEditExpense)
	mux.HandleFunc("POST /expenses/{id}/edit", s.handleUpdateExpense)
	mux.HandleFunc("POST /expenses/{id}/delete", s.handleDeleteExpense)

	mux.HandleFunc("GET /repayments", s.handleListRepayments)
	mux.HandleFunc("POST /repayments", s.handleCreateRepayment)
	mux.HandleFunc("GET /repayments/{id}/edit", s.handleEditRepayment)
	mux.HandleFunc("POST /repayments/{id}/edit", s.handleUpdateRepayment)
	mux.HandleFunc("POST /repayments/{id}/delete", s.handleDeleteRepayment)

	mux.HandleFunc("GET /adjustments", s.handleListAdjustments)
	mux.HandleFunc("POST /adjustments", s.handleCreateAdjustment)
	mux.HandleFunc("GET /adjustments/{id}/edit", s.handleEditAdjustment)
	mux.HandleFunc("POST /adjustments/{id}/edit", s.handleUpdateAdjustment)
	mux.HandleFunc("POST /adjustments/{id}/delete", s.handleDeleteAdjustment)

	mux.HandleFunc("GET /reports", s.handleReports)
	mux.HandleFunc("GET /reports/data", s.handleReportData)
	mux.HandleFunc("GET /reports/export", s.handleExport)
	return nil
}

// Shutdown stops the rate limiter cleanup loop and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "請求過於頻繁，請稍後再試").Write(w)
}

func (s *Server) onSuspicious(r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request blocked",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path,
		applog.FieldUserAgent, r.UserAgent())
}

// fail maps an error onto the response: validation 422, missing record 404,
// anything else 500 with the detail only in the log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	switch {
	case core.IsValidation(err):
		logger.InfoContext(ctx, "Input rejected",
			applog.FieldErrorType, applog.ErrorTypeValidation,
			applog.FieldError, err)
		s.respondError(w, r, http.StatusUnprocessableEntity, "輸入資料有誤", validationMessage(err), back)
	case errors.Is(err, storage.ErrNotFound):
		logger.InfoContext(ctx, "Record not found",
			applog.FieldErrorType, applog.ErrorTypeNotFound,
			applog.FieldPath, r.URL.Path)
		s.respondError(w, r, http.StatusNotFound, "找不到紀錄", "❌ 找不到這筆紀錄，可能已被刪除", back)
	default:
		logger.ErrorContext(ctx, "Request failed",
			applog.FieldErrorType, applog.ErrorTypeInternal,
			applog.FieldError, err,
			applog.FieldPath, r.URL.Path)
		s.respondError(w, r, http.StatusInternalServerError, "系統錯誤", "❌ 系統錯誤，請稍後再試", back)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, heading, msg, back string) {
	if isHTMX(r) {
		ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
		return
	}
	s.render(w, r, status, pageError, errorPage{
		basePage: newBasePage(r, heading, ""),
		Heading:  heading,
		Message:  msg,
		Back:     back,
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, back string) {
	s.fail(w, r, storage.ErrNotFound, back)
}

// done finishes a successful mutation: htmx gets HX-Redirect, a plain form
// post gets 303 See Other. notice is one of the keys of notices.
func (s *Server) done(w http.ResponseWriter, r *http.Request, target, kind, op, notice string) {
	url := target + "?notice=" + notice
	if isHTMX(r) {
		NewHTMXResponse().
			TriggerRecordChanged(kind, op).
			TriggerFormReset().
			Redirect(url).
			Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
