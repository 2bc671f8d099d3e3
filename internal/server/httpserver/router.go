package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/authtoken-go/internal/core/service"
	"github.com/yndnr/authtoken-go/internal/server/httpserver/handler"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
	"github.com/yndnr/authtoken-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler configures the API endpoints.
	Handler handler.Config

	// Authenticator resolves auth tokens for protected routes.
	Authenticator *service.Authenticator

	// Metrics records request metrics. nil disables them.
	Metrics *metric.Registry

	// MetricsEnabled exposes GET /metrics.
	MetricsEnabled bool

	// Logger for request logging.
	Logger *slog.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	hcfg := cfg.Handler
	if hcfg.Logger == nil {
		hcfg.Logger = log
	}
	h := handler.New(hcfg)

	// Order: RequestID -> Recover -> Audit [-> TokenAuth] -> Handler
	public := func(fn http.HandlerFunc) http.Handler {
		return Chain(fn, RequestID(), Recover(log), Audit(log, cfg.Metrics))
	}
	protected := func(fn http.HandlerFunc) http.Handler {
		return Chain(fn, RequestID(), Recover(log), Audit(log, cfg.Metrics), TokenAuth(cfg.Authenticator))
	}

	mux := http.NewServeMux()

	mux.Handle("GET /health", public(h.HandleHealth))
	mux.Handle("GET /ready", public(h.HandleReady))
	if cfg.MetricsEnabled && cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	mux.Handle("POST /login", public(h.HandleLogin))
	mux.Handle("DELETE /logout", protected(h.HandleLogout))
	mux.Handle("POST /register", public(h.HandleRegister))

	mux.Handle("GET /confirm_email/{token}/{$}", public(h.HandleConfirmEmail))
	mux.Handle("POST /confirm_email/resend", protected(h.HandleResendConfirmation))

	mux.Handle("GET /account", protected(h.HandleGetAccount))
	mux.Handle("PUT /account/email", protected(h.HandleChangeEmail))

	return mux
}
