package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/core/service"
	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Config configures a Handler.
type Config struct {
	Accounts      *service.AccountService
	Confirmations *service.ConfirmationService // nil disables confirmation endpoints

	// ConfirmRedirectPath is where a successful confirmation redirects.
	ConfirmRedirectPath string

	// ConfirmInvalidRedirectPath is where a failed confirmation redirects.
	// Empty answers 400.
	ConfirmInvalidRedirectPath string

	// Ready reports whether dependencies are reachable. nil means always ready.
	Ready func(context.Context) error

	Logger *slog.Logger
}

// Handler serves the API endpoints. Routing and middleware live in the
// httpserver package; Handler only exposes the endpoint methods.
type Handler struct {
	accounts *service.AccountService
	confirm  *service.ConfirmationService
	cfg      Config
	logger   *slog.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	if cfg.ConfirmRedirectPath == "" {
		cfg.ConfirmRedirectPath = "/"
	}
	return &Handler{
		accounts: cfg.Accounts,
		confirm:  cfg.Confirmations,
		cfg:      cfg,
		logger:   log,
	}
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are rejected.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		details := "invalid request body"
		if errors.Is(err, io.EOF) {
			details = "request body is empty"
		}
		WriteError(w, r, domain.ErrBadRequest.WithDetails(details))
		return false
	}
	return true
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.L(r.Context())
	switch status, _ := StatusForError(err); {
	case status >= 500:
		log.Error("request failed", "error", err)
	case domain.IsDomainError(err, domain.ErrTokenInvalid.Code):
		log.Debug("invalid token", "reason", domain.ReasonOf(err))
	}
	WriteError(w, r, err)
}

// WriteError writes err using the error envelope. Non-domain errors are
// reported as internal errors without their text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, de := StatusForError(err)

	var details any
	if de.Details != "" {
		details = de.Details
	}
	response := NewErrorResponse(getRequestID(r), de.Code, de.Message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", service.AuthScheme)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// StatusForError returns the HTTP status for err and the DomainError to
// report.
func StatusForError(err error) (int, *domain.DomainError) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, domain.ErrInternalServer
	}
	return errorCodeToHTTPStatus(de.Code), de
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasPrefix(code, "AT-ARG-"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5020"):
		return http.StatusBadGateway
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func getRequestID(r *http.Request) string {
	return logger.RequestIDFromContext(r.Context())
}
