package handler

import (
	"errors"
	"net/http"

	"github.com/yndnr/authtoken-go/internal/core/domain"
)

// HandleConfirmEmail handles GET /confirm_email/{token}/.
//
// Success redirects to the configured path. An invalid or expired token
// redirects to the invalid path when one is configured and answers 400
// otherwise.
func (h *Handler) HandleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	if h.confirm == nil {
		WriteError(w, r, domain.ErrServiceUnavailable.WithDetails("email confirmation is not configured"))
		return
	}

	_, err := h.confirm.Confirm(r.Context(), r.PathValue("token"))
	if err == nil {
		http.Redirect(w, r, h.cfg.ConfirmRedirectPath, http.StatusFound)
		return
	}

	if !errors.Is(err, domain.ErrTokenInvalid) {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "email confirmation rejected", "reason", domain.ReasonOf(err))
	if h.cfg.ConfirmInvalidRedirectPath != "" {
		http.Redirect(w, r, h.cfg.ConfirmInvalidRedirectPath, http.StatusFound)
		return
	}
	WriteError(w, r, domain.ErrBadRequest.WithDetails("invalid or expired confirmation link"))
}

// HandleResendConfirmation handles POST /confirm_email/resend.
func (h *Handler) HandleResendConfirmation(w http.ResponseWriter, r *http.Request) {
	if h.confirm == nil {
		WriteError(w, r, domain.ErrServiceUnavailable.WithDetails("email confirmation is not configured"))
		return
	}
	p := PrincipalFromContext(r.Context())
	if p == nil {
		WriteError(w, r, domain.ErrCredentialsMissing)
		return
	}

	if err := h.confirm.Resend(r.Context(), p.Account.ID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusAccepted, SuccessResponse{Success: true})
}
