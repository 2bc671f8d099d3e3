package handler

import (
	"net/http"

	"github.com/yndnr/authtoken-go/internal/core/domain"
	"github.com/yndnr/authtoken-go/internal/core/service"
)

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.accounts.Login(r.Context(), &service.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	h.writeJSON(w, r, http.StatusOK, LoginResponse{
		Token: resp.Token,
		User:  accountToResponse(resp.Account),
	})
}

// HandleLogout handles DELETE /logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		WriteError(w, r, domain.ErrCredentialsMissing)
		return
	}

	if err := h.accounts.Logout(r.Context(), p); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRegister handles POST /register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	_, err := h.accounts.Register(r.Context(), &service.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, SuccessResponse{Success: true})
}

// HandleGetAccount handles GET /account.
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		WriteError(w, r, domain.ErrCredentialsMissing)
		return
	}
	h.writeJSON(w, r, http.StatusOK, accountToResponse(p.Account))
}

// HandleChangeEmail handles PUT /account/email.
func (h *Handler) HandleChangeEmail(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		WriteError(w, r, domain.ErrCredentialsMissing)
		return
	}

	var req ChangeEmailRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.accounts.ChangeEmail(r.Context(), p.Account.ID, req.Email)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, accountToResponse(acct))
}
