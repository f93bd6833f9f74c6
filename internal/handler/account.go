package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
)

type signUpRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	BusinessName string `json:"businessName" validate:"required"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	BusinessName string `json:"businessName" validate:"required"`
}

type profileResponse struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	BusinessName string `json:"businessName"`
}

func toProfileResponse(p *auth.Profile) profileResponse {
	return profileResponse{UserID: p.UserID, Email: p.Email, BusinessName: p.BusinessName}
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.accounts.SignUp(r.Context(), auth.SignUpRequest{
		Email:        req.Email,
		Password:     req.Password,
		BusinessName: req.BusinessName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toProfileResponse(p))
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"token": token})
}

// signOut closes the session and drops the user's in-memory register. The
// cached cart survives for the next sign in.
func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.accounts.SignOut(ctx, bearerToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	h.registers.Close(auth.UserID(ctx))
	zctx.From(ctx).Info("Signed out")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.accounts.Profile(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProfileResponse(p))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.accounts.UpdateBusinessName(r.Context(), req.BusinessName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProfileResponse(p))
}
