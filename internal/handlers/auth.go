package handlers

import (
	"errors"
	"net/http"

	"github.com/BerylCAtieno/loanmitra/internal/auth"
	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
	"github.com/gorilla/mux"
)

type AuthHandler struct {
	responder
	service *auth.Service
}

func NewAuthHandler(service *auth.Service, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{responder: responder{logger: logger}, service: service}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

// AuthURL returns the consent URL for clients that open the browser
// themselves.
func (h *AuthHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.authURL(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.AuthURLResponse{URL: url})
}

func (h *AuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	url, err := h.authURL(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *AuthHandler) authURL(r *http.Request) (string, error) {
	url, err := h.service.AuthURL(r.Context(), mux.Vars(r)["provider"])
	if errors.Is(err, auth.ErrUnknownProvider) {
		return "", utils.NewNotFoundError("Auth provider not configured")
	}
	if err != nil {
		h.logger.Error("Failed to start sign-in", "error", err)
		return "", utils.NewInternalError("Failed to start sign-in")
	}
	return url, nil
}

// Callback redirects to the UI with the token when one is configured and
// otherwise answers with the token as JSON.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token, user, err := h.service.Callback(r.Context(), mux.Vars(r)["provider"], q.Get("state"), q.Get("code"))
	switch {
	case errors.Is(err, auth.ErrUnknownProvider):
		h.respondError(w, utils.NewNotFoundError("Auth provider not configured"))
		return
	case errors.Is(err, auth.ErrInvalidState):
		h.respondError(w, utils.NewBadRequestError("invalid or expired state"))
		return
	case err != nil:
		h.logger.Error("Sign-in failed", "error", err)
		h.respondError(w, utils.NewRemoteError("Failed to complete sign-in"))
		return
	}

	h.logger.Info("User signed in", "user_id", user.ID)

	redirect, err := h.service.RedirectURL(token)
	if err != nil {
		h.respondError(w, utils.NewInternalError("Failed to redirect"))
		return
	}
	if redirect != "" {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}
	h.respondJSON(w, http.StatusOK, models.TokenResponse{Token: token, User: user})
}
