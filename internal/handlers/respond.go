package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BerylCAtieno/loanmitra/internal/auth"
	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

// maxJSONBody bounds JSON request bodies. Document text is the largest one.
const maxJSONBody = 2 << 20

type responder struct {
	logger *utils.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h responder) respondError(w http.ResponseWriter, err error) {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		h.logger.Error("Unhandled request error", "error", err)
		appErr = utils.NewInternalError("Internal server error")
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("Request error", "status", appErr.StatusCode, "code", appErr.Code, "error", appErr.Message)
	} else {
		h.logger.Warn("Request error", "status", appErr.StatusCode, "code", appErr.Code, "error", appErr.Message)
	}

	h.respondJSON(w, appErr.StatusCode, models.ErrorResponse{Error: appErr.Message, Code: appErr.Code})
}

func (h responder) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.NewBadRequestError("Invalid JSON body")
	}
	return nil
}

// currentUser is only empty when a route was registered without the auth
// middleware.
func currentUser(r *http.Request) (models.User, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return models.User{}, utils.NewUnauthorizedError("missing or invalid token")
	}
	return user, nil
}
