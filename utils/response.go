package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"familyquest/logger"
	"familyquest/models"
	"familyquest/services"

	"go.uber.org/zap"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrTaskLocked), errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrClaimConflict), errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError writes err with its mapped status. Storage and unknown
// failures get a generic message; the cause goes to the log.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		fields := []zap.Field{zap.String("path", r.URL.Path), zap.Error(err)}
		if id, ok := r.Context().Value(RequestIDKey).(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}
		logger.L().Error("request failed", fields...)
		msg = "Internal server error"
	}
	WriteJSON(w, status, APIResponse{Success: false, Message: msg})
}

// GetStringValue returns the value of a nullable string pointer or empty string if nil
func GetStringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// RequireActor returns the authenticated user or writes 401.
func RequireActor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	actor, ok := GetActor(r)
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, APIResponse{Success: false, Message: "Unauthorized"})
	}
	return actor, ok
}
