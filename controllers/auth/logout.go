package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"familyquest/database"
	"familyquest/logger"
	"familyquest/models"
	"familyquest/utils"

	"go.uber.org/zap"
)

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// revokeAccessToken blacklists the bearer token of r until it would expire.
func revokeAccessToken(r *http.Request) {
	tokenStr, ok := utils.BearerToken(r)
	if !ok {
		return
	}
	claims, err := utils.ValidateAccessToken(tokenStr)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := utils.RevokeJTI(claims.ID, ttl); err != nil {
		logger.L().Warn("revoke access token failed", zap.Error(err))
	}
}

// LogoutHandler revokes the caller's access token and, when given, one
// refresh token. The body is optional.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
			return
		}
	}

	revokeAccessToken(r)

	if req.RefreshToken != "" {
		actor, _ := utils.GetActor(r)
		q := database.DB.WithContext(r.Context()).Model(&models.RefreshToken{}).Where("id = ?", req.RefreshToken)
		if actor != nil {
			q = q.Where("user_id = ?", actor.ID)
		}
		// unknown tokens still answer success to avoid enumeration
		if err := q.Update("revoked", true).Error; err != nil {
			logger.L().Warn("revoke refresh token failed", zap.Error(err))
		}
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
