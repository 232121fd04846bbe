package auth

import (
	"errors"
	"net/http"
	"time"

	"familyquest/config"
	"familyquest/database"
	"familyquest/middleware"
	"familyquest/models"
	"familyquest/utils"

	"gorm.io/gorm"
)

type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// issueSession creates an access token and a stored refresh token for user.
func issueSession(user *models.User) (map[string]interface{}, error) {
	ttl := time.Duration(config.GetInt("ACCESS_TOKEN_TTL_MINUTES", 24*60)) * time.Minute
	access, err := utils.GenerateAccessTokenWithExpiry(user.ID, user.Role, ttl)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"token":         access,
		"access_expire": time.Now().Add(ttl).UTC().Format(time.RFC3339),
		"refresh_token": refresh,
		"user":          user,
	}, nil
}

func tooManyAttempts(w http.ResponseWriter, retry time.Duration) {
	utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
		Success: false,
		Message: "Too many login attempts, try again later",
		Data:    map[string]interface{}{"retry_after_seconds": int(retry.Seconds())},
	})
}

// POST /api/auth/login
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if locked, retry := middleware.IsAccountLocked(req.Name); locked {
		tooManyAttempts(w, retry)
		return
	}

	var user models.User
	if err := database.DB.WithContext(r.Context()).Where("name_key = ?", NameKey(req.Name)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.RecordFailedLogin(req.Name)
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Wrong name or password"})
			return
		}
		utils.WriteServiceError(w, r, err)
		return
	}
	if !user.ValidatePassword(req.Password) {
		middleware.RecordFailedLogin(req.Name)
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Wrong name or password"})
		return
	}
	middleware.ResetFailedLogin(req.Name)

	data, err := issueSession(&user)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged in", Data: data})
}

// GET /api/auth/me
func MeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetActor(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: actor})
}
