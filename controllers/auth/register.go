package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"familyquest/database"
	"familyquest/logger"
	"familyquest/middleware"
	"familyquest/models"
	"familyquest/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name            string `json:"name" validate:"required,nameok"`
	Password        string `json:"password" validate:"required,pwdmin,max=72"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// NameKey is the case-insensitive identity of a display name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func avatarFor(name string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/200", url.PathEscape(NameKey(name)))
}

// POST /api/auth/register
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Passwords do not match"})
		return
	}

	name := strings.TrimSpace(req.Name)
	db := database.DB.WithContext(r.Context())

	var count int64
	if err := db.Model(&models.User{}).Where("name_key = ?", NameKey(name)).Count(&count).Error; err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	if count > 0 {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "That name is already taken"})
		return
	}

	user := models.User{
		Name:     name,
		NameKey:  NameKey(name),
		Password: req.Password,
		Role:     models.RoleMember,
		Avatar:   avatarFor(name),
	}
	if err := user.HashPassword(); err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "That name is already taken"})
			return
		}
		utils.WriteServiceError(w, r, err)
		return
	}
	logger.L().Info("user registered", zap.String("user_id", user.ID))

	data, err := issueSession(&user)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Welcome, hero!", Data: data})
}
