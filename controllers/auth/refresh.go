package auth

import (
	"net/http"

	"familyquest/database"
	"familyquest/middleware"
	"familyquest/models"
	"familyquest/utils"

	"gorm.io/gorm"
)

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshHandler exchanges a valid refresh token for a new access token and
// a rotated refresh token.
func RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	rt, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid refresh token"})
		return
	}

	// revoke the old token only if nobody rotated it concurrently
	var user models.User
	err = database.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).Where("id = ? AND revoked = ?", rt.ID, false).Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", rt.UserID).First(&user).Error
	})
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid refresh token"})
		return
	}

	data, err := issueSession(&user)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: data})
}
