package auth

import (
	"net/http"

	"familyquest/database"
	"familyquest/models"
	"familyquest/utils"
)

// LogoutAllHandler revokes every refresh token of the caller and the
// current access token.
func LogoutAllHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetActor(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	revokeAccessToken(r)

	err := database.DB.WithContext(r.Context()).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", actor.ID, false).
		Update("revoked", true).Error
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "All sessions revoked"})
}
