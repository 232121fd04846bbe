package middleware

import (
	"errors"
	"net/http"

	"familyquest/database"
	"familyquest/models"
	"familyquest/services"
	"familyquest/utils"

	"gorm.io/gorm"
)

func unauthorized(w http.ResponseWriter, msg string) {
	utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: msg})
}

// AuthMiddleware validates the bearer token and loads the caller from the
// database. Handlers always see the stored user, never the token claims.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := utils.BearerToken(r)
		if !ok {
			unauthorized(w, "Unauthorized")
			return
		}
		claims, err := utils.ValidateAccessToken(tokenStr)
		if err != nil {
			if err.Error() == "token expired" {
				unauthorized(w, "Your session has expired, please log in again")
				return
			}
			unauthorized(w, "Invalid token")
			return
		}

		var user models.User
		if err := database.DB.WithContext(r.Context()).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				unauthorized(w, "Invalid token")
				return
			}
			utils.WriteServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(utils.WithActor(r.Context(), &user)))
	})
}

// RequireFamily rejects callers that do not belong to a family.
func RequireFamily(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := utils.GetActor(r)
		if _, err := services.RequireFamilyMember(actor); err != nil {
			utils.WriteServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers that are not an admin of their family.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := utils.GetActor(r)
		if _, err := services.RequireAdmin(actor); err != nil {
			utils.WriteServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
