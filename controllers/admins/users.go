package admins

import (
	"net/http"
	"strings"

	"familyquest/middleware"
	"familyquest/models"
	"familyquest/utils"
)

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// PUT /api/families/users/{id}/role
func (c *Controller) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req UpdateRoleRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	user, err := c.Svc.UpdateRole(r.Context(), actor, pathID(r), models.Role(strings.ToUpper(req.Role)))
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Role updated", user)
}

// PUT /api/families/users/{id}/reset-score
func (c *Controller) ResetScore(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	user, err := c.Svc.ResetScore(r.Context(), actor, pathID(r))
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Score reset", user)
}
