package admins

import (
	"net/http"

	"familyquest/middleware"
	"familyquest/services"
	"familyquest/utils"
)

type CreateSideQuestRequest struct {
	Targets       []string `json:"targets"`
	Title         string   `json:"title" validate:"required,max=200"`
	Description   string   `json:"description"`
	DurationHours int      `json:"durationHours"`
}

// POST /api/side-quests
func (c *Controller) CreateSideQuests(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req CreateSideQuestRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	quests, err := c.Svc.CreateSideQuests(r.Context(), actor, services.CreateSideQuestInput{
		Targets:       req.Targets,
		Title:         req.Title,
		Description:   req.Description,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Side quests sent", quests)
}

// DELETE /api/side-quests/{id}
func (c *Controller) DeleteSideQuest(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	if err := c.Svc.DeleteSideQuest(r.Context(), actor, pathID(r)); err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Side quest deleted", nil)
}
