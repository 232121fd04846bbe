package users

import (
	"net/http"
	"strconv"
	"strings"

	"familyquest/middleware"
	"familyquest/models"
	"familyquest/services"
	"familyquest/utils"
)

type RespondRequest struct {
	Accepted *bool `json:"accepted"`
}

// GET /api/side-quests?assignedTo=&status=&active=
func (c *Controller) ListSideQuests(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	q := r.URL.Query()
	filter := services.SideQuestFilter{
		AssignedTo: q.Get("assignedTo"),
		Status:     models.SideQuestStatus(strings.ToUpper(q.Get("status"))),
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "active must be a boolean"})
			return
		}
		filter.ActiveOnly = active
	}
	list, err := c.Svc.ListSideQuests(r.Context(), actor, filter)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", list)
}

// GET /api/side-quests/pending returns the quest the popup should show, or null.
func (c *Controller) PendingSideQuest(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	sq, err := c.Svc.PendingSideQuest(r.Context(), actor)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", sq)
}

// PUT /api/side-quests/{id}/respond
func (c *Controller) RespondSideQuest(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req RespondRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.Accepted == nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "accepted is required"})
		return
	}
	sq, err := c.Svc.RespondSideQuest(r.Context(), actor, pathID(r), *req.Accepted)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", sq)
}

// PUT /api/side-quests/{id}/complete
func (c *Controller) CompleteSideQuest(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	sq, err := c.Svc.CompleteSideQuest(r.Context(), actor, pathID(r))
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Side quest complete", sq)
}
