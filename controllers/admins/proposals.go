package admins

import (
	"net/http"

	"familyquest/middleware"
	"familyquest/models"
	"familyquest/services"
	"familyquest/utils"
)

type ApproveProposalRequest struct {
	FinalPoints        int                   `json:"finalPoints,omitempty"`
	UserPointsOverride models.PointsOverride `json:"userPointsOverride,omitempty"`
	BookingDeadline    int64                 `json:"bookingDeadline,omitempty"`
	CompletionDeadline int64                 `json:"completionDeadline,omitempty"`
	IsBossTask         bool                  `json:"isBossTask"`
}

type ApproveSideQuestProposalRequest struct {
	Targets       []string `json:"targets,omitempty"`
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	DurationHours int      `json:"durationHours"`
}

// POST /api/proposals/{id}/approve
func (c *Controller) ApproveProposal(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req ApproveProposalRequest
	if r.ContentLength != 0 {
		if err := middleware.ValidateJSON(w, r, &req); err != nil {
			return
		}
	}
	task, err := c.Svc.ApproveProposal(r.Context(), actor, pathID(r), services.ApproveInput{
		FinalPoints:        req.FinalPoints,
		Overrides:          req.UserPointsOverride,
		BookingDeadline:    req.BookingDeadline,
		CompletionDeadline: req.CompletionDeadline,
		IsBossTask:         req.IsBossTask,
	})
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Proposal approved", task)
}

// DELETE /api/proposals/{id}
func (c *Controller) RejectProposal(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	if err := c.Svc.RejectProposal(r.Context(), actor, pathID(r)); err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Proposal rejected", nil)
}

// POST /api/sq-proposals/{id}/approve
func (c *Controller) ApproveSideQuestProposal(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req ApproveSideQuestProposalRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	quests, err := c.Svc.ApproveSideQuestProposal(r.Context(), actor, pathID(r), services.CreateSideQuestInput{
		Targets:       req.Targets,
		Title:         req.Title,
		Description:   req.Description,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Proposal approved", quests)
}

// DELETE /api/sq-proposals/{id}
func (c *Controller) RejectSideQuestProposal(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	if err := c.Svc.RejectSideQuestProposal(r.Context(), actor, pathID(r)); err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Proposal rejected", nil)
}
