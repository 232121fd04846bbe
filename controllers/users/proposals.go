package users

import (
	"net/http"

	"familyquest/middleware"
	"familyquest/utils"
)

type ProposalRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description"`
	SuggestedPoints int    `json:"suggestedPoints"`
}

type SideQuestProposalRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Description  string  `json:"description"`
	SuggestedFor *string `json:"suggestedFor,omitempty"`
}

// GET /api/proposals
func (c *Controller) ListProposals(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	list, err := c.Svc.ListProposals(r.Context(), actor)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", list)
}

// POST /api/proposals
func (c *Controller) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req ProposalRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	p, err := c.Svc.SubmitProposal(r.Context(), actor, req.Title, req.Description, req.SuggestedPoints)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Proposal submitted", p)
}

// GET /api/sq-proposals
func (c *Controller) ListSideQuestProposals(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	list, err := c.Svc.ListSideQuestProposals(r.Context(), actor)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", list)
}

// POST /api/sq-proposals
func (c *Controller) SubmitSideQuestProposal(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req SideQuestProposalRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	p, err := c.Svc.SubmitSideQuestProposal(r.Context(), actor, req.Title, req.Description, req.SuggestedFor)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Proposal submitted", p)
}
