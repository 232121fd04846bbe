package users

import (
	"net/http"

	"familyquest/middleware"
	"familyquest/utils"
)

type CreateFamilyRequest struct {
	Name string `json:"name" validate:"required,nameok"`
}

type JoinFamilyRequest struct {
	InviteCode string `json:"inviteCode" validate:"required,invite"`
}

// POST /api/families
func (c *Controller) CreateFamily(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req CreateFamilyRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	fam, err := c.Svc.CreateFamily(r.Context(), actor, req.Name)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Family created", fam)
}

// POST /api/families/join
func (c *Controller) JoinFamily(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req JoinFamilyRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	fam, err := c.Svc.JoinFamily(r.Context(), actor, req.InviteCode)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Joined family", fam)
}

// GET /api/families/current
func (c *Controller) CurrentFamily(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	fam, err := c.Svc.CurrentFamily(r.Context(), actor)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", fam)
}

// GET /api/families/scoreboard
func (c *Controller) Scoreboard(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	entries, err := c.Svc.Scoreboard(r.Context(), actor)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", entries)
}

// GET /api/families/state is the polling snapshot.
func (c *Controller) State(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	snap, err := c.Svc.FamilySnapshot(r.Context(), actor)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", snap)
}
