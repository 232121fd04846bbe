package users

import (
	"net/http"

	"familyquest/middleware"
	"familyquest/services"
	"familyquest/utils"
)

type CompleteTaskRequest struct {
	Image      *string `json:"image,omitempty"`
	MatchScore *int    `json:"matchScore,omitempty"`
}

type DescribeRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// GET /api/tasks
func (c *Controller) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	tasks, err := c.Svc.ListTasks(r.Context(), actor)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", tasks)
}

// GET /api/tasks/{id}/lock
func (c *Controller) TaskLock(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	view, err := c.Svc.TaskLock(r.Context(), actor, pathID(r))
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Successfully", view.Lock)
}

// PUT /api/tasks/{id}/claim
func (c *Controller) ClaimTask(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	task, err := c.Svc.ClaimTask(r.Context(), actor, pathID(r))
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Quest accepted", task)
}

// PUT /api/tasks/{id}/complete
func (c *Controller) CompleteTask(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req CompleteTaskRequest
	if r.ContentLength != 0 {
		if err := middleware.ValidateJSON(w, r, &req); err != nil {
			return
		}
	}

	completion := services.Completion{MatchScore: req.MatchScore}
	if req.Image != nil && *req.Image != "" {
		familyID, err := services.RequireFamilyMember(actor)
		if err != nil {
			utils.WriteServiceError(w, r, err)
			return
		}
		stored, err := utils.StoreTaskImage(r.Context(), familyID, "completions", *req.Image)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: err.Error()})
			return
		}
		completion.Image = &stored
	}

	res, err := c.Svc.CompleteTask(r.Context(), actor, pathID(r), completion)
	if err != nil {
		_ = utils.DeleteTaskImage(r.Context(), completion.Image)
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Quest complete", res)
}

// POST /api/tasks/describe
func (c *Controller) DescribeTask(w http.ResponseWriter, r *http.Request) {
	var req DescribeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	desc := utils.GenerateQuestDescription(r.Context(), req.Title)
	ok(w, http.StatusOK, "Successfully", map[string]string{"description": desc})
}
