package admins

import (
	"context"
	"net/http"

	"familyquest/logger"
	"familyquest/middleware"
	"familyquest/models"
	"familyquest/services"
	"familyquest/utils"

	"go.uber.org/zap"
)

type CreateTaskRequest struct {
	Title              string                `json:"title" validate:"required,max=200"`
	Description        string                `json:"description"`
	BasePoints         int                   `json:"basePoints"`
	UserPointsOverride models.PointsOverride `json:"userPointsOverride,omitempty"`
	BookingDeadline    int64                 `json:"bookingDeadline,omitempty"`
	CompletionDeadline int64                 `json:"completionDeadline,omitempty"`
	IsBossTask         bool                  `json:"isBossTask"`
	ReferenceImage     *string               `json:"referenceImage,omitempty"`
}

type EditTaskRequest struct {
	Title              *string                `json:"title,omitempty"`
	Description        *string                `json:"description,omitempty"`
	BasePoints         *int                   `json:"basePoints,omitempty"`
	UserPointsOverride *models.PointsOverride `json:"userPointsOverride,omitempty"`
	BookingDeadline    *int64                 `json:"bookingDeadline,omitempty"`
	CompletionDeadline *int64                 `json:"completionDeadline,omitempty"`
	IsBossTask         *bool                  `json:"isBossTask,omitempty"`
	ReferenceImage     *string                `json:"referenceImage,omitempty"`
}

// storeReference uploads a data URL reference image when object storage is on.
func storeReference(ctx context.Context, actor *models.User, image *string) (*string, error) {
	if image == nil || *image == "" || actor.FamilyID == nil {
		return image, nil
	}
	stored, err := utils.StoreTaskImage(ctx, *actor.FamilyID, "references", *image)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// POST /api/tasks
func (c *Controller) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req CreateTaskRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	ref, err := storeReference(r.Context(), actor, req.ReferenceImage)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	task, err := c.Svc.CreateTask(r.Context(), actor, services.CreateTaskInput{
		Title:              req.Title,
		Description:        req.Description,
		BasePoints:         req.BasePoints,
		Overrides:          req.UserPointsOverride,
		BookingDeadline:    req.BookingDeadline,
		CompletionDeadline: req.CompletionDeadline,
		IsBossTask:         req.IsBossTask,
		ReferenceImage:     ref,
	})
	if err != nil {
		_ = utils.DeleteTaskImage(r.Context(), ref)
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Quest created", task)
}

// PUT /api/tasks/{id}
func (c *Controller) EditTask(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	var req EditTaskRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	ref, err := storeReference(r.Context(), actor, req.ReferenceImage)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	task, err := c.Svc.EditTask(r.Context(), actor, pathID(r), services.EditTaskInput{
		Title:              req.Title,
		Description:        req.Description,
		BasePoints:         req.BasePoints,
		Overrides:          req.UserPointsOverride,
		BookingDeadline:    req.BookingDeadline,
		CompletionDeadline: req.CompletionDeadline,
		IsBossTask:         req.IsBossTask,
		ReferenceImage:     ref,
	})
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Quest updated", task)
}

// PUT /api/tasks/{id}/verify
func (c *Controller) VerifyTask(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	res, err := c.Svc.VerifyTask(r.Context(), actor, pathID(r))
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Quest verified", res)
}

// DELETE /api/tasks/{id}
func (c *Controller) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, authed := utils.RequireActor(w, r)
	if !authed {
		return
	}
	id := pathID(r)
	view, err := c.Svc.TaskLock(r.Context(), actor, id)
	if err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	if err := c.Svc.DeleteTask(r.Context(), actor, id); err != nil {
		utils.WriteServiceError(w, r, err)
		return
	}
	for _, img := range []*string{view.ReferenceImage, view.CompletionImage} {
		if err := utils.DeleteTaskImage(r.Context(), img); err != nil {
			logger.L().Warn("delete task image failed", zap.String("task_id", id), zap.Error(err))
		}
	}
	ok(w, http.StatusOK, "Quest deleted", nil)
}
