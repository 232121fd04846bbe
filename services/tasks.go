package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"familyquest/game"
	"familyquest/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateTaskInput struct {
	Title              string
	Description        string
	BasePoints         int
	Overrides          models.PointsOverride
	BookingDeadline    int64
	CompletionDeadline int64
	IsBossTask         bool
	ReferenceImage     *string
}

// EditTaskInput carries a partial update; nil fields stay untouched.
type EditTaskInput struct {
	Title              *string
	Description        *string
	BasePoints         *int
	Overrides          *models.PointsOverride
	BookingDeadline    *int64
	CompletionDeadline *int64
	IsBossTask         *bool
	ReferenceImage     *string
}

// Completion is the optional proof attached when a task is completed. The
// match score comes from an external similarity function and is stored as is.
type Completion struct {
	Image      *string
	MatchScore *int
}

type FinalizeResult struct {
	Task     *models.Task `json:"task"`
	Assignee *models.User `json:"assignee,omitempty"`
	Credited int          `json:"credited"`
}

var finalizableStatuses = []string{string(models.TaskAssigned), string(models.TaskCompleted)}

func validateOverrides(o models.PointsOverride) error {
	for userID, points := range o {
		if strings.TrimSpace(userID) == "" {
			return validationf("override user id is empty")
		}
		if points < 0 {
			return validationf("override for %s must not be negative", userID)
		}
	}
	return nil
}

func validateDeadlines(booking, completion int64) error {
	if booking < 0 || completion < 0 {
		return validationf("deadlines must not be negative")
	}
	if booking > 0 && completion > 0 && completion < booking {
		return validationf("completion deadline is before booking deadline")
	}
	return nil
}

// newTask validates in and builds an OPEN task for familyID.
func newTask(familyID, createdBy string, in CreateTaskInput, now time.Time) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if in.BasePoints < 1 {
		return nil, validationf("basePoints must be at least 1")
	}
	if err := validateOverrides(in.Overrides); err != nil {
		return nil, err
	}
	booking, completion := in.BookingDeadline, in.CompletionDeadline
	if booking == 0 {
		booking = now.Add(DefaultBookingWindow).UnixMilli()
	}
	if completion == 0 {
		completion = now.Add(DefaultCompletionWindow).UnixMilli()
	}
	if err := validateDeadlines(booking, completion); err != nil {
		return nil, err
	}
	task := &models.Task{
		FamilyID:           familyID,
		Title:              title,
		Description:        strings.TrimSpace(in.Description),
		BasePoints:         in.BasePoints,
		Status:             models.TaskOpen,
		CreatedBy:          createdBy,
		BookingDeadline:    booking,
		CompletionDeadline: completion,
		IsBossTask:         in.IsBossTask,
		ReferenceImage:     in.ReferenceImage,
	}
	task.SetOverrides(in.Overrides)
	return task, nil
}

func (s *Service) CreateTask(ctx context.Context, actor *models.User, in CreateTaskInput) (*models.Task, error) {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	task, err := newTask(familyID, actor.ID, in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.conn(ctx).Create(task).Error; err != nil {
		return nil, storage("create task", err)
	}
	return task, nil
}

// ListTasks returns the family's tasks, newest first, as seen by actor.
func (s *Service) ListTasks(ctx context.Context, actor *models.User) ([]TaskView, error) {
	familyID, err := RequireFamilyMember(actor)
	if errors.Is(err, ErrNoFamily) {
		return []TaskView{}, nil
	}
	if err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	var tasks []models.Task
	if err := db.Where("family_id = ?", familyID).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, storage("list tasks", err)
	}
	roster, err := s.familyMembers(db, familyID)
	if err != nil {
		return nil, err
	}
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, s.viewTask(t, actor, roster))
	}
	return out, nil
}

// TaskLock returns a single task with its gate status for actor.
func (s *Service) TaskLock(ctx context.Context, actor *models.User, taskID string) (*TaskView, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	task, err := loadTask(db, familyID, taskID)
	if err != nil {
		return nil, err
	}
	roster, err := s.familyMembers(db, familyID)
	if err != nil {
		return nil, err
	}
	v := s.viewTask(*task, actor, roster)
	return &v, nil
}

// ClaimTask moves an OPEN task to ASSIGNED for actor. The transition is a single
// conditional update so concurrent claims have exactly one winner.
func (s *Service) ClaimTask(ctx context.Context, actor *models.User, taskID string) (*models.Task, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return nil, err
	}
	db := s.conn(ctx)

	task, err := loadTask(db, familyID, taskID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrClaimConflict
	}
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskOpen {
		return nil, ErrClaimConflict
	}
	if s.policy.EnforceBookingDeadline && task.BookingClosed(s.now()) {
		return nil, invalidStatef("booking deadline has passed")
	}

	var score int
	if err := db.Model(&models.User{}).Where("id = ?", actor.ID).Select("score").Scan(&score).Error; err != nil {
		return nil, storage("load score", err)
	}
	if lock := game.LockStatus(task.PointsFor(actor.ID), score, s.monsters()); lock.Locked {
		return nil, fmt.Errorf("%w: %s", ErrTaskLocked, lock.Reason)
	}

	res := db.Model(&models.Task{}).
		Where("id = ? AND family_id = ? AND status = ?", taskID, familyID, string(models.TaskOpen)).
		Updates(map[string]interface{}{
			"status":      string(models.TaskAssigned),
			"assignee_id": actor.ID,
		})
	if res.Error != nil {
		return nil, storage("claim task", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrClaimConflict
	}
	return loadTask(db, familyID, taskID)
}

// CompleteTask is called by the assignee (or an admin) and finalizes the task.
func (s *Service) CompleteTask(ctx context.Context, actor *models.User, taskID string, c Completion) (*FinalizeResult, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return nil, err
	}
	return s.finalizeTask(ctx, familyID, taskID, &c, func(t *models.Task) error {
		owner := ""
		if t.AssigneeID != nil {
			owner = *t.AssigneeID
		}
		_, err := RequireSelfOrAdmin(actor, owner)
		return err
	})
}

// VerifyTask is the admin override that finalizes a task without a completion.
func (s *Service) VerifyTask(ctx context.Context, actor *models.User, taskID string) (*FinalizeResult, error) {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	return s.finalizeTask(ctx, familyID, taskID, nil, nil)
}

// finalizeTask is the one transition into VERIFIED shared by complete and
// verify. Points are credited only when the conditional update moves the task
// out of ASSIGNED/COMPLETED, so a task is credited at most once.
func (s *Service) finalizeTask(ctx context.Context, familyID, taskID string, c *Completion, authorize func(*models.Task) error) (*FinalizeResult, error) {
	var out FinalizeResult
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := loadTask(tx, familyID, taskID)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(task); err != nil {
				return err
			}
		}
		if task.Status != models.TaskAssigned && task.Status != models.TaskCompleted {
			return invalidStatef("task is %s, only assigned tasks can be completed", task.Status)
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":      string(models.TaskVerified),
			"verified_at": now,
		}
		points := 0
		if task.AssigneeID != nil {
			points = task.PointsFor(*task.AssigneeID)
			updates["credited_points"] = points
		}
		if c != nil {
			if c.Image != nil {
				updates["completion_image"] = *c.Image
			}
			if c.MatchScore != nil {
				updates["image_match_score"] = *c.MatchScore
			}
		}

		res := tx.Model(&models.Task{}).
			Where("id = ? AND family_id = ? AND status IN ?", taskID, familyID, finalizableStatuses).
			Updates(updates)
		if res.Error != nil {
			return storage("finalize task", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidStatef("task was finalized concurrently")
		}

		if task.AssigneeID != nil {
			assignee, err := creditUser(tx, *task.AssigneeID, points)
			if err != nil {
				return err
			}
			out.Assignee = assignee
			out.Credited = points
		}

		out.Task, err = loadTask(tx, familyID, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log().Info("task verified",
		zap.String("task_id", taskID),
		zap.String("family_id", familyID),
		zap.Int("credited", out.Credited))
	return &out, nil
}

// creditUser adds points to a user's score and brings the level in line with it.
// It must run inside the transaction that finalized the task.
func creditUser(tx *gorm.DB, userID string, points int) (*models.User, error) {
	res := tx.Model(&models.User{}).Where("id = ?", userID).Update("score", gorm.Expr("score + ?", points))
	if res.Error != nil {
		return nil, storage("credit score", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound("assignee")
	}
	var u models.User
	if err := tx.Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, storage("reload assignee", err)
	}
	if level := game.LevelFor(u.Score); level != u.Level {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("level", level).Error; err != nil {
			return nil, storage("update level", err)
		}
		u.Level = level
	}
	return &u, nil
}

// EditTask updates task fields in any status. Already credited points stay as they are.
func (s *Service) EditTask(ctx context.Context, actor *models.User, taskID string, in EditTaskInput) (*models.Task, error) {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	task, err := loadTask(db, familyID, taskID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, validationf("title must not be empty")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.BasePoints != nil {
		if *in.BasePoints < 1 {
			return nil, validationf("basePoints must be at least 1")
		}
		updates["base_points"] = *in.BasePoints
	}
	if in.Overrides != nil {
		if err := validateOverrides(*in.Overrides); err != nil {
			return nil, err
		}
		var patched models.Task
		patched.SetOverrides(*in.Overrides)
		updates["user_points_override"] = patched.UserPointsOverride
	}
	booking, completion := task.BookingDeadline, task.CompletionDeadline
	if in.BookingDeadline != nil {
		booking = *in.BookingDeadline
		updates["booking_deadline"] = booking
	}
	if in.CompletionDeadline != nil {
		completion = *in.CompletionDeadline
		updates["completion_deadline"] = completion
	}
	if err := validateDeadlines(booking, completion); err != nil {
		return nil, err
	}
	if in.IsBossTask != nil {
		updates["is_boss_task"] = *in.IsBossTask
	}
	if in.ReferenceImage != nil {
		updates["reference_image"] = *in.ReferenceImage
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := db.Model(&models.Task{}).Where("id = ? AND family_id = ?", taskID, familyID).Updates(updates).Error; err != nil {
		return nil, storage("edit task", err)
	}
	return loadTask(db, familyID, taskID)
}

func (s *Service) DeleteTask(ctx context.Context, actor *models.User, taskID string) error {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Where("id = ? AND family_id = ?", taskID, familyID).Delete(&models.Task{})
	if res.Error != nil {
		return storage("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("task")
	}
	return nil
}

func loadTask(db *gorm.DB, familyID, taskID string) (*models.Task, error) {
	var task models.Task
	if err := db.Where("id = ? AND family_id = ?", taskID, familyID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("task")
		}
		return nil, storage("load task", err)
	}
	return &task, nil
}
