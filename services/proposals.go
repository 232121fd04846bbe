package services

import (
	"context"
	"errors"
	"strings"

	"familyquest/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApproveInput finalizes a proposal. Zero values fall back to the proposal's
// suggestion and the default deadline windows.
type ApproveInput struct {
	FinalPoints        int
	Overrides          models.PointsOverride
	BookingDeadline    int64
	CompletionDeadline int64
	IsBossTask         bool
}

func (s *Service) SubmitProposal(ctx context.Context, actor *models.User, title, description string, suggestedPoints int) (*models.TaskProposal, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if suggestedPoints < 1 {
		return nil, validationf("suggestedPoints must be at least 1")
	}
	p := &models.TaskProposal{
		FamilyID:        familyID,
		Title:           title,
		Description:     strings.TrimSpace(description),
		SuggestedPoints: suggestedPoints,
		ProposedBy:      actor.ID,
	}
	if err := s.conn(ctx).Create(p).Error; err != nil {
		return nil, storage("create proposal", err)
	}
	return p, nil
}

func (s *Service) ListProposals(ctx context.Context, actor *models.User) ([]models.TaskProposal, error) {
	familyID, err := RequireFamilyMember(actor)
	if errors.Is(err, ErrNoFamily) {
		return []models.TaskProposal{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []models.TaskProposal{}
	if err := s.conn(ctx).Where("family_id = ?", familyID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, storage("list proposals", err)
	}
	return out, nil
}

// ApproveProposal turns a proposal into an OPEN task and removes the proposal.
// Both happen in one transaction; a proposal consumed concurrently rolls back.
func (s *Service) ApproveProposal(ctx context.Context, actor *models.User, proposalID string, in ApproveInput) (*models.Task, error) {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	var task *models.Task
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.TaskProposal
		if err := tx.Where("id = ? AND family_id = ?", proposalID, familyID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("proposal")
			}
			return storage("load proposal", err)
		}

		points := in.FinalPoints
		if points == 0 {
			points = p.SuggestedPoints
		}
		task, err = newTask(familyID, actor.ID, CreateTaskInput{
			Title:              p.Title,
			Description:        p.Description,
			BasePoints:         points,
			Overrides:          in.Overrides,
			BookingDeadline:    in.BookingDeadline,
			CompletionDeadline: in.CompletionDeadline,
			IsBossTask:         in.IsBossTask,
		}, s.now())
		if err != nil {
			return err
		}
		if err := tx.Create(task).Error; err != nil {
			return storage("create task", err)
		}

		res := tx.Where("id = ? AND family_id = ?", proposalID, familyID).Delete(&models.TaskProposal{})
		if res.Error != nil {
			return storage("delete proposal", res.Error)
		}
		if res.RowsAffected != 1 {
			return notFound("proposal")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log().Info("proposal approved", zap.String("proposal_id", proposalID), zap.String("task_id", task.ID))
	return task, nil
}

func (s *Service) RejectProposal(ctx context.Context, actor *models.User, proposalID string) error {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Where("id = ? AND family_id = ?", proposalID, familyID).Delete(&models.TaskProposal{})
	if res.Error != nil {
		return storage("reject proposal", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("proposal")
	}
	return nil
}
