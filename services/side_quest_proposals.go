package services

import (
	"context"
	"errors"
	"strings"

	"familyquest/models"

	"gorm.io/gorm"
)

func (s *Service) SubmitSideQuestProposal(ctx context.Context, actor *models.User, title, description string, suggestedFor *string) (*models.SideQuestProposal, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationf("title is required")
	}
	db := s.conn(ctx)
	if suggestedFor != nil && *suggestedFor != "" {
		if _, err := loadMember(db, familyID, *suggestedFor); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, validationf("suggestedFor must be a member of the family")
			}
			return nil, err
		}
	} else {
		suggestedFor = nil
	}
	p := &models.SideQuestProposal{
		FamilyID:     familyID,
		Title:        title,
		Description:  strings.TrimSpace(description),
		SuggestedFor: suggestedFor,
		ProposedBy:   actor.ID,
	}
	if err := db.Create(p).Error; err != nil {
		return nil, storage("create side quest proposal", err)
	}
	return p, nil
}

func (s *Service) ListSideQuestProposals(ctx context.Context, actor *models.User) ([]models.SideQuestProposal, error) {
	familyID, err := RequireFamilyMember(actor)
	if errors.Is(err, ErrNoFamily) {
		return []models.SideQuestProposal{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []models.SideQuestProposal{}
	if err := s.conn(ctx).Where("family_id = ?", familyID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, storage("list side quest proposals", err)
	}
	return out, nil
}

// ApproveSideQuestProposal issues side quests from a proposal. Targets default
// to the proposal's suggestedFor member; title and description default to the
// proposal's.
func (s *Service) ApproveSideQuestProposal(ctx context.Context, actor *models.User, proposalID string, in CreateSideQuestInput) ([]models.SideQuest, error) {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	var out []models.SideQuest
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.SideQuestProposal
		if err := tx.Where("id = ? AND family_id = ?", proposalID, familyID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("side quest proposal")
			}
			return storage("load side quest proposal", err)
		}
		if strings.TrimSpace(in.Title) == "" {
			in.Title = p.Title
		}
		if strings.TrimSpace(in.Description) == "" {
			in.Description = p.Description
		}
		if len(in.Targets) == 0 && p.SuggestedFor != nil {
			in.Targets = []string{*p.SuggestedFor}
		}

		out, err = s.fanOutSideQuests(tx, familyID, actor.ID, in)
		if err != nil {
			return err
		}

		res := tx.Where("id = ? AND family_id = ?", proposalID, familyID).Delete(&models.SideQuestProposal{})
		if res.Error != nil {
			return storage("delete side quest proposal", res.Error)
		}
		if res.RowsAffected != 1 {
			return notFound("side quest proposal")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) RejectSideQuestProposal(ctx context.Context, actor *models.User, proposalID string) error {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Where("id = ? AND family_id = ?", proposalID, familyID).Delete(&models.SideQuestProposal{})
	if res.Error != nil {
		return storage("reject side quest proposal", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("side quest proposal")
	}
	return nil
}
