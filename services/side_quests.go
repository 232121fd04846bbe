package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"familyquest/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateSideQuestInput struct {
	Targets       []string
	Title         string
	Description   string
	DurationHours int
}

// SideQuestFilter narrows ListSideQuests. Status may be the derived EXPIRED.
type SideQuestFilter struct {
	AssignedTo string
	Status     models.SideQuestStatus
	ActiveOnly bool
}

func (in CreateSideQuestInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return validationf("title is required")
	}
	if in.DurationHours <= 0 {
		return validationf("durationHours must be positive")
	}
	if len(in.Targets) == 0 {
		return validationf("at least one target is required")
	}
	return nil
}

// CreateSideQuests creates one independent PENDING quest per target.
func (s *Service) CreateSideQuests(ctx context.Context, actor *models.User, in CreateSideQuestInput) ([]models.SideQuest, error) {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	var out []models.SideQuest
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		out, err = s.fanOutSideQuests(tx, familyID, actor.ID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) fanOutSideQuests(tx *gorm.DB, familyID, createdBy string, in CreateSideQuestInput) ([]models.SideQuest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	targets := dedupe(in.Targets)
	if len(targets) == 0 {
		return nil, validationf("at least one target is required")
	}
	var count int64
	if err := tx.Model(&models.User{}).Where("family_id = ? AND id IN ?", familyID, targets).Count(&count).Error; err != nil {
		return nil, storage("check targets", err)
	}
	if int(count) != len(targets) {
		return nil, validationf("every target must be a member of the family")
	}

	now := s.now().UnixMilli()
	expires := now + int64(in.DurationHours)*time.Hour.Milliseconds()
	quests := make([]models.SideQuest, 0, len(targets))
	for _, target := range targets {
		quests = append(quests, models.SideQuest{
			FamilyID:    familyID,
			AssignedTo:  target,
			Title:       strings.TrimSpace(in.Title),
			Description: strings.TrimSpace(in.Description),
			Status:      models.SideQuestPending,
			CreatedBy:   createdBy,
			CreatedAt:   now,
			ExpiresAt:   expires,
		})
	}
	if err := tx.Create(&quests).Error; err != nil {
		return nil, storage("create side quests", err)
	}
	s.log().Info("side quests created", zap.String("family_id", familyID), zap.Int("count", len(quests)))
	return quests, nil
}

// ListSideQuests returns the family's side quests, newest first, with expiry applied.
func (s *Service) ListSideQuests(ctx context.Context, actor *models.User, f SideQuestFilter) ([]models.SideQuest, error) {
	familyID, err := RequireFamilyMember(actor)
	if errors.Is(err, ErrNoFamily) {
		return []models.SideQuest{}, nil
	}
	if err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, validationf("unknown status %q", f.Status)
	}

	q := s.conn(ctx).Where("family_id = ?", familyID)
	if f.AssignedTo != "" {
		q = q.Where("assigned_to = ?", f.AssignedTo)
	}
	switch f.Status {
	case "":
	case models.SideQuestExpired:
		q = q.Where("status = ?", string(models.SideQuestPending))
	default:
		q = q.Where("status = ?", string(f.Status))
	}

	var stored []models.SideQuest
	if err := q.Order("created_at DESC").Find(&stored).Error; err != nil {
		return nil, storage("list side quests", err)
	}

	now := s.now()
	out := make([]models.SideQuest, 0, len(stored))
	for _, sq := range stored {
		view := sq.AtTime(now)
		if f.Status != "" && view.Status != f.Status {
			continue
		}
		if f.ActiveOnly && view.Status == models.SideQuestExpired {
			continue
		}
		out = append(out, view)
	}
	return out, nil
}

// PendingSideQuest is the oldest unexpired PENDING quest for actor, or nil.
func (s *Service) PendingSideQuest(ctx context.Context, actor *models.User) (*models.SideQuest, error) {
	familyID, err := RequireFamilyMember(actor)
	if errors.Is(err, ErrNoFamily) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sq models.SideQuest
	err = s.conn(ctx).
		Where("family_id = ? AND assigned_to = ? AND status = ? AND expires_at >= ?",
			familyID, actor.ID, string(models.SideQuestPending), s.now().UnixMilli()).
		Order("created_at ASC").
		First(&sq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storage("pending side quest", err)
	}
	return &sq, nil
}

// RespondSideQuest lets the assignee accept or decline a PENDING quest.
func (s *Service) RespondSideQuest(ctx context.Context, actor *models.User, questID string, accepted bool) (*models.SideQuest, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	sq, err := loadSideQuest(db, familyID, questID)
	if err != nil {
		return nil, err
	}
	if sq.AssignedTo != actor.ID {
		return nil, forbiddenf("only the assignee may respond")
	}
	if sq.Status != models.SideQuestPending {
		return nil, invalidStatef("side quest is %s", sq.Status)
	}
	if s.policy.EnforceSideQuestExpiry && sq.Expired(s.now()) {
		return nil, invalidStatef("side quest has expired")
	}

	next := models.SideQuestRejected
	if accepted {
		next = models.SideQuestActive
	}
	if err := transitionSideQuest(db, familyID, questID, models.SideQuestPending, next); err != nil {
		return nil, err
	}
	return loadSideQuest(db, familyID, questID)
}

// CompleteSideQuest closes an ACTIVE quest. Side quests never award points.
func (s *Service) CompleteSideQuest(ctx context.Context, actor *models.User, questID string) (*models.SideQuest, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	sq, err := loadSideQuest(db, familyID, questID)
	if err != nil {
		return nil, err
	}
	if _, err := RequireSelfOrAdmin(actor, sq.AssignedTo); err != nil {
		return nil, err
	}
	if sq.Status != models.SideQuestActive {
		return nil, invalidStatef("side quest is %s, only active quests can be completed", sq.Status)
	}
	if err := transitionSideQuest(db, familyID, questID, models.SideQuestActive, models.SideQuestCompleted); err != nil {
		return nil, err
	}
	return loadSideQuest(db, familyID, questID)
}

func (s *Service) DeleteSideQuest(ctx context.Context, actor *models.User, questID string) error {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Where("id = ? AND family_id = ?", questID, familyID).Delete(&models.SideQuest{})
	if res.Error != nil {
		return storage("delete side quest", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("side quest")
	}
	return nil
}

func transitionSideQuest(db *gorm.DB, familyID, questID string, from, to models.SideQuestStatus) error {
	res := db.Model(&models.SideQuest{}).
		Where("id = ? AND family_id = ? AND status = ?", questID, familyID, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return storage("update side quest", res.Error)
	}
	if res.RowsAffected == 0 {
		return invalidStatef("side quest is no longer %s", from)
	}
	return nil
}

func loadSideQuest(db *gorm.DB, familyID, questID string) (*models.SideQuest, error) {
	var sq models.SideQuest
	if err := db.Where("id = ? AND family_id = ?", questID, familyID).First(&sq).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("side quest")
		}
		return nil, storage("load side quest", err)
	}
	return &sq, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
