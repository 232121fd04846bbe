package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"familyquest/game"
	"familyquest/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 6
)

// FamilyView is a family with its members ranked for the scoreboard.
type FamilyView struct {
	models.Family
	Members []models.User `json:"members"`
}

// CreateFamily makes a new family with actor as its first admin.
func (s *Service) CreateFamily(ctx context.Context, actor *models.User, name string) (*FamilyView, error) {
	if actor == nil {
		return nil, forbiddenf("not authenticated")
	}
	if actor.FamilyID != nil && *actor.FamilyID != "" {
		return nil, fmt.Errorf("%w: already a member of a family", ErrConflict)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("family name is required")
	}

	var fam models.Family
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := generateInviteCode(tx)
		if err != nil {
			return err
		}
		fam = models.Family{Name: name, InviteCode: code}
		if err := tx.Create(&fam).Error; err != nil {
			return storage("create family", err)
		}
		return joinAs(tx, actor, fam.ID, models.RoleAdmin)
	})
	if err != nil {
		return nil, err
	}
	s.log().Info("family created", zap.String("family_id", fam.ID), zap.String("admin_id", actor.ID))
	return s.familyView(s.conn(ctx), fam)
}

// JoinFamily adds actor to the family holding code. The first member of an
// empty family becomes its admin.
func (s *Service) JoinFamily(ctx context.Context, actor *models.User, code string) (*FamilyView, error) {
	if actor == nil {
		return nil, forbiddenf("not authenticated")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, validationf("invite code is required")
	}

	var fam models.Family
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		// the family row lock serializes concurrent first joiners
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("invite_code = ?", code).First(&fam).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("family with that invite code")
			}
			return storage("find family", err)
		}
		if actor.InFamily(fam.ID) {
			return nil
		}
		if actor.FamilyID != nil && *actor.FamilyID != "" {
			return fmt.Errorf("%w: already a member of another family", ErrConflict)
		}

		var members int64
		if err := tx.Model(&models.User{}).Where("family_id = ?", fam.ID).Count(&members).Error; err != nil {
			return storage("count members", err)
		}
		role := models.RoleMember
		if members == 0 {
			role = models.RoleAdmin
		}
		return joinAs(tx, actor, fam.ID, role)
	})
	if err != nil {
		return nil, err
	}
	return s.familyView(s.conn(ctx), fam)
}

// CurrentFamily returns actor's family, or nil when actor has none.
func (s *Service) CurrentFamily(ctx context.Context, actor *models.User) (*FamilyView, error) {
	familyID, err := RequireFamilyMember(actor)
	if errors.Is(err, ErrNoFamily) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	var fam models.Family
	if err := db.Where("id = ?", familyID).First(&fam).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storage("load family", err)
	}
	return s.familyView(db, fam)
}

// UpdateRole changes a member's role. The family always keeps at least one admin.
func (s *Service) UpdateRole(ctx context.Context, actor *models.User, userID string, role models.Role) (*models.User, error) {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, validationf("role must be ADMIN or MEMBER")
	}
	var out *models.User
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := loadMember(tx, familyID, userID)
		if err != nil {
			return err
		}
		if target.Role == role {
			out = target
			return nil
		}
		if target.Role == models.RoleAdmin && role == models.RoleMember {
			var admins int64
			if err := tx.Model(&models.User{}).
				Where("family_id = ? AND role = ?", familyID, string(models.RoleAdmin)).
				Count(&admins).Error; err != nil {
				return storage("count admins", err)
			}
			if admins <= 1 {
				return invalidStatef("the family must keep at least one admin")
			}
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("role", string(role)).Error; err != nil {
			return storage("update role", err)
		}
		target.Role = role
		out = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResetScore puts a member back at the start of the board.
func (s *Service) ResetScore(ctx context.Context, actor *models.User, userID string) (*models.User, error) {
	familyID, err := RequireAdmin(actor)
	if err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	target, err := loadMember(db, familyID, userID)
	if err != nil {
		return nil, err
	}
	level := game.LevelFor(0)
	if err := db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"score": 0, "level": level}).Error; err != nil {
		return nil, storage("reset score", err)
	}
	target.Score, target.Level = 0, level
	s.log().Info("score reset", zap.String("user_id", userID), zap.String("by", actor.ID))
	return target, nil
}

func (s *Service) familyView(db *gorm.DB, fam models.Family) (*FamilyView, error) {
	members, err := s.familyMembers(db, fam.ID)
	if err != nil {
		return nil, err
	}
	return &FamilyView{Family: fam, Members: RankUsers(members)}, nil
}

func (s *Service) familyMembers(db *gorm.DB, familyID string) ([]models.User, error) {
	members := []models.User{}
	if err := db.Where("family_id = ?", familyID).Order("created_at ASC").Find(&members).Error; err != nil {
		return nil, storage("load members", err)
	}
	return members, nil
}

func loadMember(db *gorm.DB, familyID, userID string) (*models.User, error) {
	var u models.User
	if err := db.Where("id = ? AND family_id = ?", userID, familyID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("family member")
		}
		return nil, storage("load member", err)
	}
	return &u, nil
}

// joinAs moves user into familyID with role and updates the in-memory copy.
func joinAs(tx *gorm.DB, user *models.User, familyID string, role models.Role) error {
	res := tx.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"family_id": familyID, "role": string(role)})
	if res.Error != nil {
		return storage("join family", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("user")
	}
	fid := familyID
	user.FamilyID = &fid
	user.Role = role
	return nil
}

func generateInviteCode(db *gorm.DB) (string, error) {
	const maxAttempts = 100
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomString(inviteCodeAlphabet, inviteCodeLength)
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Family{}).Where("invite_code = ?", code).Count(&count).Error; err != nil {
			return "", storage("check invite code", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a unique invite code after %d attempts", ErrConflict, maxAttempts)
}

func randomString(alphabet string, length int) (string, error) {
	buf := make([]byte, length)
	out := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := 0; i < length; i++ {
		out[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(out), nil
}
