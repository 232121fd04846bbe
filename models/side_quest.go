package models

import (
	"time"

	"gorm.io/gorm"
)

type SideQuestStatus string

const (
	SideQuestPending   SideQuestStatus = "PENDING"
	SideQuestActive    SideQuestStatus = "ACTIVE"
	SideQuestCompleted SideQuestStatus = "COMPLETED"
	SideQuestRejected  SideQuestStatus = "REJECTED"
	// SideQuestExpired is never stored; it is derived from PENDING and expiresAt.
	SideQuestExpired SideQuestStatus = "EXPIRED"
)

func (s SideQuestStatus) Valid() bool {
	switch s {
	case SideQuestPending, SideQuestActive, SideQuestCompleted, SideQuestRejected, SideQuestExpired:
		return true
	}
	return false
}

type SideQuest struct {
	ID          string          `gorm:"primaryKey;type:char(36)" json:"id"`
	FamilyID    string          `gorm:"type:char(36);index;not null" json:"familyId"`
	AssignedTo  string          `gorm:"type:char(36);index;not null" json:"assignedTo"`
	Title       string          `gorm:"size:200;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Status      SideQuestStatus `gorm:"type:varchar(16);index;not null;default:'PENDING'" json:"status"`
	CreatedBy   string          `gorm:"type:char(36)" json:"createdBy"`
	CreatedAt   int64           `gorm:"autoCreateTime:milli;not null" json:"createdAt"`
	ExpiresAt   int64           `gorm:"not null" json:"expiresAt"`
}

func (SideQuest) TableName() string {
	return "side_quests"
}

func (q *SideQuest) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = NewID()
	}
	if q.Status == "" {
		q.Status = SideQuestPending
	}
	return nil
}

// Expired reports whether a pending quest ran out of time at now.
func (q *SideQuest) Expired(now time.Time) bool {
	return q.Status == SideQuestPending && now.UnixMilli() > q.ExpiresAt
}

// EffectiveStatus is the stored status with expiry applied.
func (q *SideQuest) EffectiveStatus(now time.Time) SideQuestStatus {
	if q.Expired(now) {
		return SideQuestExpired
	}
	return q.Status
}

// AtTime returns a copy whose Status reflects expiry at now, for responses.
func (q SideQuest) AtTime(now time.Time) SideQuest {
	q.Status = q.EffectiveStatus(now)
	return q
}
