package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskProposal struct {
	ID              string    `gorm:"primaryKey;type:char(36)" json:"id"`
	FamilyID        string    `gorm:"type:char(36);index;not null" json:"familyId"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	SuggestedPoints int       `gorm:"not null" json:"suggestedPoints"`
	ProposedBy      string    `gorm:"type:char(36);not null" json:"proposedBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (TaskProposal) TableName() string {
	return "task_proposals"
}

func (p *TaskProposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

type SideQuestProposal struct {
	ID           string    `gorm:"primaryKey;type:char(36)" json:"id"`
	FamilyID     string    `gorm:"type:char(36);index;not null" json:"familyId"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	SuggestedFor *string   `gorm:"type:char(36)" json:"suggestedFor,omitempty"`
	ProposedBy   string    `gorm:"type:char(36);not null" json:"proposedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (SideQuestProposal) TableName() string {
	return "side_quest_proposals"
}

func (p *SideQuestProposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}
