package models

import (
	"time"

	"gorm.io/gorm"
)

type Family struct {
	ID         string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	InviteCode string    `gorm:"size:6;uniqueIndex;not null" json:"inviteCode"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"-"`
}

func (Family) TableName() string {
	return "families"
}

func (f *Family) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = NewID()
	}
	return nil
}
