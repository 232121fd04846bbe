package models

import (
	"time"

	"familyquest/game"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskOpen      TaskStatus = "OPEN"
	TaskAssigned  TaskStatus = "ASSIGNED"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskVerified  TaskStatus = "VERIFIED"
)

// PointsOverride maps user id to the points a task awards that user.
type PointsOverride map[string]int

type Task struct {
	ID                 string                             `gorm:"primaryKey;type:char(36)" json:"id"`
	FamilyID           string                             `gorm:"type:char(36);index;not null" json:"familyId"`
	Title              string                             `gorm:"size:200;not null" json:"title"`
	Description        string                             `gorm:"type:text" json:"description"`
	BasePoints         int                                `gorm:"not null" json:"basePoints"`
	UserPointsOverride datatypes.JSONType[PointsOverride] `json:"userPointsOverride"`
	Status             TaskStatus                         `gorm:"type:varchar(16);index;not null;default:'OPEN'" json:"status"`
	AssigneeID         *string                            `gorm:"type:char(36);index" json:"assigneeId,omitempty"`
	CreatedBy          string                             `gorm:"type:char(36);not null" json:"createdBy"`
	CreatedAt          time.Time                          `json:"createdAt"`
	UpdatedAt          time.Time                          `json:"-"`
	BookingDeadline    int64                              `gorm:"not null;default:0" json:"bookingDeadline"`
	CompletionDeadline int64                              `gorm:"not null;default:0" json:"completionDeadline"`
	IsBossTask         bool                               `gorm:"not null;default:false" json:"isBossTask"`
	ReferenceImage     *string                            `gorm:"type:text" json:"referenceImage,omitempty"`
	CompletionImage    *string                            `gorm:"type:text" json:"completionImage,omitempty"`
	ImageMatchScore    *int                               `json:"imageMatchScore,omitempty"`
	CreditedPoints     *int                               `json:"creditedPoints,omitempty"`
	VerifiedAt         *time.Time                         `json:"verifiedAt,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.Status == "" {
		t.Status = TaskOpen
	}
	return nil
}

// Overrides returns the per-user points, never nil.
func (t *Task) Overrides() PointsOverride {
	o := t.UserPointsOverride.Data()
	if o == nil {
		return PointsOverride{}
	}
	return o
}

func (t *Task) SetOverrides(o PointsOverride) {
	if o == nil {
		o = PointsOverride{}
	}
	t.UserPointsOverride = datatypes.NewJSONType(o)
}

// PointsFor is what the task is worth for userID.
func (t *Task) PointsFor(userID string) int {
	return game.PointsFor(t.BasePoints, t.Overrides(), userID)
}

// BookingClosed reports whether the booking deadline has passed at now.
func (t *Task) BookingClosed(now time.Time) bool {
	return t.BookingDeadline > 0 && now.UnixMilli() > t.BookingDeadline
}

// Overdue reports whether an assigned task missed its completion deadline.
func (t *Task) Overdue(now time.Time) bool {
	return t.Status == TaskAssigned && t.CompletionDeadline > 0 && now.UnixMilli() > t.CompletionDeadline
}
