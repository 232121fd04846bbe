package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type User struct {
	ID        string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	NameKey   string    `gorm:"size:100;uniqueIndex;not null" json:"-"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      Role      `gorm:"type:varchar(16);default:'MEMBER';not null" json:"role"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	Level     int       `gorm:"not null;default:1" json:"level"`
	FamilyID  *string   `gorm:"type:char(36);index" json:"familyId"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.Level == 0 {
		u.Level = 1
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// InFamily reports whether the user belongs to familyID.
func (u *User) InFamily(familyID string) bool {
	return u.FamilyID != nil && *u.FamilyID == familyID
}

// HashPassword replaces the plain password with its bcrypt hash.
func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ValidatePassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
