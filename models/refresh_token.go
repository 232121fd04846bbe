package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

type RefreshToken struct {
	ID        string    `gorm:"primaryKey;type:varchar(100)" json:"id"`
	UserID    string    `gorm:"type:char(36);index" json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"createdAt"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func NewRefreshToken(userID string, ttlDays int) (*RefreshToken, error) {
	id, err := generateRandomID(32)
	if err != nil {
		return nil, err
	}
	return &RefreshToken{
		ID:        id,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(ttlDays) * 24 * time.Hour),
		CreatedAt: time.Now(),
	}, nil
}

type RevokedToken struct {
	ID        string    `gorm:"primaryKey;type:varchar(100)"`
	RevokedAt time.Time `gorm:"not null"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}

func generateRandomID(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "rt_" + hex.EncodeToString(b), nil
}
