package services

import (
	"context"
	"time"

	"familyquest/game"
	"familyquest/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultBookingWindow and DefaultCompletionWindow apply when a task is created
// without explicit deadlines, and to approved proposals.
const (
	DefaultBookingWindow    = 24 * time.Hour
	DefaultCompletionWindow = 48 * time.Hour
)

// Policy holds the switches for behavior the clients historically left to the UI.
type Policy struct {
	EnforceBookingDeadline bool
	EnforceSideQuestExpiry bool
}

// Service runs the task, proposal and side quest lifecycles against the store.
type Service struct {
	db       *gorm.DB
	policy   Policy
	now      func() time.Time
	monsters func() []game.Monster
}

type Option func(*Service)

func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock replaces time.Now, mostly for tests around deadlines and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMonsters(ms []game.Monster) Option {
	return func(s *Service) {
		s.monsters = func() []game.Monster { return ms }
	}
}

func New(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:       db,
		now:      time.Now,
		monsters: game.Monsters,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Policy() Policy {
	return s.policy
}

func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Service) log() *zap.Logger {
	return logger.L().Named("services")
}

// Monsters is the gate table the service evaluates against.
func (s *Service) Monsters() []game.Monster {
	return s.monsters()
}
