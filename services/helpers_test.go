package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"familyquest/database"
	"familyquest/game"
	"familyquest/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	svc    *Service
	clock  *fakeClock
	family *FamilyView
	admin  *models.User
	alice  *models.User
	bob    *models.User
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newFixture builds a family with one admin and two members.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		db:    newTestDB(t),
		clock: &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	opts = append([]Option{WithClock(f.clock.Now), WithMonsters(game.DefaultMonsters())}, opts...)
	f.svc = New(f.db, opts...)

	f.admin = f.newUser(t, "Mamma", 0)
	f.alice = f.newUser(t, "Alice", time.Minute)
	f.bob = f.newUser(t, "Bob", 2*time.Minute)

	fam, err := f.svc.CreateFamily(f.ctx, f.admin, "Svenssons")
	require.NoError(t, err)
	f.family = fam
	_, err = f.svc.JoinFamily(f.ctx, f.alice, fam.InviteCode)
	require.NoError(t, err)
	_, err = f.svc.JoinFamily(f.ctx, f.bob, fam.InviteCode)
	require.NoError(t, err)
	return f
}

func (f *fixture) newUser(t *testing.T, name string, age time.Duration) *models.User {
	t.Helper()
	u := &models.User{
		Name:      name,
		NameKey:   strings.ToLower(name),
		Password:  "hash",
		CreatedAt: f.clock.Now().Add(-time.Hour).Add(age),
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) reload(t *testing.T, u *models.User) *models.User {
	t.Helper()
	var out models.User
	require.NoError(t, f.db.Where("id = ?", u.ID).First(&out).Error)
	return &out
}

func (f *fixture) setScore(t *testing.T, u *models.User, score int) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", u.ID).
		Updates(map[string]interface{}{"score": score, "level": game.LevelFor(score)}).Error)
}

func (f *fixture) createTask(t *testing.T, title string, points int) *models.Task {
	t.Helper()
	task, err := f.svc.CreateTask(f.ctx, f.admin, CreateTaskInput{Title: title, BasePoints: points})
	require.NoError(t, err)
	return task
}
