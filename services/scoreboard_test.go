package services

import (
	"testing"
	"time"

	"familyquest/game"
	"familyquest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankUsersTieBreak(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	users := []models.User{
		{ID: "c", Score: 40, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "a", Score: 90, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "b", Score: 40, CreatedAt: base.Add(time.Hour)},
		{ID: "e", Score: 40, CreatedAt: base.Add(time.Hour)},
		{ID: "d", Score: 10, CreatedAt: base},
	}

	ranked := RankUsers(users)
	ids := make([]string, 0, len(ranked))
	for _, u := range ranked {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"a", "b", "e", "c", "d"}, ids)
	assert.Equal(t, "c", users[0].ID, "input must not be reordered")
}

func TestScoreboard(t *testing.T) {
	f := newFixture(t)
	f.setScore(t, f.alice, 95)
	f.setScore(t, f.bob, 95)
	f.setScore(t, f.admin, 210)

	board, err := f.svc.Scoreboard(f.ctx, f.bob)
	require.NoError(t, err)
	require.Len(t, board, 3)

	assert.Equal(t, f.admin.ID, board[0].User.ID)
	assert.Equal(t, 5, board[0].Level)
	assert.Nil(t, board[0].NextGate)

	// alice joined before bob
	assert.Equal(t, f.alice.ID, board[1].User.ID)
	assert.Equal(t, 2, board[1].Rank)
	require.NotNil(t, board[1].NextGate)
	assert.Equal(t, 100, board[1].NextGate.MinScore)
	assert.Equal(t, 5, board[1].Distance)
	assert.Equal(t, game.LevelFor(95), board[1].Level)

	assert.Equal(t, f.bob.ID, board[2].User.ID)
	assert.Equal(t, 3, board[2].Rank)

	_, err = f.svc.Scoreboard(f.ctx, f.newUser(t, "Loner", 0))
	assert.ErrorIs(t, err, ErrNoFamily)
}
