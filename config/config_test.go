package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", "quest.db")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadSqlite(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_NAME", "quest.db")
	t.Setenv("ENFORCE_BOOKING_DEADLINE", "true")
	t.Setenv("ENFORCE_SIDE_QUEST_EXPIRY", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.EnforceBookingDeadline)
	assert.False(t, cfg.EnforceSideQuestExpiry)
	assert.Equal(t, "inline", cfg.ImageStore)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetInt(t *testing.T) {
	t.Setenv("SOME_INT", " 42 ")
	assert.Equal(t, 42, GetInt("SOME_INT", 1))
	assert.Equal(t, 7, GetInt("MISSING_INT", 7))
}
