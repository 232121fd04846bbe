package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"familyquest/database"
	"familyquest/game"
	"familyquest/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Role  string `json:"role"`
		Score int    `json:"score"`
		Level int    `json:"level"`
	} `json:"user"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	t.Cleanup(func() {
		database.DB = nil
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return InitRouter(services.New(db, services.WithMonsters(game.DefaultMonsters())))
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
}

func register(t *testing.T, h http.Handler, name string) session {
	t.Helper()
	code, env := call(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{"name": name, "password": "secret1"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var s session
	decode(t, env, &s)
	require.NotEmpty(t, s.Token)
	return s
}

// household registers an admin with a family and one member who joined it.
func household(t *testing.T, h http.Handler) (admin, member session) {
	t.Helper()
	admin = register(t, h, "Mamma")
	code, env := call(t, h, http.MethodPost, "/api/families", admin.Token, map[string]string{"name": "Svenssons"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var fam struct {
		InviteCode string `json:"inviteCode"`
	}
	decode(t, env, &fam)
	require.Len(t, fam.InviteCode, 6)

	member = register(t, h, "Alice")
	code, env = call(t, h, http.MethodPost, "/api/families/join", member.Token, map[string]string{"inviteCode": strings.ToLower(fam.InviteCode)})
	require.Equal(t, http.StatusOK, code, env.Message)
	return admin, member
}

func TestHealth(t *testing.T) {
	h := newRouter(t)
	code, env := call(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestRegisterRejectsDuplicateNameAnyCase(t *testing.T) {
	h := newRouter(t)
	register(t, h, "Mamma")

	code, _ := call(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "mamma", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = call(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Pappa", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLoginAndMe(t *testing.T) {
	h := newRouter(t)
	register(t, h, "Mamma")

	code, _ := call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"name": "Mamma", "password": "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"name": "MAMMA", "password": "secret1"})
	require.Equal(t, http.StatusOK, code)
	var s session
	decode(t, env, &s)

	code, env = call(t, h, http.MethodGet, "/api/auth/me", s.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		Name     string  `json:"name"`
		FamilyID *string `json:"familyId"`
	}
	decode(t, env, &me)
	assert.Equal(t, "Mamma", me.Name)
	assert.Nil(t, me.FamilyID)
}

func TestLoginLockout(t *testing.T) {
	t.Setenv("LOGIN_FREE_ATTEMPTS", "2")
	h := newRouter(t)
	register(t, h, "Lockme")

	for i := 0; i < 3; i++ {
		code, _ := call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"name": "Lockme", "password": "nope-nope"})
		require.Equal(t, http.StatusUnauthorized, code)
	}
	code, _ := call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"name": "lockme", "password": "secret1"})
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	h := newRouter(t)
	s := register(t, h, "Mamma")

	code, _ := call(t, h, http.MethodPost, "/api/auth/logout", s.Token, map[string]string{"refresh_token": s.RefreshToken})
	require.Equal(t, http.StatusOK, code)

	code, _ = call(t, h, http.MethodGet, "/api/auth/me", s.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRefreshRotates(t *testing.T) {
	h := newRouter(t)
	s := register(t, h, "Mamma")

	code, env := call(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	var next session
	decode(t, env, &next)
	assert.NotEqual(t, s.RefreshToken, next.RefreshToken)

	// the old refresh token is single use
	code, _ = call(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUnauthenticated(t *testing.T) {
	h := newRouter(t)
	code, _ := call(t, h, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, h, http.MethodGet, "/api/tasks", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestMemberRoutesNeedFamily(t *testing.T) {
	h := newRouter(t)
	s := register(t, h, "Loner")

	code, _ := call(t, h, http.MethodGet, "/api/families/scoreboard", s.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// listing without a family is an empty list, not an error
	code, env := call(t, h, http.MethodGet, "/api/tasks", s.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestTaskFlow(t *testing.T) {
	h := newRouter(t)
	admin, alice := household(t, h)

	code, _ := call(t, h, http.MethodPost, "/api/tasks", alice.Token, map[string]interface{}{"title": "Dishes", "basePoints": 20})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := call(t, h, http.MethodPost, "/api/tasks", admin.Token, map[string]interface{}{
		"title":              "Dishes",
		"basePoints":         20,
		"userPointsOverride": map[string]int{alice.User.ID: 25},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var task struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, env, &task)
	assert.Equal(t, "OPEN", task.Status)

	code, env = call(t, h, http.MethodGet, "/api/tasks", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var list []struct {
		ID     string `json:"id"`
		Points int    `json:"points"`
		Lock   struct {
			Locked bool `json:"locked"`
		} `json:"lock"`
	}
	decode(t, env, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 25, list[0].Points)
	assert.False(t, list[0].Lock.Locked)

	code, _ = call(t, h, http.MethodPut, "/api/tasks/"+task.ID+"/claim", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = call(t, h, http.MethodPut, "/api/tasks/"+task.ID+"/claim", admin.Token, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = call(t, h, http.MethodPut, "/api/tasks/"+task.ID+"/complete", alice.Token, map[string]interface{}{"matchScore": 87})
	require.Equal(t, http.StatusOK, code, env.Message)
	var res struct {
		Credited int `json:"credited"`
	}
	decode(t, env, &res)
	assert.Equal(t, 25, res.Credited)

	// already verified
	code, _ = call(t, h, http.MethodPut, "/api/tasks/"+task.ID+"/verify", admin.Token, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = call(t, h, http.MethodGet, "/api/families/scoreboard", admin.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var board []struct {
		Rank int `json:"rank"`
		User struct {
			Name  string `json:"name"`
			Score int    `json:"score"`
		} `json:"user"`
	}
	decode(t, env, &board)
	require.Len(t, board, 2)
	assert.Equal(t, "Alice", board[0].User.Name)
	assert.Equal(t, 25, board[0].User.Score)

	code, _ = call(t, h, http.MethodDelete, "/api/tasks/"+task.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, h, http.MethodGet, "/api/tasks/"+task.ID+"/lock", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestProposalFlow(t *testing.T) {
	h := newRouter(t)
	admin, alice := household(t, h)

	code, env := call(t, h, http.MethodPost, "/api/proposals", alice.Token, map[string]interface{}{"title": "Walk dog", "suggestedPoints": 15})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var p struct {
		ID string `json:"id"`
	}
	decode(t, env, &p)

	code, _ = call(t, h, http.MethodPost, "/api/proposals/"+p.ID+"/approve", alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = call(t, h, http.MethodPost, "/api/proposals/"+p.ID+"/approve", admin.Token, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var task struct {
		Title      string `json:"title"`
		BasePoints int    `json:"basePoints"`
	}
	decode(t, env, &task)
	assert.Equal(t, "Walk dog", task.Title)
	assert.Equal(t, 15, task.BasePoints)

	code, _ = call(t, h, http.MethodDelete, "/api/proposals/"+p.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSideQuestFlow(t *testing.T) {
	h := newRouter(t)
	admin, alice := household(t, h)

	code, env := call(t, h, http.MethodPost, "/api/side-quests", admin.Token, map[string]interface{}{
		"targets":       []string{alice.User.ID},
		"title":         "Fetch milk",
		"durationHours": 2,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = call(t, h, http.MethodGet, "/api/side-quests/pending", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var sq struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, env, &sq)
	require.NotEmpty(t, sq.ID)

	code, _ = call(t, h, http.MethodPut, "/api/side-quests/"+sq.ID+"/respond", admin.Token, map[string]bool{"accepted": true})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = call(t, h, http.MethodPut, "/api/side-quests/"+sq.ID+"/respond", alice.Token, map[string]bool{"accepted": true})
	require.Equal(t, http.StatusOK, code, env.Message)
	decode(t, env, &sq)
	assert.Equal(t, "ACTIVE", sq.Status)

	code, _ = call(t, h, http.MethodPut, "/api/side-quests/"+sq.ID+"/complete", alice.Token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = call(t, h, http.MethodGet, "/api/side-quests?status=completed", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var list []struct {
		ID string `json:"id"`
	}
	decode(t, env, &list)
	assert.Len(t, list, 1)

	code, _ = call(t, h, http.MethodGet, "/api/side-quests?active=maybe", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRoleAndState(t *testing.T) {
	h := newRouter(t)
	admin, alice := household(t, h)

	code, _ := call(t, h, http.MethodPut, "/api/families/users/"+admin.User.ID+"/role", admin.Token, map[string]string{"role": "member"})
	assert.Equal(t, http.StatusConflict, code)

	code, env := call(t, h, http.MethodPut, "/api/families/users/"+alice.User.ID+"/role", admin.Token, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, code, env.Message)

	// role comes from the stored user, not the token
	code, _ = call(t, h, http.MethodPost, "/api/side-quests", alice.Token, map[string]interface{}{
		"targets": []string{admin.User.ID}, "title": "Coffee", "durationHours": 1,
	})
	assert.Equal(t, http.StatusCreated, code)

	code, env = call(t, h, http.MethodGet, "/api/families/state", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var snap struct {
		Scoreboard []json.RawMessage `json:"scoreboard"`
		SideQuests []json.RawMessage `json:"sideQuests"`
		ServerTime int64             `json:"serverTime"`
	}
	decode(t, env, &snap)
	assert.Len(t, snap.Scoreboard, 2)
	assert.Len(t, snap.SideQuests, 1)
	assert.NotZero(t, snap.ServerTime)
}

func TestMonsters(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	h := newRouter(t)
	s := register(t, h, "Mamma")

	code, env := call(t, h, http.MethodGet, "/api/monsters", s.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var ms []game.Monster
	decode(t, env, &ms)
	assert.Len(t, ms, 3)

	code, env = call(t, h, http.MethodGet, "/api/monsters/1/taunt", s.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var taunt map[string]string
	decode(t, env, &taunt)
	assert.NotEmpty(t, taunt["taunt"])

	code, _ = call(t, h, http.MethodGet, "/api/monsters/9/taunt", s.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
