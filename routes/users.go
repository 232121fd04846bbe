package routes

import (
	"net/http"

	"familyquest/controllers/auth"
	"familyquest/controllers/users"
	"familyquest/middleware"

	"github.com/gorilla/mux"
)

// AuthRoutes registers account endpoints. Anonymous ones are limited per IP.
func AuthRoutes(api *mux.Router, c chains, loginLimiter *middleware.IPRateLimiter) {
	api.Handle("/auth/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/auth/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/auth/refresh", loginLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/auth/logout", c.authed(auth.LogoutHandler)).Methods(http.MethodPost)
	api.Handle("/auth/logout-all", c.authed(auth.LogoutAllHandler)).Methods(http.MethodPost)
	api.Handle("/auth/me", c.authed(auth.MeHandler)).Methods(http.MethodGet)
}

// UsersRoutes registers the endpoints any family member may call.
func UsersRoutes(api *mux.Router, c chains, ctl *users.Controller) {
	// families
	api.Handle("/families", c.authed(ctl.CreateFamily)).Methods(http.MethodPost)
	api.Handle("/families/join", c.authed(ctl.JoinFamily)).Methods(http.MethodPost)
	api.Handle("/families/current", c.authed(ctl.CurrentFamily)).Methods(http.MethodGet)
	api.Handle("/families/scoreboard", c.member(ctl.Scoreboard)).Methods(http.MethodGet)
	api.Handle("/families/state", c.member(ctl.State)).Methods(http.MethodGet)

	// tasks
	api.Handle("/tasks", c.authed(ctl.ListTasks)).Methods(http.MethodGet)
	api.Handle("/tasks/describe", c.member(ctl.DescribeTask)).Methods(http.MethodPost)
	api.Handle("/tasks/{id}/lock", c.member(ctl.TaskLock)).Methods(http.MethodGet)
	api.Handle("/tasks/{id}/claim", c.member(ctl.ClaimTask)).Methods(http.MethodPut)
	api.Handle("/tasks/{id}/complete", c.member(ctl.CompleteTask)).Methods(http.MethodPut)

	// proposals
	api.Handle("/proposals", c.member(ctl.ListProposals)).Methods(http.MethodGet)
	api.Handle("/proposals", c.member(ctl.SubmitProposal)).Methods(http.MethodPost)

	// side quests
	api.Handle("/side-quests", c.authed(ctl.ListSideQuests)).Methods(http.MethodGet)
	api.Handle("/side-quests/pending", c.authed(ctl.PendingSideQuest)).Methods(http.MethodGet)
	api.Handle("/side-quests/{id}/respond", c.member(ctl.RespondSideQuest)).Methods(http.MethodPut)
	api.Handle("/side-quests/{id}/complete", c.member(ctl.CompleteSideQuest)).Methods(http.MethodPut)

	api.Handle("/sq-proposals", c.member(ctl.ListSideQuestProposals)).Methods(http.MethodGet)
	api.Handle("/sq-proposals", c.member(ctl.SubmitSideQuestProposal)).Methods(http.MethodPost)
}
