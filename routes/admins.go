package routes

import (
	"net/http"

	"familyquest/controllers/admins"

	"github.com/gorilla/mux"
)

// AdminRoutes registers the endpoints reserved to family admins.
func AdminRoutes(api *mux.Router, c chains, ctl *admins.Controller) {
	api.Handle("/families/users/{id}/role", c.admin(ctl.UpdateRole)).Methods(http.MethodPut)
	api.Handle("/families/users/{id}/reset-score", c.admin(ctl.ResetScore)).Methods(http.MethodPut)

	api.Handle("/tasks", c.admin(ctl.CreateTask)).Methods(http.MethodPost)
	api.Handle("/tasks/{id}/verify", c.admin(ctl.VerifyTask)).Methods(http.MethodPut)
	api.Handle("/tasks/{id}", c.admin(ctl.EditTask)).Methods(http.MethodPut)
	api.Handle("/tasks/{id}", c.admin(ctl.DeleteTask)).Methods(http.MethodDelete)

	api.Handle("/proposals/{id}/approve", c.admin(ctl.ApproveProposal)).Methods(http.MethodPost)
	api.Handle("/proposals/{id}", c.admin(ctl.RejectProposal)).Methods(http.MethodDelete)

	api.Handle("/side-quests", c.admin(ctl.CreateSideQuests)).Methods(http.MethodPost)
	api.Handle("/side-quests/{id}", c.admin(ctl.DeleteSideQuest)).Methods(http.MethodDelete)

	api.Handle("/sq-proposals/{id}/approve", c.admin(ctl.ApproveSideQuestProposal)).Methods(http.MethodPost)
	api.Handle("/sq-proposals/{id}", c.admin(ctl.RejectSideQuestProposal)).Methods(http.MethodDelete)
}
