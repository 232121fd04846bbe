package users

import (
	"net/http"

	"familyquest/services"
	"familyquest/utils"

	"github.com/gorilla/mux"
)

// Controller serves the member-facing endpoints.
type Controller struct {
	Svc *services.Service
}

func NewController(svc *services.Service) *Controller {
	return &Controller{Svc: svc}
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func ok(w http.ResponseWriter, status int, msg string, data interface{}) {
	utils.WriteJSON(w, status, utils.APIResponse{Success: true, Message: msg, Data: data})
}
