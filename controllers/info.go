package controllers

import (
	"net/http"
	"strconv"
	"time"

	"familyquest/database"
	"familyquest/services"
	"familyquest/utils"

	"github.com/gorilla/mux"
)

// InfoController serves public application info and the monster table.
type InfoController struct {
	Svc *services.Service
}

func NewInfoController(svc *services.Service) *InfoController {
	return &InfoController{Svc: svc}
}

// GET /health and /api/health
func (c *InfoController) Health(w http.ResponseWriter, r *http.Request) {
	healthy := true
	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
			healthy = false
		}
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	utils.WriteJSON(w, status, utils.APIResponse{
		Success: healthy,
		Message: "familyquest-api",
		Data: map[string]interface{}{
			"healthy":    healthy,
			"serverTime": time.Now().UnixMilli(),
		},
	})
}

// GET /api/monsters
func (c *InfoController) Monsters(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: c.Svc.Monsters()})
}

// GET /api/monsters/{level}/taunt
func (c *InfoController) Taunt(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(mux.Vars(r)["level"])
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "level must be a number"})
		return
	}
	for _, m := range c.Svc.Monsters() {
		if m.Level == level {
			utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
				Success: true,
				Message: "Successfully",
				Data:    map[string]string{"monster": m.Name, "taunt": utils.GenerateBossTaunt(r.Context(), m.Name)},
			})
			return
		}
	}
	utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "No such monster"})
}
