package services

import (
	"familyquest/game"
	"familyquest/models"
)

// LockStatus evaluates the progression gate of task for userID against the
// family roster. Users outside the roster are never locked.
func LockStatus(task *models.Task, userID string, roster []models.User, monsters []game.Monster) game.Lock {
	for i := range roster {
		if roster[i].ID == userID {
			return game.LockStatus(task.PointsFor(userID), roster[i].Score, monsters)
		}
	}
	return game.Lock{}
}

// TaskView is a task as one member sees it.
type TaskView struct {
	models.Task
	Points        int       `json:"points"`
	Lock          game.Lock `json:"lock"`
	BookingClosed bool      `json:"bookingClosed"`
	Overdue       bool      `json:"overdue"`
}

func (s *Service) viewTask(task models.Task, viewer *models.User, roster []models.User) TaskView {
	now := s.now()
	return TaskView{
		Task:          task,
		Points:        task.PointsFor(viewer.ID),
		Lock:          LockStatus(&task, viewer.ID, roster, s.monsters()),
		BookingClosed: task.Status == models.TaskOpen && task.BookingClosed(now),
		Overdue:       task.Overdue(now),
	}
}
