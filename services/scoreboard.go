package services

import (
	"context"
	"sort"

	"familyquest/game"
	"familyquest/models"
)

type ScoreEntry struct {
	Rank     int           `json:"rank"`
	User     models.User   `json:"user"`
	Level    int           `json:"level"`
	NextGate *game.Monster `json:"nextGate,omitempty"`
	Distance int           `json:"distance,omitempty"`
}

// RankUsers orders members by score descending. Equal scores keep the member
// who joined first ahead, then fall back to id so the order is total.
func RankUsers(users []models.User) []models.User {
	out := make([]models.User, len(users))
	copy(out, users)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

func (s *Service) Scoreboard(ctx context.Context, actor *models.User) ([]ScoreEntry, error) {
	familyID, err := RequireFamilyMember(actor)
	if err != nil {
		return nil, err
	}
	members, err := s.familyMembers(s.conn(ctx), familyID)
	if err != nil {
		return nil, err
	}
	return s.scoreEntries(members), nil
}

func (s *Service) scoreEntries(members []models.User) []ScoreEntry {
	ms := s.monsters()
	ranked := RankUsers(members)
	out := make([]ScoreEntry, 0, len(ranked))
	for i, u := range ranked {
		e := ScoreEntry{Rank: i + 1, User: u, Level: game.LevelFor(u.Score)}
		if gate, ok := game.NextGate(u.Score, ms); ok {
			g := gate
			e.NextGate = &g
			e.Distance = gate.MinScore - u.Score
		}
		out = append(out, e)
	}
	return out
}
