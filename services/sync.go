package services

import (
	"context"

	"familyquest/models"
)

// Snapshot is everything a client needs to render the family state. Clients
// poll it on an interval and again after each of their own writes.
type Snapshot struct {
	Family             *FamilyView                `json:"family"`
	Scoreboard         []ScoreEntry               `json:"scoreboard"`
	Tasks              []TaskView                 `json:"tasks"`
	Proposals          []models.TaskProposal      `json:"proposals"`
	SideQuests         []models.SideQuest         `json:"sideQuests"`
	SideQuestProposals []models.SideQuestProposal `json:"sqProposals"`
	PendingSideQuest   *models.SideQuest          `json:"pendingSideQuest"`
	ServerTime         int64                      `json:"serverTime"`
}

func (s *Service) FamilySnapshot(ctx context.Context, actor *models.User) (*Snapshot, error) {
	fam, err := s.CurrentFamily(ctx, actor)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Family:     fam,
		Scoreboard: []ScoreEntry{},
		ServerTime: s.now().UnixMilli(),
	}
	if fam != nil {
		snap.Scoreboard = s.scoreEntries(fam.Members)
	}
	if snap.Tasks, err = s.ListTasks(ctx, actor); err != nil {
		return nil, err
	}
	if snap.Proposals, err = s.ListProposals(ctx, actor); err != nil {
		return nil, err
	}
	if snap.SideQuests, err = s.ListSideQuests(ctx, actor, SideQuestFilter{}); err != nil {
		return nil, err
	}
	if snap.SideQuestProposals, err = s.ListSideQuestProposals(ctx, actor); err != nil {
		return nil, err
	}
	if snap.PendingSideQuest, err = s.PendingSideQuest(ctx, actor); err != nil {
		return nil, err
	}
	return snap, nil
}
