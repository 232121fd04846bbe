package services

import (
	"testing"
	"time"

	"familyquest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) washCar(t *testing.T, targets ...*models.User) []models.SideQuest {
	t.Helper()
	ids := make([]string, 0, len(targets))
	for _, u := range targets {
		ids = append(ids, u.ID)
	}
	quests, err := f.svc.CreateSideQuests(f.ctx, f.admin, CreateSideQuestInput{
		Targets:       ids,
		Title:         "Wash car",
		DurationHours: 4,
	})
	require.NoError(t, err)
	return quests
}

func TestCreateSideQuest(t *testing.T) {
	f := newFixture(t)
	quests := f.washCar(t, f.alice)
	require.Len(t, quests, 1)

	q := quests[0]
	assert.Equal(t, models.SideQuestPending, q.Status)
	assert.Equal(t, f.alice.ID, q.AssignedTo)
	assert.Equal(t, f.clock.Now().UnixMilli(), q.CreatedAt)
	assert.Equal(t, q.CreatedAt+4*3600000, q.ExpiresAt)
}

func TestSideQuestReject(t *testing.T) {
	f := newFixture(t)
	q := f.washCar(t, f.alice)[0]

	out, err := f.svc.RespondSideQuest(f.ctx, f.alice, q.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.SideQuestRejected, out.Status)

	_, err = f.svc.RespondSideQuest(f.ctx, f.alice, q.ID, true)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSideQuestAcceptAndCompleteAwardsNothing(t *testing.T) {
	f := newFixture(t)
	f.setScore(t, f.alice, 33)
	q := f.washCar(t, f.alice)[0]

	out, err := f.svc.RespondSideQuest(f.ctx, f.alice, q.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.SideQuestActive, out.Status)

	out, err = f.svc.CompleteSideQuest(f.ctx, f.alice, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SideQuestCompleted, out.Status)

	assert.Equal(t, 33, f.reload(t, f.alice).Score)

	_, err = f.svc.CompleteSideQuest(f.ctx, f.alice, q.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSideQuestPermissions(t *testing.T) {
	f := newFixture(t)
	q := f.washCar(t, f.alice)[0]

	_, err := f.svc.RespondSideQuest(f.ctx, f.bob, q.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.RespondSideQuest(f.ctx, f.admin, q.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.RespondSideQuest(f.ctx, f.alice, q.ID, true)
	require.NoError(t, err)
	_, err = f.svc.CompleteSideQuest(f.ctx, f.bob, q.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.CompleteSideQuest(f.ctx, f.admin, q.ID)
	assert.NoError(t, err)

	_, err = f.svc.CreateSideQuests(f.ctx, f.alice, CreateSideQuestInput{Targets: []string{f.bob.ID}, Title: "x", DurationHours: 1})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateSideQuestValidation(t *testing.T) {
	f := newFixture(t)
	stranger := f.newUser(t, "Stranger", 0)

	cases := map[string]CreateSideQuestInput{
		"no title":       {Targets: []string{f.alice.ID}, DurationHours: 1},
		"zero duration":  {Targets: []string{f.alice.ID}, Title: "x"},
		"no targets":     {Title: "x", DurationHours: 1},
		"outside family": {Targets: []string{f.alice.ID, stranger.ID}, Title: "x", DurationHours: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateSideQuests(f.ctx, f.admin, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.SideQuest{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestSideQuestFanOutIsIndependent(t *testing.T) {
	f := newFixture(t)
	quests := f.washCar(t, f.alice, f.bob)
	require.Len(t, quests, 2)
	assert.NotEqual(t, quests[0].ID, quests[1].ID)

	var aliceQuest, bobQuest models.SideQuest
	for _, q := range quests {
		if q.AssignedTo == f.alice.ID {
			aliceQuest = q
		} else {
			bobQuest = q
		}
	}
	_, err := f.svc.RespondSideQuest(f.ctx, f.alice, aliceQuest.ID, false)
	require.NoError(t, err)

	pending, err := f.svc.PendingSideQuest(f.ctx, f.bob)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, bobQuest.ID, pending.ID)
	assert.Equal(t, models.SideQuestPending, pending.Status)
}

func TestSideQuestExpiry(t *testing.T) {
	f := newFixture(t)
	q := f.washCar(t, f.alice)[0]

	pending, err := f.svc.PendingSideQuest(f.ctx, f.alice)
	require.NoError(t, err)
	require.NotNil(t, pending)

	f.clock.Advance(5 * time.Hour)

	pending, err = f.svc.PendingSideQuest(f.ctx, f.alice)
	require.NoError(t, err)
	assert.Nil(t, pending)

	all, err := f.svc.ListSideQuests(f.ctx, f.alice, SideQuestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.SideQuestExpired, all[0].Status)

	expired, err := f.svc.ListSideQuests(f.ctx, f.alice, SideQuestFilter{Status: models.SideQuestExpired})
	require.NoError(t, err)
	assert.Len(t, expired, 1)

	stillPending, err := f.svc.ListSideQuests(f.ctx, f.alice, SideQuestFilter{Status: models.SideQuestPending})
	require.NoError(t, err)
	assert.Empty(t, stillPending)

	active, err := f.svc.ListSideQuests(f.ctx, f.alice, SideQuestFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	// expiry is only a view; the stored row stays PENDING
	var stored models.SideQuest
	require.NoError(t, f.db.Where("id = ?", q.ID).First(&stored).Error)
	assert.Equal(t, models.SideQuestPending, stored.Status)

	out, err := f.svc.RespondSideQuest(f.ctx, f.alice, q.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.SideQuestActive, out.Status)
}

func TestSideQuestExpiryEnforced(t *testing.T) {
	f := newFixture(t, WithPolicy(Policy{EnforceSideQuestExpiry: true}))
	q := f.washCar(t, f.alice)[0]
	f.clock.Advance(5 * time.Hour)

	_, err := f.svc.RespondSideQuest(f.ctx, f.alice, q.ID, true)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestListSideQuestsFilters(t *testing.T) {
	f := newFixture(t)
	f.washCar(t, f.alice, f.bob)

	mine, err := f.svc.ListSideQuests(f.ctx, f.admin, SideQuestFilter{AssignedTo: f.bob.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.bob.ID, mine[0].AssignedTo)

	_, err = f.svc.ListSideQuests(f.ctx, f.admin, SideQuestFilter{Status: "DONE"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteSideQuest(t *testing.T) {
	f := newFixture(t)
	q := f.washCar(t, f.alice)[0]

	assert.ErrorIs(t, f.svc.DeleteSideQuest(f.ctx, f.alice, q.ID), ErrForbidden)
	require.NoError(t, f.svc.DeleteSideQuest(f.ctx, f.admin, q.ID))
	assert.ErrorIs(t, f.svc.DeleteSideQuest(f.ctx, f.admin, q.ID), ErrNotFound)
}

func TestSideQuestProposals(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.SubmitSideQuestProposal(f.ctx, f.alice, "Build a fort", "with cushions", &f.bob.ID)
	require.NoError(t, err)

	list, err := f.svc.ListSideQuestProposals(f.ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, list, 1)

	quests, err := f.svc.ApproveSideQuestProposal(f.ctx, f.admin, p.ID, CreateSideQuestInput{DurationHours: 2})
	require.NoError(t, err)
	require.Len(t, quests, 1)
	assert.Equal(t, f.bob.ID, quests[0].AssignedTo)
	assert.Equal(t, "Build a fort", quests[0].Title)
	assert.Equal(t, "with cushions", quests[0].Description)

	list, err = f.svc.ListSideQuestProposals(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSideQuestProposalRejectAndValidation(t *testing.T) {
	f := newFixture(t)
	stranger := f.newUser(t, "Stranger", 0)

	_, err := f.svc.SubmitSideQuestProposal(f.ctx, f.alice, "Fort", "", &stranger.ID)
	assert.ErrorIs(t, err, ErrValidation)

	p, err := f.svc.SubmitSideQuestProposal(f.ctx, f.alice, "Fort", "", nil)
	require.NoError(t, err)

	// no suggested member and no targets given
	_, err = f.svc.ApproveSideQuestProposal(f.ctx, f.admin, p.ID, CreateSideQuestInput{DurationHours: 2})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.svc.RejectSideQuestProposal(f.ctx, f.admin, p.ID))
	assert.ErrorIs(t, f.svc.RejectSideQuestProposal(f.ctx, f.admin, p.ID), ErrNotFound)
}
