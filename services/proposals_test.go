package services

import (
	"testing"

	"familyquest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveProposalIsAtomic(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.SubmitProposal(f.ctx, f.alice, "Bake bread", "sourdough", 15)
	require.NoError(t, err)

	task, err := f.svc.ApproveProposal(f.ctx, f.admin, p.ID, ApproveInput{FinalPoints: 25})
	require.NoError(t, err)
	assert.Equal(t, 25, task.BasePoints)
	assert.Equal(t, "Bake bread", task.Title)
	assert.Equal(t, models.TaskOpen, task.Status)

	var tasks int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&tasks).Error)
	assert.EqualValues(t, 1, tasks)

	var proposals int64
	require.NoError(t, f.db.Model(&models.TaskProposal{}).Count(&proposals).Error)
	assert.EqualValues(t, 0, proposals)

	_, err = f.svc.ApproveProposal(f.ctx, f.admin, p.ID, ApproveInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveProposalDefaultsToSuggestedPoints(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.SubmitProposal(f.ctx, f.bob, "Fold laundry", "", 12)
	require.NoError(t, err)

	task, err := f.svc.ApproveProposal(f.ctx, f.admin, p.ID, ApproveInput{
		Overrides:  models.PointsOverride{f.bob.ID: 20},
		IsBossTask: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, task.BasePoints)
	assert.Equal(t, 20, task.PointsFor(f.bob.ID))
	assert.True(t, task.IsBossTask)
}

func TestApproveProposalValidationRollsBack(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.SubmitProposal(f.ctx, f.bob, "Fold laundry", "", 12)
	require.NoError(t, err)

	_, err = f.svc.ApproveProposal(f.ctx, f.admin, p.ID, ApproveInput{FinalPoints: -3})
	assert.ErrorIs(t, err, ErrValidation)

	list, err := f.svc.ListProposals(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRejectProposal(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.SubmitProposal(f.ctx, f.alice, "Paint fence", "", 40)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.RejectProposal(f.ctx, f.alice, p.ID), ErrForbidden)
	require.NoError(t, f.svc.RejectProposal(f.ctx, f.admin, p.ID))
	assert.ErrorIs(t, f.svc.RejectProposal(f.ctx, f.admin, p.ID), ErrNotFound)

	var tasks int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&tasks).Error)
	assert.EqualValues(t, 0, tasks)
}

func TestSubmitProposalValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SubmitProposal(f.ctx, f.alice, " ", "", 10)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.SubmitProposal(f.ctx, f.alice, "x", "", 0)
	assert.ErrorIs(t, err, ErrValidation)

	loner := f.newUser(t, "Loner", 0)
	_, err = f.svc.SubmitProposal(f.ctx, loner, "x", "", 5)
	assert.ErrorIs(t, err, ErrNoFamily)
}
