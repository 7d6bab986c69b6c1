package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/ward/internal/core/domain"
)

func TestStageLegality(t *testing.T) {
	tests := []struct {
		name  string
		from  domain.Stage
		to    domain.Stage
		legal bool
	}{
		{"inbox to needs action", domain.StageInbox, domain.StageNeedsAction, true},
		{"inbox to in progress", domain.StageInbox, domain.StageInProgress, true},
		{"needs action to in progress", domain.StageNeedsAction, domain.StageInProgress, true},
		{"in progress to done", domain.StageInProgress, domain.StageDone, true},
		{"in progress to rejected", domain.StageInProgress, domain.StageRejected, true},
		{"in progress back to needs action", domain.StageInProgress, domain.StageNeedsAction, true},
		{"pending approval to approved", domain.StagePendingApproval, domain.StageApproved, true},
		{"pending approval to rejected", domain.StagePendingApproval, domain.StageRejected, true},
		{"approved to done", domain.StageApproved, domain.StageDone, true},

		{"inbox straight to done", domain.StageInbox, domain.StageDone, false},
		{"needs action to done", domain.StageNeedsAction, domain.StageDone, false},
		{"done is terminal", domain.StageDone, domain.StageInbox, false},
		{"rejected is terminal", domain.StageRejected, domain.StageNeedsAction, false},
		{"approved cannot reopen", domain.StageApproved, domain.StageInProgress, false},
		{"unknown stage", domain.Stage("Archive"), domain.StageDone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.legal, tt.from.Legal(tt.to))
		})
	}
}

func TestStageProperties(t *testing.T) {
	assert.True(t, domain.StageDone.Terminal())
	assert.True(t, domain.StageRejected.Terminal())
	assert.False(t, domain.StageInProgress.Terminal())

	assert.True(t, domain.StagePendingApproval.HumanOnly())
	assert.True(t, domain.StagePendingApproval.Gated())
	assert.False(t, domain.StageApproved.HumanOnly())

	assert.True(t, domain.StageInbox.Claimable())
	assert.True(t, domain.StageNeedsAction.Claimable())
	assert.False(t, domain.StagePendingApproval.Claimable())
	assert.False(t, domain.StageDone.Claimable())

	assert.False(t, domain.Stage("Archive").Known())
	for _, s := range domain.Stages() {
		assert.True(t, s.Known())
	}
}
