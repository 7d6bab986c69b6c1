package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ward/internal/core/domain"
)

func TestParseVerdict(t *testing.T) {
	response := `I looked at the task and it is ready to complete.

Next_Stage: Done
note: invoice matches the purchase order
param.proposed_stage: Done
some unstructured trailing commentary
`
	v, err := domain.ParseVerdict(response)
	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, v.Stage)
	assert.Equal(t, "invoice matches the purchase order", v.Note)
	assert.Equal(t, "Done", v.Params["proposed_stage"])
}

func TestParseVerdictMissingStage(t *testing.T) {
	_, err := domain.ParseVerdict("I am not sure what to do here.\n")
	require.ErrorIs(t, err, domain.ErrAgentFailure)
}

func TestVerdictProposedStage(t *testing.T) {
	v := domain.Verdict{Params: map[string]string{"proposed_stage": "Rejected"}}
	assert.Equal(t, domain.StageRejected, v.ProposedStage())

	assert.Equal(t, domain.StageDone, domain.Verdict{}.ProposedStage())
}
