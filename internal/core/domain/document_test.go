package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ward/internal/core/domain"
)

func TestParseDocument(t *testing.T) {
	content := []byte(`---
type: task
created: 2026-08-01T09:30:00Z
source: drop:invoice.txt
action: triage
sensitive: true
priority: high
---

Pay the invoice before Friday.
`)

	doc, err := domain.ParseDocument(content)
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeTask, doc.Header.Type)
	assert.Equal(t, time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC), doc.Header.Created)
	assert.Equal(t, "drop:invoice.txt", doc.Header.Source)
	assert.Equal(t, "triage", doc.Header.Action)
	assert.True(t, doc.Header.Sensitive)
	assert.Equal(t, "high", doc.Header.Extra["priority"])
	assert.Equal(t, "Pay the invoice before Friday.\n", doc.Body)
}

func TestParseDocumentBodyOnly(t *testing.T) {
	doc, err := domain.ParseDocument([]byte("just some notes\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Header.Type)
	assert.Equal(t, "just some notes\n", doc.Body)
}

func TestParseDocumentCorruptHeader(t *testing.T) {
	t.Run("unterminated fence", func(t *testing.T) {
		doc, err := domain.ParseDocument([]byte("---\ntype: task\nno closing fence\n"))
		require.ErrorIs(t, err, domain.ErrCorruptHeader)
		require.NotNil(t, doc)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		doc, err := domain.ParseDocument([]byte("---\n\t{not yaml\n---\nbody text\n"))
		require.ErrorIs(t, err, domain.ErrCorruptHeader)
		require.NotNil(t, doc)
		assert.Equal(t, "body text\n", doc.Body)
	})

	t.Run("invalid timestamp", func(t *testing.T) {
		doc, err := domain.ParseDocument([]byte("---\ncreated: yesterday\n---\nbody\n"))
		require.ErrorIs(t, err, domain.ErrCorruptHeader)
		require.NotNil(t, doc)
	})
}

func TestEncodeParseRoundTrip(t *testing.T) {
	original := &domain.Document{
		Header: domain.Header{
			Type:        domain.DocTypeTask,
			Created:     time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC),
			Source:      "drop:report.txt",
			Action:      "triage",
			Status:      domain.StatusPending,
			ClaimedBy:   "run-ab12cd34",
			ClaimedAt:   time.Date(2026, 8, 20, 14, 5, 0, 0, time.UTC),
			OriginStage: domain.StageNeedsAction,
			Extra:       map[string]string{"owner": "finance"},
		},
		Body: "Quarterly report needs review.\n",
	}

	encoded, err := original.Encode()
	require.NoError(t, err)

	parsed, err := domain.ParseDocument(encoded)
	require.NoError(t, err)
	assert.Equal(t, original.Header, parsed.Header)
	assert.Equal(t, original.Body, parsed.Body)
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	doc := &domain.Document{
		Header: domain.Header{Type: domain.DocTypeTask},
		Body:   "minimal\n",
	}
	encoded, err := doc.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "claimed_by")
	assert.NotContains(t, string(encoded), "created")
	assert.NotContains(t, string(encoded), "retries")
}
