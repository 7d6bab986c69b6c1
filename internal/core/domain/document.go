package domain

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const timeLayout = time.RFC3339

// DocTypeTask marks an ordinary task document.
const DocTypeTask = "task"

// DocTypeApprovalRequest marks a document produced for a gated transition.
const DocTypeApprovalRequest = "approval-request"

// Approval request status values. The status field is redundant with the
// request's directory by convention; it exists for human readability only.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusEscalation = "escalation-needed"
)

// Header is the key-value metadata block of a document. All fields are
// optional; provider-specific keys that ward does not understand are
// preserved verbatim in Extra.
type Header struct {
	Type      string
	Created   time.Time
	Source    string
	Action    string
	Sensitive bool
	Status    string

	// Claim bookkeeping, written while a document sits in In_Progress.
	ClaimedBy   string
	ClaimedAt   time.Time
	OriginStage Stage
	Retries     int
	Error       string

	// Approval request fields.
	Task          string
	ProposedStage Stage
	Note          string

	Extra map[string]string
}

// Document is the unit of work: a metadata header plus a free-form body.
type Document struct {
	Header Header
	Body   string
}

// headerEnvelope is the YAML wire form of a Header.
type headerEnvelope struct {
	Type          string            `yaml:"type,omitempty"`
	Created       string            `yaml:"created,omitempty"`
	Source        string            `yaml:"source,omitempty"`
	Action        string            `yaml:"action,omitempty"`
	Sensitive     bool              `yaml:"sensitive,omitempty"`
	Status        string            `yaml:"status,omitempty"`
	ClaimedBy     string            `yaml:"claimed_by,omitempty"`
	ClaimedAt     string            `yaml:"claimed_at,omitempty"`
	OriginStage   string            `yaml:"origin_stage,omitempty"`
	Retries       int               `yaml:"retries,omitempty"`
	Error         string            `yaml:"error,omitempty"`
	Task          string            `yaml:"task,omitempty"`
	ProposedStage string            `yaml:"proposed_stage,omitempty"`
	Note          string            `yaml:"note,omitempty"`
	Extra         map[string]string `yaml:",inline"`
}

func (e headerEnvelope) toHeader() (Header, error) {
	h := Header{
		Type:          e.Type,
		Source:        e.Source,
		Action:        e.Action,
		Sensitive:     e.Sensitive,
		Status:        e.Status,
		ClaimedBy:     e.ClaimedBy,
		OriginStage:   Stage(e.OriginStage),
		Retries:       e.Retries,
		Error:         e.Error,
		Task:          e.Task,
		ProposedStage: Stage(e.ProposedStage),
		Note:          e.Note,
		Extra:         e.Extra,
	}
	var err error
	if h.Created, err = parseTime(e.Created); err != nil {
		return Header{}, fmt.Errorf("created: %w", err)
	}
	if h.ClaimedAt, err = parseTime(e.ClaimedAt); err != nil {
		return Header{}, fmt.Errorf("claimed_at: %w", err)
	}
	return h, nil
}

func envelopeFrom(h Header) headerEnvelope {
	return headerEnvelope{
		Type:          h.Type,
		Created:       formatTime(h.Created),
		Source:        h.Source,
		Action:        h.Action,
		Sensitive:     h.Sensitive,
		Status:        h.Status,
		ClaimedBy:     h.ClaimedBy,
		ClaimedAt:     formatTime(h.ClaimedAt),
		OriginStage:   string(h.OriginStage),
		Retries:       h.Retries,
		Error:         h.Error,
		Task:          h.Task,
		ProposedStage: string(h.ProposedStage),
		Note:          h.Note,
		Extra:         h.Extra,
	}
}

func parseTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// ParseDocument splits a raw document into header and body. The leading
// metadata block is optional: content without a `---` fence parses as a
// body-only document. A fenced but unparsable block returns ErrCorruptHeader
// together with the best-effort body so callers can still inspect the text.
func ParseDocument(content []byte) (*Document, error) {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return &Document{Body: string(normalized)}, nil
	}
	rest := normalized[4:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return &Document{Body: string(normalized)}, ErrCorruptHeader
	}
	var envelope headerEnvelope
	if err := yaml.Unmarshal(parts[0], &envelope); err != nil {
		return &Document{Body: string(parts[1])}, ErrCorruptHeader
	}
	header, err := envelope.toHeader()
	if err != nil {
		return &Document{Body: string(parts[1])}, ErrCorruptHeader
	}
	body := strings.TrimPrefix(string(parts[1]), "\n")
	return &Document{Header: header, Body: body}, nil
}

// Encode renders the document with YAML fences around its header.
func (d *Document) Encode() ([]byte, error) {
	meta, err := yaml.Marshal(envelopeFrom(d.Header))
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(meta, "\n"))
	buf.WriteString("\n---\n\n")
	buf.WriteString(d.Body)
	return buf.Bytes(), nil
}
