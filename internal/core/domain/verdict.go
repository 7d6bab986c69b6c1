package domain

import (
	"bufio"
	"strings"
)

// Verdict is the reasoning agent's declared destination stage for a claimed
// task, plus optional side parameters.
type Verdict struct {
	Stage  Stage
	Note   string
	Params map[string]string
}

// ParseVerdict extracts the structured portion of an agent response. The
// agent is an untrusted black box emitting free text; the contract is a
// `next_stage:` line (key matched case-insensitively) anywhere in the
// response, with optional `note:` and `param.<key>:` lines. A response
// without a next_stage line yields ErrAgentFailure.
func ParseVerdict(response string) (Verdict, error) {
	v := Verdict{}
	scanner := bufio.NewScanner(strings.NewReader(response))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch {
		case key == "next_stage":
			v.Stage = Stage(value)
		case key == "note":
			v.Note = value
		case strings.HasPrefix(key, "param."):
			if v.Params == nil {
				v.Params = make(map[string]string)
			}
			v.Params[strings.TrimPrefix(key, "param.")] = value
		}
	}
	if v.Stage == "" {
		return Verdict{}, ErrAgentFailure
	}
	return v, nil
}

// ProposedStage returns the stage an approval request should name as the
// task's destination once approved. Defaults to Done when the agent did not
// specify one.
func (v Verdict) ProposedStage() Stage {
	if s, ok := v.Params["proposed_stage"]; ok && s != "" {
		return Stage(s)
	}
	return StageDone
}
