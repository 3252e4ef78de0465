package webagent

import (
	"encoding/json"
	"strings"
)

// DefaultHistorySize is how many past steps the planner sees.
const DefaultHistorySize = 15

type historyEntry struct {
	Step    int    `json:"step"`
	Thought string `json:"thought,omitempty"`
	Action  string `json:"action"`
	Result  string `json:"result"`
}

// history keeps the last few steps as planner context.
type history struct {
	entries []historyEntry
	limit   int
	steps   int
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &history{limit: limit}
}

func (h *history) add(thought, action, result string) {
	h.steps++
	h.entries = append(h.entries, historyEntry{
		Step:    h.steps,
		Thought: thought,
		Action:  action,
		Result:  result,
	})
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// render formats the kept entries as JSON lines.
func (h *history) render() string {
	if len(h.entries) == 0 {
		return ""
	}
	var b strings.Builder
	if first := h.entries[0].Step; first > 1 {
		b.WriteString("(earlier steps omitted)\n")
	}
	for _, e := range h.entries {
		line, err := json.Marshal(e)
		if err != nil {
			continue
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}
