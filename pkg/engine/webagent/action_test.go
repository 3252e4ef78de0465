package webagent

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/serpwalk/pkg/browser"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Action
	}{
		{
			name:    "navigate adds scheme",
			content: `{"action":"navigate","url":"google.com"}`,
			want:    Action{Kind: KindNavigate, URL: "https://google.com"},
		},
		{
			name:    "click with thought",
			content: `{"action":"click","id":12,"thought":"third result is the target"}`,
			want:    Action{Kind: KindClick, ID: 12, Thought: "third result is the target"},
		},
		{
			name:    "type and submit",
			content: `{"action":"type","id":3,"text":"beach resort","submit":true}`,
			want:    Action{Kind: KindType, ID: 3, Text: "beach resort", Submit: true},
		},
		{
			name:    "scroll defaults down",
			content: `{"action":"scroll"}`,
			want:    Action{Kind: KindScroll, Direction: browser.Down},
		},
		{
			name:    "scroll up case insensitive",
			content: `{"action":"SCROLL","direction":"Up"}`,
			want:    Action{Kind: KindScroll, Direction: browser.Up},
		},
		{
			name:    "wait is capped",
			content: `{"action":"wait","seconds":60}`,
			want:    Action{Kind: KindWait, Wait: maxWait},
		},
		{
			name:    "huge wait is capped",
			content: `{"action":"wait","seconds":1e20}`,
			want:    Action{Kind: KindWait, Wait: maxWait},
		},
		{
			name:    "fractional wait",
			content: `{"action":"wait","seconds":1.5}`,
			want:    Action{Kind: KindWait, Wait: 1500 * time.Millisecond},
		},
		{
			name:    "go back",
			content: `{"action":"go_back"}`,
			want:    Action{Kind: KindGoBack},
		},
		{
			name:    "done in prose",
			content: "All finished.\n{\"action\":\"done\",\"report\":\" Target visited at position 2 \"}",
			want:    Action{Kind: KindDone, Report: "Target visited at position 2"},
		},
		{
			name:    "type key as action name",
			content: `{"type":"go_back"}`,
			want:    Action{Kind: KindGoBack},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAction(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAction_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{name: "no json", content: "click the link", reason: "no JSON object"},
		{name: "missing action", content: `{"id":1}`, reason: "missing"},
		{name: "unknown action", content: `{"action":"hover","id":1}`, reason: "unknown action"},
		{name: "navigate without url", content: `{"action":"navigate"}`, reason: "url"},
		{name: "click without id", content: `{"action":"click"}`, reason: "element id"},
		{name: "click zero id", content: `{"action":"click","id":0}`, reason: "not positive"},
		{name: "type without text", content: `{"action":"type","id":2}`, reason: "text"},
		{name: "bad direction", content: `{"action":"scroll","direction":"left"}`, reason: "direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAction(tt.content)
			require.ErrorIs(t, err, ErrInvalidAction)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestHistory_Bounded(t *testing.T) {
	h := newHistory(2)
	h.add("", "scroll(down)", "ok")
	h.add("", "click(3)", "ok")
	h.add("reading", "wait(2s)", "waited 2s")

	out := h.render()
	assert.Equal(t, 3, h.steps)
	assert.True(t, strings.HasPrefix(out, "(earlier steps omitted)\n"))
	assert.NotContains(t, out, "scroll(down)")
	assert.Contains(t, out, `{"step":2,"action":"click(3)","result":"ok"}`)
	assert.Contains(t, out, `{"step":3,"thought":"reading","action":"wait(2s)","result":"waited 2s"}`)

	assert.Empty(t, newHistory(0).render())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short  ", 10))
	assert.Equal(t, "abcd...", truncate("abcdef", 4))

	got := truncate("abé", 3)
	assert.Equal(t, "ab...", got)
	assert.True(t, utf8.ValidString(got))

	got = truncate(strings.Repeat("ಮುರುಡೇಶ್ವರ", 20), 200)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 203)
}
