// Package outcome decides from the engine's free-text report whether a
// browsing objective reached its target site.
//
// Classify is a heuristic over the report text, not proof of navigation.
// Known false positive: a report that says "target not found" next to the
// domain name still contains "found" and the domain, so it classifies as
// reached. Known false negative: a report describing a visit without naming the
// domain, or using other verbs ("opened", "landed on"), classifies as missed.
// A structured outcome from the engine would remove both; the engine only
// returns free text.
package outcome

import (
	"strings"
)

// ActionEvidence is the fixed vocabulary of words that indicate the planner
// acted on the target.
var ActionEvidence = []string{"clicked", "visited", "found"}

// DomainToken normalizes a configured target site to the token searched for
// in report text: lowercased, with any URL scheme, leading "www.", and path
// removed. "https://www.Example.com/rooms" becomes "example.com".
func DomainToken(targetSite string) string {
	token := strings.ToLower(strings.TrimSpace(targetSite))
	if i := strings.Index(token, "://"); i >= 0 {
		token = token[i+3:]
	}
	token = strings.TrimPrefix(token, "www.")
	if i := strings.IndexAny(token, "/?#"); i >= 0 {
		token = token[:i]
	}
	return token
}

// Classify reports whether resultText, compared case-insensitively, contains
// the target's domain token and at least one ActionEvidence word. It is pure:
// equal inputs always give equal output.
func Classify(resultText, targetSite string) bool {
	token := DomainToken(targetSite)
	if token == "" {
		return false
	}

	text := strings.ToLower(resultText)
	if !strings.Contains(text, token) {
		return false
	}

	for _, word := range ActionEvidence {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
