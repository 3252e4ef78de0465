package task

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/serpwalk/pkg/profile"
)

var desktop = profile.ClientProfile{
	DeviceClass: profile.Desktop,
	UserAgent:   "ua",
	Viewport:    profile.DesktopViewport,
	ScaleFactor: profile.DesktopScaleFactor,
}

func TestCompose_ContainsInputs(t *testing.T) {
	c := NewComposer("")
	spec := c.Compose("murudeshwar rooms", desktop, "rooms.murudeshwar.co.in", 45)

	assert.Equal(t, "murudeshwar rooms", spec.Objective)
	assert.Equal(t, "rooms.murudeshwar.co.in", spec.TargetSite)
	assert.Equal(t, 45, spec.InteractionSeconds)

	assert.Contains(t, spec.Text, "Go to Google.com")
	assert.Contains(t, spec.Text, `Search for "murudeshwar rooms"`)
	assert.Contains(t, spec.Text, `website "rooms.murudeshwar.co.in"`)
	assert.Contains(t, spec.Text, "approximately 45 seconds")
}

func TestCompose_QuotesObjective(t *testing.T) {
	spec := NewComposer("").Compose(`murudeshwar's "best" stay`, desktop, "example.com", 30)

	assert.Contains(t, spec.Text, `Search for "murudeshwar's \"best\" stay"`)
	assert.Contains(t, spec.Text, `If you find "example.com", click`)
}

func TestCompose_StepOrder(t *testing.T) {
	spec := NewComposer("").Compose("q", desktop, "example.com", 30)

	markers := []string{
		"Go to",
		"Search for",
		"Scroll through the search results",
		"next page",
		"repeat until you find",
		"click on it and report the position",
		"interact with the website",
		"scroll back up",
		"Click on 1-2",
		"Spend some time",
		"Report whether",
	}

	last := -1
	for _, m := range markers {
		idx := strings.Index(spec.Text, m)
		if !assert.NotEqual(t, -1, idx, "missing %q", m) {
			continue
		}
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}
}

func TestCompose_CustomSearchEngine(t *testing.T) {
	spec := NewComposer("https://duckduckgo.com").Compose("q", desktop, "example.com", 30)
	assert.Contains(t, spec.Text, "Go to https://duckduckgo.com")
}

func TestCompose_MobileWording(t *testing.T) {
	mobile := profile.ClientProfile{DeviceClass: profile.Mobile, Viewport: profile.MobileViewport}
	spec := NewComposer("").Compose("q", mobile, "example.com", 60)

	assert.Contains(t, spec.Text, "Swipe down")
	assert.Contains(t, spec.Text, "Tap on 1-2")
	assert.NotContains(t, spec.Text, "Click on 1-2")
}

func TestCompose_Deterministic(t *testing.T) {
	c := NewComposer("")
	a := c.Compose("q", desktop, "example.com", 30)
	b := c.Compose("q", desktop, "example.com", 30)
	assert.Equal(t, a, b)
}
