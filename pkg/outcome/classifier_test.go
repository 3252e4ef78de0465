package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const target = "rooms.murudeshwar.co.in"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		target string
		want   bool
	}{
		{name: "visited target", text: "Visited rooms.murudeshwar.co.in successfully", target: target, want: true},
		{name: "no domain", text: "Could not find the site", target: target, want: false},
		{name: "case insensitive", text: "I CLICKED ON ROOMS.MURUDESHWAR.CO.IN at position 4", target: target, want: true},
		{name: "found evidence", text: "found rooms.murudeshwar.co.in on page 2", target: target, want: true},
		{name: "domain without evidence", text: "rooms.murudeshwar.co.in appeared in the list", target: target, want: false},
		{name: "evidence without domain", text: "clicked the third result and visited it", target: target, want: false},
		{name: "empty text", text: "", target: target, want: false},
		{name: "empty target", text: "visited example.com", target: "", want: false},
		{name: "target as url", text: "Visited example.com and scrolled", target: "https://www.Example.com/", want: true},
		// documented false positive of the heuristic
		{name: "negated mention", text: "rooms.murudeshwar.co.in was not found", target: target, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, tt.target))
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	inputs := [][2]string{
		{"Visited rooms.murudeshwar.co.in successfully", target},
		{"Could not find the site", target},
		{"Error: browser crashed", target},
	}
	for _, in := range inputs {
		first := Classify(in[0], in[1])
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Classify(in[0], in[1]))
		}
	}
}

func TestDomainToken(t *testing.T) {
	tests := map[string]string{
		"rooms.murudeshwar.co.in":          "rooms.murudeshwar.co.in",
		"  Rooms.Murudeshwar.co.in ":       "rooms.murudeshwar.co.in",
		"https://www.example.com/path?q=1": "example.com",
		"http://example.com#frag":          "example.com",
		"www.example.com":                  "example.com",
		"":                                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, DomainToken(in), "input %q", in)
	}
}
