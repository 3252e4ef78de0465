package browser

import (
	"strings"
	"testing"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		wantTitle string
		wantDesc  string
		wantText  []string // substrings that should be present
		wantNot   []string // substrings that should NOT be present
		truncated bool
	}{
		{
			name: "script and style removal",
			input: `<html>
				<head>
					<title>Results - Google Search</title>
					<meta name="description" content="Search results">
					<script>alert('evil');</script>
					<style>body { color: red; }</style>
				</head>
				<body>
					<h1>murudeshwar beach resort</h1>
					<p>About 1,230,000 results</p>
				</body>
			</html>`,
			wantTitle: "Results - Google Search",
			wantDesc:  "Search results",
			wantText:  []string{"murudeshwar beach resort\nAbout 1,230,000 results"},
			wantNot:   []string{"alert", "color: red", "Results - Google Search"},
		},
		{
			name:     "inline text joined with spaces",
			input:    `<body><p>Stay at <a href="/x">Naveen Beach Resort</a> tonight</p></body>`,
			wantText: []string{"Stay at Naveen Beach Resort tonight"},
		},
		{
			name: "hidden elements skipped",
			input: `<body>
				<div hidden>secret one</div>
				<div style="display: none">secret two</div>
				<span aria-hidden="true">secret three</span>
				<div>shown</div>
			</body>`,
			wantText: []string{"shown"},
			wantNot:  []string{"secret"},
		},
		{
			name:      "truncated",
			input:     `<body><p>` + strings.Repeat("word ", 100) + `</p></body>`,
			maxLength: 20,
			wantText:  []string{"word word word word", "..."},
			truncated: true,
		},
		{
			name:      "no cap",
			input:     `<body><p>` + strings.Repeat("word ", 100) + `</p></body>`,
			maxLength: 0,
			wantNot:   []string{"..."},
		},
		{
			name:     "meta description case insensitive",
			input:    `<head><meta name="Description" content=" Beach stays "></head>`,
			wantDesc: "Beach stays",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.input, tt.maxLength)
			if err != nil {
				t.Fatalf("ExtractText() error = %v", err)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
			if got.Truncated != tt.truncated {
				t.Errorf("Truncated = %v, want %v", got.Truncated, tt.truncated)
			}
			for _, want := range tt.wantText {
				if !strings.Contains(got.Text, want) {
					t.Errorf("Text missing %q, got:\n%s", want, got.Text)
				}
			}
			for _, not := range tt.wantNot {
				if strings.Contains(got.Text, not) {
					t.Errorf("Text should not contain %q, got:\n%s", not, got.Text)
				}
			}
		})
	}
}

func TestExtractText_TruncationLength(t *testing.T) {
	got, err := ExtractText(`<p>`+strings.Repeat("abc ", 50)+`</p>`, 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Text) > 30+len("...") {
		t.Errorf("len(Text) = %d, want <= %d", len(got.Text), 33)
	}
}

func TestCutUTF8(t *testing.T) {
	s := "héllo"
	if got := cutUTF8(s, 2); got != "h" {
		t.Errorf("cutUTF8(%q, 2) = %q, want %q", s, got, "h")
	}
	if got := cutUTF8(s, 3); got != "hé" {
		t.Errorf("cutUTF8(%q, 3) = %q, want %q", s, got, "hé")
	}
	if got := cutUTF8(s, 99); got != s {
		t.Errorf("cutUTF8(%q, 99) = %q, want %q", s, got, s)
	}
}
