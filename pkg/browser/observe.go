package browser

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Element is an interactive element tagged on the current page.
type Element struct {
	ID      int
	Kind    string // link, button, input, checkbox, select, clickable
	Text    string
	Href    string
	Visible bool // inside the viewport when observed
}

// Observation is a snapshot of the current page for the planner.
type Observation struct {
	URL         string
	Title       string
	Description string
	Elements    []Element
	Text        string
	Truncated   bool
	ScrollY     int
	PageHeight  int
	Viewport    int
}

// parseElements decodes the observe script's JSON result.
func parseElements(raw string) ([]Element, error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("observe script returned invalid JSON")
	}

	result := gjson.Parse(raw)
	if !result.IsArray() {
		return nil, fmt.Errorf("observe script returned %s, want array", result.Type)
	}

	var elements []Element
	result.ForEach(func(_, item gjson.Result) bool {
		id := int(item.Get("id").Int())
		if id <= 0 {
			return true
		}
		elements = append(elements, Element{
			ID:      id,
			Kind:    item.Get("kind").String(),
			Text:    item.Get("text").String(),
			Href:    item.Get("href").String(),
			Visible: item.Get("visible").Bool(),
		})
		return true
	})
	return elements, nil
}

// Render formats the observation as planner input. At most maxElements
// elements are listed; elements inside the viewport come first.
func (o *Observation) Render(maxElements int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "URL: %s\n", o.URL)
	fmt.Fprintf(&b, "Title: %s\n", o.Title)
	if o.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", o.Description)
	}
	if o.PageHeight > 0 {
		fmt.Fprintf(&b, "Scroll: %d of %d px (viewport %d px)\n", o.ScrollY, o.PageHeight, o.Viewport)
	}

	b.WriteString("\nInteractive elements:\n")
	listed := 0
	for _, pass := range []bool{true, false} {
		for _, el := range o.Elements {
			if el.Visible != pass {
				continue
			}
			if maxElements > 0 && listed >= maxElements {
				break
			}
			b.WriteString(el.line())
			listed++
		}
	}
	if listed == 0 {
		b.WriteString("(none)\n")
	} else if listed < len(o.Elements) {
		fmt.Fprintf(&b, "... %d more elements not shown\n", len(o.Elements)-listed)
	}

	if o.Text != "" {
		b.WriteString("\nPage text:\n")
		b.WriteString(o.Text)
		if o.Truncated {
			b.WriteString(" [truncated]")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (e Element) line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s: %s", e.ID, e.Kind, e.Text)
	if e.Href != "" {
		fmt.Fprintf(&b, " -> %s", e.Href)
	}
	if !e.Visible {
		b.WriteString(" (off-screen)")
	}
	b.WriteString("\n")
	return b.String()
}
