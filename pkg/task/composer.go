// Package task renders browsing objectives into natural-language instructions
// for the automation engine's planner.
package task

import (
	"fmt"
	"strings"

	"github.com/entrhq/serpwalk/pkg/profile"
)

// DefaultSearchEngine is the search page the planner is told to start from.
const DefaultSearchEngine = "Google.com"

// Spec is a rendered task instruction.
type Spec struct {
	Objective          string
	TargetSite         string
	InteractionSeconds int
	Text               string
}

// Composer renders task instructions. The zero value uses DefaultSearchEngine.
type Composer struct {
	SearchEngine string
}

// NewComposer creates a composer that starts every task at searchEngine.
func NewComposer(searchEngine string) *Composer {
	return &Composer{SearchEngine: searchEngine}
}

// Compose renders the ordered instruction set for one objective. The
// objective and target are embedded as Go-quoted strings so apostrophes in a
// query stay inside the quoted span.
func (c *Composer) Compose(objective string, p profile.ClientProfile, targetSite string, interactionSeconds int) Spec {
	engine := c.SearchEngine
	if engine == "" {
		engine = DefaultSearchEngine
	}

	var b strings.Builder
	b.WriteString("Follow these steps in order, behaving like a human user:\n")
	fmt.Fprintf(&b, "1. Go to %s\n", engine)
	fmt.Fprintf(&b, "2. Search for %q\n", objective)
	b.WriteString("3. Scroll through the search results naturally with pauses as if reading\n")
	fmt.Fprintf(&b, "4. Look for the website %q in the results\n", targetSite)
	b.WriteString(" 4.1. if not found, scroll down and click on the next page button\n")
	b.WriteString(" 4.2. repeat until you find the website\n")
	fmt.Fprintf(&b, "5. If you find %q, click on it and report the position it was found at\n", targetSite)
	fmt.Fprintf(&b, "6. After clicking, interact with the website for approximately %d seconds:\n", interactionSeconds)
	if p.IsMobile() {
		b.WriteString("   - Swipe down slowly through the page, with occasional pauses\n")
		b.WriteString("   - Sometimes swipe back up a bit\n")
		b.WriteString("   - Tap on 1-2 interesting elements like menu items or buttons\n")
	} else {
		b.WriteString("   - Scroll down slowly, with occasional pauses\n")
		b.WriteString("   - Sometimes scroll back up a bit\n")
		b.WriteString("   - Click on 1-2 interesting elements like navigation links or buttons\n")
	}
	b.WriteString("   - Spend some time on each page\n")
	b.WriteString("7. Report whether you successfully visited the target website and what actions you took.")

	return Spec{
		Objective:          objective,
		TargetSite:         targetSite,
		InteractionSeconds: interactionSeconds,
		Text:               b.String(),
	}
}
