package session

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/entrhq/serpwalk/pkg/profile"
)

// LogLevel represents the console verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only errors, warnings and the final summary
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows per-objective progress (default)
	LogLevelNormal
	// LogLevelVerbose adds profile and pacing details
	LogLevelVerbose
	// LogLevelDebug shows everything
	LogLevelDebug
)

// ParseLogLevel converts a verbosity name to a LogLevel. Unknown names map to
// LogLevelNormal.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "quiet":
		return LogLevelQuiet
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}

// Console prints session progress for a human operator.
type Console struct {
	level  LogLevel
	writer io.Writer

	section *color.Color
	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	muted   *color.Color
	bold    *color.Color
}

// NewConsole creates a console writing to w at the given level.
func NewConsole(w io.Writer, level LogLevel) *Console {
	return &Console{
		level:   level,
		writer:  w,
		section: color.New(color.FgCyan),
		info:    color.New(color.FgHiMagenta),
		success: color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
		muted:   color.New(color.FgHiBlack),
		bold:    color.New(color.FgWhite, color.Bold),
	}
}

// SessionStart prints the session header.
func (c *Console) SessionStart(targetSite string, objectives int) {
	if c.level < LogLevelNormal {
		return
	}
	rule := strings.Repeat("=", 70)
	c.bold.Fprintf(c.writer, "\n%s\n", rule)
	c.bold.Fprintf(c.writer, "  Browsing session for %s (%d objectives)\n", targetSite, objectives)
	c.bold.Fprintf(c.writer, "%s\n", rule)
}

// Objective prints the start of one objective.
func (c *Console) Objective(n, total int, objective string) {
	if c.level < LogLevelNormal {
		return
	}
	fmt.Fprintln(c.writer)
	c.section.Fprintf(c.writer, "▶ [%d/%d] %s\n", n, total, objective)
	c.muted.Fprintf(c.writer, "%s\n", strings.Repeat("─", 50))
}

// Profile prints the client profile chosen for an objective.
func (c *Console) Profile(p profile.ClientProfile) {
	if c.level < LogLevelNormal {
		return
	}
	c.info.Fprintf(c.writer, "  Device: %s\n", p)
	if c.level >= LogLevelVerbose {
		c.muted.Fprintf(c.writer, "  → User agent: %s\n", p.UserAgent)
	}
}

// EngineError prints a recovered engine failure.
func (c *Console) EngineError(err error) {
	c.Errorf("%v", err)
}

// Outcome prints whether the target was reached.
func (c *Console) Outcome(found bool) {
	if c.level < LogLevelNormal {
		return
	}
	if found {
		c.success.Fprintln(c.writer, "✓ Target site visited")
		return
	}
	c.warn.Fprintln(c.writer, "  Target site not reached")
}

// Waiting prints the pacing delay before the next objective.
func (c *Console) Waiting(d time.Duration) {
	if c.level < LogLevelNormal {
		return
	}
	c.muted.Fprintf(c.writer, "  Waiting %s before next search...\n", d.Round(time.Second))
}

// ReportSaved prints where the session report was written.
func (c *Console) ReportSaved(path string) {
	if c.level < LogLevelNormal {
		return
	}
	c.success.Fprintf(c.writer, "✓ Session report saved to %s\n", path)
}

// Warningf prints a warning message
func (c *Console) Warningf(format string, args ...interface{}) {
	c.warn.Fprintf(c.writer, "⚠ Warning: %s\n", fmt.Sprintf(format, args...))
}

// Errorf prints an error message
func (c *Console) Errorf(format string, args ...interface{}) {
	c.fail.Fprintf(c.writer, "✗ Error: %s\n", fmt.Sprintf(format, args...))
}

// Verbosef prints detailed information (only in verbose mode)
func (c *Console) Verbosef(format string, args ...interface{}) {
	if c.level < LogLevelVerbose {
		return
	}
	c.muted.Fprintf(c.writer, "→ %s\n", fmt.Sprintf(format, args...))
}

// Debugf prints debug information (only in debug mode)
func (c *Console) Debugf(format string, args ...interface{}) {
	if c.level < LogLevelDebug {
		return
	}
	c.muted.Fprintf(c.writer, "[DEBUG] %s\n", fmt.Sprintf(format, args...))
}

// Summary prints the final session summary. It is shown at every level.
func (c *Console) Summary(state *State) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(c.writer)
	c.bold.Fprintf(c.writer, "%s\n", rule)
	c.bold.Fprintln(c.writer, "  SESSION SUMMARY")
	c.bold.Fprintf(c.writer, "%s\n", rule)

	fmt.Fprintf(c.writer, "  Target: %s\n", state.TargetSite)
	fmt.Fprintf(c.writer, "  Total searches: %d\n", state.TotalInteractions)
	fmt.Fprintf(c.writer, "  Target visits: %d\n", state.TargetVisits)
	if failed := state.FailedCount(); failed > 0 {
		c.fail.Fprintf(c.writer, "  Failed: %d\n", failed)
	}
	fmt.Fprintf(c.writer, "  Duration: %.2fs\n", state.SessionDurationSeconds)
	if state.ReportPath != "" {
		fmt.Fprintf(c.writer, "  Report: %s\n", state.ReportPath)
	}

	if c.level >= LogLevelVerbose {
		fmt.Fprintln(c.writer)
		for i, rec := range state.ExecutionRecords {
			mark := "✗"
			if rec.FoundTarget {
				mark = "✓"
			}
			fmt.Fprintf(c.writer, "    %s %d. %s (%s, %.2fs)\n", mark, i+1, rec.Objective, rec.Status, rec.DurationSeconds)
		}
	}

	c.bold.Fprintf(c.writer, "%s\n", rule)
}
