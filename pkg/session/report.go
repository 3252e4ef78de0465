package session

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const reportTimeLayout = "20060102_150405"

// ReportWriter persists session reports under a directory of a filesystem.
// Each report is a JSON document named after the time it was written, with an
// optional markdown summary next to it.
type ReportWriter struct {
	fs       afero.Fs
	dir      string
	markdown bool
	now      func() time.Time
}

// NewReportWriter creates a report writer. A nil fs means the OS filesystem.
func NewReportWriter(fs afero.Fs, dir string, markdown bool) *ReportWriter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = "reports"
	}
	return &ReportWriter{
		fs:       fs,
		dir:      dir,
		markdown: markdown,
		now:      time.Now,
	}
}

// Dir returns the reports directory.
func (w *ReportWriter) Dir() string {
	return w.dir
}

// Write stores state and returns the path of the JSON report. Failures are
// returned as *PersistenceError.
func (w *ReportWriter) Write(state *State) (string, error) {
	path, err := w.write(state)
	if err != nil {
		return "", &PersistenceError{Dir: w.dir, Err: err}
	}
	return path, nil
}

func (w *ReportWriter) write(state *State) (string, error) {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session state: %w", err)
	}

	base, err := w.uniqueBase()
	if err != nil {
		return "", err
	}

	path := base + ".json"
	if err := w.writeFile(path, data); err != nil {
		return "", err
	}

	if w.markdown {
		if err := w.writeFile(base+".md", []byte(renderMarkdown(state, filepath.Base(path)))); err != nil {
			return "", err
		}
	}

	return path, nil
}

// uniqueBase returns a report path without extension that does not collide
// with an existing report written within the same second.
func (w *ReportWriter) uniqueBase() (string, error) {
	stamp := "browsing_session_" + w.now().Format(reportTimeLayout)
	base := filepath.Join(w.dir, stamp)
	for i := 2; ; i++ {
		exists, err := afero.Exists(w.fs, base+".json")
		if err != nil {
			return "", fmt.Errorf("failed to check report path: %w", err)
		}
		if !exists {
			return base, nil
		}
		base = filepath.Join(w.dir, fmt.Sprintf("%s_%d", stamp, i))
	}
}

// writeFile writes through a temporary file so a partial report never
// replaces a complete one.
func (w *ReportWriter) writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(w.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := w.fs.Rename(tmp, path); err != nil {
		_ = w.fs.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func renderMarkdown(state *State, reportName string) string {
	var md strings.Builder

	md.WriteString("# Browsing Session Summary\n\n")
	md.WriteString(fmt.Sprintf("**Target:** %s\n\n", state.TargetSite))
	if state.RunID != "" {
		md.WriteString(fmt.Sprintf("**Run ID:** %s\n\n", state.RunID))
	}
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", state.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %.2fs\n\n", state.SessionDurationSeconds))
	md.WriteString(fmt.Sprintf("**Searches:** %d\n\n", state.TotalInteractions))
	md.WriteString(fmt.Sprintf("**Target visits:** %d\n\n", state.TargetVisits))
	md.WriteString(fmt.Sprintf("**Report:** %s\n\n", reportName))

	md.WriteString("## Objectives\n\n")
	md.WriteString("| # | Query | Device | Status | Found | Duration |\n")
	md.WriteString("|---|---|---|---|---|---|\n")
	for i, rec := range state.ExecutionRecords {
		found := "no"
		if rec.FoundTarget {
			found = "yes"
		}
		md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %.2fs |\n",
			i+1, escapeCell(rec.Objective), rec.DeviceClass, rec.Status, found, rec.DurationSeconds))
	}

	for i, rec := range state.ExecutionRecords {
		md.WriteString(fmt.Sprintf("\n### %d. %s\n\n", i+1, rec.Objective))
		md.WriteString("```\n")
		md.WriteString(strings.TrimSpace(rec.ResultText))
		md.WriteString("\n```\n")
	}

	return md.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
