package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ramkansal/maplead/pkg/plugin"
)

// ReportWriter writes a plain-text log of a run, mirroring the terminal
// output without ANSI color codes.
type ReportWriter struct {
	path    string
	started time.Time
	lines   []string
	mu      sync.Mutex
}

// NewReportWriter creates a report that is written to path on Finalize.
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path, started: time.Now()}
}

func (w *ReportWriter) Name() string { return "text" }

func (w *ReportWriter) Path() string { return w.path }

// Record appends the line for one event. Events without a report line are
// ignored.
func (w *ReportWriter) Record(event plugin.Event) {
	line := reportLine(event)
	if line == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, line)
}

func reportLine(event plugin.Event) string {
	switch event.Type {
	case plugin.EventLeadFound:
		if event.Lead == nil {
			return ""
		}
		l := event.Lead
		return fmt.Sprintf("  [%d] %s  %s  website=%s phone=%s address=%s",
			event.Index, l.Name, strings.ToUpper(l.WebsiteType), orDash(l.Website), l.Phone, l.Address)
	case plugin.EventCardClassified:
		if event.Lead != nil {
			return ""
		}
		return fmt.Sprintf("  [%d] %s  has website, skipped", event.Index, event.Name)
	case plugin.EventCardError:
		return fmt.Sprintf("  [%d] error: %s", event.Index, event.Message)
	case plugin.EventCardAbandoned:
		return fmt.Sprintf("  [%d] %s  abandoned: %s", event.Index, event.Name, event.Message)
	case plugin.EventEndOfList:
		return fmt.Sprintf("  [%d] end of list", event.Index)
	}
	return ""
}

// Finalize writes the report with a summary built from stats.
func (w *ReportWriter) Finalize(stats *plugin.RunStats) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var b strings.Builder

	b.WriteString("\n  MAPLEAD\n")
	b.WriteString("  " + strings.Repeat("-", 58) + "\n\n")

	b.WriteString(fmt.Sprintf("  Query: %s\n", stats.Query))
	b.WriteString(fmt.Sprintf("  Run: %s\n", stats.RunID))
	b.WriteString(fmt.Sprintf("  Started: %s\n\n", w.started.Format(time.RFC1123)))

	for _, line := range w.lines {
		b.WriteString(line + "\n")
	}

	b.WriteString("\n  " + strings.Repeat("-", 50) + "\n")
	b.WriteString(fmt.Sprintf("  Finished. Found %d potential leads.\n", stats.LeadsFound))
	b.WriteString(fmt.Sprintf("    Cards:  %d seen, %d opened, %d abandoned, %d errors in %s\n",
		stats.CardsSeen, stats.CardsOpened, stats.CardsAbandoned, stats.CardsFailed, FormatDuration(stats.Elapsed)))
	if types := TypeCounts(stats.LeadsByType); types != "" {
		b.WriteString("    Types:  " + types + "\n")
	}
	if stats.StorePath != "" {
		b.WriteString(fmt.Sprintf("    Store:  %s (%d rows)\n", stats.StorePath, stats.StoredRows))
	}
	b.WriteString("\n")

	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	return os.WriteFile(w.path, []byte(b.String()), 0o644)
}

// ---------- helpers ----------

var typeOrder = []string{plugin.LeadSocial, plugin.LeadNone, plugin.LeadUnreachable}

// TypeCounts renders lead counts as "social:2, none:1", known types first.
func TypeCounts(byType map[string]int) string {
	var parts []string
	seen := make(map[string]bool)
	for _, t := range typeOrder {
		if c := byType[t]; c > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", t, c))
		}
		seen[t] = true
	}
	var rest []string
	for t, c := range byType {
		if !seen[t] && c > 0 {
			rest = append(rest, fmt.Sprintf("%s:%d", t, c))
		}
	}
	sort.Strings(rest)
	return strings.Join(append(parts, rest...), ", ")
}

// FormatDuration renders d as 850ms, 12.3s or 2m5s.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
