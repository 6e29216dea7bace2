package output

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ramkansal/maplead/pkg/plugin"
)

func TestReportWriter_Finalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.txt")
	w := NewReportWriter(path)

	leads := sampleLeads()
	w.Record(plugin.Event{Type: plugin.EventCardClassified, Index: 0, Name: "Joe's Cafe", State: plugin.WebsiteValid})
	w.Record(plugin.Event{Type: plugin.EventLeadFound, Index: 1, Name: leads[0].Name, Lead: &leads[0]})
	w.Record(plugin.Event{Type: plugin.EventCardError, Index: 2, Message: "detail view did not load"})
	w.Record(plugin.Event{Type: plugin.EventCardAbandoned, Index: 3, Name: "Slow Diner", Message: "detail view did not load"})
	w.Record(plugin.Event{Type: plugin.EventScrolled, Message: "ignored"})

	stats := &plugin.RunStats{
		RunID:          "run-1",
		Query:          "Cafes in Springfield",
		CardsSeen:      3,
		CardsOpened:    2,
		CardsFailed:    1,
		CardsAbandoned: 1,
		LeadsFound:     1,
		LeadsByType:    map[string]int{"social": 1},
		StoredRows:     1,
		StorePath:      "leads_cafes_in_springfield.csv",
		Elapsed:        2500 * time.Millisecond,
	}
	if err := w.Finalize(stats); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	report := string(data)

	for _, want := range []string{
		"Query: Cafes in Springfield",
		"[0] Joe's Cafe  has website, skipped",
		"[1] Jane's Cafe  SOCIAL  website=https://facebook.com/janescafe",
		"[2] error: detail view did not load",
		"Found 1 potential leads.",
		"[3] Slow Diner  abandoned: detail view did not load",
		"3 seen, 2 opened, 1 abandoned, 1 errors in 2.5s",
		"Types:  social:1",
		"leads_cafes_in_springfield.csv (1 rows)",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "ignored") {
		t.Fatalf("scroll events must not be reported")
	}
	if strings.Contains(report, "\033[") {
		t.Fatalf("report must not contain color codes")
	}
}

func TestReportWriter_NoneLeadShowsDash(t *testing.T) {
	lead := sampleLeads()[1]
	line := reportLine(plugin.Event{Type: plugin.EventLeadFound, Index: 4, Lead: &lead})
	if !strings.Contains(line, "NONE  website=- ") {
		t.Fatalf("unexpected line %q", line)
	}
	if reportLine(plugin.Event{Type: plugin.EventCardError, Index: 1, Error: errors.New("x"), Message: "x"}) == "" {
		t.Fatalf("errors must be reported")
	}
}

func TestTypeCounts(t *testing.T) {
	got := TypeCounts(map[string]int{"unreachable": 1, "none": 3, "social": 2, "other": 1, "zero": 0})
	want := "social:2, none:3, unreachable:1, other:1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if TypeCounts(nil) != "" {
		t.Fatalf("expected empty string for no counts")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		850 * time.Millisecond:   "850ms",
		12300 * time.Millisecond: "12.3s",
		125 * time.Second:        "2m5s",
	}
	for d, want := range cases {
		if got := FormatDuration(d); got != want {
			t.Fatalf("FormatDuration(%s) = %q, want %q", d, got, want)
		}
	}
}
