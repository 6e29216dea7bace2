// Package plugin defines the public interfaces for maplead.
// External tools can import this package to plug in their own browser
// driver (a remote browser, a record/replay fixture) or lead writer
// without forking the project.
package plugin

import (
	"time"
)

// ---------- Core Data Types ----------

// NotFound is the sentinel stored when a best-effort extraction finds nothing.
const NotFound = "Not found"

// WebsiteState is the web-presence classification of a business.
type WebsiteState string

const (
	WebsiteValid  WebsiteState = "valid"
	WebsiteSocial WebsiteState = "social"
	WebsiteNone   WebsiteState = "none"
)

// IsLead reports whether a business in this state should be persisted.
func (s WebsiteState) IsLead() bool {
	return s != WebsiteValid
}

// Lead website types. Social and none mirror WebsiteState; unreachable is
// only produced when the reachability probe is enabled.
const (
	LeadSocial      = string(WebsiteSocial)
	LeadNone        = string(WebsiteNone)
	LeadUnreachable = "unreachable"
)

// SourceHint records which panel affordance produced a website href.
type SourceHint string

const (
	SourceAuthority SourceHint = "authority"
	SourceTextLink  SourceHint = "text_link"
	SourceNone      SourceHint = "none"
)

// WebsiteSignal is the raw result of probing a detail panel for a website.
// Found is true when an affordance was located, even if it carries no href.
type WebsiteSignal struct {
	Href   string     `json:"href,omitempty"`
	Source SourceHint `json:"source"`
	Found  bool       `json:"found"`
}

// Lead is a persisted record for a business without a usable website.
type Lead struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	WebsiteType string `json:"website_type"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// LeadKey is the identity of a lead. Two leads with equal keys are the same
// real-world business.
type LeadKey struct {
	Name, Address, Phone, Website string
}

// Key returns the deduplication key for the lead.
func (l Lead) Key() LeadKey {
	return LeadKey{Name: l.Name, Address: l.Address, Phone: l.Phone, Website: l.Website}
}

// BusinessCard is a transient handle on one entry of the rendered result list.
// It is only valid until the next navigation.
type BusinessCard struct {
	Index  int
	Name   string
	Handle Element
}

// ---------- Event Types ----------

// Event represents a real-time event emitted by the crawler.
type Event struct {
	Type    EventType
	Index   int
	Name    string
	State   WebsiteState
	Lead    *Lead
	Error   error
	Stats   *RunStats
	Message string
}

// EventType identifies the kind of event.
type EventType int

const (
	EventRunStarted EventType = iota
	EventSearchDone
	EventScrolled
	EventCardClassified
	EventLeadFound
	EventCardError
	EventCardAbandoned
	EventEndOfList
	EventFlushed
	EventRunFinished
)

// RunStats holds statistics for one run. Abandoned cards are those whose
// detail view never rendered; they count as neither leads nor failures.
type RunStats struct {
	RunID          string         `json:"run_id"`
	Query          string         `json:"query"`
	CardsSeen      int            `json:"cards_seen"`
	CardsOpened    int            `json:"cards_opened"`
	CardsFailed    int            `json:"cards_failed"`
	CardsAbandoned int            `json:"cards_abandoned"`
	LeadsFound     int            `json:"leads_found"`
	LeadsByType    map[string]int `json:"leads_by_type"`
	StoredRows     int            `json:"stored_rows"`
	StorePath      string         `json:"store_path"`
	Elapsed        time.Duration  `json:"elapsed"`
}

// ---------- Plugin Interfaces ----------

// Driver is the browser capability set the crawler consumes.
// Every Wait* call is bounded by the given timeout.
type Driver interface {
	// Name returns a human-readable identifier for this driver.
	Name() string

	// Navigate loads the given URL in the active page.
	Navigate(url string) error

	// WaitFor blocks until an element matching selector is present.
	WaitFor(selector string, timeout time.Duration) (Element, error)

	// WaitForText blocks until an element matching selector whose text
	// contains the given substring is present.
	WaitForText(selector, text string, timeout time.Duration) (Element, error)

	// Find returns every element matching selector without waiting.
	Find(selector string) ([]Element, error)

	// HTML returns the current document markup.
	HTML() (string, error)

	// Close releases the browser session.
	Close() error
}

// Element is a handle on a node in the live document.
type Element interface {
	Click() error
	Input(text string) error
	Submit() error
	Text() (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)
	Elements(selector string) ([]Element, error)
	ScrollIntoView() error
	ScrollToBottom() error
}

// LeadWriter defines how a batch of leads is persisted.
type LeadWriter interface {
	// Name returns a human-readable identifier for this writer.
	Name() string

	// Path returns the location the writer persists to.
	Path() string

	// Flush merges batch into the persisted store and returns the row count.
	Flush(batch []Lead) (int, error)
}
