package crawler

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ramkansal/maplead/internal/extractor"
)

// Config holds all configuration for a scraping run.
type Config struct {
	// Target
	Query    string
	MaxCards int
	MapsURL  string

	// Browser
	Headless  bool
	ChromeBin string
	Lang      string
	UserAgent string

	// Waits. Every browser wait is bounded by WaitTimeout.
	WaitTimeout    time.Duration
	ConsentTimeout time.Duration

	// Settling delays after actions with no completion signal
	ScrollPulses int
	ScrollSettle time.Duration
	SearchSettle time.Duration
	ClickSettle  time.Duration
	DetailSettle time.Duration
	BackSettle   time.Duration

	// Classification
	Blocklist     []string
	ProbeWebsites bool
	ProbeTimeout  time.Duration

	// Output
	OutputDir  string
	ExportXLSX bool
	ReportPath string
	FlushEvery int
	Verbose    bool
	NoColor    bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxCards:       10,
		MapsURL:        "https://www.google.com/maps",
		Lang:           "en-US",
		WaitTimeout:    10 * time.Second,
		ConsentTimeout: 5 * time.Second,
		ScrollPulses:   3,
		ScrollSettle:   2 * time.Second,
		SearchSettle:   3 * time.Second,
		ClickSettle:    1 * time.Second,
		DetailSettle:   1500 * time.Millisecond,
		BackSettle:     1 * time.Second,
		Blocklist:      append([]string(nil), extractor.DefaultBlocklist...),
		ProbeTimeout:   8 * time.Second,
		OutputDir:      ".",
	}
}

// ApplyEnv overrides fields from MAPLEAD_* environment variables.
func (c *Config) ApplyEnv() error {
	c.ChromeBin = getenv("MAPLEAD_CHROME_BIN", c.ChromeBin)
	c.OutputDir = getenv("MAPLEAD_OUTPUT_DIR", c.OutputDir)
	c.MapsURL = getenv("MAPLEAD_MAPS_URL", c.MapsURL)
	c.Lang = getenv("MAPLEAD_LANG", c.Lang)
	c.UserAgent = getenv("MAPLEAD_USER_AGENT", c.UserAgent)

	if v := os.Getenv("MAPLEAD_WAIT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MAPLEAD_WAIT_TIMEOUT: %w", err)
		}
		c.WaitTimeout = d
	}

	if v := os.Getenv("MAPLEAD_BLOCKLIST"); v != "" {
		var domains []string
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				domains = append(domains, d)
			}
		}
		c.Blocklist = domains
	}
	return nil
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Query) == "" {
		return fmt.Errorf("search query is required")
	}
	if c.MaxCards < 0 {
		return fmt.Errorf("max must not be negative, got %d", c.MaxCards)
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive, got %s", c.WaitTimeout)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
