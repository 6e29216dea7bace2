package fetcher

import (
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// SiteProber uses Colly to check that a business website answers.
type SiteProber struct {
	collector *colly.Collector
}

// SiteProberConfig holds configuration for the site prober.
type SiteProberConfig struct {
	Timeout     time.Duration
	UserAgent   string
	MaxBodySize int
}

// NewSiteProber creates a new Colly-based reachability prober.
func NewSiteProber(cfg SiteProberConfig) *SiteProber {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = true

	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}

	// Only the status matters, not the page
	c.MaxBodySize = cfg.MaxBodySize
	if c.MaxBodySize == 0 {
		c.MaxBodySize = 64 * 1024
	}

	return &SiteProber{collector: c}
}

func (p *SiteProber) Name() string { return "http" }

// Probe returns nil when targetURL answers with a non-error status.
func (p *SiteProber) Probe(targetURL string) error {
	// Clone the collector for this individual probe so we get clean callbacks
	c := p.collector.Clone()

	var status int
	var probeErr error

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		probeErr = err
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(targetURL); err != nil {
		return fmt.Errorf("probe %s: %w", targetURL, err)
	}
	c.Wait()

	if probeErr != nil {
		return fmt.Errorf("probe %s: %w", targetURL, probeErr)
	}
	if status >= 400 {
		return fmt.Errorf("probe %s: status %d", targetURL, status)
	}
	return nil
}
