package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ramkansal/maplead/pkg/plugin"
)

// DefaultBlocklist holds domains that do not count as a business website.
var DefaultBlocklist = []string{
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"yelp.ca",
	"yellowpages.ca",
	"linktr.ee",
}

// Classifier decides the web-presence state of a business from its panel.
type Classifier struct {
	blocklist []string
}

// NewClassifier returns a classifier using the given blocklist domains.
// Matching is a case-insensitive substring test.
func NewClassifier(blocklist []string) *Classifier {
	c := &Classifier{}
	for _, d := range blocklist {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			c.blocklist = append(c.blocklist, d)
		}
	}
	return c
}

// Blocklist returns a copy of the normalized blocklist.
func (c *Classifier) Blocklist() []string {
	return append([]string(nil), c.blocklist...)
}

// Blocked reports whether href points at a blocklisted domain.
func (c *Classifier) Blocked(href string) bool {
	lower := strings.ToLower(href)
	for _, domain := range c.blocklist {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

type signalStrategy func(p *Panel) (plugin.WebsiteSignal, bool)

var signalStrategies = []signalStrategy{
	authoritySignal,
	textLinkSignal,
}

// Probe looks for a website link in the panel. The first strategy that
// locates an affordance wins, even when that affordance has no href.
func (c *Classifier) Probe(p *Panel) (sig plugin.WebsiteSignal) {
	sig = plugin.WebsiteSignal{Source: plugin.SourceNone}
	if p == nil {
		return sig
	}
	defer func() {
		if r := recover(); r != nil {
			sig = plugin.WebsiteSignal{Source: plugin.SourceNone}
		}
	}()

	for _, s := range signalStrategies {
		if found, ok := s(p); ok {
			return found
		}
	}
	return sig
}

// Classify maps a signal to a state and the href that decided it.
func (c *Classifier) Classify(sig plugin.WebsiteSignal) (plugin.WebsiteState, string) {
	if !sig.Found {
		return plugin.WebsiteNone, ""
	}
	if sig.Href == "" {
		// An authority control without a destination is treated as a real site.
		if sig.Source == plugin.SourceAuthority {
			return plugin.WebsiteValid, ""
		}
		return plugin.WebsiteNone, ""
	}
	if c.Blocked(sig.Href) {
		return plugin.WebsiteSocial, sig.Href
	}
	return plugin.WebsiteValid, sig.Href
}

// ClassifyPanel probes and classifies in one step.
func (c *Classifier) ClassifyPanel(p *Panel) (plugin.WebsiteState, string) {
	return c.Classify(c.Probe(p))
}

// authoritySignal reads the dedicated website button.
func authoritySignal(p *Panel) (plugin.WebsiteSignal, bool) {
	btn := p.doc.Find(`[data-item-id="authority"]`).First()
	if btn.Length() == 0 {
		return plugin.WebsiteSignal{}, false
	}
	return plugin.WebsiteSignal{
		Href:   attr(btn, "href"),
		Source: plugin.SourceAuthority,
		Found:  true,
	}, true
}

// textLinkSignal takes the first anchor labelled "Website". Only the first
// match is considered.
func textLinkSignal(p *Panel) (plugin.WebsiteSignal, bool) {
	var sig plugin.WebsiteSignal
	found := false
	p.doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := strings.TrimSpace(s.Text())
		if label == "" {
			label = attr(s, "aria-label")
		}
		if !strings.Contains(label, "Website") {
			return true
		}
		sig = plugin.WebsiteSignal{
			Href:   attr(s, "href"),
			Source: plugin.SourceTextLink,
			Found:  true,
		}
		found = true
		return false
	})
	return sig, found
}
