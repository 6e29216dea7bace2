package extractor

import (
	"regexp"
	"strings"
)

// addressPattern is a loose street-address heuristic: a short
// house number, one or more words, then an alphabetic word, all on one line.
var addressPattern = regexp.MustCompile(`\b\d{1,5}[ \t\x{00a0}]+(?:[\p{L}\p{N}_.,'#/-]+[ \t\x{00a0}]+)+\p{L}+`)

var addressStrategies = []Strategy{
	markedAddress,
	bodyTextAddress,
}

// MineAddress returns the business address, or the NotFound sentinel.
func MineAddress(p *Panel) string {
	return runChain(p, addressStrategies)
}

// markedAddress reads the element tagged as the address row.
func markedAddress(p *Panel) (string, bool) {
	sel := p.doc.Find(`[data-item-id="address"]`).First()
	if sel.Length() == 0 {
		return "", false
	}
	if text := strings.Join(strings.Fields(renderText(sel)), " "); text != "" {
		return text, true
	}
	label := attr(sel, "aria-label")
	label = strings.TrimSpace(strings.TrimPrefix(label, "Address:"))
	if label == "" {
		return "", false
	}
	return label, true
}

// bodyTextAddress searches the whole document text.
func bodyTextAddress(p *Panel) (string, bool) {
	return FindAddress(renderText(p.body()))
}

// FindAddress returns the first street-address-like token in text.
func FindAddress(text string) (string, bool) {
	match := addressPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return strings.TrimSpace(match), true
}
