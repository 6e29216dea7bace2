package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

// phonePattern matches a digit run interleaved with spaces, hyphens,
// parentheses or periods that starts and ends on a digit. Line breaks are
// not separators so neighbouring panel rows never fuse into one number.
var phonePattern = regexp.MustCompile(`\+?\d(?:[\d \t\x{00a0}().-]*\d)?`)

const minPhoneDigits = 7

var phoneStrategies = []Strategy{
	telLinkPhone,
	containerTextPhone,
}

// MinePhone returns the business phone number in normalized form, or the
// NotFound sentinel.
func MinePhone(p *Panel) string {
	return runChain(p, phoneStrategies)
}

// telLinkPhone reads the first tel: link in the document.
func telLinkPhone(p *Panel) (string, bool) {
	link := p.doc.Find(`a[href^="tel:"]`).First()
	if link.Length() == 0 {
		return "", false
	}
	raw := strings.TrimPrefix(attr(link, "href"), "tel:")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	phone := NormalizePhone(raw)
	if phone == "" || phone == "+" {
		return "", false
	}
	return phone, true
}

// containerTextPhone scans the text of the panel's enclosing container.
func containerTextPhone(p *Panel) (string, bool) {
	return FindPhone(renderText(p.container()))
}

// FindPhone returns the first plausible phone number in text, normalized.
func FindPhone(text string) (string, bool) {
	for _, match := range phonePattern.FindAllString(text, -1) {
		phone := NormalizePhone(match)
		if countDigits(phone) >= minPhoneDigits {
			return phone, true
		}
	}
	return "", false
}

// NormalizePhone removes every character except digits and a leading plus.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
