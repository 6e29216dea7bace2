package extractor

import (
	"testing"

	"github.com/ramkansal/maplead/pkg/plugin"
)

func mustPanel(t *testing.T, markup string) *Panel {
	t.Helper()
	p, err := NewPanel(markup)
	if err != nil {
		t.Fatalf("NewPanel: %v", err)
	}
	return p
}

func TestClassify_BlocklistedHrefIsSocial(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)

	hrefs := []string{
		"https://facebook.com/janescafe",
		"http://www.Facebook.com/pages/x?ref=maps",
		"HTTPS://INSTAGRAM.COM/cafe",
		"https://ca.linkedin.com/company/x",
		"https://www.yelp.ca/biz/some-place",
		"https://yellowpages.ca/bus/123",
		"https://linktr.ee/bakery",
		"facebook.com",
	}
	for _, href := range hrefs {
		sig := plugin.WebsiteSignal{Href: href, Source: plugin.SourceAuthority, Found: true}
		state, got := c.Classify(sig)
		if state != plugin.WebsiteSocial {
			t.Fatalf("%s: expected social, got %s", href, state)
		}
		if got != href {
			t.Fatalf("%s: expected href to be returned, got %q", href, got)
		}
	}
}

func TestClassify_OtherHrefIsValid(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)

	for _, href := range []string{
		"https://joescafe.com",
		"http://example.org/menu",
		"https://yelp.com/biz/x",
	} {
		for _, src := range []plugin.SourceHint{plugin.SourceAuthority, plugin.SourceTextLink} {
			state, _ := c.Classify(plugin.WebsiteSignal{Href: href, Source: src, Found: true})
			if state != plugin.WebsiteValid {
				t.Fatalf("%s via %s: expected valid, got %s", href, src, state)
			}
		}
	}
}

func TestClassify_InjectedBlocklist(t *testing.T) {
	c := NewClassifier([]string{"  Example.COM "})

	state, _ := c.Classify(plugin.WebsiteSignal{Href: "https://www.example.com/x", Source: plugin.SourceAuthority, Found: true})
	if state != plugin.WebsiteSocial {
		t.Fatalf("expected social with custom blocklist, got %s", state)
	}
	state, _ = c.Classify(plugin.WebsiteSignal{Href: "https://facebook.com/x", Source: plugin.SourceAuthority, Found: true})
	if state != plugin.WebsiteValid {
		t.Fatalf("expected valid when facebook is not blocklisted, got %s", state)
	}
}

func TestClassifyPanel_AuthorityButton(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)

	p := mustPanel(t, `<html><body><div role="main"><h1>Joe's Cafe</h1>
		<a data-item-id="authority" href="https://joescafe.com">joescafe.com</a>
		<a href="https://facebook.com/joes">Website</a>
	</div></body></html>`)

	state, href := c.ClassifyPanel(p)
	if state != plugin.WebsiteValid || href != "https://joescafe.com" {
		t.Fatalf("expected valid joescafe.com, got %s %q", state, href)
	}
}

func TestClassifyPanel_AuthorityWithoutHrefIsValid(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)

	p := mustPanel(t, `<html><body><h1>Mystery</h1>
		<button data-item-id="authority">Website</button>
		<a href="https://facebook.com/mystery">Website</a>
	</body></html>`)

	state, href := c.ClassifyPanel(p)
	if state != plugin.WebsiteValid || href != "" {
		t.Fatalf("expected valid with empty href, got %s %q", state, href)
	}
}

func TestClassifyPanel_TextLinkFallbackFirstMatchWins(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)

	p := mustPanel(t, `<html><body><h1>Bakery</h1>
		<a href="/maps/directions">Directions</a>
		<a href="https://instagram.com/bakery">Website</a>
		<a href="https://bakery.example">Website</a>
	</body></html>`)

	state, href := c.ClassifyPanel(p)
	if state != plugin.WebsiteSocial || href != "https://instagram.com/bakery" {
		t.Fatalf("expected social instagram, got %s %q", state, href)
	}
}

func TestClassifyPanel_TextLinkUsesAriaLabel(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)

	p := mustPanel(t, `<html><body><h1>Shop</h1>
		<a aria-label="Website: shop.example" href="https://shop.example"><img src="x.png"></a>
	</body></html>`)

	sig := c.Probe(p)
	if sig.Source != plugin.SourceTextLink || sig.Href != "https://shop.example" {
		t.Fatalf("unexpected signal %+v", sig)
	}
	if state, _ := c.Classify(sig); state != plugin.WebsiteValid {
		t.Fatalf("expected valid, got %s", state)
	}
}

func TestClassifyPanel_TextLinkIsCaseSensitive(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)

	p := mustPanel(t, `<html><body><h1>Shop</h1>
		<a href="https://shop.example">website</a>
	</body></html>`)

	if state, _ := c.ClassifyPanel(p); state != plugin.WebsiteNone {
		t.Fatalf("expected none for lower-case label, got %s", state)
	}
}

func TestClassifyPanel_TextLinkWithoutHrefIsNone(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)

	p := mustPanel(t, `<html><body><h1>Shop</h1><a>Website</a></body></html>`)

	if state, _ := c.ClassifyPanel(p); state != plugin.WebsiteNone {
		t.Fatalf("expected none, got %s", state)
	}
}

func TestClassifyPanel_NoSignalsIsNone(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)

	p := mustPanel(t, `<html><body><h1>Plain</h1>
		<a href="/maps/reviews">Reviews</a>
		<a href="tel:+15551234567">Call</a>
	</body></html>`)

	sig := c.Probe(p)
	if sig.Found || sig.Source != plugin.SourceNone {
		t.Fatalf("expected no signal, got %+v", sig)
	}
	if state, href := c.ClassifyPanel(p); state != plugin.WebsiteNone || href != "" {
		t.Fatalf("expected none, got %s %q", state, href)
	}
}

func TestClassifyPanel_Deterministic(t *testing.T) {
	c := NewClassifier(DefaultBlocklist)
	markup := `<html><body><h1>X</h1><a data-item-id="authority" href="https://linktr.ee/x">x</a></body></html>`

	first, _ := c.ClassifyPanel(mustPanel(t, markup))
	for i := 0; i < 5; i++ {
		if got, _ := c.ClassifyPanel(mustPanel(t, markup)); got != first {
			t.Fatalf("classification changed between runs: %s vs %s", first, got)
		}
	}
}
