package crawler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ramkansal/maplead/pkg/plugin"
)

var (
	errFakeTimeout = errors.New("fake: wait timed out")
	errFakeStale   = errors.New("fake: stale element")
)

// fakeBusiness is one entry of the scripted results list. An empty detail
// means the detail view never renders its heading.
type fakeBusiness struct {
	label  string
	text   string
	detail string
}

// fakeDriver simulates the maps UI: a home page with a search box, a results
// feed, and one detail view at a time. Every view change invalidates
// previously returned card handles, like a re-rendered DOM.
type fakeDriver struct {
	businesses []fakeBusiness
	noFeed     bool
	consent    bool
	noBack     bool

	view       string
	current    int
	generation int
	query      string

	navigations int
	scrolls     int
	opened      []int
	backs       int
	closed      bool
}

func (d *fakeDriver) setView(v string) {
	d.view = v
	d.generation++
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Navigate(url string) error {
	d.navigations++
	d.setView("home")
	return nil
}

func (d *fakeDriver) WaitFor(selector string, _ time.Duration) (plugin.Element, error) {
	switch selector {
	case searchBoxSelector:
		if d.view == "home" {
			return &fakeElement{d: d, kind: "searchbox", gen: d.generation}, nil
		}
	case feedSelector:
		if d.view == "list" {
			return &fakeElement{d: d, kind: "feed", gen: d.generation}, nil
		}
	case headingSelector:
		if d.view == "detail" {
			return &fakeElement{d: d, kind: "heading", gen: d.generation}, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", selector, errFakeTimeout)
}

func (d *fakeDriver) WaitForText(selector, text string, _ time.Duration) (plugin.Element, error) {
	if d.consent && selector == consentSelector && text == consentText {
		return &fakeElement{d: d, kind: "consent", gen: d.generation}, nil
	}
	return nil, errFakeTimeout
}

func (d *fakeDriver) Find(selector string) ([]plugin.Element, error) {
	if selector == backSelector && !d.noBack && (d.view == "detail" || d.view == "loading") {
		return []plugin.Element{&fakeElement{d: d, kind: "back", gen: d.generation}}, nil
	}
	return nil, nil
}

func (d *fakeDriver) HTML() (string, error) {
	if d.view != "detail" {
		return "<html><body></body></html>", nil
	}
	return d.businesses[d.current].detail, nil
}

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

type fakeElement struct {
	d     *fakeDriver
	kind  string
	index int
	gen   int
}

func (e *fakeElement) check() error {
	if e.gen != e.d.generation {
		return errFakeStale
	}
	return nil
}

func (e *fakeElement) Click() error {
	if err := e.check(); err != nil {
		return err
	}
	switch e.kind {
	case "card":
		e.d.current = e.index
		e.d.opened = append(e.d.opened, e.index)
		if e.d.businesses[e.index].detail == "" {
			e.d.setView("loading")
		} else {
			e.d.setView("detail")
		}
	case "back":
		e.d.backs++
		e.d.setView("list")
	case "consent":
		e.d.consent = false
	}
	return nil
}

func (e *fakeElement) Input(text string) error {
	if e.kind != "searchbox" {
		return fmt.Errorf("fake: cannot type into %s", e.kind)
	}
	e.d.query = text
	return nil
}

func (e *fakeElement) Submit() error {
	if e.d.noFeed {
		e.d.setView("searching")
	} else {
		e.d.setView("list")
	}
	return nil
}

func (e *fakeElement) Text() (string, error) {
	if e.kind == "card" {
		return e.d.businesses[e.index].text, nil
	}
	return "", nil
}

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	if e.kind == "card" && name == "aria-label" {
		label := e.d.businesses[e.index].label
		return label, label != "", nil
	}
	return "", false, nil
}

func (e *fakeElement) Elements(selector string) ([]plugin.Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if e.kind != "feed" || selector != cardSelector {
		return nil, nil
	}
	out := make([]plugin.Element, len(e.d.businesses))
	for i := range e.d.businesses {
		out[i] = &fakeElement{d: e.d, kind: "card", index: i, gen: e.d.generation}
	}
	return out, nil
}

func (e *fakeElement) ScrollIntoView() error { return e.check() }

func (e *fakeElement) ScrollToBottom() error {
	if err := e.check(); err != nil {
		return err
	}
	e.d.scrolls++
	return nil
}

// detailPage renders a minimal detail view.
func detailPage(name string, extra ...string) string {
	return `<html><body><div role="main"><h1>` + name + `</h1>` +
		strings.Join(extra, "\n") +
		`<button aria-label="Back">Back</button></div></body></html>`
}
