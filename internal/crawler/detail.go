package crawler

import (
	"fmt"
	"time"

	"github.com/ramkansal/maplead/internal/extractor"
	"github.com/ramkansal/maplead/pkg/plugin"
)

const (
	headingSelector = "h1"
	backSelector    = `button[aria-label="Back"]`
)

// Navigator opens a card's detail view and returns to the list. The list and
// detail views never coexist: callers re-acquire cards after Close.
type Navigator struct {
	driver       plugin.Driver
	timeout      time.Duration
	clickSettle  time.Duration
	detailSettle time.Duration
	backSettle   time.Duration
	sleep        func(time.Duration)
}

// NewNavigator builds a navigator from the run configuration.
func NewNavigator(driver plugin.Driver, cfg *Config, sleep func(time.Duration)) *Navigator {
	return &Navigator{
		driver:       driver,
		timeout:      cfg.WaitTimeout,
		clickSettle:  cfg.ClickSettle,
		detailSettle: cfg.DetailSettle,
		backSettle:   cfg.BackSettle,
		sleep:        sleep,
	}
}

// Open activates the card and snapshots the rendered detail view.
func (n *Navigator) Open(card plugin.BusinessCard) (*extractor.Panel, error) {
	if card.Handle == nil {
		return nil, fmt.Errorf("%w: card %d has no handle", ErrNavigationTimeout, card.Index)
	}
	if err := card.Handle.ScrollIntoView(); err != nil {
		return nil, fmt.Errorf("scroll card %d into view: %w", card.Index, err)
	}
	n.sleep(n.clickSettle)

	if err := card.Handle.Click(); err != nil {
		return nil, fmt.Errorf("click card %d: %w", card.Index, err)
	}
	if _, err := n.driver.WaitFor(headingSelector, n.timeout); err != nil {
		return nil, fmt.Errorf("%w: card %d: %w", ErrNavigationTimeout, card.Index, err)
	}
	n.sleep(n.detailSettle)

	markup, err := n.driver.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot card %d: %w", ErrExtraction, card.Index, err)
	}
	panel, err := extractor.NewPanel(markup)
	if err != nil {
		return nil, fmt.Errorf("%w: card %d: %w", ErrExtraction, card.Index, err)
	}
	return panel, nil
}

// Close presses the back control and waits for the feed to come back.
func (n *Navigator) Close() error {
	backs, err := n.driver.Find(backSelector)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCloseFailed, err)
	}
	if len(backs) == 0 {
		return fmt.Errorf("%w: back button not found", ErrCloseFailed)
	}
	if err := backs[0].Click(); err != nil {
		return fmt.Errorf("%w: click back: %w", ErrCloseFailed, err)
	}
	if _, err := n.driver.WaitFor(feedSelector, n.timeout); err != nil {
		return fmt.Errorf("%w: %w", ErrCloseFailed, err)
	}
	n.sleep(n.backSettle)
	return nil
}
