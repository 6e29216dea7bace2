package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/ramkansal/maplead/pkg/plugin"
)

const (
	feedSelector = `div[role="feed"]`
	cardSelector = `div[role="article"]`

	unknownBusiness = "Unknown Business"
)

// CardIterator walks the result cards of the live feed. It never keeps
// element handles between calls: every lookup starts again from the feed,
// since the list is rebuilt after each navigation.
type CardIterator struct {
	driver  plugin.Driver
	timeout time.Duration
	sleep   func(time.Duration)
}

// NewCardIterator creates an iterator over the feed rendered by driver.
func NewCardIterator(driver plugin.Driver, timeout time.Duration, sleep func(time.Duration)) *CardIterator {
	return &CardIterator{driver: driver, timeout: timeout, sleep: sleep}
}

func (it *CardIterator) feed() (plugin.Element, error) {
	feed, err := it.driver.WaitFor(feedSelector, it.timeout)
	if err != nil {
		return nil, fmt.Errorf("results feed: %w", err)
	}
	return feed, nil
}

// Preload scrolls the feed to the bottom a fixed number of times so more
// lazily loaded cards are in the DOM before iteration starts.
func (it *CardIterator) Preload(pulses int, settle time.Duration) error {
	for i := 0; i < pulses; i++ {
		feed, err := it.feed()
		if err != nil {
			return err
		}
		if err := feed.ScrollToBottom(); err != nil {
			return fmt.Errorf("scroll pulse %d: %w", i+1, err)
		}
		it.sleep(settle)
	}
	return nil
}

// Next returns the card at index, or ErrEndOfList when fewer cards are loaded.
func (it *CardIterator) Next(index int) (plugin.BusinessCard, error) {
	feed, err := it.feed()
	if err != nil {
		return plugin.BusinessCard{}, err
	}
	cards, err := feed.Elements(cardSelector)
	if err != nil {
		return plugin.BusinessCard{}, fmt.Errorf("list cards: %w", err)
	}
	if index >= len(cards) {
		return plugin.BusinessCard{}, ErrEndOfList
	}

	card := cards[index]
	return plugin.BusinessCard{
		Index:  index,
		Name:   cardName(card),
		Handle: card,
	}, nil
}

// cardName prefers the accessible label, then the first line of text.
func cardName(el plugin.Element) string {
	if label, ok, err := el.Attribute("aria-label"); err == nil && ok {
		if label = strings.TrimSpace(label); label != "" {
			return label
		}
	}
	if text, err := el.Text(); err == nil {
		first := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
		if first != "" {
			return first
		}
	}
	return unknownBusiness
}
