package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ramkansal/maplead/internal/extractor"
	"github.com/ramkansal/maplead/pkg/plugin"
	"github.com/sirupsen/logrus"
)

const (
	searchBoxSelector = "#searchboxinput"
	searchBoxFallback = `input[name="q"]`
	consentSelector   = "button"
	consentText       = "Accept all"
)

// Prober checks whether a website answers at all.
type Prober interface {
	Probe(url string) error
}

// Crawler is the pipeline controller: it searches, walks the result cards,
// classifies each business and hands the collected leads to the store.
type Crawler struct {
	config     *Config
	driver     plugin.Driver
	store      plugin.LeadWriter
	classifier *extractor.Classifier
	prober     Prober
	cards      *CardIterator
	nav        *Navigator
	log        *logrus.Entry
	events     chan plugin.Event
	sleep      func(time.Duration)

	batch     []plugin.Lead
	stats     plugin.RunStats
	startTime time.Time

	// Control
	stopped bool
	stopMu  sync.Mutex
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithLogger sets the diagnostic logger.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Crawler) { c.log = log }
}

// WithProber enables the website reachability check for valid businesses.
func WithProber(p Prober) Option {
	return func(c *Crawler) { c.prober = p }
}

// WithClassifier replaces the classifier built from Config.Blocklist.
func WithClassifier(cl *extractor.Classifier) Option {
	return func(c *Crawler) { c.classifier = cl }
}

// WithSleep replaces the function used for settling delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Crawler) { c.sleep = sleep }
}

// New creates a Crawler for one query.
func New(config *Config, driver plugin.Driver, store plugin.LeadWriter, opts ...Option) *Crawler {
	c := &Crawler{
		config: config,
		driver: driver,
		store:  store,
		events: make(chan plugin.Event, 1000),
		sleep:  time.Sleep,
		stats: plugin.RunStats{
			RunID:       uuid.New().String(),
			Query:       config.Query,
			LeadsByType: make(map[string]int),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.classifier == nil {
		c.classifier = extractor.NewClassifier(config.Blocklist)
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	c.log = c.log.WithField("run_id", c.stats.RunID)
	if store != nil {
		c.stats.StorePath = store.Path()
	}

	c.cards = NewCardIterator(driver, config.WaitTimeout, c.sleep)
	c.nav = NewNavigator(driver, config, c.sleep)
	return c
}

// Events returns the event channel for the CLI or other consumers. It is
// closed when Run returns.
func (c *Crawler) Events() <-chan plugin.Event {
	return c.events
}

// Run executes the whole pipeline. Only a failed search aborts the run;
// any per-card failure is reported and the next card is tried.
func (c *Crawler) Run(ctx context.Context) (*plugin.RunStats, error) {
	defer close(c.events)
	c.startTime = time.Now()

	c.emit(plugin.Event{
		Type:    plugin.EventRunStarted,
		Message: fmt.Sprintf("Searching for %q", c.config.Query),
	})

	if err := c.search(); err != nil {
		c.log.WithError(err).Error("search failed")
		return c.getStats(), err
	}
	c.emit(plugin.Event{Type: plugin.EventSearchDone, Message: "Results list loaded"})

	if err := c.cards.Preload(c.config.ScrollPulses, c.config.ScrollSettle); err != nil {
		c.log.WithError(err).Warn("pre-scroll incomplete")
	}
	c.emit(plugin.Event{
		Type:    plugin.EventScrolled,
		Message: fmt.Sprintf("Pre-scrolled %d times", c.config.ScrollPulses),
	})

	for i := 0; i < c.config.MaxCards; i++ {
		if c.isStopped() || ctx.Err() != nil {
			c.log.WithField("card", i).Info("run stopped before card")
			break
		}
		if err := c.processCard(i); errors.Is(err, ErrEndOfList) {
			c.emit(plugin.Event{Type: plugin.EventEndOfList, Index: i, Message: "No more cards loaded"})
			break
		}
	}

	flushErr := c.flush()

	stats := c.getStats()
	c.emit(plugin.Event{
		Type:    plugin.EventRunFinished,
		Stats:   stats,
		Message: fmt.Sprintf("Finished. Found %d potential leads.", stats.LeadsFound),
	})
	return stats, flushErr
}

// Stop signals the crawler to stop at the next card boundary. Leads found so
// far are still flushed.
func (c *Crawler) Stop() {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	c.stopped = true
}

func (c *Crawler) isStopped() bool {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	return c.stopped
}

// search submits the query and waits for the results feed.
func (c *Crawler) search() error {
	if err := c.driver.Navigate(c.config.MapsURL); err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrSearchTimeout, c.config.MapsURL, err)
	}
	c.dismissConsent()

	box, err := c.driver.WaitFor(searchBoxSelector, c.config.WaitTimeout)
	if err != nil {
		boxes, ferr := c.driver.Find(searchBoxFallback)
		if ferr != nil || len(boxes) == 0 {
			return fmt.Errorf("%w: search box not found: %w", ErrSearchTimeout, err)
		}
		box = boxes[0]
	}
	if err := box.Input(c.config.Query); err != nil {
		return fmt.Errorf("%w: type query: %w", ErrSearchTimeout, err)
	}
	if err := box.Submit(); err != nil {
		return fmt.Errorf("%w: submit query: %w", ErrSearchTimeout, err)
	}

	if _, err := c.driver.WaitFor(feedSelector, c.config.WaitTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrSearchTimeout, err)
	}
	c.sleep(c.config.SearchSettle)
	return nil
}

// dismissConsent clicks the cookie consent button when one shows up.
func (c *Crawler) dismissConsent() {
	btn, err := c.driver.WaitForText(consentSelector, consentText, c.config.ConsentTimeout)
	if err != nil {
		return
	}
	if err := btn.Click(); err != nil {
		c.log.WithError(err).Debug("consent dismiss failed")
	}
}

// processCard handles a single card. Failures stay local to the card; only
// ErrEndOfList is returned to stop iteration.
func (c *Crawler) processCard(i int) error {
	card, err := c.cards.Next(i)
	if errors.Is(err, ErrEndOfList) {
		return err
	}
	if err != nil {
		c.cardFailed(i, "", err)
		c.recoverList(i)
		return nil
	}
	c.stats.CardsSeen++

	lead, state, err := c.inspect(card)
	closeErr := c.nav.Close()

	if errors.Is(err, ErrNavigationTimeout) {
		c.cardAbandoned(i, card.Name, err)
		return nil
	}
	if err != nil {
		c.cardFailed(i, card.Name, err)
		return nil
	}

	c.emit(plugin.Event{
		Type:  plugin.EventCardClassified,
		Index: i,
		Name:  card.Name,
		State: state,
		Lead:  lead,
	})
	if lead != nil {
		c.addLead(i, *lead)
	}

	if closeErr != nil {
		c.log.WithError(closeErr).WithField("card", i).Warn("could not return to list")
		c.emit(plugin.Event{
			Type:    plugin.EventCardError,
			Index:   i,
			Name:    card.Name,
			Error:   closeErr,
			Message: closeErr.Error(),
		})
	}
	return nil
}

// inspect opens the card and classifies it. A nil lead means the business
// has a usable website.
func (c *Crawler) inspect(card plugin.BusinessCard) (*plugin.Lead, plugin.WebsiteState, error) {
	panel, err := c.nav.Open(card)
	if err != nil {
		return nil, "", err
	}
	c.stats.CardsOpened++

	name := card.Name
	if name == unknownBusiness {
		if h := panel.Heading(); h != "" {
			name = h
		}
	}

	state, href := c.classifier.ClassifyPanel(panel)
	phone := extractor.MinePhone(panel)
	address := extractor.MineAddress(panel)

	log := c.log.WithFields(logrus.Fields{
		"card":  card.Index,
		"name":  name,
		"state": state,
	})
	log.WithFields(logrus.Fields{"href": href, "phone": phone, "address": address}).Debug("classified")

	leadType := string(state)
	if !state.IsLead() {
		if c.prober == nil || href == "" {
			return nil, state, nil
		}
		perr := c.prober.Probe(href)
		if perr == nil {
			return nil, state, nil
		}
		log.WithError(perr).Info("website unreachable")
		leadType = plugin.LeadUnreachable
	}

	return &plugin.Lead{
		Name:        name,
		Website:     href,
		WebsiteType: leadType,
		Phone:       phone,
		Address:     address,
	}, state, nil
}

func (c *Crawler) addLead(i int, lead plugin.Lead) {
	c.batch = append(c.batch, lead)
	c.stats.LeadsFound++
	c.stats.LeadsByType[lead.WebsiteType]++

	l := lead
	c.emit(plugin.Event{
		Type:  plugin.EventLeadFound,
		Index: i,
		Name:  lead.Name,
		Lead:  &l,
	})

	if c.config.FlushEvery > 0 && len(c.batch)%c.config.FlushEvery == 0 {
		if err := c.flush(); err != nil {
			c.log.WithError(err).Warn("checkpoint flush failed")
		}
	}
}

func (c *Crawler) cardFailed(i int, name string, err error) {
	c.stats.CardsFailed++
	c.log.WithError(err).WithFields(logrus.Fields{"card": i, "name": name}).Warn("card skipped")
	c.emit(plugin.Event{
		Type:    plugin.EventCardError,
		Index:   i,
		Name:    name,
		Error:   err,
		Message: err.Error(),
	})
}

// cardAbandoned records a card whose detail view never loaded. It is not
// counted as a failure.
func (c *Crawler) cardAbandoned(i int, name string, err error) {
	c.stats.CardsAbandoned++
	c.log.WithError(err).WithFields(logrus.Fields{"card": i, "name": name}).Info("card abandoned")
	c.emit(plugin.Event{
		Type:    plugin.EventCardAbandoned,
		Index:   i,
		Name:    name,
		Error:   err,
		Message: err.Error(),
	})
}

// recoverList makes a best-effort attempt to get back to the list view so a
// stuck detail view does not fail every following card.
func (c *Crawler) recoverList(i int) {
	if err := c.nav.Close(); err != nil {
		c.log.WithError(err).WithField("card", i).Debug("list recovery failed")
	}
}

// flush merges the batch into the store.
func (c *Crawler) flush() error {
	if c.store == nil {
		return nil
	}
	rows, err := c.store.Flush(c.batch)
	if err != nil {
		c.emit(plugin.Event{
			Type:    plugin.EventCardError,
			Index:   -1,
			Error:   err,
			Message: "Failed to write leads: " + err.Error(),
		})
		return fmt.Errorf("write leads: %w", err)
	}
	c.stats.StoredRows = rows

	c.log.WithFields(logrus.Fields{"rows": rows, "path": c.store.Path()}).Debug("store flushed")
	c.emit(plugin.Event{
		Type:    plugin.EventFlushed,
		Message: fmt.Sprintf("%d rows in %s", rows, c.store.Path()),
	})
	return nil
}

// emit sends an event to the event channel (non-blocking).
func (c *Crawler) emit(event plugin.Event) {
	select {
	case c.events <- event:
	default:
		// Drop event if channel is full; the consumer must not stall the run.
	}
}

// getStats returns a copy of the current stats.
func (c *Crawler) getStats() *plugin.RunStats {
	statsCopy := c.stats
	byType := make(map[string]int, len(c.stats.LeadsByType))
	for k, v := range c.stats.LeadsByType {
		byType[k] = v
	}
	statsCopy.LeadsByType = byType
	if !c.startTime.IsZero() {
		statsCopy.Elapsed = time.Since(c.startTime)
	}
	return &statsCopy
}

// Leads returns a copy of the leads collected so far.
func (c *Crawler) Leads() []plugin.Lead {
	return append([]plugin.Lead(nil), c.batch...)
}
