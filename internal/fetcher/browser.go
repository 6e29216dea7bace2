package fetcher

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ramkansal/maplead/pkg/plugin"
)

// BrowserDriver implements plugin.Driver on top of Rod (Chrome via CDP).
// It drives a single tab for the whole run.
type BrowserDriver struct {
	launch        *launcher.Launcher
	browser       *rod.Browser
	page          *rod.Page
	navTimeout    time.Duration
	actionTimeout time.Duration
}

// BrowserDriverConfig holds configuration for the browser driver.
type BrowserDriverConfig struct {
	Headless      bool
	ChromeBin     string
	Lang          string
	UserAgent     string
	NavTimeout    time.Duration
	ActionTimeout time.Duration
}

// NewBrowserDriver launches Chrome and opens a blank tab.
func NewBrowserDriver(cfg BrowserDriverConfig) (*BrowserDriver, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
	if cfg.Lang != "" {
		l = l.Set("lang", cfg.Lang)
	}
	if cfg.ChromeBin != "" {
		l = l.Bin(cfg.ChromeBin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	if cfg.UserAgent != "" {
		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.Lang,
		})
	}

	navTimeout := cfg.NavTimeout
	if navTimeout == 0 {
		navTimeout = 30 * time.Second
	}
	actionTimeout := cfg.ActionTimeout
	if actionTimeout == 0 {
		actionTimeout = 10 * time.Second
	}

	return &BrowserDriver{
		launch:        l,
		browser:       browser,
		page:          page,
		navTimeout:    navTimeout,
		actionTimeout: actionTimeout,
	}, nil
}

func (d *BrowserDriver) Name() string { return "rod" }

func (d *BrowserDriver) Navigate(url string) error {
	p := d.page.Timeout(d.navTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (d *BrowserDriver) WaitFor(selector string, timeout time.Duration) (plugin.Element, error) {
	el, err := d.page.Timeout(timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", selector, err)
	}
	return d.wrap(el.CancelTimeout()), nil
}

func (d *BrowserDriver) WaitForText(selector, text string, timeout time.Duration) (plugin.Element, error) {
	el, err := d.page.Timeout(timeout).ElementR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return nil, fmt.Errorf("wait for %s containing %q: %w", selector, text, err)
	}
	return d.wrap(el.CancelTimeout()), nil
}

func (d *BrowserDriver) Find(selector string) ([]plugin.Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	return d.wrapAll(els), nil
}

func (d *BrowserDriver) HTML() (string, error) {
	return d.page.HTML()
}

func (d *BrowserDriver) Close() error {
	if d.browser == nil {
		return nil
	}
	err := d.browser.Close()
	if d.launch != nil {
		d.launch.Cleanup()
	}
	return err
}

func (d *BrowserDriver) wrap(el *rod.Element) plugin.Element {
	return &browserElement{el: el, timeout: d.actionTimeout}
}

func (d *BrowserDriver) wrapAll(els rod.Elements) []plugin.Element {
	out := make([]plugin.Element, 0, len(els))
	for _, el := range els {
		out = append(out, d.wrap(el))
	}
	return out
}

// browserElement adapts a Rod element to plugin.Element. Every action is
// bounded by the driver's action timeout.
type browserElement struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *browserElement) timed() *rod.Element {
	return e.el.Timeout(e.timeout)
}

func (e *browserElement) Click() error {
	el := e.timed()
	defer el.CancelTimeout()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *browserElement) Input(text string) error {
	el := e.timed()
	defer el.CancelTimeout()
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (e *browserElement) Submit() error {
	el := e.timed()
	defer el.CancelTimeout()
	return el.Type(input.Enter)
}

func (e *browserElement) Text() (string, error) {
	return e.el.Text()
}

func (e *browserElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *browserElement) Elements(selector string) ([]plugin.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]plugin.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &browserElement{el: el, timeout: e.timeout})
	}
	return out, nil
}

func (e *browserElement) ScrollIntoView() error {
	_, err := e.el.Eval(`() => this.scrollIntoView({block: 'center'})`)
	return err
}

func (e *browserElement) ScrollToBottom() error {
	_, err := e.el.Eval(`() => { this.scrollTop = this.scrollHeight }`)
	return err
}
