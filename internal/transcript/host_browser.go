package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// BrowserOptions configures a headless Chromium session.
type BrowserOptions struct {
	// Bin is the browser executable; empty lets the launcher find or download one.
	Bin       string
	UserAgent string
	Language  string
	// LoadTimeout bounds navigation to the watch page.
	LoadTimeout time.Duration
	WatchURL    func(videoID, lang string) string
	Logger      *logrus.Entry
}

// Browser opens watch pages in headless Chromium so the DOM reader can work
// against the rendered transcript panel.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	opts     BrowserOptions
	log      *logrus.Entry
}

// LaunchBrowser starts Chromium and connects to it. The browser outlives ctx and
// must be released with Close.
func LaunchBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.WithField("component", "browser")
	}
	if opts.WatchURL == nil {
		opts.WatchURL = WatchURL
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}

	l := launcher.New().
		Headless(true).
		Set("mute-audio").
		Set("disable-blink-features", "AutomationControlled")
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.UserAgent != "" {
		l = l.Set("user-agent", opts.UserAgent)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	log.WithField("control_url", controlURL).Debug("browser started")
	return &Browser{launcher: l, browser: browser, opts: opts, log: log}, nil
}

// OpenPage navigates a new tab to the video's watch page and waits for it to load.
func (b *Browser) OpenPage(ctx context.Context, videoID string) (HostPage, error) {
	target := b.opts.WatchURL(videoID, b.opts.Language)

	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", target, err)
	}
	if err := page.Timeout(b.opts.LoadTimeout).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("loading %s: %w", target, err)
	}

	b.log.WithField("url", target).Debug("watch page loaded")
	return &BrowserPage{page: page}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	return err
}

// BrowserPage is a live Chromium tab.
type BrowserPage struct {
	page *rod.Page
}

func (p *BrowserPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return browserElements(els), nil
}

func (p *BrowserPage) Markup(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// Close closes the tab.
func (p *BrowserPage) Close() error {
	return p.page.Close()
}

type browserElement struct {
	el *rod.Element
}

func browserElements(els rod.Elements) []Element {
	elems := make([]Element, 0, len(els))
	for _, el := range els {
		elems = append(elems, browserElement{el: el})
	}
	return elems
}

func (e browserElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e browserElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e browserElement) Query(ctx context.Context, selector string) (Element, bool, error) {
	// Elements does not wait for a match, unlike Element.
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil || len(els) == 0 {
		return nil, false, err
	}
	return browserElement{el: els.First()}, true, nil
}

func (e browserElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}
