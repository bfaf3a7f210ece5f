package transcript

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	segmentSelector       = "ytd-transcript-segment-renderer"
	segmentTextSelector   = ".segment-text"
	panelSelector         = `ytd-engagement-panel-section-list-renderer[target-id="engagement-panel-searchable-transcript"]`
	panelHiddenVisibility = "ENGAGEMENT_PANEL_VISIBILITY_HIDDEN"
	labeledButtonSelector = "button[aria-label]"
	overflowMenuSelector  = `ytd-menu-renderer yt-icon-button button[aria-label], button[aria-label="More actions"]`
	menuItemSelector      = "ytd-menu-service-item-renderer, tp-yt-paper-item"
	menuItemClickSelector = "tp-yt-paper-item, yt-formatted-string"
)

var (
	// transcriptButtonKeywords match the aria-label of buttons that open the panel directly.
	transcriptButtonKeywords = []string{"transcript", "текст", "стенограм"}
	// transcriptMenuKeywords match the lower-cased label of overflow menu entries.
	transcriptMenuKeywords = []string{"show transcript", "transcript", "показать текст видео", "расшифров", "показати стенограм"}
)

// PollPolicy holds every delay the DOM reader waits on.
type PollPolicy struct {
	// Attempts is how many times segments are read after the panel opens.
	Attempts int
	Interval time.Duration
	// ButtonSettle follows each direct transcript button click.
	ButtonSettle time.Duration
	// MenuOpen follows the overflow menu click.
	MenuOpen time.Duration
	// PanelSettle follows a transcript menu item click.
	PanelSettle time.Duration
}

// DefaultPollPolicy mirrors the pacing the watch page UI needs to render the panel.
var DefaultPollPolicy = PollPolicy{
	Attempts:     6,
	Interval:     250 * time.Millisecond,
	ButtonSettle: 300 * time.Millisecond,
	MenuOpen:     250 * time.Millisecond,
	PanelSettle:  600 * time.Millisecond,
}

// DOMReader reads the transcript the watch page has already rendered, opening the
// transcript panel when needed. It never fails: absence is the empty string.
type DOMReader struct {
	page   HostPage
	policy PollPolicy
	log    *logrus.Entry
}

// NewDOMReader creates a DOMReader over page.
func NewDOMReader(page HostPage, policy PollPolicy, log *logrus.Entry) *DOMReader {
	if log == nil {
		log = logrus.WithField("component", "dom")
	}
	return &DOMReader{page: page, policy: policy, log: log}
}

// ReadTranscript returns rendered segments, opening the panel and polling for them
// when none are visible yet.
func (r *DOMReader) ReadTranscript(ctx context.Context) string {
	if text := r.ReadRenderedTranscript(ctx); text != "" {
		return text
	}

	if !r.EnsureTranscriptPanelOpen(ctx) {
		return ""
	}

	for range r.policy.Attempts {
		if text := r.ReadRenderedTranscript(ctx); text != "" {
			return text
		}
		if !sleepCtx(ctx, r.policy.Interval) {
			return ""
		}
	}
	return ""
}

// ReadRenderedTranscript joins the text of every rendered transcript segment.
func (r *DOMReader) ReadRenderedTranscript(ctx context.Context) string {
	segments, err := r.page.QueryAll(ctx, segmentSelector)
	if err != nil {
		r.log.WithError(err).Debug("querying transcript segments")
		return ""
	}
	if len(segments) == 0 {
		return ""
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		textEl, ok, err := seg.Query(ctx, segmentTextSelector)
		if err != nil || !ok {
			parts = append(parts, "")
			continue
		}
		text, err := textEl.Text(ctx)
		if err != nil {
			text = ""
		}
		parts = append(parts, text)
	}
	return NormalizeText(strings.Join(parts, " "))
}

// EnsureTranscriptPanelOpen reports whether the transcript panel is visible,
// trying direct transcript buttons and then the overflow menu to reveal it.
func (r *DOMReader) EnsureTranscriptPanelOpen(ctx context.Context) bool {
	if r.panelVisible(ctx) {
		return true
	}

	buttons, err := r.page.QueryAll(ctx, labeledButtonSelector)
	if err != nil {
		r.log.WithError(err).Debug("querying labeled buttons")
	}
	for _, button := range buttons {
		label, ok, err := button.Attribute(ctx, "aria-label")
		if err != nil || !ok || !containsAny(strings.ToLower(label), transcriptButtonKeywords) {
			continue
		}
		if err := button.Click(ctx); err != nil {
			r.log.WithError(err).Debug("clicking transcript button")
			continue
		}
		if !sleepCtx(ctx, r.policy.ButtonSettle) {
			return false
		}
		if r.panelVisible(ctx) {
			return true
		}
	}

	if more, ok := r.first(ctx, overflowMenuSelector); ok {
		if err := more.Click(ctx); err != nil {
			r.log.WithError(err).Debug("opening overflow menu")
		} else {
			if !sleepCtx(ctx, r.policy.MenuOpen) {
				return false
			}
			if r.clickTranscriptMenuItem(ctx) {
				return sleepCtx(ctx, r.policy.PanelSettle) && r.panelVisible(ctx)
			}
		}
	}

	if r.clickTranscriptMenuItem(ctx) {
		return sleepCtx(ctx, r.policy.PanelSettle) && r.panelVisible(ctx)
	}
	return false
}

func (r *DOMReader) panelVisible(ctx context.Context) bool {
	panel, ok := r.first(ctx, panelSelector)
	if !ok {
		return false
	}
	visibility, present, err := panel.Attribute(ctx, "visibility")
	if err != nil {
		return false
	}
	return !present || visibility != panelHiddenVisibility
}

func (r *DOMReader) clickTranscriptMenuItem(ctx context.Context) bool {
	items, err := r.page.QueryAll(ctx, menuItemSelector)
	if err != nil {
		r.log.WithError(err).Debug("querying menu items")
		return false
	}

	for _, item := range items {
		text, err := item.Text(ctx)
		if err != nil {
			continue
		}
		label := NormalizeText(strings.ToLower(text))
		if label == "" || !containsAny(label, transcriptMenuKeywords) {
			continue
		}

		target := item
		if inner, ok, err := item.Query(ctx, menuItemClickSelector); err == nil && ok {
			target = inner
		}
		if err := target.Click(ctx); err != nil {
			r.log.WithError(err).Debug("clicking transcript menu item")
			return false
		}
		return true
	}
	return false
}

func (r *DOMReader) first(ctx context.Context, selector string) (Element, bool) {
	elems, err := r.page.QueryAll(ctx, selector)
	if err != nil || len(elems) == 0 {
		return nil, false
	}
	return elems[0], true
}

func containsAny(s string, keywords []string) bool {
	return lo.SomeBy(keywords, func(kw string) bool { return strings.Contains(s, kw) })
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
