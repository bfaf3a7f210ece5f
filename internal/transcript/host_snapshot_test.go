package transcript

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const renderedWatchPage = `<html><body>
<ytd-engagement-panel-section-list-renderer target-id="engagement-panel-searchable-transcript" visibility="ENGAGEMENT_PANEL_VISIBILITY_EXPANDED">
  <ytd-transcript-segment-renderer><div class="segment-timestamp">0:00</div><yt-formatted-string class="segment-text">Hello</yt-formatted-string></ytd-transcript-segment-renderer>
  <ytd-transcript-segment-renderer><div class="segment-timestamp">0:02</div><yt-formatted-string class="segment-text">world</yt-formatted-string></ytd-transcript-segment-renderer>
</ytd-engagement-panel-section-list-renderer>
<ytd-menu-renderer><yt-icon-button><button aria-label="Action menu"></button></yt-icon-button></ytd-menu-renderer>
</body></html>`

func TestSnapshotPageReadsRenderedSegments(t *testing.T) {
	page, err := NewSnapshotPage(renderedWatchPage)
	require.NoError(t, err)

	r := NewDOMReader(page, noDelay, testLogger())
	assert.Equal(t, "Hello world", r.ReadTranscript(context.Background()))
	assert.True(t, r.EnsureTranscriptPanelOpen(context.Background()))
}

func TestSnapshotPageSelectors(t *testing.T) {
	page, err := NewSnapshotPage(renderedWatchPage)
	require.NoError(t, err)
	ctx := context.Background()

	more, err := page.QueryAll(ctx, overflowMenuSelector)
	require.NoError(t, err)
	require.Len(t, more, 1)
	label, ok, err := more[0].Attribute(ctx, "aria-label")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Action menu", label)

	_, ok, err = more[0].Attribute(ctx, "visibility")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = more[0].Query(ctx, segmentTextSelector)
	require.NoError(t, err)
	assert.False(t, ok)

	markup, err := page.Markup(ctx)
	require.NoError(t, err)
	assert.Equal(t, renderedWatchPage, markup)
}

func TestSnapshotPageHiddenPanel(t *testing.T) {
	page, err := NewSnapshotPage(`<ytd-engagement-panel-section-list-renderer target-id="engagement-panel-searchable-transcript" visibility="ENGAGEMENT_PANEL_VISIBILITY_HIDDEN"></ytd-engagement-panel-section-list-renderer>
<button aria-label="Show transcript"></button>`)
	require.NoError(t, err)

	// clicks are inert on a snapshot, so the panel stays hidden
	r := NewDOMReader(page, noDelay, testLogger())
	assert.False(t, r.EnsureTranscriptPanelOpen(context.Background()))
	assert.Empty(t, r.ReadTranscript(context.Background()))
}

func TestLoadSnapshotPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.html")
	require.NoError(t, os.WriteFile(path, []byte(renderedWatchPage), 0o644))

	page, err := LoadSnapshotPage(path)
	require.NoError(t, err)
	segs, err := page.QueryAll(context.Background(), segmentSelector)
	require.NoError(t, err)
	assert.Len(t, segs, 2)

	_, err = LoadSnapshotPage(filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestNoPageAndStaticOpener(t *testing.T) {
	ctx := context.Background()

	page, err := StaticOpener{}.OpenPage(ctx, "abc")
	require.NoError(t, err)
	assert.IsType(t, NoPage{}, page)

	elems, err := page.QueryAll(ctx, segmentSelector)
	require.NoError(t, err)
	assert.Empty(t, elems)
	markup, err := page.Markup(ctx)
	require.NoError(t, err)
	assert.Empty(t, markup)
	assert.NoError(t, closePage(page))
}
