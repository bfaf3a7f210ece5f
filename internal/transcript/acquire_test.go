package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// videoSite fakes the watch page and timedtext endpoints.
type videoSite struct {
	t      *testing.T
	srv    *httptest.Server
	mu     sync.Mutex
	hits   map[string]int
	tracks map[string]string // hl -> captionTracks JSON
	texts  map[string]string // track lang -> XML body
}

func newVideoSite(t *testing.T) *videoSite {
	s := &videoSite{t: t, hits: map[string]int{}, tracks: map[string]string{}, texts: map[string]string{}}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *videoSite) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	switch r.URL.Path {
	case "/watch":
		hl := q.Get("hl")
		s.hits["watch:"+hl]++
		tracks, ok := s.tracks[hl]
		if !ok {
			_, _ = w.Write([]byte("<html><body>no player here</body></html>"))
			return
		}
		_, _ = w.Write([]byte(watchPageMarkup(tracks)))
	case "/tt":
		lang := q.Get("lang")
		s.hits["tt:"+lang]++
		if q.Get("fmt") == "json3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, ok := s.texts[lang]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	default:
		s.t.Errorf("unexpected request %s", r.URL)
		w.WriteHeader(http.StatusTeapot)
	}
}

func (s *videoSite) track(lang, kind string) string {
	return fmt.Sprintf(`{"baseUrl":"%s/tt?v=abcdefghijk&lang=%s","languageCode":"%s","kind":"%s","name":{"simpleText":"%s"}}`,
		s.srv.URL, lang, lang, kind, lang)
}

func (s *videoSite) watchURL(videoID, lang string) string {
	return s.srv.URL + "/watch?v=" + videoID + "&hl=" + lang
}

func (s *videoSite) hitCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

func (s *videoSite) acquirer(opts ...AcquirerOption) *Acquirer {
	client := NewClient(ClientOptions{Retry: fastRetry, Logger: testLogger()})
	base := []AcquirerOption{WithWatchURL(s.watchURL), WithPollPolicy(noDelay), WithLogger(testLogger())}
	return NewAcquirer(client, append(base, opts...)...)
}

type forbiddenGetter struct{ t *testing.T }

func (g forbiddenGetter) Get(_ context.Context, rawURL string) (*http.Response, error) {
	g.t.Errorf("unexpected network request to %s", rawURL)
	return nil, errors.New("network disabled")
}

func TestPreferredLanguages(t *testing.T) {
	assert.Equal(t, []string{"de", "en"}, PreferredLanguages("de"))
	assert.Equal(t, []string{"en"}, PreferredLanguages("en"))
	assert.Equal(t, []string{"en"}, PreferredLanguages(" "))
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk&hl=ru", WatchURL("abcdefghijk", "ru"))
	assert.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk", WatchURL("abcdefghijk", ""))
}

func TestAcquireFromRenderedDOMWithoutNetwork(t *testing.T) {
	page := newFakePage()
	page.setSegments("Hello", "world")

	var stages []string
	a := NewAcquirer(forbiddenGetter{t},
		WithHostPage(page),
		WithPollPolicy(noDelay),
		WithLogger(testLogger()),
		WithStageHook(func(s string) { stages = append(stages, s) }),
	)

	text, err := a.Acquire(context.Background(), "abcdefghijk", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
	assert.Equal(t, []string{"rendered-dom"}, stages)
}

func TestAcquireFromCurrentPageMarkup(t *testing.T) {
	site := newVideoSite(t)
	site.texts["en"] = `<transcript><text start="0">from current page</text></transcript>`

	page := newFakePage()
	page.markup = watchPageMarkup("[" + site.track("en", "asr") + "]")

	text, err := site.acquirer(WithHostPage(page)).Acquire(context.Background(), "abcdefghijk", "en")
	require.NoError(t, err)
	assert.Equal(t, "from current page", text)
	assert.Zero(t, site.hitCount("watch:en"))
}

func TestAcquireSkipsFailingTracks(t *testing.T) {
	site := newVideoSite(t)
	site.tracks["en"] = "[" + site.track("en", "") + "," + site.track("fr", "") + "]"
	site.texts["fr"] = `<transcript><text>bonjour</text></transcript>`

	text, err := site.acquirer().Acquire(context.Background(), "abcdefghijk", "en")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", text)
	assert.Equal(t, 2, site.hitCount("tt:en"), "structured then raw for the better ranked track")
	assert.Equal(t, 2, site.hitCount("tt:fr"))
}

func TestAcquireFallbackLanguageStopsOnSuccess(t *testing.T) {
	site := newVideoSite(t)
	// the German watch page lists no tracks; the English one does
	site.tracks["de"] = "[]"
	site.tracks["en"] = "[" + site.track("en", "asr") + "]"
	site.texts["en"] = `<transcript><text>english text</text></transcript>`

	var stages []string
	a := site.acquirer(WithStageHook(func(s string) { stages = append(stages, s) }))

	text, err := a.Acquire(context.Background(), "abcdefghijk", "de")
	require.NoError(t, err)
	assert.Equal(t, "english text", text)
	assert.Equal(t, 1, site.hitCount("watch:de"))
	assert.Equal(t, 1, site.hitCount("watch:en"))
	assert.Equal(t, []string{"rendered-dom", "current-page", "watch-page:de", "watch-page:en"}, stages)
}

func TestAcquireRequestedLanguageFirst(t *testing.T) {
	site := newVideoSite(t)
	site.tracks["de"] = "[" + site.track("en", "") + "," + site.track("de", "asr") + "]"
	site.texts["en"] = `<transcript><text>english</text></transcript>`
	site.texts["de"] = `<transcript><text>deutsch</text></transcript>`

	text, err := site.acquirer().Acquire(context.Background(), "abcdefghijk", "de")
	require.NoError(t, err)
	assert.Equal(t, "deutsch", text)
	assert.Zero(t, site.hitCount("watch:en"))
	assert.Zero(t, site.hitCount("tt:en"))
}

func TestAcquireUnavailable(t *testing.T) {
	site := newVideoSite(t)
	site.tracks["de"] = "[" + site.track("de", "") + "]"

	_, err := site.acquirer(WithHostPage(newFakePage())).Acquire(context.Background(), "abcdefghijk", "de")
	require.ErrorIs(t, err, ErrTranscriptUnavailable)
	assert.EqualError(t, err, "Transcript is unavailable for this video.")
	assert.Equal(t, 1, site.hitCount("watch:de"))
	assert.Equal(t, 1, site.hitCount("watch:en"))
}

func TestAcquireWatchPageErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := NewAcquirer(NewClient(ClientOptions{Retry: fastRetry, Logger: testLogger()}),
		WithWatchURL(func(id, lang string) string { return srv.URL + "/watch?v=" + id + "&hl=" + lang }),
		WithPollPolicy(noDelay),
		WithLogger(testLogger()),
	)
	_, err := a.Acquire(context.Background(), "abcdefghijk", "en")
	assert.ErrorIs(t, err, ErrTranscriptUnavailable)
}

type failingOpener struct{}

func (failingOpener) OpenPage(context.Context, string) (HostPage, error) {
	return nil, errors.New("no browser")
}

func TestAcquireOpenerFailureFallsBackToNetwork(t *testing.T) {
	site := newVideoSite(t)
	site.tracks["en"] = "[" + site.track("en", "") + "]"
	site.texts["en"] = `<transcript><text>network</text></transcript>`

	text, err := site.acquirer(WithPageOpener(failingOpener{})).Acquire(context.Background(), "abcdefghijk", "en")
	require.NoError(t, err)
	assert.Equal(t, "network", text)
}

type closingPage struct {
	*fakePage
	closed bool
}

func (p *closingPage) Close() error {
	p.closed = true
	return nil
}

func TestAcquireClosesPage(t *testing.T) {
	page := &closingPage{fakePage: newFakePage()}
	page.setSegments("done")

	a := NewAcquirer(forbiddenGetter{t}, WithHostPage(page), WithPollPolicy(noDelay), WithLogger(testLogger()))
	_, err := a.Acquire(context.Background(), "abcdefghijk", "en")
	require.NoError(t, err)
	assert.True(t, page.closed)
}

func TestAcquireCanceled(t *testing.T) {
	site := newVideoSite(t)
	ctx, cancel := context.WithCancel(context.Background())

	var stages []string
	a := site.acquirer(WithStageHook(func(s string) {
		stages = append(stages, s)
		if s == "current-page" {
			cancel()
		}
	}))

	_, err := a.Acquire(ctx, "abcdefghijk", "en")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTranscriptUnavailable)
	assert.Equal(t, []string{"rendered-dom", "current-page"}, stages)
	assert.Zero(t, site.hitCount("watch:en"))
}

func TestTracksAndMetadata(t *testing.T) {
	site := newVideoSite(t)
	site.tracks["en"] = "[" + site.track("fr", "") + "," + site.track("en", "asr") + "]"
	a := site.acquirer()

	tracks, err := a.Tracks(context.Background(), "abcdefghijk", "en")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "en", tracks[0].LanguageCode)
	assert.True(t, tracks[0].IsAutomatic())
	assert.Equal(t, "fr", tracks[1].Name)

	details, err := a.Metadata(context.Background(), "abcdefghijk", "en")
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijk", details.VideoID)
	assert.Equal(t, "Video", details.Title)
	assert.True(t, details.HasCaptions)

	_, err = a.Metadata(context.Background(), "abcdefghijk", "xx")
	assert.ErrorIs(t, err, ErrNoPlayerResponse)
}
