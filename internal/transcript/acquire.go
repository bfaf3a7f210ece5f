package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

// ErrTranscriptUnavailable is returned when every acquisition strategy came up empty.
var ErrTranscriptUnavailable = errors.New("Transcript is unavailable for this video.")

// ErrNoPlayerResponse is returned when a watch page carries no player response.
var ErrNoPlayerResponse = errors.New("watch page has no player response")

// FallbackLanguage is always tried after the requested language.
const FallbackLanguage = "en"

const watchPageURL = "https://www.youtube.com/watch"

// WatchURL returns the watch page URL for videoID with the interface language set to lang.
func WatchURL(videoID, lang string) string {
	u := watchPageURL + "?v=" + url.QueryEscape(videoID)
	if lang != "" {
		u += "&hl=" + url.QueryEscape(lang)
	}
	return u
}

// PreferredLanguages is the ordered, deduplicated list of languages to try for lang.
func PreferredLanguages(lang string) []string {
	return lo.Uniq(lo.Compact([]string{strings.TrimSpace(lang), FallbackLanguage}))
}

// Request is the input every strategy sees.
type Request struct {
	VideoID  string
	Language string
	Page     HostPage
}

// Strategy is one named way of obtaining a transcript. Run returns None for any
// miss, including internal failures.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, req Request) mo.Option[string]
}

// Acquirer obtains transcripts by running strategies in order until one yields text.
type Acquirer struct {
	client   Getter
	fetcher  *TrackFetcher
	opener   PageOpener
	policy   PollPolicy
	watchURL func(videoID, lang string) string
	onStage  func(stage string)
	log      *logrus.Entry
}

// AcquirerOption configures an Acquirer.
type AcquirerOption func(*Acquirer)

// WithPageOpener sets where the host page comes from. The default is NoPage.
func WithPageOpener(opener PageOpener) AcquirerOption {
	return func(a *Acquirer) { a.opener = opener }
}

// WithHostPage uses page for every acquisition.
func WithHostPage(page HostPage) AcquirerOption {
	return WithPageOpener(StaticOpener{Page: page})
}

// WithPollPolicy sets the DOM reader delays.
func WithPollPolicy(policy PollPolicy) AcquirerOption {
	return func(a *Acquirer) { a.policy = policy }
}

// WithWatchURL overrides how watch page URLs are built.
func WithWatchURL(fn func(videoID, lang string) string) AcquirerOption {
	return func(a *Acquirer) { a.watchURL = fn }
}

// WithStageHook registers fn to be called with each strategy name before it runs.
func WithStageHook(fn func(stage string)) AcquirerOption {
	return func(a *Acquirer) { a.onStage = fn }
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) AcquirerOption {
	return func(a *Acquirer) { a.log = log }
}

// NewAcquirer creates an Acquirer that reaches the network through client.
func NewAcquirer(client Getter, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		client:   client,
		opener:   StaticOpener{},
		policy:   DefaultPollPolicy,
		watchURL: WatchURL,
		onStage:  func(string) {},
		log:      logrus.WithField("component", "acquire"),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.fetcher = NewTrackFetcher(client, a.log)
	return a
}

// Strategies returns the ordered strategies for a request in lang: the rendered DOM,
// the current page's markup, then a fresh watch page per preferred language.
func (a *Acquirer) Strategies(lang string) []Strategy {
	strategies := []Strategy{
		{Name: "rendered-dom", Run: a.fromRenderedDOM},
		{Name: "current-page", Run: a.fromCurrentPage},
	}
	for _, l := range PreferredLanguages(lang) {
		strategies = append(strategies, Strategy{
			Name: "watch-page:" + l,
			Run: func(ctx context.Context, req Request) mo.Option[string] {
				return a.fromWatchPage(ctx, req.VideoID, l)
			},
		})
	}
	return strategies
}

// Acquire returns the transcript of videoID, preferring tracks in lang. It fails
// with ErrTranscriptUnavailable, or with the context's error once ctx is done.
func (a *Acquirer) Acquire(ctx context.Context, videoID, lang string) (string, error) {
	log := a.log.WithFields(logrus.Fields{"video": videoID, "lang": lang})

	page, err := a.opener.OpenPage(ctx, videoID)
	if err != nil {
		log.WithError(err).Debug("host page unavailable")
		page = NoPage{}
	}
	defer func() {
		if err := closePage(page); err != nil {
			log.WithError(err).Debug("closing host page")
		}
	}()

	req := Request{VideoID: videoID, Language: lang, Page: page}
	for _, s := range a.Strategies(lang) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		a.onStage(s.Name)
		log.WithField("stage", s.Name).Debug("trying strategy")

		if text, ok := s.Run(ctx, req).Get(); ok {
			log.WithField("stage", s.Name).Debug("transcript acquired")
			return text, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", ErrTranscriptUnavailable
}

func (a *Acquirer) fromRenderedDOM(ctx context.Context, req Request) mo.Option[string] {
	text := NewDOMReader(req.Page, a.policy, a.log).ReadTranscript(ctx)
	return nonEmpty(text)
}

// fromCurrentPage ranks by the requested language only; the fallback language is
// left to the watch page strategies.
func (a *Acquirer) fromCurrentPage(ctx context.Context, req Request) mo.Option[string] {
	markup, err := req.Page.Markup(ctx)
	if err != nil {
		a.log.WithError(err).Debug("reading current page markup")
		return mo.None[string]()
	}
	if markup == "" {
		return mo.None[string]()
	}
	return a.fetchRanked(ctx, ExtractCaptionTracks(markup), req.Language)
}

func (a *Acquirer) fromWatchPage(ctx context.Context, videoID, lang string) mo.Option[string] {
	markup, err := a.FetchWatchPage(ctx, videoID, lang)
	if err != nil {
		a.log.WithError(err).WithField("hl", lang).Debug("fetching watch page")
		return mo.None[string]()
	}
	return a.fetchRanked(ctx, ExtractCaptionTracks(markup), lang)
}

func (a *Acquirer) fetchRanked(ctx context.Context, tracks []CaptionTrack, lang string) mo.Option[string] {
	for _, track := range RankTracks(tracks, lang) {
		if ctx.Err() != nil {
			return mo.None[string]()
		}
		text, err := a.fetcher.FetchTrackText(ctx, track)
		if err != nil {
			a.log.WithError(err).WithField("track", track.LanguageCode).Debug("caption track failed")
			continue
		}
		if text != "" {
			return mo.Some(text)
		}
	}
	return mo.None[string]()
}

// FetchWatchPage downloads the watch page markup for videoID in lang.
func (a *Acquirer) FetchWatchPage(ctx context.Context, videoID, lang string) (string, error) {
	target := a.watchURL(videoID, lang)
	resp, err := a.client.Get(ctx, target)
	if err != nil {
		return "", fmt.Errorf("fetching watch page: %w", err)
	}
	defer resp.Body.Close()

	if !isOK(resp) {
		return "", &StatusError{URL: target, StatusCode: resp.StatusCode}
	}
	body, err := readBody(resp)
	if err != nil {
		return "", fmt.Errorf("reading watch page: %w", err)
	}
	return string(body), nil
}

// Tracks lists the video's caption tracks ranked for lang.
func (a *Acquirer) Tracks(ctx context.Context, videoID, lang string) ([]CaptionTrack, error) {
	markup, err := a.FetchWatchPage(ctx, videoID, lang)
	if err != nil {
		return nil, err
	}
	return RankTracks(ExtractCaptionTracks(markup), lang), nil
}

// Metadata returns the video details embedded in the watch page.
func (a *Acquirer) Metadata(ctx context.Context, videoID, lang string) (VideoDetails, error) {
	markup, err := a.FetchWatchPage(ctx, videoID, lang)
	if err != nil {
		return VideoDetails{}, err
	}
	resp, ok := ExtractPlayerResponse(markup)
	if !ok {
		return VideoDetails{}, ErrNoPlayerResponse
	}
	return ParseVideoDetails(resp), nil
}

func nonEmpty(text string) mo.Option[string] {
	if text == "" {
		return mo.None[string]()
	}
	return mo.Some(text)
}
