package transcript

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// structuredFormat is the timedtext format parameter for the JSON event payload.
const structuredFormat = "json3"

var xmlTextRE = regexp.MustCompile(`(?s)<text[^>]*>(.*?)</text>`)

// TrackFetcher retrieves the text of a single caption track.
type TrackFetcher struct {
	client Getter
	log    *logrus.Entry
}

// NewTrackFetcher creates a TrackFetcher that issues requests through client.
func NewTrackFetcher(client Getter, log *logrus.Entry) *TrackFetcher {
	if log == nil {
		log = logrus.WithField("component", "fetcher")
	}
	return &TrackFetcher{client: client, log: log}
}

// FetchTrackText returns the normalized text of track, trying the json3 format
// before the raw XML format. An empty string with a nil error means the track had
// nothing to offer; only transport failures of the XML request are returned.
func (f *TrackFetcher) FetchTrackText(ctx context.Context, track CaptionTrack) (string, error) {
	if track.BaseURL == "" {
		return "", nil
	}

	log := f.log.WithField("lang", track.LanguageCode)

	if text, err := f.fetchStructured(ctx, track.BaseURL); err != nil {
		log.WithError(err).Debug("structured captions unavailable")
	} else if text != "" {
		return text, nil
	}

	resp, err := f.client.Get(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("fetching caption track: %w", err)
	}
	defer resp.Body.Close()

	if !isOK(resp) {
		log.WithField("status", resp.StatusCode).Debug("raw captions unavailable")
		return "", nil
	}

	body, err := readBody(resp)
	if err != nil {
		return "", fmt.Errorf("reading caption track: %w", err)
	}
	return CollectXMLText(string(body)), nil
}

func (f *TrackFetcher) fetchStructured(ctx context.Context, baseURL string) (string, error) {
	structuredURL, err := withFormat(baseURL, structuredFormat)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Get(ctx, structuredURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !isOK(resp) {
		return "", &StatusError{URL: structuredURL, StatusCode: resp.StatusCode}
	}

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("malformed %s payload", structuredFormat)
	}
	return CollectJSON3Text(gjson.ParseBytes(body)), nil
}

func withFormat(baseURL, format string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing caption URL: %w", err)
	}
	q := u.Query()
	q.Set("fmt", format)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CollectJSON3Text concatenates events[].segs[].utf8 in order and normalizes it.
func CollectJSON3Text(payload gjson.Result) string {
	events := payload.Get("events")
	if !events.IsArray() {
		return ""
	}

	var sb strings.Builder
	events.ForEach(func(_, event gjson.Result) bool {
		segs := event.Get("segs")
		if !segs.IsArray() {
			return true
		}
		segs.ForEach(func(_, seg gjson.Result) bool {
			sb.WriteString(seg.Get("utf8").String())
			return true
		})
		return true
	})
	return NormalizeText(sb.String())
}

// CollectXMLText extracts and entity-decodes every <text> body, joined by spaces.
func CollectXMLText(xmlText string) string {
	matches := xmlTextRE.FindAllStringSubmatch(xmlText, -1)
	chunks := make([]string, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, DecodeEntities(m[1]))
	}
	return NormalizeText(strings.Join(chunks, " "))
}
