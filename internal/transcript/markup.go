package transcript

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// PlayerResponseAnchors are the assignments the watch page uses for the embedded
// player response, in the order they are tried.
var PlayerResponseAnchors = []string{
	"ytInitialPlayerResponse = ",
	"var ytInitialPlayerResponse = ",
	"window['ytInitialPlayerResponse'] = ",
}

const captionTracksPath = "captions.playerCaptionsTracklistRenderer.captionTracks"

// captionsRE is the last resort when no anchored player response carries tracks.
var captionsRE = regexp.MustCompile(`(?s)"captions":(\{.*?\}),"videoDetails":`)

// ExtractJSONAfterAnchor returns the balanced JSON object starting at the first '{'
// after the first occurrence of anchor in markup. Braces inside string literals do
// not count toward nesting. The bool is false when the anchor is missing, the object
// never closes, or the closed span is not valid JSON.
func ExtractJSONAfterAnchor(markup, anchor string) (gjson.Result, bool) {
	anchorIndex := strings.Index(markup, anchor)
	if anchorIndex < 0 {
		return gjson.Result{}, false
	}

	offset := anchorIndex + len(anchor)
	start := strings.IndexByte(markup[offset:], '{')
	if start < 0 {
		return gjson.Result{}, false
	}
	start += offset

	var (
		depth    int
		inString bool
		escaped  bool
	)
	for i := start; i < len(markup); i++ {
		c := markup[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				raw := markup[start : i+1]
				if !gjson.Valid(raw) {
					return gjson.Result{}, false
				}
				return gjson.Parse(raw), true
			}
		}
	}

	return gjson.Result{}, false
}

// ExtractPlayerResponse returns the first anchored player response that parses.
func ExtractPlayerResponse(markup string) (gjson.Result, bool) {
	for _, anchor := range PlayerResponseAnchors {
		if resp, ok := ExtractJSONAfterAnchor(markup, anchor); ok {
			return resp, true
		}
	}
	return gjson.Result{}, false
}

// ExtractCaptionTracks finds the caption track list embedded in watch page markup.
// It returns nil when no source yields a track array.
func ExtractCaptionTracks(markup string) []CaptionTrack {
	for _, anchor := range PlayerResponseAnchors {
		resp, ok := ExtractJSONAfterAnchor(markup, anchor)
		if !ok {
			continue
		}
		if list := resp.Get(captionTracksPath); list.IsArray() {
			return parseCaptionTracks(list)
		}
	}

	m := captionsRE.FindStringSubmatch(markup)
	if m == nil || !gjson.Valid(m[1]) {
		return nil
	}
	if list := gjson.Get(m[1], "playerCaptionsTracklistRenderer.captionTracks"); list.IsArray() {
		return parseCaptionTracks(list)
	}
	return nil
}

func parseCaptionTracks(list gjson.Result) []CaptionTrack {
	items := list.Array()
	tracks := make([]CaptionTrack, 0, len(items))
	for _, item := range items {
		kind := KindManual
		if item.Get("kind").String() == "asr" {
			kind = KindASR
		}

		name := item.Get("name.simpleText").String()
		if name == "" {
			name = item.Get("name.runs.0.text").String()
		}

		tracks = append(tracks, CaptionTrack{
			LanguageCode: item.Get("languageCode").String(),
			Kind:         kind,
			BaseURL:      item.Get("baseUrl").String(),
			Name:         name,
		})
	}
	return tracks
}

// VideoDetails is the subset of the player response's videoDetails block the
// prompts and the metadata command use.
type VideoDetails struct {
	VideoID       string   `json:"video_id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description"`
	LengthSeconds int64    `json:"length_seconds"`
	Keywords      []string `json:"keywords,omitempty"`
	HasCaptions   bool     `json:"has_captions"`
}

// ParseVideoDetails reads videoDetails and caption availability from a player response.
func ParseVideoDetails(resp gjson.Result) VideoDetails {
	details := resp.Get("videoDetails")
	var keywords []string
	for _, kw := range details.Get("keywords").Array() {
		keywords = append(keywords, kw.String())
	}
	tracks := resp.Get(captionTracksPath)
	return VideoDetails{
		VideoID:       details.Get("videoId").String(),
		Title:         details.Get("title").String(),
		Author:        details.Get("author").String(),
		Description:   details.Get("shortDescription").String(),
		LengthSeconds: details.Get("lengthSeconds").Int(),
		Keywords:      keywords,
		HasCaptions:   tracks.IsArray() && len(tracks.Array()) > 0,
	}
}
