package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rtzll/overalltube/internal/transcript"
)

// formatTrack renders one caption track line with its rank for lang
func formatTrack(t transcript.CaptionTrack, lang string) string {
	name := t.Name
	if name == "" {
		name = LanguageName(t.LanguageCode)
	}
	return fmt.Sprintf("%-8s %-6s rank=%d  %s", t.LanguageCode, t.Kind, transcript.Score(t, lang), name)
}

// FormatTracks renders tracks one per line, in the given order
func FormatTracks(tracks []transcript.CaptionTrack, lang string) string {
	var buf strings.Builder
	for _, t := range tracks {
		buf.WriteString(formatTrack(t, lang))
		buf.WriteByte('\n')
	}
	return buf.String()
}

// FormatDetails renders video details as labeled lines
func FormatDetails(d transcript.VideoDetails) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Title: %s\n", d.Title)
	fmt.Fprintf(&buf, "Channel: %s\n", d.Author)
	fmt.Fprintf(&buf, "Duration: %s\n", time.Duration(d.LengthSeconds)*time.Second)
	fmt.Fprintf(&buf, "Has Captions: %t\n", d.HasCaptions)
	if len(d.Keywords) > 0 {
		fmt.Fprintf(&buf, "Tags: %s\n", strings.Join(d.Keywords, ", "))
	}
	fmt.Fprintf(&buf, "Description: %s\n", d.Description)
	return buf.String()
}
