package transcript

import (
	"cmp"
	"slices"
	"strings"
)

// Kind is the authorship of a caption track.
type Kind int

const (
	// KindManual tracks are authored by a human.
	KindManual Kind = iota
	// KindASR tracks are generated by automatic speech recognition.
	KindASR
)

func (k Kind) String() string {
	if k == KindASR {
		return "asr"
	}
	return "manual"
}

// CaptionTrack describes one subtitle stream listed in a player response.
type CaptionTrack struct {
	LanguageCode string
	Kind         Kind
	BaseURL      string
	Name         string
}

// IsAutomatic reports whether the track was generated by speech recognition.
func (t CaptionTrack) IsAutomatic() bool {
	return t.Kind == KindASR
}

// RankScore orders caption tracks for a preferred language; lower is better.
type RankScore int

const (
	ScoreExactManual RankScore = iota
	ScorePrefixManual
	ScoreExactASR
	ScorePrefixASR
	ScoreOtherManual
	ScoreOtherASR
)

// Score rates how well track serves preferred. A regional variant ("en-US") is a
// prefix match for "en". Comparison is case-insensitive.
func Score(track CaptionTrack, preferred string) RankScore {
	code := strings.ToLower(track.LanguageCode)
	pref := strings.ToLower(preferred)
	exact := code == pref
	prefix := strings.HasPrefix(code, pref+"-")
	auto := track.IsAutomatic()

	switch {
	case exact && !auto:
		return ScoreExactManual
	case prefix && !auto:
		return ScorePrefixManual
	case exact:
		return ScoreExactASR
	case prefix:
		return ScorePrefixASR
	case !auto:
		return ScoreOtherManual
	default:
		return ScoreOtherASR
	}
}

// RankTracks returns a copy of tracks stably sorted by Score for preferred.
func RankTracks(tracks []CaptionTrack, preferred string) []CaptionTrack {
	ranked := slices.Clone(tracks)
	slices.SortStableFunc(ranked, func(a, b CaptionTrack) int {
		return cmp.Compare(Score(a, preferred), Score(b, preferred))
	})
	return ranked
}
