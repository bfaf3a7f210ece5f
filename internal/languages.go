package internal

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// DefaultLanguage is used when no language, or an unsupported one, is requested.
const DefaultLanguage = "en"

// Language is a response language offered to users.
type Language struct {
	Code string
	Name string
}

// SupportedLanguages lists the languages responses and caption preferences may use.
var SupportedLanguages = []Language{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"pt", "Portuguese"},
	{"ru", "Russian"},
	{"de", "German"},
	{"it", "Italian"},
	{"pl", "Polish"},
	{"uk", "Ukrainian"},
	{"ro", "Romanian"},
	{"nl", "Dutch"},
	{"bg", "Bulgarian"},
	{"hr", "Croatian"},
	{"cs", "Czech"},
	{"da", "Danish"},
	{"et", "Estonian"},
	{"fi", "Finnish"},
	{"el", "Greek"},
	{"hu", "Hungarian"},
	{"ga", "Irish"},
	{"lv", "Latvian"},
	{"lt", "Lithuanian"},
	{"mt", "Maltese"},
	{"sk", "Slovak"},
	{"sl", "Slovenian"},
	{"sv", "Swedish"},
	{"zh", "Mandarin Chinese"},
	{"hi", "Hindi"},
	{"bn", "Bengali"},
	{"ur", "Urdu"},
	{"id", "Indonesian"},
	{"ja", "Japanese"},
	{"mr", "Marathi"},
	{"te", "Telugu"},
	{"tr", "Turkish"},
	{"ta", "Tamil"},
	{"yue", "Cantonese"},
	{"ko", "Korean"},
	{"vi", "Vietnamese"},
	{"th", "Thai"},
	{"gu", "Gujarati"},
	{"fa", "Persian (Farsi)"},
	{"ms", "Malay"},
	{"kn", "Kannada"},
	{"or", "Odia"},
	{"pa", "Punjabi"},
	{"my", "Burmese"},
	{"uz", "Uzbek"},
	{"si", "Sinhala"},
	{"ml", "Malayalam"},
	{"ar", "Arabic"},
	{"sw", "Swahili"},
	{"ha", "Hausa"},
	{"am", "Amharic"},
	{"zu", "Zulu"},
}

var languageNames = lo.SliceToMap(SupportedLanguages, func(l Language) (string, string) {
	return l.Code, l.Name
})

// IsSupportedLanguage reports whether code is one of SupportedLanguages.
func IsSupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// SafeLanguage returns code when supported and DefaultLanguage otherwise.
func SafeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if IsSupportedLanguage(code) {
		return code
	}
	return DefaultLanguage
}

// LanguageName returns the English name of code, falling back to the default language's.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return languageNames[DefaultLanguage]
}

// ValidateLanguage returns the normalized code or ErrUnsupportedLanguage.
func ValidateLanguage(code string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if normalized == "" {
		return DefaultLanguage, nil
	}
	if !IsSupportedLanguage(normalized) {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedLanguage, code,
			strings.Join(lo.Map(SupportedLanguages, func(l Language, _ int) string { return l.Code }), ", "))
	}
	return normalized, nil
}
