package transcript

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// NormalizeText collapses every whitespace run to a single space and trims the result.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// entityRE matches the entities caption bodies are known to carry. Alternation order
// is the decoding priority; a single pass means decoded output is never rescanned.
var entityRE = regexp.MustCompile(`&(#[0-9]+|#x[0-9a-fA-F]+|amp|lt|gt|quot|apos);`)

var namedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": `"`,
	"apos": "'",
}

// DecodeEntities decodes decimal and hex numeric references plus the five XML named
// entities. "&amp;lt;" decodes to the literal text "&lt;".
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityRE.ReplaceAllStringFunc(s, func(match string) string {
		name := match[1 : len(match)-1]
		if decoded, ok := namedEntities[name]; ok {
			return decoded
		}

		var (
			code int64
			err  error
		)
		if strings.HasPrefix(name, "#x") {
			code, err = strconv.ParseInt(name[2:], 16, 32)
		} else {
			code, err = strconv.ParseInt(name[1:], 10, 32)
		}
		if err != nil || !utf8.ValidRune(rune(code)) {
			return match
		}
		return string(rune(code))
	})
}
