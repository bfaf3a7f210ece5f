package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
		{"collapses runs", "Hello \n\n  world", "Hello world"},
		{"trims", "  padded  ", "padded"},
		{"non-breaking space", "a\u00a0 b", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no entities", "plain text", "plain text"},
		{"decimal", "it&#39;s", "it's"},
		{"hex", "&#x41;&#x62;", "Ab"},
		{"named", "&lt;b&gt; &quot;x&quot; &apos;y&apos; a &amp; b", `<b> "x" 'y' a & b`},
		{"amp is not decoded twice", "&amp;lt;b&amp;gt;", "&lt;b&gt;"},
		{"unknown entity kept", "&nbsp;", "&nbsp;"},
		{"out of range code point kept", "&#x110000;", "&#x110000;"},
		{"cyrillic passthrough", "привет &amp; пока", "привет & пока"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeEntities(tt.in))
		})
	}
}
