package internal

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache[TranscriptKey, string]()
	key := TranscriptKey{VideoID: "dQw4w9WgXcQ", Language: "en"}

	assert.True(t, c.Get(key).IsAbsent())

	require.NoError(t, c.Set(key, "hello"))
	assert.Equal(t, "hello", c.Get(key).MustGet())
	assert.True(t, c.Get(TranscriptKey{VideoID: "dQw4w9WgXcQ", Language: "ru"}).IsAbsent())
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "dQw4w9WgXcQ::en", TranscriptKey{VideoID: "dQw4w9WgXcQ", Language: "en"}.String())
	assert.Equal(t, "dQw4w9WgXcQ::critical::ru", AnalysisKey{VideoID: "dQw4w9WgXcQ", Mode: ModeCritical, Language: "ru"}.String())
}

func TestFileCachePersists(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/cache/transcripts.json"

	c := NewFileCache[TranscriptKey, string](fs, path, time.Hour)
	en := TranscriptKey{VideoID: "dQw4w9WgXcQ", Language: "en"}
	ru := TranscriptKey{VideoID: "dQw4w9WgXcQ", Language: "ru"}

	assert.True(t, c.Get(en).IsAbsent(), "missing file is a miss")

	require.NoError(t, c.Set(en, "english"))
	require.NoError(t, c.Set(ru, "russian"))

	reopened := NewFileCache[TranscriptKey, string](fs, path, time.Hour)
	assert.Equal(t, "english", reopened.Get(en).MustGet())
	assert.Equal(t, "russian", reopened.Get(ru).MustGet())
}

func TestFileCacheExpires(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := NewFileCache[AnalysisKey, string](fs, "/cache/analyses.json", time.Nanosecond)
	key := AnalysisKey{VideoID: "dQw4w9WgXcQ", Mode: ModeSummary, Language: "en"}

	require.NoError(t, c.Set(key, "summary"))
	time.Sleep(5 * time.Millisecond)

	assert.True(t, c.Get(key).IsAbsent())
}
