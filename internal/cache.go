package internal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/spf13/afero"
)

// Cache stores values by key. A miss, including an unreadable or expired backing
// store, is None.
type Cache[K comparable, V any] interface {
	Get(key K) mo.Option[V]
	Set(key K, value V) error
}

// TranscriptKey identifies a transcript acquired for a preferred language
type TranscriptKey struct {
	VideoID  string
	Language string
}

func (k TranscriptKey) String() string {
	return k.VideoID + "::" + k.Language
}

// AnalysisKey identifies a model response for a video, mode and response language
type AnalysisKey struct {
	VideoID  string
	Mode     AnalysisMode
	Language string
}

func (k AnalysisKey) String() string {
	return k.VideoID + "::" + string(k.Mode) + "::" + k.Language
}

// MemoryCache is a process-local Cache
type MemoryCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// NewMemoryCache creates an empty MemoryCache
func NewMemoryCache[K comparable, V any]() *MemoryCache[K, V] {
	return &MemoryCache[K, V]{items: make(map[K]V)}
}

func (c *MemoryCache[K, V]) Get(key K) mo.Option[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if v, ok := c.items[key]; ok {
		return mo.Some(v)
	}
	return mo.None[V]()
}

func (c *MemoryCache[K, V]) Set(key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = value
	return nil
}

// stringKey is a comparable key with a stable string form for JSON persistence
type stringKey interface {
	comparable
	fmt.Stringer
}

// cacheData is the JSON document a FileCache persists
type cacheData[V any] struct {
	Entries map[string]V `json:"entries"`
}

// FileCache persists entries as a single JSON document. The whole document expires
// once its lifetime has passed since the last write.
type FileCache[K stringKey, V any] struct {
	internal *gache.Cache[*cacheData[V]]
	mu       sync.RWMutex
}

// NewFileCache creates a FileCache stored at path on fs. A zero lifetime never expires.
func NewFileCache[K stringKey, V any](fs afero.Fs, path string, lifetime time.Duration) *FileCache[K, V] {
	return &FileCache[K, V]{
		internal: gache.New[*cacheData[V]](&gache.Options{
			Path:       path,
			Lifetime:   lifetime,
			FileSystem: &gacheFs{fs: fs},
		}),
	}
}

func (c *FileCache[K, V]) Get(key K) mo.Option[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[V]()
	}

	if v, ok := data.Entries[key.String()]; ok {
		return mo.Some(v)
	}
	return mo.None[V]()
}

func (c *FileCache[K, V]) Set(key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil || data.Entries == nil {
		data = &cacheData[V]{Entries: make(map[string]V)}
	}

	data.Entries[key.String()] = value
	if err := c.internal.Set(data); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// gacheFs adapts an afero filesystem to gache.FileSystem
type gacheFs struct {
	fs afero.Fs
}

func (g *gacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return g.fs.OpenFile(name, flag, perm)
}

func (g *gacheFs) MkdirAll(path string, perm os.FileMode) error {
	return g.fs.MkdirAll(path, perm)
}
