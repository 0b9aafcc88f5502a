package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hammamikhairi/animalsay/internal/logger"
)

// DefaultCacheTTL is how long synthesized audio stays in memory after its
// last use.
const DefaultCacheTTL = time.Hour

// AudioCache is a two-tier cache (memory, then filesystem) for synthesized
// audio. Keys are sha256(voice + ":" + text), so switching voices misses
// cleanly.
//
// Disk entries are always read when cacheDir is set; they are only written
// when diskWrite is true.
type AudioCache struct {
	mem       *gocache.Cache
	log       *logger.Logger
	voice     string
	ttl       time.Duration
	cacheDir  string
	diskWrite bool
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewAudioCache creates an audio cache. An empty cacheDir disables the
// disk tier. ttl <= 0 selects DefaultCacheTTL.
func NewAudioCache(voice, cacheDir string, diskWrite bool, ttl time.Duration, log *logger.Logger) *AudioCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &AudioCache{
		mem:       gocache.New(ttl, 2*ttl),
		log:       log,
		voice:     voice,
		ttl:       ttl,
		cacheDir:  cacheDir,
		diskWrite: diskWrite,
	}

	if cacheDir != "" && diskWrite {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			log.Error("cache: failed to create cache dir %s: %v", cacheDir, err)
		}
	}
	return c
}

// Get returns cached audio for text. A disk hit is promoted to memory.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.hashKey(text)

	if v, ok := c.mem.Get(key); ok {
		// Touch to extend the TTL of frequently spoken lines.
		c.mem.SetDefault(key, v)
		c.hits.Add(1)
		return v.([]byte), true
	}

	if c.cacheDir != "" {
		if data, err := os.ReadFile(c.diskPath(key)); err == nil {
			c.mem.SetDefault(key, data)
			c.hits.Add(1)
			c.log.Debug("cache hit (disk): %s", truncate(text, 40))
			return data, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Put stores audio for text in memory and, when enabled, on disk.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.hashKey(text)
	c.mem.SetDefault(key, audio)
	c.log.Debug("cache store: %s (%d bytes, %d entries)", truncate(text, 40), len(audio), c.mem.ItemCount())

	if c.cacheDir == "" || !c.diskWrite {
		return
	}
	if err := os.WriteFile(c.diskPath(key), audio, 0o644); err != nil {
		c.log.Error("cache: disk write failed for %s: %v", key[:12], err)
	}
}

// Len returns the number of in-memory entries.
func (c *AudioCache) Len() int { return c.mem.ItemCount() }

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *AudioCache) hashKey(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) diskPath(key string) string {
	return filepath.Join(c.cacheDir, key+".wav")
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
