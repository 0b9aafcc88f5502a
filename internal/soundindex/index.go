// Package soundindex groups pre-recorded sound files by sound code.
//
// Files follow the naming convention <code>-<number>.<ext>; everything before
// the final "-<number>" suffix is the code. The index is built once and never
// changes afterward.
package soundindex

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// DefaultExtensions are the file extensions scanned when none are given.
var DefaultExtensions = []string{"wav"}

// Option configures Build.
type Option func(*builder)

type builder struct {
	exts []string
}

// WithExtensions sets the file extensions (without the dot) that are
// considered sound files.
func WithExtensions(exts ...string) Option {
	return func(b *builder) {
		b.exts = exts
	}
}

// Index maps a sound code to the files recorded for it, in scan order.
type Index struct {
	dir    string
	sounds map[string][]string
}

// Build scans dir once and returns the populated index. An unreadable
// directory or a directory without matching files yields an empty index.
func Build(dir string, log *logger.Logger, opts ...Option) *Index {
	b := &builder{exts: DefaultExtensions}
	for _, opt := range opts {
		opt(b)
	}

	idx := &Index{dir: dir, sounds: make(map[string][]string)}
	pattern := filePattern(b.exts)

	log.Debug("sound index: scanning %s for %s", dir, pattern)

	// os.ReadDir sorts by name, which fixes insertion order.
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("sound index: cannot read %s: %v", dir, err)
		return idx
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(e.Name())
		if m == nil {
			log.Debug("sound index: %s not matching, skipped", e.Name())
			continue
		}
		path := filepath.Join(dir, e.Name())
		idx.sounds[m[1]] = append(idx.sounds[m[1]], path)
		log.Debug("sound index: %s -> %s", path, m[1])
	}

	log.Info("sound index: %d codes, %d files in %s", len(idx.sounds), idx.fileCount(), dir)
	return idx
}

// filePattern builds ^(.+)-[0-9]+\.(ext1|ext2)$. The greedy name group
// makes the last numeric suffix the one that is stripped.
func filePattern(exts []string) *regexp.Regexp {
	quoted := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(ext))
	}
	if len(quoted) == 0 {
		quoted = append(quoted, "wav")
	}
	return regexp.MustCompile(`^(.+)-[0-9]+\.(?:` + strings.Join(quoted, "|") + `)$`)
}

// Dir returns the scanned directory.
func (i *Index) Dir() string { return i.dir }

// Files returns a copy of the paths recorded for code.
func (i *Index) Files(code string) ([]string, bool) {
	files, ok := i.sounds[code]
	if !ok {
		return nil, false
	}
	out := make([]string, len(files))
	copy(out, files)
	return out, true
}

// Pick returns one of the files for code, chosen uniformly with rng.
// Returns an error wrapping domain.ErrNoSoundFiles if the code is unknown.
func (i *Index) Pick(code string, rng *rand.Rand) (string, error) {
	files := i.sounds[code]
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %q", domain.ErrNoSoundFiles, code)
	}
	return files[rng.Intn(len(files))], nil
}

// Codes returns every sound code in sorted order.
func (i *Index) Codes() []string {
	codes := make([]string, 0, len(i.sounds))
	for code := range i.sounds {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of sound codes.
func (i *Index) Len() int { return len(i.sounds) }

func (i *Index) fileCount() int {
	n := 0
	for _, files := range i.sounds {
		n += len(files)
	}
	return n
}
