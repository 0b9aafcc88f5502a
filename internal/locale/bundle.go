// Package locale loads the per-language tables, dialogs and intent
// templates the skill speaks with.
//
// A locale directory holds three kinds of file:
//
//	*.value   named values, one "key,value" pair per line
//	*.dialog  dialog templates, one alternative per line
//	*.intent  utterance templates, one alternative per line
//
// Lines starting with '#' and blank lines are ignored everywhere.
package locale

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// DefaultLang is the locale shipped with the binary.
const DefaultLang = "en-us"

//go:embed locale
var embedded embed.FS

// Compile-time interface check.
var _ domain.Localizer = (*Bundle)(nil)

// Option configures a Bundle.
type Option func(*Bundle)

// WithRand sets the source used to pick dialog alternatives.
func WithRand(r *rand.Rand) Option {
	return func(b *Bundle) {
		b.rng = r
	}
}

// Bundle holds every file of one locale, parsed.
type Bundle struct {
	lang    string
	values  map[string]map[string]string // "animal.alias" -> key -> value
	dialogs map[string][]string          // "animal.says" -> lines
	intents map[string][]string          // "quit.intent" -> lines
	log     *logger.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Embedded returns the built-in locale tree, rooted above the language
// directories.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "locale")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	return sub
}

// Load reads lang from each layer in order. A file in a later layer
// replaces the file of the same name from earlier layers. Returns an error
// wrapping domain.ErrNotFound if no layer has the language directory.
func Load(lang string, log *logger.Logger, layers []fs.FS, opts ...Option) (*Bundle, error) {
	b := &Bundle{
		lang:    lang,
		values:  make(map[string]map[string]string),
		dialogs: make(map[string][]string),
		intents: make(map[string][]string),
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(b)
	}

	found := false
	for i, layer := range layers {
		if layer == nil {
			continue
		}
		ok, err := b.readLayer(layer)
		if err != nil {
			return nil, fmt.Errorf("locale %s layer %d: %w", lang, i, err)
		}
		found = found || ok
	}
	if !found {
		return nil, fmt.Errorf("locale %q: %w", lang, domain.ErrNotFound)
	}

	log.Debug("locale %s: %d tables, %d dialogs, %d intent files",
		lang, len(b.values), len(b.dialogs), len(b.intents))
	return b, nil
}

// LoadDefault loads lang from the embedded tree, overlaid with overrides
// (typically os.DirFS of a user directory) when non-nil.
func LoadDefault(lang string, overrides fs.FS, log *logger.Logger, opts ...Option) (*Bundle, error) {
	return Load(lang, log, []fs.FS{Embedded(), overrides}, opts...)
}

func (b *Bundle) readLayer(fsys fs.FS) (bool, error) {
	entries, err := fs.ReadDir(fsys, b.lang)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := path.Ext(name)
		if ext != ".value" && ext != ".dialog" && ext != ".intent" {
			continue
		}

		lines, err := readLines(fsys, path.Join(b.lang, name))
		if err != nil {
			return true, fmt.Errorf("reading %s: %w", name, err)
		}

		switch ext {
		case ".value":
			b.values[strings.TrimSuffix(name, ext)] = b.parseValues(name, lines)
		case ".dialog":
			b.dialogs[strings.TrimSuffix(name, ext)] = lines
		case ".intent":
			b.intents[name] = lines
		}
	}
	return true, nil
}

// parseValues splits each line at its first comma. Keys are lower-cased so
// they line up with normalized utterances.
func (b *Bundle) parseValues(file string, lines []string) map[string]string {
	table := make(map[string]string, len(lines))
	for _, line := range lines {
		key, val, ok := strings.Cut(line, ",")
		if !ok {
			b.log.Debug("locale %s: %s: no comma in %q, skipped", b.lang, file, line)
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		table[key] = strings.TrimSpace(val)
	}
	return table
}

func readLines(fsys fs.FS, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

// Lang returns the loaded language code.
func (b *Bundle) Lang() string { return b.lang }

// NamedValues returns a copy of the table stored in <name>.value.
// A missing table is returned as an empty map.
func (b *Bundle) NamedValues(name string) map[string]string {
	src := b.values[name]
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Dialog renders a random alternative of <name>.dialog with data
// substituted for {key} and {{key}} placeholders. A missing dialog renders
// its own name with dots turned into spaces.
func (b *Bundle) Dialog(name string, data map[string]string) string {
	lines := b.dialogs[name]
	if len(lines) == 0 {
		b.log.Warn("locale %s: no dialog %q", b.lang, name)
		return strings.ReplaceAll(name, ".", " ")
	}

	b.mu.Lock()
	line := lines[b.rng.Intn(len(lines))]
	b.mu.Unlock()

	return render(line, data)
}

// DialogLines renders every alternative of <name>.dialog with data. A
// missing dialog yields nil.
func (b *Bundle) DialogLines(name string, data map[string]string) []string {
	lines := b.dialogs[name]
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = render(line, data)
	}
	return out
}

// Intents returns intent file name -> template lines, file names sorted.
func (b *Bundle) Intents() ([]string, map[string][]string) {
	names := make([]string, 0, len(b.intents))
	out := make(map[string][]string, len(b.intents))
	for name, lines := range b.intents {
		names = append(names, name)
		out[name] = append([]string(nil), lines...)
	}
	sort.Strings(names)
	return names, out
}
