package locale

import (
	"errors"
	"io/fs"
	"math/rand"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

func quiet() *logger.Logger { return logger.New(logger.LevelOff, nil) }

func layers(fss ...fstest.MapFS) []fs.FS {
	out := make([]fs.FS, len(fss))
	for i, f := range fss {
		out[i] = f
	}
	return out
}

func TestNamedValuesParsing(t *testing.T) {
	fsys := fstest.MapFS{
		"xx/animal.alias.value": {Data: []byte("# comment\n\nKitty , cat\ncat,cat\nbroken line\nfish,cod, chips\n")},
	}
	b, err := Load("xx", quiet(), layers(fsys))
	require.NoError(t, err)

	got := b.NamedValues("animal.alias")
	assert.Equal(t, map[string]string{
		"kitty": "cat",
		"cat":   "cat",
		"fish":  "cod, chips",
	}, got)

	// Copies: callers cannot corrupt the bundle.
	got["kitty"] = "dog"
	assert.Equal(t, "cat", b.NamedValues("animal.alias")["kitty"])

	assert.Empty(t, b.NamedValues("animal.missing"))
}

func TestDialogRendering(t *testing.T) {
	fsys := fstest.MapFS{
		"xx/animal.says.dialog":    {Data: []byte("The {animal} says {sound}.\n")},
		"xx/old.style.dialog":      {Data: []byte("A {{animal}} and a {animal} and {unknown}.\n")},
		"xx/unknown.animal.dialog": {Data: []byte("one {animal}\ntwo {animal}\n")},
	}
	b, err := Load("xx", quiet(), layers(fsys), WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	assert.Equal(t, "The feline says meow.",
		b.Dialog("animal.says", map[string]string{"animal": "feline", "sound": "meow"}))
	assert.Equal(t, "A cat and a cat and {unknown}.",
		b.Dialog("old.style", map[string]string{"animal": "cat"}))
	assert.Equal(t, "no such dialog", b.Dialog("no.such.dialog", nil))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[b.Dialog("unknown.animal", map[string]string{"animal": "dragon"})] = true
	}
	assert.Equal(t, map[string]bool{"one dragon": true, "two dragon": true}, seen)
}

func TestLayersOverride(t *testing.T) {
	base := fstest.MapFS{
		"xx/animal.sound.value": {Data: []byte("cat,cat\ndog,dog\n")},
		"xx/help.dialog":        {Data: []byte("base help\n")},
	}
	override := fstest.MapFS{
		"xx/animal.sound.value": {Data: []byte("cat,cat_snd\n")},
		"yy/help.dialog":        {Data: []byte("other language\n")},
	}

	b, err := Load("xx", quiet(), layers(base, override))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"cat": "cat_snd"}, b.NamedValues("animal.sound"))
	assert.Equal(t, "base help", b.Dialog("help", nil))
}

func TestLoadMissingLang(t *testing.T) {
	_, err := Load("zz", quiet(), layers(fstest.MapFS{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestEmbeddedDefaults(t *testing.T) {
	b, err := LoadDefault(DefaultLang, nil, quiet())
	require.NoError(t, err)

	alias := b.NamedValues("animal.alias")
	require.Equal(t, "cat", alias["kitty"])

	// Every alias target resolves to both a phrase and a sound code.
	imitate := b.NamedValues("animal.imitate")
	sounds := b.NamedValues("animal.sound")
	for spoken, canonical := range alias {
		assert.Contains(t, imitate, canonical, "imitate entry for %s (%s)", canonical, spoken)
		assert.Contains(t, sounds, canonical, "sound entry for %s (%s)", canonical, spoken)
	}

	names, intents := b.Intents()
	assert.Equal(t, []string{"help.intent", "imitate.animal.intent", "quit.intent", "what.does.it.say.intent"}, names)
	for _, name := range names {
		_, ok := domain.IntentFromFile(name)
		assert.True(t, ok, "intent file %s is not registered", name)
		assert.NotEmpty(t, intents[name])
	}
}

func TestDialogLines(t *testing.T) {
	fsys := fstest.MapFS{
		"xx/unknown.animal.dialog": {Data: []byte("one {animal}\ntwo {animal}\n")},
	}
	b, err := Load("xx", quiet(), layers(fsys))
	require.NoError(t, err)

	assert.Equal(t, []string{"one owl", "two owl"},
		b.DialogLines("unknown.animal", map[string]string{"animal": "owl"}))
	assert.Nil(t, b.DialogLines("no.such.dialog", nil))
}

// Animal names are substituted as-is, so the built-in lines must not put
// an indefinite article in front of them ("a owl", "a elephant").
func TestEmbeddedDialogsAvoidArticles(t *testing.T) {
	b, err := LoadDefault(DefaultLang, nil, quiet())
	require.NoError(t, err)

	for _, name := range []string{"animal.says", "animal.sounds.like", "unknown.animal"} {
		for _, animal := range []string{"owl", "elephant", "cow"} {
			lines := b.DialogLines(name, map[string]string{"animal": animal, "sound": "hoot"})
			require.NotEmpty(t, lines, name)
			for _, line := range lines {
				assert.NotRegexp(t, `(?i)\ban? `+animal+`\b`, line, "%s: %q", name, line)
			}
		}
	}
}
