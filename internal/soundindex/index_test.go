package soundindex

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// tb is the subset of testing.TB that *rapid.T also satisfies.
type tb interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

func touch(t tb, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func TestBuildGroupsByCode(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "fox-2.wav", "fox-1.wav", "owl.wav", "big-cat-3.wav", "cow-1.mp3", "notes.txt", "dog-x.wav")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "wolf-1.wav"), 0o755))

	idx := Build(dir, logger.New(logger.LevelOff, nil))

	files, ok := idx.Files("fox")
	require.True(t, ok)
	assert.Equal(t, []string{filepath.Join(dir, "fox-1.wav"), filepath.Join(dir, "fox-2.wav")}, files)

	big, ok := idx.Files("big-cat")
	require.True(t, ok)
	assert.Equal(t, []string{filepath.Join(dir, "big-cat-3.wav")}, big)

	for _, code := range []string{"owl", "cow", "dog", "wolf", "notes"} {
		_, ok := idx.Files(code)
		assert.False(t, ok, "code %q should not be indexed", code)
	}
	assert.Equal(t, []string{"big-cat", "fox"}, idx.Codes())
	assert.Equal(t, 2, idx.Len())
}

func TestBuildWithExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "cow-1.mp3", "cow-2.wav", "cow-3.ogg")

	idx := Build(dir, logger.New(logger.LevelOff, nil), WithExtensions(".mp3", "wav"))

	files, ok := idx.Files("cow")
	require.True(t, ok)
	assert.Len(t, files, 2)
}

func TestBuildUnreadableDirIsEmpty(t *testing.T) {
	idx := Build(filepath.Join(t.TempDir(), "missing"), logger.New(logger.LevelOff, nil))
	assert.Equal(t, 0, idx.Len())

	_, err := idx.Pick("fox", rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, domain.ErrNoSoundFiles))
}

func TestFilesReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "fox-1.wav")
	idx := Build(dir, logger.New(logger.LevelOff, nil))

	files, _ := idx.Files("fox")
	files[0] = "tampered"

	again, _ := idx.Files("fox")
	assert.Equal(t, filepath.Join(dir, "fox-1.wav"), again[0])
}

func TestPickSamplesEveryFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "cat_snd-1.wav", "cat_snd-2.wav", "cat_snd-3.wav")
	idx := Build(dir, logger.New(logger.LevelOff, nil))
	rng := rand.New(rand.NewSource(42))

	seen := map[string]int{}
	for i := 0; i < 600; i++ {
		p, err := idx.Pick("cat_snd", rng)
		require.NoError(t, err)
		seen[p]++
	}
	require.Len(t, seen, 3)
	for p, n := range seen {
		assert.Greater(t, n, 100, "file %s picked too rarely", p)
	}
}

func TestBuildProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dir, err := os.MkdirTemp("", "soundindex-*")
		if err != nil {
			rt.Fatalf("tempdir: %v", err)
		}
		defer os.RemoveAll(dir)

		codes := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,6}(-[a-z]{1,4})?`), 1, 5, rapid.ID[string]).Draw(rt, "codes")
		want := map[string]int{}
		for _, code := range codes {
			n := rapid.IntRange(1, 4).Draw(rt, "count-"+code)
			for k := 1; k <= n; k++ {
				touch(rt, dir, fmt.Sprintf("%s-%d.wav", code, k))
			}
			want[code] = n
		}

		idx := Build(dir, logger.New(logger.LevelOff, nil))
		if idx.Len() != len(want) {
			rt.Fatalf("got %d codes, want %d", idx.Len(), len(want))
		}
		for code, n := range want {
			files, ok := idx.Files(code)
			if !ok || len(files) != n {
				rt.Fatalf("code %q: got %v, want %d files", code, files, n)
			}
		}
	})
}
