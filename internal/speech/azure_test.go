package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/animalsay/internal/logger"
)

func TestAzureSynthesize(t *testing.T) {
	var gotBody, gotFormat, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		w.Write([]byte("RIFF-audio"))
	}))
	defer srv.Close()

	c := NewAzureClient("secret", "westeurope", logger.New(logger.LevelOff, nil),
		WithEndpoint(srv.URL),
		WithVoice("en-GB-SoniaNeural"),
		WithSampleRate(44100),
	)

	audio, err := c.Synthesize(context.Background(), `The <cat> says "meow" & purrs.`)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF-audio"), audio)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "riff-44100hz-16bit-mono-pcm", gotFormat)
	assert.Contains(t, gotBody, "xml:lang='en-GB'")
	assert.Contains(t, gotBody, "name='en-GB-SoniaNeural'")
	assert.Contains(t, gotBody, "The &lt;cat&gt; says &#34;meow&#34; &amp; purrs.")
}

func TestAzureErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewAzureClient("wrong", "x", logger.New(logger.LevelOff, nil), WithEndpoint(srv.URL))
	_, err := c.Synthesize(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"), err.Error())
}

func TestRiffFormat(t *testing.T) {
	tests := map[int]string{
		8000:  "riff-8khz-16bit-mono-pcm",
		16000: "riff-16khz-16bit-mono-pcm",
		22050: "riff-22050hz-16bit-mono-pcm",
		24000: "riff-24khz-16bit-mono-pcm",
		44100: "riff-44100hz-16bit-mono-pcm",
		96000: "riff-48khz-16bit-mono-pcm",
	}
	for rate, want := range tests {
		assert.Equal(t, want, riffFormat(rate), "rate %d", rate)
	}
}
