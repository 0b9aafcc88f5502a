package gpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

var quiet = logger.New(logger.LevelOff, nil)

func TestClientChat(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k3y", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k3y", quiet, WithModel("small"))
	reply, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, "small", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hi", got.Messages[0].Content)
}

func TestClientErrors(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusTooManyRequests)
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewClient(srv.URL, "k", quiet).Chat(context.Background(), nil)
			assert.Error(t, err)
		})
	}
}

type fakeChat struct {
	reply string
	err   error
	sent  []Message
}

func (f *fakeChat) Chat(_ context.Context, messages []Message) (string, error) {
	f.sent = messages
	return f.reply, f.err
}

func TestClassifierParse(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		want   domain.IntentType
		animal string
	}{
		{"what", `{"intent":"what_does_it_say","animal":"Cow"}`, domain.IntentWhatDoesItSay, "cow"},
		{"imitate fenced", "```json\n{\"intent\":\"imitate_animal\",\"animal\":\"dog\"}\n```", domain.IntentImitateAnimal, "dog"},
		{"help", `{"intent":"help","animal":""}`, domain.IntentHelp, ""},
		{"unknown intent", `{"intent":"dance"}`, domain.IntentUnknown, ""},
		{"garbage", `I think they want a cow`, domain.IntentUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeChat{reply: tt.reply}
			c := newClassifier(fc, []string{"cat", "cow", "dog"}, quiet)

			intent, err := c.Parse(context.Background(), "let's hear something")
			require.NoError(t, err)
			assert.Equal(t, tt.want, intent.Type)
			assert.Equal(t, "let's hear something", intent.Utterance)

			animal, ok := intent.Slot(domain.SlotAnimal)
			assert.Equal(t, tt.animal != "", ok)
			assert.Equal(t, tt.animal, animal)

			require.Len(t, fc.sent, 2)
			assert.Contains(t, fc.sent[0].Content, "cat, cow, dog")
		})
	}
}

func TestClassifierTransportError(t *testing.T) {
	c := newClassifier(&fakeChat{err: errors.New("offline")}, nil, quiet)
	_, err := c.Parse(context.Background(), "x")
	assert.Error(t, err)
}
