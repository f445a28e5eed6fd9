package generator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"vigil/internal/config"
	"vigil/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithoutBackendUsesDeterministicTemplate(t *testing.T) {
	g := New(config.GeneratorConfig{}, config.Voice{
		FallbackTemplates: []string{"Watching: %s", "Radar: %s"},
	})
	item := planner.Candidate{Fingerprint: "fp-1", Title: "ETH upgrade ships", URL: "https://example.com/a"}

	first, err := g.Generate(context.Background(), item)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "ETH upgrade ships")
	assert.Contains(t, first, "https://example.com/a")
}

func TestGenerateUsesChatBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Generated post."}}]}`))
	}))
	defer srv.Close()

	g := New(config.GeneratorConfig{APIURL: srv.URL, APIKey: "test-key", Model: "test", TimeoutSeconds: 5}, config.Voice{})
	text, err := g.Generate(context.Background(), planner.Candidate{Fingerprint: "fp", Title: "T"})
	require.NoError(t, err)
	assert.Equal(t, "Generated post.", text)
}

func TestGenerateFallsBackWhenBackendFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"nope"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	g := New(config.GeneratorConfig{APIURL: srv.URL, APIKey: "test-key", TimeoutSeconds: 5}, config.Voice{
		FallbackTemplates: []string{"Fallback: %s"},
	})
	text, err := g.Generate(context.Background(), planner.Candidate{Fingerprint: "fp", Title: "Headline"})
	require.NoError(t, err)
	assert.Equal(t, "Fallback: Headline", text)
}

func TestChatClientRetriesOn429(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := &ChatClient{BaseURL: srv.URL, Model: "test"}
	text, err := c.CallWithMessages(context.Background(), "", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 2, calls)
}
