package feed

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

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchParsesItemsObject(t *testing.T) {
	srv := serveJSON(t, `{"items":[
		{"title":"ETH upgrade ships","source":"coindesk","url":"https://example.com/a","score":0.8,"body":"details"},
		{"title":"","source":"spam","score":0.9},
		{"title":"No score item","source":"blog"}
	]}`)

	client := NewClient(config.FeedConfig{URL: srv.URL, TimeoutSeconds: 5})
	items, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "ETH upgrade ships", items[0].Title)
	assert.Equal(t, "coindesk", items[0].Source)
	assert.InDelta(t, 0.8, items[0].Score, 1e-9)
	assert.Equal(t, planner.Fingerprint("coindesk", "ETH upgrade ships"), items[0].Fingerprint)
	assert.Zero(t, items[1].Score)
}

func TestFetchParsesBareArray(t *testing.T) {
	srv := serveJSON(t, `[{"title":"A","source":"s","score":0.5}]`)
	client := NewClient(config.FeedConfig{URL: srv.URL, TimeoutSeconds: 5})
	items, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFetchRejectsBadPayloads(t *testing.T) {
	for name, body := range map[string]string{
		"invalid json": `{{{`,
		"not a list":   `{"items": "nope"}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := serveJSON(t, body)
			client := NewClient(config.FeedConfig{URL: srv.URL, TimeoutSeconds: 5})
			_, err := client.Fetch(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFetchEmptyURLIsNoop(t *testing.T) {
	client := NewClient(config.FeedConfig{})
	items, err := client.Fetch(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, items)
}

func TestFetchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	client := NewClient(config.FeedConfig{URL: srv.URL, TimeoutSeconds: 5})
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
}
