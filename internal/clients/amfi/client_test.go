package amfi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = "Scheme Code;ISIN Div Payout/ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date\n" +
	"100027;INF209K01BR9;-;Grindlays Super Saver Income Fund;10.0512;02-Jan-2024\n"

func TestFetchNavFeed(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	client := NewClient(WithFeedURL(server.URL + "/spages/NAVAll.txt"))

	feed, err := client.FetchNavFeed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleFeed, feed)
	assert.Equal(t, "/spages/NAVAll.txt", gotPath)
}

func TestFetchNavFeed_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(WithFeedURL(server.URL))

	_, err := client.FetchNavFeed(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestFetchNavFeed_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	client := NewClient(WithFeedURL(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchNavFeed(ctx)
	assert.Error(t, err)
}
