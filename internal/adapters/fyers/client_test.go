package fyers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optiflow/internal/adapters/config"
	"optiflow/internal/domain/chain"
	"optiflow/pkg/errors"
)

func writeToken(t *testing.T, token string) *TokenStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.json")
	data := `{"client_id":"TEST-100","secret_key":"sk","access_token":"` + token + `"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return NewTokenStore(path)
}

func newTestClient(t *testing.T, baseURL string, tokens *TokenStore) *Client {
	t.Helper()
	return NewClient(config.FyersConfig{
		BaseURL:           baseURL,
		StrikeCount:       100,
		RequestTimeout:    2 * time.Second,
		RequestsPerSecond: 1000,
	}, tokens)
}

func TestTokenStore(t *testing.T) {
	// Missing file is a zero token, not an error
	store := NewTokenStore(filepath.Join(t.TempDir(), "absent.json"))
	token, err := store.Load()
	require.NoError(t, err)
	assert.False(t, token.Valid())

	ok, err := store.HasValidToken()
	require.NoError(t, err)
	assert.False(t, ok)

	store = writeToken(t, "abc")
	ok, err = store.HasValidToken()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFetchQuotes(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Contains(t, r.URL.RawQuery, "symbols=")
		_, _ = w.Write([]byte(`{"s":"ok","d":[
			{"n":"NSE:NIFTY50-INDEX","v":{"lp":24812.5,"ch":50.2,"chp":0.2}}
		]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeToken(t, "abc"))
	quotes, err := client.FetchQuotes(context.Background(), []string{"NSE:NIFTY50-INDEX"})
	require.NoError(t, err)

	assert.Equal(t, "TEST-100:abc", gotAuth)
	require.Contains(t, quotes, "NSE:NIFTY50-INDEX")
	assert.Equal(t, 24812.5, quotes["NSE:NIFTY50-INDEX"].LastPrice)
	assert.Equal(t, 50.2, quotes["NSE:NIFTY50-INDEX"].Change)
}

func TestFetchChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "strikecount=100")
		_, _ = w.Write([]byte(`{"s":"ok","data":{"optionsChain":[
			{"strike_price":24800,"option_type":"CE","ltp":150.5,"ltpch":5.2,"oi":1000,"oich":100,"volume":5000,"iv":12.5,"delta":0.52,"theta":-4.1},
			{"strike_price":24800,"option_type":"PE","ltp":140.0,"ltpch":-3.1,"oi":900,"oich":-50,"volume":4200,"iv":13.1,"delta":-0.48,"theta":-3.9}
		]}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeToken(t, "abc"))
	legs, err := client.FetchChain(context.Background(), "NSE:NIFTY2620324800CE")
	require.NoError(t, err)
	require.Len(t, legs, 2)

	assert.Equal(t, chain.SideCall, legs[0].Side)
	assert.Equal(t, 24800, legs[0].Strike)
	assert.Equal(t, int64(100), legs[0].OIChange)
	assert.Equal(t, chain.SidePut, legs[1].Side)
	assert.Equal(t, int64(-50), legs[1].OIChange)
}

func TestFetchChain_EmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"ok","data":{"optionsChain":[]}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeToken(t, "abc"))
	legs, err := client.FetchChain(context.Background(), "NSE:NIFTY2620324800CE")
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestGet_NoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a token")
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeToken(t, ""))
	_, err := client.FetchQuotes(context.Background(), []string{"NSE:NIFTY50-INDEX"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoAccessToken))
}

func TestGet_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeToken(t, "abc"))
	_, err := client.FetchQuotes(context.Background(), []string{"NSE:NIFTY50-INDEX"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRateLimitExceeded))
}

func TestGet_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeToken(t, "abc"))
	_, err := client.FetchChain(context.Background(), "NSE:NIFTY2620324800CE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProviderUnavailable))
}
