package productdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scanbase/scanbase/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) Enricher {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientParam{
		Config: config.Config{
			ProductData: config.ProductDataConfig{
				BaseURL: srv.URL,
				APIKey:  "test-key",
				Timeout: 2 * time.Second,
			},
		},
		Log: zap.NewNop(),
	})
}

const sampleDetail = `{
	"product": {
		"asin": "B08N5WRWNW",
		"title": "Anker PowerCore 10000 Portable Charger",
		"brand": "Anker",
		"description": "Compact 10000mAh power bank.",
		"categories": [{"name": "Electronics"}, {"name": "Portable Power"}],
		"main_image": {"link": "https://img.example.com/main.jpg"},
		"images": [
			{"link": "https://img.example.com/main.jpg"},
			{"link": "https://img.example.com/side.jpg"}
		],
		"videos": [{"link": "https://video.example.com/demo.mp4"}],
		"rating": 4.7,
		"ratings_total": 52310,
		"buybox_winner": {"price": {"value": 21.99, "currency": "USD"}},
		"price": {"value": 24.99, "currency": "USD"}
	}
}`

func TestEnrich(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "B08N5WRWNW", r.URL.Query().Get("asin"))
		_, _ = w.Write([]byte(sampleDetail))
	}))

	detail, err := client.Enrich(context.Background(), "B08N5WRWNW")
	require.NoError(t, err)

	assert.Equal(t, "B08N5WRWNW", detail.ASIN)
	assert.Equal(t, "Anker PowerCore 10000 Portable Charger", detail.Title)
	assert.Equal(t, "Anker", detail.Brand)
	assert.Equal(t, "Electronics", detail.Category)
	assert.Equal(t, 21.99, detail.Price)
	assert.Equal(t, "USD", detail.Currency)
	assert.Equal(t, 4.7, detail.Rating)
	assert.Equal(t, 52310, detail.ReviewCount)
	// The main image appears once even though the gallery repeats it.
	assert.Equal(t, []string{
		"https://img.example.com/main.jpg",
		"https://img.example.com/side.jpg",
	}, detail.Images)
	assert.Equal(t, []string{"https://video.example.com/demo.mp4"}, detail.Videos)
	assert.JSONEq(t, sampleDetail, string(detail.Raw))
}

func TestEnrichPriceFallback(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"product": {
			"asin": "B08N5WRWNW",
			"title": "Anker PowerCore 10000 Portable Charger",
			"price": {"value": 24.99, "currency": "USD"}
		}}`))
	}))

	detail, err := client.Enrich(context.Background(), "B08N5WRWNW")
	require.NoError(t, err)
	assert.Equal(t, 24.99, detail.Price)
}

func TestEnrichNotFoundOnErrorStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))

	_, err := client.Enrich(context.Background(), "B08N5WRWNW")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnrichNotFoundOnMalformedBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))

	_, err := client.Enrich(context.Background(), "B08N5WRWNW")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnrichEmptyASIN(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := client.Enrich(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}
