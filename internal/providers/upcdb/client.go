// Package upcdb is the client for the free UPC database. It never
// costs anything, so the orchestrator always prefers it for retail
// barcodes and treats every failure as a simple miss.
package upcdb

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/scanbase/scanbase/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrNotFound covers misses, rate limits, timeouts and malformed
// responses alike. The free path never escalates to the paid chain.
var ErrNotFound = errors.New("upc not found")

// Draft is a best-effort product sketch from the free database.
type Draft struct {
	UPC         string
	ASIN        string
	Title       string
	Brand       string
	Description string
	Category    string
	Price       float64
	Images      []string
	Raw         json.RawMessage
}

// Resolver looks up retail barcodes for free.
type Resolver interface {
	Lookup(ctx context.Context, upc string) (*Draft, error)
}

var Module = fx.Module("providers.upcdb",
	fx.Provide(NewClient),
)

type ClientParam struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

type Client struct {
	http    *http.Client
	baseURL string
	log     *zap.Logger
}

func NewClient(p ClientParam) Resolver {
	return &Client{
		http:    &http.Client{Timeout: p.Config.UPCDB.Timeout},
		baseURL: p.Config.UPCDB.BaseURL,
		log:     p.Log.Named("providers.upcdb"),
	}
}

type lookupResponse struct {
	Code  string `json:"code"`
	Items []struct {
		Title               string   `json:"title"`
		Brand               string   `json:"brand"`
		Description         string   `json:"description"`
		Category            string   `json:"category"`
		ASIN                string   `json:"asin"`
		Images              []string `json:"images"`
		LowestRecordedPrice float64  `json:"lowest_recorded_price"`
		Offers              []struct {
			Merchant string  `json:"merchant"`
			Price    float64 `json:"price"`
			Link     string  `json:"link"`
		} `json:"offers"`
	} `json:"items"`
}

var amazonASINRe = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)

func (c *Client) Lookup(ctx context.Context, upc string) (*Draft, error) {
	endpoint := c.baseURL + "/lookup?upc=" + url.QueryEscape(upc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ErrNotFound
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("upcdb.request_failed", zap.String("upc", upc), zap.Error(err))
		return nil, ErrNotFound
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		c.log.Debug("upcdb.bad_response", zap.String("upc", upc), zap.Int("status", resp.StatusCode))
		return nil, ErrNotFound
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.Debug("upcdb.decode_failed", zap.String("upc", upc), zap.Error(err))
		return nil, ErrNotFound
	}
	if parsed.Code != "OK" || len(parsed.Items) == 0 {
		return nil, ErrNotFound
	}

	item := parsed.Items[0]
	draft := &Draft{
		UPC:         upc,
		ASIN:        item.ASIN,
		Title:       item.Title,
		Brand:       item.Brand,
		Description: item.Description,
		Category:    item.Category,
		Images:      item.Images,
		Raw:         body,
	}

	draft.Price = item.LowestRecordedPrice
	for _, offer := range item.Offers {
		isAmazon := strings.Contains(strings.ToLower(offer.Merchant), "amazon")
		if draft.Price <= 0 && isAmazon && offer.Price > 0 {
			draft.Price = offer.Price
		}
		if draft.ASIN == "" && isAmazon {
			if m := amazonASINRe.FindStringSubmatch(offer.Link); m != nil {
				draft.ASIN = m[1]
			}
		}
	}

	if draft.Title == "" {
		return nil, ErrNotFound
	}
	return draft, nil
}
