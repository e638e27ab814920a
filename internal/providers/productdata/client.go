// Package productdata is the client for the paid per-ASIN product
// detail API used to enrich cache entries.
package productdata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/scanbase/scanbase/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrNotFound is returned for any failure: the orchestrator treats a
// missing detail the same as a provider outage and moves on.
var ErrNotFound = errors.New("product detail not found")

// Detail is the normalized enrichment result. Raw holds the entire
// provider response, everything paid for is kept.
type Detail struct {
	ASIN        string
	Title       string
	Brand       string
	Description string
	Category    string
	Price       float64
	Currency    string
	Images      []string
	Videos      []string
	Rating      float64
	ReviewCount int
	Raw         json.RawMessage
}

// Enricher fetches product details by ASIN.
type Enricher interface {
	Enrich(ctx context.Context, asin string) (*Detail, error)
}

var Module = fx.Module("providers.productdata",
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
	apiKey  string
	log     *zap.Logger
}

func NewClient(p ClientParam) Enricher {
	return &Client{
		http:    &http.Client{Timeout: p.Config.ProductData.Timeout},
		baseURL: p.Config.ProductData.BaseURL,
		apiKey:  p.Config.ProductData.APIKey,
		log:     p.Log.Named("providers.productdata"),
	}
}

type detailResponse struct {
	Product struct {
		ASIN        string `json:"asin"`
		Title       string `json:"title"`
		Brand       string `json:"brand"`
		Description string `json:"description"`
		Categories  []struct {
			Name string `json:"name"`
		} `json:"categories"`
		MainImage struct {
			Link string `json:"link"`
		} `json:"main_image"`
		Images []struct {
			Link string `json:"link"`
		} `json:"images"`
		Videos []struct {
			Link string `json:"link"`
		} `json:"videos"`
		Rating       float64 `json:"rating"`
		RatingsTotal int     `json:"ratings_total"`
		BuyboxWinner struct {
			Price struct {
				Value    float64 `json:"value"`
				Currency string  `json:"currency"`
			} `json:"price"`
		} `json:"buybox_winner"`
		Price struct {
			Value    float64 `json:"value"`
			Currency string  `json:"currency"`
		} `json:"price"`
	} `json:"product"`
}

func (c *Client) Enrich(ctx context.Context, asin string) (*Detail, error) {
	if c.baseURL == "" || asin == "" {
		return nil, ErrNotFound
	}

	endpoint := c.baseURL + "/request?api_key=" + url.QueryEscape(c.apiKey) +
		"&type=product&asin=" + url.QueryEscape(asin)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ErrNotFound
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("productdata.request_failed", zap.String("asin", asin), zap.Error(err))
		return nil, ErrNotFound
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		c.log.Warn("productdata.bad_response",
			zap.String("asin", asin),
			zap.Int("status", resp.StatusCode),
		)
		return nil, ErrNotFound
	}

	var parsed detailResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.Warn("productdata.decode_failed", zap.String("asin", asin), zap.Error(err))
		return nil, ErrNotFound
	}

	product := parsed.Product
	if product.Title == "" && product.ASIN == "" {
		return nil, ErrNotFound
	}

	detail := &Detail{
		ASIN:        product.ASIN,
		Title:       product.Title,
		Brand:       product.Brand,
		Description: product.Description,
		Rating:      product.Rating,
		ReviewCount: product.RatingsTotal,
		Raw:         body,
	}
	if detail.ASIN == "" {
		detail.ASIN = asin
	}
	if len(product.Categories) > 0 {
		detail.Category = product.Categories[0].Name
	}

	detail.Price = product.BuyboxWinner.Price.Value
	detail.Currency = product.BuyboxWinner.Price.Currency
	if detail.Price <= 0 {
		detail.Price = product.Price.Value
		detail.Currency = product.Price.Currency
	}

	seen := map[string]bool{}
	appendImage := func(link string) {
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		detail.Images = append(detail.Images, link)
	}
	appendImage(product.MainImage.Link)
	for _, img := range product.Images {
		appendImage(img.Link)
	}

	for _, video := range product.Videos {
		if video.Link != "" {
			detail.Videos = append(detail.Videos, video.Link)
		}
	}

	return detail, nil
}
