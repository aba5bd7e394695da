package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/sachalieges/brickdeals/internal/models"
	"github.com/sachalieges/brickdeals/internal/session"
	"github.com/sachalieges/brickdeals/internal/util"
)

const vintedUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// VintedAdapter queries the vinted catalog API for second-hand listings of a
// set. The API refuses anonymous calls; every scrape acquires a fresh
// access_token_web cookie through the session provider first.
type VintedAdapter struct {
	provider    session.Provider
	client      *http.Client
	baseURL     string
	perPage     int
	defaultTerm string
}

func NewVintedAdapter(provider session.Provider, baseURL, defaultTerm string, perPage int, timeout time.Duration) (*VintedAdapter, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &VintedAdapter{
		provider:    provider,
		client:      &http.Client{Timeout: timeout, Jar: jar},
		baseURL:     baseURL,
		perPage:     perPage,
		defaultTerm: defaultTerm,
	}, nil
}

func (v *VintedAdapter) Source() string {
	return "vinted"
}

type vintedItem struct {
	ID           json.Number `json:"id"`
	Title        string      `json:"title"`
	PriceNumeric json.Number `json:"price_numeric"`
	City         string      `json:"city"`
	Status       string      `json:"status"`
	Favourites   int         `json:"favourite_count"`
	Photo        struct {
		URL            string `json:"url"`
		HighResolution struct {
			Timestamp int64 `json:"timestamp"`
		} `json:"high_resolution"`
	} `json:"photo"`
}

type vintedCatalogResponse struct {
	Items []vintedItem `json:"items"`
}

// Scrape acquires a session credential, then fetches one catalog page for the
// search term. Credential failures are not retried; a browser run that found
// no cookie will not find one two seconds later.
func (v *VintedAdapter) Scrape(ctx context.Context, query string) ([]models.RawRecord, error) {
	term := SearchTerm(query, v.defaultTerm)

	cred, err := v.provider.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire vinted session: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v2/catalog/items?page=1&per_page=%d&search_text=%s",
		v.baseURL, v.perPage, url.QueryEscape(term))

	var payload vintedCatalogResponse
	err = util.RetryWithBackoff(ctx, 2, time.Second, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying vinted catalog fetch", "attempt", attempt, "term", term)
		}
		return v.fetchCatalog(ctx, endpoint, cred.Token, &payload)
	})
	if err != nil {
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(payload.Items))
	for _, item := range payload.Items {
		id := item.ID.String()
		if id == "" {
			continue
		}

		rec := models.RawRecord{
			Kind:       models.KindSale,
			Source:     v.Source(),
			ExternalID: id,
			SetID:      term,
			Title:      item.Title,
			Link:       fmt.Sprintf("%s/items/%s", v.baseURL, id),
			Photo:      item.Photo.URL,
			Location:   item.City,
			Status:     item.Status,
			Price:      item.PriceNumeric.String(),
			Comments:   fmt.Sprintf("%d", item.Favourites),
		}
		if ts := item.Photo.HighResolution.Timestamp; ts > 0 {
			rec.Published = time.Unix(ts, 0).Format(models.SalePublishedLayout)
			rec.PublishedUnix = ts
		}
		records = append(records, rec)
	}

	slog.Info("Scraped vinted catalog", "term", term, "items", len(records))
	return records, nil
}

func (v *VintedAdapter) fetchCatalog(ctx context.Context, endpoint, token string, out *vintedCatalogResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("User-Agent", vintedUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", "access_token_web="+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch vinted catalog: %w: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vinted catalog returned status %d: %w", resp.StatusCode, models.ErrUpstreamUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode vinted catalog: %w: %v", models.ErrMalformedResponse, err)
	}
	return nil
}
