// Package dealapi is the HTTP client for the hosted deals API. FetchAll walks
// the paged listing with a shared rate limiter; a mid-walk failure returns the
// pages gathered so far together with the error.
package dealapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/sachalieges/brickdeals/internal/models"
)

type Client struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	maxPages int
}

func New(baseURL string, timeout time.Duration, maxPages int) *Client {
	return &Client{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		maxPages: maxPages,
	}
}

type pageEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Result []models.Deal         `json:"result"`
		Meta   models.PaginationMeta `json:"meta"`
	} `json:"data"`
}

// The sales endpoint returns the result array directly under data, unlike
// the paged deals envelope which nests result and meta.
type salesEnvelope struct {
	Success bool          `json:"success"`
	Data    []models.Sale `json:"data"`
}

// FetchPage retrieves one page of deals.
func (c *Client) FetchPage(ctx context.Context, page, size int) ([]models.Deal, models.PaginationMeta, error) {
	endpoint := fmt.Sprintf("%s/deals?page=%d&size=%d", c.baseURL, page, size)

	var envelope pageEnvelope
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return nil, models.PaginationMeta{}, err
	}
	if !envelope.Success {
		return nil, models.PaginationMeta{}, fmt.Errorf("deals page %d: %w", page, models.ErrMalformedResponse)
	}
	return envelope.Data.Result, envelope.Data.Meta, nil
}

// FetchSales retrieves the sales recorded for one set id.
func (c *Client) FetchSales(ctx context.Context, setID string) ([]models.Sale, error) {
	endpoint := fmt.Sprintf("%s/sales?id=%s", c.baseURL, url.QueryEscape(setID))

	var envelope salesEnvelope
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("sales for set %s: %w", setID, models.ErrMalformedResponse)
	}
	return envelope.Data, nil
}

// FetchAll walks every page of the deals listing. The walk stops when the
// returned meta says the current page is the last one; an empty listing
// (pageCount 0) still costs exactly one call. On a page failure the deals
// gathered so far are returned alongside the error.
func (c *Client) FetchAll(ctx context.Context, pageSize int) ([]models.Deal, error) {
	var all []models.Deal

	for page := 1; ; page++ {
		if c.maxPages > 0 && page > c.maxPages {
			slog.Warn("Stopping paged fetch at page ceiling", "maxPages", c.maxPages, "collected", len(all))
			return all, nil
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return all, err
		}

		deals, meta, err := c.FetchPage(ctx, page, pageSize)
		if err != nil {
			return all, fmt.Errorf("page %d of paged fetch: %w", page, err)
		}
		all = append(all, deals...)

		if meta.PageCount == 0 || meta.CurrentPage >= meta.PageCount {
			break
		}
	}

	slog.Info("Fetched all deal pages", "deals", len(all))
	return all, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w: %v", endpoint, models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %w", endpoint, resp.StatusCode, models.ErrUpstreamUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w: %v", endpoint, models.ErrMalformedResponse, err)
	}
	return nil
}
