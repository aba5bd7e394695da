package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/sachalieges/brickdeals/internal/models"
	"github.com/sachalieges/brickdeals/internal/util"
)

// DealabsAdapter scrapes the community deals listing page. Expired threads
// are skipped at the selector level so they never reach normalization.
type DealabsAdapter struct {
	baseURL   string
	selectors SelectorConfig
	timeout   time.Duration
}

func NewDealabsAdapter(baseURL string, selectors SelectorConfig, timeout time.Duration) *DealabsAdapter {
	return &DealabsAdapter{
		baseURL:   baseURL,
		selectors: selectors,
		timeout:   timeout,
	}
}

func (d *DealabsAdapter) Source() string {
	return "dealabs"
}

func (d *DealabsAdapter) Scrape(ctx context.Context, query string) ([]models.RawRecord, error) {
	target := d.targetURL(query)

	parsed, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", d.baseURL, err)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname(), "www."+parsed.Hostname()),
		colly.UserAgent(vintedUserAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(d.timeout)

	var records []models.RawRecord
	var scrapeErr error

	sel := d.selectors.DealList
	c.OnHTML(sel.Container.Item, func(e *colly.HTMLElement) {
		if ctx.Err() != nil {
			return
		}
		if sel.Container.IgnoreModifier != "" && e.DOM.Is(sel.Container.IgnoreModifier) {
			return
		}

		rec := models.RawRecord{
			Kind:        models.KindDeal,
			Source:      d.Source(),
			ExternalID:  util.CleanNumericString(e.Attr("id")),
			Title:       strings.TrimSpace(e.DOM.Find(sel.Elements.TitleLink).First().Text()),
			Link:        e.Request.AbsoluteURL(e.DOM.Find(sel.Elements.TitleLink).First().AttrOr("href", "")),
			Photo:       e.DOM.Find(sel.Elements.Image).First().AttrOr("src", ""),
			Price:       strings.TrimSpace(e.DOM.Find(sel.Elements.Price).First().Text()),
			Discount:    strings.TrimSpace(e.DOM.Find(sel.Elements.Discount).First().Text()),
			Temperature: strings.TrimSpace(e.DOM.Find(sel.Elements.Temperature).First().Text()),
			Comments:    strings.TrimSpace(e.DOM.Find(sel.Elements.Comments).First().Text()),
		}

		if datetime := e.DOM.Find(sel.Elements.Published).First().AttrOr("datetime", ""); datetime != "" {
			rec.Published = datetime
			if ts, err := time.Parse(time.RFC3339, datetime); err == nil {
				rec.PublishedUnix = ts.Unix()
			}
		}

		records = append(records, rec)
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("fetch %s (status %d): %w: %v",
			r.Request.URL, r.StatusCode, models.ErrUpstreamUnavailable, err)
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Visit(target); err != nil {
		return nil, fmt.Errorf("visit %s: %w: %v", target, models.ErrUpstreamUnavailable, err)
	}
	c.Wait()

	if scrapeErr != nil {
		return nil, scrapeErr
	}

	slog.Info("Scraped dealabs listing", "url", target, "deals", len(records))
	return records, nil
}

// targetURL accepts a full dealabs URL as the query; anything else scrapes
// the default group listing.
func (d *DealabsAdapter) targetURL(query string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed != "" {
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
			if strings.Contains(parsed.Hostname(), "dealabs") {
				return trimmed
			}
		}
	}
	return d.baseURL + "/groupe/lego"
}
