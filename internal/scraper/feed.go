package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/sachalieges/brickdeals/internal/models"
)

var euroAmountRegex = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?)\s*€`)

// FeedAdapter reads the deals RSS feed. It fills the gap between listing
// scrapes: threads posted since the last page render still show up here.
type FeedAdapter struct {
	feedURL string
	timeout time.Duration
	parser  *gofeed.Parser
}

func NewFeedAdapter(feedURL string, timeout time.Duration) *FeedAdapter {
	return &FeedAdapter{
		feedURL: feedURL,
		timeout: timeout,
		parser:  gofeed.NewParser(),
	}
}

func (f *FeedAdapter) Source() string {
	return "dealabs-rss"
}

func (f *FeedAdapter) Scrape(ctx context.Context, query string) ([]models.RawRecord, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(f.feedURL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w: %v", f.feedURL, models.ErrUpstreamUnavailable, err)
	}

	records := make([]models.RawRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		externalID := item.GUID
		if externalID == "" {
			externalID = item.Link
		}
		if externalID == "" {
			continue
		}

		rec := models.RawRecord{
			Kind:       models.KindDeal,
			Source:     f.Source(),
			ExternalID: externalID,
			Title:      strings.TrimSpace(item.Title),
			Link:       item.Link,
			Price:      extractEuroAmount(item.Title, item.Description),
		}
		if item.PublishedParsed != nil {
			rec.Published = item.Published
			rec.PublishedUnix = item.PublishedParsed.Unix()
		}
		if item.Image != nil {
			rec.Photo = item.Image.URL
		}

		records = append(records, rec)
	}

	slog.Info("Scraped deals feed", "url", f.feedURL, "items", len(records))
	return records, nil
}

// extractEuroAmount finds the first euro amount in the item title, falling
// back to the text of the HTML description.
func extractEuroAmount(title, description string) string {
	if m := euroAmountRegex.FindStringSubmatch(title); m != nil {
		return m[1]
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return ""
	}
	if m := euroAmountRegex.FindStringSubmatch(doc.Text()); m != nil {
		return m[1]
	}
	return ""
}
