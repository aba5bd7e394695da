// Package normalize turns raw scrape output into validated canonical records.
// Deduplication is last-write-wins by external id: the later record replaces
// the earlier one in place, so input order decides both the winner and the
// final position.
package normalize

import (
	"log/slog"
	"time"

	"github.com/sachalieges/brickdeals/internal/models"
	"github.com/sachalieges/brickdeals/internal/util"
	"github.com/sachalieges/brickdeals/internal/validator"
)

// Result carries the normalized batch plus drop accounting per source.
type Result struct {
	Deals           []models.Deal
	Sales           []models.Sale
	Dropped         int
	DroppedBySource map[string]int
}

// Batch normalizes a merged slice of raw records. Records whose price cannot
// be parsed, or that fail validation, are dropped and counted rather than
// failing the batch.
func Batch(records []models.RawRecord, now time.Time) Result {
	res := Result{DroppedBySource: make(map[string]int)}

	dealIndex := make(map[string]int)
	saleIndex := make(map[string]int)

	for _, raw := range records {
		switch raw.Kind {
		case models.KindDeal:
			deal, ok := toDeal(raw, now)
			if !ok {
				res.drop(raw)
				continue
			}
			if i, seen := dealIndex[deal.ExternalID]; seen {
				res.Deals[i] = deal
				continue
			}
			dealIndex[deal.ExternalID] = len(res.Deals)
			res.Deals = append(res.Deals, deal)

		case models.KindSale:
			sale, ok := toSale(raw, now)
			if !ok {
				res.drop(raw)
				continue
			}
			if i, seen := saleIndex[sale.ExternalID]; seen {
				res.Sales[i] = sale
				continue
			}
			saleIndex[sale.ExternalID] = len(res.Sales)
			res.Sales = append(res.Sales, sale)

		default:
			slog.Warn("Dropping record of unknown kind", "kind", raw.Kind, "source", raw.Source)
			res.drop(raw)
		}
	}

	return res
}

func (r *Result) drop(raw models.RawRecord) {
	r.Dropped++
	r.DroppedBySource[raw.Source]++
}

func toDeal(raw models.RawRecord, now time.Time) (models.Deal, bool) {
	price, err := util.ParsePrice(raw.Price)
	if err != nil {
		slog.Debug("Dropping deal with unparseable price", "source", raw.Source, "id", raw.ExternalID, "price", raw.Price)
		return models.Deal{}, false
	}

	deal := models.Deal{
		ExternalID:  raw.ExternalID,
		SetID:       raw.SetID,
		Title:       raw.Title,
		Link:        raw.Link,
		Price:       price,
		Discount:    util.ParseOptionalInt(raw.Discount),
		Comments:    util.ParseOptionalInt(raw.Comments),
		Temperature: util.ParseOptionalInt(raw.Temperature),
		Published:   dealPublished(raw),
		Photo:       raw.Photo,
		Source:      raw.Source,
		IngestedAt:  now,
	}

	if err := validator.ValidateStruct(deal); err != nil {
		slog.Debug("Dropping invalid deal", "source", raw.Source, "id", raw.ExternalID, "error", err)
		return models.Deal{}, false
	}
	return deal, true
}

func toSale(raw models.RawRecord, now time.Time) (models.Sale, bool) {
	price, err := util.ParsePrice(raw.Price)
	if err != nil {
		slog.Debug("Dropping sale with unparseable price", "source", raw.Source, "id", raw.ExternalID, "price", raw.Price)
		return models.Sale{}, false
	}

	sale := models.Sale{
		SetID:      raw.SetID,
		ExternalID: raw.ExternalID,
		Title:      raw.Title,
		Price:      price,
		Location:   raw.Location,
		Comments:   util.SafeAtoi(raw.Comments),
		Photo:      raw.Photo,
		Link:       raw.Link,
		Status:     raw.Status,
		Published:  raw.Published,
		Source:     raw.Source,
		IngestedAt: now,
	}

	if err := validator.ValidateStruct(sale); err != nil {
		slog.Debug("Dropping invalid sale", "source", raw.Source, "id", raw.ExternalID, "error", err)
		return models.Sale{}, false
	}
	return sale, true
}

// dealPublished prefers an absolute unix timestamp from the source and falls
// back to parsing an RFC 3339 date string. Zero means unknown.
func dealPublished(raw models.RawRecord) int64 {
	if raw.PublishedUnix > 0 {
		return raw.PublishedUnix
	}
	if raw.Published != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Published); err == nil {
			return ts.Unix()
		}
	}
	return 0
}
