package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sachalieges/brickdeals/internal/models"
)

const (
	dealsCollection = "deals"
	salesCollection = "sales"

	// DefaultSaleLimit caps FindBySetID results when the caller passes no limit.
	DefaultSaleLimit = 100
)

// SortOrder selects one of the stored deal orderings.
type SortOrder string

const (
	SortBestDiscount  SortOrder = "best-discount"
	SortMostCommented SortOrder = "most-commented"
	SortPriceAsc      SortOrder = "price-asc"
	SortDateDesc      SortOrder = "date-desc"
)

// ParseSortOrder maps an API sort parameter to a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortBestDiscount, SortMostCommented, SortPriceAsc, SortDateDesc:
		return SortOrder(s), nil
	case "":
		return SortDateDesc, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

type Client struct {
	client *firestore.Client
}

func New(ctx context.Context, projectID string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ReplaceDeals atomically swaps the deals collection for the given batch.
func (c *Client) ReplaceDeals(ctx context.Context, deals []models.Deal) error {
	docs := make([]any, len(deals))
	for i, d := range deals {
		docs[i] = d
	}
	return c.replaceAll(ctx, dealsCollection, docs)
}

// ReplaceSales atomically swaps the sales collection for the given batch.
func (c *Client) ReplaceSales(ctx context.Context, sales []models.Sale) error {
	docs := make([]any, len(sales))
	for i, s := range sales {
		docs[i] = s
	}
	return c.replaceAll(ctx, salesCollection, docs)
}

// replaceAll deletes every document in the collection, then writes the new
// batch. Both phases go through one BulkWriter so partial failures surface
// before End returns.
func (c *Client) replaceAll(ctx context.Context, collection string, docs []any) error {
	collectionRef := c.client.Collection(collection)

	bw := c.client.BulkWriter(ctx)
	defer bw.End()

	refs := collectionRef.DocumentRefs(ctx)
	deleted := 0
	for {
		ref, err := refs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return storeErr("list documents in %s", collection, err)
		}
		if _, err := bw.Delete(ref); err != nil {
			return storeErr("queue delete in %s", collection, err)
		}
		deleted++
	}
	bw.Flush()

	for _, doc := range docs {
		if _, err := bw.Create(collectionRef.NewDoc(), doc); err != nil {
			return storeErr("queue write in %s", collection, err)
		}
	}
	bw.Flush()

	slog.Info("Replaced collection", "collection", collection, "deleted", deleted, "written", len(docs))
	return nil
}

// SortedDeals returns every stored deal in the requested order.
func (c *Client) SortedDeals(ctx context.Context, order SortOrder) ([]models.Deal, error) {
	query := c.client.Collection(dealsCollection).Query

	switch order {
	case SortBestDiscount:
		query = query.OrderBy("discount", firestore.Desc)
	case SortMostCommented:
		query = query.OrderBy("comments", firestore.Desc)
	case SortPriceAsc:
		query = query.OrderBy("price", firestore.Asc)
	case SortDateDesc:
		query = query.OrderBy("published", firestore.Desc)
	default:
		return nil, fmt.Errorf("unknown sort order %q", order)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var deals []models.Deal
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr("query %s", dealsCollection, err)
		}
		var deal models.Deal
		if err := doc.DataTo(&deal); err != nil {
			return nil, fmt.Errorf("unmarshal deal %s: %w", doc.Ref.ID, err)
		}
		deals = append(deals, deal)
	}
	return deals, nil
}

// FindBySetID returns sales for one set id in unspecified order; callers
// wanting an ordering must sort the result themselves. A non-positive limit
// falls back to DefaultSaleLimit.
func (c *Client) FindBySetID(ctx context.Context, setID string, limit int) ([]models.Sale, error) {
	if limit <= 0 {
		limit = DefaultSaleLimit
	}

	iter := c.client.Collection(salesCollection).
		Where("id", "==", setID).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var sales []models.Sale
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr("query %s", salesCollection, err)
		}
		var sale models.Sale
		if err := doc.DataTo(&sale); err != nil {
			return nil, fmt.Errorf("unmarshal sale %s: %w", doc.Ref.ID, err)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

// RecentSales returns sales published at or after the cutoff, newest first.
// The published field is stored as a DD/MM/YYYY HH:MM:SS string; documents
// whose field does not parse are excluded, not errors.
func (c *Client) RecentSales(ctx context.Context, cutoff time.Time) ([]models.Sale, error) {
	iter := c.client.Collection(salesCollection).Documents(ctx)
	defer iter.Stop()

	var all []models.Sale
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr("query %s", salesCollection, err)
		}
		var sale models.Sale
		if err := doc.DataTo(&sale); err != nil {
			return nil, fmt.Errorf("unmarshal sale %s: %w", doc.Ref.ID, err)
		}
		all = append(all, sale)
	}

	return filterRecentSales(all, cutoff), nil
}

// filterRecentSales keeps sales published at or after the cutoff, newest
// first. Unparseable published dates are excluded, not errors.
func filterRecentSales(sales []models.Sale, cutoff time.Time) []models.Sale {
	type dated struct {
		sale models.Sale
		at   time.Time
	}
	var matched []dated

	for _, sale := range sales {
		at, err := sale.PublishedTime()
		if err != nil {
			slog.Debug("Skipping sale with unparseable published date", "id", sale.ExternalID, "published", sale.Published)
			continue
		}
		if at.Before(cutoff) {
			continue
		}
		matched = append(matched, dated{sale: sale, at: at})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].at.After(matched[j].at)
	})

	out := make([]models.Sale, len(matched))
	for i, d := range matched {
		out[i] = d.sale
	}
	return out
}

func storeErr(format, collection string, err error) error {
	if status.Code(err) == codes.Unavailable || status.Code(err) == codes.DeadlineExceeded {
		return fmt.Errorf(format+": %w: %v", collection, models.ErrStoreUnavailable, err)
	}
	return fmt.Errorf(format+": %w", collection, err)
}
