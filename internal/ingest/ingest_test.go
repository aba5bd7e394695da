package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sachalieges/brickdeals/internal/models"
	"github.com/sachalieges/brickdeals/internal/scraper"
)

type stubAdapter struct {
	source  string
	records []models.RawRecord
	err     error
}

func (s *stubAdapter) Source() string { return s.source }
func (s *stubAdapter) Scrape(ctx context.Context, query string) ([]models.RawRecord, error) {
	return s.records, s.err
}

type memoryStore struct {
	deals        []models.Deal
	sales        []models.Sale
	dealReplaces int
	saleReplaces int
	err          error
}

func (m *memoryStore) ReplaceDeals(ctx context.Context, deals []models.Deal) error {
	if m.err != nil {
		return m.err
	}
	m.deals = deals
	m.dealReplaces++
	return nil
}

func (m *memoryStore) ReplaceSales(ctx context.Context, sales []models.Sale) error {
	if m.err != nil {
		return m.err
	}
	m.sales = sales
	m.saleReplaces++
	return nil
}

type stubExtractor struct{}

func (stubExtractor) ExtractSetID(ctx context.Context, title string) (string, error) {
	if title == "LEGO Technic 42151 Bugatti Bolide" {
		return "42151", nil
	}
	return "", nil
}

func newRegistry(adapters ...scraper.Adapter) *scraper.Registry {
	r := scraper.NewRegistry()
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func TestRunPersistsNormalizedBatch(t *testing.T) {
	registry := newRegistry(
		&stubAdapter{source: "dealabs", records: []models.RawRecord{
			{Kind: models.KindDeal, Source: "dealabs", ExternalID: "d1", Title: "LEGO Technic 42151 Bugatti Bolide", Price: "47,99"},
		}},
		&stubAdapter{source: "vinted", records: []models.RawRecord{
			{Kind: models.KindSale, Source: "vinted", ExternalID: "s1", SetID: "42151", Title: "Bolide occasion", Price: "30.00"},
			{Kind: models.KindSale, Source: "vinted", ExternalID: "s2", SetID: "42151", Title: "Bolide neuf", Price: "45.00"},
			{Kind: models.KindSale, Source: "vinted", ExternalID: "s3", SetID: "42151", Title: "Bolide complet", Price: "40.00"},
		}},
	)

	store := &memoryStore{}
	in := New(registry, store, nil, stubExtractor{})

	report, err := in.Run(context.Background(), "42151")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Deals != 1 || report.Sales != 3 {
		t.Errorf("report counted %d deals %d sales, want 1 and 3", report.Deals, report.Sales)
	}
	if report.RecordsBySource["vinted"] != 3 {
		t.Errorf("records by source = %v", report.RecordsBySource)
	}
	if len(store.sales) != 3 {
		t.Fatalf("persisted %d sales, want 3", len(store.sales))
	}
	if len(store.deals) != 1 {
		t.Fatalf("persisted %d deals, want 1", len(store.deals))
	}
	if store.deals[0].SetID != "42151" {
		t.Errorf("deal set id = %q, want the extracted 42151", store.deals[0].SetID)
	}
}

func TestRunSurvivesOneFailedSource(t *testing.T) {
	registry := newRegistry(
		&stubAdapter{source: "dealabs", err: errors.New("blocked")},
		&stubAdapter{source: "vinted", records: []models.RawRecord{
			{Kind: models.KindSale, Source: "vinted", ExternalID: "s1", SetID: "42151", Title: "Ok", Price: "30.00"},
		}},
	)

	store := &memoryStore{}
	in := New(registry, store, nil, nil)

	report, err := in.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run should tolerate one failed source: %v", err)
	}
	if _, ok := report.SourceErrors["dealabs"]; !ok {
		t.Errorf("expected dealabs in source errors, got %v", report.SourceErrors)
	}
	if len(store.sales) != 1 {
		t.Errorf("persisted %d sales, want 1", len(store.sales))
	}
}

func TestRunFailsWhenAllSourcesFail(t *testing.T) {
	registry := newRegistry(
		&stubAdapter{source: "dealabs", err: errors.New("blocked")},
		&stubAdapter{source: "vinted", err: errors.New("no session")},
	)

	store := &memoryStore{}
	in := New(registry, store, nil, nil)

	_, err := in.Run(context.Background(), "")
	if !errors.Is(err, errAllSourcesFailed) {
		t.Fatalf("expected errAllSourcesFailed, got %v", err)
	}
	if store.dealReplaces != 0 || store.saleReplaces != 0 {
		t.Error("store must stay untouched when every source fails")
	}
}

func TestRunKeepsCollectionsOnEmptyBatch(t *testing.T) {
	registry := newRegistry(
		&stubAdapter{source: "dealabs", records: nil},
	)

	store := &memoryStore{}
	in := New(registry, store, nil, nil)

	if _, err := in.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.dealReplaces != 0 || store.saleReplaces != 0 {
		t.Error("empty batch must not replace stored collections")
	}
}

func TestRunStoreFailureIsFatal(t *testing.T) {
	registry := newRegistry(
		&stubAdapter{source: "vinted", records: []models.RawRecord{
			{Kind: models.KindSale, Source: "vinted", ExternalID: "s1", SetID: "42151", Title: "Ok", Price: "30.00"},
		}},
	)

	store := &memoryStore{err: models.ErrStoreUnavailable}
	in := New(registry, store, nil, nil)

	_, err := in.Run(context.Background(), "")
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}

func TestRunDeduplicatesAcrossSources(t *testing.T) {
	registry := newRegistry(
		&stubAdapter{source: "dealabs", records: []models.RawRecord{
			{Kind: models.KindDeal, Source: "dealabs", ExternalID: "shared", Title: "Listing copy", Price: "50,00"},
		}},
		&stubAdapter{source: "dealabs-rss", records: []models.RawRecord{
			{Kind: models.KindDeal, Source: "dealabs-rss", ExternalID: "shared", Title: "Feed copy", Price: "45,00"},
		}},
	)

	store := &memoryStore{}
	in := New(registry, store, nil, nil)

	report, err := in.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Deals != 1 {
		t.Fatalf("got %d deals, want the duplicate collapsed to 1", report.Deals)
	}
	// Later-registered source wins the collision.
	if store.deals[0].Source != "dealabs-rss" || store.deals[0].Price != 45.00 {
		t.Errorf("winning deal = %+v, want the feed copy", store.deals[0])
	}
}

func TestRunArtifactFailureIsNotFatal(t *testing.T) {
	registry := newRegistry(
		&stubAdapter{source: "vinted", records: []models.RawRecord{
			{Kind: models.KindSale, Source: "vinted", ExternalID: "s1", SetID: "42151", Title: "Ok", Price: "30.00"},
		}},
	)

	store := &memoryStore{}
	in := New(registry, store, failingArtifacts{}, nil)

	if _, err := in.Run(context.Background(), ""); err != nil {
		t.Fatalf("artifact failure must not fail the run: %v", err)
	}
	if len(store.sales) != 1 {
		t.Errorf("persisted %d sales, want 1", len(store.sales))
	}
}

type failingArtifacts struct{}

func (failingArtifacts) Write(source string, capturedAt time.Time, v any) (string, error) {
	return "", errors.New("disk full")
}
