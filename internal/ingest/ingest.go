// Package ingest orchestrates one end-to-end refresh: scrape every
// registered source, archive the raw output, normalize, and replace the
// stored collections.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sachalieges/brickdeals/internal/models"
	"github.com/sachalieges/brickdeals/internal/normalize"
	"github.com/sachalieges/brickdeals/internal/scraper"
)

// Store is the persistence surface the ingester needs.
type Store interface {
	ReplaceDeals(ctx context.Context, deals []models.Deal) error
	ReplaceSales(ctx context.Context, sales []models.Sale) error
}

// ArtifactWriter archives raw scrape output. Failures are logged, never fatal.
type ArtifactWriter interface {
	Write(source string, capturedAt time.Time, v any) (string, error)
}

// SetIDExtractor resolves the set number behind a deal title.
type SetIDExtractor interface {
	ExtractSetID(ctx context.Context, title string) (string, error)
}

// Report summarizes one ingestion run.
type Report struct {
	StartedAt       time.Time         `json:"startedAt"`
	Duration        time.Duration     `json:"duration"`
	RecordsBySource map[string]int    `json:"recordsBySource"`
	SourceErrors    map[string]string `json:"sourceErrors,omitempty"`
	Deals           int               `json:"deals"`
	Sales           int               `json:"sales"`
	Dropped         int               `json:"dropped"`
}

type Ingester struct {
	registry  *scraper.Registry
	store     Store
	artifacts ArtifactWriter
	extractor SetIDExtractor
}

func New(registry *scraper.Registry, store Store, artifacts ArtifactWriter, extractor SetIDExtractor) *Ingester {
	return &Ingester{
		registry:  registry,
		store:     store,
		artifacts: artifacts,
		extractor: extractor,
	}
}

var errAllSourcesFailed = errors.New("every source failed")

// Run scrapes all sources concurrently and persists the normalized result.
// One failing source only loses its own records; the run fails when every
// source fails or the store rejects the batch.
func (in *Ingester) Run(ctx context.Context, query string) (Report, error) {
	start := time.Now()
	report := Report{
		StartedAt:       start,
		RecordsBySource: make(map[string]int),
		SourceErrors:    make(map[string]string),
	}

	adapters := in.registry.All()
	if len(adapters) == 0 {
		return report, errors.New("no sources registered")
	}

	// Indexed results keep the merge in registration order, which pins the
	// winner of external-id collisions during deduplication.
	results := make([][]models.RawRecord, len(adapters))
	scrapeErrs := make([]error, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range adapters {
		g.Go(func() error {
			records, err := adapter.Scrape(gctx, query)
			if err != nil {
				slog.Error("Source scrape failed", "source", adapter.Source(), "error", err)
				scrapeErrs[i] = err
				return nil // keep the other sources running
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	failed := 0
	var merged []models.RawRecord
	for i, adapter := range adapters {
		source := adapter.Source()
		if scrapeErrs[i] != nil {
			report.SourceErrors[source] = scrapeErrs[i].Error()
			failed++
			continue
		}
		report.RecordsBySource[source] = len(results[i])
		merged = append(merged, results[i]...)

		if in.artifacts != nil && len(results[i]) > 0 {
			if path, err := in.artifacts.Write(source, start, results[i]); err != nil {
				slog.Warn("Failed to archive raw records", "source", source, "error", err)
			} else {
				slog.Debug("Archived raw records", "source", source, "path", path)
			}
		}
	}

	if failed == len(adapters) {
		report.Duration = time.Since(start)
		return report, errAllSourcesFailed
	}

	batch := normalize.Batch(merged, start)
	report.Deals = len(batch.Deals)
	report.Sales = len(batch.Sales)
	report.Dropped = batch.Dropped
	for source, n := range batch.DroppedBySource {
		slog.Warn("Dropped records during normalization", "source", source, "count", n)
	}

	in.enrichSetIDs(ctx, batch.Deals)

	// A source that produced nothing keeps yesterday's data; an empty refresh
	// must not wipe a collection.
	if len(batch.Deals) > 0 {
		if err := in.store.ReplaceDeals(ctx, batch.Deals); err != nil {
			report.Duration = time.Since(start)
			return report, fmt.Errorf("persist deals: %w", err)
		}
	}
	if len(batch.Sales) > 0 {
		if err := in.store.ReplaceSales(ctx, batch.Sales); err != nil {
			report.Duration = time.Since(start)
			return report, fmt.Errorf("persist sales: %w", err)
		}
	}

	report.Duration = time.Since(start)
	slog.Info("Ingestion run complete",
		"deals", report.Deals,
		"sales", report.Sales,
		"dropped", report.Dropped,
		"failedSources", failed,
		"duration", report.Duration)
	return report, nil
}

// enrichSetIDs fills the set number for deals that arrived without one.
// Extraction errors leave the field empty.
func (in *Ingester) enrichSetIDs(ctx context.Context, deals []models.Deal) {
	if in.extractor == nil {
		return
	}
	for i := range deals {
		if deals[i].SetID != "" {
			continue
		}
		setID, err := in.extractor.ExtractSetID(ctx, deals[i].Title)
		if err != nil {
			slog.Warn("Set id extraction failed", "deal", deals[i].ExternalID, "error", err)
			continue
		}
		deals[i].SetID = setID
	}
}
