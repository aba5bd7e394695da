package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sachalieges/brickdeals/internal/models"
	"github.com/sachalieges/brickdeals/internal/session"
)

type stubProvider struct {
	cred session.Credential
	err  error
}

func (s *stubProvider) Acquire(ctx context.Context) (session.Credential, error) {
	return s.cred, s.err
}

func TestVintedAdapterScrape(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		if r.URL.Path != "/api/v2/catalog/items" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("search_text") != "42151" {
			t.Errorf("unexpected search_text %q", r.URL.Query().Get("search_text"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"id": 4567890,
					"title": "LEGO Technic 42151 neuf",
					"price_numeric": "54.90",
					"city": "Lyon",
					"status": "Neuf avec étiquette",
					"favourite_count": 3,
					"photo": {
						"url": "https://images.example/4567890.jpg",
						"high_resolution": {"timestamp": 1700000000}
					}
				}
			]
		}`))
	}))
	defer server.Close()

	provider := &stubProvider{cred: session.Credential{Token: "tok-abc", AcquiredAt: time.Now()}}
	adapter, err := NewVintedAdapter(provider, server.URL, "42151", 96, 5*time.Second)
	if err != nil {
		t.Fatalf("NewVintedAdapter: %v", err)
	}

	records, err := adapter.Scrape(context.Background(), "")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if gotCookie != "access_token_web=tok-abc" {
		t.Errorf("cookie header = %q, want access_token_web=tok-abc", gotCookie)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.Kind != models.KindSale {
		t.Errorf("kind = %q, want %q", rec.Kind, models.KindSale)
	}
	if rec.ExternalID != "4567890" {
		t.Errorf("external id = %q, want 4567890", rec.ExternalID)
	}
	if rec.SetID != "42151" {
		t.Errorf("set id = %q, want 42151", rec.SetID)
	}
	if rec.Price != "54.90" {
		t.Errorf("price = %q, want 54.90", rec.Price)
	}
	if rec.Location != "Lyon" {
		t.Errorf("location = %q, want Lyon", rec.Location)
	}
	if rec.Link != server.URL+"/items/4567890" {
		t.Errorf("link = %q", rec.Link)
	}
	if rec.PublishedUnix != 1700000000 {
		t.Errorf("published unix = %d, want 1700000000", rec.PublishedUnix)
	}
	wantPublished := time.Unix(1700000000, 0).Format(models.SalePublishedLayout)
	if rec.Published != wantPublished {
		t.Errorf("published = %q, want %q", rec.Published, wantPublished)
	}
}

func TestVintedAdapterCredentialFailure(t *testing.T) {
	provider := &stubProvider{err: session.ErrCredentialNotFound}
	adapter, err := NewVintedAdapter(provider, "https://www.vinted.fr", "42151", 96, 5*time.Second)
	if err != nil {
		t.Fatalf("NewVintedAdapter: %v", err)
	}

	_, err = adapter.Scrape(context.Background(), "")
	if !errors.Is(err, session.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
}

func TestVintedAdapterUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	provider := &stubProvider{cred: session.Credential{Token: "tok", AcquiredAt: time.Now()}}
	adapter, err := NewVintedAdapter(provider, server.URL, "42151", 96, 5*time.Second)
	if err != nil {
		t.Fatalf("NewVintedAdapter: %v", err)
	}

	_, err = adapter.Scrape(context.Background(), "")
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
