package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sachalieges/brickdeals/internal/models"
)

// Adapter translates one external site into raw records. Scrape must return
// an error instead of panicking past the ingestion boundary; a failed source
// never takes the other sources down with it.
type Adapter interface {
	Source() string
	Scrape(ctx context.Context, query string) ([]models.RawRecord, error)
}

// Registry maps a source identifier to its adapter. Registration order is
// the pinned merge priority for deduplication: records from later-registered
// sources win on external-id collisions.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	name := a.Source()
	if _, exists := r.adapters[name]; !exists {
		r.order = append(r.order, name)
	}
	r.adapters[name] = a
}

func (r *Registry) Get(source string) (Adapter, bool) {
	a, ok := r.adapters[source]
	return a, ok
}

// All returns the adapters in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.adapters[name])
	}
	return out
}

// ResolveByURL picks the adapter responsible for a site URL by its
// second-level domain name ("https://www.vinted.fr/..." -> "vinted").
func (r *Registry) ResolveByURL(rawURL string) (Adapter, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse source URL %q: %w", rawURL, err)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return nil, fmt.Errorf("source URL %q has no hostname", rawURL)
	}

	parts := strings.Split(hostname, ".")
	domain := parts[0]
	if domain == "www" && len(parts) > 1 {
		domain = parts[1]
	}

	a, ok := r.adapters[domain]
	if !ok {
		return nil, fmt.Errorf("no scraper registered for domain %q", domain)
	}
	return a, nil
}

// SearchTerm extracts a search term from a query that may be a URL (the `q`
// parameter or a /search/<term> path segment) or a raw string. Falls back to
// the given default when nothing recognizable is present.
func SearchTerm(query, fallback string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fallback
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" {
		// Not a URL; the query itself is the term.
		return trimmed
	}

	if q := parsed.Query().Get("q"); q != "" {
		return q
	}

	if strings.Contains(parsed.Path, "/search") {
		segments := strings.Split(parsed.Path, "/")
		for i, seg := range segments {
			if seg == "search" && i < len(segments)-1 && segments[i+1] != "" {
				return segments[i+1]
			}
		}
	}

	return fallback
}
