package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sachalieges/brickdeals/internal/ingest"
	"github.com/sachalieges/brickdeals/internal/models"
	"github.com/sachalieges/brickdeals/internal/query"
	"github.com/sachalieges/brickdeals/internal/storage"
)

const defaultRecentDays = 21

// DealStore is the read surface the handlers need.
type DealStore interface {
	SortedDeals(ctx context.Context, order storage.SortOrder) ([]models.Deal, error)
	FindBySetID(ctx context.Context, setID string, limit int) ([]models.Sale, error)
	RecentSales(ctx context.Context, cutoff time.Time) ([]models.Sale, error)
}

// Runner triggers one ingestion pass.
type Runner interface {
	Run(ctx context.Context, q string) (ingest.Report, error)
}

// RemoteDeals is the hosted deals API. The portfolio routes read from it
// directly instead of the local store.
type RemoteDeals interface {
	FetchAll(ctx context.Context, pageSize int) ([]models.Deal, error)
	FetchSales(ctx context.Context, setID string) ([]models.Sale, error)
}

// Server holds dependencies for the HTTP handlers.
type Server struct {
	store    DealStore
	runner   Runner
	remote   RemoteDeals
	pageSize int
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New wires up routes and returns a ready-to-use Server. remote may be nil;
// the portfolio routes then answer 503.
func New(store DealStore, runner Runner, remote RemoteDeals, pageSize int, logger *slog.Logger) *Server {
	srv := &Server{store: store, runner: runner, remote: remote, pageSize: pageSize, logger: logger, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

// ServeHTTP makes Server satisfy the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ---------- Routes ----------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/deals", s.handleListDeals)
	s.mux.HandleFunc("GET /api/deals/filter", s.handleFilterDeals)

	s.mux.HandleFunc("GET /api/sales", s.handleListSales)
	s.mux.HandleFunc("GET /api/sales/recent", s.handleRecentSales)

	s.mux.HandleFunc("GET /api/portfolio/deals", s.handlePortfolioDeals)
	s.mux.HandleFunc("GET /api/portfolio/sales", s.handlePortfolioSales)

	s.mux.HandleFunc("POST /api/ingest", s.handleIngest)
}

// ---------- Handlers ----------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	order, err := storage.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	deals, err := s.store.SortedDeals(r.Context(), order)
	if err != nil {
		s.logger.Error("failed to list deals", "sort", order, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, deals)
}

func (s *Server) handleFilterDeals(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")

	deals, err := s.store.SortedDeals(r.Context(), storage.SortDateDesc)
	if err != nil {
		s.logger.Error("failed to load deals for filtering", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "store unavailable"})
		return
	}

	switch by {
	case "best-discount":
		deals = query.HighDiscount(deals)
	case "most-commented":
		deals = query.MostCommented(deals)
	case "hot-deals":
		deals = query.Hottest(deals)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "filter must be one of best-discount, most-commented, hot-deals",
		})
		return
	}

	writeJSON(w, http.StatusOK, deals)
}

func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	setID := r.URL.Query().Get("id")
	if setID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	sales, err := s.store.FindBySetID(r.Context(), setID, limit)
	if err != nil {
		s.logger.Error("failed to list sales", "setID", setID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (s *Server) handleRecentSales(w http.ResponseWriter, r *http.Request) {
	days := defaultRecentDays
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	sales, err := s.store.RecentSales(r.Context(), cutoff)
	if err != nil {
		s.logger.Error("failed to list recent sales", "days", days, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

// handlePortfolioDeals walks the full hosted listing, then filters and sorts
// in memory. A mid-walk failure still serves the pages gathered so far.
func (s *Server) handlePortfolioDeals(w http.ResponseWriter, r *http.Request) {
	if s.remote == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "hosted deals API not configured"})
		return
	}

	deals, err := s.remote.FetchAll(r.Context(), s.pageSize)
	if err != nil {
		s.logger.Warn("partial portfolio fetch", "collected", len(deals), "error", err)
		if len(deals) == 0 {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "hosted deals API unavailable"})
			return
		}
	}

	switch by := r.URL.Query().Get("filter"); by {
	case "best-discount":
		deals = query.HighDiscount(deals)
	case "most-commented":
		deals = query.MostCommented(deals)
	case "hot-deals":
		deals = query.Hottest(deals)
	case "":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "filter must be one of best-discount, most-commented, hot-deals",
		})
		return
	}

	switch sortBy := r.URL.Query().Get("sort"); sortBy {
	case "price-asc":
		deals = query.ByPrice(deals, true)
	case "price-desc":
		deals = query.ByPrice(deals, false)
	case "date-asc":
		deals = query.ByPublished(deals, true)
	case "date-desc", "":
		deals = query.ByPublished(deals, false)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "sort must be one of price-asc, price-desc, date-asc, date-desc",
		})
		return
	}

	writeJSON(w, http.StatusOK, deals)
}

func (s *Server) handlePortfolioSales(w http.ResponseWriter, r *http.Request) {
	if s.remote == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "hosted deals API not configured"})
		return
	}

	setID := r.URL.Query().Get("id")
	if setID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	sales, err := s.remote.FetchSales(r.Context(), setID)
	if err != nil {
		s.logger.Error("failed to fetch hosted sales", "setID", setID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "hosted deals API unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

// handleIngest starts a refresh in the background and returns immediately.
// The scrape can take minutes; holding the request open would just invite
// client timeouts.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("ingestion run panicked", "panic", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		report, err := s.runner.Run(ctx, q)
		if err != nil {
			s.logger.Error("ingestion run failed", "error", err)
			return
		}
		s.logger.Info("ingestion run finished",
			"deals", report.Deals, "sales", report.Sales, "dropped", report.Dropped)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ingestion started"})
}

// ---------- Helpers ----------

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
