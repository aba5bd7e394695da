package dealapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/sachalieges/brickdeals/internal/models"
)

func pagedServer(t *testing.T, pageCount, dealsPerPage int, failOnPage int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deals" {
			http.NotFound(w, r)
			return
		}
		*calls++

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if failOnPage > 0 && page == failOnPage {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		result := ""
		for i := 0; i < dealsPerPage; i++ {
			if i > 0 {
				result += ","
			}
			result += fmt.Sprintf(`{"uuid":"p%d-d%d","title":"Deal %d-%d","price":9.99}`, page, i, page, i)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"success":true,"data":{"result":[%s],"meta":{"currentPage":%d,"pageCount":%d,"count":%d}}}`,
			result, page, pageCount, pageCount*dealsPerPage)
	}))
}

func TestFetchAllWalksEveryPage(t *testing.T) {
	var calls int
	server := pagedServer(t, 3, 2, 0, &calls)
	defer server.Close()

	c := New(server.URL, 5*time.Second, 0)
	c.limiter.SetLimit(1000) // keep the walk fast under test

	deals, err := c.FetchAll(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if calls != 3 {
		t.Errorf("made %d calls, want exactly 3", calls)
	}
	if len(deals) != 6 {
		t.Errorf("got %d deals, want 6", len(deals))
	}
	if deals[0].ExternalID != "p1-d0" {
		t.Errorf("first deal = %q, want p1-d0", deals[0].ExternalID)
	}
}

func TestFetchAllSinglePage(t *testing.T) {
	var calls int
	server := pagedServer(t, 1, 4, 0, &calls)
	defer server.Close()

	c := New(server.URL, 5*time.Second, 0)

	deals, err := c.FetchAll(context.Background(), 4)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if calls != 1 {
		t.Errorf("made %d calls, want exactly 1", calls)
	}
	if len(deals) != 4 {
		t.Errorf("got %d deals, want 4", len(deals))
	}
}

func TestFetchAllEmptyListing(t *testing.T) {
	var calls int
	server := pagedServer(t, 0, 0, 0, &calls)
	defer server.Close()

	c := New(server.URL, 5*time.Second, 0)

	deals, err := c.FetchAll(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if calls != 1 {
		t.Errorf("made %d calls, want exactly 1 for an empty listing", calls)
	}
	if len(deals) != 0 {
		t.Errorf("got %d deals, want 0", len(deals))
	}
}

func TestFetchAllReturnsPartialOnFailure(t *testing.T) {
	var calls int
	server := pagedServer(t, 5, 2, 3, &calls)
	defer server.Close()

	c := New(server.URL, 5*time.Second, 0)
	c.limiter.SetLimit(1000)

	deals, err := c.FetchAll(context.Background(), 2)
	if err == nil {
		t.Fatal("expected an error when a page fails")
	}
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if len(deals) != 4 {
		t.Errorf("got %d partial deals, want the 4 from the two good pages", len(deals))
	}
}

func TestFetchAllRespectsPageCeiling(t *testing.T) {
	var calls int
	server := pagedServer(t, 100, 1, 0, &calls)
	defer server.Close()

	c := New(server.URL, 5*time.Second, 2)
	c.limiter.SetLimit(1000)

	deals, err := c.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if calls != 2 {
		t.Errorf("made %d calls, want the ceiling of 2", calls)
	}
	if len(deals) != 2 {
		t.Errorf("got %d deals, want 2", len(deals))
	}
}

func TestFetchSales(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sales" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("id") != "42151" {
			t.Errorf("unexpected id %q", r.URL.Query().Get("id"))
		}
		// The sales body carries the array directly under data, with no
		// nested result/meta wrapper.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[
			{"id":"42151","uuid":"s1","title":"LEGO 42151","price":45.0,"published":"14/11/2023 23:13:20"},
			{"id":"42151","uuid":"s2","title":"LEGO 42151 complet","price":52.5,"published":"20/11/2023 09:00:00"}
		]}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 0)
	sales, err := c.FetchSales(context.Background(), "42151")
	if err != nil {
		t.Fatalf("FetchSales: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("got %d sales, want 2", len(sales))
	}
	if sales[0].SetID != "42151" || sales[0].Price != 45.0 {
		t.Errorf("unexpected sale: %+v", sales[0])
	}
	if sales[1].ExternalID != "s2" {
		t.Errorf("second sale = %+v, want uuid s2", sales[1])
	}
}

func TestFetchSalesEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 0)
	sales, err := c.FetchSales(context.Background(), "99999")
	if err != nil {
		t.Fatalf("FetchSales: %v", err)
	}
	if len(sales) != 0 {
		t.Errorf("got %d sales, want 0", len(sales))
	}
}
