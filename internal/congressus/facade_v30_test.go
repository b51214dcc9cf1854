package congressus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/core/domain"
	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

type fakeCache struct {
	entries map[string]int
	sets    int
}

func (c *fakeCache) Get(ctx context.Context, username string) (int, bool) {
	id, ok := c.entries[username]
	return id, ok
}

func (c *fakeCache) Set(ctx context.Context, username string, id int) {
	if c.entries == nil {
		c.entries = map[string]int{}
	}
	c.entries[username] = id
	c.sets++
}

func v30Facade(t *testing.T, handler http.HandlerFunc) (*FacadeV30, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := FacadeConfig{
		BaseURL: srv.URL,
		Token:   func() string { return "tok" },
	}
	return NewFacadeV30(cfg, zerolog.Nop()), srv
}

func TestFacadeV30_AuthHeaderHasSpace(t *testing.T) {
	f, _ := v30Facade(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("v30 auth header must be %q, got %q", "Bearer tok", got)
		}
		w.Write([]byte(`{"id": 1}`))
	})

	if _, err := f.GetMemberByID(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFacadeV30_ListingIsForbidden(t *testing.T) {
	f, _ := v30Facade(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("forbidden operations must not call upstream: %s", r.URL.Path)
	})

	res, err := f.ListMembers(context.Background(), nil)
	if err != nil || res.Status != http.StatusForbidden {
		t.Fatalf("expected local 403, got %+v err=%v", res, err)
	}

	res, err = f.ListProducts(context.Background(), nil)
	if err != nil || res.Status != http.StatusForbidden {
		t.Fatalf("expected local 403, got %+v err=%v", res, err)
	}
}

func TestFacadeV30_GetMemberByUsername_CaseInsensitive(t *testing.T) {
	f, _ := v30Facade(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v30/members/search":
			if got := r.URL.Query().Get("term"); got != "S1234567" {
				t.Errorf("expected search term S1234567, got %q", got)
			}
			w.Write([]byte(`{"data": [
				{"id": 7, "username": "somebody_else"},
				{"id": 42, "username": "s1234567"}
			], "has_next": false}`))
		case "/v30/members/42":
			w.Write([]byte(`{"id": 42, "username": "s1234567", "first_name": "Alice"}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	res, err := f.GetMemberByUsername(context.Background(), "S1234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Status)
	}
	body, ok := res.Body.(map[string]any)
	if !ok || body["first_name"] != "Alice" {
		t.Fatalf("unexpected body: %+v", res.Body)
	}
}

func TestFacadeV30_GetMemberByUsername_NotFound(t *testing.T) {
	f, _ := v30Facade(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"id": 7, "username": "somebody_else"}], "has_next": false}`))
	})

	res, err := f.GetMemberByUsername(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Status)
	}
	body := res.Body.(map[string]any)
	if body["message"] != "No user found for ghost" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestFacadeV30_ResolutionUsesCache(t *testing.T) {
	var searches int
	f, _ := v30Facade(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v30/members/search":
			searches++
			w.Write([]byte(`{"data": [{"id": 42, "username": "s1234567"}], "has_next": false}`))
		case "/v30/members/42":
			w.Write([]byte(`{"id": 42, "username": "s1234567"}`))
		}
	})
	cache := &fakeCache{}
	f.cache = cache

	for i := 0; i < 3; i++ {
		if _, err := f.GetMemberByUsername(context.Background(), "s1234567"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if searches != 1 {
		t.Fatalf("expected a single upstream search, got %d", searches)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}
}

func TestFacadeV30_PostSale_TwoSteps(t *testing.T) {
	var created, sent bool
	f, _ := v30Facade(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v30/sale-invoices":
			created = true
			w.Write([]byte(`{"id": 77, "member_id": 42, "invoice_status": "unset"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v30/sale-invoices/77/send":
			sent = true
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
	})

	items := []ports.SaleItem{{ProductOfferID: 5, Quantity: 2}}
	res, err := f.PostSale(context.Background(), 42, items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || !sent {
		t.Fatalf("expected create and send calls, got created=%v sent=%v", created, sent)
	}
	body, ok := res.Body.(map[string]any)
	if !ok || body["id"] != float64(77) {
		t.Fatalf("unexpected body: %+v", res.Body)
	}
}

func TestFacadeV30_PostSale_SendFailureIsFatal(t *testing.T) {
	f, _ := v30Facade(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v30/sale-invoices" {
			w.Write([]byte(`{"id": 77}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "mail backend down"}`))
	})

	_, err := f.PostSale(context.Background(), 42, []ports.SaleItem{{ProductOfferID: 5, Quantity: 1}})
	if !errors.Is(err, domain.ErrSaleNotSent) {
		t.Fatalf("expected ErrSaleNotSent, got %v", err)
	}
}

func TestFacadeV30_PostSale_CreateRejectionPassesThrough(t *testing.T) {
	f, _ := v30Facade(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": "unknown product offer"}`))
	})

	res, err := f.PostSale(context.Background(), 42, []ports.SaleItem{{ProductOfferID: 999, Quantity: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected upstream rejection passthrough, got %d", res.Status)
	}
}

func TestFacadeV30_GetSales_DropsUnresolvableUsernames(t *testing.T) {
	var salesQuery string
	f, _ := v30Facade(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v30/members/search":
			if r.URL.Query().Get("term") == "known" {
				w.Write([]byte(`{"data": [{"id": 42, "username": "known"}], "has_next": false}`))
				return
			}
			w.Write([]byte(`{"data": [], "has_next": false}`))
		case "/v30/sale-invoices":
			salesQuery = r.URL.RawQuery
			w.Write([]byte(`{"data": [], "has_next": false}`))
		}
	})

	res, err := f.GetSales(context.Background(), ports.SalesQuery{Usernames: []string{"known", "ghost"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Status)
	}
	if salesQuery == "" {
		t.Fatal("sales endpoint was never called")
	}
	params, err := url.ParseQuery(salesQuery)
	if err != nil {
		t.Fatalf("bad sales query %q: %v", salesQuery, err)
	}
	if got := params["member_id"]; len(got) != 1 || got[0] != "42" {
		t.Fatalf("expected only the resolved member id, got %v", got)
	}
	if got := params.Get("invoice_type"); got != "webshop" {
		t.Fatalf("expected default invoice_type webshop, got %q", got)
	}
	if params.Get("period_filter") == "" {
		t.Fatal("expected a default period_filter")
	}
}
