package congressus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

func v20Facade(t *testing.T, handler http.HandlerFunc) *FacadeV20 {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := FacadeConfig{
		BaseURL: srv.URL,
		Token:   func() string { return "tok" },
	}
	return NewFacadeV20(cfg, zerolog.Nop())
}

func TestFacadeV20_AuthHeaderHasNoSpace(t *testing.T) {
	f := v20Facade(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer:tok" {
			t.Errorf("v20 auth header must be %q, got %q", "Bearer:tok", got)
		}
		w.Write([]byte(`{"id": 1}`))
	})

	if _, err := f.GetMemberByID(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFacadeV20_UnsupportedOperationsAnswerLocally(t *testing.T) {
	f := v20Facade(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unsupported operations must not call upstream: %s", r.URL.Path)
	})

	cases := []struct {
		name string
		call func() (*ports.UpstreamResult, error)
	}{
		{"list members", func() (*ports.UpstreamResult, error) { return f.ListMembers(context.Background(), nil) }},
		{"list products", func() (*ports.UpstreamResult, error) { return f.ListProducts(context.Background(), nil) }},
		{"get sales", func() (*ports.UpstreamResult, error) { return f.GetSales(context.Background(), ports.SalesQuery{}) }},
		{"get sales by username", func() (*ports.UpstreamResult, error) {
			return f.GetSalesByUsername(context.Background(), "s1234567", ports.SalesQuery{})
		}},
		{"post sale", func() (*ports.UpstreamResult, error) {
			return f.PostSale(context.Background(), 42, []ports.SaleItem{{ProductOfferID: 1, Quantity: 1}})
		}},
	}

	for _, tc := range cases {
		res, err := tc.call()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if res.Status != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", tc.name, res.Status)
		}
		body, ok := res.Body.(map[string]any)
		if !ok || body["message"] == "" {
			t.Fatalf("%s: expected explanatory message, got %+v", tc.name, res.Body)
		}
	}
}

func TestFacadeV20_ListFolders_Static(t *testing.T) {
	f := v20Facade(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("folder listing must not call upstream: %s", r.URL.Path)
	})

	res, err := f.ListFolders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Status)
	}
	folders, ok := res.Body.([]Folder)
	if !ok {
		t.Fatalf("expected folder list, got %T", res.Body)
	}
	if len(folders) != 9 {
		t.Fatalf("expected 9 configured folders, got %d", len(folders))
	}
	if folders[0].Name != "Chips" || folders[0].ID != 1991 {
		t.Fatalf("unexpected first folder: %+v", folders[0])
	}
}

func TestFacadeV20_GetMemberByUsername_ResolvesThenFetches(t *testing.T) {
	f := v20Facade(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v20/members":
			if got := r.URL.Query().Get("username"); got != "S1234567" {
				t.Errorf("expected username filter S1234567, got %q", got)
			}
			w.Write([]byte(`[{"id": 42, "username": "s1234567"}]`))
		case "/v20/members/42":
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
	body := res.Body.(map[string]any)
	if body["first_name"] != "Alice" {
		t.Fatalf("unexpected body: %+v", body)
	}
	// v20 members carry their own allowlist; v30-only fields must not appear.
	if _, ok := body["bank_account"]; ok {
		t.Fatalf("v30 field leaked into v20 response: %+v", body)
	}
}
