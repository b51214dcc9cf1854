package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

// stubFacade answers every operation with a fixed result and records the
// last sale posting.
type stubFacade struct {
	version string
	result  *ports.UpstreamResult
	err     error

	saleMemberID int
	saleItems    []ports.SaleItem
	salesQuery   ports.SalesQuery
}

func (s *stubFacade) Version() string             { return s.version }
func (s *stubFacade) Ping() *ports.UpstreamResult { return s.result }

func (s *stubFacade) ListMembers(ctx context.Context, query url.Values) (*ports.UpstreamResult, error) {
	return s.result, s.err
}

func (s *stubFacade) GetMemberByID(ctx context.Context, id int) (*ports.UpstreamResult, error) {
	return s.result, s.err
}

func (s *stubFacade) GetMemberByUsername(ctx context.Context, username string) (*ports.UpstreamResult, error) {
	return s.result, s.err
}

func (s *stubFacade) ListProducts(ctx context.Context, query url.Values) (*ports.UpstreamResult, error) {
	return s.result, s.err
}

func (s *stubFacade) ListFolders(ctx context.Context) (*ports.UpstreamResult, error) {
	return s.result, s.err
}

func (s *stubFacade) ListProductsInFolder(ctx context.Context, folderID int) (*ports.UpstreamResult, error) {
	return s.result, s.err
}

func (s *stubFacade) GetSales(ctx context.Context, q ports.SalesQuery) (*ports.UpstreamResult, error) {
	s.salesQuery = q
	return s.result, s.err
}

func (s *stubFacade) GetSalesByUsername(ctx context.Context, username string, q ports.SalesQuery) (*ports.UpstreamResult, error) {
	return s.result, s.err
}

func (s *stubFacade) PostSale(ctx context.Context, memberID int, items []ports.SaleItem) (*ports.UpstreamResult, error) {
	s.saleMemberID = memberID
	s.saleItems = items
	return s.result, s.err
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func TestStreeplijstHandler_UnknownVersion(t *testing.T) {
	e := newEcho()
	handler := NewStreeplijstHandler(&stubFacade{version: "v30"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("version")
	c.SetParamValues("v99")

	if err := handler.Ping(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "API version v99 not recognized" {
		t.Fatalf("unexpected message: %q", resp["message"])
	}
}

func TestStreeplijstHandler_RendersResultVerbatim(t *testing.T) {
	e := newEcho()
	stub := &stubFacade{
		version: "v30",
		result: &ports.UpstreamResult{
			Status: http.StatusForbidden,
			Body:   map[string]any{"message": "It is not allowed to list all members, use a search instead"},
		},
	}
	handler := NewStreeplijstHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("version")
	c.SetParamValues("v30")

	if err := handler.ListMembers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("upstream status must pass through, got %d", rec.Code)
	}
}

func TestStreeplijstHandler_GetMemberByID_RejectsNonInteger(t *testing.T) {
	e := newEcho()
	handler := NewStreeplijstHandler(&stubFacade{version: "v30", result: &ports.UpstreamResult{Status: http.StatusOK}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("version", "id")
	c.SetParamValues("v30", "abc")

	err := handler.GetMemberByID(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 error, got %v", err)
	}
}

func TestStreeplijstHandler_GetSales_ForwardsMemberAndUsernameFilters(t *testing.T) {
	e := newEcho()
	stub := &stubFacade{
		version: "v30",
		result:  &ports.UpstreamResult{Status: http.StatusOK, Body: []any{}},
	}
	handler := NewStreeplijstHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/?member_id=42&member_id=7&username=s1234567", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("version")
	c.SetParamValues("v30")

	if err := handler.GetSales(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := stub.salesQuery.MemberIDs; len(got) != 2 || got[0] != 42 || got[1] != 7 {
		t.Fatalf("member ids not forwarded, got %v", got)
	}
	if got := stub.salesQuery.Usernames; len(got) != 1 || got[0] != "s1234567" {
		t.Fatalf("usernames not forwarded, got %v", got)
	}
}

func TestStreeplijstHandler_GetSales_RejectsNonIntegerMemberID(t *testing.T) {
	e := newEcho()
	handler := NewStreeplijstHandler(&stubFacade{version: "v30"})

	req := httptest.NewRequest(http.MethodGet, "/?member_id=abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("version")
	c.SetParamValues("v30")

	err := handler.GetSales(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 error, got %v", err)
	}
}

func TestStreeplijstHandler_PostSale(t *testing.T) {
	e := newEcho()
	stub := &stubFacade{
		version: "v30",
		result:  &ports.UpstreamResult{Status: http.StatusCreated, Body: map[string]any{"id": 77}},
	}
	handler := NewStreeplijstHandler(stub)

	body := `{"member_id": 42, "items": [{"product_offer_id": 5, "quantity": 2}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("version")
	c.SetParamValues("v30")

	if err := handler.PostSale(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.saleMemberID != 42 {
		t.Fatalf("member id not forwarded, got %d", stub.saleMemberID)
	}
	if len(stub.saleItems) != 1 || stub.saleItems[0].ProductOfferID != 5 || stub.saleItems[0].Quantity != 2 {
		t.Fatalf("items not forwarded, got %+v", stub.saleItems)
	}
}

func TestStreeplijstHandler_PostSale_ValidatesPayload(t *testing.T) {
	e := newEcho()
	handler := NewStreeplijstHandler(&stubFacade{version: "v30"})

	cases := []struct {
		name string
		body string
	}{
		{"missing member", `{"items": [{"product_offer_id": 5, "quantity": 2}]}`},
		{"empty items", `{"member_id": 42, "items": []}`},
		{"zero quantity", `{"member_id": 42, "items": [{"product_offer_id": 5, "quantity": 0}]}`},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("version")
		c.SetParamValues("v30")

		err := handler.PostSale(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 error, got %v", tc.name, err)
		}
	}
}
