package congressus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/core/domain"
	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

const VersionV30 = "v30"

const (
	v30Timeout    = 10 * time.Second
	v30MaxRetries = 2
)

const (
	defaultInvoiceType   = "webshop"
	defaultSalesLookback = 52 * 7 * 24 * time.Hour // a year back
)

// FacadeV30 talks to Congressus API v30. It supports the full sales flow
// but forbids unfiltered member and product listing.
type FacadeV30 struct {
	client *Client
	cache  MemberIDCache
	log    zerolog.Logger
	now    func() time.Time
}

var _ ports.UpstreamFacade = (*FacadeV30)(nil)

// NewFacadeV30 builds the v30 facade. v30 requires a space between the
// Bearer scheme and the token.
func NewFacadeV30(cfg FacadeConfig, log zerolog.Logger) *FacadeV30 {
	authHeader := func() string { return "Bearer " + cfg.Token() }
	return &FacadeV30{
		client: NewClient(cfg.baseURL(), VersionV30, authHeader, v30Timeout, v30MaxRetries, log),
		cache:  cfg.Cache,
		log:    log.With().Str("facade", VersionV30).Logger(),
		now:    time.Now,
	}
}

func (f *FacadeV30) Version() string { return VersionV30 }

func (f *FacadeV30) Ping() *ports.UpstreamResult { return ping(VersionV30) }

// ListMembers is not supported in v30; members must be fetched through a
// search so no unfiltered personal data leaves the upstream.
func (f *FacadeV30) ListMembers(ctx context.Context, query url.Values) (*ports.UpstreamResult, error) {
	return forbidden("It is not allowed to list all members, use a search instead"), nil
}

func (f *FacadeV30) GetMemberByID(ctx context.Context, id int) (*ports.UpstreamResult, error) {
	res, err := f.client.CallSingle(ctx, http.MethodGet, "/members/"+strconv.Itoa(id), CallOptions{})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, nil
	}
	raw, _ := res.Body.(map[string]any)
	return &ports.UpstreamResult{Status: res.Status, Body: StripMemberV30(raw)}, nil
}

func (f *FacadeV30) GetMemberByUsername(ctx context.Context, username string) (*ports.UpstreamResult, error) {
	id, failure, err := f.resolveUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if failure != nil {
		return failure, nil
	}
	if id == 0 {
		return memberNotFound(username), nil
	}
	return f.GetMemberByID(ctx, id)
}

// ListProducts is not supported in v30; products are listed per folder.
func (f *FacadeV30) ListProducts(ctx context.Context, query url.Values) (*ports.UpstreamResult, error) {
	return forbidden("It is not allowed to list all products, list them by folders instead"), nil
}

// ListFolders queries upstream for the folders beneath the streeplijst
// parent folder.
// TODO: attach image urls from the static folder configuration; the
// upstream folder payload does not include them.
func (f *FacadeV30) ListFolders(ctx context.Context) (*ports.UpstreamResult, error) {
	query := url.Values{"parent_id": {strconv.Itoa(parentFolderID)}}
	return f.client.CallPaginated(ctx, http.MethodGet, "/product-folders", CallOptions{Query: query})
}

func (f *FacadeV30) ListProductsInFolder(ctx context.Context, folderID int) (*ports.UpstreamResult, error) {
	query := url.Values{"folder_id": {strconv.Itoa(folderID)}}
	res, err := f.client.CallPaginated(ctx, http.MethodGet, "/products", CallOptions{Query: query})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, nil
	}
	return &ports.UpstreamResult{Status: res.Status, Body: stripAll(res.Body, StripProductV30)}, nil
}

// GetSales lists sale invoices. Missing filters fall back to the defaults:
// invoice type "webshop" and a period starting 52 weeks back. Usernames
// that resolve to no member are dropped from the query without an error.
func (f *FacadeV30) GetSales(ctx context.Context, q ports.SalesQuery) (*ports.UpstreamResult, error) {
	if q.InvoiceType == "" {
		q.InvoiceType = defaultInvoiceType
	}
	if q.PeriodFilter == "" {
		q.PeriodFilter = f.now().Add(-defaultSalesLookback).Format("2006-01-02")
	}

	memberIDs := append([]int(nil), q.MemberIDs...)
	for _, username := range q.Usernames {
		id, _, err := f.resolveUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if id != 0 {
			memberIDs = append(memberIDs, id)
		}
	}

	query := url.Values{}
	for _, id := range memberIDs {
		query.Add("member_id", strconv.Itoa(id))
	}
	if q.InvoiceStatus != "" {
		query.Set("invoice_status", q.InvoiceStatus)
	}
	query.Set("invoice_type", q.InvoiceType)
	query.Set("period_filter", q.PeriodFilter)
	for _, offerID := range q.ProductOfferIDs {
		query.Add("product_offer_id", offerID)
	}
	if q.Order != "" {
		query.Set("order", q.Order)
	}

	res, err := f.client.CallPaginated(ctx, http.MethodGet, "/sale-invoices", CallOptions{Query: query})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, nil
	}
	return &ports.UpstreamResult{Status: res.Status, Body: stripAll(res.Body, StripSaleV30)}, nil
}

func (f *FacadeV30) GetSalesByUsername(ctx context.Context, username string, q ports.SalesQuery) (*ports.UpstreamResult, error) {
	id, failure, err := f.resolveUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if failure != nil {
		return failure, nil
	}
	if id == 0 {
		return memberNotFound(username), nil
	}
	q.Usernames = nil
	q.MemberIDs = []int{id}
	return f.GetSales(ctx, q)
}

// PostSale creates a sale invoice and then marks it as sent so the buyer is
// notified. The protocol is deliberately non-atomic: when the send step
// fails the invoice already exists upstream in an unsent state and is not
// rolled back; the whole operation reports domain.ErrSaleNotSent.
func (f *FacadeV30) PostSale(ctx context.Context, memberID int, items []ports.SaleItem) (*ports.UpstreamResult, error) {
	payload := map[string]any{
		"member_id":    memberID,
		"items":        items,
		"invoice_type": defaultInvoiceType,
	}
	res, err := f.client.CallSingle(ctx, http.MethodPost, "/sale-invoices", CallOptions{Body: payload})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, nil
	}

	raw, _ := res.Body.(map[string]any)
	invoiceID, ok := raw["id"].(float64)
	if !ok {
		return nil, fmt.Errorf("congressus: sale invoice response has no id: %w", domain.ErrSaleNotSent)
	}

	sendEndpoint := "/sale-invoices/" + strconv.Itoa(int(invoiceID)) + "/send"
	sendRes, err := f.client.CallSingle(ctx, http.MethodPost, sendEndpoint, CallOptions{})
	if err != nil {
		return nil, fmt.Errorf("congressus: send sale invoice %d: %w", int(invoiceID), domain.ErrSaleNotSent)
	}
	if !sendRes.OK() {
		f.log.Error().Int("invoice_id", int(invoiceID)).Int("status", sendRes.Status).
			Msg("sale invoice created but send call was rejected")
		return nil, fmt.Errorf("congressus: send sale invoice %d: status %d: %w",
			int(invoiceID), sendRes.Status, domain.ErrSaleNotSent)
	}

	return &ports.UpstreamResult{Status: res.Status, Body: StripSaleV30(raw)}, nil
}

// resolveUsername converts a username to a member id via /members/search.
// It returns (0, failure, nil) when upstream rejected the search and
// (0, nil, nil) when the search succeeded without an exact match.
func (f *FacadeV30) resolveUsername(ctx context.Context, username string) (int, *ports.UpstreamResult, error) {
	if f.cache != nil {
		if id, ok := f.cache.Get(ctx, cacheKey(username)); ok {
			return id, nil, nil
		}
	}

	query := url.Values{"term": {username}}
	res, err := f.client.CallPaginated(ctx, http.MethodGet, "/members/search", CallOptions{Query: query})
	if err != nil {
		return 0, nil, err
	}
	if !res.OK() {
		return 0, res, nil
	}

	results, _ := res.Body.([]any)
	id := matchMemberID(results, username)
	if id != 0 && f.cache != nil {
		f.cache.Set(ctx, cacheKey(username), id)
	}
	return id, nil, nil
}

// stripAll applies a record shaper to every element of a result body.
// Non-list bodies and non-object elements are shaped to their best-effort
// equivalents rather than dropped silently as a whole.
func stripAll(body any, strip func(map[string]any) map[string]any) []map[string]any {
	list, _ := body.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		raw, _ := entry.(map[string]any)
		out = append(out, strip(raw))
	}
	return out
}
