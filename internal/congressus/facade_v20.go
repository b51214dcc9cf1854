package congressus

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

const VersionV20 = "v20"

const (
	v20Timeout    = 5 * time.Second
	v20MaxRetries = 3
)

// FacadeV20 talks to the legacy Congressus API v20. Unfiltered member and
// product listing, sales listing and sale posting are answered locally with
// a 403; folders come from the static configuration instead of upstream.
type FacadeV20 struct {
	client *Client
	cache  MemberIDCache
	log    zerolog.Logger
}

var _ ports.UpstreamFacade = (*FacadeV20)(nil)

// NewFacadeV20 builds the v20 facade. Unlike v30, v20 requires NO space
// between the Bearer scheme and the token.
func NewFacadeV20(cfg FacadeConfig, log zerolog.Logger) *FacadeV20 {
	authHeader := func() string { return "Bearer:" + cfg.Token() }
	return &FacadeV20{
		client: NewClient(cfg.baseURL(), VersionV20, authHeader, v20Timeout, v20MaxRetries, log),
		cache:  cfg.Cache,
		log:    log.With().Str("facade", VersionV20).Logger(),
	}
}

func (f *FacadeV20) Version() string { return VersionV20 }

func (f *FacadeV20) Ping() *ports.UpstreamResult { return ping(VersionV20) }

func (f *FacadeV20) ListMembers(ctx context.Context, query url.Values) (*ports.UpstreamResult, error) {
	return forbidden("It is not allowed to list all members in local API " + VersionV20 + ", search by username instead"), nil
}

func (f *FacadeV20) GetMemberByID(ctx context.Context, id int) (*ports.UpstreamResult, error) {
	res, err := f.client.CallSingle(ctx, http.MethodGet, "/members/"+strconv.Itoa(id), CallOptions{})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, nil
	}
	raw, _ := res.Body.(map[string]any)
	return &ports.UpstreamResult{Status: res.Status, Body: StripMemberV20(raw)}, nil
}

func (f *FacadeV20) GetMemberByUsername(ctx context.Context, username string) (*ports.UpstreamResult, error) {
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

func (f *FacadeV20) ListProducts(ctx context.Context, query url.Values) (*ports.UpstreamResult, error) {
	return forbidden("It is not allowed to list all products in local API " + VersionV20 + ", list them by folder instead"), nil
}

// ListFolders serves the static streeplijst folder configuration; v20 has
// no usable upstream folder endpoint.
func (f *FacadeV20) ListFolders(ctx context.Context) (*ports.UpstreamResult, error) {
	return &ports.UpstreamResult{Status: http.StatusOK, Body: folderConfiguration}, nil
}

func (f *FacadeV20) ListProductsInFolder(ctx context.Context, folderID int) (*ports.UpstreamResult, error) {
	query := url.Values{"folder_id": {strconv.Itoa(folderID)}}
	res, err := f.client.CallSingle(ctx, http.MethodGet, "/products", CallOptions{Query: query})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, nil
	}
	return &ports.UpstreamResult{Status: res.Status, Body: stripAll(res.Body, StripProductV20)}, nil
}

// GetSales is not supported: v20 sales queries give unexpected results
// upstream.
func (f *FacadeV20) GetSales(ctx context.Context, q ports.SalesQuery) (*ports.UpstreamResult, error) {
	return forbidden("This action is not supported in Congressus API " + VersionV20 + ", use local API " + VersionV30 + " instead"), nil
}

func (f *FacadeV20) GetSalesByUsername(ctx context.Context, username string, q ports.SalesQuery) (*ports.UpstreamResult, error) {
	return f.GetSales(ctx, q)
}

func (f *FacadeV20) PostSale(ctx context.Context, memberID int, items []ports.SaleItem) (*ports.UpstreamResult, error) {
	return forbidden("It is not allowed to post sales in local API " + VersionV20 + ", use local API " + VersionV30 + " instead"), nil
}

// resolveUsername converts a username to a member id through a filtered
// member query; v20 has no dedicated search endpoint.
func (f *FacadeV20) resolveUsername(ctx context.Context, username string) (int, *ports.UpstreamResult, error) {
	if f.cache != nil {
		if id, ok := f.cache.Get(ctx, cacheKey(username)); ok {
			return id, nil, nil
		}
	}

	query := url.Values{"username": {username}}
	res, err := f.client.CallSingle(ctx, http.MethodGet, "/members", CallOptions{Query: query})
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
