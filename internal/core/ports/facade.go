package ports

import (
	"context"
	"net/url"
)

// UpstreamResult carries a Congressus response (or a locally synthesised
// one) back to the transport layer: the HTTP status and the decoded JSON
// body. Upstream rejections are passed through verbatim, so handlers render
// Status and Body as-is.
type UpstreamResult struct {
	Status int
	Body   any
}

// OK reports whether Status is a 2xx success status.
func (r *UpstreamResult) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// SaleItem is a single line of a sale to post.
type SaleItem struct {
	ProductOfferID int `json:"product_offer_id"`
	Quantity       int `json:"quantity"`
}

// SalesQuery carries the filters for sales listing. Zero values mean "not
// given"; the facade fills in its defaults (invoice type "webshop", period
// 52 weeks back). Usernames that cannot be resolved to a member id are
// silently dropped from the query.
type SalesQuery struct {
	Usernames       []string
	MemberIDs       []int
	InvoiceStatus   string
	InvoiceType     string
	PeriodFilter    string
	ProductOfferIDs []string
	Order           string
}

// UpstreamFacade translates domain operations into Congressus API calls for
// one specific upstream API version. Implementations are stateless and safe
// for concurrent use; one instance per version is constructed at startup.
//
// Operations return (result, nil) for anything that maps to an HTTP answer,
// including upstream rejections and locally synthesised 403/404 responses.
// A non-nil error is reserved for fatal conditions that must abort the
// request (malformed upstream payloads, sale send failure).
type UpstreamFacade interface {
	// Version returns the upstream API version identifier, e.g. "v30".
	Version() string

	// Ping answers locally without calling upstream.
	Ping() *UpstreamResult

	// ListMembers lists members with the caller's raw query parameters.
	ListMembers(ctx context.Context, query url.Values) (*UpstreamResult, error)

	// GetMemberByID fetches one member by their internal Congressus id.
	GetMemberByID(ctx context.Context, id int) (*UpstreamResult, error)

	// GetMemberByUsername resolves a username to a member id through a
	// search call (case-insensitive match) and then fetches by id.
	GetMemberByUsername(ctx context.Context, username string) (*UpstreamResult, error)

	// ListProducts lists products with the caller's raw query parameters.
	ListProducts(ctx context.Context, query url.Values) (*UpstreamResult, error)

	// ListFolders lists the kiosk product folders.
	ListFolders(ctx context.Context) (*UpstreamResult, error)

	// ListProductsInFolder lists all products in one folder.
	ListProductsInFolder(ctx context.Context, folderID int) (*UpstreamResult, error)

	// GetSales lists sale invoices matching the query.
	GetSales(ctx context.Context, query SalesQuery) (*UpstreamResult, error)

	// GetSalesByUsername lists sale invoices for a single username.
	GetSalesByUsername(ctx context.Context, username string, query SalesQuery) (*UpstreamResult, error)

	// PostSale creates a sale invoice for a member and marks it as sent.
	PostSale(ctx context.Context, memberID int, items []SaleItem) (*UpstreamResult, error)
}
