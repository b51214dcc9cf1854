package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

// StreeplijstHandler handles the versioned membership API surface. Every
// route carries a :version path segment that selects one of the registered
// facades; the facade's result (status plus body) is rendered to the caller
// verbatim, including upstream error pages.
type StreeplijstHandler struct {
	facades map[string]ports.UpstreamFacade
}

func NewStreeplijstHandler(facades ...ports.UpstreamFacade) *StreeplijstHandler {
	byVersion := make(map[string]ports.UpstreamFacade, len(facades))
	for _, f := range facades {
		byVersion[f.Version()] = f
	}
	return &StreeplijstHandler{facades: byVersion}
}

// facade resolves the :version path parameter. Unknown versions get a 404
// before any other work happens.
func (h *StreeplijstHandler) facade(c echo.Context) (ports.UpstreamFacade, error) {
	version := c.Param("version")
	f, ok := h.facades[version]
	if !ok {
		return nil, c.JSON(http.StatusNotFound, map[string]string{
			"message": fmt.Sprintf("API version %s not recognized", version),
		})
	}
	return f, nil
}

// render writes an upstream result as the HTTP response.
func render(c echo.Context, res *ports.UpstreamResult) error {
	if res.Body == nil {
		return c.NoContent(res.Status)
	}
	return c.JSON(res.Status, res.Body)
}

// Ping handles GET /:version/ping.
func (h *StreeplijstHandler) Ping(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}
	return render(c, f.Ping())
}

// ListMembers handles GET /:version/members.
func (h *StreeplijstHandler) ListMembers(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}
	res, err := f.ListMembers(c.Request().Context(), c.QueryParams())
	if err != nil {
		return err
	}
	return render(c, res)
}

// GetMemberByID handles GET /:version/members/id/:id.
func (h *StreeplijstHandler) GetMemberByID(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "member id must be an integer")
	}
	res, err := f.GetMemberByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return render(c, res)
}

// GetMemberByUsername handles GET /:version/members/username/:username.
func (h *StreeplijstHandler) GetMemberByUsername(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}
	res, err := f.GetMemberByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return render(c, res)
}

// ListProducts handles GET /:version/products.
func (h *StreeplijstHandler) ListProducts(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}
	res, err := f.ListProducts(c.Request().Context(), c.QueryParams())
	if err != nil {
		return err
	}
	return render(c, res)
}

// ListFolders handles GET /:version/folders.
func (h *StreeplijstHandler) ListFolders(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}
	res, err := f.ListFolders(c.Request().Context())
	if err != nil {
		return err
	}
	return render(c, res)
}

// ListProductsInFolder handles GET /:version/products/folder/:folder_id.
func (h *StreeplijstHandler) ListProductsInFolder(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}
	folderID, err := strconv.Atoi(c.Param("folder_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "folder id must be an integer")
	}
	res, err := f.ListProductsInFolder(c.Request().Context(), folderID)
	if err != nil {
		return err
	}
	return render(c, res)
}

// salesQuery lifts the sales filter query parameters into a ports.SalesQuery.
// Members can be addressed by username or directly by member id; both lists
// are forwarded.
func salesQuery(c echo.Context) (ports.SalesQuery, error) {
	q := c.QueryParams()

	var memberIDs []int
	for _, raw := range q["member_id"] {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return ports.SalesQuery{}, echo.NewHTTPError(http.StatusBadRequest, "member_id must be an integer")
		}
		memberIDs = append(memberIDs, id)
	}

	return ports.SalesQuery{
		Usernames:       q["username"],
		MemberIDs:       memberIDs,
		InvoiceStatus:   q.Get("invoice_status"),
		InvoiceType:     q.Get("invoice_type"),
		PeriodFilter:    q.Get("period_filter"),
		ProductOfferIDs: q["product_offer_id"],
		Order:           q.Get("order"),
	}, nil
}

// GetSales handles GET /:version/sales.
func (h *StreeplijstHandler) GetSales(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}
	q, err := salesQuery(c)
	if err != nil {
		return err
	}
	res, err := f.GetSales(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return render(c, res)
}

// GetSalesByUsername handles GET /:version/sales/:username.
func (h *StreeplijstHandler) GetSalesByUsername(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}
	q, err := salesQuery(c)
	if err != nil {
		return err
	}
	res, err := f.GetSalesByUsername(c.Request().Context(), c.Param("username"), q)
	if err != nil {
		return err
	}
	return render(c, res)
}

// PostSale handles POST /:version/sales.
func (h *StreeplijstHandler) PostSale(c echo.Context) error {
	f, err := h.facade(c)
	if f == nil {
		return err
	}

	var req postSaleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	items := make([]ports.SaleItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = ports.SaleItem{ProductOfferID: it.ProductOfferID, Quantity: it.Quantity}
	}

	res, err := f.PostSale(c.Request().Context(), req.MemberID, items)
	if err != nil {
		return err
	}
	return render(c, res)
}
