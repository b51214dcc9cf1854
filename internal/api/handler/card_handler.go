package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/paradoks/streeplijst-backend/internal/core/domain"
	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

// PresenceReader is the view of the presence tracker the card endpoints need.
type PresenceReader interface {
	LastConnected(maxAgeSeconds *int) (domain.CardPresence, error)
}

// CardHandler handles the card association store and the presence fact.
type CardHandler struct {
	repo     ports.AssociationRepository
	presence PresenceReader
}

func NewCardHandler(repo ports.AssociationRepository, presence PresenceReader) *CardHandler {
	return &CardHandler{repo: repo, presence: presence}
}

// List handles GET /nfc.
func (h *CardHandler) List(c echo.Context) error {
	assocs, err := h.repo.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, assocs)
}

// Get handles GET /nfc/:username.
func (h *CardHandler) Get(c echo.Context) error {
	assoc, err := h.repo.Get(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, assoc)
}

// Upsert handles POST /nfc/:username. Re-posting for the same username
// replaces that user's card; a card already bound to another username is
// rejected with a conflict.
func (h *CardHandler) Upsert(c echo.Context) error {
	var req putAssociationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	assoc, err := h.repo.Upsert(c.Request().Context(), c.Param("username"), req.CardUID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, assoc)
}

// Delete handles DELETE /nfc/:username.
func (h *CardHandler) Delete(c echo.Context) error {
	if err := h.repo.Delete(c.Request().Context(), c.Param("username")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// LastConnected handles GET /nfc/last-connected-card. The optional seconds
// query parameter bounds how old the last card event may be; without it any
// card ever seen qualifies.
func (h *CardHandler) LastConnected(c echo.Context) error {
	var maxAge *int
	if raw := c.QueryParam("seconds"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "seconds must be a non-negative integer")
		}
		maxAge = &seconds
	}

	fact, err := h.presence.LastConnected(maxAge)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fact)
}
