package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/paradoks/streeplijst-backend/internal/api/handler"
	"github.com/paradoks/streeplijst-backend/internal/api/ws"
	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Facades      []ports.UpstreamFacade
	Associations ports.AssociationRepository
	Presence     handler.PresenceReader
	Hub          *ws.Hub

	Mongo *mongo.Database
	Redis *redis.Client
	Log   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("streeplijst"))

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Versioned membership API proxy ---
	streeplijst := handler.NewStreeplijstHandler(deps.Facades...)

	v := e.Group("/:version")
	v.GET("/ping", streeplijst.Ping)
	v.GET("/members", streeplijst.ListMembers)
	v.GET("/members/id/:id", streeplijst.GetMemberByID)
	v.GET("/members/username/:username", streeplijst.GetMemberByUsername)
	v.GET("/products", streeplijst.ListProducts)
	v.GET("/products/folder/:folder_id", streeplijst.ListProductsInFolder)
	v.GET("/folders", streeplijst.ListFolders)
	v.GET("/sales", streeplijst.GetSales)
	v.GET("/sales/:username", streeplijst.GetSalesByUsername)
	v.POST("/sales", streeplijst.PostSale)

	// --- Card associations and presence ---
	card := handler.NewCardHandler(deps.Associations, deps.Presence)

	e.GET("/nfc", card.List)
	e.GET("/nfc/last-connected-card", card.LastConnected)
	e.GET("/nfc/ws", deps.Hub.Handle)
	e.GET("/nfc/:username", card.Get)
	e.POST("/nfc/:username", card.Upsert)
	e.DELETE("/nfc/:username", card.Delete)

	// --- Health probes and metrics ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
