package handler

import (
	"carbon-credit-ledger/internal/adapter/http/middleware"
	"carbon-credit-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	RegistrySvc     ports.RegistryService
	MarketplaceSvc  ports.MarketplaceService
	VerificationSvc ports.VerificationService
	RetirementSvc   ports.RetirementService
	ReplayCache     ports.IdempotencyCache // nil = transaction replay disabled
	HealthCheckers  []ports.HealthChecker
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
// Every module route runs behind the TxContext middleware; the host supplies
// sender, transaction id and ledger time on each call.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies the configured backends)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes — all module calls carry the ledger headers.
	v1 := r.Group("/api/v1", middleware.TxContext(deps.Logger))
	if deps.ReplayCache != nil {
		v1.Use(middleware.Idempotency(deps.ReplayCache, deps.Logger))
	}

	registryHandler := NewRegistryHandler(deps.RegistrySvc)
	registry := v1.Group("/registry")
	{
		registry.POST("/issue", registryHandler.Issue)
		registry.POST("/projects", registryHandler.RegisterProject)
	}

	marketplaceHandler := NewMarketplaceHandler(deps.MarketplaceSvc)
	marketplace := v1.Group("/marketplace")
	{
		marketplace.POST("/listings", marketplaceHandler.CreateListing)
		marketplace.POST("/listings/cancel", marketplaceHandler.CancelListing)
		marketplace.POST("/orders", marketplaceHandler.FulfillOrder)
		marketplace.POST("/bids", marketplaceHandler.CreateBid)
	}

	verificationHandler := NewVerificationHandler(deps.VerificationSvc)
	verification := v1.Group("/verification")
	{
		verification.POST("/verifiers", verificationHandler.AddVerifier)
		verification.POST("/verifiers/remove", verificationHandler.RemoveVerifier)
		verification.POST("/submissions", verificationHandler.Submit)
		verification.POST("/approve", verificationHandler.Approve)
		verification.POST("/reject", verificationHandler.Reject)
		verification.POST("/votes", verificationHandler.Vote)
	}

	retirementHandler := NewRetirementHandler(deps.RetirementSvc)
	retirement := v1.Group("/retirement")
	{
		retirement.POST("/retire", retirementHandler.Retire)
		retirement.POST("/certificates", retirementHandler.GenerateCertificate)
	}

	return r
}
