package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/ecocivic/civicledger/internal/config"
	"github.com/ecocivic/civicledger/internal/handler"
	"github.com/ecocivic/civicledger/internal/middleware"
)

// Handlers groups every handler the API mounts so RegisterAll stays a
// single call site in main.
type Handlers struct {
	Auth       *handler.AuthHandler
	Account    *handler.AccountHandler
	Reading    *handler.ReadingHandler
	Recycling  *handler.RecyclingHandler
	Inspection *handler.InspectionHandler
	Admin      *handler.AdminHandler
}

// RegisterAll wires the full route table.  Unauthenticated operations
// live under /v1/auth plus the health check; everything else requires
// a valid access token.  Capability enforcement happens inside the
// services, so protected routes need only authentication here — the
// role middleware keeps obviously-unauthorized traffic off the
// privileged groups early.
func RegisterAll(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Redis-backed token bucket in front of everything, keyed on the
	// authenticated identity (or client IP for guests).
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Unauthenticated: registration and login.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// Everything below requires a valid access token.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(cfg.JWTSecret))

	// Read-heavy account queries go through the response cache.
	cached := v1.Group("")
	cached.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	cached.GET("/account/balance", h.Account.Balance)
	cached.GET("/account/status", h.Account.Status)
	cached.GET("/account/debts", h.Account.Debts)
	cached.GET("/readings", h.Reading.History)
	cached.GET("/account/inspection-due", h.Inspection.DueSelf)

	// Citizen operations on the caller's own account.
	v1.POST("/account/deposit", h.Account.Deposit)
	v1.POST("/account/claim-rewards", h.Account.ClaimRewards)
	v1.POST("/readings", h.Reading.Submit)
	v1.POST("/recycling/declare", h.Recycling.Declare)

	// Operator: meter administration.
	operator := v1.Group("/meters")
	operator.Use(middleware.RequireRole("OPERATOR", "ADMIN"))
	operator.POST("/bind", h.Reading.BindMeter)

	// Facility staff: token verification and redemption.
	staff := v1.Group("/recycling")
	staff.Use(middleware.RequireRole("STAFF", "ADMIN"))
	staff.GET("/tokens/:hash", h.Recycling.Token)
	staff.POST("/redeem", h.Recycling.Redeem)

	// Whitelisted inspectors.
	insp := v1.Group("/inspections")
	insp.Use(middleware.RequireRole("INSPECTOR", "ADMIN"))
	insp.GET("/due/:identity", h.Inspection.Due)
	insp.POST("", h.Inspection.Schedule)
	insp.GET("/:id", h.Inspection.Get)
	insp.POST("/:id/complete", h.Inspection.Complete)

	// Fraud managers.
	fraud := v1.Group("/fraud")
	fraud.Use(middleware.RequireRole("FRAUD_MANAGER", "ADMIN"))
	fraud.POST("/report", h.Admin.ReportFraud)

	// Administrators.
	admin := v1.Group("/admin")
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/capabilities/grant", h.Admin.GrantCapability)
	admin.POST("/capabilities/revoke", h.Admin.RevokeCapability)
	admin.POST("/ledger/pause", h.Admin.Pause)
	admin.POST("/ledger/unpause", h.Admin.Unpause)
	admin.POST("/ledger/withdraw", h.Admin.Withdraw)
	admin.POST("/ledger/emergency-withdraw", h.Admin.EmergencyWithdraw)
	admin.POST("/accounts/reactivate", h.Admin.Reactivate)
	admin.POST("/inspectors/add", h.Admin.AddInspector)
	admin.POST("/inspectors/remove", h.Admin.RemoveInspector)
	admin.POST("/recycling/lift-ban", h.Admin.LiftRecyclingBan)
}
