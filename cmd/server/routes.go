package main

import (
	"courier-dispatch/internal/middleware"
)

func (a *AppContext) setupRoutes() {
	r := a.Router

	// ── Global Middleware (outermost → innermost) ──
	r.Use(middleware.Logger())                 // 1. Request logging
	r.Use(middleware.Recovery())               // 2. Panic recovery
	r.Use(middleware.RateLimit(a.RateLimiter)) // 3. Per-IP rate limiting
	r.Use(middleware.Auth(a.JWTService))       // 4. JWT auth (skips /health)

	// ── Health (no auth) ──
	r.GET("/health", a.healthCheck)

	// ── Intake Routes (role: staff or admin) ──
	// Kitchen terminals place orders on behalf of customers and move them
	// through preparation.
	intake := r.Group("")
	intake.Use(middleware.RoleGuard("staff", "admin"))
	intake.Use(middleware.Bulkhead(a.Config.Bulkhead.MutationPool))
	intake.Use(middleware.Idempotency(a.IdempotencyStore))
	{
		intake.POST("/orders", a.OrderHandler.PlaceOrder)
		intake.PATCH("/orders/:id/preparing", a.OrderHandler.MarkPreparing)
		intake.PATCH("/orders/:id/ready", a.OrderHandler.MarkReady)
		intake.GET("/orders/:id", a.OrderHandler.GetOrder)
		intake.GET("/orders/:id/history", a.OrderHandler.GetHistory)
		intake.DELETE("/orders/:id", a.OrderHandler.CancelOrder)
	}

	// ── Driver Routes (role: driver) ──
	driverGroup := r.Group("/driver")
	driverGroup.Use(middleware.RoleGuard("driver"))
	{
		// Heartbeat gets its own bulkhead pool (high concurrency)
		heartbeat := driverGroup.Group("")
		heartbeat.Use(middleware.Bulkhead(a.Config.Bulkhead.HeartbeatPool))
		{
			heartbeat.POST("/me/heartbeat", a.DriverHandler.Heartbeat)
		}

		driverGroup.GET("/me/assignment", a.AssignmentHandler.Current)

		// Mutations get the mutation pool
		mutations := driverGroup.Group("")
		mutations.Use(middleware.Bulkhead(a.Config.Bulkhead.MutationPool))
		mutations.Use(middleware.Idempotency(a.IdempotencyStore))
		{
			mutations.POST("/assignments/:id/accept", a.AssignmentHandler.Accept)
			mutations.POST("/assignments/:id/reject", a.AssignmentHandler.Reject)
			mutations.POST("/assignments/:id/start", a.AssignmentHandler.Start)
			mutations.POST("/assignments/:id/complete", a.AssignmentHandler.Complete)
		}
	}

	// ── Admin Routes (role: admin) ──
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.RoleGuard("admin"))
	adminGroup.Use(middleware.Bulkhead(a.Config.Bulkhead.AdminPool))
	{
		adminGroup.GET("/orders", a.AdminHandler.ListOrders)
		adminGroup.GET("/orders/:id/assignments", a.AdminHandler.OrderAssignments)
		adminGroup.POST("/orders/:id/cancel", a.AdminHandler.CancelOrder)
		adminGroup.GET("/drivers", a.AdminHandler.ListDrivers)
		adminGroup.POST("/drivers", a.DriverHandler.RegisterDriver)
		adminGroup.PATCH("/drivers/:id/active", a.DriverHandler.SetActive)
		adminGroup.POST("/assignments", a.AdminHandler.ManualAssign)
		adminGroup.DELETE("/assignments/:id", a.AdminHandler.CancelAssignment)

		// Dispatch endpoints sit behind a circuit breaker: they fan out to
		// the geo providers.
		dispatchGroup := adminGroup.Group("")
		dispatchGroup.Use(middleware.CircuitBreaker(
			a.Config.CircuitBreaker.FailureThreshold,
			a.Config.CircuitBreaker.CooldownSeconds,
		))
		{
			dispatchGroup.POST("/orders/:id/auto-assign", a.DispatchHandler.AutoAssign)
			dispatchGroup.POST("/dispatch/nearest", a.DispatchHandler.NearestDriver)
		}
	}
}
