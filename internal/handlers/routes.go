package handlers

import (
	"time"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/middleware"
	"wifisub_app/internal/services"
)

// RateLimitWindow is the window for the payment and contact limits
const RateLimitWindow = time.Hour

// Router holds everything the HTTP surface needs
type Router struct {
	Verifier         services.TokenVerifier
	Limiter          services.RateLimiter
	PaymentRateLimit int
	ContactRateLimit int

	Auth          *AuthHandler
	Health        *HealthHandler
	Payments      *PaymentHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler
	Support       *SupportHandler
	Plans         *PlanHandler
}

// Register mounts all routes on e
func (r *Router) Register(e *echo.Echo) {
	e.GET("/healthz", r.Health.Healthz)

	api := e.Group("/api")
	api.GET("/plans", r.Plans.ListActive)
	api.GET("/settings/payment-info", r.Plans.PaymentInfo)
	api.POST("/contact", r.Support.SubmitContact,
		middleware.RateLimit(r.Limiter, "contact", r.ContactRateLimit, RateLimitWindow, middleware.ByIP))

	authed := api.Group("", middleware.RequireAuth(r.Verifier))
	adminOnly := middleware.RequireAdmin()

	authed.GET("/auth/me", r.Auth.Me)

	payments := authed.Group("/payments")
	payments.POST("", r.Payments.Create,
		middleware.RateLimit(r.Limiter, "payment", r.PaymentRateLimit, RateLimitWindow, middleware.ByUser))
	payments.POST("/screenshot", r.Payments.UploadScreenshot)
	payments.GET("", r.Payments.List, adminOnly)
	payments.GET("/my-payments", r.Payments.MyPayments)
	payments.GET("/upcoming", r.Payments.Upcoming)
	payments.GET("/:id", r.Payments.Get)
	payments.PATCH("/:id", r.Payments.Update)
	payments.POST("/:id/approve", r.Payments.Approve, adminOnly)
	payments.POST("/:id/reject", r.Payments.Reject, adminOnly)
	payments.GET("/:id/receipt", r.Payments.Receipt)

	notifications := authed.Group("/notifications")
	notifications.GET("", r.Notifications.List)
	notifications.POST("", r.Notifications.Create, adminOnly)
	notifications.GET("/unread-count", r.Notifications.UnreadCount)
	notifications.POST("/mark-all-read", r.Notifications.MarkAllRead)
	notifications.POST("/:id/mark-read", r.Notifications.MarkRead)
	notifications.DELETE("/:id", r.Notifications.Delete)

	tickets := authed.Group("/tickets")
	tickets.POST("", r.Support.CreateTicket)
	tickets.GET("", r.Support.ListTickets)
	tickets.GET("/:id", r.Support.GetTicket)

	admin := authed.Group("/admin", adminOnly)
	admin.POST("/cleanup-screenshots", r.Admin.CleanupScreenshots)
	admin.GET("/dashboard", r.Admin.Dashboard)
	admin.GET("/payments/export", r.Admin.ExportPayments)
	admin.GET("/users", r.Admin.ListUsers)
	admin.PATCH("/users/:id/status", r.Admin.SetUserStatus)
	admin.GET("/tickets", r.Support.ListTickets)
	admin.PATCH("/tickets/:id", r.Support.UpdateTicket)
	admin.GET("/contact-queries", r.Support.ListContacts)
	admin.PATCH("/contact-queries/:id", r.Support.UpdateContact)
	admin.GET("/plans", r.Plans.ListAll)
	admin.POST("/plans", r.Plans.Create)
	admin.POST("/plans/reorder", r.Plans.Reorder)
	admin.PUT("/plans/:id", r.Plans.Update)
	admin.DELETE("/plans/:id", r.Plans.Delete)
	admin.GET("/settings", r.Plans.Settings)
	admin.PUT("/settings", r.Plans.UpdateSettings)
}
