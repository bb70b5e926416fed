// Package routes defines the API routing configuration.
package routes

import (
	"time"

	"payway/internal/handlers"
	"payway/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Payment *handlers.PaymentHandler
	Wallet  *handlers.WalletHandler
	OTP     *handlers.OTPHandler
	Health  *handlers.HealthHandler
}

// OTPLimit is the per-IP request budget on the verification code
// endpoints, on top of the per-phone limit enforced by the service.
var OTPLimit = limiter.Config{
	Max:        10,
	Expiration: time.Minute,
	KeyGenerator: func(c *fiber.Ctx) string {
		return c.IP()
	},
	LimitReached: func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fiber.Map{"code": "RATE_LIMIT_EXCEEDED", "message": "too many requests, please try again later"},
		})
	},
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware) {
	app.Get("/health", h.Health.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Provider facing endpoints, authenticated by the confirmation key
	// inside the payload.
	api.Post("/bank-callback-checkout", h.Payment.BankCallback)
	api.Get("/redirect_url", h.Payment.Redirect)

	otp := api.Group("/otp", limiter.New(OTPLimit))
	otp.Post("/send", h.OTP.Send)
	otp.Post("/verify", h.OTP.Verify)

	payments := api.Group("/payments", auth.Handler)
	payments.Post("/", h.Payment.CreatePayment)
	payments.Get("/:id", h.Payment.GetPayment)
	payments.Post("/:id/checkout", h.Payment.Checkout)

	wallet := api.Group("/wallet", auth.Handler)
	wallet.Get("/", h.Wallet.GetWallet)
	wallet.Patch("/", h.Wallet.UpdateSettings)
	wallet.Get("/transactions", h.Wallet.ListTransactions)

	admin := api.Group("/admin", auth.Handler, middleware.AdminAuthMiddleware)
	admin.Post("/payments/:id/refund", h.Payment.Refund)
	admin.Post("/wallets/:user_id", h.Wallet.CreateWallet)
	admin.Post("/wallets/:user_id/transactions", h.Wallet.CreateTransaction)
	admin.Get("/wallets/:user_id/audit", h.Wallet.Audit)
	admin.Post("/referrals", h.Wallet.CreditReferral)
}
