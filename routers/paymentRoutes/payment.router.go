package paymentRoutes

import (
	paymentControllers "lms/controllers/payment"
	"lms/middleware"
	paymentValidators "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App) {
	paymentGroup := app.Group("/payments")

	paymentGroup.Post("/checkout", paymentValidators.Checkout(), middleware.JWTMiddleware, paymentControllers.Checkout)
	paymentGroup.Get("", middleware.JWTMiddleware, paymentControllers.List)
	paymentGroup.Post("/:id/refund", paymentValidators.Refund(), middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), paymentControllers.Refund)

	// Provider callback, authenticated by signature instead of JWT
	app.Post("/webhooks/stripe", paymentControllers.StripeWebhook)
}
