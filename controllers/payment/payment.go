package paymentController

import (
	"errors"
	"log"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services"
	"lms/utils"
	paymentValidator "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

func paymentService() *services.PaymentService {
	return services.NewPaymentService(database.Database.Db, utils.NewStripeService(), config.AppConfig.Currency)
}

// Checkout creates a pending payment and opens a provider checkout session.
func Checkout(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCheckout").(*paymentValidator.CheckoutRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	// An enrollment reference must belong to the caller and the formation
	if reqData.EnrollmentID != nil {
		var enrollment courseModels.Enrollment
		if err := database.Database.Db.First(&enrollment, *reqData.EnrollmentID).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
		}
		if enrollment.UserID != userID || enrollment.FormationID != reqData.FormationID {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Enrollment does not match this request!", nil)
		}
	}

	result, err := paymentService().CreateForEnrollment(userID, reqData.FormationID, reqData.EnrollmentID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Formation not found!", nil)
		}
		log.Printf("Error creating checkout: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create checkout session!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Checkout session created successfully!", result)
}

// Refund refunds part or all of a completed payment. Admin only.
func Refund(c *fiber.Ctx) error {
	paymentID := c.Locals("paymentID").(uint)

	reqData, ok := c.Locals("validatedRefund").(*paymentValidator.RefundRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	payment, err := paymentService().Refund(paymentID, reqData.Amount, reqData.Reason)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Payment not found!", nil)
		}
		if errors.Is(err, services.ErrNotRefundable) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Payment cannot be refunded!", nil)
		}
		log.Printf("Error refunding payment %d: %v", paymentID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to refund payment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment refunded successfully!", payment)
}

// List returns the authenticated user's payments.
func List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var payments []models.Payment
	err := database.Database.Db.Where("user_id = ?", userID).Order("created_at desc").Find(&payments).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch payments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payments fetched successfully!", payments)
}

// StripeWebhook receives provider event deliveries. Signature failures answer
// 400; infrastructural failures answer 500 so the provider retries; every
// domain outcome acknowledges with 200.
func StripeWebhook(c *fiber.Ctx) error {
	if config.AppConfig.StripeWebhookSecret == "" {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Webhook processing is disabled!", nil)
	}

	payload := c.Body()
	sigHeader := c.Get("Stripe-Signature")

	stripe := utils.NewStripeService()
	event, err := stripe.ParseWebhookEvent(payload, sigHeader)
	if err != nil {
		log.Printf("[WEBHOOK] Rejected delivery: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid webhook payload!", nil)
	}

	webhooks := services.NewWebhookService(database.Database.Db, paymentService())
	if err := webhooks.HandleEvent(*event); err != nil {
		log.Printf("[WEBHOOK] Processing failed for event %s: %v", event.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process event!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Event processed.", nil)
}
