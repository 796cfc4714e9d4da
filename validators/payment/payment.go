package paymentValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// CheckoutRequest is the validated checkout payload.
type CheckoutRequest struct {
	FormationID  uint  `json:"formation_id"`
	EnrollmentID *uint `json:"enrollment_id"`
}

// Checkout validator middleware
func Checkout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CheckoutRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		// Validate Formation ID
		if reqData.FormationID == 0 {
			errors["formation_id"] = "Formation ID is required!"
		}

		if reqData.EnrollmentID != nil && *reqData.EnrollmentID == 0 {
			errors["enrollment_id"] = "Invalid Enrollment ID!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCheckout", reqData)
		return c.Next()
	}
}

// RefundRequest is the validated refund payload. A nil amount refunds the
// remainder.
type RefundRequest struct {
	Amount *float64 `json:"amount"`
	Reason string   `json:"reason"`
}

// Refund validator middleware
func Refund() fiber.Handler {
	return func(c *fiber.Ctx) error {
		paymentID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Payment ID!", nil)
		}

		reqData := new(RefundRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Amount != nil && *reqData.Amount <= 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{"amount": "Amount must be greater than 0!"})
		}

		c.Locals("paymentID", paymentID)
		c.Locals("validatedRefund", reqData)
		return c.Next()
	}
}
