package certificateValidator

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

// Generate validates the enrollment route parameter for certificate issuance.
func Generate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		enrollmentID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}

		c.Locals("enrollmentID", enrollmentID)
		return c.Next()
	}
}

// CertificateID validates the certificate route parameter.
func CertificateID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		certificateID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Certificate ID!", nil)
		}

		c.Locals("certificateID", certificateID)
		return c.Next()
	}
}

// VerifyCode validates the verification code route parameter.
func VerifyCode() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.TrimSpace(c.Params("code"))
		if len(code) != 8 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid verification code!", nil)
		}

		c.Locals("verificationCode", strings.ToUpper(code))
		return c.Next()
	}
}

// VerifyNumber validates the certificate number route parameter.
func VerifyNumber() fiber.Handler {
	return func(c *fiber.Ctx) error {
		number := strings.TrimSpace(c.Params("number"))
		if !strings.HasPrefix(number, "CERT-") || len(number) != len("CERT-")+12 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate number!", nil)
		}

		c.Locals("certificateNumber", strings.ToUpper(number))
		return c.Next()
	}
}

// RevokeRequest carries the optional revocation reason.
type RevokeRequest struct {
	Reason string `json:"reason"`
}

// Revoke validator middleware
func Revoke() fiber.Handler {
	return func(c *fiber.Ctx) error {
		certificateID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Certificate ID!", nil)
		}

		reqData := new(RevokeRequest)
		// Reason is optional
		_ = c.BodyParser(reqData)

		c.Locals("certificateID", certificateID)
		c.Locals("validatedRevoke", reqData)
		return c.Next()
	}
}
