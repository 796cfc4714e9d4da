package certificateController

import (
	"errors"
	"log"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services"
	"lms/utils"
	certificateValidator "lms/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

func certificateService() *services.CertificateService {
	return services.NewCertificateService(database.Database.Db, utils.NewCertificateFileRenderer())
}

// Generate issues a certificate for a completed enrollment owned by the caller.
func Generate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	enrollmentID := c.Locals("enrollmentID").(uint)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.First(&enrollment, enrollmentID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}
	if enrollment.UserID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not have access to this enrollment!", nil)
	}

	cert, err := certificateService().Generate(enrollmentID)
	if err != nil {
		if errors.Is(err, services.ErrNotEligible) {
			return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Enrollment is not completed!", nil)
		}
		log.Printf("Error generating certificate for enrollment %d: %v", enrollmentID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate certificate!", nil)
	}

	// Notify the student asynchronously
	go func(cert courseModels.Certificate) {
		var user models.User
		if err := database.Database.Db.First(&user, cert.UserID).Error; err != nil {
			return
		}
		utils.SendCertificateIssuedEmail(&user, &cert)
	}(*cert)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate generated successfully!", cert)
}

// List returns the authenticated user's certificates.
func List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var certificates []courseModels.Certificate
	err := database.Database.Db.Where("user_id = ?", userID).Order("created_at desc").Find(&certificates).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certificates)
}

// VerifyByCode is the public verification endpoint by verification code.
func VerifyByCode(c *fiber.Ctx) error {
	code := c.Locals("verificationCode").(string)

	result, err := certificateService().VerifyByCode(code)
	if err != nil {
		log.Printf("Error verifying certificate by code: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Verification completed.", result)
}

// VerifyByNumber is the public verification endpoint by certificate number.
func VerifyByNumber(c *fiber.Ctx) error {
	number := c.Locals("certificateNumber").(string)

	result, err := certificateService().VerifyByNumber(number)
	if err != nil {
		log.Printf("Error verifying certificate by number: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Verification completed.", result)
}

// Revoke revokes an issued certificate. Admin only.
func Revoke(c *fiber.Ctx) error {
	certificateID := c.Locals("certificateID").(uint)

	reqData, _ := c.Locals("validatedRevoke").(*certificateValidator.RevokeRequest)
	reason := ""
	if reqData != nil {
		reason = reqData.Reason
	}

	cert, err := certificateService().Revoke(certificateID, reason)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		if errors.Is(err, services.ErrAlreadyRevoked) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate is already revoked!", nil)
		}
		log.Printf("Error revoking certificate %d: %v", certificateID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to revoke certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate revoked successfully!", cert)
}

// Reactivate reverses a revocation. Admin only.
func Reactivate(c *fiber.Ctx) error {
	certificateID := c.Locals("certificateID").(uint)

	cert, err := certificateService().Reactivate(certificateID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		if errors.Is(err, services.ErrInvalidState) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate is not revoked!", nil)
		}
		log.Printf("Error reactivating certificate %d: %v", certificateID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reactivate certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate reactivated successfully!", cert)
}
