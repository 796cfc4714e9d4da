package enrollmentController

import (
	"errors"
	"log"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services"
	"lms/utils"
	enrollmentValidator "lms/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

// statusCodeFor maps service sentinel errors onto HTTP status codes.
func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidState):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrPaymentRequired):
		return fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrCrossCourseReference), errors.Is(err, services.ErrNotEligible):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// loadOwnedEnrollment fetches the enrollment and verifies it belongs to the
// authenticated user.
func loadOwnedEnrollment(c *fiber.Ctx, enrollmentID uint) (*courseModels.Enrollment, error) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.First(&enrollment, enrollmentID).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	if enrollment.UserID != userID {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not have access to this enrollment!", nil)
	}

	return &enrollment, nil
}

// Enroll creates a pending enrollment for the authenticated user.
func Enroll(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	formationID := c.Locals("formationID").(uint)

	service := services.NewEnrollmentService(database.Database.Db)
	enrollment, err := service.Create(userID, formationID, services.CreateEnrollmentInput{})
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this formation!", nil)
		}
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Formation not found!", nil)
		}
		log.Printf("Error creating enrollment: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully!", enrollment)
}

// Validate activates a pending enrollment once its payment condition is met.
func Validate(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)

	enrollment, err := loadOwnedEnrollment(c, enrollmentID)
	if err != nil {
		return err
	}

	service := services.NewEnrollmentService(database.Database.Db)
	activated, serviceErr := service.Validate(enrollment.ID)
	if serviceErr != nil {
		if errors.Is(serviceErr, services.ErrPaymentRequired) {
			return middleware.JsonResponse(c, fiber.StatusPaymentRequired, false, "Payment is required before activation!", nil)
		}
		if errors.Is(serviceErr, services.ErrInvalidState) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment is not pending!", nil)
		}
		log.Printf("Error validating enrollment %d: %v", enrollmentID, serviceErr)
		return middleware.JsonResponse(c, statusCodeFor(serviceErr), false, "Failed to validate enrollment!", nil)
	}

	// Notify the student asynchronously
	go func(enrollment courseModels.Enrollment) {
		var user models.User
		var formation courseModels.Formation
		db := database.Database.Db
		if err := db.First(&user, enrollment.UserID).Error; err != nil {
			return
		}
		if err := db.First(&formation, enrollment.FormationID).Error; err != nil {
			return
		}
		utils.SendEnrollmentActivatedEmail(&user, &formation)
	}(*activated)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment activated successfully!", activated)
}

// Cancel cancels a non-terminal enrollment.
func Cancel(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)

	enrollment, err := loadOwnedEnrollment(c, enrollmentID)
	if err != nil {
		return err
	}

	service := services.NewEnrollmentService(database.Database.Db)
	cancelled, serviceErr := service.Cancel(enrollment.ID)
	if serviceErr != nil {
		if errors.Is(serviceErr, services.ErrInvalidState) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment is already terminal!", nil)
		}
		log.Printf("Error cancelling enrollment %d: %v", enrollmentID, serviceErr)
		return middleware.JsonResponse(c, statusCodeFor(serviceErr), false, "Failed to cancel enrollment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment cancelled successfully!", cancelled)
}

// List returns the authenticated user's enrollments with pagination.
func List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	// Set default pagination
	page := 1
	limit := 20
	if reqData, ok := c.Locals("validatedList").(*enrollmentValidator.ListRequest); ok {
		if reqData.Page != nil {
			page = *reqData.Page
		}
		if reqData.Limit != nil {
			limit = *reqData.Limit
		}
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&courseModels.Enrollment{}).Where("user_id = ?", userID)

	// Get total count
	var total int64
	db.Count(&total)

	// Fetch paginated data
	var enrollments []courseModels.Enrollment
	if err := db.Offset(offset).Limit(limit).Order("created_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	// Prepare response
	response := map[string]interface{}{
		"enrollments": enrollments,
		"pagination": map[string]interface{}{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", response)
}

// Get returns one enrollment with its per-lesson progress records.
func Get(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)

	enrollment, err := loadOwnedEnrollment(c, enrollmentID)
	if err != nil {
		return err
	}

	var progress []courseModels.LessonProgress
	if err := database.Database.Db.Where("enrollment_id = ?", enrollment.ID).Find(&progress).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	response := map[string]interface{}{
		"enrollment": enrollment,
		"progress":   progress,
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment fetched successfully!", response)
}
