package enrollmentController

import (
	"errors"
	"log"

	"lms/database"
	"lms/middleware"
	"lms/services"
	enrollmentValidator "lms/validators/enrollment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

func progressService() *services.ProgressService {
	db := database.Database.Db
	return services.NewProgressService(db, services.NewEnrollmentService(db))
}

// CheckAccess evaluates the lesson access policy without side effects.
func CheckAccess(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	if _, err := loadOwnedEnrollment(c, enrollmentID); err != nil {
		return err
	}

	access := services.NewAccessService(database.Database.Db)
	decision, err := access.CanAccessLesson(enrollmentID, lessonID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson or enrollment not found!", nil)
		}
		log.Printf("Error checking lesson access: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access evaluated successfully!", decision)
}

// StartLesson registers a lesson access after the access gate allows it.
func StartLesson(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	if _, err := loadOwnedEnrollment(c, enrollmentID); err != nil {
		return err
	}

	// Gate first, record second
	access := services.NewAccessService(database.Database.Db)
	decision, err := access.CanAccessLesson(enrollmentID, lessonID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson or enrollment not found!", nil)
		}
		log.Printf("Error checking lesson access: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !decision.Accessible {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, decision.Reason, decision)
	}

	var position *int
	if reqData, ok := c.Locals("validatedStart").(*enrollmentValidator.StartRequest); ok {
		position = reqData.CurrentPosition
	}

	progress, err := progressService().Start(enrollmentID, lessonID, position)
	if err != nil {
		log.Printf("Error starting lesson %d for enrollment %d: %v", lessonID, enrollmentID, err)
		return middleware.JsonResponse(c, statusCodeFor(err), false, "Failed to start lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson started successfully!", progress)
}

// UpdateLessonProgress applies a progress percentage and optional watch time.
func UpdateLessonProgress(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	if _, err := loadOwnedEnrollment(c, enrollmentID); err != nil {
		return err
	}

	reqData, ok := c.Locals("validatedProgress").(*enrollmentValidator.ProgressRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	progress, err := progressService().UpdateProgress(enrollmentID, lessonID, services.UpdateProgressInput{
		ProgressPercentage: *reqData.ProgressPercentage,
		CurrentPosition:    reqData.CurrentPosition,
		TimeSpentSeconds:   reqData.TimeSpentSeconds,
	})
	if err != nil {
		if errors.Is(err, services.ErrCrossCourseReference) {
			return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Lesson does not belong to this formation!", nil)
		}
		log.Printf("Error updating lesson progress: %v", err)
		return middleware.JsonResponse(c, statusCodeFor(err), false, "Failed to update progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", progress)
}

// CompleteLesson force-completes a lesson.
func CompleteLesson(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	if _, err := loadOwnedEnrollment(c, enrollmentID); err != nil {
		return err
	}

	progress, err := progressService().Complete(enrollmentID, lessonID)
	if err != nil {
		if errors.Is(err, services.ErrCrossCourseReference) {
			return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Lesson does not belong to this formation!", nil)
		}
		log.Printf("Error completing lesson: %v", err)
		return middleware.JsonResponse(c, statusCodeFor(err), false, "Failed to complete lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson completed successfully!", progress)
}

// ToggleFavorite flips the favorite flag on a lesson.
func ToggleFavorite(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	if _, err := loadOwnedEnrollment(c, enrollmentID); err != nil {
		return err
	}

	progress, err := progressService().ToggleFavorite(enrollmentID, lessonID)
	if err != nil {
		log.Printf("Error toggling favorite: %v", err)
		return middleware.JsonResponse(c, statusCodeFor(err), false, "Failed to toggle favorite!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Favorite toggled successfully!", progress)
}

// UpdateNotes replaces the structured notes on a lesson.
func UpdateNotes(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	if _, err := loadOwnedEnrollment(c, enrollmentID); err != nil {
		return err
	}

	reqData, ok := c.Locals("validatedNotes").(*enrollmentValidator.NotesRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	progress, err := progressService().UpdateNotes(enrollmentID, lessonID, datatypes.JSON(reqData.Notes))
	if err != nil {
		log.Printf("Error updating notes: %v", err)
		return middleware.JsonResponse(c, statusCodeFor(err), false, "Failed to update notes!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notes updated successfully!", progress)
}
