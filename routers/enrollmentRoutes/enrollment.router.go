package enrollmentRoutes

import (
	enrollmentControllers "lms/controllers/enrollment"
	"lms/middleware"
	enrollmentValidators "lms/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

func SetupEnrollmentRoutes(app *fiber.App) {
	enrollmentGroup := app.Group("/enrollments")

	enrollmentGroup.Post("/formation/:id", enrollmentValidators.EnrollFormation(), middleware.JWTMiddleware, enrollmentControllers.Enroll)
	enrollmentGroup.Get("", enrollmentValidators.List(), middleware.JWTMiddleware, enrollmentControllers.List)
	enrollmentGroup.Get("/:id", enrollmentValidators.EnrollmentID(), middleware.JWTMiddleware, enrollmentControllers.Get)
	enrollmentGroup.Patch("/:id/validate", enrollmentValidators.EnrollmentID(), middleware.JWTMiddleware, enrollmentControllers.Validate)
	enrollmentGroup.Patch("/:id/cancel", enrollmentValidators.EnrollmentID(), middleware.JWTMiddleware, enrollmentControllers.Cancel)

	// Per-lesson progress
	enrollmentGroup.Get("/:id/lessons/:lessonId/access", enrollmentValidators.LessonPair(), middleware.JWTMiddleware, enrollmentControllers.CheckAccess)
	enrollmentGroup.Post("/:id/lessons/:lessonId/start", enrollmentValidators.StartLesson(), middleware.JWTMiddleware, enrollmentControllers.StartLesson)
	enrollmentGroup.Patch("/:id/lessons/:lessonId/progress", enrollmentValidators.UpdateProgress(), middleware.JWTMiddleware, enrollmentControllers.UpdateLessonProgress)
	enrollmentGroup.Patch("/:id/lessons/:lessonId/complete", enrollmentValidators.LessonPair(), middleware.JWTMiddleware, enrollmentControllers.CompleteLesson)
	enrollmentGroup.Patch("/:id/lessons/:lessonId/favorite", enrollmentValidators.LessonPair(), middleware.JWTMiddleware, enrollmentControllers.ToggleFavorite)
	enrollmentGroup.Patch("/:id/lessons/:lessonId/notes", enrollmentValidators.UpdateNotes(), middleware.JWTMiddleware, enrollmentControllers.UpdateNotes)
}
