package courseRoutes

import (
	courseControllers "lms/controllers/course"
	"lms/middleware"
	courseValidators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/formations")

	// Public catalog
	courseGroup.Get("", courseControllers.ListFormations)
	courseGroup.Get("/:id", courseValidators.FormationID(), courseControllers.GetFormation)

	// Admin catalog management
	adminGroup := app.Group("/admin/formations")
	adminGroup.Post("", courseValidators.CreateFormation(), middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), courseControllers.CreateFormation)
	adminGroup.Put("/:id", courseValidators.UpdateFormation(), middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), courseControllers.UpdateFormation)
	adminGroup.Post("/:id/modules", courseValidators.CreateModule(), middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), courseControllers.CreateModule)

	adminModuleGroup := app.Group("/admin/modules")
	adminModuleGroup.Post("/:id/lessons", courseValidators.CreateLesson(), middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), courseControllers.CreateLesson)
}
