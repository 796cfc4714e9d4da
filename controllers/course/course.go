package courseController

import (
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// ListFormations returns the published catalog.
func ListFormations(c *fiber.Ctx) error {
	db := database.Database.Db

	var formations []courseModels.Formation
	if err := db.Where("is_published = ?", true).Order("created_at desc").Find(&formations).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch formations!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Formations fetched successfully!", formations)
}

// GetFormation returns one published formation with its module and lesson
// outline. Lesson content bodies are withheld; only preview lessons carry them.
func GetFormation(c *fiber.Ctx) error {
	formationID := c.Locals("formationID").(uint)

	db := database.Database.Db

	var formation courseModels.Formation
	if err := db.Where("id = ? AND is_published = ?", formationID, true).First(&formation).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Formation not found!", nil)
	}

	var modules []courseModels.Module
	if err := db.Where("formation_id = ? AND is_published = ?", formationID, true).
		Order("order_index asc, id asc").Find(&modules).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch modules!", nil)
	}

	var lessons []courseModels.Lesson
	if err := db.Where("formation_id = ? AND is_published = ?", formationID, true).
		Order("order_index asc, id asc").Find(&lessons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
	}

	// Strip content from non-preview lessons
	for i := range lessons {
		if !lessons[i].IsPreview {
			lessons[i].Content = ""
			lessons[i].VideoURL = ""
		}
	}

	outline := make([]map[string]interface{}, 0, len(modules))
	for _, module := range modules {
		moduleLessons := make([]courseModels.Lesson, 0)
		for _, lesson := range lessons {
			if lesson.ModuleID == module.ID {
				moduleLessons = append(moduleLessons, lesson)
			}
		}
		outline = append(outline, map[string]interface{}{
			"module":  module,
			"lessons": moduleLessons,
		})
	}

	response := map[string]interface{}{
		"formation": formation,
		"outline":   outline,
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Formation fetched successfully!", response)
}
