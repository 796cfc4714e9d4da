package courseController

import (
	"time"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// CreateFormation creates a formation in the catalog. Admin only.
func CreateFormation(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedFormation").(*courseValidator.FormationRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	// Check slug uniqueness
	if err := db.Where("slug = ?", reqData.Slug).First(&courseModels.Formation{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Slug is already in use!", nil)
	}

	formation := courseModels.Formation{
		Title:           reqData.Title,
		Slug:            reqData.Slug,
		Summary:         reqData.Summary,
		Description:     reqData.Description,
		Price:           reqData.Price,
		PricingTier:     courseModels.PricingTier(reqData.PricingTier),
		Language:        reqData.Language,
		DifficultyLevel: reqData.DifficultyLevel,
		InstructorName:  reqData.InstructorName,
		InstructorTitle: reqData.InstructorTitle,
		IsPublished:     reqData.IsPublished,
	}
	if formation.IsPublished {
		now := time.Now()
		formation.PublishedAt = &now
	}

	if err := db.Create(&formation).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create formation!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Formation created successfully!", formation)
}

// UpdateFormation updates an existing formation. Admin only.
func UpdateFormation(c *fiber.Ctx) error {
	formationID := c.Locals("formationID").(uint)
	reqData, ok := c.Locals("validatedFormation").(*courseValidator.FormationRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var formation courseModels.Formation
	if err := db.First(&formation, formationID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Formation not found!", nil)
	}

	// Check slug uniqueness against other formations
	var conflicting courseModels.Formation
	if err := db.Where("slug = ? AND id <> ?", reqData.Slug, formationID).First(&conflicting).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Slug is already in use!", nil)
	}

	formation.Title = reqData.Title
	formation.Slug = reqData.Slug
	formation.Summary = reqData.Summary
	formation.Description = reqData.Description
	formation.Price = reqData.Price
	formation.PricingTier = courseModels.PricingTier(reqData.PricingTier)
	formation.Language = reqData.Language
	formation.DifficultyLevel = reqData.DifficultyLevel
	formation.InstructorName = reqData.InstructorName
	formation.InstructorTitle = reqData.InstructorTitle
	if reqData.IsPublished && !formation.IsPublished {
		now := time.Now()
		formation.PublishedAt = &now
	}
	formation.IsPublished = reqData.IsPublished

	if err := db.Save(&formation).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update formation!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Formation updated successfully!", formation)
}

// CreateModule adds a module to a formation. Admin only.
func CreateModule(c *fiber.Ctx) error {
	formationID := c.Locals("formationID").(uint)
	reqData, ok := c.Locals("validatedModule").(*courseValidator.ModuleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	if err := db.First(&courseModels.Formation{}, formationID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Formation not found!", nil)
	}

	module := courseModels.Module{
		FormationID: formationID,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  reqData.OrderIndex,
		IsPublished: reqData.IsPublished,
	}
	if module.IsPublished {
		now := time.Now()
		module.PublishedAt = &now
	}

	if err := db.Create(&module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

// CreateLesson adds a lesson to a module. Admin only.
func CreateLesson(c *fiber.Ctx) error {
	moduleID := c.Locals("moduleID").(uint)
	reqData, ok := c.Locals("validatedLesson").(*courseValidator.LessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var module courseModels.Module
	if err := db.First(&module, moduleID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
	}

	lesson := courseModels.Lesson{
		ModuleID:        module.ID,
		FormationID:     module.FormationID,
		Title:           reqData.Title,
		Summary:         reqData.Summary,
		Content:         reqData.Content,
		VideoURL:        reqData.VideoURL,
		DurationSeconds: reqData.DurationSeconds,
		OrderIndex:      reqData.OrderIndex,
		IsPreview:       reqData.IsPreview,
		IsPublished:     reqData.IsPublished,
	}

	if err := db.Create(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}
