package courseValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// validationErrors flattens validator/v10 output into the response shape used
// across the API.
func validationErrors(err error) map[string]string {
	errors := make(map[string]string)
	for _, fieldError := range err.(validator.ValidationErrors) {
		field := strings.ToLower(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			errors[field] = "This field is required!"
		case "min":
			errors[field] = "Value is too short! Minimum: " + fieldError.Param()
		case "gte":
			errors[field] = "Value must be at least " + fieldError.Param() + "!"
		case "oneof":
			errors[field] = "Value must be one of: " + fieldError.Param()
		default:
			errors[field] = "Invalid value!"
		}
	}
	return errors
}

// parseIDParam validates a positive integer route parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// FormationRequest is the admin payload for creating or updating a formation.
type FormationRequest struct {
	Title           string  `json:"title" validate:"required,min=3"`
	Slug            string  `json:"slug" validate:"required,min=3"`
	Summary         string  `json:"summary"`
	Description     string  `json:"description"`
	Price           float64 `json:"price" validate:"gte=0"`
	PricingTier     string  `json:"pricing_tier" validate:"required,oneof=free basic standard premium enterprise"`
	Language        string  `json:"language"`
	DifficultyLevel string  `json:"difficulty_level"`
	InstructorName  string  `json:"instructor_name"`
	InstructorTitle string  `json:"instructor_title"`
	IsPublished     bool    `json:"is_published"`
}

// CreateFormation validator middleware
func CreateFormation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(FormationRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedFormation", reqData)
		return c.Next()
	}
}

// UpdateFormation validator middleware
func UpdateFormation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		formationID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Formation ID!", nil)
		}

		reqData := new(FormationRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("formationID", formationID)
		c.Locals("validatedFormation", reqData)
		return c.Next()
	}
}

// ModuleRequest is the admin payload for creating or updating a module.
type ModuleRequest struct {
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" validate:"gte=0"`
	IsPublished bool   `json:"is_published"`
}

// CreateModule validator middleware
func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		formationID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Formation ID!", nil)
		}

		reqData := new(ModuleRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("formationID", formationID)
		c.Locals("validatedModule", reqData)
		return c.Next()
	}
}

// LessonRequest is the admin payload for creating or updating a lesson.
type LessonRequest struct {
	Title           string `json:"title" validate:"required,min=3"`
	Summary         string `json:"summary"`
	Content         string `json:"content"`
	VideoURL        string `json:"video_url"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
	OrderIndex      int    `json:"order_index" validate:"gte=0"`
	IsPreview       bool   `json:"is_preview"`
	IsPublished     bool   `json:"is_published"`
}

// CreateLesson validator middleware
func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		moduleID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Module ID!", nil)
		}

		reqData := new(LessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("moduleID", moduleID)
		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

// FormationID validates the formation route parameter.
func FormationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		formationID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Formation ID!", nil)
		}

		c.Locals("formationID", formationID)
		return c.Next()
	}
}
