package certificateRoutes

import (
	certificateControllers "lms/controllers/certificate"
	"lms/middleware"
	certificateValidators "lms/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

func SetupCertificateRoutes(app *fiber.App) {
	certificateGroup := app.Group("/certificates")

	certificateGroup.Post("/enrollment/:id", certificateValidators.Generate(), middleware.JWTMiddleware, certificateControllers.Generate)
	certificateGroup.Get("", middleware.JWTMiddleware, certificateControllers.List)

	// Public verification
	certificateGroup.Get("/verify/code/:code", certificateValidators.VerifyCode(), certificateControllers.VerifyByCode)
	certificateGroup.Get("/verify/number/:number", certificateValidators.VerifyNumber(), certificateControllers.VerifyByNumber)

	// Admin lifecycle management
	certificateGroup.Patch("/:id/revoke", certificateValidators.Revoke(), middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), certificateControllers.Revoke)
	certificateGroup.Patch("/:id/reactivate", certificateValidators.CertificateID(), middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), certificateControllers.Reactivate)
}
