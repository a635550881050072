package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mdfarid01/RapidTrack/internal/auth"
	"github.com/mdfarid01/RapidTrack/internal/engine"
	apperrors "github.com/mdfarid01/RapidTrack/pkg/util"
)

// AnalyticsHandler serves the aggregate SLA dashboard.
type AnalyticsHandler struct {
	engine *engine.Engine
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(eng *engine.Engine) *AnalyticsHandler {
	return &AnalyticsHandler{engine: eng}
}

// Report GET /analytics.
func (h *AnalyticsHandler) Report(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	report, err := h.engine.Analytics(c.UserContext(), principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
