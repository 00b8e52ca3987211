package navigation

import (
	"errors"

	"backend-pedalhub/internal/routing"
	"backend-pedalhub/internal/shared/geo"
	"backend-pedalhub/internal/trip"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/guide-route", authMiddleware, func(c *fiber.Ctx) error {
		var req GuideRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "route_id required")
		}
		guide, err := svc.GuideRoute(c.Context(), req.RouteID)
		if err != nil {
			return guideError(err)
		}
		return c.JSON(guide)
	})

	r.Post("/guide-destination", authMiddleware, func(c *fiber.Ctx) error {
		var req GuideDestinationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		guide, err := svc.GuideDestination(c.Context(),
			geo.Point{Lat: req.StartLat, Lon: req.StartLon},
			geo.Point{Lat: req.DestinationLat, Lon: req.DestinationLon},
		)
		if err != nil {
			return guideError(err)
		}
		return c.JSON(guide)
	})
}

func guideError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidLocations):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, trip.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "route not found")
	case errors.Is(err, routing.ErrRouting):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
