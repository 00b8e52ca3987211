package trip

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:id", func(c *fiber.Ctx) error {
		route, err := svc.GetRoute(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(err)
		}
		return c.JSON(route)
	})

	r.Get("/:id/gpx", func(c *fiber.Ctx) error {
		route, err := svc.GetRoute(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(err)
		}
		body, err := GPX(route)
		if err != nil {
			return routeError(err)
		}
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		c.Attachment("route_" + route.ID + ".gpx")
		return c.Send(body)
	})

	r.Get("/:id/turn-points", func(c *fiber.Ctx) error {
		points, err := svc.RoutePoints(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(err)
		}
		return c.JSON(TurnPoints(points))
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.DeleteRoute(c.Context(), c.Params("id"), userID); err != nil {
			return routeError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func RegisterReportRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/summary", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		period := Period(c.Query("period", string(PeriodWeek)))
		summary, err := svc.ReportSummary(c.Context(), userID, period, time.Now())
		if errors.Is(err, ErrUnknownPeriod) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(summary)
	})
}

func routeError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoPoints):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
