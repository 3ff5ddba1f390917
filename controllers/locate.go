// path: controllers/locate.go
package controllers

import (
	"context"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const locateTimeout = 10 * time.Second

// HandleLocate labels a point: a reverse-geocoded place name when the
// locator answers, the numeric area label otherwise.
func (a *API) HandleLocate(c *fiber.Ctx) error {
	var req models.LocateRequest
	if err := c.BodyParser(&req); err != nil {
		return badReq(c, "invalid JSON")
	}
	pt := geo.Coordinates{Latitude: req.Lat, Longitude: req.Lon}
	if !pt.Valid() {
		return badReq(c, msgBadCoordinates)
	}

	area := areaLabel(req.Lat, req.Lon)
	label := area
	if a.locator != nil {
		ctx, cancel := context.WithTimeout(c.Context(), locateTimeout)
		defer cancel()
		name, err := a.locator.Reverse(ctx, pt)
		if err != nil {
			a.logger.Info("locate fell back to area label", zap.Stringer("point", pt), zap.Error(err))
			a.metrics.LocateFallback()
		} else {
			label = name
		}
	}
	return c.JSON(models.LocateResponse{Label: label, AreaLabel: area})
}
