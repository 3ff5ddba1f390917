// path: controllers/helpers.go
package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/database"
	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/metrics"
	"github.com/learnercloudtech/Karunya-Kripa/models"
	"github.com/learnercloudtech/Karunya-Kripa/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// storeTimeout bounds every database call made by a handler.
const storeTimeout = 8 * time.Second

// Locator labels a coordinate pair with a place name.
type Locator interface {
	Reverse(ctx context.Context, c geo.Coordinates) (string, error)
}

// Deps are the collaborators of the API handlers. Locator and Metrics are
// optional.
type Deps struct {
	Reports    database.ReportStore
	Volunteers database.VolunteerStore
	Media      *storage.Local
	Locator    Locator
	Metrics    *metrics.Metrics
	// PublicURL prefixes media links; empty derives it from the request.
	PublicURL string
	Logger    *zap.Logger
}

// API holds the HTTP handlers of the report backend.
type API struct {
	reports    database.ReportStore
	volunteers database.VolunteerStore
	media      *storage.Local
	locator    Locator
	metrics    *metrics.Metrics
	publicURL  string
	logger     *zap.Logger
}

// New wires the handlers.
func New(d Deps) *API {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &API{
		reports:    d.Reports,
		volunteers: d.Volunteers,
		media:      d.Media,
		locator:    d.Locator,
		metrics:    d.Metrics,
		publicURL:  strings.TrimSuffix(d.PublicURL, "/"),
		logger:     d.Logger.Named("api"),
	}
}

// areaLabel is the numeric fallback label for a point.
func areaLabel(lat, lon float64) string {
	return fmt.Sprintf("Near %.3f, %.3f", round3(lat), round3(lon))
}

func round3(f float64) float64 { return float64(int(f*1000)) / 1000.0 }

func badReq(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResp{Message: msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResp{Message: msg})
}

func (a *API) serverErr(c *fiber.Ctx, msg string, err error) error {
	a.logger.Error(msg, zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResp{Message: msg, Error: err.Error()})
}

func storeCtx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), storeTimeout)
}

// mediaURL builds the absolute link of a stored file.
func (a *API) mediaURL(c *fiber.Ctx, path string) string {
	if a.publicURL != "" {
		return a.publicURL + path
	}
	return c.BaseURL() + path
}
