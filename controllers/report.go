// path: controllers/report.go
package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/database"
	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/models"
	"github.com/learnercloudtech/Karunya-Kripa/storage"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgMediaRequired  = "Media file is required."
	msgBadCoordinates = "Invalid coordinates."
	msgBadType        = "Invalid report type."
	msgBadMedia       = "Media must be an image or a video."
	msgBadStatus      = "Invalid status value."
	msgNoReport       = "Report not found."
)

// HandlePostReport stores a multipart report together with its media file.
func (a *API) HandlePostReport(c *fiber.Ctx) error {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Status(fiber.StatusUnsupportedMediaType).
			JSON(models.ErrorResp{Message: "Unsupported content type."})
	}

	fh, err := c.FormFile("media")
	if err != nil || fh == nil {
		a.metrics.UploadRejected("missing_media")
		return badReq(c, msgMediaRequired)
	}

	doc, msg := reportFromForm(c)
	if msg != "" {
		a.metrics.UploadRejected("invalid_field")
		return badReq(c, msg)
	}

	saved, err := a.media.SaveFormFile(fh)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		a.metrics.UploadRejected("too_large")
		return badReq(c, fmt.Sprintf("File is too large. Please upload a file smaller than %dMB.", a.media.MaxBytes()/(1<<20)))
	case errors.Is(err, storage.ErrUnsupportedType):
		a.metrics.UploadRejected("media_type")
		return badReq(c, msgBadMedia)
	case err != nil:
		return a.serverErr(c, "Error saving report", err)
	}

	doc.MediaURL = a.mediaURL(c, saved.Path)
	doc.MediaType = saved.MediaType
	doc.Status = models.StatusOpen
	doc.SubmittedAt = time.Now().UTC()

	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := a.reports.InsertReport(ctx, &doc); err != nil {
		if rmErr := a.media.Remove(saved.Name); rmErr != nil {
			a.logger.Warn("orphaned media", zap.String("name", saved.Name), zap.Error(rmErr))
		}
		return a.serverErr(c, "Error saving report", err)
	}

	a.metrics.ReportCreated(doc.Type, saved.Size)
	a.logger.Info("report stored",
		zap.String("id", doc.ID.Hex()),
		zap.String("type", string(doc.Type)),
		zap.String("media", saved.Name))
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// reportFromForm reads and validates the text fields. A non-empty message
// describes the first problem found.
func reportFromForm(c *fiber.Ctx) (models.Report, string) {
	field := func(k string) string { return strings.TrimSpace(c.FormValue(k)) }

	doc := models.Report{
		Type:            models.ReportType(field("type")),
		Description:     field("description"),
		Location:        field("location"),
		ReporterName:    field("reporterName"),
		ReporterPhone:   field("reporterPhone"),
		AIPriority:      field("aiPriority"),
		AIJustification: field("aiJustification"),
	}
	if !doc.Type.Valid() {
		return doc, msgBadType
	}
	for _, f := range []struct{ name, val string }{
		{"description", doc.Description},
		{"location", doc.Location},
		{"reporterName", doc.ReporterName},
		{"reporterPhone", doc.ReporterPhone},
	} {
		if f.val == "" {
			return doc, fmt.Sprintf("Missing required field: %s.", f.name)
		}
	}

	var coords geo.Coordinates
	if err := json.Unmarshal([]byte(c.FormValue("coordinates")), &coords); err != nil || !coords.Valid() {
		return doc, msgBadCoordinates
	}
	doc.Coordinates = coords
	return doc, ""
}

// HandleUpdateStatus moves a report to one of the case statuses.
func (a *API) HandleUpdateStatus(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return notFound(c, msgNoReport)
	}
	var body models.StatusUpdate
	if err := c.BodyParser(&body); err != nil || !models.ValidStatus(body.Status) {
		return badReq(c, msgBadStatus)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	doc, err := a.reports.UpdateStatus(ctx, id, body.Status)
	if errors.Is(err, database.ErrNotFound) {
		return notFound(c, msgNoReport)
	}
	if err != nil {
		return a.serverErr(c, "Error updating report status", err)
	}

	a.metrics.StatusUpdated(body.Status)
	a.logger.Info("status updated", zap.String("id", id.Hex()), zap.String("status", body.Status))
	return c.JSON(doc)
}
