// path: controllers/reports_list.go
package controllers

import (
	"strconv"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/database"
	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxListLimit = 500
	// HeaderNextCursor carries the cursor of the following page.
	HeaderNextCursor = "X-Next-Cursor"
)

// HandleListReports returns reports newest first. Without a limit every
// match is returned.
func (a *API) HandleListReports(c *fiber.Ctx) error {
	f, msg := listFilter(c)
	if msg != "" {
		return badReq(c, msg)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	items, next, err := a.reports.ListReports(ctx, f)
	if err != nil {
		return a.serverErr(c, "Error fetching reports", err)
	}
	if items == nil {
		items = []models.Report{}
	}
	if next != "" {
		c.Set(HeaderNextCursor, next)
	}
	return c.Status(fiber.StatusOK).JSON(items)
}

func listFilter(c *fiber.Ctx) (database.ReportFilter, string) {
	var f database.ReportFilter

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, "invalid limit"
		}
		if n < 1 {
			n = 1
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		f.Limit = n
	}

	if t := c.Query("type"); t != "" {
		f.Type = models.ReportType(t)
		if !f.Type.Valid() {
			return f, msgBadType
		}
	}
	if s := c.Query("status"); s != "" {
		if !models.ValidStatus(s) {
			return f, msgBadStatus
		}
		f.Status = s
	}
	if sd := c.Query("start_date"); sd != "" {
		t, err := time.Parse(time.RFC3339, sd)
		if err != nil {
			return f, "invalid start_date (RFC3339)"
		}
		f.Start = &t
	}
	if ed := c.Query("end_date"); ed != "" {
		t, err := time.Parse(time.RFC3339, ed)
		if err != nil {
			return f, "invalid end_date (RFC3339)"
		}
		f.End = &t
	}
	if bb := c.Query("bbox"); bb != "" {
		box, err := geo.ParseBBox(bb)
		if err != nil {
			return f, "invalid bbox (minLng,minLat,maxLng,maxLat)"
		}
		f.BBox = &box
	}
	if cursorHex := c.Query("cursor"); cursorHex != "" {
		oid, err := primitive.ObjectIDFromHex(cursorHex)
		if err != nil {
			return f, "invalid cursor"
		}
		f.Cursor = oid
	}
	return f, ""
}
