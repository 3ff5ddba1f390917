// path: controllers/volunteers.go
package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HandlePostVolunteer registers a volunteer.
func (a *API) HandlePostVolunteer(c *fiber.Ctx) error {
	var p models.VolunteerPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}

	v := models.Volunteer{
		Name:         strings.TrimSpace(p.Name),
		Email:        strings.TrimSpace(p.Email),
		Phone:        strings.TrimSpace(p.Phone),
		Interests:    []string{},
		RegisteredAt: time.Now().UTC(),
	}
	for _, in := range p.Interests {
		if in = strings.TrimSpace(in); in != "" {
			v.Interests = append(v.Interests, in)
		}
	}
	for _, f := range []struct{ name, val string }{
		{"name", v.Name},
		{"email", v.Email},
		{"phone", v.Phone},
	} {
		if f.val == "" {
			return badReq(c, fmt.Sprintf("Missing required field: %s.", f.name))
		}
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := a.volunteers.InsertVolunteer(ctx, &v); err != nil {
		return a.serverErr(c, "Error saving volunteer", err)
	}

	a.metrics.VolunteerRegistered()
	a.logger.Info("volunteer registered", zap.String("id", v.ID.Hex()))
	return c.Status(fiber.StatusCreated).JSON(v)
}

// HandleListVolunteers returns every registration, newest first.
func (a *API) HandleListVolunteers(c *fiber.Ctx) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	out, err := a.volunteers.ListVolunteers(ctx)
	if err != nil {
		return a.serverErr(c, "Error fetching volunteers", err)
	}
	if out == nil {
		out = []models.Volunteer{}
	}
	return c.JSON(out)
}
