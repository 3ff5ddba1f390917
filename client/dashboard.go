package client

import (
	"context"

	"github.com/learnercloudtech/Karunya-Kripa/models"

	"golang.org/x/sync/errgroup"
)

// Dashboard is the admin overview: all cases, all volunteers and the
// headline counts.
type Dashboard struct {
	Reports    []models.Report
	Volunteers []models.Volunteer

	Total      int
	Open       int
	InProgress int
	Resolved   int
	Escalated  int
}

// FetchDashboard loads reports and volunteers in parallel. Either failing
// fails the whole fetch.
func (c *Client) FetchDashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := c.ListReports(gctx)
		d.Reports = r
		return err
	})
	g.Go(func() error {
		v, err := c.ListVolunteers(gctx)
		d.Volunteers = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Total = len(d.Reports)
	for _, r := range d.Reports {
		switch r.Status {
		case models.StatusOpen:
			d.Open++
		case models.StatusInProgress:
			d.InProgress++
		case models.StatusResolved:
			d.Resolved++
		case models.StatusEscalated:
			d.Escalated++
		}
	}
	return &d, nil
}
