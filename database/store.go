package database

import (
	"context"
	"errors"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a document id matches nothing.
var ErrNotFound = errors.New("database: not found")

// ReportFilter narrows a report listing. Zero fields are ignored; a zero
// Limit returns every match.
type ReportFilter struct {
	Type   models.ReportType
	Status string
	Start  *time.Time
	End    *time.Time
	BBox   *geo.BBox
	// Cursor resumes after the last id of the previous page.
	Cursor primitive.ObjectID
	Limit  int
}

// ReportStore persists incident reports.
type ReportStore interface {
	InsertReport(ctx context.Context, r *models.Report) error
	// ListReports returns matches newest first and, when more rows
	// remain, the cursor for the next page.
	ListReports(ctx context.Context, f ReportFilter) ([]models.Report, string, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Report, error)
}

// VolunteerStore persists volunteer registrations.
type VolunteerStore interface {
	InsertVolunteer(ctx context.Context, v *models.Volunteer) error
	ListVolunteers(ctx context.Context) ([]models.Volunteer, error)
}

// Store is everything the API needs from persistence.
type Store interface {
	ReportStore
	VolunteerStore
	Close(ctx context.Context) error
}

var (
	_ Store = (*Mongo)(nil)
	_ Store = (*MemStore)(nil)
)
