package database

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/learnercloudtech/Karunya-Kripa/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-process Store for development and tests. It applies
// the same filter and paging rules as the Mongo store.
type MemStore struct {
	mu         sync.RWMutex
	reports    map[primitive.ObjectID]models.Report
	volunteers map[primitive.ObjectID]models.Volunteer
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		reports:    map[primitive.ObjectID]models.Report{},
		volunteers: map[primitive.ObjectID]models.Volunteer{},
	}
}

func (s *MemStore) InsertReport(_ context.Context, r *models.Report) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = *r
	return nil
}

func (s *MemStore) ListReports(ctx context.Context, f ReportFilter) ([]models.Report, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	s.mu.RLock()
	matches := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if matchReport(r, f) {
			matches = append(matches, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return newer(matches[i].ID, matches[j].ID) })

	if f.Limit > 0 && len(matches) > f.Limit {
		page := matches[:f.Limit]
		return page, page[len(page)-1].ID.Hex(), nil
	}
	return matches, "", nil
}

func (s *MemStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = status
	s.reports[id] = r
	return &r, nil
}

func (s *MemStore) InsertVolunteer(_ context.Context, v *models.Volunteer) error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	cp := *v
	cp.Interests = append([]string(nil), v.Interests...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volunteers[v.ID] = cp
	return nil
}

func (s *MemStore) ListVolunteers(_ context.Context) ([]models.Volunteer, error) {
	s.mu.RLock()
	out := make([]models.Volunteer, 0, len(s.volunteers))
	for _, v := range s.volunteers {
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.After(out[j].RegisteredAt)
		}
		return newer(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *MemStore) Close(context.Context) error { return nil }

func newer(a, b primitive.ObjectID) bool { return bytes.Compare(a[:], b[:]) > 0 }

func matchReport(r models.Report, f ReportFilter) bool {
	switch {
	case f.Type != "" && r.Type != f.Type:
		return false
	case f.Status != "" && r.Status != f.Status:
		return false
	case f.Start != nil && r.SubmittedAt.Before(*f.Start):
		return false
	case f.End != nil && r.SubmittedAt.After(*f.End):
		return false
	case f.BBox != nil && !f.BBox.Contains(r.Coordinates):
		return false
	case !f.Cursor.IsZero() && !newer(f.Cursor, r.ID):
		return false
	}
	return true
}
