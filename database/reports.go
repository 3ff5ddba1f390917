package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertReport stores r, assigning its id when unset.
func (m *Mongo) InsertReport(ctx context.Context, r *models.Report) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if _, err := m.col(colReports).InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReports pages by descending _id, fetching one extra row to detect a
// following page.
func (m *Mongo) ListReports(ctx context.Context, f ReportFilter) ([]models.Report, string, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if f.Limit > 0 {
		findOpts.SetLimit(int64(f.Limit + 1))
	}

	cur, err := m.col(colReports).Find(ctx, reportQuery(f), findOpts)
	if err != nil {
		return nil, "", fmt.Errorf("find reports: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]models.Report, 0, max(f.Limit, 0))
	var nextCursor string
	for cur.Next(ctx) {
		var doc models.Report
		if err := cur.Decode(&doc); err != nil {
			return nil, "", fmt.Errorf("decode report: %w", err)
		}
		if f.Limit > 0 && len(items) == f.Limit {
			nextCursor = items[len(items)-1].ID.Hex()
			break
		}
		items = append(items, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, "", err
	}
	return items, nextCursor, nil
}

// UpdateStatus sets the case status and returns the updated record.
func (m *Mongo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Report, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := m.col(colReports).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		opts)

	var doc models.Report
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return &doc, nil
}

// InsertVolunteer stores v, assigning its id when unset.
func (m *Mongo) InsertVolunteer(ctx context.Context, v *models.Volunteer) error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if _, err := m.col(colVolunteers).InsertOne(ctx, v); err != nil {
		return fmt.Errorf("insert volunteer: %w", err)
	}
	return nil
}

// ListVolunteers returns every registration, newest first.
func (m *Mongo) ListVolunteers(ctx context.Context) ([]models.Volunteer, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "registered_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.col(colVolunteers).Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find volunteers: %w", err)
	}
	out := []models.Volunteer{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode volunteers: %w", err)
	}
	return out, nil
}

// reportQuery translates f into a Mongo filter document.
func reportQuery(f ReportFilter) bson.M {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Start != nil {
		setRange(filter, "submitted_at", "$gte", *f.Start)
	}
	if f.End != nil {
		setRange(filter, "submitted_at", "$lte", *f.End)
	}
	if f.BBox != nil {
		filter["coordinates.latitude"] = bson.M{"$gte": f.BBox.MinLat, "$lte": f.BBox.MaxLat}
		filter["coordinates.longitude"] = bson.M{"$gte": f.BBox.MinLng, "$lte": f.BBox.MaxLng}
	}
	if !f.Cursor.IsZero() {
		filter["_id"] = bson.M{"$lt": f.Cursor}
	}
	return filter
}

func setRange(m bson.M, key, op string, t time.Time) {
	if m[key] == nil {
		m[key] = bson.M{}
	}
	m[key].(bson.M)[op] = t
}
