// path: models/report.go
package models

import (
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/geo"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportType is the incident category chosen on the intake form.
type ReportType string

const (
	ReportEmergency     ReportType = "emergency"
	ReportAbuse         ReportType = "abuse"
	ReportMissingPet    ReportType = "missing_pet"
	ReportFoundPet      ReportType = "found_pet"
	ReportSterilization ReportType = "sterilization"
)

var reportTitles = map[ReportType]string{
	ReportEmergency:     "Medical Emergency",
	ReportAbuse:         "Abuse or Neglect",
	ReportMissingPet:    "Missing Pet",
	ReportFoundPet:      "Found Pet",
	ReportSterilization: "Sterilization Request",
}

// Valid reports whether t is a known category.
func (t ReportType) Valid() bool {
	_, ok := reportTitles[t]
	return ok
}

// Title is the human label for t; unknown types fall back to the raw value.
func (t ReportType) Title() string {
	if s, ok := reportTitles[t]; ok {
		return s
	}
	return string(t)
}

// Status values a case moves through in the admin dashboard.
const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusEscalated  = "Escalated"
)

// ValidStatus reports whether s is one of the four case statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusEscalated:
		return true
	}
	return false
}

// MediaType classifies an upload by its MIME type.
func MediaType(mime string) string {
	if strings.HasPrefix(mime, "image/") {
		return "image"
	}
	return "video"
}

type Report struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Type          ReportType         `bson:"type" json:"type"`
	Description   string             `bson:"description" json:"description"`
	Location      string             `bson:"location" json:"location"`
	ReporterName  string             `bson:"reporter_name" json:"reporterName"`
	ReporterPhone string             `bson:"reporter_phone" json:"reporterPhone"`
	MediaURL      string             `bson:"media_url" json:"mediaUrl"`
	MediaType     string             `bson:"media_type" json:"mediaType"`
	Coordinates   geo.Coordinates    `bson:"coordinates" json:"coordinates"`

	AIPriority      string `bson:"ai_priority,omitempty" json:"aiPriority,omitempty"`
	AIJustification string `bson:"ai_justification,omitempty" json:"aiJustification,omitempty"`

	Status      string    `bson:"status" json:"status"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submittedAt"`
}
