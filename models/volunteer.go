// path: models/volunteer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Volunteer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	Interests    []string           `bson:"interests" json:"interests"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registeredAt"`
}
