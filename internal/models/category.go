package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category groups a user's tasks. The (user_id, name) pair is unique per
// the compound index the store creates at startup.
type Category struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Name      string             `bson:"name"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// CategoryRequest is the JSON body for category create and rename.
type CategoryRequest struct {
	Name string `json:"name"`
}
