package store

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mkravets/tasktracker/internal/models"
)

// taskFilterDoc builds the Mongo filter for a task listing. The user_id
// predicate is always present, so no filter combination can cross tenants.
// A malformed category id filter matches nothing rather than erroring: such
// an id cannot reference an existing document.
func taskFilterDoc(userID string, f models.TaskFilter) bson.M {
	filter := bson.M{"user_id": userID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.CategoryID != "" {
		oid, err := primitive.ObjectIDFromHex(f.CategoryID)
		if err != nil {
			oid = primitive.NilObjectID
		}
		filter["category_id"] = oid
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return filter
}

// taskSortDoc maps the exposed sort field onto the stored one and appends
// _id as a tiebreaker so pages stay stable under equal sort keys.
func taskSortDoc(s models.TaskSort) bson.D {
	field, ok := models.ValidSortFields[s.Field]
	if !ok {
		field = "created_at"
	}
	dir := -1
	if s.Order == "asc" {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

// taskPatchDoc translates a validated partial update into $set/$unset
// documents. Absent fields are untouched; explicit nulls unset.
func taskPatchDoc(p models.TaskPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.ClearDescription {
		unset["description"] = ""
	} else if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.ClearDueDate {
		unset["due_date"] = ""
	} else if p.DueDate != nil {
		set["due_date"] = *p.DueDate
	}
	if p.ClearCategory {
		unset["category_id"] = ""
	} else if p.CategoryID != nil {
		oid, err := primitive.ObjectIDFromHex(*p.CategoryID)
		if err == nil {
			set["category_id"] = oid
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
