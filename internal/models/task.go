package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task status values.
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Task priority values.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// ValidStatuses and ValidPriorities are the closed enum sets accepted on
// create and update.
var (
	ValidStatuses   = map[string]bool{StatusTodo: true, StatusInProgress: true, StatusCompleted: true}
	ValidPriorities = map[string]bool{PriorityLow: true, PriorityMedium: true, PriorityHigh: true}
)

// Task is a single tracked item stored in the MongoDB tasks collection.
// UserID scopes every query; it never changes after insert.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	UserID      string              `bson:"user_id"`
	Title       string              `bson:"title"`
	Description string              `bson:"description,omitempty"`
	Status      string              `bson:"status"`
	Priority    string              `bson:"priority"`
	DueDate     *time.Time          `bson:"due_date,omitempty"`
	CategoryID  *primitive.ObjectID `bson:"category_id,omitempty"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

// TaskDraft is a validated, normalized task-create payload with defaults
// already applied.
type TaskDraft struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	CategoryID  string // hex id, empty when unset
}

// TaskPatch is a validated partial update. Nil pointer means the field was
// absent from the request; the Clear flags record an explicit JSON null for
// the optional fields that support clearing.
type TaskPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *string
	Priority         *string
	DueDate          *time.Time
	ClearDueDate     bool
	CategoryID       *string
	ClearCategory    bool
}

// Empty reports whether the patch names no field at all.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && !p.ClearDescription &&
		p.Status == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate &&
		p.CategoryID == nil && !p.ClearCategory
}

// Task list sort fields, as exposed in the sort_by query parameter.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
	SortTitle     = "title"
	SortDueDate   = "dueDate"
	SortPriority  = "priority"
	SortStatus    = "status"
)

// ValidSortFields maps accepted sort_by values to stored field names.
var ValidSortFields = map[string]string{
	SortCreatedAt: "created_at",
	SortUpdatedAt: "updated_at",
	SortTitle:     "title",
	SortDueDate:   "due_date",
	SortPriority:  "priority",
	SortStatus:    "status",
}

// TaskFilter narrows a listing. Empty string means the predicate is unset.
// Search matches case-insensitively as a substring of title or description.
type TaskFilter struct {
	Status     string
	Priority   string
	CategoryID string
	Search     string
}

// TaskSort selects ordering for a listing.
type TaskSort struct {
	Field string // one of the Sort* constants
	Order string // "asc" or "desc"
}

// Page selects a 1-based page of fixed size.
type Page struct {
	Number int
	Size   int
}

// TaskQuery bundles the full list tuple. DefaultTaskQuery supplies the
// documented defaults: createdAt desc, page 1, size 10.
type TaskQuery struct {
	Filter TaskFilter
	Sort   TaskSort
	Page   Page
}

func DefaultTaskQuery() TaskQuery {
	return TaskQuery{
		Sort: TaskSort{Field: SortCreatedAt, Order: "desc"},
		Page: Page{Number: 1, Size: 10},
	}
}
