package task

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mkravets/tasktracker/internal/models"
)

// CategoryRef is the flattened category projection embedded in task
// responses.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Response is the client-facing task shape: ObjectID rendered as a hex id,
// the category reference resolved to {id, name} or null, timestamps passed
// through.
type Response struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Category    *CategoryRef `json:"category"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ListResult is one page of shaped tasks plus the pagination envelope.
type ListResult struct {
	Items      []Response `json:"items"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int64      `json:"total_pages"`
}

// shape converts a persisted task, resolving the category reference through
// the id->name map. A reference whose category no longer exists shapes to
// null rather than failing the whole response.
func shape(t models.Task, names map[primitive.ObjectID]string) Response {
	resp := Response{
		ID:          t.ID.Hex(),
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.CategoryID != nil {
		if name, ok := names[*t.CategoryID]; ok {
			resp.Category = &CategoryRef{ID: t.CategoryID.Hex(), Name: name}
		}
	}
	return resp
}
