// Package validate holds the pure input-validation functions. Nothing here
// touches storage; every function takes decoded input and returns either a
// normalized value or a *apperr.Error of kind VALIDATION_FAILED carrying one
// reason per offending field.
package validate

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/models"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Register checks a registration payload: name 2-50 chars, address-shaped
// email, password 8-100 chars.
func Register(req models.RegisterRequest) error {
	fields := map[string]string{}
	name := strings.TrimSpace(req.Name)
	if n := len([]rune(name)); n < 2 || n > 50 {
		fields["name"] = "must be 2-50 characters"
	}
	if !emailRe.MatchString(strings.TrimSpace(req.Email)) {
		fields["email"] = "must be a valid email address"
	}
	if n := len(req.Password); n < 8 || n > 100 {
		fields["password"] = "must be 8-100 characters"
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// ProfileName checks the mutable display name on profile update.
func ProfileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := len([]rune(name)); n < 2 || n > 50 {
		return "", apperr.Validation(map[string]string{"name": "must be 2-50 characters"})
	}
	return name, nil
}

// CategoryName trims and checks a category name (2-30 chars).
func CategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := len([]rune(name)); n < 2 || n > 30 {
		return "", apperr.Validation(map[string]string{"name": "must be 2-30 characters"})
	}
	return name, nil
}

func checkTitle(title string, fields map[string]string) string {
	title = strings.TrimSpace(title)
	if n := len([]rune(title)); n < 3 || n > 100 {
		fields["title"] = "must be 3-100 characters"
	}
	return title
}

func checkDescription(desc string, fields map[string]string) {
	if len([]rune(desc)) > 1000 {
		fields["description"] = "must be at most 1000 characters"
	}
}

// parseDueDate accepts RFC 3339 or a bare YYYY-MM-DD date (midnight UTC).
func parseDueDate(raw string) (*time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, true
	}
	return nil, false
}

// TaskCreateRequest is the JSON body for POST /api/tasks.
type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
	CategoryID  string `json:"category_id"`
}

// TaskCreate validates a create payload and returns a draft with the
// documented defaults applied (status TODO, priority MEDIUM).
func TaskCreate(req TaskCreateRequest) (models.TaskDraft, error) {
	fields := map[string]string{}
	draft := models.TaskDraft{
		Title:       checkTitle(req.Title, fields),
		Description: req.Description,
		Status:      models.StatusTodo,
		Priority:    models.PriorityMedium,
		CategoryID:  strings.TrimSpace(req.CategoryID),
	}
	checkDescription(req.Description, fields)
	if req.Status != "" {
		if !models.ValidStatuses[req.Status] {
			fields["status"] = "must be one of TODO, IN_PROGRESS, COMPLETED"
		} else {
			draft.Status = req.Status
		}
	}
	if req.Priority != "" {
		if !models.ValidPriorities[req.Priority] {
			fields["priority"] = "must be one of LOW, MEDIUM, HIGH"
		} else {
			draft.Priority = req.Priority
		}
	}
	if req.DueDate != "" {
		if t, ok := parseDueDate(req.DueDate); ok {
			draft.DueDate = t
		} else {
			fields["due_date"] = "must be an RFC 3339 timestamp or YYYY-MM-DD date"
		}
	}
	if len(fields) > 0 {
		return models.TaskDraft{}, apperr.Validation(fields)
	}
	return draft, nil
}

// TaskPatch validates a partial update decoded as raw JSON members, so an
// absent field, an explicit null, and a present value stay distinguishable.
// Null clears description, due_date, and category_id; the other fields
// reject null.
func TaskPatch(raw map[string]json.RawMessage) (models.TaskPatch, error) {
	fields := map[string]string{}
	var patch models.TaskPatch

	if v, ok := raw["title"]; ok {
		var s string
		if !decodeString(v, &s) {
			fields["title"] = "must be a string"
		} else if t := checkTitle(s, fields); fields["title"] == "" {
			patch.Title = &t
		}
	}
	if v, ok := raw["description"]; ok {
		if isNull(v) {
			patch.ClearDescription = true
		} else {
			var s string
			if !decodeString(v, &s) {
				fields["description"] = "must be a string or null"
			} else {
				checkDescription(s, fields)
				if fields["description"] == "" {
					patch.Description = &s
				}
			}
		}
	}
	if v, ok := raw["status"]; ok {
		var s string
		if !decodeString(v, &s) || !models.ValidStatuses[s] {
			fields["status"] = "must be one of TODO, IN_PROGRESS, COMPLETED"
		} else {
			patch.Status = &s
		}
	}
	if v, ok := raw["priority"]; ok {
		var s string
		if !decodeString(v, &s) || !models.ValidPriorities[s] {
			fields["priority"] = "must be one of LOW, MEDIUM, HIGH"
		} else {
			patch.Priority = &s
		}
	}
	if v, ok := raw["due_date"]; ok {
		if isNull(v) {
			patch.ClearDueDate = true
		} else {
			var s string
			if !decodeString(v, &s) {
				fields["due_date"] = "must be a date string or null"
			} else if t, ok := parseDueDate(s); ok {
				patch.DueDate = t
			} else {
				fields["due_date"] = "must be an RFC 3339 timestamp or YYYY-MM-DD date"
			}
		}
	}
	if v, ok := raw["category_id"]; ok {
		if isNull(v) {
			patch.ClearCategory = true
		} else {
			var s string
			if !decodeString(v, &s) || strings.TrimSpace(s) == "" {
				fields["category_id"] = "must be a category id or null"
			} else {
				s = strings.TrimSpace(s)
				patch.CategoryID = &s
			}
		}
	}

	if len(fields) > 0 {
		return models.TaskPatch{}, apperr.Validation(fields)
	}
	return patch, nil
}

// TaskQuery parses and validates the list query string, applying the
// documented defaults for anything absent.
func TaskQuery(values url.Values) (models.TaskQuery, error) {
	fields := map[string]string{}
	q := models.DefaultTaskQuery()

	if v := values.Get("status"); v != "" {
		if !models.ValidStatuses[v] {
			fields["status"] = "must be one of TODO, IN_PROGRESS, COMPLETED"
		} else {
			q.Filter.Status = v
		}
	}
	if v := values.Get("priority"); v != "" {
		if !models.ValidPriorities[v] {
			fields["priority"] = "must be one of LOW, MEDIUM, HIGH"
		} else {
			q.Filter.Priority = v
		}
	}
	q.Filter.CategoryID = strings.TrimSpace(values.Get("category_id"))
	q.Filter.Search = strings.TrimSpace(values.Get("search"))

	if v := values.Get("sort_by"); v != "" {
		if _, ok := models.ValidSortFields[v]; !ok {
			fields["sort_by"] = "must be one of createdAt, updatedAt, title, dueDate, priority, status"
		} else {
			q.Sort.Field = v
		}
	}
	if v := values.Get("sort_order"); v != "" {
		if v != "asc" && v != "desc" {
			fields["sort_order"] = "must be asc or desc"
		} else {
			q.Sort.Order = v
		}
	}
	if v := values.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n < 1 {
			fields["page"] = "must be a positive integer"
		} else {
			q.Page.Number = n
		}
	}
	if v := values.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n < 1 || n > 100 {
			fields["page_size"] = "must be an integer between 1 and 100"
		} else {
			q.Page.Size = n
		}
	}

	if len(fields) > 0 {
		return models.TaskQuery{}, apperr.Validation(fields)
	}
	return q, nil
}

func isNull(v json.RawMessage) bool {
	return string(v) == "null"
}

func decodeString(v json.RawMessage, dst *string) bool {
	return json.Unmarshal(v, dst) == nil
}
