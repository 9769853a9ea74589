package task

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/models"
)

// Store defines the persistence this service needs. Every method is already
// scoped by userID; absent and foreign records are indistinguishable here.
type Store interface {
	InsertTask(ctx context.Context, t *models.Task) (*models.Task, error)
	FindTasks(ctx context.Context, userID string, q models.TaskQuery) ([]models.Task, int64, error)
	GetTask(ctx context.Context, userID, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
	GetCategory(ctx context.Context, userID, id string) (*models.Category, error)
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
}

// Service implements the task operations: ownership-scoped CRUD, category
// reference validation, pagination, and response shaping.
type Service struct {
	store Store
	cache *ListCache // nil disables caching
}

func NewService(store Store, cache *ListCache) *Service {
	return &Service{store: store, cache: cache}
}

// List returns one page of the user's tasks matching the query, with the
// total match count and page arithmetic. Results are served through the
// read-through cache when one is configured.
func (s *Service) List(ctx context.Context, userID string, q models.TaskQuery) (*ListResult, error) {
	if res, ok := s.cache.Get(ctx, userID, q); ok {
		return res, nil
	}

	tasks, total, err := s.store.FindTasks(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	names := map[primitive.ObjectID]string{}
	for _, t := range tasks {
		if t.CategoryID != nil {
			cats, err := s.store.ListCategories(ctx, userID)
			if err != nil {
				return nil, err
			}
			for _, c := range cats {
				names[c.ID] = c.Name
			}
			break
		}
	}

	items := make([]Response, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, shape(t, names))
	}

	size := int64(q.Page.Size)
	res := &ListResult{
		Items:      items,
		Total:      total,
		Page:       q.Page.Number,
		PageSize:   q.Page.Size,
		TotalPages: (total + size - 1) / size,
	}
	s.cache.Put(ctx, userID, q, res)
	return res, nil
}

// Get returns a single shaped task; absent-or-foreign is NOT_FOUND.
func (s *Service) Get(ctx context.Context, userID, id string) (*Response, error) {
	t, err := s.store.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.shapeOne(ctx, userID, t)
}

// Create validates the category reference (it must exist and belong to the
// caller) and inserts the task. Defaults are already applied by validation.
func (s *Service) Create(ctx context.Context, userID string, draft models.TaskDraft) (*Response, error) {
	t := &models.Task{
		UserID:      userID,
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		Priority:    draft.Priority,
		DueDate:     draft.DueDate,
	}

	var catName string
	if draft.CategoryID != "" {
		cat, err := s.store.GetCategory(ctx, userID, draft.CategoryID)
		if err != nil {
			return nil, err
		}
		t.CategoryID = &cat.ID
		catName = cat.Name
	}

	t, err := s.store.InsertTask(ctx, t)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID)

	names := map[primitive.ObjectID]string{}
	if t.CategoryID != nil {
		names[*t.CategoryID] = catName
	}
	out := shape(*t, names)
	return &out, nil
}

// Update applies a partial update: only fields named in the patch change,
// explicit nulls clear. A present category reference is re-checked for
// ownership before the write.
func (s *Service) Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*Response, error) {
	if patch.Empty() {
		return s.Get(ctx, userID, id)
	}
	if patch.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, userID, *patch.CategoryID); err != nil {
			return nil, err
		}
	}
	t, err := s.store.UpdateTask(ctx, userID, id, patch)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID)
	return s.shapeOne(ctx, userID, t)
}

// Delete removes the task; absent-or-foreign is NOT_FOUND.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTask(ctx, userID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

// shapeOne resolves the single task's category reference. A dangling
// reference (category deleted meanwhile) shapes to null.
func (s *Service) shapeOne(ctx context.Context, userID string, t *models.Task) (*Response, error) {
	names := map[primitive.ObjectID]string{}
	if t.CategoryID != nil {
		cat, err := s.store.GetCategory(ctx, userID, t.CategoryID.Hex())
		switch {
		case err == nil:
			names[cat.ID] = cat.Name
		case apperr.KindOf(err) == apperr.KindNotFound:
			// dangling reference, render null
		default:
			return nil, err
		}
	}
	out := shape(*t, names)
	return &out, nil
}
