package category

import (
	"context"
	"time"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/models"
	"github.com/mkravets/tasktracker/internal/validate"
)

// Store defines the persistence this service needs.
type Store interface {
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
	InsertCategory(ctx context.Context, c *models.Category) (*models.Category, error)
	GetCategory(ctx context.Context, userID, id string) (*models.Category, error)
	GetCategoryByName(ctx context.Context, userID, name string) (*models.Category, error)
	RenameCategory(ctx context.Context, userID, id, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error
	CountTasksByCategory(ctx context.Context, userID, categoryID string) (int64, error)
}

// Invalidator drops cached task listings; category writes change the
// category projection embedded in them.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// Response is the client-facing category shape.
type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func shape(c models.Category) Response {
	return Response{ID: c.ID.Hex(), Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// Service implements the category operations: per-user listing, uniqueness
// of (name, user), and delete-blocked-while-referenced.
type Service struct {
	store Store
	cache Invalidator
}

func NewService(store Store, cache Invalidator) *Service {
	return &Service{store: store, cache: cache}
}

// List returns the user's categories ordered by name ascending.
func (s *Service) List(ctx context.Context, userID string) ([]Response, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Response, 0, len(cats))
	for _, c := range cats {
		out = append(out, shape(c))
	}
	return out, nil
}

// Create inserts a category, rejecting a per-user name collision. The
// pre-check gives the clean error; the unique index backstops the race.
func (s *Service) Create(ctx context.Context, userID, name string) (*Response, error) {
	name, err := validate.CategoryName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetCategoryByName(ctx, userID, name); err == nil {
		return nil, apperr.DuplicateName(name)
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	c, err := s.store.InsertCategory(ctx, &models.Category{UserID: userID, Name: name})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	resp := shape(*c)
	return &resp, nil
}

// Rename changes a category's name. Absent-or-foreign ids surface uniformly
// as NOT_FOUND; a collision with another of the user's categories is
// DUPLICATE_NAME.
func (s *Service) Rename(ctx context.Context, userID, id, newName string) (*Response, error) {
	newName, err := validate.CategoryName(newName)
	if err != nil {
		return nil, err
	}
	current, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if other, err := s.store.GetCategoryByName(ctx, userID, newName); err == nil {
		if other.ID != current.ID {
			return nil, apperr.DuplicateName(newName)
		}
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	c, err := s.store.RenameCategory(ctx, userID, id, newName)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	resp := shape(*c)
	return &resp, nil
}

// Delete removes a category only when no task references it; otherwise the
// conflict carries the blocking count for the caller to present.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.store.GetCategory(ctx, userID, id); err != nil {
		return err
	}
	count, err := s.store.CountTasksByCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.InUse(count)
	}
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	return nil
}
