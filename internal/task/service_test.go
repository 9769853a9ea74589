package task

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/models"
)

// fakeStore is an in-memory Store with the same filter/sort/page and
// ownership semantics as the Mongo implementation.
type fakeStore struct {
	seq        int
	base       time.Time
	tasks      map[primitive.ObjectID]models.Task
	categories map[primitive.ObjectID]models.Category
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		base:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		tasks:      map[primitive.ObjectID]models.Task{},
		categories: map[primitive.ObjectID]models.Category{},
	}
}

func (f *fakeStore) tick() time.Time {
	f.seq++
	return f.base.Add(time.Duration(f.seq) * time.Second)
}

func (f *fakeStore) addCategory(userID, name string) models.Category {
	c := models.Category{ID: primitive.NewObjectID(), UserID: userID, Name: name, CreatedAt: f.tick()}
	c.UpdatedAt = c.CreatedAt
	f.categories[c.ID] = c
	return c
}

func (f *fakeStore) InsertTask(_ context.Context, t *models.Task) (*models.Task, error) {
	t.ID = primitive.NewObjectID()
	t.CreatedAt = f.tick()
	t.UpdatedAt = t.CreatedAt
	f.tasks[t.ID] = *t
	return t, nil
}

func matches(t models.Task, userID string, fl models.TaskFilter) bool {
	if t.UserID != userID {
		return false
	}
	if fl.Status != "" && t.Status != fl.Status {
		return false
	}
	if fl.Priority != "" && t.Priority != fl.Priority {
		return false
	}
	if fl.CategoryID != "" {
		if t.CategoryID == nil || t.CategoryID.Hex() != fl.CategoryID {
			return false
		}
	}
	if fl.Search != "" {
		needle := strings.ToLower(fl.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

func (f *fakeStore) FindTasks(_ context.Context, userID string, q models.TaskQuery) ([]models.Task, int64, error) {
	var all []models.Task
	for _, t := range f.tasks {
		if matches(t, userID, q.Filter) {
			all = append(all, t)
		}
	}
	asc := q.Sort.Order == "asc"
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		var less bool
		switch q.Sort.Field {
		case models.SortTitle:
			less = a.Title < b.Title
		case models.SortUpdatedAt:
			less = a.UpdatedAt.Before(b.UpdatedAt)
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if !asc {
			less = !less
		}
		return less
	})

	total := int64(len(all))
	start := (q.Page.Number - 1) * q.Page.Size
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeStore) GetTask(_ context.Context, userID, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("task")
	}
	t, ok := f.tasks[oid]
	if !ok || t.UserID != userID {
		return nil, apperr.NotFound("task")
	}
	return &t, nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	t, err := f.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.ClearDescription {
		t.Description = ""
	} else if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.ClearDueDate {
		t.DueDate = nil
	} else if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.ClearCategory {
		t.CategoryID = nil
	} else if patch.CategoryID != nil {
		oid, err := primitive.ObjectIDFromHex(*patch.CategoryID)
		if err == nil {
			t.CategoryID = &oid
		}
	}
	t.UpdatedAt = f.tick()
	f.tasks[t.ID] = *t
	return t, nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, userID, id string) error {
	t, err := f.GetTask(ctx, userID, id)
	if err != nil {
		return err
	}
	delete(f.tasks, t.ID)
	return nil
}

func (f *fakeStore) GetCategory(_ context.Context, userID, id string) (*models.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("category")
	}
	c, ok := f.categories[oid]
	if !ok || c.UserID != userID {
		return nil, apperr.NotFound("category")
	}
	return &c, nil
}

func (f *fakeStore) ListCategories(_ context.Context, userID string) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func mustCreate(t *testing.T, svc *Service, userID string, draft models.TaskDraft) *Response {
	t.Helper()
	resp, err := svc.Create(context.Background(), userID, draft)
	if err != nil {
		t.Fatalf("create task for %s: %v", userID, err)
	}
	return resp
}

func draft(title string) models.TaskDraft {
	return models.TaskDraft{Title: title, Status: models.StatusTodo, Priority: models.PriorityMedium}
}

func TestListNeverCrossesUsers(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	mustCreate(t, svc, "alice", draft("alice task"))
	bob := mustCreate(t, svc, "bob", draft("bob task"))

	res, err := svc.List(ctx, "alice", models.DefaultTaskQuery())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 1 || len(res.Items) != 1 || res.Items[0].Title != "alice task" {
		t.Fatalf("alice sees %+v", res)
	}

	// Filters cannot widen visibility.
	q := models.DefaultTaskQuery()
	q.Filter.Search = "bob"
	res, err = svc.List(ctx, "alice", q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 0 {
		t.Fatalf("filter leaked another user's tasks: %+v", res)
	}

	// Direct get of a foreign task is indistinguishable from absence.
	if _, err := svc.Get(ctx, "alice", bob.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected NOT_FOUND for foreign task, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		mustCreate(t, svc, "alice", draft("task "+string(rune('a'+i))))
	}

	q := models.DefaultTaskQuery() // page 1, size 10
	res, err := svc.List(ctx, "alice", q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 25 || res.TotalPages != 3 || len(res.Items) != 10 {
		t.Fatalf("page 1: total=%d pages=%d items=%d", res.Total, res.TotalPages, len(res.Items))
	}

	q.Page.Number = 3
	res, err = svc.List(ctx, "alice", q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 25 || len(res.Items) != 5 {
		t.Fatalf("page 3: total=%d items=%d, want total=25 items=5", res.Total, len(res.Items))
	}
}

func TestListSearchIsCaseInsensitiveSubstring(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	d := draft("pay the invoice")
	d.Description = "This is Urgent!"
	mustCreate(t, svc, "alice", d)
	mustCreate(t, svc, "alice", draft("water the plants"))

	q := models.DefaultTaskQuery()
	q.Filter.Search = "urgent"
	res, err := svc.List(ctx, "alice", q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 1 || res.Items[0].Title != "pay the invoice" {
		t.Fatalf("search result: %+v", res)
	}
}

func TestCreateRoundTripWithDefaults(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	created := mustCreate(t, svc, "alice", draft("write the report"))
	if created.Status != models.StatusTodo || created.Priority != models.PriorityMedium {
		t.Fatalf("defaults not applied: %+v", created)
	}

	got, err := svc.Get(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "write the report" || got.Status != created.Status ||
		got.Priority != created.Priority || got.ID != created.ID {
		t.Fatalf("round trip mismatch: created=%+v got=%+v", created, got)
	}
	if got.Category != nil {
		t.Fatalf("expected null category, got %+v", got.Category)
	}
}

func TestCreateRejectsForeignCategory(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	bobCat := f.addCategory("bob", "Work")

	d := draft("sneaky")
	d.CategoryID = bobCat.ID.Hex()
	if _, err := svc.Create(ctx, "alice", d); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected NOT_FOUND for foreign category, got %v", err)
	}

	res, err := svc.List(ctx, "alice", models.DefaultTaskQuery())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 0 {
		t.Fatalf("task must not be created on rejected category, total=%d", res.Total)
	}
}

func TestCreateResolvesOwnCategory(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)

	cat := f.addCategory("alice", "Home")
	d := draft("fix the sink")
	d.CategoryID = cat.ID.Hex()

	created := mustCreate(t, svc, "alice", d)
	if created.Category == nil || created.Category.Name != "Home" || created.Category.ID != cat.ID.Hex() {
		t.Fatalf("category ref = %+v", created.Category)
	}
}

func TestUpdateTouchesOnlyNamedFields(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	d := draft("quarterly numbers")
	d.Description = "gather figures"
	d.Priority = models.PriorityHigh
	created := mustCreate(t, svc, "alice", d)

	status := models.StatusCompleted
	got, err := svc.Update(ctx, "alice", created.ID, models.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want COMPLETED", got.Status)
	}
	if got.Title != created.Title || got.Description != created.Description || got.Priority != created.Priority {
		t.Errorf("unrelated fields changed: before=%+v after=%+v", created, got)
	}
}

func TestUpdateNullClearsCategory(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	cat := f.addCategory("alice", "Errands")
	d := draft("buy stamps")
	d.CategoryID = cat.ID.Hex()
	created := mustCreate(t, svc, "alice", d)

	got, err := svc.Update(ctx, "alice", created.ID, models.TaskPatch{ClearCategory: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Category != nil {
		t.Fatalf("category not cleared: %+v", got.Category)
	}
}

func TestUpdateRejectsForeignCategory(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	created := mustCreate(t, svc, "alice", draft("innocent"))
	bobCat := f.addCategory("bob", "Work")

	cid := bobCat.ID.Hex()
	if _, err := svc.Update(ctx, "alice", created.ID, models.TaskPatch{CategoryID: &cid}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteThenGetNotFound(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	created := mustCreate(t, svc, "alice", draft("temporary"))
	if err := svc.Delete(ctx, "alice", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, "alice", created.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected NOT_FOUND after delete, got %v", err)
	}
}

func TestGetShapesDanglingCategoryAsNull(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, nil)
	ctx := context.Background()

	cat := f.addCategory("alice", "Doomed")
	d := draft("orphan-to-be")
	d.CategoryID = cat.ID.Hex()
	created := mustCreate(t, svc, "alice", d)

	delete(f.categories, cat.ID)

	got, err := svc.Get(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Category != nil {
		t.Fatalf("dangling reference must shape to null, got %+v", got.Category)
	}
}
