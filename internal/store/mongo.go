package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/models"
)

// MongoStore handles task and category documents. Every read and write is
// filtered by user_id, so an absent record and a foreign record are the same
// NOT_FOUND from here on up.
type MongoStore struct {
	tasks      *mongo.Collection
	categories *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		tasks:      db.Collection("tasks"),
		categories: db.Collection("categories"),
	}
}

// EnsureIndexes creates the ownership indexes and the unique compound
// (user_id, name) index backing per-user category name uniqueness.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category_id", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.categories.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func ownedByID(userID, id string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id cannot name an existing document.
		return nil, errors.New("invalid object id")
	}
	return bson.M{"_id": oid, "user_id": userID}, nil
}

// ── Tasks ────────────────────────────────────────────────────

func (s *MongoStore) InsertTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	res, err := s.tasks.InsertOne(ctx, t)
	if err != nil {
		return nil, apperr.Persistence("task insert", err)
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return t, nil
}

// FindTasks returns one page of matching tasks plus the total match count
// ignoring pagination.
func (s *MongoStore) FindTasks(ctx context.Context, userID string, q models.TaskQuery) ([]models.Task, int64, error) {
	filter := taskFilterDoc(userID, q.Filter)

	total, err := s.tasks.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Persistence("task count", err)
	}

	opts := options.Find().
		SetSort(taskSortDoc(q.Sort)).
		SetSkip(int64(q.Page.Number-1) * int64(q.Page.Size)).
		SetLimit(int64(q.Page.Size))
	cur, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperr.Persistence("task find", err)
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, 0, apperr.Persistence("task decode", err)
	}
	return tasks, total, nil
}

func (s *MongoStore) GetTask(ctx context.Context, userID, id string) (*models.Task, error) {
	filter, err := ownedByID(userID, id)
	if err != nil {
		return nil, apperr.NotFound("task")
	}
	var t models.Task
	if err := s.tasks.FindOne(ctx, filter).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("task")
		}
		return nil, apperr.Persistence("task lookup", err)
	}
	return &t, nil
}

// UpdateTask applies a partial update and returns the post-update document.
func (s *MongoStore) UpdateTask(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	filter, err := ownedByID(userID, id)
	if err != nil {
		return nil, apperr.NotFound("task")
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Task
	err = s.tasks.FindOneAndUpdate(ctx, filter, taskPatchDoc(patch, time.Now().UTC()), opts).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("task")
		}
		return nil, apperr.Persistence("task update", err)
	}
	return &t, nil
}

func (s *MongoStore) DeleteTask(ctx context.Context, userID, id string) error {
	filter, err := ownedByID(userID, id)
	if err != nil {
		return apperr.NotFound("task")
	}
	res, err := s.tasks.DeleteOne(ctx, filter)
	if err != nil {
		return apperr.Persistence("task delete", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("task")
	}
	return nil
}

// CountTasksByCategory reports how many of the user's tasks reference the
// category; the category-delete conflict carries this number.
func (s *MongoStore) CountTasksByCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(categoryID)
	if err != nil {
		return 0, nil
	}
	n, err := s.tasks.CountDocuments(ctx, bson.M{"user_id": userID, "category_id": oid})
	if err != nil {
		return 0, apperr.Persistence("task count", err)
	}
	return n, nil
}

// ── Categories ───────────────────────────────────────────────

// ListCategories returns the user's categories ordered by name ascending.
func (s *MongoStore) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.categories.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, apperr.Persistence("category find", err)
	}
	defer cur.Close(ctx)

	var cats []models.Category
	if err := cur.All(ctx, &cats); err != nil {
		return nil, apperr.Persistence("category decode", err)
	}
	return cats, nil
}

func (s *MongoStore) InsertCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := s.categories.InsertOne(ctx, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.DuplicateName(c.Name)
		}
		return nil, apperr.Persistence("category insert", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return c, nil
}

func (s *MongoStore) GetCategory(ctx context.Context, userID, id string) (*models.Category, error) {
	filter, err := ownedByID(userID, id)
	if err != nil {
		return nil, apperr.NotFound("category")
	}
	var c models.Category
	if err := s.categories.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("category")
		}
		return nil, apperr.Persistence("category lookup", err)
	}
	return &c, nil
}

func (s *MongoStore) GetCategoryByName(ctx context.Context, userID, name string) (*models.Category, error) {
	var c models.Category
	err := s.categories.FindOne(ctx, bson.M{"user_id": userID, "name": name}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("category")
		}
		return nil, apperr.Persistence("category lookup", err)
	}
	return &c, nil
}

func (s *MongoStore) RenameCategory(ctx context.Context, userID, id, name string) (*models.Category, error) {
	filter, err := ownedByID(userID, id)
	if err != nil {
		return nil, apperr.NotFound("category")
	}
	update := bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Category
	if err := s.categories.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("category")
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.DuplicateName(name)
		}
		return nil, apperr.Persistence("category update", err)
	}
	return &c, nil
}

func (s *MongoStore) DeleteCategory(ctx context.Context, userID, id string) error {
	filter, err := ownedByID(userID, id)
	if err != nil {
		return apperr.NotFound("category")
	}
	res, err := s.categories.DeleteOne(ctx, filter)
	if err != nil {
		return apperr.Persistence("category delete", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("category")
	}
	return nil
}
