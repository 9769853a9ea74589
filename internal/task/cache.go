package task

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkravets/tasktracker/internal/models"
)

// ListCache is a read-through cache for task listings, keyed by the full
// filter/sort/page tuple. Any task or category write for a user drops all of
// that user's cached pages. A nil *ListCache is a valid no-op cache.
type ListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewListCache(rdb *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{rdb: rdb, ttl: ttl}
}

func listKey(userID string, q models.TaskQuery) string {
	return fmt.Sprintf("tasks:list:%s:%s|%s|%s|%s|%s|%s|%d|%d",
		userID,
		q.Filter.Status, q.Filter.Priority, q.Filter.CategoryID,
		url.QueryEscape(q.Filter.Search),
		q.Sort.Field, q.Sort.Order,
		q.Page.Number, q.Page.Size)
}

// Get returns the cached result for the tuple, ok=false on any miss or
// cache failure. The cache never turns a degraded Redis into a 500.
func (c *ListCache) Get(ctx context.Context, userID string, q models.TaskQuery) (*ListResult, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, listKey(userID, q)).Bytes()
	if err != nil {
		return nil, false
	}
	var res ListResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}

// Put stores a result under the tuple key; failures are ignored.
func (c *ListCache) Put(ctx context.Context, userID string, q models.TaskQuery, res *ListResult) {
	if c == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, listKey(userID, q), data, c.ttl)
}

// Invalidate drops every cached listing for the user.
func (c *ListCache) Invalidate(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, "tasks:list:"+userID+":*", 100).Iterator()
	for iter.Next(ctx) {
		c.rdb.Del(ctx, iter.Val())
	}
}
