package queries

import (
	"errors"
	"fmt"
)

// ListIdeasQuery reads every idea of one user. Sorting is left to the caller
// so that a sort change is served from the same cached result.
type ListIdeasQuery struct {
	UserID string
}

// Validate validates the ListIdeasQuery
func (q ListIdeasQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// CacheKey implements bus.CacheKeyer
func (q ListIdeasQuery) CacheKey() string {
	return ListCacheKey(q.UserID)
}

// ListCacheKey is the cache key of a user's idea collection.
func ListCacheKey(userID string) string {
	return fmt.Sprintf("ideas:%s", userID)
}
