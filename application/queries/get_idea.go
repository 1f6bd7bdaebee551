package queries

import (
	"errors"
	"fmt"
)

// GetIdeaQuery reads one idea of one user.
type GetIdeaQuery struct {
	UserID string
	IdeaID string
}

// Validate validates the GetIdeaQuery
func (q GetIdeaQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.IdeaID == "" {
		return errors.New("idea ID is required")
	}
	return nil
}

// CacheKey implements bus.CacheKeyer
func (q GetIdeaQuery) CacheKey() string {
	return IdeaCacheKey(q.UserID, q.IdeaID)
}

// IdeaCacheKey is the cache key of a single idea. Its prefix differs from
// ListCacheKey so that no idea id can name the collection entry.
func IdeaCacheKey(userID, ideaID string) string {
	return fmt.Sprintf("idea:%s:%s", userID, ideaID)
}
