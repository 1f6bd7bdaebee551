package commands

import (
	"errors"

	"ideatracker/domain/core/entities"
)

// SaveIdeaCommand writes the edit buffer of an idea. An empty IdeaID creates
// a new idea; otherwise the stored record with that id is overwritten.
// ID and CreatedAt of Idea are ignored: the handler owns both.
type SaveIdeaCommand struct {
	UserID string
	IdeaID string
	Idea   entities.Idea
}

// Validate validates the SaveIdeaCommand
func (c SaveIdeaCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	return c.Idea.Validate()
}

// IsNew reports whether the command creates an idea.
func (c SaveIdeaCommand) IsNew() bool {
	return c.IdeaID == ""
}
