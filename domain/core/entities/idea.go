package entities

import (
	"strings"

	"ideatracker/domain/core/valueobjects"
	pkgerrors "ideatracker/pkg/errors"
	"ideatracker/pkg/utils"
)

// DefaultColor is the card color of an idea that never picked one.
const DefaultColor = "#FFFFFF"

// Idea is one record owned by a single user. Ideas are plain records: the
// whole record is written on every save and nothing is merged.
type Idea struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title" validate:"required"`
	Description string                  `json:"description" validate:"required"`
	Importance  valueobjects.Importance `json:"importance" validate:"min=1,max=3"`
	Status      valueobjects.Status     `json:"status" validate:"oneof=New 'In Progress' Completed"`
	Notes       string                  `json:"notes"`
	Color       string                  `json:"color" validate:"hexcolor"`
	CreatedAt   string                  `json:"createdAt"`
}

// NewIdea returns the blank edit buffer used when creating an idea.
func NewIdea() *Idea {
	return &Idea{
		Importance: valueobjects.ImportanceLow,
		Status:     valueobjects.StatusNew,
		Color:      DefaultColor,
	}
}

// Validate checks user input before it is handed to a save. Storage never
// calls it: stored records are accepted as they are.
func (i *Idea) Validate() error {
	if err := utils.ValidateStruct(i); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}

// Normalize fills fields missing from a stored record with the edit form
// defaults.
func (i *Idea) Normalize() {
	if i.Importance == 0 {
		i.Importance = valueobjects.ImportanceLow
	}
	if i.Status == "" {
		i.Status = valueobjects.StatusNew
	}
	if strings.TrimSpace(i.Color) == "" {
		i.Color = DefaultColor
	}
}

// Clone returns an independent copy.
func (i *Idea) Clone() *Idea {
	c := *i
	return &c
}

// IsNew reports whether the idea has never been saved.
func (i *Idea) IsNew() bool {
	return i.ID == ""
}
