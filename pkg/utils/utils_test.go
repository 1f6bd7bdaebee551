package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatISO(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.FixedZone("CET", 3600))

	got := FormatISO(ts)

	assert.Equal(t, "2024-03-09T13:05:07.123Z", got)
	back, err := ParseISO(got)
	require.NoError(t, err)
	assert.True(t, back.Equal(ts))
}

func TestValidateStruct_Messages(t *testing.T) {
	type form struct {
		Title string `validate:"required"`
		Color string `validate:"hexcolor"`
		Level int    `validate:"min=1,max=3"`
	}

	err := ValidateStruct(form{Color: "blue", Level: 5})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "color must be a hex color")
	assert.Contains(t, err.Error(), "level must be at most 3")
}
