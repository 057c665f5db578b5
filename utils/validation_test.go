package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleDTO struct {
	Name string `validate:"required"`
	Tier string `validate:"required,oneof=free pro admin"`
	Size int    `validate:"max=100"`
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.NoError(t, ValidateStruct(&sampleDTO{Name: "x", Tier: "pro", Size: 10}))
}

func TestValidateStruct_FieldMessages(t *testing.T) {
	err := ValidateStruct(&sampleDTO{Tier: "platinum", Size: 500})
	require.Error(t, err)

	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "request validation failed", fieldErr.Error())
	assert.Equal(t, "Name is required", fieldErr.Fields["Name"])
	assert.Equal(t, "Tier must be one of: free pro admin", fieldErr.Fields["Tier"])
	assert.Equal(t, "Size must be at most 100", fieldErr.Fields["Size"])
}
