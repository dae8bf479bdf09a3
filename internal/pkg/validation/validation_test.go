package validation

import (
	"testing"

	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Word string `binding:"required,notblank"`
}

func TestNotBlank(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register())

	assert.NoError(t, binding.Validator.ValidateStruct(&sample{Word: "spam"}))
	assert.Error(t, binding.Validator.ValidateStruct(&sample{Word: "   "}))
	assert.Error(t, binding.Validator.ValidateStruct(&sample{}))
}

func TestUUID(t *testing.T) {
	assert.NoError(t, UUID("id", ""))
	assert.NoError(t, UUID("id", "0b6f3c1e-7a2d-4f8e-9c1b-2d3e4f5a6b7c"))

	err := UUID("peer_id", "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Equal(t, "peer_id must be a valid UUID", err.Error())
}
