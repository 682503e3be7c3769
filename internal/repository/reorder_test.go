package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateReorderSet(t *testing.T) {
	current := []uint64{10, 20, 30}

	t.Run("permutation accepted", func(t *testing.T) {
		assert.NoError(t, ValidateReorderSet(current, []uint64{30, 10, 20}))
		assert.NoError(t, ValidateReorderSet(current, []uint64{10, 20, 30}))
	})

	t.Run("missing id rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateReorderSet(current, []uint64{10, 20}), ErrReorderSetMismatch)
	})

	t.Run("unknown id rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateReorderSet(current, []uint64{10, 20, 99}), ErrReorderSetMismatch)
	})

	t.Run("duplicate id rejected even at matching length", func(t *testing.T) {
		assert.ErrorIs(t, ValidateReorderSet(current, []uint64{10, 20, 20}), ErrReorderSetMismatch)
	})

	t.Run("empty against empty accepted", func(t *testing.T) {
		assert.NoError(t, ValidateReorderSet(nil, nil))
	})
}
