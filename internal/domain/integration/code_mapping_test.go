package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeMapping(t *testing.T) {
	t.Run("valid mapping", func(t *testing.T) {
		m, err := NewCodeMapping(MappingTypeTaxRate, "KDV18", "VAT_18", "standard rate")
		require.NoError(t, err)
		assert.True(t, m.IsActive)
		assert.Equal(t, "VAT_18", m.LucaValue)
	})

	t.Run("unknown mapping type", func(t *testing.T) {
		_, err := NewCodeMapping(MappingType("COLOR"), "red", "RED", "")
		assert.ErrorIs(t, err, ErrCodeMappingInvalid)
	})

	t.Run("blank values rejected", func(t *testing.T) {
		_, err := NewCodeMapping(MappingTypeCategory, " ", "X", "")
		assert.ErrorIs(t, err, ErrCodeMappingInvalid)
		_, err = NewCodeMapping(MappingTypeCategory, "X", "", "")
		assert.ErrorIs(t, err, ErrCodeMappingInvalid)
	})
}

func TestMappingContext_Resolve(t *testing.T) {
	active, err := NewCodeMapping(MappingTypeCategory, "Raw Materials", "150", "")
	require.NoError(t, err)
	retired, err := NewCodeMapping(MappingTypeCategory, "Finished Goods", "151", "")
	require.NoError(t, err)
	retired.Deactivate()

	mctx := NewMappingContext([]CodeMapping{*active, *retired})

	t.Run("resolves active mapping", func(t *testing.T) {
		v, err := mctx.Resolve(MappingTypeCategory, "Raw Materials")
		require.NoError(t, err)
		assert.Equal(t, "150", v)
	})

	t.Run("inactive mapping is invisible", func(t *testing.T) {
		_, err := mctx.Resolve(MappingTypeCategory, "Finished Goods")
		assert.ErrorIs(t, err, ErrCodeMappingNotFound)
	})

	t.Run("unknown key is a distinct config error", func(t *testing.T) {
		_, err := mctx.Resolve(MappingTypeUnitOfMeasure, "pcs")
		assert.ErrorIs(t, err, ErrCodeMappingNotFound)
		assert.Equal(t, FailureClassNonRetryable, Classify(err))
	})
}
