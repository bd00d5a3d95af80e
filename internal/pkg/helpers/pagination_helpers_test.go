package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(1, 10)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, 10, limit)

	offset, limit = CalculateOffsetLimit(3, 20)
	assert.Equal(t, uint64(40), offset)
	assert.Equal(t, 20, limit)

	// Out-of-range inputs fall back to the defaults
	offset, limit = CalculateOffsetLimit(0, 0)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, DefaultPageSize, limit)

	_, limit = CalculateOffsetLimit(1, MaxPageSize+1)
	assert.Equal(t, DefaultPageSize, limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(42, 2, 10)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, 5, info.TotalPages)
	assert.Equal(t, 10, info.PageSize)
	assert.Equal(t, int64(42), info.TotalItems)

	// An empty first page still reports one page
	info = NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, info.TotalPages)
	assert.Equal(t, 1, info.CurrentPage)

	// Pages past the end are clamped
	info = NewPaginationInfo(5, 9, 10)
	assert.Equal(t, 1, info.CurrentPage)
	assert.Equal(t, 1, info.TotalPages)
}
