package tablestate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 2, PageCount(11, 10))
	assert.Equal(t, 10, PageCount(95, 10))
	assert.Equal(t, 1, PageCount(5, 0))
}

func TestRowRange(t *testing.T) {
	start, end := RowRange(1, 10, 95)
	assert.Equal(t, 11, start)
	assert.Equal(t, 20, end)

	start, end = RowRange(9, 10, 95)
	assert.Equal(t, 91, start)
	assert.Equal(t, 95, end)

	start, end = RowRange(0, 10, 0)
	assert.Zero(t, start)
	assert.Zero(t, end)

	start, end = RowRange(4611686018427387904, 10, 3)
	assert.Zero(t, start)
	assert.Zero(t, end)

	start, end = RowRange(-1, 10, 3)
	assert.Zero(t, start)
	assert.Zero(t, end)

	start, end = RowRange(MaxPageIndex(10), 10, math.MaxInt)
	assert.Equal(t, math.MaxInt/10*10-9, start)
	assert.Equal(t, math.MaxInt/10*10, end)
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 0, ClampPage(-1, 10, 95))
	assert.Equal(t, 9, ClampPage(12, 10, 95))
	assert.Equal(t, 4, ClampPage(4, 10, 95))
	assert.Equal(t, 0, ClampPage(3, 10, 0))
}
