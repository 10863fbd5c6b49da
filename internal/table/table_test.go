package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFillsNull(t *testing.T) {
	tb := New(3, 10, true)
	for i := uint32(0); i < 3; i++ {
		v, ok := tb.Get(i)
		require.True(t, ok)
		assert.Equal(t, Null, v)
	}
}

func TestGetSetOutOfBounds(t *testing.T) {
	tb := New(2, 2, true)
	_, ok := tb.Get(2)
	assert.False(t, ok)
	assert.False(t, tb.Set(2, 1))

	assert.True(t, tb.Set(0, 5))
	v, ok := tb.Get(0)
	require.True(t, ok)
	assert.Equal(t, int64(5), v)
}

func TestGrowFillsNewRangeAndRespectsMax(t *testing.T) {
	tb := New(1, 3, true)
	prev := tb.Grow(2, 7)
	assert.Equal(t, int64(1), prev)
	assert.Equal(t, uint32(3), tb.Size())
	v, _ := tb.Get(1)
	assert.Equal(t, int64(7), v)

	assert.Equal(t, int64(-1), tb.Grow(1, 0))
}

func TestFillZeroNeverTraps(t *testing.T) {
	tb := New(2, 2, true)
	assert.True(t, tb.Fill(100, 1, 0))
	assert.False(t, tb.Fill(1, 1, 5))
}

func TestCopyAcrossTables(t *testing.T) {
	src := New(2, 2, true)
	src.Set(0, 1)
	src.Set(1, 2)
	dst := New(2, 2, true)
	assert.True(t, Copy(dst, 0, src, 0, 2))
	v0, _ := dst.Get(0)
	v1, _ := dst.Get(1)
	assert.Equal(t, int64(1), v0)
	assert.Equal(t, int64(2), v1)
}

func TestElemSegmentDropZeroesSize(t *testing.T) {
	seg := &ElemSegment{Refs: []int64{1, 2, 3}}
	assert.Equal(t, 3, seg.Size())
	seg.Drop()
	assert.Equal(t, 0, seg.Size())

	tb := New(4, 4, true)
	assert.False(t, tb.Init(seg, 0, 0, 1))
	assert.True(t, tb.Init(seg, 0, 0, 0))
}
