package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowZeroFillsAndReportsPreviousSize(t *testing.T) {
	m := New(1, 4)
	require.Equal(t, uint32(1), m.Size())

	ok := m.WriteByte(PageSize-1, 0xAB)
	require.True(t, ok)

	prev := m.Grow(2)
	assert.Equal(t, int64(1), prev)
	assert.Equal(t, uint32(3), m.Size())

	b, ok := m.ReadByte(PageSize)
	require.True(t, ok)
	assert.Equal(t, byte(0), b)
}

func TestGrowBeyondMaxFails(t *testing.T) {
	m := New(1, 1)
	assert.Equal(t, int64(-1), m.Grow(1))
}

func TestGrowSequenceAgainstMaxOfTwoPages(t *testing.T) {
	m := New(0, 2)
	assert.Equal(t, int64(0), m.Grow(1))
	assert.Equal(t, int64(1), m.Grow(1))
	assert.Equal(t, int64(-1), m.Grow(1))
	assert.Equal(t, uint32(2), m.Size())
}

func TestGrowNeverReducesSizeAfterSuccess(t *testing.T) {
	m := New(0, 2)
	old := m.Grow(2)
	require.Equal(t, int64(0), old)
	assert.Equal(t, uint32(2), m.Size())
}

func TestLoadStoreOutOfBoundsTraps(t *testing.T) {
	m := New(1, 1)
	_, ok := m.ReadByte(PageSize)
	assert.False(t, ok)
	assert.False(t, m.WriteByte(PageSize, 1))
}

func TestLoadStoreRoundTrip(t *testing.T) {
	m := New(1, 1)
	require.True(t, m.Write32(8, 0xDEADBEEF))
	v, ok := m.Read32(8)
	require.True(t, ok)
	assert.Equal(t, uint32(0xDEADBEEF), v)

	require.True(t, m.Write64(16, 0x0102030405060708))
	v64, ok := m.Read64(16)
	require.True(t, ok)
	assert.Equal(t, uint64(0x0102030405060708), v64)
}

func TestAddrPlusSizeOverflowNeverAliasesValidAddress(t *testing.T) {
	m := New(1, 1)
	_, ok := m.ReadByte(^uint64(0))
	assert.False(t, ok)
}

func TestCopyHandlesOverlapAndZeroLengthNeverTraps(t *testing.T) {
	m := New(1, 1)
	b := m.Bytes()
	for i := range b[:8] {
		b[i] = byte(i)
	}
	require.True(t, m.Copy(2, 0, 6))
	assert.Equal(t, []byte{0, 1, 0, 1, 2, 3, 4, 5}, m.Bytes()[:8])

	assert.True(t, m.Copy(0, uint64(PageSize)*10, 0))
}

func TestFillZeroLengthNeverTraps(t *testing.T) {
	m := New(1, 1)
	assert.True(t, m.Fill(uint64(PageSize)*10, 1, 0))
}

func TestInitOutOfBoundsSegmentTraps(t *testing.T) {
	m := New(1, 1)
	data := []byte{1, 2, 3}
	assert.False(t, m.Init(data, 0, 0, 4))
	assert.True(t, m.Init(data, 0, 0, 3))
}
