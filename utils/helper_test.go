package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDereferencePtr(t *testing.T) {
	flag := true
	require.True(t, DereferencePtr(&flag))
	require.False(t, DereferencePtr[bool](nil))
	require.Equal(t, 7, DereferencePtr[int](nil, 7))
}

func TestNilIfEmpty(t *testing.T) {
	require.Nil(t, NilIfEmpty(0))
	ptr := NilIfEmpty(5)
	require.NotNil(t, ptr)
	require.Equal(t, 5, *ptr)
}

func TestUniqueSlice(t *testing.T) {
	require.Equal(t, []int{3, 1, 2}, UniqueSlice([]int{3, 1, 3, 2, 1}))
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" 1.250 ")
	require.NoError(t, err)
	require.Equal(t, "1.25", d.String())

	_, err = ParseDecimal("")
	require.Error(t, err)
}
