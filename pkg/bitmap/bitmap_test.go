package bitmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocFreeRoundTrip(t *testing.T) {
	a := New(16*4, 4) // 16 chunks of 4 bytes
	require.Equal(t, 16, a.Capacity())

	off1, err := a.Alloc(1)
	require.NoError(t, err)
	require.Equal(t, 0, off1)
	require.Equal(t, 1, a.InUse())

	off2, err := a.Alloc(2)
	require.NoError(t, err)
	require.Equal(t, 4, off2)
	require.Equal(t, 3, a.InUse())

	a.Free(off1, 1)
	require.Equal(t, 2, a.InUse())

	off3, err := a.Alloc(1)
	require.NoError(t, err)
	require.Equal(t, off1, off3, "freed chunk should be reused first")
}

func TestAllocExhaustion(t *testing.T) {
	a := New(4*4, 4)
	_, err := a.Alloc(4)
	require.NoError(t, err)
	_, err = a.Alloc(1)
	require.ErrorIs(t, err, ErrArenaFull)
}

func TestCloneIndependent(t *testing.T) {
	a := New(8*4, 4)
	_, _ = a.Alloc(2)
	b := a.Clone()
	require.Equal(t, a.InUse(), b.InUse())
	_, _ = b.Alloc(1)
	require.NotEqual(t, a.InUse(), b.InUse())
}
