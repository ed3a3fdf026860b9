package offsetmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	m := New(4)
	m.Set(10, Value{ArenaOffset: 100, Len: 1})
	m.Set(20, Value{ArenaOffset: 200, Len: 2})

	v, ok := m.Get(10)
	require.True(t, ok)
	require.Equal(t, Value{ArenaOffset: 100, Len: 1}, v)

	m.Delete(10)
	_, ok = m.Get(10)
	require.False(t, ok)

	v, ok = m.Get(20)
	require.True(t, ok)
	require.Equal(t, 200, v.ArenaOffset)
}

func TestGrowthPreservesEntries(t *testing.T) {
	m := New(2)
	for i := 0; i < 100; i++ {
		m.Set(i, Value{ArenaOffset: i * 4, Len: 1})
	}
	require.Equal(t, 100, m.Len())
	for i := 0; i < 100; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i*4, v.ArenaOffset)
	}
}

func TestRekeyKey(t *testing.T) {
	m := New(4)
	m.Set(1, Value{ArenaOffset: 40, Len: 3})
	m.RekeyKey(1, 2)
	_, ok := m.Get(1)
	require.False(t, ok)
	v, ok := m.Get(2)
	require.True(t, ok)
	require.Equal(t, 40, v.ArenaOffset)
}

func TestCloneIndependent(t *testing.T) {
	m := New(4)
	m.Set(1, Value{ArenaOffset: 1})
	c := m.Clone()
	c.Set(2, Value{ArenaOffset: 2})
	require.Equal(t, 1, m.Len())
	require.Equal(t, 2, c.Len())
}
