package style

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertDedupes(t *testing.T) {
	s := New(4)
	bold := Style{Bold: true}
	id1, err := s.Upsert(bold)
	require.NoError(t, err)
	require.NotEqual(t, uint16(0), id1)

	id2, err := s.Upsert(bold)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.Equal(t, 2, s.RefCount(id1))
}

func TestUpsertFullReturnsErrFull(t *testing.T) {
	s := New(1)
	_, err := s.Upsert(Style{Bold: true})
	require.NoError(t, err)
	_, err = s.Upsert(Style{Italic: true})
	require.ErrorIs(t, err, ErrFull)
}

func TestReleaseFreesSlot(t *testing.T) {
	s := New(1)
	id, err := s.Upsert(Style{Bold: true})
	require.NoError(t, err)
	s.Release(id)
	_, ok := s.Lookup(id)
	require.False(t, ok)

	// slot should be reusable now
	id2, err := s.Upsert(Style{Italic: true})
	require.NoError(t, err)
	require.Equal(t, id, id2)
}

func TestGrowPreservesIDs(t *testing.T) {
	s := New(2)
	id, err := s.Upsert(Style{Bold: true})
	require.NoError(t, err)
	s.Upsert(Style{Bold: true}) // refcount 2

	grown, err := s.Grow(4)
	require.NoError(t, err)
	require.Equal(t, 4, grown.Capacity())
	st, ok := grown.Lookup(id)
	require.True(t, ok)
	require.True(t, st.Bold)
	require.Equal(t, 2, grown.RefCount(id))
}

func TestDefaultStyleIDNeverIssued(t *testing.T) {
	s := New(4)
	id, err := s.Upsert(Style{})
	require.NoError(t, err)
	require.NotEqual(t, uint16(0), id)
}
