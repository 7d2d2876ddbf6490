package kb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{Results: 2}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Seed(context.Background()))
	return s
}

func TestSeedLoadsEmbeddedNotes(t *testing.T) {
	s := newSeededStore(t)
	assert.Equal(t, 3, s.Count())

	// Seeding again is a no-op.
	require.NoError(t, s.Seed(context.Background()))
	assert.Equal(t, 3, s.Count())
}

func TestQueryRanksByLexicalOverlap(t *testing.T) {
	s := newSeededStore(t)

	notes, err := s.Query(context.Background(), "connection refused 5432 database failover checkout")
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, "inc-2041-db-failover.md", notes[0].ID)
	assert.Contains(t, notes[0].Title, "INC-2041")
}

func TestQueryClampsToCollectionSize(t *testing.T) {
	s, err := New(Config{Results: 50}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Seed(context.Background()))

	notes, err := s.Query(context.Background(), "crashloopbackoff oom")
	require.NoError(t, err)
	assert.Len(t, notes, 3)
}

func TestQueryEmptyStore(t *testing.T) {
	s, err := New(Config{}, nil, nil)
	require.NoError(t, err)

	notes, err := s.Query(context.Background(), "anything")
	require.NoError(t, err)
	assert.Nil(t, notes)
}

func TestPersistentStore(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Config{Path: dir}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Seed(context.Background()))
	require.Equal(t, 3, s.Count())

	reopened, err := New(Config{Path: dir}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Count())
}

func TestHashEmbeddingDeterministic(t *testing.T) {
	embed := HashEmbedding()

	a1, err := embed(context.Background(), "connection refused on port 5432")
	require.NoError(t, err)
	a2, err := embed(context.Background(), "connection refused on port 5432")
	require.NoError(t, err)
	assert.Equal(t, a1, a2)

	b, err := embed(context.Background(), "pod restarts exceeded threshold")
	require.NoError(t, err)
	assert.NotEqual(t, a1, b)
}

func TestHashEmbeddingNormalized(t *testing.T) {
	embed := HashEmbedding()

	vec, err := embed(context.Background(), "checkout api latency")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestHashEmbeddingEmptyText(t *testing.T) {
	embed := HashEmbedding()

	vec, err := embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, float32(1), vec[0])
}

func TestNoteTitle(t *testing.T) {
	assert.Equal(t, "INC-2041: Checkout outage", noteTitle("# INC-2041: Checkout outage\n\nbody"))
	assert.Equal(t, "plain first line", noteTitle("\n\nplain first line\nrest"))
	assert.Equal(t, "", noteTitle("   \n  "))
}
