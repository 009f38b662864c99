package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offbeat/internal/domain"
	"offbeat/internal/store"
)

func newService(t *testing.T, songs []domain.Song) *Service {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.PutSongs(songs))
	return New(st, nil)
}

func TestSongs(t *testing.T) {
	svc := newService(t, []domain.Song{
		{UUID: "1", Title: "Night Train", Artist: "Oscar Peterson", Album: "Night Train"},
		{UUID: "2", Title: "Take Five", Artist: "Dave Brubeck", Album: "Time Out"},
		{UUID: "3", Title: "Trains", Artist: "Porcupine Tree", Album: "In Absentia"},
	})

	t.Run("matches across title, artist, and album", func(t *testing.T) {
		matches, err := svc.Songs("train", 0)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		uuids := []string{matches[0].Song.UUID, matches[1].Song.UUID}
		assert.ElementsMatch(t, []string{"1", "3"}, uuids)
		assert.NotEmpty(t, matches[0].MatchedIndexes)
		assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score, "best match first")
	})

	t.Run("limit truncates", func(t *testing.T) {
		matches, err := svc.Songs("train", 1)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("blank query matches nothing", func(t *testing.T) {
		matches, err := svc.Songs("   ", 0)
		require.NoError(t, err)
		assert.Nil(t, matches)
	})

	t.Run("no hits", func(t *testing.T) {
		matches, err := svc.Songs("zzzzzz", 0)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestNames(t *testing.T) {
	names := []string{"Radiohead", "Red Hot Chili Peppers", "Röyksopp", "Deadmau5"}

	t.Run("closest name first", func(t *testing.T) {
		got := Names("dead", names, 0)
		require.NotEmpty(t, got)
		assert.Equal(t, "Deadmau5", got[0])
		assert.Contains(t, got, "Radiohead")
	})

	t.Run("substring beats equal edit distance", func(t *testing.T) {
		// "dead" is five edits from both Deadmau5 and Radiohead; only the
		// former actually contains it.
		got := Names("dead", []string{"Radiohead", "Deadmau5"}, 0)
		assert.Equal(t, []string{"Deadmau5", "Radiohead"}, got)
	})

	t.Run("diacritics fold", func(t *testing.T) {
		got := Names("royksopp", names, 0)
		require.NotEmpty(t, got)
		assert.Equal(t, "Röyksopp", got[0])
	})

	t.Run("limit", func(t *testing.T) {
		assert.Len(t, Names("dead", names, 1), 1)
	})

	t.Run("blank query", func(t *testing.T) {
		assert.Nil(t, Names("  ", names, 0))
	})
}
