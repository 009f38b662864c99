package facade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"offbeat/internal/domain"
)

func TestSortSongs(t *testing.T) {
	songs := func() []domain.Song {
		return []domain.Song{
			{UUID: "1", Title: "Zebra", Artist: "beta", Album: "Late", TrackNumber: 2, Year: 1999, DurationSeconds: 300},
			{UUID: "2", Title: "apple", Artist: "Alpha", Album: "Early", TrackNumber: 1, Year: 2005, DurationSeconds: 120},
			{UUID: "3", Title: "Mango", Artist: "alpha", Album: "Early", TrackNumber: 3, Year: 1999, DurationSeconds: 200},
			{UUID: "4", Title: "Mango", Artist: "Beta", Album: "Early", TrackNumber: 1, DiscNumber: 2, Year: 2010, DurationSeconds: 200},
		}
	}

	cases := []struct {
		name   string
		sortBy string
		desc   bool
		want   []string
	}{
		{"title default", "", false, []string{"2", "3", "4", "1"}},
		{"artist groups albums and tracks", SortArtist, false, []string{"2", "3", "4", "1"}},
		{"album then track", SortAlbum, false, []string{"2", "3", "4", "1"}},
		{"track uses disc-aware key", SortTrack, false, []string{"2", "1", "3", "4"}},
		{"year with title tiebreak", SortYear, false, []string{"3", "1", "2", "4"}},
		{"duration with title tiebreak", SortDuration, false, []string{"2", "3", "4", "1"}},
		{"descending", SortTitle, true, []string{"1", "3", "4", "2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := songs()
			sortSongs(got, tc.sortBy, tc.desc)
			assert.Equal(t, tc.want, songUUIDs(got))
		})
	}
}

func TestSortSongsStable(t *testing.T) {
	songs := []domain.Song{
		{UUID: "a", Title: "Same"},
		{UUID: "b", Title: "Same"},
		{UUID: "c", Title: "Same"},
	}
	sortSongs(songs, SortTitle, false)
	assert.Equal(t, []string{"a", "b", "c"}, songUUIDs(songs))
	sortSongs(songs, SortTitle, true)
	assert.Equal(t, []string{"a", "b", "c"}, songUUIDs(songs))
}

func TestShuffleStringsKeepsMembership(t *testing.T) {
	orig := []string{"a", "b", "c", "d", "e", "f"}
	shuffled := append([]string(nil), orig...)
	shuffleStrings(shuffled)
	assert.ElementsMatch(t, orig, shuffled)
}

func TestCompareFold(t *testing.T) {
	assert.Zero(t, compareFold("Abba", "abba"))
	assert.Negative(t, compareFold("apple", "Banana"))
	assert.Positive(t, compareFold("Zoo", "apple"))
}
