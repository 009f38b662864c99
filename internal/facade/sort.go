package facade

import (
	"math/rand"
	"sort"
	"strings"

	"offbeat/internal/domain"
)

// Sort attribute names, shared by queue and playlist sorting.
const (
	SortTitle    = "title"
	SortArtist   = "artist"
	SortAlbum    = "album"
	SortTrack    = "track"
	SortYear     = "year"
	SortDuration = "duration"
	SortRandom   = "random"
)

// sortSongs orders songs by the named attribute. Text attributes compare
// case-insensitively; artist and album fall back to album/track order so
// the result reads like an album listing. Unknown attributes sort by title.
func sortSongs(songs []domain.Song, sortBy string, desc bool) {
	var less func(a, b domain.Song) bool
	switch sortBy {
	case SortArtist:
		less = func(a, b domain.Song) bool {
			if c := compareFold(a.Artist, b.Artist); c != 0 {
				return c < 0
			}
			if c := compareFold(a.Album, b.Album); c != 0 {
				return c < 0
			}
			return a.SortKey() < b.SortKey()
		}
	case SortAlbum:
		less = func(a, b domain.Song) bool {
			if c := compareFold(a.Album, b.Album); c != 0 {
				return c < 0
			}
			return a.SortKey() < b.SortKey()
		}
	case SortTrack:
		less = func(a, b domain.Song) bool {
			return a.SortKey() < b.SortKey()
		}
	case SortYear:
		less = func(a, b domain.Song) bool {
			if a.Year != b.Year {
				return a.Year < b.Year
			}
			return compareFold(a.Title, b.Title) < 0
		}
	case SortDuration:
		less = func(a, b domain.Song) bool {
			if a.DurationSeconds != b.DurationSeconds {
				return a.DurationSeconds < b.DurationSeconds
			}
			return compareFold(a.Title, b.Title) < 0
		}
	default:
		less = func(a, b domain.Song) bool {
			return compareFold(a.Title, b.Title) < 0
		}
	}
	sort.SliceStable(songs, func(i, j int) bool {
		if desc {
			return less(songs[j], songs[i])
		}
		return less(songs[i], songs[j])
	})
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// shuffleStrings is a Fisher-Yates shuffle in place.
func shuffleStrings(s []string) {
	rand.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}
