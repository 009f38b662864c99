// Package search queries the cached library. It works entirely offline:
// everything searchable is whatever the store has seen.
package search

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"

	"offbeat/internal/domain"
)

type Service struct {
	store  domain.SongStore
	logger *slog.Logger
}

func New(store domain.SongStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// SongMatch is a ranked song hit. MatchedIndexes are rune positions within
// the song's display string, for highlighting.
type SongMatch struct {
	Song           domain.Song
	Score          int
	MatchedIndexes []int
}

// songSource adapts cached songs for matching against the title, artist,
// and album together.
type songSource []domain.Song

func (s songSource) Len() int { return len(s) }

func (s songSource) String(i int) string {
	return s[i].Title + " " + s[i].Artist + " " + s[i].Album
}

// Songs ranks cached songs against the query, best first.
func (s *Service) Songs(query string, limit int) ([]SongMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	songs, err := s.store.AllSongs()
	if err != nil {
		return nil, err
	}
	results := sahilm.FindFrom(query, songSource(songs))
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	matches := make([]SongMatch, len(results))
	for i, r := range results {
		matches[i] = SongMatch{
			Song:           songs[r.Index],
			Score:          r.Score,
			MatchedIndexes: r.MatchedIndexes,
		}
	}
	return matches, nil
}

// Names ranks a bucket listing (artists, albums, genres) against the
// query, case- and diacritic-insensitively.
func Names(query string, names []string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	// Rank by edit distance, breaking ties in favor of names that contain the
	// query outright, then shorter names, then alphabetically. Plain
	// sort.Sort(ranks) leaves equal-distance order unspecified.
	folded := strings.ToLower(query)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		li, lj := strings.ToLower(ranks[i].Target), strings.ToLower(ranks[j].Target)
		ci, cj := strings.Contains(li, folded), strings.Contains(lj, folded)
		if ci != cj {
			return ci
		}
		if len(li) != len(lj) {
			return len(li) < len(lj)
		}
		return li < lj
	})
	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.Target)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
