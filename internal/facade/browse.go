package facade

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"offbeat/internal/domain"
)

// BrowseCategories lists top-level categories.
func (f *Facade) BrowseCategories(ctx context.Context, sortOrder string) (*domain.BrowsePage, error) {
	if f.offline() {
		return f.browseBucketsOffline(domain.BrowseFilter{}, func(s domain.Song) string { return s.Category }, domain.UnknownCategory, "", 0, sortOrder)
	}
	page, err := f.remote.BrowseCategories(ctx, sortOrder)
	if err != nil {
		if f.fallback(err) {
			return f.BrowseCategories(ctx, sortOrder)
		}
		return nil, err
	}
	return page, nil
}

// BrowseGenres lists genres within a category, with the all-genres
// pseudo-entry first.
func (f *Facade) BrowseGenres(ctx context.Context, category, sortOrder string) (*domain.BrowsePage, error) {
	if f.offline() {
		filter := domain.BrowseFilter{Category: category}
		page, err := f.browseBucketsOffline(filter, func(s domain.Song) string { return s.Genre }, domain.UnknownGenre, "", 0, sortOrder)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, b := range page.Buckets {
			total += b.SongCount
		}
		page.Buckets = append([]domain.BrowseBucket{{Name: domain.AllGenres, SongCount: total}}, page.Buckets...)
		page.TotalCount = len(page.Buckets)
		return page, nil
	}
	page, err := f.remote.BrowseGenres(ctx, category, sortOrder)
	if err != nil {
		if f.fallback(err) {
			return f.BrowseGenres(ctx, category, sortOrder)
		}
		return nil, err
	}
	return page, nil
}

// BrowseArtists lists artists matching a filter.
func (f *Facade) BrowseArtists(ctx context.Context, filter domain.BrowseFilter, cursor string, limit int, sortOrder string) (*domain.BrowsePage, error) {
	if f.offline() {
		return f.browseBucketsOffline(filter, func(s domain.Song) string { return s.Artist }, domain.UnknownArtist, cursor, limit, sortOrder)
	}
	page, err := f.remote.BrowseArtists(ctx, filter, cursor, limit, sortOrder)
	if err != nil {
		if f.fallback(err) {
			return f.BrowseArtists(ctx, filter, cursor, limit, sortOrder)
		}
		return nil, err
	}
	return page, nil
}

// BrowseAlbums lists albums matching a filter.
func (f *Facade) BrowseAlbums(ctx context.Context, filter domain.BrowseFilter, cursor string, limit int, sortOrder string) (*domain.BrowsePage, error) {
	if f.offline() {
		return f.browseBucketsOffline(filter, func(s domain.Song) string { return s.Album }, domain.UnknownAlbum, cursor, limit, sortOrder)
	}
	page, err := f.remote.BrowseAlbums(ctx, filter, cursor, limit, sortOrder)
	if err != nil {
		if f.fallback(err) {
			return f.BrowseAlbums(ctx, filter, cursor, limit, sortOrder)
		}
		return nil, err
	}
	return page, nil
}

// BrowseSongsByPath lists cached songs under a library path, in track
// order. Online it also refreshes the song cache with what came back.
func (f *Facade) BrowseSongsByPath(ctx context.Context, path, cursor string, limit int) (*domain.SongPage, error) {
	if f.offline() {
		songs, err := f.store.AllSongs()
		if err != nil {
			return nil, err
		}
		var matched []domain.Song
		for _, s := range songs {
			if songUnderPath(s, path) {
				matched = append(matched, s)
			}
		}
		sortSongs(matched, SortTrack, false)
		return pageSongs(matched, cursor, limit)
	}
	page, err := f.remote.BrowseSongsByPath(ctx, path, cursor, limit)
	if err != nil {
		if f.fallback(err) {
			return f.BrowseSongsByPath(ctx, path, cursor, limit)
		}
		return nil, err
	}
	if err := f.store.PutSongs(page.Songs); err != nil {
		return nil, err
	}
	f.refreshIndexes()
	return page, nil
}

// BrowseSongsByFilter lists songs matching a filter.
func (f *Facade) BrowseSongsByFilter(ctx context.Context, filter domain.BrowseFilter, cursor string, limit int) (*domain.SongPage, error) {
	if f.offline() {
		songs, err := f.store.AllSongs()
		if err != nil {
			return nil, err
		}
		var matched []domain.Song
		for _, s := range songs {
			if filter.Matches(s) {
				matched = append(matched, s)
			}
		}
		sortSongs(matched, SortAlbum, false)
		return pageSongs(matched, cursor, limit)
	}
	page, err := f.remote.BrowseSongsByFilter(ctx, filter, cursor, limit)
	if err != nil {
		if f.fallback(err) {
			return f.BrowseSongsByFilter(ctx, filter, cursor, limit)
		}
		return nil, err
	}
	if err := f.store.PutSongs(page.Songs); err != nil {
		return nil, err
	}
	f.refreshIndexes()
	return page, nil
}

// browseBucketsOffline groups the cached songs matching filter by one
// field. Songs missing the field collect into a synthetic unknown bucket
// listed last.
func (f *Facade) browseBucketsOffline(filter domain.BrowseFilter, field func(domain.Song) string, unknownName, cursor string, limit int, sortOrder string) (*domain.BrowsePage, error) {
	songs, err := f.store.AllSongs()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	unknown := 0
	for _, s := range songs {
		if !filter.Matches(s) {
			continue
		}
		if v := field(s); v != "" {
			counts[v]++
		} else {
			unknown++
		}
	}

	buckets := make([]domain.BrowseBucket, 0, len(counts)+1)
	for name, count := range counts {
		buckets = append(buckets, domain.BrowseBucket{Name: name, SongCount: count})
	}
	if sortOrder == "count" {
		sort.Slice(buckets, func(i, j int) bool {
			if buckets[i].SongCount != buckets[j].SongCount {
				return buckets[i].SongCount > buckets[j].SongCount
			}
			return strings.ToLower(buckets[i].Name) < strings.ToLower(buckets[j].Name)
		})
	} else {
		sort.Slice(buckets, func(i, j int) bool {
			return strings.ToLower(buckets[i].Name) < strings.ToLower(buckets[j].Name)
		})
	}
	if unknown > 0 {
		buckets = append(buckets, domain.BrowseBucket{Name: unknownName, SongCount: unknown})
	}

	total := len(buckets)
	offset := parseCursor(cursor)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := &domain.BrowsePage{
		Buckets:    buckets[offset:end],
		TotalCount: total,
		HasMore:    end < total,
	}
	if page.HasMore {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func pageSongs(songs []domain.Song, cursor string, limit int) (*domain.SongPage, error) {
	total := len(songs)
	offset := parseCursor(cursor)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := &domain.SongPage{
		Songs:      songs[offset:end],
		TotalCount: total,
		HasMore:    end < total,
	}
	if page.HasMore {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

// parseCursor reads an offset cursor; anything unparseable means start.
func parseCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
