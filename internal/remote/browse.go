package remote

import (
	"context"
	"encoding/json"

	"offbeat/internal/domain"
)

// browseBucket tolerates both the bare-name and the counted listing shapes.
type browseBucket struct {
	Name      string `json:"name"`
	SongCount int    `json:"songCount"`
}

func (b *browseBucket) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.Name)
	}
	type alias browseBucket
	return json.Unmarshal(data, (*alias)(b))
}

func (c *Client) browseBuckets(ctx context.Context, method string, kwargs map[string]any) (*domain.BrowsePage, error) {
	var raw rawResult
	if err := c.call(ctx, method, kwargs, &raw); err != nil {
		return nil, err
	}
	var dtos []browseBucket
	meta, err := decodeList(raw, &dtos, "buckets")
	if err != nil {
		return nil, err
	}
	buckets := make([]domain.BrowseBucket, len(dtos))
	for i, d := range dtos {
		buckets[i] = domain.BrowseBucket{Name: d.Name, SongCount: d.SongCount}
	}
	return &domain.BrowsePage{
		Buckets:    buckets,
		TotalCount: meta.Total,
		NextCursor: meta.NextCursor,
		HasMore:    meta.HasMore,
	}, nil
}

func (c *Client) browseSongs(ctx context.Context, method string, kwargs map[string]any) (*domain.SongPage, error) {
	var raw rawResult
	if err := c.call(ctx, method, kwargs, &raw); err != nil {
		return nil, err
	}
	var songs []domain.Song
	meta, err := decodeList(raw, &songs, "songs")
	if err != nil {
		return nil, err
	}
	return &domain.SongPage{
		Songs:      songs,
		TotalCount: meta.Total,
		NextCursor: meta.NextCursor,
		HasMore:    meta.HasMore,
	}, nil
}

func pageKwargs(kwargs map[string]any, cursor string, limit int, sort string) map[string]any {
	if cursor != "" {
		kwargs["cursor"] = cursor
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	if sort != "" {
		kwargs["sort"] = sort
	}
	return kwargs
}

func (c *Client) BrowseCategories(ctx context.Context, sort string) (*domain.BrowsePage, error) {
	return c.browseBuckets(ctx, "browse.categories", pageKwargs(map[string]any{}, "", 0, sort))
}

func (c *Client) BrowseGenres(ctx context.Context, category, sort string) (*domain.BrowsePage, error) {
	kwargs := map[string]any{}
	if category != "" {
		kwargs["category"] = category
	}
	return c.browseBuckets(ctx, "browse.genres", pageKwargs(kwargs, "", 0, sort))
}

func (c *Client) BrowseArtists(ctx context.Context, filter domain.BrowseFilter, cursor string, limit int, sort string) (*domain.BrowsePage, error) {
	return c.browseBuckets(ctx, "browse.artists", pageKwargs(filterKwargs(filter), cursor, limit, sort))
}

func (c *Client) BrowseAlbums(ctx context.Context, filter domain.BrowseFilter, cursor string, limit int, sort string) (*domain.BrowsePage, error) {
	return c.browseBuckets(ctx, "browse.albums", pageKwargs(filterKwargs(filter), cursor, limit, sort))
}

func (c *Client) BrowseSongsByPath(ctx context.Context, path string, cursor string, limit int) (*domain.SongPage, error) {
	kwargs := map[string]any{"path": path}
	return c.browseSongs(ctx, "browse.songsByPath", pageKwargs(kwargs, cursor, limit, ""))
}

func (c *Client) BrowseSongsByFilter(ctx context.Context, filter domain.BrowseFilter, cursor string, limit int) (*domain.SongPage, error) {
	return c.browseSongs(ctx, "browse.songsByFilter", pageKwargs(filterKwargs(filter), cursor, limit, ""))
}
