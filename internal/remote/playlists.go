package remote

import (
	"context"

	"offbeat/internal/domain"
)

func (c *Client) PlaylistsList(ctx context.Context) ([]domain.PlaylistSummary, error) {
	var raw rawResult
	if err := c.call(ctx, "playlists.list", nil, &raw); err != nil {
		return nil, err
	}
	var list []domain.PlaylistSummary
	if _, err := decodeList(raw, &list, "playlists"); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) PlaylistsCreate(ctx context.Context, name, description string) (*domain.PlaylistCreated, error) {
	var dto struct {
		ID   domain.PlaylistID `json:"id"`
		Name string            `json:"name"`
	}
	err := c.call(ctx, "playlists.create", map[string]any{
		"name":        name,
		"description": description,
	}, &dto)
	if err != nil {
		return nil, err
	}
	return &domain.PlaylistCreated{ID: dto.ID, Name: dto.Name}, nil
}

func (c *Client) PlaylistsDelete(ctx context.Context, id domain.PlaylistID) error {
	return c.call(ctx, "playlists.delete", map[string]any{"playlistId": id.Value()}, nil)
}

func (c *Client) PlaylistsGetSongs(ctx context.Context, id domain.PlaylistID, offset, limit int) (*domain.SongPage, error) {
	kwargs := map[string]any{"playlistId": id.Value()}
	if offset > 0 {
		kwargs["offset"] = offset
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var raw rawResult
	if err := c.call(ctx, "playlists.getSongs", kwargs, &raw); err != nil {
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

func (c *Client) PlaylistsAddSong(ctx context.Context, id domain.PlaylistID, songUUID string) error {
	return c.call(ctx, "playlists.addSong", map[string]any{
		"playlistId": id.Value(),
		"songUuid":   songUUID,
	}, nil)
}

func (c *Client) PlaylistsRemoveSong(ctx context.Context, id domain.PlaylistID, songUUID string) error {
	return c.call(ctx, "playlists.removeSong", map[string]any{
		"playlistId": id.Value(),
		"songUuid":   songUUID,
	}, nil)
}

func (c *Client) PlaylistsRemoveSongs(ctx context.Context, id domain.PlaylistID, songUUIDs []string) error {
	return c.call(ctx, "playlists.removeSongs", map[string]any{
		"playlistId": id.Value(),
		"songUuids":  songUUIDs,
	}, nil)
}

func (c *Client) PlaylistsAddSongsBatch(ctx context.Context, id domain.PlaylistID, songUUIDs []string) error {
	return c.call(ctx, "playlists.addSongsBatch", map[string]any{
		"playlistId": id.Value(),
		"songUuids":  songUUIDs,
	}, nil)
}

func (c *Client) PlaylistsReorder(ctx context.Context, id domain.PlaylistID, positions []int) error {
	return c.call(ctx, "playlists.reorder", map[string]any{
		"playlistId": id.Value(),
		"positions":  positions,
	}, nil)
}

func (c *Client) PlaylistsSort(ctx context.Context, id domain.PlaylistID, sortBy, order string) error {
	return c.call(ctx, "playlists.sort", map[string]any{
		"playlistId": id.Value(),
		"sortBy":     sortBy,
		"order":      order,
	}, nil)
}
