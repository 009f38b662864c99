package remote

import (
	"context"

	"offbeat/internal/domain"
)

// queuePage is the queue.list result shape.
type queuePage struct {
	Songs      []domain.Song `json:"songs"`
	Index      int           `json:"index"`
	PlayMode   string        `json:"playMode"`
	ScaEnabled bool          `json:"scaEnabled"`
	Volume     float64       `json:"volume"`
	DeviceID   string        `json:"deviceId"`
	DeviceSeq  int64         `json:"seq"`
	NextCursor string        `json:"nextCursor"`
	HasMore    bool          `json:"hasMore"`
}

type queueChange struct {
	Added       int `json:"added"`
	Removed     int `json:"removed"`
	QueueLength int `json:"queueLength"`
}

func (ch queueChange) toDomain() *domain.QueueChange {
	return &domain.QueueChange{Added: ch.Added, Removed: ch.Removed, QueueLength: ch.QueueLength}
}

func (c *Client) QueueList(ctx context.Context, cursor string, limit int) (*domain.QueuePage, error) {
	kwargs := map[string]any{}
	if cursor != "" {
		kwargs["cursor"] = cursor
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var dto queuePage
	if err := c.call(ctx, "queue.list", kwargs, &dto); err != nil {
		return nil, err
	}
	return &domain.QueuePage{
		Songs:      dto.Songs,
		QueueIndex: dto.Index,
		PlayMode:   dto.PlayMode,
		ScaEnabled: dto.ScaEnabled,
		Volume:     dto.Volume,
		DeviceID:   dto.DeviceID,
		DeviceSeq:  dto.DeviceSeq,
		NextCursor: dto.NextCursor,
		HasMore:    dto.HasMore,
	}, nil
}

func (c *Client) QueueAdd(ctx context.Context, songUUIDs []string, position *int) (*domain.QueueChange, error) {
	kwargs := map[string]any{"songUuids": songUUIDs}
	if position != nil {
		kwargs["position"] = *position
	}
	var dto queueChange
	if err := c.call(ctx, "queue.add", kwargs, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) QueueAddByPath(ctx context.Context, path string, position *int, limit int) (*domain.QueueChange, error) {
	kwargs := map[string]any{"path": path}
	if position != nil {
		kwargs["position"] = *position
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var dto queueChange
	if err := c.call(ctx, "queue.addByPath", kwargs, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) QueueAddByFilter(ctx context.Context, filter domain.BrowseFilter, position *int, limit int) (*domain.QueueChange, error) {
	kwargs := filterKwargs(filter)
	if position != nil {
		kwargs["position"] = *position
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var dto queueChange
	if err := c.call(ctx, "queue.addByFilter", kwargs, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) QueueAddByPlaylist(ctx context.Context, id domain.PlaylistID, position *int, shuffle bool) (*domain.QueueChange, error) {
	kwargs := map[string]any{"playlistId": id.Value()}
	if position != nil {
		kwargs["position"] = *position
	}
	if shuffle {
		kwargs["shuffle"] = true
	}
	var dto queueChange
	if err := c.call(ctx, "queue.addByPlaylist", kwargs, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) QueueRemove(ctx context.Context, positions []int) (*domain.QueueChange, error) {
	var dto queueChange
	if err := c.call(ctx, "queue.remove", map[string]any{"positions": positions}, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) QueueClear(ctx context.Context) (int, error) {
	var dto queueChange
	if err := c.call(ctx, "queue.clear", nil, &dto); err != nil {
		return 0, err
	}
	return dto.Removed, nil
}

func (c *Client) QueueReorder(ctx context.Context, fromPos, toPos int) error {
	return c.call(ctx, "queue.reorder", map[string]any{"fromPos": fromPos, "toPos": toPos}, nil)
}

func (c *Client) QueueReorderBatch(ctx context.Context, fromPositions []int, toPosition int) error {
	return c.call(ctx, "queue.reorderBatch", map[string]any{
		"fromPositions": fromPositions,
		"toPosition":    toPosition,
	}, nil)
}

func (c *Client) QueueSetIndex(ctx context.Context, index int, deviceID string, seq int64) (*domain.SetIndexResult, error) {
	var dto struct {
		Skipped bool   `json:"skipped"`
		Reason  string `json:"reason"`
	}
	err := c.call(ctx, "queue.setIndex", map[string]any{
		"index":    index,
		"deviceId": deviceID,
		"seq":      seq,
	}, &dto)
	if err != nil {
		return nil, err
	}
	return &domain.SetIndexResult{Skipped: dto.Skipped, Reason: dto.Reason}, nil
}

func (c *Client) QueueSort(ctx context.Context, sortBy, order string) (*domain.QueueSortResult, error) {
	var dto struct {
		QueueLength int `json:"queueLength"`
		NewIndex    int `json:"newIndex"`
	}
	err := c.call(ctx, "queue.sort", map[string]any{"sortBy": sortBy, "order": order}, &dto)
	if err != nil {
		return nil, err
	}
	return &domain.QueueSortResult{QueueLength: dto.QueueLength, NewIndex: dto.NewIndex}, nil
}

func (c *Client) QueueSaveAsPlaylist(ctx context.Context, name, description string) (*domain.PlaylistCreated, error) {
	var dto struct {
		ID   domain.PlaylistID `json:"id"`
		Name string            `json:"name"`
	}
	err := c.call(ctx, "queue.saveAsPlaylist", map[string]any{
		"name":        name,
		"description": description,
	}, &dto)
	if err != nil {
		return nil, err
	}
	return &domain.PlaylistCreated{ID: dto.ID, Name: dto.Name}, nil
}

// filterKwargs maps a browse filter to RPC kwargs, omitting unset fields.
func filterKwargs(f domain.BrowseFilter) map[string]any {
	kwargs := map[string]any{}
	if f.Category != "" {
		kwargs["category"] = f.Category
	}
	if f.Genre != "" {
		kwargs["genre"] = f.Genre
	}
	if f.Artist != "" {
		kwargs["artist"] = f.Artist
	}
	if f.Album != "" {
		kwargs["album"] = f.Album
	}
	return kwargs
}
