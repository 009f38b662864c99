package remote

import (
	"context"

	"offbeat/internal/domain"
)

func (c *Client) PlaybackGetState(ctx context.Context) (*domain.PlaybackState, error) {
	var state domain.PlaybackState
	if err := c.call(ctx, "playback.getState", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) PlaybackSetState(ctx context.Context, state domain.PlaybackState) error {
	return c.call(ctx, "playback.setState", map[string]any{
		"queueIndex": state.QueueIndex,
		"scaEnabled": state.ScaEnabled,
		"playMode":   state.PlayMode,
		"volume":     state.Volume,
	}, nil)
}

func (c *Client) HistoryRecord(ctx context.Context, entry domain.HistoryEntry) error {
	return c.call(ctx, "history.record", map[string]any{
		"songUuid": entry.SongUUID,
		"duration": entry.DurationSeconds,
		"skipped":  entry.Skipped,
		"source":   entry.Source,
		"playedAt": entry.PlayedAt.Unix(),
	}, nil)
}

func (c *Client) HistoryRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	kwargs := map[string]any{}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var raw rawResult
	if err := c.call(ctx, "history.recent", kwargs, &raw); err != nil {
		return nil, err
	}
	var entries []domain.HistoryEntry
	if _, err := decodeList(raw, &entries, "entries"); err != nil {
		return nil, err
	}
	return entries, nil
}
