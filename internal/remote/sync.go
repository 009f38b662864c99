package remote

import (
	"context"

	"offbeat/internal/domain"
)

func (c *Client) AuthCheck(ctx context.Context) (*domain.AuthInfo, error) {
	var info domain.AuthInfo
	if err := c.call(ctx, "auth.check", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SyncPush stages one operation in a server-side session. Nothing executes
// until the session commits.
func (c *Client) SyncPush(ctx context.Context, sessionID string, seq int, opType string, payload map[string]any) error {
	return c.call(ctx, "sync.push", map[string]any{
		"sessionId": sessionID,
		"seq":       seq,
		"opType":    opType,
		"payload":   payload,
	}, nil)
}

// SyncCommit executes a staged session atomically. The result's Created
// map resolves placeholder tokens to server-assigned playlist IDs.
func (c *Client) SyncCommit(ctx context.Context, sessionID string) (*domain.SyncCommitResult, error) {
	var dto struct {
		Executed int              `json:"executed"`
		Skipped  int              `json:"skipped"`
		FailedOp string           `json:"failedOp"`
		Created  map[string]int64 `json:"created"`
	}
	err := c.call(ctx, "sync.commit", map[string]any{"sessionId": sessionID}, &dto)
	if err != nil {
		return nil, err
	}
	return &domain.SyncCommitResult{
		Executed: dto.Executed,
		Skipped:  dto.Skipped,
		FailedOp: dto.FailedOp,
		Created:  dto.Created,
	}, nil
}

func (c *Client) SyncDiscard(ctx context.Context, sessionID string) error {
	return c.call(ctx, "sync.discard", map[string]any{"sessionId": sessionID}, nil)
}

func (c *Client) SyncStatus(ctx context.Context, sessionID string) (*domain.SyncStatusResult, error) {
	var dto struct {
		PendingCount int `json:"pendingCount"`
		MaxSeq       int `json:"maxSeq"`
	}
	err := c.call(ctx, "sync.status", map[string]any{"sessionId": sessionID}, &dto)
	if err != nil {
		return nil, err
	}
	return &domain.SyncStatusResult{PendingCount: dto.PendingCount, MaxSeq: dto.MaxSeq}, nil
}
