package domain

import "time"

// WriteType is the entity domain a pending write targets. The values double
// as the first half of the remote operation name.
type WriteType string

const (
	WriteQueue       WriteType = "queue"
	WritePlaylists   WriteType = "playlists"
	WritePreferences WriteType = "preferences"
	WriteEQPresets   WriteType = "eqPresets"
	WritePlayback    WriteType = "playback"
	WriteHistory     WriteType = "history"
)

// OpCreateFromQueue is the one local-only operation: "save the current queue
// as a playlist". The sync manager splits it into a create push followed by
// an addSongsBatch push addressed to the same placeholder.
const OpCreateFromQueue = "createFromQueue"

// PendingWrite is an intent to mutate remote state, recorded when a mutation
// happens while offline. Writes for the same logical resource are applied to
// the remote in creation order within a sync session.
type PendingWrite struct {
	// ID is assigned by the store, monotonically increasing; iteration in
	// ID order is creation order.
	ID         uint64         `json:"id"`
	Type       WriteType      `json:"type"`
	Operation  string         `json:"operation"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
}

// OpType returns the remote operation name for this write, e.g. "queue.add".
func (w PendingWrite) OpType() string {
	return string(w.Type) + "." + w.Operation
}

// PayloadString fetches a string payload field, empty when absent.
func (w PendingWrite) PayloadString(key string) string {
	s, _ := w.Payload[key].(string)
	return s
}
