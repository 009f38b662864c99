package domain

import "context"

// QueuePage is one cursor batch of the server-side queue.
type QueuePage struct {
	Songs      []Song
	QueueIndex int
	PlayMode   string
	ScaEnabled bool
	Volume     float64
	DeviceID   string
	DeviceSeq  int64
	NextCursor string
	HasMore    bool
}

// QueueChange reports the outcome of a queue mutation.
type QueueChange struct {
	Added       int
	Removed     int
	QueueLength int
}

// QueueSortResult reports the queue state after a server-side sort.
type QueueSortResult struct {
	QueueLength int
	NewIndex    int
}

// SetIndexResult distinguishes applied from stale-sequence updates.
type SetIndexResult struct {
	Skipped bool
	Reason  string
}

// PlaylistCreated is the result of a playlist create.
type PlaylistCreated struct {
	ID   PlaylistID
	Name string
}

// SongPage is one offset batch of a song listing.
type SongPage struct {
	Songs      []Song
	TotalCount int
	NextCursor string
	HasMore    bool
}

// BrowsePage is one batch of a browse bucket listing.
type BrowsePage struct {
	Buckets    []BrowseBucket
	TotalCount int
	NextCursor string
	HasMore    bool
}

// SyncCommitResult is the server's report for an atomically committed
// session. Created maps placeholder tokens to the playlist IDs the server
// assigned while executing creates in the session.
type SyncCommitResult struct {
	Executed int
	Skipped  int
	FailedOp string
	Created  map[string]int64
}

// SyncStatusResult summarizes pending server-side session state.
type SyncStatusResult struct {
	PendingCount int
	MaxSeq       int
}

// QueueRemote covers the server's queue operations.
type QueueRemote interface {
	QueueList(ctx context.Context, cursor string, limit int) (*QueuePage, error)
	QueueAdd(ctx context.Context, songUUIDs []string, position *int) (*QueueChange, error)
	QueueAddByPath(ctx context.Context, path string, position *int, limit int) (*QueueChange, error)
	QueueAddByFilter(ctx context.Context, filter BrowseFilter, position *int, limit int) (*QueueChange, error)
	QueueAddByPlaylist(ctx context.Context, id PlaylistID, position *int, shuffle bool) (*QueueChange, error)
	QueueRemove(ctx context.Context, positions []int) (*QueueChange, error)
	QueueClear(ctx context.Context) (int, error)
	QueueReorder(ctx context.Context, fromPos, toPos int) error
	QueueReorderBatch(ctx context.Context, fromPositions []int, toPosition int) error
	QueueSetIndex(ctx context.Context, index int, deviceID string, seq int64) (*SetIndexResult, error)
	QueueSort(ctx context.Context, sortBy, order string) (*QueueSortResult, error)
	QueueSaveAsPlaylist(ctx context.Context, name, description string) (*PlaylistCreated, error)
}

// PlaylistRemote covers the server's playlist operations.
type PlaylistRemote interface {
	PlaylistsList(ctx context.Context) ([]PlaylistSummary, error)
	PlaylistsCreate(ctx context.Context, name, description string) (*PlaylistCreated, error)
	PlaylistsDelete(ctx context.Context, id PlaylistID) error
	PlaylistsGetSongs(ctx context.Context, id PlaylistID, offset, limit int) (*SongPage, error)
	PlaylistsAddSong(ctx context.Context, id PlaylistID, songUUID string) error
	PlaylistsRemoveSong(ctx context.Context, id PlaylistID, songUUID string) error
	PlaylistsRemoveSongs(ctx context.Context, id PlaylistID, songUUIDs []string) error
	PlaylistsAddSongsBatch(ctx context.Context, id PlaylistID, songUUIDs []string) error
	PlaylistsReorder(ctx context.Context, id PlaylistID, positions []int) error
	PlaylistsSort(ctx context.Context, id PlaylistID, sortBy, order string) error
}

// PreferencesRemote covers preferences and EQ presets. PreferencesGet also
// reports the server's lastModified timestamp (unix seconds, 0 when the
// server omits it) for last-write-wins reconciliation.
type PreferencesRemote interface {
	PreferencesGet(ctx context.Context) (*Preferences, int64, error)
	PreferencesSet(ctx context.Context, prefs Preferences) error
	EQPresetsList(ctx context.Context) ([]EQPreset, error)
	EQPresetsSave(ctx context.Context, preset EQPreset) (*EQPreset, error)
	EQPresetsDelete(ctx context.Context, uuid string) error
}

// PlaybackRemote covers playback state and play history.
type PlaybackRemote interface {
	PlaybackGetState(ctx context.Context) (*PlaybackState, error)
	PlaybackSetState(ctx context.Context, state PlaybackState) error
	HistoryRecord(ctx context.Context, entry HistoryEntry) error
	HistoryRecent(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// BrowseRemote covers hierarchical browsing.
type BrowseRemote interface {
	BrowseCategories(ctx context.Context, sort string) (*BrowsePage, error)
	BrowseGenres(ctx context.Context, category, sort string) (*BrowsePage, error)
	BrowseArtists(ctx context.Context, filter BrowseFilter, cursor string, limit int, sort string) (*BrowsePage, error)
	BrowseAlbums(ctx context.Context, filter BrowseFilter, cursor string, limit int, sort string) (*BrowsePage, error)
	BrowseSongsByPath(ctx context.Context, path string, cursor string, limit int) (*SongPage, error)
	BrowseSongsByFilter(ctx context.Context, filter BrowseFilter, cursor string, limit int) (*SongPage, error)
}

// AudioRemote fetches a song's encoded audio bytes and MIME type.
type AudioRemote interface {
	FetchAudio(ctx context.Context, songUUID string) ([]byte, string, error)
}

// AuthRemote covers the authentication snapshot check.
type AuthRemote interface {
	AuthCheck(ctx context.Context) (*AuthInfo, error)
}

// SyncRemote is the transactional session sub-protocol: pushes are staged
// server-side under a session ID and executed atomically on commit.
type SyncRemote interface {
	SyncPush(ctx context.Context, sessionID string, seq int, opType string, payload map[string]any) error
	SyncCommit(ctx context.Context, sessionID string) (*SyncCommitResult, error)
	SyncDiscard(ctx context.Context, sessionID string) error
	SyncStatus(ctx context.Context, sessionID string) (*SyncStatusResult, error)
}

// Remote is the full server surface the offline core invokes.
type Remote interface {
	QueueRemote
	PlaylistRemote
	PreferencesRemote
	PlaybackRemote
	BrowseRemote
	AudioRemote
	AuthRemote
	SyncRemote
}
