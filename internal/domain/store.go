package domain

// SongStore persists song metadata keyed by UUID.
type SongStore interface {
	PutSongs(songs []Song) error
	GetSong(uuid string) (*Song, error)
	AllSongs() ([]Song, error)
	DeleteSongs(uuids []string) error
}

// PlaylistStore persists playlist records, including placeholder-keyed
// local playlists. ResolvePlaylistID rewrites a placeholder to its
// server-assigned ID across every record that references it.
type PlaylistStore interface {
	PutPlaylist(p Playlist) error
	GetPlaylist(id PlaylistID) (*Playlist, error)
	AllPlaylists() ([]Playlist, error)
	DeletePlaylist(id PlaylistID) error
	ResolvePlaylistID(local PlaylistID, remote PlaylistID) error
}

// QueueStore persists named queue snapshots.
type QueueStore interface {
	GetQueue(key QueueKey) (*QueueSnapshot, error)
	PutQueue(key QueueKey, snap QueueSnapshot) error
	DeleteQueue(key QueueKey) error
}

// PendingStore is the durable ordered log of writes awaiting sync.
// Append assigns a monotonically increasing ID; ListPending returns
// writes in assignment order.
type PendingStore interface {
	AppendPending(w PendingWrite) (PendingWrite, error)
	ListPending() ([]PendingWrite, error)
	CountPending() (int, error)
	DeletePending(ids []uint64) error
	UpdatePending(w PendingWrite) error
	ClearPending() error
}

// Well-known settings keys.
const (
	SettingPreferences         = "preferences"
	SettingServerPlaylists     = "serverPlaylists"
	SettingAuth                = "auth"
	SettingFavoritesPlaylistID = "favoritesPlaylistID"
	SettingLastSync            = "lastSyncTime"
	SettingEQPresets           = "eqPresets"
	SettingPlaybackState       = "playbackState"
	SettingHistory             = "playHistory"
)

// PlaylistSongsKey is the settings key caching a server playlist's songs.
func PlaylistSongsKey(id PlaylistID) string {
	return "playlistSongs:" + id.String()
}

// SettingsStore is a generic key to JSON-value bucket for small records:
// preferences, cached listings, auth snapshots, sync bookkeeping.
type SettingsStore interface {
	GetSetting(key string, out any) (bool, error)
	PutSetting(key string, v any) error
	DeleteSetting(key string) error
}

// FavoritesStore persists the favorites song set.
type FavoritesStore interface {
	AddFavorite(songUUID string) error
	RemoveFavorite(songUUID string) error
	ListFavorites() ([]string, error)
	ReplaceFavorites(songUUIDs []string) error
}

// BlobStore persists downloaded audio alongside its metadata and keeps
// the per-category disk usage counters consistent with blob writes.
type BlobStore interface {
	PutBlob(meta AudioBlob, data []byte) error
	GetBlob(songUUID string) (*AudioBlob, []byte, error)
	GetBlobMeta(songUUID string) (*AudioBlob, error)
	PutBlobMeta(meta AudioBlob) error
	AllBlobMeta() ([]AudioBlob, error)
	DeleteBlob(songUUID string) error
	Usage() (map[string]UsageEntry, error)
}

// FolderStore persists offline folder records.
type FolderStore interface {
	PutFolder(f OfflineFolder) error
	GetFolder(id string) (*OfflineFolder, error)
	AllFolders() ([]OfflineFolder, error)
	DeleteFolder(id string) error
}

// Store is the full persistence surface of the offline core.
type Store interface {
	SongStore
	PlaylistStore
	QueueStore
	PendingStore
	SettingsStore
	FavoritesStore
	BlobStore
	FolderStore
}
