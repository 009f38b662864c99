package domain

import (
	"fmt"
	"time"
)

// Song is the cached metadata record for a single track. A song record MUST
// exist for every UUID referenced by a cached queue, playlist, or folder;
// every mutation site that introduces a UUID into a cached collection is
// responsible for upserting the record first.
type Song struct {
	UUID            string  `json:"uuid"`
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Album           string  `json:"album"`
	AlbumArtist     string  `json:"album_artist"`
	TrackNumber     int     `json:"track_number"`
	DiscNumber      int     `json:"disc_number"`
	Year            int     `json:"year"`
	DurationSeconds float64 `json:"duration_seconds"`
	Genre           string  `json:"genre"`
	Category        string  `json:"category"`
	File            string  `json:"file"`
	Seekable        bool    `json:"seekable"`
	ReplayGainTrack float64 `json:"replay_gain_track"`
	ReplayGainAlbum float64 `json:"replay_gain_album"`

	// Membership lists: which local playlists and offline folders
	// reference this song.
	Playlists []string `json:"playlists,omitempty"`
	Folders   []string `json:"folders,omitempty"`

	// DownloadSource is free-form provenance for individually-downloaded
	// songs ("browse:<path>", "playlist:<id>", ...). Used to group items
	// in the UI and to decide orphan eligibility.
	DownloadSource string `json:"download_source,omitempty"`
}

// SortKey returns disc*1000+track, the composite used for track ordering.
func (s Song) SortKey() int {
	return s.DiscNumber*1000 + s.TrackNumber
}

// Playlist is the offline/downloaded copy of a playlist. Its identity may be
// a placeholder until the corresponding create commits.
type Playlist struct {
	ID              PlaylistID `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	SongUUIDs       []string   `json:"song_uuids"`
	DownloadedBytes int64      `json:"downloaded_bytes"`
	DownloadedSongs int        `json:"downloaded_songs"`
	TotalSongs      int        `json:"total_songs"`
	Complete        bool       `json:"complete"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Pending reports whether this playlist has not yet been created server-side.
func (p Playlist) Pending() bool { return p.ID.IsLocal() }

// PlaylistSummary is the server's playlist listing shape.
type PlaylistSummary struct {
	ID          PlaylistID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsPublic    bool       `json:"is_public"`
	SongCount   int        `json:"song_count"`
	Pending     bool       `json:"pending,omitempty"`
}

// QueueKey selects one of the persisted queue snapshots.
type QueueKey string

const (
	// QueueCurrent is the live queue, reconciled with the server.
	QueueCurrent QueueKey = "current"
	// QueueTemp is the never-synced preview queue.
	QueueTemp QueueKey = "temp"
	// QueueTempSaved holds the snapshot replaced when the preview queue
	// was entered, restored when it exits.
	QueueTempSaved QueueKey = "tempSaved"
)

// QueueSnapshot is a single cached queue: ordered songs plus playback flags
// and the device/sequence markers used for last-writer-wins resolution.
type QueueSnapshot struct {
	SongUUIDs  []string  `json:"song_uuids"`
	Index      int       `json:"index"`
	PlayMode   string    `json:"play_mode"`
	Shuffle    bool      `json:"shuffle"`
	ScaEnabled bool      `json:"sca_enabled"`
	Volume     float64   `json:"volume"`
	DeviceID   string    `json:"device_id,omitempty"`
	DeviceSeq  int64     `json:"device_seq,omitempty"`
	SyncedAt   time.Time `json:"synced_at,omitempty"`
}

// Len returns the number of queued songs.
func (q QueueSnapshot) Len() int { return len(q.SongUUIDs) }

// AudioBlob is the metadata half of a downloaded audio file; the raw bytes
// live in a sibling bucket keyed by the same UUID.
type AudioBlob struct {
	SongUUID       string    `json:"song_uuid"`
	MIMEType       string    `json:"mime_type"`
	Size           int64     `json:"size"`
	Category       string    `json:"category"`
	PlaylistIDs    []string  `json:"playlist_ids,omitempty"`
	FolderIDs      []string  `json:"folder_ids,omitempty"`
	DownloadedAt   time.Time `json:"downloaded_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	DownloadSource string    `json:"download_source,omitempty"`
}

// Usage categories for disk accounting.
const (
	UsagePlaylists = "playlists"
	UsageFolders   = "folders"
	UsageSongs     = "songs"
)

// UsageEntry is a per-category disk accounting counter pair.
type UsageEntry struct {
	Bytes int64 `json:"bytes"`
	Count int64 `json:"count"`
}

// BrowseFilter selects songs by library hierarchy. Empty fields match all.
type BrowseFilter struct {
	Category string `json:"category,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
}

// IsZero reports whether no filter fields are set.
func (f BrowseFilter) IsZero() bool {
	return f == BrowseFilter{}
}

// Serialize renders the filter in a canonical order so that identical
// filters always derive the same offline-folder identity.
func (f BrowseFilter) Serialize() string {
	return fmt.Sprintf("c=%s|g=%s|ar=%s|al=%s", f.Category, f.Genre, f.Artist, f.Album)
}

// Matches reports whether the song satisfies every set field. The unknown
// sentinel values match songs whose corresponding field is empty.
func (f BrowseFilter) Matches(s Song) bool {
	return matchField(f.Category, s.Category, UnknownCategory) &&
		matchField(f.Genre, s.Genre, UnknownGenre) &&
		matchField(f.Artist, s.Artist, UnknownArtist) &&
		matchField(f.Album, s.Album, UnknownAlbum)
}

func matchField(want, have, unknown string) bool {
	switch want {
	case "", AllGenres:
		return true
	case unknown:
		return have == ""
	default:
		return want == have
	}
}

// Synthetic bucket names for songs missing a hierarchy field, plus the
// pseudo-entry prepended to genre listings.
const (
	UnknownCategory = "[Unknown Category]"
	UnknownGenre    = "[Unknown Genre]"
	UnknownArtist   = "[Unknown Artist]"
	UnknownAlbum    = "[Unknown Album]"
	AllGenres       = "[All Genres]"
)

// OfflineFolder is a named, persisted grouping of songs downloaded by path
// or by hierarchy filter rather than by playlist. Its identity is derived
// from the selector, so re-downloading the same selection updates the
// existing record instead of duplicating it.
type OfflineFolder struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Path            string        `json:"path,omitempty"`
	Filter          *BrowseFilter `json:"filter,omitempty"`
	SongUUIDs       []string      `json:"song_uuids"`
	DownloadedBytes int64         `json:"downloaded_bytes"`
	DownloadedAt    time.Time     `json:"downloaded_at"`
}

// FolderIDForPath derives the identity for a path-selected folder.
func FolderIDForPath(path string) string { return "path:" + path }

// FolderIDForFilter derives the identity for a filter-selected folder.
func FolderIDForFilter(f BrowseFilter) string { return "filter:" + f.Serialize() }

// Preferences is the user preferences snapshot, cached locally and
// reconciled by last-write-wins against the server copy.
type Preferences struct {
	Volume             float64 `json:"volume"`
	Shuffle            bool    `json:"shuffle"`
	RepeatMode         string  `json:"repeat_mode"`
	RadioEopp          bool    `json:"radio_eopp"`
	DarkMode           bool    `json:"dark_mode"`
	ReplayGainMode     string  `json:"replay_gain_mode"`
	ReplayGainPreamp   float64 `json:"replay_gain_preamp"`
	ReplayGainFallback float64 `json:"replay_gain_fallback"`

	// UpdatedAt is the local modification timestamp used for
	// last-write-wins; zero means never modified locally.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DefaultPreferences returns the server's documented defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		Volume:             1.0,
		RepeatMode:         "none",
		RadioEopp:          true,
		ReplayGainMode:     "off",
		ReplayGainPreamp:   0.0,
		ReplayGainFallback: -6.0,
	}
}

// EQPreset is a named equalizer band configuration.
type EQPreset struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Bands     []float64 `json:"bands"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// PlaybackState mirrors the server's per-user playback state record.
type PlaybackState struct {
	QueueIndex int     `json:"queueIndex"`
	ScaEnabled bool    `json:"scaEnabled"`
	PlayMode   string  `json:"playMode"`
	Volume     float64 `json:"volume"`
}

// DefaultPlaybackState returns the state served for users with no record.
func DefaultPlaybackState() PlaybackState {
	return PlaybackState{PlayMode: "sequential", Volume: 1.0}
}

// HistoryEntry is a single recorded play event.
type HistoryEntry struct {
	SongUUID        string    `json:"song_uuid"`
	DurationSeconds float64   `json:"duration_seconds"`
	Skipped         bool      `json:"skipped"`
	Source          string    `json:"source"`
	PlayedAt        time.Time `json:"played_at"`
}

// AuthInfo is the cached authentication snapshot.
type AuthInfo struct {
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
	Capabilities  []string `json:"capabilities,omitempty"`
}

// BrowseBucket is one entry in a category/genre/artist/album listing.
type BrowseBucket struct {
	Name      string `json:"name"`
	SongCount int    `json:"song_count"`
}
