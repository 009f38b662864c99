// Package state holds the in-memory view of the offline core: connectivity
// flags, sync status, pending-write count, favorites, cached playlists, and
// the browse indexes derived from cached songs. All reads and writes go
// through a single container guarded by one lock; change notifications fire
// synchronously after the lock is released.
package state

import (
	"sort"
	"strings"
	"sync"
	"time"

	"offbeat/internal/domain"
)

// Container is the shared mutable state. The zero value is not usable;
// construct with New.
type Container struct {
	mu sync.RWMutex

	online        bool
	workOffline   bool
	previewActive bool

	pendingCount int
	syncFailed   bool
	syncError    string
	syncFailedAt time.Time
	lastSyncAt   time.Time

	favorites           map[string]struct{}
	favoritesPlaylistID domain.PlaylistID

	playlists []domain.Playlist
	folders   []domain.OfflineFolder

	indexes BrowseIndexes

	events *registry
}

func New() *Container {
	return &Container{
		online:    true,
		favorites: make(map[string]struct{}),
		events:    newRegistry(),
	}
}

// Hydrate loads the persisted pieces of state at startup. The work-offline
// flag is not stored in the database (it must be readable before the store
// opens), so the caller sets it separately.
func (c *Container) Hydrate(store domain.Store) error {
	count, err := store.CountPending()
	if err != nil {
		return err
	}
	favs, err := store.ListFavorites()
	if err != nil {
		return err
	}
	playlists, err := store.AllPlaylists()
	if err != nil {
		return err
	}
	folders, err := store.AllFolders()
	if err != nil {
		return err
	}
	songs, err := store.AllSongs()
	if err != nil {
		return err
	}

	var favID domain.PlaylistID
	if _, err := store.GetSetting(domain.SettingFavoritesPlaylistID, &favID); err != nil {
		return err
	}
	var lastSync time.Time
	if _, err := store.GetSetting(domain.SettingLastSync, &lastSync); err != nil {
		return err
	}
	// A saved pre-preview snapshot means the process died with the preview
	// queue live.
	saved, err := store.GetQueue(domain.QueueTempSaved)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.previewActive = saved != nil
	c.pendingCount = count
	c.favorites = make(map[string]struct{}, len(favs))
	for _, f := range favs {
		c.favorites[f] = struct{}{}
	}
	c.favoritesPlaylistID = favID
	c.lastSyncAt = lastSync
	c.playlists = playlists
	c.folders = folders
	c.indexes = buildIndexes(songs)
	c.mu.Unlock()
	return nil
}

// === Connectivity ===

// Online reports the last observed server reachability.
func (c *Container) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// SetOnline records observed reachability and notifies on transitions.
func (c *Container) SetOnline(online bool) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	c.mu.Unlock()
	if changed {
		c.events.emit(EventConnectivity)
	}
}

// WorkOffline reports the user's explicit offline preference.
func (c *Container) WorkOffline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workOffline
}

func (c *Container) SetWorkOffline(v bool) {
	c.mu.Lock()
	changed := c.workOffline != v
	c.workOffline = v
	c.mu.Unlock()
	if changed {
		c.events.emit(EventConnectivity)
	}
}

// PreviewActive reports whether the live queue currently holds an
// ephemeral preview. Queue mutations made in this mode never sync.
func (c *Container) PreviewActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.previewActive
}

func (c *Container) SetPreviewActive(v bool) {
	c.mu.Lock()
	c.previewActive = v
	c.mu.Unlock()
}

// ShouldUseOffline is the single routing decision every operation consults:
// serve locally when the server is unreachable or the user asked for it.
func (c *Container) ShouldUseOffline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.online || c.workOffline
}

// === Sync bookkeeping ===

func (c *Container) PendingCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pendingCount
}

func (c *Container) SetPendingCount(n int) {
	c.mu.Lock()
	changed := c.pendingCount != n
	c.pendingCount = n
	c.mu.Unlock()
	if changed {
		c.events.emit(EventPending)
	}
}

// SyncStatus returns the failure flag plus its message and timestamp.
func (c *Container) SyncStatus() (failed bool, message string, at time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.syncFailed, c.syncError, c.syncFailedAt
}

func (c *Container) SetSyncFailed(message string, at time.Time) {
	c.mu.Lock()
	c.syncFailed = true
	c.syncError = message
	c.syncFailedAt = at
	c.mu.Unlock()
	c.events.emit(EventSync)
}

func (c *Container) ClearSyncFailed() {
	c.mu.Lock()
	changed := c.syncFailed
	c.syncFailed = false
	c.syncError = ""
	c.syncFailedAt = time.Time{}
	c.mu.Unlock()
	if changed {
		c.events.emit(EventSync)
	}
}

func (c *Container) LastSyncAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSyncAt
}

func (c *Container) SetLastSyncAt(t time.Time) {
	c.mu.Lock()
	c.lastSyncAt = t
	c.mu.Unlock()
	c.events.emit(EventSync)
}

// === Favorites ===

func (c *Container) IsFavorite(songUUID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.favorites[songUUID]
	return ok
}

func (c *Container) Favorites() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.favorites))
	for uuid := range c.favorites {
		out = append(out, uuid)
	}
	sort.Strings(out)
	return out
}

func (c *Container) SetFavorite(songUUID string, fav bool) {
	c.mu.Lock()
	if fav {
		c.favorites[songUUID] = struct{}{}
	} else {
		delete(c.favorites, songUUID)
	}
	c.mu.Unlock()
	c.events.emit(EventFavorites)
}

func (c *Container) ReplaceFavorites(songUUIDs []string) {
	c.mu.Lock()
	c.favorites = make(map[string]struct{}, len(songUUIDs))
	for _, uuid := range songUUIDs {
		c.favorites[uuid] = struct{}{}
	}
	c.mu.Unlock()
	c.events.emit(EventFavorites)
}

func (c *Container) FavoritesPlaylistID() domain.PlaylistID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.favoritesPlaylistID
}

func (c *Container) SetFavoritesPlaylistID(id domain.PlaylistID) {
	c.mu.Lock()
	c.favoritesPlaylistID = id
	c.mu.Unlock()
}

// === Cached collections ===

// Playlists returns a copy of the cached offline playlist records.
func (c *Container) Playlists() []domain.Playlist {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Playlist, len(c.playlists))
	copy(out, c.playlists)
	return out
}

func (c *Container) SetPlaylists(playlists []domain.Playlist) {
	c.mu.Lock()
	c.playlists = playlists
	c.mu.Unlock()
	c.events.emit(EventPlaylists)
}

func (c *Container) Folders() []domain.OfflineFolder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.OfflineFolder, len(c.folders))
	copy(out, c.folders)
	return out
}

func (c *Container) SetFolders(folders []domain.OfflineFolder) {
	c.mu.Lock()
	c.folders = folders
	c.mu.Unlock()
	c.events.emit(EventFolders)
}

// === Browse indexes ===

// BrowseIndexes are the distinct-value listings derived from cached songs,
// kept sorted case-insensitively. The HasUnknown flags record whether any
// song is missing the corresponding field, which adds a synthetic bucket
// to offline browse results.
type BrowseIndexes struct {
	Categories []string
	Genres     []string
	Artists    []string
	Albums     []string
	Paths      []string

	HasUnknownGenre  bool
	HasUnknownArtist bool
	HasUnknownAlbum  bool
}

func (c *Container) Indexes() BrowseIndexes {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexes
}

// RebuildIndexes recomputes the browse indexes from a full song scan.
// Called after any mutation that adds or removes cached songs.
func (c *Container) RebuildIndexes(songs []domain.Song) {
	idx := buildIndexes(songs)
	c.mu.Lock()
	c.indexes = idx
	c.mu.Unlock()
	c.events.emit(EventLibrary)
}

func buildIndexes(songs []domain.Song) BrowseIndexes {
	categories := make(map[string]struct{})
	genres := make(map[string]struct{})
	artists := make(map[string]struct{})
	albums := make(map[string]struct{})
	paths := make(map[string]struct{})
	var idx BrowseIndexes

	for _, s := range songs {
		if s.Category != "" {
			categories[s.Category] = struct{}{}
		}
		if s.Genre != "" {
			genres[s.Genre] = struct{}{}
		} else {
			idx.HasUnknownGenre = true
		}
		if s.Artist != "" {
			artists[s.Artist] = struct{}{}
		} else {
			idx.HasUnknownArtist = true
		}
		if s.Album != "" {
			albums[s.Album] = struct{}{}
		} else {
			idx.HasUnknownAlbum = true
		}
		if s.File != "" {
			paths[parentDir(s.File)] = struct{}{}
		}
	}

	idx.Categories = sortedKeys(categories)
	idx.Genres = sortedKeys(genres)
	idx.Artists = sortedKeys(artists)
	idx.Albums = sortedKeys(albums)
	idx.Paths = sortedKeys(paths)
	return idx
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

func parentDir(file string) string {
	if i := strings.LastIndex(file, "/"); i > 0 {
		return file[:i]
	}
	return "/"
}
