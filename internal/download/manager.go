// Package download pulls audio into the local cache for offline playback.
// Downloads are pull-only: they never create pending writes, and a
// cancelled run keeps everything fetched so far, with the owning record
// marked incomplete.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"offbeat/internal/domain"
	"offbeat/internal/state"
)

// Remote is the server surface downloads need.
type Remote interface {
	domain.AudioRemote
	domain.PlaylistRemote
	domain.BrowseRemote
}

// Progress reports per-song download progress.
type Progress func(done, total int, songUUID string)

type Manager struct {
	remote   Remote
	store    domain.Store
	state    *state.Container
	logger   *slog.Logger
	now      func() time.Time
	progress Progress
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithProgress(p Progress) Option {
	return func(m *Manager) { m.progress = p }
}

func New(remote Remote, store domain.Store, st *state.Container, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		remote: remote,
		store:  store,
		state:  st,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

const songPageSize = 200

// DownloadPlaylist fetches a playlist's songs and audio. The playlist
// record tracks progress; cancelling mid-run leaves it incomplete but
// keeps every blob already fetched.
func (m *Manager) DownloadPlaylist(ctx context.Context, id domain.PlaylistID, name, description string) error {
	songs, err := m.fetchPlaylistSongs(ctx, id)
	if err != nil {
		return err
	}
	p := domain.Playlist{
		ID:          id,
		Name:        name,
		Description: description,
		SongUUIDs:   uuidsOf(songs),
		TotalSongs:  len(songs),
		UpdatedAt:   m.now(),
	}
	if existing, err := m.store.GetPlaylist(id); err != nil {
		return err
	} else if existing != nil {
		if p.Name == "" {
			p.Name = existing.Name
		}
		if p.Description == "" {
			p.Description = existing.Description
		}
	}
	if err := m.store.PutPlaylist(p); err != nil {
		return err
	}

	key := id.String()
	for i := range songs {
		songs[i].Playlists = appendUnique(songs[i].Playlists, key)
	}
	if err := m.store.PutSongs(songs); err != nil {
		return err
	}
	m.refreshAfterSongs()

	meta := blobTemplate{
		category:    domain.UsagePlaylists,
		playlistIDs: []string{key},
		source:      "playlist:" + key,
	}
	downloaded, bytes, runErr := m.fetchBlobs(ctx, songs, meta)

	p.DownloadedSongs = downloaded
	p.DownloadedBytes = bytes
	p.Complete = runErr == nil && downloaded == len(songs)
	p.UpdatedAt = m.now()
	if err := m.store.PutPlaylist(p); err != nil {
		return err
	}
	m.notifyPlaylists()
	return runErr
}

// DownloadByPath fetches every song under a library path into an offline
// folder. Re-downloading the same path updates the existing folder.
func (m *Manager) DownloadByPath(ctx context.Context, path, name string) error {
	var songs []domain.Song
	cursor := ""
	for {
		page, err := m.remote.BrowseSongsByPath(ctx, path, cursor, songPageSize)
		if err != nil {
			return err
		}
		songs = append(songs, page.Songs...)
		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if name == "" {
		name = path
	}
	return m.downloadFolder(ctx, domain.OfflineFolder{
		ID:   domain.FolderIDForPath(path),
		Name: name,
		Path: path,
	}, songs)
}

// DownloadByFilter fetches every song matching a hierarchy filter into an
// offline folder keyed by the filter, so identical selections coalesce.
func (m *Manager) DownloadByFilter(ctx context.Context, filter domain.BrowseFilter, name string) error {
	var songs []domain.Song
	cursor := ""
	for {
		page, err := m.remote.BrowseSongsByFilter(ctx, filter, cursor, songPageSize)
		if err != nil {
			return err
		}
		songs = append(songs, page.Songs...)
		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if name == "" {
		name = filter.Serialize()
	}
	f := filter
	return m.downloadFolder(ctx, domain.OfflineFolder{
		ID:     domain.FolderIDForFilter(filter),
		Name:   name,
		Filter: &f,
	}, songs)
}

func (m *Manager) downloadFolder(ctx context.Context, folder domain.OfflineFolder, songs []domain.Song) error {
	if len(songs) == 0 {
		return fmt.Errorf("no songs matched the selection")
	}
	folder.SongUUIDs = uuidsOf(songs)
	folder.DownloadedAt = m.now()

	for i := range songs {
		songs[i].Folders = appendUnique(songs[i].Folders, folder.ID)
	}
	if err := m.store.PutSongs(songs); err != nil {
		return err
	}
	m.refreshAfterSongs()

	meta := blobTemplate{
		category:  domain.UsageFolders,
		folderIDs: []string{folder.ID},
		source:    folder.ID,
	}
	_, bytes, runErr := m.fetchBlobs(ctx, songs, meta)

	folder.DownloadedBytes = bytes
	if err := m.store.PutFolder(folder); err != nil {
		return err
	}
	m.notifyFolders()
	return runErr
}

// DownloadSong fetches a single song's audio, tagged with a provenance
// source for grouping and orphan cleanup.
func (m *Manager) DownloadSong(ctx context.Context, song domain.Song, source string) error {
	song.DownloadSource = source
	if err := m.store.PutSongs([]domain.Song{song}); err != nil {
		return err
	}
	m.refreshAfterSongs()
	meta := blobTemplate{category: domain.UsageSongs, source: source}
	_, _, err := m.fetchBlobs(ctx, []domain.Song{song}, meta)
	return err
}

type blobTemplate struct {
	category    string
	playlistIDs []string
	folderIDs   []string
	source      string
}

// fetchBlobs downloads audio for each song not already cached. It stops at
// the first cancellation or fetch error, returning what it managed; songs
// whose blobs already exist count as downloaded.
func (m *Manager) fetchBlobs(ctx context.Context, songs []domain.Song, tmpl blobTemplate) (downloaded int, bytes int64, err error) {
	total := len(songs)
	for i, song := range songs {
		if ctx.Err() != nil {
			return downloaded, bytes, ctx.Err()
		}

		existing, err := m.store.GetBlobMeta(song.UUID)
		if err != nil {
			return downloaded, bytes, err
		}
		if existing != nil {
			// Already cached; just extend its ownership.
			existing.PlaylistIDs = appendAllUnique(existing.PlaylistIDs, tmpl.playlistIDs)
			existing.FolderIDs = appendAllUnique(existing.FolderIDs, tmpl.folderIDs)
			existing.LastAccessedAt = m.now()
			if err := m.store.PutBlobMeta(*existing); err != nil {
				return downloaded, bytes, err
			}
			downloaded++
			bytes += existing.Size
			m.report(i+1, total, song.UUID)
			continue
		}

		data, mime, err := m.remote.FetchAudio(ctx, song.UUID)
		if err != nil {
			m.logger.Warn("audio fetch failed", "song", song.UUID, "error", err)
			return downloaded, bytes, err
		}
		meta := domain.AudioBlob{
			SongUUID:       song.UUID,
			MIMEType:       mime,
			Category:       tmpl.category,
			PlaylistIDs:    tmpl.playlistIDs,
			FolderIDs:      tmpl.folderIDs,
			DownloadedAt:   m.now(),
			LastAccessedAt: m.now(),
			DownloadSource: tmpl.source,
		}
		if err := m.store.PutBlob(meta, data); err != nil {
			return downloaded, bytes, err
		}
		downloaded++
		bytes += int64(len(data))
		m.report(i+1, total, song.UUID)
	}
	return downloaded, bytes, nil
}

func (m *Manager) report(done, total int, songUUID string) {
	if m.progress != nil {
		m.progress(done, total, songUUID)
	}
}

// Audio returns cached audio bytes for playback, touching the access time.
func (m *Manager) Audio(songUUID string) (*domain.AudioBlob, []byte, error) {
	meta, data, err := m.store.GetBlob(songUUID)
	if err != nil || meta == nil {
		return nil, nil, err
	}
	meta.LastAccessedAt = m.now()
	if err := m.store.PutBlobMeta(*meta); err != nil {
		m.logger.Warn("failed to touch blob access time", "song", songUUID, "error", err)
	}
	return meta, data, nil
}

// RemovePlaylistDownload releases a playlist's claim on its blobs,
// deleting any left with no other owner, and drops the offline record.
// Placeholder playlists keep their record; only the audio goes.
func (m *Manager) RemovePlaylistDownload(id domain.PlaylistID) error {
	p, err := m.store.GetPlaylist(id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, id)
	}
	key := id.String()
	for _, uuid := range p.SongUUIDs {
		if err := m.releaseBlob(uuid, key, ""); err != nil {
			return err
		}
	}
	if p.Pending() {
		p.DownloadedSongs = 0
		p.DownloadedBytes = 0
		p.Complete = false
		if err := m.store.PutPlaylist(*p); err != nil {
			return err
		}
	} else if err := m.store.DeletePlaylist(id); err != nil {
		return err
	}
	m.notifyPlaylists()
	return nil
}

// RemoveFolder releases a folder's blobs and deletes the record.
func (m *Manager) RemoveFolder(folderID string) error {
	folder, err := m.store.GetFolder(folderID)
	if err != nil {
		return err
	}
	if folder == nil {
		return nil
	}
	for _, uuid := range folder.SongUUIDs {
		if err := m.releaseBlob(uuid, "", folderID); err != nil {
			return err
		}
	}
	if err := m.store.DeleteFolder(folderID); err != nil {
		return err
	}
	m.notifyFolders()
	return nil
}

// releaseBlob removes one ownership reference and deletes the blob when
// nothing owns it anymore.
func (m *Manager) releaseBlob(songUUID, playlistKey, folderID string) error {
	meta, err := m.store.GetBlobMeta(songUUID)
	if err != nil || meta == nil {
		return err
	}
	if playlistKey != "" {
		meta.PlaylistIDs = removeString(meta.PlaylistIDs, playlistKey)
	}
	if folderID != "" {
		meta.FolderIDs = removeString(meta.FolderIDs, folderID)
	}
	if len(meta.PlaylistIDs) == 0 && len(meta.FolderIDs) == 0 && meta.Category != domain.UsageSongs {
		return m.store.DeleteBlob(songUUID)
	}
	return m.store.PutBlobMeta(*meta)
}

// CleanupOrphans deletes blobs no playlist, folder, or individual
// download claims. Returns how many were removed.
func (m *Manager) CleanupOrphans() (int, error) {
	metas, err := m.store.AllBlobMeta()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, meta := range metas {
		if len(meta.PlaylistIDs) > 0 || len(meta.FolderIDs) > 0 || meta.DownloadSource != "" {
			continue
		}
		if err := m.store.DeleteBlob(meta.SongUUID); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("removed orphaned audio", "count", removed)
	}
	return removed, nil
}

// Usage reports per-category disk accounting.
func (m *Manager) Usage() (map[string]domain.UsageEntry, error) {
	return m.store.Usage()
}

func (m *Manager) fetchPlaylistSongs(ctx context.Context, id domain.PlaylistID) ([]domain.Song, error) {
	var songs []domain.Song
	offset := 0
	for {
		page, err := m.remote.PlaylistsGetSongs(ctx, id, offset, songPageSize)
		if err != nil {
			return nil, err
		}
		songs = append(songs, page.Songs...)
		if !page.HasMore || len(page.Songs) == 0 {
			break
		}
		offset += len(page.Songs)
	}
	return songs, nil
}

func (m *Manager) refreshAfterSongs() {
	songs, err := m.store.AllSongs()
	if err != nil {
		m.logger.Error("failed to scan songs for indexes", "error", err)
		return
	}
	m.state.RebuildIndexes(songs)
}

func (m *Manager) notifyPlaylists() {
	playlists, err := m.store.AllPlaylists()
	if err != nil {
		m.logger.Error("failed to reload playlists", "error", err)
		return
	}
	m.state.SetPlaylists(playlists)
}

func (m *Manager) notifyFolders() {
	folders, err := m.store.AllFolders()
	if err != nil {
		m.logger.Error("failed to reload folders", "error", err)
		return
	}
	m.state.SetFolders(folders)
}

func uuidsOf(songs []domain.Song) []string {
	uuids := make([]string, len(songs))
	for i, s := range songs {
		uuids[i] = s.UUID
	}
	return uuids
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

func appendAllUnique(list, vs []string) []string {
	for _, v := range vs {
		list = appendUnique(list, v)
	}
	return list
}

func removeString(list []string, v string) []string {
	kept := list[:0]
	for _, s := range list {
		if s != v {
			kept = append(kept, s)
		}
	}
	return kept
}
