package facade

import (
	"context"
	"fmt"

	"offbeat/internal/domain"
)

// Playlists lists playlists: the server's listing when reachable, the
// cached copy otherwise, and in both cases with not-yet-synced local
// playlists appended.
func (f *Facade) Playlists(ctx context.Context) ([]domain.PlaylistSummary, error) {
	if f.offline() {
		return f.playlistsOffline()
	}
	list, err := f.remote.PlaylistsList(ctx)
	if err != nil {
		if f.fallback(err) {
			return f.playlistsOffline()
		}
		return nil, err
	}
	if err := f.store.PutSetting(domain.SettingServerPlaylists, list); err != nil {
		return nil, err
	}
	f.adoptFavoritesPlaylist(list)
	return f.appendPendingPlaylists(list)
}

func (f *Facade) playlistsOffline() ([]domain.PlaylistSummary, error) {
	var list []domain.PlaylistSummary
	if _, err := f.store.GetSetting(domain.SettingServerPlaylists, &list); err != nil {
		return nil, err
	}
	return f.appendPendingPlaylists(list)
}

func (f *Facade) appendPendingPlaylists(list []domain.PlaylistSummary) ([]domain.PlaylistSummary, error) {
	locals, err := f.store.AllPlaylists()
	if err != nil {
		return nil, err
	}
	for _, p := range locals {
		if !p.Pending() {
			continue
		}
		list = append(list, domain.PlaylistSummary{
			ID:        p.ID,
			Name:      p.Name,
			SongCount: len(p.SongUUIDs),
			Pending:   true,
		})
	}
	return list, nil
}

// adoptFavoritesPlaylist remembers which server playlist backs favorites.
func (f *Facade) adoptFavoritesPlaylist(list []domain.PlaylistSummary) {
	for _, p := range list {
		if p.Name != "Favorites" {
			continue
		}
		f.state.SetFavoritesPlaylistID(p.ID)
		if err := f.store.PutSetting(domain.SettingFavoritesPlaylistID, p.ID); err != nil {
			f.logger.Error("failed to persist favorites playlist id", "error", err)
		}
		return
	}
}

// PlaylistSongs returns one page of a playlist's songs.
func (f *Facade) PlaylistSongs(ctx context.Context, id domain.PlaylistID, offset, limit int) (*domain.SongPage, error) {
	if f.offline() || id.IsLocal() {
		return f.playlistSongsOffline(id, offset, limit)
	}
	page, err := f.remote.PlaylistsGetSongs(ctx, id, offset, limit)
	if err != nil {
		if f.fallback(err) {
			return f.playlistSongsOffline(id, offset, limit)
		}
		return nil, err
	}
	if err := f.store.PutSongs(page.Songs); err != nil {
		return nil, err
	}
	if err := f.cachePlaylistSongs(id, offset, page.Songs); err != nil {
		return nil, err
	}
	f.refreshIndexes()
	return page, nil
}

// cachePlaylistSongs maintains the cached server song list: a fetch from
// the start replaces it, later pages extend it.
func (f *Facade) cachePlaylistSongs(id domain.PlaylistID, offset int, songs []domain.Song) error {
	key := domain.PlaylistSongsKey(id)
	if offset == 0 {
		return f.store.PutSetting(key, songs)
	}
	var cached []domain.Song
	if _, err := f.store.GetSetting(key, &cached); err != nil {
		return err
	}
	if offset != len(cached) {
		return nil // Out-of-order page; keep what we have
	}
	return f.store.PutSetting(key, append(cached, songs...))
}

func (f *Facade) playlistSongsOffline(id domain.PlaylistID, offset, limit int) (*domain.SongPage, error) {
	uuids, err := f.playlistSongUUIDsOffline(id)
	if err != nil {
		return nil, err
	}
	songs, err := f.cachedSongs(uuids)
	if err != nil {
		return nil, err
	}
	total := len(songs)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return &domain.SongPage{
		Songs:      songs[offset:end],
		TotalCount: total,
		HasMore:    end < total,
	}, nil
}

// PlaylistCreate makes a playlist. Offline it gets a placeholder identity
// that every later reference carries until sync resolves it.
func (f *Facade) PlaylistCreate(ctx context.Context, name, description string) (*domain.PlaylistCreated, error) {
	if f.offline() {
		return f.playlistCreateOffline(name, description)
	}
	created, err := f.remote.PlaylistsCreate(ctx, name, description)
	if err != nil {
		if f.fallback(err) {
			return f.playlistCreateOffline(name, description)
		}
		return nil, err
	}
	p := domain.Playlist{ID: created.ID, Name: created.Name, Description: description, UpdatedAt: f.now()}
	if err := f.store.PutPlaylist(p); err != nil {
		return nil, err
	}
	f.appendCachedSummary(domain.PlaylistSummary{ID: created.ID, Name: created.Name, Description: description})
	f.notifyPlaylists()
	return created, nil
}

func (f *Facade) playlistCreateOffline(name, description string) (*domain.PlaylistCreated, error) {
	name, err := f.dedupePlaylistName(name)
	if err != nil {
		return nil, err
	}
	id := domain.NewLocalPlaylistID(f.now())
	p := domain.Playlist{ID: id, Name: name, Description: description, UpdatedAt: f.now()}
	if err := f.store.PutPlaylist(p); err != nil {
		return nil, err
	}
	err = f.enqueue(domain.WritePlaylists, "create", map[string]any{
		"name":        name,
		"description": description,
		"tempId":      id.Token(),
	})
	if err != nil {
		return nil, err
	}
	f.notifyPlaylists()
	return &domain.PlaylistCreated{ID: id, Name: name}, nil
}

// QueueSaveAsPlaylist snapshots the current queue into a new playlist.
// Offline this is the one compound write: sync later splits it into a
// create plus an addSongsBatch against the same placeholder.
func (f *Facade) QueueSaveAsPlaylist(ctx context.Context, name, description string) (*domain.PlaylistCreated, error) {
	if f.offline() {
		return f.queueSaveAsPlaylistOffline(name, description)
	}
	created, err := f.remote.QueueSaveAsPlaylist(ctx, name, description)
	if err != nil {
		if f.fallback(err) {
			return f.queueSaveAsPlaylistOffline(name, description)
		}
		return nil, err
	}
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return nil, err
	}
	p := domain.Playlist{
		ID:          created.ID,
		Name:        created.Name,
		Description: description,
		SongUUIDs:   append([]string(nil), snap.SongUUIDs...),
		TotalSongs:  len(snap.SongUUIDs),
		UpdatedAt:   f.now(),
	}
	if err := f.store.PutPlaylist(p); err != nil {
		return nil, err
	}
	f.appendCachedSummary(domain.PlaylistSummary{ID: created.ID, Name: created.Name, SongCount: len(snap.SongUUIDs)})
	f.notifyPlaylists()
	return created, nil
}

func (f *Facade) queueSaveAsPlaylistOffline(name, description string) (*domain.PlaylistCreated, error) {
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return nil, err
	}
	if len(snap.SongUUIDs) == 0 {
		return nil, fmt.Errorf("queue is empty: %w", domain.ErrNoDataCached)
	}
	name, err = f.dedupePlaylistName(name)
	if err != nil {
		return nil, err
	}
	id := domain.NewLocalPlaylistID(f.now())
	uuids := append([]string(nil), snap.SongUUIDs...)
	p := domain.Playlist{
		ID:          id,
		Name:        name,
		Description: description,
		SongUUIDs:   uuids,
		TotalSongs:  len(uuids),
		UpdatedAt:   f.now(),
	}
	if err := f.store.PutPlaylist(p); err != nil {
		return nil, err
	}
	for _, uuid := range uuids {
		if err := f.updateSongMembership(uuid, id.String(), true); err != nil {
			return nil, err
		}
	}
	err = f.enqueue(domain.WritePlaylists, domain.OpCreateFromQueue, map[string]any{
		"name":        name,
		"description": description,
		"tempId":      id.Token(),
		"songUuids":   uuids,
	})
	if err != nil {
		return nil, err
	}
	f.notifyPlaylists()
	return &domain.PlaylistCreated{ID: id, Name: name}, nil
}

// PlaylistDelete removes a playlist. Deleting a still-pending playlist
// cancels its queued creation instead of recording a delete the server
// could never resolve.
func (f *Facade) PlaylistDelete(ctx context.Context, id domain.PlaylistID) error {
	if id.IsLocal() {
		if err := f.cancelPendingPlaylist(id); err != nil {
			return err
		}
		return f.removePlaylistLocally(id)
	}
	if f.offline() {
		if err := f.removePlaylistLocally(id); err != nil {
			return err
		}
		return f.enqueue(domain.WritePlaylists, "delete", map[string]any{"playlistId": id.Value()})
	}
	if err := f.remote.PlaylistsDelete(ctx, id); err != nil {
		if f.fallback(err) {
			return f.PlaylistDelete(ctx, id)
		}
		return err
	}
	return f.removePlaylistLocally(id)
}

// cancelPendingPlaylist drops every queued write addressed to a
// placeholder playlist, its creation included.
func (f *Facade) cancelPendingPlaylist(id domain.PlaylistID) error {
	writes, err := f.store.ListPending()
	if err != nil {
		return err
	}
	token := id.Token()
	var doomed []uint64
	for _, w := range writes {
		if w.Type != domain.WritePlaylists {
			continue
		}
		if w.PayloadString("tempId") == token || w.PayloadString("playlistId") == token {
			doomed = append(doomed, w.ID)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	if err := f.store.DeletePending(doomed); err != nil {
		return err
	}
	count, err := f.store.CountPending()
	if err != nil {
		return err
	}
	f.state.SetPendingCount(count)
	return nil
}

func (f *Facade) removePlaylistLocally(id domain.PlaylistID) error {
	p, err := f.store.GetPlaylist(id)
	if err != nil {
		return err
	}
	if p != nil {
		for _, uuid := range p.SongUUIDs {
			if err := f.updateSongMembership(uuid, id.String(), false); err != nil {
				return err
			}
		}
		if err := f.store.DeletePlaylist(id); err != nil {
			return err
		}
	}
	if err := f.store.DeleteSetting(domain.PlaylistSongsKey(id)); err != nil {
		return err
	}
	var list []domain.PlaylistSummary
	ok, err := f.store.GetSetting(domain.SettingServerPlaylists, &list)
	if err != nil {
		return err
	}
	if ok {
		kept := list[:0]
		for _, s := range list {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		if err := f.store.PutSetting(domain.SettingServerPlaylists, kept); err != nil {
			return err
		}
	}
	f.notifyPlaylists()
	return nil
}

// PlaylistAddSong appends one song.
func (f *Facade) PlaylistAddSong(ctx context.Context, id domain.PlaylistID, songUUID string) error {
	apply := func() error {
		if err := f.playlistEditLocally(id, func(uuids []string) []string { return append(uuids, songUUID) }); err != nil {
			return err
		}
		return f.updateSongMembership(songUUID, id.String(), true)
	}
	if f.offline() || id.IsLocal() {
		if err := apply(); err != nil {
			return err
		}
		return f.enqueue(domain.WritePlaylists, "addSong", map[string]any{
			"playlistId": id.Value(),
			"songUuid":   songUUID,
		})
	}
	if err := f.remote.PlaylistsAddSong(ctx, id, songUUID); err != nil {
		if f.fallback(err) {
			return f.PlaylistAddSong(ctx, id, songUUID)
		}
		return err
	}
	return apply()
}

// PlaylistRemoveSong removes one song.
func (f *Facade) PlaylistRemoveSong(ctx context.Context, id domain.PlaylistID, songUUID string) error {
	return f.playlistRemove(ctx, id, []string{songUUID}, "removeSong", map[string]any{
		"playlistId": id.Value(),
		"songUuid":   songUUID,
	}, func() error { return f.remote.PlaylistsRemoveSong(ctx, id, songUUID) })
}

// PlaylistRemoveSongs removes several songs in one write.
func (f *Facade) PlaylistRemoveSongs(ctx context.Context, id domain.PlaylistID, songUUIDs []string) error {
	return f.playlistRemove(ctx, id, songUUIDs, "removeSongs", map[string]any{
		"playlistId": id.Value(),
		"songUuids":  songUUIDs,
	}, func() error { return f.remote.PlaylistsRemoveSongs(ctx, id, songUUIDs) })
}

func (f *Facade) playlistRemove(ctx context.Context, id domain.PlaylistID, songUUIDs []string, op string, payload map[string]any, remoteCall func() error) error {
	doomed := make(map[string]struct{}, len(songUUIDs))
	for _, uuid := range songUUIDs {
		doomed[uuid] = struct{}{}
	}
	apply := func() error {
		if err := f.playlistEditLocally(id, func(uuids []string) []string {
			kept := uuids[:0]
			for _, uuid := range uuids {
				if _, gone := doomed[uuid]; !gone {
					kept = append(kept, uuid)
				}
			}
			return kept
		}); err != nil {
			return err
		}
		for _, uuid := range songUUIDs {
			if err := f.updateSongMembership(uuid, id.String(), false); err != nil {
				return err
			}
		}
		return nil
	}
	if f.offline() || id.IsLocal() {
		if err := apply(); err != nil {
			return err
		}
		return f.enqueue(domain.WritePlaylists, op, payload)
	}
	if err := remoteCall(); err != nil {
		if f.fallback(err) {
			return f.playlistRemove(ctx, id, songUUIDs, op, payload, remoteCall)
		}
		return err
	}
	return apply()
}

// PlaylistAddSongsBatch appends several songs in one write.
func (f *Facade) PlaylistAddSongsBatch(ctx context.Context, id domain.PlaylistID, songUUIDs []string) error {
	apply := func() error {
		if err := f.playlistEditLocally(id, func(uuids []string) []string { return append(uuids, songUUIDs...) }); err != nil {
			return err
		}
		for _, uuid := range songUUIDs {
			if err := f.updateSongMembership(uuid, id.String(), true); err != nil {
				return err
			}
		}
		return nil
	}
	if f.offline() || id.IsLocal() {
		if err := apply(); err != nil {
			return err
		}
		return f.enqueue(domain.WritePlaylists, "addSongsBatch", map[string]any{
			"playlistId": id.Value(),
			"songUuids":  songUUIDs,
		})
	}
	if err := f.remote.PlaylistsAddSongsBatch(ctx, id, songUUIDs); err != nil {
		if f.fallback(err) {
			return f.PlaylistAddSongsBatch(ctx, id, songUUIDs)
		}
		return err
	}
	return apply()
}

// PlaylistReorder permutes a playlist: positions[i] is the old index of
// the song that ends up at i.
func (f *Facade) PlaylistReorder(ctx context.Context, id domain.PlaylistID, positions []int) error {
	apply := func() error {
		return f.playlistEditLocally(id, func(uuids []string) []string {
			if len(positions) != len(uuids) {
				return uuids
			}
			out := make([]string, len(uuids))
			for i, old := range positions {
				if old < 0 || old >= len(uuids) {
					return uuids
				}
				out[i] = uuids[old]
			}
			return out
		})
	}
	if f.offline() || id.IsLocal() {
		if err := apply(); err != nil {
			return err
		}
		return f.enqueue(domain.WritePlaylists, "reorder", map[string]any{
			"playlistId": id.Value(),
			"positions":  positions,
		})
	}
	if err := f.remote.PlaylistsReorder(ctx, id, positions); err != nil {
		if f.fallback(err) {
			return f.PlaylistReorder(ctx, id, positions)
		}
		return err
	}
	return apply()
}

// PlaylistSort reorders a playlist by a song attribute.
func (f *Facade) PlaylistSort(ctx context.Context, id domain.PlaylistID, sortBy, order string) error {
	apply := func() error {
		return f.playlistEditLocallyErr(id, func(uuids []string) ([]string, error) {
			if sortBy == SortRandom {
				shuffleStrings(uuids)
				return uuids, nil
			}
			songs, err := f.cachedSongs(uuids)
			if err != nil {
				return nil, err
			}
			if len(songs) != len(uuids) {
				return nil, fmt.Errorf("playlist has songs with no cached metadata: %w", domain.ErrNoDataCached)
			}
			sortSongs(songs, sortBy, order == "desc")
			return songUUIDs(songs), nil
		})
	}
	if f.offline() || id.IsLocal() {
		if err := apply(); err != nil {
			return err
		}
		return f.enqueue(domain.WritePlaylists, "sort", map[string]any{
			"playlistId": id.Value(),
			"sortBy":     sortBy,
			"order":      order,
		})
	}
	if err := f.remote.PlaylistsSort(ctx, id, sortBy, order); err != nil {
		if f.fallback(err) {
			return f.PlaylistSort(ctx, id, sortBy, order)
		}
		return err
	}
	return apply()
}

// playlistEditLocally rewrites a playlist's song list in the local record
// and the cached server copy, whichever exist.
func (f *Facade) playlistEditLocally(id domain.PlaylistID, edit func([]string) []string) error {
	return f.playlistEditLocallyErr(id, func(uuids []string) ([]string, error) {
		return edit(uuids), nil
	})
}

func (f *Facade) playlistEditLocallyErr(id domain.PlaylistID, edit func([]string) ([]string, error)) error {
	p, err := f.store.GetPlaylist(id)
	if err != nil {
		return err
	}
	edited := false
	if p != nil {
		uuids, err := edit(append([]string(nil), p.SongUUIDs...))
		if err != nil {
			return err
		}
		p.SongUUIDs = uuids
		p.TotalSongs = len(uuids)
		p.UpdatedAt = f.now()
		if err := f.store.PutPlaylist(*p); err != nil {
			return err
		}
		edited = true
	}

	var cached []domain.Song
	ok, err := f.store.GetSetting(domain.PlaylistSongsKey(id), &cached)
	if err != nil {
		return err
	}
	if ok {
		uuids, err := edit(songUUIDs(cached))
		if err != nil {
			return err
		}
		byUUID := make(map[string]domain.Song, len(cached))
		for _, s := range cached {
			byUUID[s.UUID] = s
		}
		out := make([]domain.Song, 0, len(uuids))
		for _, uuid := range uuids {
			if s, found := byUUID[uuid]; found {
				out = append(out, s)
			} else if song, err := f.store.GetSong(uuid); err != nil {
				return err
			} else if song != nil {
				out = append(out, *song)
			}
		}
		if err := f.store.PutSetting(domain.PlaylistSongsKey(id), out); err != nil {
			return err
		}
		edited = true
	}

	if !edited && id.IsLocal() {
		return fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, id)
	}
	f.notifyPlaylists()
	return nil
}

// updateSongMembership keeps a song record's playlist list in step with
// playlist membership changes.
func (f *Facade) updateSongMembership(songUUID, playlistKey string, member bool) error {
	song, err := f.store.GetSong(songUUID)
	if err != nil || song == nil {
		return err
	}
	has := false
	for _, p := range song.Playlists {
		if p == playlistKey {
			has = true
			break
		}
	}
	if member == has {
		return nil
	}
	if member {
		song.Playlists = append(song.Playlists, playlistKey)
	} else {
		kept := song.Playlists[:0]
		for _, p := range song.Playlists {
			if p != playlistKey {
				kept = append(kept, p)
			}
		}
		song.Playlists = kept
	}
	return f.store.PutSongs([]domain.Song{*song})
}

// dedupePlaylistName suffixes the name until it collides with nothing
// cached or pending.
func (f *Facade) dedupePlaylistName(name string) (string, error) {
	taken := make(map[string]struct{})
	var list []domain.PlaylistSummary
	if _, err := f.store.GetSetting(domain.SettingServerPlaylists, &list); err != nil {
		return "", err
	}
	for _, s := range list {
		taken[s.Name] = struct{}{}
	}
	locals, err := f.store.AllPlaylists()
	if err != nil {
		return "", err
	}
	for _, p := range locals {
		taken[p.Name] = struct{}{}
	}
	candidate := name
	for i := 2; ; i++ {
		if _, used := taken[candidate]; !used {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)", name, i)
	}
}

func (f *Facade) appendCachedSummary(s domain.PlaylistSummary) {
	var list []domain.PlaylistSummary
	if _, err := f.store.GetSetting(domain.SettingServerPlaylists, &list); err != nil {
		f.logger.Error("failed to read cached playlists", "error", err)
		return
	}
	list = append(list, s)
	if err := f.store.PutSetting(domain.SettingServerPlaylists, list); err != nil {
		f.logger.Error("failed to cache playlist summary", "error", err)
	}
}

func (f *Facade) notifyPlaylists() {
	playlists, err := f.store.AllPlaylists()
	if err != nil {
		f.logger.Error("failed to reload playlists", "error", err)
		return
	}
	f.state.SetPlaylists(playlists)
}
