package facade

import (
	"context"
	"fmt"
	"sort"

	"offbeat/internal/domain"
	"offbeat/internal/state"
)

// queuePageSize bounds one queue.list fetch.
const queuePageSize = 500

func (f *Facade) loadQueue(key domain.QueueKey) (domain.QueueSnapshot, error) {
	snap, err := f.store.GetQueue(key)
	if err != nil {
		return domain.QueueSnapshot{}, err
	}
	if snap == nil {
		def := domain.DefaultPlaybackState()
		return domain.QueueSnapshot{PlayMode: def.PlayMode, Volume: def.Volume}, nil
	}
	return *snap, nil
}

func (f *Facade) saveQueue(key domain.QueueKey, snap domain.QueueSnapshot) error {
	if err := f.store.PutQueue(key, snap); err != nil {
		return err
	}
	f.state.Notify(state.EventQueue)
	return nil
}

// Queue returns the full live queue: server-first with a cursor walk over
// every page, cache otherwise.
func (f *Facade) Queue(ctx context.Context) (*domain.QueuePage, error) {
	if f.offline() {
		return f.queueOffline()
	}
	page, err := f.fetchFullQueue(ctx)
	if err != nil {
		if f.fallback(err) {
			return f.queueOffline()
		}
		return nil, err
	}
	return page, nil
}

func (f *Facade) queueOffline() (*domain.QueuePage, error) {
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return nil, err
	}
	songs, err := f.cachedSongs(snap.SongUUIDs)
	if err != nil {
		return nil, err
	}
	return &domain.QueuePage{
		Songs:      songs,
		QueueIndex: snap.Index,
		PlayMode:   snap.PlayMode,
		ScaEnabled: snap.ScaEnabled,
		Volume:     snap.Volume,
		DeviceID:   snap.DeviceID,
		DeviceSeq:  snap.DeviceSeq,
	}, nil
}

// fetchFullQueue walks the server queue cursor to exhaustion and replaces
// the cached snapshot and song records with what came back.
func (f *Facade) fetchFullQueue(ctx context.Context) (*domain.QueuePage, error) {
	var songs []domain.Song
	var first *domain.QueuePage
	cursor := ""
	for {
		page, err := f.remote.QueueList(ctx, cursor, queuePageSize)
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = page
		}
		songs = append(songs, page.Songs...)
		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if err := f.store.PutSongs(songs); err != nil {
		return nil, err
	}
	uuids := make([]string, len(songs))
	for i, s := range songs {
		uuids[i] = s.UUID
	}
	snap := domain.QueueSnapshot{
		SongUUIDs:  uuids,
		Index:      first.QueueIndex,
		PlayMode:   first.PlayMode,
		ScaEnabled: first.ScaEnabled,
		Volume:     first.Volume,
		DeviceID:   first.DeviceID,
		DeviceSeq:  first.DeviceSeq,
		SyncedAt:   f.now(),
	}
	if err := f.saveQueue(domain.QueueCurrent, snap); err != nil {
		return nil, err
	}
	f.refreshIndexes()

	result := *first
	result.Songs = songs
	result.NextCursor = ""
	result.HasMore = false
	return &result, nil
}

// refetchQueue reconciles the cache after an online mutation whose exact
// effect the server computed (path/filter/playlist adds, sorts). Failures
// only degrade freshness, so they are logged and dropped.
func (f *Facade) refetchQueue(ctx context.Context) {
	if _, err := f.fetchFullQueue(ctx); err != nil {
		f.logger.Warn("queue refetch after mutation failed", "error", err)
	}
}

// QueueAdd appends or inserts songs by UUID.
func (f *Facade) QueueAdd(ctx context.Context, songUUIDs []string, position *int) (*domain.QueueChange, error) {
	if f.offline() {
		return f.queueAddOffline(songUUIDs, position)
	}
	change, err := f.remote.QueueAdd(ctx, songUUIDs, position)
	if err != nil {
		if f.fallback(err) {
			return f.queueAddOffline(songUUIDs, position)
		}
		return nil, err
	}
	f.mirrorQueueInsert(songUUIDs, position)
	return change, nil
}

func (f *Facade) queueAddOffline(songUUIDs []string, position *int) (*domain.QueueChange, error) {
	// Only songs the cache knows can be queued offline; anything else would
	// be unplayable and unlistable until the next sync.
	for _, u := range songUUIDs {
		song, err := f.store.GetSong(u)
		if err != nil {
			return nil, err
		}
		if song == nil {
			return nil, fmt.Errorf("song %s has no cached metadata: %w", u, domain.ErrNoDataCached)
		}
	}
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return nil, err
	}
	snap.SongUUIDs = insertAt(snap.SongUUIDs, songUUIDs, position)
	if err := f.saveQueue(domain.QueueCurrent, snap); err != nil {
		return nil, err
	}
	payload := map[string]any{"songUuids": songUUIDs}
	if position != nil {
		payload["position"] = *position
	}
	if err := f.enqueue(domain.WriteQueue, "add", payload); err != nil {
		return nil, err
	}
	return &domain.QueueChange{Added: len(songUUIDs), QueueLength: len(snap.SongUUIDs)}, nil
}

// mirrorQueueInsert applies a successful online insert to the cached
// snapshot so the cache tracks the server between full fetches.
func (f *Facade) mirrorQueueInsert(songUUIDs []string, position *int) {
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		f.logger.Error("failed to mirror queue insert", "error", err)
		return
	}
	snap.SongUUIDs = insertAt(snap.SongUUIDs, songUUIDs, position)
	if err := f.saveQueue(domain.QueueCurrent, snap); err != nil {
		f.logger.Error("failed to mirror queue insert", "error", err)
	}
}

// QueueAddByPath queues every cached song under a library path.
func (f *Facade) QueueAddByPath(ctx context.Context, path string, position *int, limit int) (*domain.QueueChange, error) {
	if f.offline() {
		return f.queueAddByPathOffline(path, position, limit)
	}
	change, err := f.remote.QueueAddByPath(ctx, path, position, limit)
	if err != nil {
		if f.fallback(err) {
			return f.queueAddByPathOffline(path, position, limit)
		}
		return nil, err
	}
	f.refetchQueue(ctx)
	return change, nil
}

func (f *Facade) queueAddByPathOffline(path string, position *int, limit int) (*domain.QueueChange, error) {
	songs, err := f.store.AllSongs()
	if err != nil {
		return nil, err
	}
	var matched []domain.Song
	for _, s := range songs {
		if songUnderPath(s, path) {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("no cached songs under %q: %w", path, domain.ErrNoDataCached)
	}
	sortSongs(matched, SortTrack, false)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	uuids := songUUIDs(matched)

	change, err := f.applyQueueInsertOffline(uuids)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{"path": path}
	if position != nil {
		payload["position"] = *position
	}
	if limit > 0 {
		payload["limit"] = limit
	}
	if err := f.enqueue(domain.WriteQueue, "addByPath", payload); err != nil {
		return nil, err
	}
	return change, nil
}

// QueueAddByFilter queues songs matching a category/genre/artist/album
// filter.
func (f *Facade) QueueAddByFilter(ctx context.Context, filter domain.BrowseFilter, position *int, limit int) (*domain.QueueChange, error) {
	if f.offline() {
		return f.queueAddByFilterOffline(filter, position, limit)
	}
	change, err := f.remote.QueueAddByFilter(ctx, filter, position, limit)
	if err != nil {
		if f.fallback(err) {
			return f.queueAddByFilterOffline(filter, position, limit)
		}
		return nil, err
	}
	f.refetchQueue(ctx)
	return change, nil
}

func (f *Facade) queueAddByFilterOffline(filter domain.BrowseFilter, position *int, limit int) (*domain.QueueChange, error) {
	songs, err := f.store.AllSongs()
	if err != nil {
		return nil, err
	}
	var matched []domain.Song
	for _, s := range songs {
		if filter.Matches(s) {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("no cached songs match filter: %w", domain.ErrNoDataCached)
	}
	sortSongs(matched, SortAlbum, false)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	change, err := f.applyQueueInsertOffline(songUUIDs(matched))
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	for k, v := range browseFilterPayload(filter) {
		payload[k] = v
	}
	if position != nil {
		payload["position"] = *position
	}
	if limit > 0 {
		payload["limit"] = limit
	}
	if err := f.enqueue(domain.WriteQueue, "addByFilter", payload); err != nil {
		return nil, err
	}
	return change, nil
}

// QueueAddByPlaylist queues a playlist's songs. Offline it resolves, in
// order of preference: a local placeholder playlist, the favorites set, a
// complete downloaded playlist, or the cached server song list.
func (f *Facade) QueueAddByPlaylist(ctx context.Context, id domain.PlaylistID, position *int, shuffle bool) (*domain.QueueChange, error) {
	if f.offline() {
		return f.queueAddByPlaylistOffline(id, position, shuffle)
	}
	change, err := f.remote.QueueAddByPlaylist(ctx, id, position, shuffle)
	if err != nil {
		if f.fallback(err) {
			return f.queueAddByPlaylistOffline(id, position, shuffle)
		}
		return nil, err
	}
	f.refetchQueue(ctx)
	return change, nil
}

func (f *Facade) queueAddByPlaylistOffline(id domain.PlaylistID, position *int, shuffle bool) (*domain.QueueChange, error) {
	uuids, err := f.playlistSongUUIDsOffline(id)
	if err != nil {
		return nil, err
	}
	if shuffle {
		shuffleStrings(uuids)
	}
	if position != nil {
		snap, err := f.loadQueue(domain.QueueCurrent)
		if err != nil {
			return nil, err
		}
		snap.SongUUIDs = insertAt(snap.SongUUIDs, uuids, position)
		if err := f.saveQueue(domain.QueueCurrent, snap); err != nil {
			return nil, err
		}
	} else if _, err := f.applyQueueInsertOffline(uuids); err != nil {
		return nil, err
	}
	payload := map[string]any{"playlistId": id.Value()}
	if position != nil {
		payload["position"] = *position
	}
	if shuffle {
		payload["shuffle"] = true
	}
	if err := f.enqueue(domain.WriteQueue, "addByPlaylist", payload); err != nil {
		return nil, err
	}
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return nil, err
	}
	return &domain.QueueChange{Added: len(uuids), QueueLength: len(snap.SongUUIDs)}, nil
}

// playlistSongUUIDsOffline resolves a playlist to song UUIDs from cache.
func (f *Facade) playlistSongUUIDsOffline(id domain.PlaylistID) ([]string, error) {
	if id == f.state.FavoritesPlaylistID() && !id.IsZero() {
		favs := f.state.Favorites()
		if len(favs) == 0 {
			return nil, fmt.Errorf("no favorites cached: %w", domain.ErrNoDataCached)
		}
		return favs, nil
	}
	if p, err := f.store.GetPlaylist(id); err != nil {
		return nil, err
	} else if p != nil && (p.Pending() || p.Complete || len(p.SongUUIDs) > 0) {
		return append([]string(nil), p.SongUUIDs...), nil
	}
	var songs []domain.Song
	ok, err := f.store.GetSetting(domain.PlaylistSongsKey(id), &songs)
	if err != nil {
		return nil, err
	}
	if ok && len(songs) > 0 {
		return songUUIDs(songs), nil
	}
	return nil, fmt.Errorf("playlist %s has no songs available offline: %w", id, domain.ErrNoDataCached)
}

func (f *Facade) applyQueueInsertOffline(uuids []string) (*domain.QueueChange, error) {
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return nil, err
	}
	snap.SongUUIDs = append(snap.SongUUIDs, uuids...)
	if err := f.saveQueue(domain.QueueCurrent, snap); err != nil {
		return nil, err
	}
	return &domain.QueueChange{Added: len(uuids), QueueLength: len(snap.SongUUIDs)}, nil
}

// QueueRemove removes songs by position. Positions are applied highest
// first so earlier removals never shift later ones.
func (f *Facade) QueueRemove(ctx context.Context, positions []int) (*domain.QueueChange, error) {
	if f.offline() {
		change, err := f.queueRemoveLocally(positions)
		if err != nil {
			return nil, err
		}
		if err := f.enqueue(domain.WriteQueue, "remove", map[string]any{"positions": positions}); err != nil {
			return nil, err
		}
		return change, nil
	}
	change, err := f.remote.QueueRemove(ctx, positions)
	if err != nil {
		if f.fallback(err) {
			return f.QueueRemove(ctx, positions)
		}
		return nil, err
	}
	if _, err := f.queueRemoveLocally(positions); err != nil {
		f.logger.Error("failed to mirror queue removal", "error", err)
	}
	return change, nil
}

func (f *Facade) queueRemoveLocally(positions []int) (*domain.QueueChange, error) {
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return nil, err
	}
	sorted := append([]int(nil), positions...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	removed := 0
	for _, pos := range sorted {
		if pos < 0 || pos >= len(snap.SongUUIDs) {
			continue
		}
		snap.SongUUIDs = append(snap.SongUUIDs[:pos], snap.SongUUIDs[pos+1:]...)
		if pos < snap.Index {
			snap.Index--
		}
		removed++
	}
	if snap.Index >= len(snap.SongUUIDs) {
		snap.Index = max(len(snap.SongUUIDs)-1, 0)
	}
	if err := f.saveQueue(domain.QueueCurrent, snap); err != nil {
		return nil, err
	}
	return &domain.QueueChange{Removed: removed, QueueLength: len(snap.SongUUIDs)}, nil
}

// QueueClear empties the queue.
func (f *Facade) QueueClear(ctx context.Context) (int, error) {
	clearLocal := func() (int, error) {
		snap, err := f.loadQueue(domain.QueueCurrent)
		if err != nil {
			return 0, err
		}
		n := len(snap.SongUUIDs)
		snap.SongUUIDs = nil
		snap.Index = 0
		return n, f.saveQueue(domain.QueueCurrent, snap)
	}
	if f.offline() {
		n, err := clearLocal()
		if err != nil {
			return 0, err
		}
		if err := f.enqueue(domain.WriteQueue, "clear", map[string]any{}); err != nil {
			return 0, err
		}
		return n, nil
	}
	n, err := f.remote.QueueClear(ctx)
	if err != nil {
		if f.fallback(err) {
			return f.QueueClear(ctx)
		}
		return 0, err
	}
	if _, err := clearLocal(); err != nil {
		f.logger.Error("failed to mirror queue clear", "error", err)
	}
	return n, nil
}

// QueueReorder moves one song.
func (f *Facade) QueueReorder(ctx context.Context, fromPos, toPos int) error {
	if f.offline() {
		if err := f.queueMoveLocally(fromPos, toPos); err != nil {
			return err
		}
		return f.enqueue(domain.WriteQueue, "reorder", map[string]any{"fromPos": fromPos, "toPos": toPos})
	}
	if err := f.remote.QueueReorder(ctx, fromPos, toPos); err != nil {
		if f.fallback(err) {
			return f.QueueReorder(ctx, fromPos, toPos)
		}
		return err
	}
	if err := f.queueMoveLocally(fromPos, toPos); err != nil {
		f.logger.Error("failed to mirror queue reorder", "error", err)
	}
	return nil
}

// QueueReorderBatch moves a selection to a target position as one block.
// Offline it decomposes into single moves, which is all the sync protocol
// replays, and enqueues one write per move.
func (f *Facade) QueueReorderBatch(ctx context.Context, fromPositions []int, toPosition int) error {
	if f.offline() {
		snap, err := f.loadQueue(domain.QueueCurrent)
		if err != nil {
			return err
		}
		moves := decomposeBatchMove(len(snap.SongUUIDs), fromPositions, toPosition)
		for _, m := range moves {
			if err := f.queueMoveLocally(m[0], m[1]); err != nil {
				return err
			}
			if err := f.enqueue(domain.WriteQueue, "reorder", map[string]any{"fromPos": m[0], "toPos": m[1]}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := f.remote.QueueReorderBatch(ctx, fromPositions, toPosition); err != nil {
		if f.fallback(err) {
			return f.QueueReorderBatch(ctx, fromPositions, toPosition)
		}
		return err
	}
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err == nil {
		for _, m := range decomposeBatchMove(len(snap.SongUUIDs), fromPositions, toPosition) {
			if err := f.queueMoveLocally(m[0], m[1]); err != nil {
				f.logger.Error("failed to mirror batch reorder", "error", err)
				break
			}
		}
	}
	return nil
}

func (f *Facade) queueMoveLocally(fromPos, toPos int) error {
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return err
	}
	n := len(snap.SongUUIDs)
	if fromPos < 0 || fromPos >= n {
		return fmt.Errorf("queue position %d out of range", fromPos)
	}
	current := ""
	if snap.Index >= 0 && snap.Index < n {
		current = snap.SongUUIDs[snap.Index]
	}
	moved := snap.SongUUIDs[fromPos]
	rest := append(append([]string(nil), snap.SongUUIDs[:fromPos]...), snap.SongUUIDs[fromPos+1:]...)
	toPos = min(max(toPos, 0), len(rest))
	snap.SongUUIDs = append(append(append([]string(nil), rest[:toPos]...), moved), rest[toPos:]...)
	if current != "" {
		for i, uuid := range snap.SongUUIDs {
			if uuid == current {
				snap.Index = i
				break
			}
		}
	}
	return f.saveQueue(domain.QueueCurrent, snap)
}

// decomposeBatchMove turns a block move into an equivalent sequence of
// single moves, each expressed against the list state at its own apply
// time.
func decomposeBatchMove(length int, fromPositions []int, toPosition int) [][2]int {
	selected := make([]int, 0, len(fromPositions))
	seen := make(map[int]struct{}, len(fromPositions))
	for _, p := range fromPositions {
		if p < 0 || p >= length {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		selected = append(selected, p)
	}
	sort.Ints(selected)
	if len(selected) == 0 {
		return nil
	}

	// The block's final start: the target shifts left once per selected
	// item in front of it.
	start := toPosition
	for _, p := range selected {
		if p < toPosition {
			start--
		}
	}
	start = min(max(start, 0), length-len(selected))

	// Simulate on item identities so each move's source index reflects
	// the moves applied before it.
	ids := make([]int, length)
	for i := range ids {
		ids[i] = i
	}
	var moves [][2]int
	for i, orig := range selected {
		from := -1
		for j, id := range ids {
			if id == orig {
				from = j
				break
			}
		}
		to := start + i
		if from == to {
			continue
		}
		moves = append(moves, [2]int{from, to})
		moved := ids[from]
		rest := append(append([]int(nil), ids[:from]...), ids[from+1:]...)
		ids = append(append(append([]int(nil), rest[:to]...), moved), rest[to:]...)
	}
	return moves
}

// QueueSetIndex advances the play position, stamping this device and a
// fresh sequence number for last-writer-wins on the server.
func (f *Facade) QueueSetIndex(ctx context.Context, index int) error {
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return err
	}
	seq := snap.DeviceSeq + 1

	apply := func() error {
		snap.Index = index
		snap.DeviceID = f.deviceID
		snap.DeviceSeq = seq
		return f.saveQueue(domain.QueueCurrent, snap)
	}

	if f.offline() {
		if err := apply(); err != nil {
			return err
		}
		return f.enqueue(domain.WriteQueue, "setIndex", map[string]any{
			"index":    index,
			"deviceId": f.deviceID,
			"seq":      seq,
		})
	}
	res, err := f.remote.QueueSetIndex(ctx, index, f.deviceID, seq)
	if err != nil {
		if f.fallback(err) {
			return f.QueueSetIndex(ctx, index)
		}
		return err
	}
	if res.Skipped {
		// Another device won the race; pull its view instead.
		f.logger.Debug("setIndex skipped by server", "reason", res.Reason)
		f.refetchQueue(ctx)
		return nil
	}
	return apply()
}

// QueueSort reorders the whole queue by a song attribute, keeping the
// current song current.
func (f *Facade) QueueSort(ctx context.Context, sortBy, order string) (*domain.QueueSortResult, error) {
	if f.offline() {
		res, err := f.queueSortOffline(sortBy, order)
		if err != nil {
			return nil, err
		}
		if err := f.enqueue(domain.WriteQueue, "sort", map[string]any{"sortBy": sortBy, "order": order}); err != nil {
			return nil, err
		}
		return res, nil
	}
	res, err := f.remote.QueueSort(ctx, sortBy, order)
	if err != nil {
		if f.fallback(err) {
			return f.QueueSort(ctx, sortBy, order)
		}
		return nil, err
	}
	f.refetchQueue(ctx)
	return res, nil
}

func (f *Facade) queueSortOffline(sortBy, order string) (*domain.QueueSortResult, error) {
	snap, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return nil, err
	}
	current := ""
	if snap.Index >= 0 && snap.Index < len(snap.SongUUIDs) {
		current = snap.SongUUIDs[snap.Index]
	}

	if sortBy == SortRandom {
		shuffleStrings(snap.SongUUIDs)
	} else {
		songs, err := f.cachedSongs(snap.SongUUIDs)
		if err != nil {
			return nil, err
		}
		if len(songs) != len(snap.SongUUIDs) {
			return nil, fmt.Errorf("queue has songs with no cached metadata: %w", domain.ErrNoDataCached)
		}
		sortSongs(songs, sortBy, order == "desc")
		snap.SongUUIDs = songUUIDs(songs)
	}

	if current != "" {
		for i, uuid := range snap.SongUUIDs {
			if uuid == current {
				snap.Index = i
				break
			}
		}
	}
	if err := f.saveQueue(domain.QueueCurrent, snap); err != nil {
		return nil, err
	}
	return &domain.QueueSortResult{QueueLength: len(snap.SongUUIDs), NewIndex: snap.Index}, nil
}

// === Preview queue ===

// EnterPreview swaps the live queue for an ephemeral one. The replaced
// snapshot is kept so ExitPreview can restore it. Preview queues are never
// synced.
func (f *Facade) EnterPreview(songUUIDs []string) error {
	current, err := f.loadQueue(domain.QueueCurrent)
	if err != nil {
		return err
	}
	if err := f.store.PutQueue(domain.QueueTempSaved, current); err != nil {
		return err
	}
	preview := domain.QueueSnapshot{
		SongUUIDs: songUUIDs,
		PlayMode:  current.PlayMode,
		Volume:    current.Volume,
	}
	if err := f.store.PutQueue(domain.QueueTemp, preview); err != nil {
		return err
	}
	if err := f.saveQueue(domain.QueueCurrent, preview); err != nil {
		return err
	}
	f.state.SetPreviewActive(true)
	return nil
}

// ExitPreview restores the queue replaced by EnterPreview. Without a saved
// snapshot it is a no-op.
func (f *Facade) ExitPreview() error {
	saved, err := f.store.GetQueue(domain.QueueTempSaved)
	if err != nil {
		return err
	}
	if saved == nil {
		return nil
	}
	if err := f.saveQueue(domain.QueueCurrent, *saved); err != nil {
		return err
	}
	if err := f.store.DeleteQueue(domain.QueueTemp); err != nil {
		return err
	}
	if err := f.store.DeleteQueue(domain.QueueTempSaved); err != nil {
		return err
	}
	f.state.SetPreviewActive(false)
	return nil
}

// insertAt inserts items at position, or appends when position is nil or
// past the end.
func insertAt(base, items []string, position *int) []string {
	if position == nil || *position < 0 || *position >= len(base) {
		return append(base, items...)
	}
	pos := *position
	out := make([]string, 0, len(base)+len(items))
	out = append(out, base[:pos]...)
	out = append(out, items...)
	out = append(out, base[pos:]...)
	return out
}

func songUUIDs(songs []domain.Song) []string {
	uuids := make([]string, len(songs))
	for i, s := range songs {
		uuids[i] = s.UUID
	}
	return uuids
}

func songUnderPath(s domain.Song, path string) bool {
	if s.File == "" {
		return false
	}
	if path == "" || path == "/" {
		return true
	}
	if s.File == path {
		return true
	}
	return len(s.File) > len(path) && s.File[:len(path)] == path && s.File[len(path)] == '/'
}

func browseFilterPayload(f domain.BrowseFilter) map[string]any {
	payload := map[string]any{}
	if f.Category != "" {
		payload["category"] = f.Category
	}
	if f.Genre != "" {
		payload["genre"] = f.Genre
	}
	if f.Artist != "" {
		payload["artist"] = f.Artist
	}
	if f.Album != "" {
		payload["album"] = f.Album
	}
	return payload
}
