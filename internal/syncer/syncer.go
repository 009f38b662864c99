// Package syncer drains the pending-write queue to the server. The default
// mode stages every write in one server-side session and commits it
// atomically: either the whole batch applies or none of it does. After a
// successful commit it resolves placeholder playlist identities, re-pulls
// the authoritative queue, and reconciles preferences by last write wins.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"offbeat/internal/domain"
	"offbeat/internal/state"
)

// Mode selects the sync strategy.
type Mode string

const (
	// ModeTransactional stages all writes in one session and commits
	// atomically.
	ModeTransactional Mode = "transactional"
	// ModeLegacy applies writes one at a time, each in its own
	// single-operation session. Partial progress is possible.
	ModeLegacy Mode = "legacy"
)

// Result is the outcome of one sync run. Sync never returns an error;
// failures are reported here so callers always get the counts.
type Result struct {
	OK      bool
	Synced  int
	Failed  int
	Skipped int
	Err     string
}

// Remote is the slice of the server surface sync needs: the session
// protocol, the queue pull for post-sync reconciliation, and preferences
// for last-write-wins.
type Remote interface {
	domain.SyncRemote
	QueueList(ctx context.Context, cursor string, limit int) (*domain.QueuePage, error)
	PreferencesGet(ctx context.Context) (*domain.Preferences, int64, error)
	PreferencesSet(ctx context.Context, prefs domain.Preferences) error
}

type Manager struct {
	remote Remote
	store  domain.Store
	state  *state.Container
	logger *slog.Logger
	mode   Mode
	now    func() time.Time

	mu       sync.Mutex
	inflight *flight
}

// flight lets concurrent Sync calls share one run's result.
type flight struct {
	done   chan struct{}
	result *Result
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(remote Remote, store domain.Store, st *state.Container, mode Mode, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = ModeTransactional
	}
	m := &Manager{
		remote: remote,
		store:  store,
		state:  st,
		logger: logger,
		mode:   mode,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sync drains the pending queue. Only one run executes at a time; callers
// arriving mid-run block until it finishes and receive its result.
func (m *Manager) Sync(ctx context.Context) *Result {
	m.mu.Lock()
	if m.inflight != nil {
		fl := m.inflight
		m.mu.Unlock()
		select {
		case <-fl.done:
			return fl.result
		case <-ctx.Done():
			return &Result{Err: ctx.Err().Error()}
		}
	}
	fl := &flight{done: make(chan struct{})}
	m.inflight = fl
	m.mu.Unlock()

	fl.result = m.run(ctx)

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	close(fl.done)
	return fl.result
}

func (m *Manager) run(ctx context.Context) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("sync panicked", "panic", r)
			result = &Result{Err: fmt.Sprintf("sync panicked: %v", r)}
		}
	}()

	writes, err := m.store.ListPending()
	if err != nil {
		return &Result{Err: err.Error()}
	}
	if len(writes) == 0 {
		m.finishSuccess()
		return &Result{OK: true}
	}

	m.logger.Info("sync started", "mode", m.mode, "pending", len(writes))

	var res *Result
	if m.mode == ModeLegacy {
		res = m.runLegacy(ctx, writes)
	} else {
		res = m.runTransactional(ctx, writes)
	}
	if res.OK {
		m.finishSuccess()
		m.refreshQueue(ctx)
	}
	m.logger.Info("sync finished", "ok", res.OK, "synced", res.Synced, "failed", res.Failed, "skipped", res.Skipped)
	return res
}

// finishSuccess clears failure state and stamps the sync time.
func (m *Manager) finishSuccess() {
	count, err := m.store.CountPending()
	if err != nil {
		m.logger.Error("failed to recount pending writes", "error", err)
	} else {
		m.state.SetPendingCount(count)
	}
	now := m.now()
	if err := m.store.PutSetting(domain.SettingLastSync, now); err != nil {
		m.logger.Error("failed to persist sync time", "error", err)
	}
	m.state.ClearSyncFailed()
	m.state.SetLastSyncAt(now)
	m.state.SetOnline(true)
}

// markFailed records a failed run without touching the queue contents.
func (m *Manager) markFailed(message string) *Result {
	m.state.SetSyncFailed(message, m.now())
	return &Result{Err: message}
}

// refreshQueue overwrites the cached queue with the server's, walking the
// cursor to exhaustion. The queue on the server already reflects the
// committed writes, so this is the authoritative post-sync state. A failure
// here only degrades freshness.
func (m *Manager) refreshQueue(ctx context.Context) {
	const pageSize = 500
	var songs []domain.Song
	var first *domain.QueuePage
	cursor := ""
	for {
		page, err := m.remote.QueueList(ctx, cursor, pageSize)
		if err != nil {
			m.logger.Warn("post-sync queue refresh failed", "error", err)
			return
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
	if err := m.store.PutSongs(songs); err != nil {
		m.logger.Error("failed to cache refreshed queue songs", "error", err)
		return
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
		SyncedAt:   m.now(),
	}
	if err := m.store.PutQueue(domain.QueueCurrent, snap); err != nil {
		m.logger.Error("failed to cache refreshed queue", "error", err)
		return
	}
	m.state.Notify(state.EventQueue)
}

// resolveCreated rewrites every placeholder the server resolved during
// commit, then refreshes the in-memory playlist and favorites views.
func (m *Manager) resolveCreated(created map[string]int64) {
	for token, remoteID := range created {
		local := domain.LocalPlaylistID(token)
		remote := domain.RemotePlaylistID(remoteID)
		if err := m.store.ResolvePlaylistID(local, remote); err != nil {
			m.logger.Error("failed to resolve playlist placeholder", "token", token, "error", err)
		}
	}
	if len(created) == 0 {
		return
	}
	playlists, err := m.store.AllPlaylists()
	if err != nil {
		m.logger.Error("failed to reload playlists", "error", err)
	} else {
		m.state.SetPlaylists(playlists)
	}
	var favID domain.PlaylistID
	if ok, err := m.store.GetSetting(domain.SettingFavoritesPlaylistID, &favID); err == nil && ok {
		m.state.SetFavoritesPlaylistID(favID)
	}
}

// Discard drops the entire pending queue without applying it.
func (m *Manager) Discard() error {
	if err := m.store.ClearPending(); err != nil {
		return err
	}
	m.state.SetPendingCount(0)
	m.state.ClearSyncFailed()
	m.logger.Info("pending writes discarded")
	return nil
}

// Status summarizes sync bookkeeping for display.
type Status struct {
	PendingCount int
	LastSyncAt   time.Time
	Failed       bool
	FailureMsg   string
	FailedAt     time.Time
}

func (m *Manager) Status() (*Status, error) {
	count, err := m.store.CountPending()
	if err != nil {
		return nil, err
	}
	failed, msg, at := m.state.SyncStatus()
	return &Status{
		PendingCount: count,
		LastSyncAt:   m.state.LastSyncAt(),
		Failed:       failed,
		FailureMsg:   msg,
		FailedAt:     at,
	}, nil
}
