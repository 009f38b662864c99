package facade

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offbeat/internal/domain"
	"offbeat/internal/state"
	"offbeat/internal/store"
)

// stubRemote overrides just the calls a test expects. Anything else hits
// the nil embedded interface and panics, which catches operations that
// should never have left the cache.
type stubRemote struct {
	domain.Remote

	queueAdd        func(ctx context.Context, songUUIDs []string, position *int) (*domain.QueueChange, error)
	queueList       func(ctx context.Context, cursor string, limit int) (*domain.QueuePage, error)
	queueSetIndex   func(ctx context.Context, index int, deviceID string, seq int64) (*domain.SetIndexResult, error)
	playlistsList   func(ctx context.Context) ([]domain.PlaylistSummary, error)
	playlistsCreate func(ctx context.Context, name, description string) (*domain.PlaylistCreated, error)
	preferencesGet  func(ctx context.Context) (*domain.Preferences, int64, error)
	preferencesSet  func(ctx context.Context, prefs domain.Preferences) error
	authCheck       func(ctx context.Context) (*domain.AuthInfo, error)
}

func (s *stubRemote) QueueAdd(ctx context.Context, songUUIDs []string, position *int) (*domain.QueueChange, error) {
	return s.queueAdd(ctx, songUUIDs, position)
}

func (s *stubRemote) QueueList(ctx context.Context, cursor string, limit int) (*domain.QueuePage, error) {
	return s.queueList(ctx, cursor, limit)
}

func (s *stubRemote) QueueSetIndex(ctx context.Context, index int, deviceID string, seq int64) (*domain.SetIndexResult, error) {
	return s.queueSetIndex(ctx, index, deviceID, seq)
}

func (s *stubRemote) PlaylistsList(ctx context.Context) ([]domain.PlaylistSummary, error) {
	return s.playlistsList(ctx)
}

func (s *stubRemote) PlaylistsCreate(ctx context.Context, name, description string) (*domain.PlaylistCreated, error) {
	return s.playlistsCreate(ctx, name, description)
}

func (s *stubRemote) PreferencesGet(ctx context.Context) (*domain.Preferences, int64, error) {
	return s.preferencesGet(ctx)
}

func (s *stubRemote) PreferencesSet(ctx context.Context, prefs domain.Preferences) error {
	return s.preferencesSet(ctx, prefs)
}

func (s *stubRemote) AuthCheck(ctx context.Context) (*domain.AuthInfo, error) {
	return s.authCheck(ctx)
}

// fakeClock hands out strictly increasing instants so records minted in
// the same test never collide on a timestamp-derived identity.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type harness struct {
	facade *Facade
	remote *stubRemote
	store  *store.Store
	state  *state.Container
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	remote := &stubRemote{}
	container := state.New()
	clk := &fakeClock{t: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
	f := New(remote, st, container, "device-test", nil, WithClock(clk.Now))
	return &harness{facade: f, remote: remote, store: st, state: container}
}

func (h *harness) goOffline() {
	h.state.SetWorkOffline(true)
}

func (h *harness) seedQueue(t *testing.T, uuids []string, index int) {
	t.Helper()
	require.NoError(t, h.store.PutQueue(domain.QueueCurrent, domain.QueueSnapshot{
		SongUUIDs: uuids,
		Index:     index,
		PlayMode:  "sequential",
		Volume:    1.0,
	}))
}

func (h *harness) pending(t *testing.T) []domain.PendingWrite {
	t.Helper()
	writes, err := h.store.ListPending()
	require.NoError(t, err)
	return writes
}

func (h *harness) queueUUIDs(t *testing.T) []string {
	t.Helper()
	snap, err := h.store.GetQueue(domain.QueueCurrent)
	require.NoError(t, err)
	if snap == nil {
		return nil
	}
	return snap.SongUUIDs
}

func TestOfflineMutationAppliesLocallyAndQueues(t *testing.T) {
	h := newHarness(t)
	h.goOffline()
	require.NoError(t, h.store.PutSongs([]domain.Song{{UUID: "a"}, {UUID: "b"}, {UUID: "c"}}))
	h.seedQueue(t, []string{"a"}, 0)

	change, err := h.facade.QueueAdd(context.Background(), []string{"b", "c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, change.Added)
	assert.Equal(t, 3, change.QueueLength)
	assert.Equal(t, []string{"a", "b", "c"}, h.queueUUIDs(t))

	writes := h.pending(t)
	require.Len(t, writes, 1)
	assert.Equal(t, "queue.add", writes[0].OpType())
	assert.Equal(t, 1, h.state.PendingCount())
}

func TestOfflineQueueAddRejectsUncachedSongs(t *testing.T) {
	h := newHarness(t)
	h.goOffline()
	require.NoError(t, h.store.PutSongs([]domain.Song{{UUID: "a"}}))
	h.seedQueue(t, []string{"a"}, 0)

	_, err := h.facade.QueueAdd(context.Background(), []string{"ghost"}, nil)
	require.ErrorIs(t, err, domain.ErrNoDataCached)
	assert.Equal(t, []string{"a"}, h.queueUUIDs(t), "nothing applied locally")
	assert.Empty(t, h.pending(t), "rejected adds are not recorded for sync")
}

func TestNetworkFailureFlipsOfflineAndRetriesLocally(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.PutSongs([]domain.Song{{UUID: "a"}, {UUID: "b"}}))
	h.seedQueue(t, []string{"a"}, 0)

	calls := 0
	h.remote.queueAdd = func(ctx context.Context, uuids []string, pos *int) (*domain.QueueChange, error) {
		calls++
		return nil, fmt.Errorf("queue.add: %w", domain.ErrServerOffline)
	}

	change, err := h.facade.QueueAdd(context.Background(), []string{"b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "one remote attempt, then the cache serves")
	assert.Equal(t, 1, change.Added)
	assert.False(t, h.state.Online())
	assert.Equal(t, []string{"a", "b"}, h.queueUUIDs(t))
	require.Len(t, h.pending(t), 1)
}

func TestBusinessErrorPropagatesWithoutFallback(t *testing.T) {
	h := newHarness(t)
	h.seedQueue(t, []string{"a"}, 0)

	h.remote.queueAdd = func(ctx context.Context, uuids []string, pos *int) (*domain.QueueChange, error) {
		return nil, &domain.RemoteError{Code: "ValidationError", Message: "unknown song"}
	}

	_, err := h.facade.QueueAdd(context.Background(), []string{"nope"}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsRemoteError(err))
	assert.True(t, h.state.Online(), "a server rejection is not a connectivity signal")
	assert.Empty(t, h.pending(t))
	assert.Equal(t, []string{"a"}, h.queueUUIDs(t), "nothing applied locally")
}

func TestOnlineMutationMirrorsIntoCache(t *testing.T) {
	h := newHarness(t)
	h.seedQueue(t, []string{"a"}, 0)

	h.remote.queueAdd = func(ctx context.Context, uuids []string, pos *int) (*domain.QueueChange, error) {
		return &domain.QueueChange{Added: len(uuids), QueueLength: 2}, nil
	}

	pos := 0
	_, err := h.facade.QueueAdd(context.Background(), []string{"b"}, &pos)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, h.queueUUIDs(t))
	assert.Empty(t, h.pending(t), "online mutations never enter the pending log")
}

func TestSetWorkOfflinePersists(t *testing.T) {
	h := newHarness(t)
	var saved []bool
	h.facade.saveWorkOffline = func(v bool) error {
		saved = append(saved, v)
		return nil
	}

	require.NoError(t, h.facade.SetWorkOffline(true))
	assert.True(t, h.state.ShouldUseOffline())
	require.NoError(t, h.facade.SetWorkOffline(false))
	assert.Equal(t, []bool{true, false}, saved)
}

func TestMarkOnline(t *testing.T) {
	h := newHarness(t)
	h.state.SetOnline(false)
	h.facade.MarkOnline()
	assert.True(t, h.state.Online())
}
