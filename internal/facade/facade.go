// Package facade is the offline-aware API surface. Every operation routes
// through one decision: serve from the server when reachable (mirroring
// successful mutations into the cache), or serve from the cache and record
// mutations as pending writes when not. A transport-shaped failure flips
// the core offline and re-dispatches the same operation locally; business
// errors from the server pass through untouched.
package facade

import (
	"log/slog"
	"time"

	"offbeat/internal/domain"
	"offbeat/internal/state"
)

type Facade struct {
	remote domain.Remote
	store  domain.Store
	state  *state.Container
	logger *slog.Logger

	deviceID string
	now      func() time.Time

	// saveWorkOffline persists the user's explicit offline preference
	// outside the database so it is readable before the store opens.
	saveWorkOffline func(bool) error
}

type Option func(*Facade)

// WithClock overrides the time source; tests pin it.
func WithClock(now func() time.Time) Option {
	return func(f *Facade) { f.now = now }
}

// WithWorkOfflinePersister wires the sentinel-file writer for the
// work-offline preference.
func WithWorkOfflinePersister(save func(bool) error) Option {
	return func(f *Facade) { f.saveWorkOffline = save }
}

func New(remote domain.Remote, store domain.Store, st *state.Container, deviceID string, logger *slog.Logger, opts ...Option) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Facade{
		remote:   remote,
		store:    store,
		state:    st,
		logger:   logger,
		deviceID: deviceID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// offline reports whether this operation must be served locally.
func (f *Facade) offline() bool {
	return f.state.ShouldUseOffline()
}

// fallback inspects a remote failure. Transport-shaped errors flip the
// connectivity flag and tell the caller to retry the operation against the
// cache; anything else is the server speaking and must reach the caller.
func (f *Facade) fallback(err error) bool {
	if !domain.IsNetworkError(err) {
		return false
	}
	f.logger.Warn("server unreachable, switching to offline", "error", err)
	f.state.SetOnline(false)
	return true
}

// enqueue records a mutation for later sync and refreshes the pending count.
// Queue edits made while a preview queue is live are deliberately not
// recorded: the preview never syncs.
func (f *Facade) enqueue(t domain.WriteType, op string, payload map[string]any) error {
	if t == domain.WriteQueue && f.state.PreviewActive() {
		f.logger.Debug("preview queue active, write not recorded", "op", op)
		return nil
	}
	w := domain.PendingWrite{
		Type:      t,
		Operation: op,
		Payload:   payload,
		CreatedAt: f.now(),
	}
	if _, err := f.store.AppendPending(w); err != nil {
		return err
	}
	count, err := f.store.CountPending()
	if err != nil {
		return err
	}
	f.state.SetPendingCount(count)
	f.logger.Debug("queued pending write", "op", w.OpType(), "pending", count)
	return nil
}

// SetWorkOffline records the user's explicit offline preference.
func (f *Facade) SetWorkOffline(v bool) error {
	f.state.SetWorkOffline(v)
	if f.saveWorkOffline != nil {
		return f.saveWorkOffline(v)
	}
	return nil
}

// MarkOnline restores the connectivity flag after a successful probe or
// sync; routing returns to server-first on the next operation.
func (f *Facade) MarkOnline() {
	f.state.SetOnline(true)
}

// refreshIndexes rebuilds the browse indexes after cached songs changed.
func (f *Facade) refreshIndexes() {
	songs, err := f.store.AllSongs()
	if err != nil {
		f.logger.Error("failed to scan songs for indexes", "error", err)
		return
	}
	f.state.RebuildIndexes(songs)
}

// cachedSongs resolves UUIDs against the song bucket, preserving order and
// dropping UUIDs with no record.
func (f *Facade) cachedSongs(uuids []string) ([]domain.Song, error) {
	songs := make([]domain.Song, 0, len(uuids))
	for _, uuid := range uuids {
		song, err := f.store.GetSong(uuid)
		if err != nil {
			return nil, err
		}
		if song != nil {
			songs = append(songs, *song)
		}
	}
	return songs, nil
}
