package syncer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"offbeat/internal/domain"
)

// op is one staged operation; a pending write usually expands to exactly
// one, the compound create-from-queue to two.
type op struct {
	opType  string
	payload map[string]any
}

// expandWrite turns a pending write into session operations. The compound
// create-from-queue splits into a create and an addSongsBatch addressed to
// the same placeholder token, which the server resolves within the session.
func expandWrite(w domain.PendingWrite) []op {
	if w.Type == domain.WritePlaylists && w.Operation == domain.OpCreateFromQueue {
		return []op{
			{
				opType: "playlists.create",
				payload: map[string]any{
					"name":        w.Payload["name"],
					"description": w.Payload["description"],
					"tempId":      w.Payload["tempId"],
				},
			},
			{
				opType: "playlists.addSongsBatch",
				payload: map[string]any{
					"playlistId": w.Payload["tempId"],
					"songUuids":  w.Payload["songUuids"],
				},
			},
		}
	}
	return []op{{opType: w.OpType(), payload: w.Payload}}
}

// runTransactional stages every write in one session and commits it
// atomically. A push rejection discards the session and leaves the queue
// untouched; a failed commit keeps the queue and bumps each write's retry
// count once. Preference writes bypass the session entirely and reconcile
// by last write wins.
func (m *Manager) runTransactional(ctx context.Context, writes []domain.PendingWrite) *Result {
	batch, prefsWrites := partitionPreferences(writes)
	res := &Result{}

	if len(batch) > 0 {
		session := uuid.NewString()
		seq := 0
		for _, w := range batch {
			for _, o := range expandWrite(w) {
				seq++
				if err := m.remote.SyncPush(ctx, session, seq, o.opType, o.payload); err != nil {
					return m.abortSession(ctx, session, o.opType, err)
				}
			}
		}

		commit, err := m.remote.SyncCommit(ctx, session)
		if err == nil {
			err = commitFailure(commit)
		}
		if err != nil {
			if domain.IsNetworkError(err) {
				m.state.SetOnline(false)
			}
			m.bumpRetries(batch)
			return m.markFailed(fmt.Sprintf("sync commit failed: %v", err))
		}

		ids := make([]uint64, len(batch))
		for i, w := range batch {
			ids[i] = w.ID
		}
		if err := m.store.DeletePending(ids); err != nil {
			return m.markFailed(fmt.Sprintf("failed to clear synced writes: %v", err))
		}
		m.recountPending()
		m.resolveCreated(commit.Created)
		res.Synced = len(batch)
	}

	synced, skipped, err := m.reconcilePreferences(ctx, prefsWrites)
	if err != nil {
		if domain.IsNetworkError(err) {
			m.state.SetOnline(false)
		}
		res.Failed = len(prefsWrites)
		res.Err = fmt.Sprintf("preferences reconcile failed: %v", err)
		m.state.SetSyncFailed(res.Err, m.now())
		return res
	}
	res.Synced += synced
	res.Skipped = skipped
	res.OK = true
	return res
}

// abortSession handles a rejected or failed push: the session is discarded
// server-side and the local queue stays exactly as it was, retry counts
// included, because nothing was attempted against real state.
func (m *Manager) abortSession(ctx context.Context, session, opType string, pushErr error) *Result {
	if domain.IsNetworkError(pushErr) {
		m.state.SetOnline(false)
	} else if err := m.remote.SyncDiscard(ctx, session); err != nil {
		m.logger.Warn("failed to discard rejected session", "error", err)
	}
	return m.markFailed(fmt.Sprintf("sync push rejected at %s: %v", opType, pushErr))
}

// commitFailure surfaces the in-band failure a commit result can carry
// even when the call itself succeeded: the server reports the operation it
// choked on instead of failing the envelope.
func commitFailure(commit *domain.SyncCommitResult) error {
	if commit.FailedOp != "" {
		return fmt.Errorf("server failed to apply %s", commit.FailedOp)
	}
	return nil
}

func (m *Manager) bumpRetries(writes []domain.PendingWrite) {
	for _, w := range writes {
		w.RetryCount++
		if err := m.store.UpdatePending(w); err != nil {
			m.logger.Error("failed to bump retry count", "id", w.ID, "error", err)
		}
	}
}

func (m *Manager) recountPending() {
	count, err := m.store.CountPending()
	if err != nil {
		m.logger.Error("failed to recount pending writes", "error", err)
		return
	}
	m.state.SetPendingCount(count)
}

func partitionPreferences(writes []domain.PendingWrite) (batch, prefs []domain.PendingWrite) {
	for _, w := range writes {
		if w.Type == domain.WritePreferences {
			prefs = append(prefs, w)
		} else {
			batch = append(batch, w)
		}
	}
	return batch, prefs
}

// reconcilePreferences resolves queued preference writes against the
// server copy by timestamp. A server copy without a timestamp counts as
// epoch zero, so any local edit wins. Superseded local writes are dropped,
// not failed.
func (m *Manager) reconcilePreferences(ctx context.Context, prefsWrites []domain.PendingWrite) (synced, skipped int, err error) {
	if len(prefsWrites) == 0 {
		return 0, 0, nil
	}
	var local domain.Preferences
	ok, err := m.store.GetSetting(domain.SettingPreferences, &local)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		local = domain.DefaultPreferences()
	}

	serverPrefs, lastModified, err := m.remote.PreferencesGet(ctx)
	if err != nil {
		return 0, 0, err
	}

	ids := make([]uint64, len(prefsWrites))
	for i, w := range prefsWrites {
		ids[i] = w.ID
	}

	if local.UpdatedAt.Unix() > lastModified {
		if err := m.remote.PreferencesSet(ctx, local); err != nil {
			return 0, 0, err
		}
		synced = len(prefsWrites)
	} else {
		if err := m.store.PutSetting(domain.SettingPreferences, serverPrefs); err != nil {
			return 0, 0, err
		}
		skipped = len(prefsWrites)
		m.logger.Debug("local preference edits superseded by server")
	}
	if err := m.store.DeletePending(ids); err != nil {
		return 0, 0, err
	}
	m.recountPending()
	return synced, skipped, nil
}

// runLegacy applies writes one at a time, each in its own session. A
// business rejection fails just that write, bumps its retry count, and
// moves on; a transport failure stops the run. The result is OK only when
// every write applied.
func (m *Manager) runLegacy(ctx context.Context, writes []domain.PendingWrite) *Result {
	res := &Result{}
	resolved := make(map[string]int64)

	for _, w := range writes {
		session := uuid.NewString()
		pushFailed := false
		for i, o := range expandWrite(w) {
			payload := substituteResolved(o.payload, resolved)
			if err := m.remote.SyncPush(ctx, session, i+1, o.opType, payload); err != nil {
				if domain.IsNetworkError(err) {
					m.state.SetOnline(false)
					res.Err = fmt.Sprintf("sync interrupted at %s: %v", o.opType, err)
					m.state.SetSyncFailed(res.Err, m.now())
					return res
				}
				if derr := m.remote.SyncDiscard(ctx, session); derr != nil {
					m.logger.Warn("failed to discard rejected session", "error", derr)
				}
				m.logger.Warn("pending write rejected", "op", o.opType, "error", err)
				m.bumpRetries([]domain.PendingWrite{w})
				res.Failed++
				pushFailed = true
				break
			}
		}
		if pushFailed {
			continue
		}

		commit, err := m.remote.SyncCommit(ctx, session)
		if err == nil {
			err = commitFailure(commit)
		}
		if err != nil {
			if domain.IsNetworkError(err) {
				m.state.SetOnline(false)
				res.Err = fmt.Sprintf("sync interrupted at commit: %v", err)
				m.state.SetSyncFailed(res.Err, m.now())
				return res
			}
			m.logger.Warn("pending write failed to commit", "op", w.OpType(), "error", err)
			m.bumpRetries([]domain.PendingWrite{w})
			res.Failed++
			continue
		}

		if err := m.store.DeletePending([]uint64{w.ID}); err != nil {
			m.logger.Error("failed to clear synced write", "id", w.ID, "error", err)
		}
		for token, id := range commit.Created {
			resolved[token] = id
		}
		m.resolveCreated(commit.Created)
		res.Synced++
	}

	m.recountPending()
	res.OK = res.Failed == 0
	if !res.OK {
		if res.Err == "" {
			res.Err = fmt.Sprintf("%d pending writes failed", res.Failed)
		}
		m.state.SetSyncFailed(res.Err, m.now())
	}
	return res
}

// substituteResolved swaps already-resolved placeholder tokens for their
// server identities in a payload copy.
func substituteResolved(payload map[string]any, resolved map[string]int64) map[string]any {
	if len(resolved) == 0 {
		return payload
	}
	token, ok := payload["playlistId"].(string)
	if !ok {
		return payload
	}
	id, hit := resolved[token]
	if !hit {
		return payload
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	out["playlistId"] = id
	return out
}
