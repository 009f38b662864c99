package facade

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"offbeat/internal/domain"
)

// historyCap bounds the locally retained play history.
const historyCap = 500

// Preferences returns the effective preferences: the newer of the local
// and server copies when online, the cached copy (or defaults) otherwise.
func (f *Facade) Preferences(ctx context.Context) (*domain.Preferences, error) {
	local, haveLocal, err := f.cachedPreferences()
	if err != nil {
		return nil, err
	}
	if f.offline() {
		return &local, nil
	}
	remote, lastModified, err := f.remote.PreferencesGet(ctx)
	if err != nil {
		if f.fallback(err) {
			return &local, nil
		}
		return nil, err
	}
	// Last write wins. A server copy with no timestamp counts as epoch
	// zero, so any local edit beats it.
	if haveLocal && local.UpdatedAt.Unix() > lastModified {
		return &local, nil
	}
	if err := f.store.PutSetting(domain.SettingPreferences, remote); err != nil {
		return nil, err
	}
	return remote, nil
}

func (f *Facade) cachedPreferences() (domain.Preferences, bool, error) {
	prefs := domain.DefaultPreferences()
	ok, err := f.store.GetSetting(domain.SettingPreferences, &prefs)
	if err != nil {
		return prefs, false, err
	}
	return prefs, ok, nil
}

// SetPreferences stores preferences locally and pushes them to the server,
// queueing the push when that fails.
func (f *Facade) SetPreferences(ctx context.Context, prefs domain.Preferences) error {
	prefs.UpdatedAt = f.now()
	if err := f.store.PutSetting(domain.SettingPreferences, prefs); err != nil {
		return err
	}
	if f.offline() {
		return f.enqueue(domain.WritePreferences, "set", prefsPayload(prefs))
	}
	if err := f.remote.PreferencesSet(ctx, prefs); err != nil {
		if f.fallback(err) {
			return f.enqueue(domain.WritePreferences, "set", prefsPayload(prefs))
		}
		return err
	}
	return nil
}

func prefsPayload(p domain.Preferences) map[string]any {
	return map[string]any{
		"volume":             p.Volume,
		"shuffle":            p.Shuffle,
		"repeatMode":         p.RepeatMode,
		"radioEopp":          p.RadioEopp,
		"darkMode":           p.DarkMode,
		"replayGainMode":     p.ReplayGainMode,
		"replayGainPreamp":   p.ReplayGainPreamp,
		"replayGainFallback": p.ReplayGainFallback,
	}
}

// === EQ presets ===

func (f *Facade) EQPresets(ctx context.Context) ([]domain.EQPreset, error) {
	if f.offline() {
		return f.cachedEQPresets()
	}
	presets, err := f.remote.EQPresetsList(ctx)
	if err != nil {
		if f.fallback(err) {
			return f.cachedEQPresets()
		}
		return nil, err
	}
	if err := f.store.PutSetting(domain.SettingEQPresets, presets); err != nil {
		return nil, err
	}
	return presets, nil
}

func (f *Facade) cachedEQPresets() ([]domain.EQPreset, error) {
	var presets []domain.EQPreset
	if _, err := f.store.GetSetting(domain.SettingEQPresets, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

// SaveEQPreset creates or updates a preset. Offline creations mint their
// own UUID; the server honors client-supplied identities.
func (f *Facade) SaveEQPreset(ctx context.Context, preset domain.EQPreset) (*domain.EQPreset, error) {
	saveOffline := func() (*domain.EQPreset, error) {
		if preset.UUID == "" {
			preset.UUID = uuid.NewString()
		}
		preset.UpdatedAt = f.now()
		if err := f.upsertCachedPreset(preset); err != nil {
			return nil, err
		}
		err := f.enqueue(domain.WriteEQPresets, "save", map[string]any{
			"uuid":  preset.UUID,
			"name":  preset.Name,
			"bands": preset.Bands,
		})
		if err != nil {
			return nil, err
		}
		return &preset, nil
	}
	if f.offline() {
		return saveOffline()
	}
	saved, err := f.remote.EQPresetsSave(ctx, preset)
	if err != nil {
		if f.fallback(err) {
			return saveOffline()
		}
		return nil, err
	}
	if err := f.upsertCachedPreset(*saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (f *Facade) DeleteEQPreset(ctx context.Context, presetUUID string) error {
	removeLocal := func() error {
		presets, err := f.cachedEQPresets()
		if err != nil {
			return err
		}
		kept := presets[:0]
		for _, p := range presets {
			if p.UUID != presetUUID {
				kept = append(kept, p)
			}
		}
		return f.store.PutSetting(domain.SettingEQPresets, kept)
	}
	if f.offline() {
		if err := removeLocal(); err != nil {
			return err
		}
		return f.enqueue(domain.WriteEQPresets, "delete", map[string]any{"uuid": presetUUID})
	}
	if err := f.remote.EQPresetsDelete(ctx, presetUUID); err != nil {
		if f.fallback(err) {
			return f.DeleteEQPreset(ctx, presetUUID)
		}
		return err
	}
	return removeLocal()
}

func (f *Facade) upsertCachedPreset(preset domain.EQPreset) error {
	presets, err := f.cachedEQPresets()
	if err != nil {
		return err
	}
	for i := range presets {
		if presets[i].UUID == preset.UUID {
			presets[i] = preset
			return f.store.PutSetting(domain.SettingEQPresets, presets)
		}
	}
	return f.store.PutSetting(domain.SettingEQPresets, append(presets, preset))
}

// === Playback state ===

func (f *Facade) PlaybackState(ctx context.Context) (*domain.PlaybackState, error) {
	cached := func() (*domain.PlaybackState, error) {
		st := domain.DefaultPlaybackState()
		if _, err := f.store.GetSetting(domain.SettingPlaybackState, &st); err != nil {
			return nil, err
		}
		return &st, nil
	}
	if f.offline() {
		return cached()
	}
	st, err := f.remote.PlaybackGetState(ctx)
	if err != nil {
		if f.fallback(err) {
			return cached()
		}
		return nil, err
	}
	if err := f.store.PutSetting(domain.SettingPlaybackState, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (f *Facade) SetPlaybackState(ctx context.Context, st domain.PlaybackState) error {
	if err := f.store.PutSetting(domain.SettingPlaybackState, st); err != nil {
		return err
	}
	payload := map[string]any{
		"queueIndex": st.QueueIndex,
		"scaEnabled": st.ScaEnabled,
		"playMode":   st.PlayMode,
		"volume":     st.Volume,
	}
	if f.offline() {
		return f.enqueue(domain.WritePlayback, "setState", payload)
	}
	if err := f.remote.PlaybackSetState(ctx, st); err != nil {
		if f.fallback(err) {
			return f.enqueue(domain.WritePlayback, "setState", payload)
		}
		return err
	}
	return nil
}

// === Play history ===

// RecordPlay logs a play event locally and reports it to the server,
// queueing the report when that fails.
func (f *Facade) RecordPlay(ctx context.Context, entry domain.HistoryEntry) error {
	if entry.PlayedAt.IsZero() {
		entry.PlayedAt = f.now()
	}
	if err := f.appendLocalHistory(entry); err != nil {
		return err
	}
	payload := map[string]any{
		"songUuid": entry.SongUUID,
		"duration": entry.DurationSeconds,
		"skipped":  entry.Skipped,
		"source":   entry.Source,
		"playedAt": entry.PlayedAt.Unix(),
	}
	if f.offline() {
		return f.enqueue(domain.WriteHistory, "record", payload)
	}
	if err := f.remote.HistoryRecord(ctx, entry); err != nil {
		if f.fallback(err) {
			return f.enqueue(domain.WriteHistory, "record", payload)
		}
		return err
	}
	return nil
}

func (f *Facade) appendLocalHistory(entry domain.HistoryEntry) error {
	var entries []domain.HistoryEntry
	if _, err := f.store.GetSetting(domain.SettingHistory, &entries); err != nil {
		return err
	}
	entries = append(entries, entry)
	if len(entries) > historyCap {
		entries = entries[len(entries)-historyCap:]
	}
	return f.store.PutSetting(domain.SettingHistory, entries)
}

// RecentHistory returns the latest play events, newest first.
func (f *Facade) RecentHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	local := func() ([]domain.HistoryEntry, error) {
		var entries []domain.HistoryEntry
		if _, err := f.store.GetSetting(domain.SettingHistory, &entries); err != nil {
			return nil, err
		}
		out := make([]domain.HistoryEntry, 0, len(entries))
		for i := len(entries) - 1; i >= 0; i-- {
			out = append(out, entries[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return out, nil
	}
	if f.offline() {
		return local()
	}
	entries, err := f.remote.HistoryRecent(ctx, limit)
	if err != nil {
		if f.fallback(err) {
			return local()
		}
		return nil, err
	}
	return entries, nil
}

// === Auth ===

// Auth verifies the session. A successful round trip doubles as a
// reachability probe; offline it answers from the cached snapshot.
func (f *Facade) Auth(ctx context.Context) (*domain.AuthInfo, error) {
	if f.offline() {
		return f.cachedAuth()
	}
	info, err := f.remote.AuthCheck(ctx)
	if err != nil {
		if f.fallback(err) {
			return f.cachedAuth()
		}
		return nil, err
	}
	f.state.SetOnline(true)
	if err := f.store.PutSetting(domain.SettingAuth, info); err != nil {
		return nil, err
	}
	return info, nil
}

// cachedAuth answers from the stored snapshot; with nothing cached it
// reports not-authenticated rather than failing, so the check stays total
// offline.
func (f *Facade) cachedAuth() (*domain.AuthInfo, error) {
	var info domain.AuthInfo
	ok, err := f.store.GetSetting(domain.SettingAuth, &info)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &domain.AuthInfo{Authenticated: false}, nil
	}
	return &info, nil
}

// === Favorites ===

// IsFavorite answers from the in-memory set.
func (f *Facade) IsFavorite(songUUID string) bool {
	return f.state.IsFavorite(songUUID)
}

// SetFavorite flips a song's favorite status. Server-side, favorites are a
// playlist, so the mutation routes through the playlist operations and
// inherits their offline behavior.
func (f *Facade) SetFavorite(ctx context.Context, songUUID string, favorite bool) error {
	favID := f.state.FavoritesPlaylistID()
	if favID.IsZero() {
		return fmt.Errorf("favorites playlist not yet known: %w", domain.ErrNoDataCached)
	}
	var err error
	if favorite {
		err = f.PlaylistAddSong(ctx, favID, songUUID)
	} else {
		err = f.PlaylistRemoveSong(ctx, favID, songUUID)
	}
	if err != nil {
		return err
	}
	if favorite {
		err = f.store.AddFavorite(songUUID)
	} else {
		err = f.store.RemoveFavorite(songUUID)
	}
	if err != nil {
		return err
	}
	f.state.SetFavorite(songUUID, favorite)
	return nil
}
