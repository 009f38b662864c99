package remote

import (
	"context"

	"offbeat/internal/domain"
)

func (c *Client) PreferencesGet(ctx context.Context) (*domain.Preferences, int64, error) {
	var dto struct {
		domain.Preferences
		LastModified int64 `json:"lastModified"`
	}
	if err := c.call(ctx, "preferences.get", nil, &dto); err != nil {
		return nil, 0, err
	}
	prefs := dto.Preferences
	return &prefs, dto.LastModified, nil
}

func (c *Client) PreferencesSet(ctx context.Context, prefs domain.Preferences) error {
	return c.call(ctx, "preferences.set", map[string]any{
		"volume":             prefs.Volume,
		"shuffle":            prefs.Shuffle,
		"repeatMode":         prefs.RepeatMode,
		"radioEopp":          prefs.RadioEopp,
		"darkMode":           prefs.DarkMode,
		"replayGainMode":     prefs.ReplayGainMode,
		"replayGainPreamp":   prefs.ReplayGainPreamp,
		"replayGainFallback": prefs.ReplayGainFallback,
	}, nil)
}

func (c *Client) EQPresetsList(ctx context.Context) ([]domain.EQPreset, error) {
	var raw rawResult
	if err := c.call(ctx, "eq.listPresets", nil, &raw); err != nil {
		return nil, err
	}
	var presets []domain.EQPreset
	if _, err := decodeList(raw, &presets, "presets"); err != nil {
		return nil, err
	}
	return presets, nil
}

func (c *Client) EQPresetsSave(ctx context.Context, preset domain.EQPreset) (*domain.EQPreset, error) {
	kwargs := map[string]any{
		"name":  preset.Name,
		"bands": preset.Bands,
	}
	if preset.UUID != "" {
		kwargs["uuid"] = preset.UUID
	}
	var saved domain.EQPreset
	if err := c.call(ctx, "eq.savePreset", kwargs, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *Client) EQPresetsDelete(ctx context.Context, uuid string) error {
	return c.call(ctx, "eq.deletePreset", map[string]any{"uuid": uuid}, nil)
}
