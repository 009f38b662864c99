package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistID_RemoteAndLocal(t *testing.T) {
	remote := RemotePlaylistID(42)
	assert.False(t, remote.IsLocal())
	assert.False(t, remote.IsZero())
	assert.Equal(t, int64(42), remote.Remote())
	assert.Equal(t, "42", remote.String())
	assert.Equal(t, int64(42), remote.Value())

	local := LocalPlaylistID("pending-1700000000000")
	assert.True(t, local.IsLocal())
	assert.False(t, local.IsZero())
	assert.Equal(t, "pending-1700000000000", local.Token())
	assert.Equal(t, "pending-1700000000000", local.String())
	assert.Equal(t, "pending-1700000000000", local.Value())

	var zero PlaylistID
	assert.True(t, zero.IsZero())
}

func TestNewLocalPlaylistID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewLocalPlaylistID(now)
	assert.True(t, id.IsLocal())
	assert.Equal(t, "pending-1700000000123", id.Token())
}

func TestParsePlaylistID(t *testing.T) {
	id, err := ParsePlaylistID("17")
	require.NoError(t, err)
	assert.Equal(t, RemotePlaylistID(17), id)

	id, err = ParsePlaylistID("pending-99")
	require.NoError(t, err)
	assert.Equal(t, LocalPlaylistID("pending-99"), id)

	_, err = ParsePlaylistID("not-an-id")
	assert.Error(t, err)
}

func TestPlaylistID_JSON(t *testing.T) {
	t.Run("remote marshals as number", func(t *testing.T) {
		data, err := json.Marshal(RemotePlaylistID(7))
		require.NoError(t, err)
		assert.Equal(t, "7", string(data))
	})

	t.Run("local marshals as token", func(t *testing.T) {
		data, err := json.Marshal(LocalPlaylistID("pending-5"))
		require.NoError(t, err)
		assert.Equal(t, `"pending-5"`, string(data))
	})

	t.Run("zero marshals as null", func(t *testing.T) {
		data, err := json.Marshal(PlaylistID{})
		require.NoError(t, err)
		assert.Equal(t, "null", string(data))
	})

	t.Run("unmarshal accepts all forms", func(t *testing.T) {
		var id PlaylistID
		require.NoError(t, json.Unmarshal([]byte("12"), &id))
		assert.Equal(t, RemotePlaylistID(12), id)

		require.NoError(t, json.Unmarshal([]byte(`"12"`), &id))
		assert.Equal(t, RemotePlaylistID(12), id)

		require.NoError(t, json.Unmarshal([]byte(`"pending-12"`), &id))
		assert.Equal(t, LocalPlaylistID("pending-12"), id)

		require.NoError(t, json.Unmarshal([]byte("null"), &id))
		assert.True(t, id.IsZero())

		assert.Error(t, json.Unmarshal([]byte("true"), &id))
	})

	t.Run("round trip inside a struct", func(t *testing.T) {
		p := Playlist{ID: LocalPlaylistID("pending-3"), Name: "road trip"}
		data, err := json.Marshal(p)
		require.NoError(t, err)
		var back Playlist
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, p.ID, back.ID)
	})
}
