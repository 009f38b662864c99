package facade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offbeat/internal/domain"
)

func TestPlaylistCreateOffline(t *testing.T) {
	h := newHarness(t)
	h.goOffline()

	created, err := h.facade.PlaylistCreate(context.Background(), "Road Trip", "long drives")
	require.NoError(t, err)
	assert.True(t, created.ID.IsLocal(), "offline creates get a placeholder identity")
	assert.Equal(t, "Road Trip", created.Name)

	p, err := h.store.GetPlaylist(created.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Pending())

	writes := h.pending(t)
	require.Len(t, writes, 1)
	assert.Equal(t, "playlists.create", writes[0].OpType())
	assert.Equal(t, created.ID.Token(), writes[0].PayloadString("tempId"))
}

func TestPlaylistCreateOfflineDedupesName(t *testing.T) {
	h := newHarness(t)
	h.goOffline()

	first, err := h.facade.PlaylistCreate(context.Background(), "Mix", "")
	require.NoError(t, err)
	assert.Equal(t, "Mix", first.Name)

	second, err := h.facade.PlaylistCreate(context.Background(), "Mix", "")
	require.NoError(t, err)
	assert.Equal(t, "Mix (2)", second.Name)

	third, err := h.facade.PlaylistCreate(context.Background(), "Mix", "")
	require.NoError(t, err)
	assert.Equal(t, "Mix (3)", third.Name)
}

func TestPlaylistDeleteLocalCancelsQueuedWrites(t *testing.T) {
	h := newHarness(t)
	h.goOffline()

	created, err := h.facade.PlaylistCreate(context.Background(), "Doomed", "")
	require.NoError(t, err)
	require.NoError(t, h.facade.PlaylistAddSong(context.Background(), created.ID, "a"))
	require.Len(t, h.pending(t), 2)

	require.NoError(t, h.facade.PlaylistDelete(context.Background(), created.ID))

	assert.Empty(t, h.pending(t), "creation and every addressed write cancelled together")
	assert.Equal(t, 0, h.state.PendingCount())
	p, err := h.store.GetPlaylist(created.ID)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPlaylistDeleteRemoteOffline(t *testing.T) {
	h := newHarness(t)
	h.goOffline()
	id := domain.RemotePlaylistID(8)
	require.NoError(t, h.store.PutPlaylist(domain.Playlist{ID: id, Name: "Server", SongUUIDs: []string{"a"}}))
	require.NoError(t, h.store.PutSongs([]domain.Song{{UUID: "a", Playlists: []string{"8"}}}))
	require.NoError(t, h.store.PutSetting(domain.SettingServerPlaylists, []domain.PlaylistSummary{{ID: id, Name: "Server"}}))

	require.NoError(t, h.facade.PlaylistDelete(context.Background(), id))

	writes := h.pending(t)
	require.Len(t, writes, 1)
	assert.Equal(t, "playlists.delete", writes[0].OpType())

	song, err := h.store.GetSong("a")
	require.NoError(t, err)
	assert.Empty(t, song.Playlists, "membership cleaned up")

	var list []domain.PlaylistSummary
	_, err = h.store.GetSetting(domain.SettingServerPlaylists, &list)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestQueueSaveAsPlaylistOffline(t *testing.T) {
	h := newHarness(t)
	h.goOffline()
	require.NoError(t, h.store.PutSongs([]domain.Song{{UUID: "a"}, {UUID: "b"}}))
	h.seedQueue(t, []string{"a", "b"}, 0)

	created, err := h.facade.QueueSaveAsPlaylist(context.Background(), "Snapshot", "")
	require.NoError(t, err)
	assert.True(t, created.ID.IsLocal())

	writes := h.pending(t)
	require.Len(t, writes, 1)
	assert.Equal(t, "playlists.createFromQueue", writes[0].OpType())
	assert.Equal(t, created.ID.Token(), writes[0].PayloadString("tempId"))
	// Payloads round-trip through JSON in the store, so slices come back
	// as []any.
	assert.Equal(t, []any{"a", "b"}, writes[0].Payload["songUuids"])

	song, err := h.store.GetSong("a")
	require.NoError(t, err)
	assert.Contains(t, song.Playlists, created.ID.String())
}

func TestQueueSaveAsPlaylistOfflineEmptyQueue(t *testing.T) {
	h := newHarness(t)
	h.goOffline()

	_, err := h.facade.QueueSaveAsPlaylist(context.Background(), "Empty", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoDataCached)
	assert.Empty(t, h.pending(t))
}

func TestPlaylistAddSongOffline(t *testing.T) {
	h := newHarness(t)
	h.goOffline()
	id := domain.RemotePlaylistID(3)
	require.NoError(t, h.store.PutPlaylist(domain.Playlist{ID: id, Name: "P", SongUUIDs: []string{"a"}}))
	require.NoError(t, h.store.PutSongs([]domain.Song{{UUID: "a"}, {UUID: "b"}}))

	require.NoError(t, h.facade.PlaylistAddSong(context.Background(), id, "b"))

	p, err := h.store.GetPlaylist(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.SongUUIDs)
	assert.Equal(t, 2, p.TotalSongs)

	song, err := h.store.GetSong("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, song.Playlists)

	writes := h.pending(t)
	require.Len(t, writes, 1)
	assert.Equal(t, "playlists.addSong", writes[0].OpType())
}

func TestPlaylistRemoveSongsOffline(t *testing.T) {
	h := newHarness(t)
	h.goOffline()
	id := domain.RemotePlaylistID(3)
	require.NoError(t, h.store.PutPlaylist(domain.Playlist{ID: id, Name: "P", SongUUIDs: []string{"a", "b", "c"}}))
	require.NoError(t, h.store.PutSongs([]domain.Song{
		{UUID: "a", Playlists: []string{"3"}},
		{UUID: "b", Playlists: []string{"3"}},
		{UUID: "c", Playlists: []string{"3"}},
	}))

	require.NoError(t, h.facade.PlaylistRemoveSongs(context.Background(), id, []string{"a", "c"}))

	p, err := h.store.GetPlaylist(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, p.SongUUIDs)

	song, err := h.store.GetSong("a")
	require.NoError(t, err)
	assert.Empty(t, song.Playlists)

	writes := h.pending(t)
	require.Len(t, writes, 1)
	assert.Equal(t, "playlists.removeSongs", writes[0].OpType())
}

func TestPlaylistEditUnknownLocal(t *testing.T) {
	h := newHarness(t)
	h.goOffline()

	err := h.facade.PlaylistAddSong(context.Background(), domain.LocalPlaylistID("pending-404"), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)
}

func TestPlaylistReorderOffline(t *testing.T) {
	h := newHarness(t)
	h.goOffline()
	id := domain.RemotePlaylistID(3)
	require.NoError(t, h.store.PutPlaylist(domain.Playlist{ID: id, Name: "P", SongUUIDs: []string{"a", "b", "c"}}))

	require.NoError(t, h.facade.PlaylistReorder(context.Background(), id, []int{2, 0, 1}))

	p, err := h.store.GetPlaylist(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, p.SongUUIDs)
}

func TestPlaylistsOnlineCachesAndAdoptsFavorites(t *testing.T) {
	h := newHarness(t)
	favID := domain.RemotePlaylistID(1)
	h.remote.playlistsList = func(ctx context.Context) ([]domain.PlaylistSummary, error) {
		return []domain.PlaylistSummary{
			{ID: favID, Name: "Favorites", SongCount: 2},
			{ID: domain.RemotePlaylistID(2), Name: "Mix", SongCount: 5},
		}, nil
	}

	list, err := h.facade.Playlists(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, favID, h.state.FavoritesPlaylistID())

	var cached []domain.PlaylistSummary
	ok, err := h.store.GetSetting(domain.SettingServerPlaylists, &cached)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, cached, 2)
}

func TestPlaylistsOfflineAppendsPending(t *testing.T) {
	h := newHarness(t)
	h.goOffline()
	require.NoError(t, h.store.PutSetting(domain.SettingServerPlaylists, []domain.PlaylistSummary{
		{ID: domain.RemotePlaylistID(2), Name: "Mix"},
	}))
	created, err := h.facade.PlaylistCreate(context.Background(), "New", "")
	require.NoError(t, err)

	list, err := h.facade.Playlists(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Mix", list[0].Name)
	assert.Equal(t, created.ID, list[1].ID)
	assert.True(t, list[1].Pending)
}

func TestPlaylistSongsOfflinePaging(t *testing.T) {
	h := newHarness(t)
	h.goOffline()
	id := domain.RemotePlaylistID(3)
	require.NoError(t, h.store.PutPlaylist(domain.Playlist{
		ID: id, Name: "P", SongUUIDs: []string{"a", "b", "c", "d"}, Complete: true,
	}))
	require.NoError(t, h.store.PutSongs([]domain.Song{
		{UUID: "a"}, {UUID: "b"}, {UUID: "c"}, {UUID: "d"},
	}))

	page, err := h.facade.PlaylistSongs(context.Background(), id, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, songUUIDs(page.Songs))
	assert.Equal(t, 4, page.TotalCount)
	assert.True(t, page.HasMore)

	page, err = h.facade.PlaylistSongs(context.Background(), id, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, songUUIDs(page.Songs))
	assert.False(t, page.HasMore)
}
