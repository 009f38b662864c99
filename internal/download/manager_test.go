package download

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offbeat/internal/domain"
	"offbeat/internal/state"
	"offbeat/internal/store"
)

// stubRemote overrides only the calls a test expects; anything else hits
// a nil function or the nil embedded interface and panics.
type stubRemote struct {
	Remote

	playlistsGetSongs func(ctx context.Context, id domain.PlaylistID, offset, limit int) (*domain.SongPage, error)
	fetchAudio        func(ctx context.Context, songUUID string) ([]byte, string, error)
	browseSongsByPath func(ctx context.Context, path, cursor string, limit int) (*domain.SongPage, error)
	browseSongsByFilt func(ctx context.Context, filter domain.BrowseFilter, cursor string, limit int) (*domain.SongPage, error)
}

func (s *stubRemote) PlaylistsGetSongs(ctx context.Context, id domain.PlaylistID, offset, limit int) (*domain.SongPage, error) {
	return s.playlistsGetSongs(ctx, id, offset, limit)
}

func (s *stubRemote) FetchAudio(ctx context.Context, songUUID string) ([]byte, string, error) {
	return s.fetchAudio(ctx, songUUID)
}

func (s *stubRemote) BrowseSongsByPath(ctx context.Context, path, cursor string, limit int) (*domain.SongPage, error) {
	return s.browseSongsByPath(ctx, path, cursor, limit)
}

func (s *stubRemote) BrowseSongsByFilter(ctx context.Context, filter domain.BrowseFilter, cursor string, limit int) (*domain.SongPage, error) {
	return s.browseSongsByFilt(ctx, filter, cursor, limit)
}

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

type dlHarness struct {
	mgr    *Manager
	remote *stubRemote
	store  *store.Store
	state  *state.Container
}

func newDLHarness(t *testing.T, opts ...Option) *dlHarness {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	remote := &stubRemote{}
	container := state.New()
	clk := &fakeClock{t: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	mgr := New(remote, st, container, nil, opts...)
	return &dlHarness{mgr: mgr, remote: remote, store: st, state: container}
}

func servePlaylistSongs(songs []domain.Song) func(context.Context, domain.PlaylistID, int, int) (*domain.SongPage, error) {
	return func(ctx context.Context, id domain.PlaylistID, offset, limit int) (*domain.SongPage, error) {
		end := offset + limit
		if end > len(songs) {
			end = len(songs)
		}
		if offset > len(songs) {
			offset = len(songs)
		}
		return &domain.SongPage{
			Songs:      songs[offset:end],
			TotalCount: len(songs),
			HasMore:    end < len(songs),
		}, nil
	}
}

func serveAudio(data map[string][]byte) func(context.Context, string) ([]byte, string, error) {
	return func(ctx context.Context, uuid string) ([]byte, string, error) {
		return data[uuid], "audio/ogg", nil
	}
}

func TestDownloadPlaylist(t *testing.T) {
	var progress []string
	h := newDLHarness(t, WithProgress(func(done, total int, uuid string) {
		progress = append(progress, uuid)
	}))
	id := domain.RemotePlaylistID(5)
	h.remote.playlistsGetSongs = servePlaylistSongs([]domain.Song{
		{UUID: "a", Title: "Alpha"},
		{UUID: "b", Title: "Beta"},
	})
	h.remote.fetchAudio = serveAudio(map[string][]byte{
		"a": []byte("aaaa"),
		"b": []byte("bbbbbb"),
	})

	require.NoError(t, h.mgr.DownloadPlaylist(context.Background(), id, "Evening", ""))

	p, err := h.store.GetPlaylist(id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Complete)
	assert.Equal(t, 2, p.DownloadedSongs)
	assert.Equal(t, int64(10), p.DownloadedBytes)
	assert.Equal(t, []string{"a", "b"}, p.SongUUIDs)

	meta, data, err := h.store.GetBlob("b")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, []byte("bbbbbb"), data)
	assert.Equal(t, domain.UsagePlaylists, meta.Category)
	assert.Equal(t, []string{"5"}, meta.PlaylistIDs)
	assert.Equal(t, "audio/ogg", meta.MIMEType)

	song, err := h.store.GetSong("a")
	require.NoError(t, err)
	require.NotNil(t, song)
	assert.Contains(t, song.Playlists, "5")

	usage, err := h.mgr.Usage()
	require.NoError(t, err)
	assert.Equal(t, domain.UsageEntry{Bytes: 10, Count: 2}, usage[domain.UsagePlaylists])

	assert.Equal(t, []string{"a", "b"}, progress)
}

func TestDownloadPlaylistCancellationKeepsPartials(t *testing.T) {
	h := newDLHarness(t)
	id := domain.RemotePlaylistID(9)
	h.remote.playlistsGetSongs = servePlaylistSongs([]domain.Song{
		{UUID: "a"}, {UUID: "b"}, {UUID: "c"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.remote.fetchAudio = func(fctx context.Context, uuid string) ([]byte, string, error) {
		// Pull the plug after the first song lands.
		cancel()
		return []byte("data"), "audio/ogg", nil
	}

	err := h.mgr.DownloadPlaylist(ctx, id, "Long One", "")
	require.ErrorIs(t, err, context.Canceled)

	p, gerr := h.store.GetPlaylist(id)
	require.NoError(t, gerr)
	require.NotNil(t, p)
	assert.False(t, p.Complete)
	assert.Equal(t, 1, p.DownloadedSongs)

	meta, _, gerr := h.store.GetBlob("a")
	require.NoError(t, gerr)
	assert.NotNil(t, meta, "fetched audio survives a cancelled run")
	missing, _, gerr := h.store.GetBlob("b")
	require.NoError(t, gerr)
	assert.Nil(t, missing)
}

func TestDownloadPlaylistReusesCachedAudio(t *testing.T) {
	h := newDLHarness(t)
	id := domain.RemotePlaylistID(3)
	require.NoError(t, h.store.PutBlob(domain.AudioBlob{
		SongUUID:       "a",
		MIMEType:       "audio/ogg",
		Category:       domain.UsageSongs,
		DownloadSource: "song:manual",
	}, []byte("cached!")))

	h.remote.playlistsGetSongs = servePlaylistSongs([]domain.Song{{UUID: "a"}})
	// fetchAudio stays nil: touching the network here is a bug.

	require.NoError(t, h.mgr.DownloadPlaylist(context.Background(), id, "Reuse", ""))

	p, err := h.store.GetPlaylist(id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Complete)
	assert.Equal(t, int64(len("cached!")), p.DownloadedBytes)

	meta, err := h.store.GetBlobMeta("a")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Contains(t, meta.PlaylistIDs, "3", "ownership extends to the playlist")
	assert.Equal(t, domain.UsageSongs, meta.Category, "original category is kept")
}

func TestDownloadByPath(t *testing.T) {
	h := newDLHarness(t)
	pages := map[string]*domain.SongPage{
		"": {
			Songs:      []domain.Song{{UUID: "a"}, {UUID: "b"}},
			HasMore:    true,
			NextCursor: "2",
		},
		"2": {
			Songs: []domain.Song{{UUID: "c"}},
		},
	}
	h.remote.browseSongsByPath = func(ctx context.Context, path, cursor string, limit int) (*domain.SongPage, error) {
		require.Equal(t, "/music/rock", path)
		return pages[cursor], nil
	}
	h.remote.fetchAudio = serveAudio(map[string][]byte{
		"a": []byte("aa"), "b": []byte("bb"), "c": []byte("cc"),
	})

	require.NoError(t, h.mgr.DownloadByPath(context.Background(), "/music/rock", ""))

	folderID := domain.FolderIDForPath("/music/rock")
	folder, err := h.store.GetFolder(folderID)
	require.NoError(t, err)
	require.NotNil(t, folder)
	assert.Equal(t, "/music/rock", folder.Name, "path doubles as the default name")
	assert.Equal(t, []string{"a", "b", "c"}, folder.SongUUIDs)
	assert.Equal(t, int64(6), folder.DownloadedBytes)

	meta, err := h.store.GetBlobMeta("c")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, domain.UsageFolders, meta.Category)
	assert.Equal(t, []string{folderID}, meta.FolderIDs)
}

func TestDownloadByFilterNoMatches(t *testing.T) {
	h := newDLHarness(t)
	h.remote.browseSongsByFilt = func(ctx context.Context, filter domain.BrowseFilter, cursor string, limit int) (*domain.SongPage, error) {
		return &domain.SongPage{}, nil
	}
	err := h.mgr.DownloadByFilter(context.Background(), domain.BrowseFilter{Genre: "polka"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no songs matched")
}

func TestRemovePlaylistDownload(t *testing.T) {
	seed := func(t *testing.T, h *dlHarness, id domain.PlaylistID, blob domain.AudioBlob) {
		t.Helper()
		require.NoError(t, h.store.PutPlaylist(domain.Playlist{
			ID:              id,
			Name:            "Gone Soon",
			SongUUIDs:       []string{"a"},
			DownloadedSongs: 1,
			DownloadedBytes: 4,
			Complete:        true,
		}))
		blob.SongUUID = "a"
		require.NoError(t, h.store.PutBlob(blob, []byte("data")))
	}

	t.Run("remote playlist record and sole-owner blob go", func(t *testing.T) {
		h := newDLHarness(t)
		id := domain.RemotePlaylistID(7)
		seed(t, h, id, domain.AudioBlob{Category: domain.UsagePlaylists, PlaylistIDs: []string{"7"}})

		require.NoError(t, h.mgr.RemovePlaylistDownload(id))

		p, err := h.store.GetPlaylist(id)
		require.NoError(t, err)
		assert.Nil(t, p)
		meta, err := h.store.GetBlobMeta("a")
		require.NoError(t, err)
		assert.Nil(t, meta)
	})

	t.Run("placeholder playlist keeps its record", func(t *testing.T) {
		h := newDLHarness(t)
		id := domain.LocalPlaylistID("pending-42")
		seed(t, h, id, domain.AudioBlob{Category: domain.UsagePlaylists, PlaylistIDs: []string{id.String()}})

		require.NoError(t, h.mgr.RemovePlaylistDownload(id))

		p, err := h.store.GetPlaylist(id)
		require.NoError(t, err)
		require.NotNil(t, p, "the unsynced create must survive")
		assert.False(t, p.Complete)
		assert.Zero(t, p.DownloadedSongs)
		assert.Zero(t, p.DownloadedBytes)
		meta, err := h.store.GetBlobMeta("a")
		require.NoError(t, err)
		assert.Nil(t, meta, "only the audio goes")
	})

	t.Run("blob shared with a folder survives", func(t *testing.T) {
		h := newDLHarness(t)
		id := domain.RemotePlaylistID(7)
		seed(t, h, id, domain.AudioBlob{
			Category:    domain.UsagePlaylists,
			PlaylistIDs: []string{"7"},
			FolderIDs:   []string{"path:/music"},
		})

		require.NoError(t, h.mgr.RemovePlaylistDownload(id))

		meta, err := h.store.GetBlobMeta("a")
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.Empty(t, meta.PlaylistIDs)
		assert.Equal(t, []string{"path:/music"}, meta.FolderIDs)
	})

	t.Run("unknown playlist errors", func(t *testing.T) {
		h := newDLHarness(t)
		err := h.mgr.RemovePlaylistDownload(domain.RemotePlaylistID(404))
		require.ErrorIs(t, err, domain.ErrPlaylistNotFound)
	})
}

func TestRemoveFolder(t *testing.T) {
	h := newDLHarness(t)
	folderID := domain.FolderIDForPath("/music/jazz")
	require.NoError(t, h.store.PutFolder(domain.OfflineFolder{
		ID:        folderID,
		Name:      "/music/jazz",
		Path:      "/music/jazz",
		SongUUIDs: []string{"a", "b"},
	}))
	require.NoError(t, h.store.PutBlob(domain.AudioBlob{
		SongUUID:  "a",
		Category:  domain.UsageFolders,
		FolderIDs: []string{folderID},
	}, []byte("aa")))
	// Individually downloaded audio is never collected by folder removal.
	require.NoError(t, h.store.PutBlob(domain.AudioBlob{
		SongUUID:       "b",
		Category:       domain.UsageSongs,
		FolderIDs:      []string{folderID},
		DownloadSource: "song:manual",
	}, []byte("bb")))

	require.NoError(t, h.mgr.RemoveFolder(folderID))

	folder, err := h.store.GetFolder(folderID)
	require.NoError(t, err)
	assert.Nil(t, folder)
	gone, err := h.store.GetBlobMeta("a")
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := h.store.GetBlobMeta("b")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Empty(t, kept.FolderIDs)

	assert.NoError(t, h.mgr.RemoveFolder("path:/nope"), "removing a missing folder is a no-op")
}

func TestCleanupOrphans(t *testing.T) {
	h := newDLHarness(t)
	require.NoError(t, h.store.PutBlob(domain.AudioBlob{
		SongUUID: "orphan",
		Category: domain.UsagePlaylists,
	}, []byte("xx")))
	require.NoError(t, h.store.PutBlob(domain.AudioBlob{
		SongUUID:       "manual",
		Category:       domain.UsageSongs,
		DownloadSource: "song:manual",
	}, []byte("yy")))
	require.NoError(t, h.store.PutBlob(domain.AudioBlob{
		SongUUID:    "owned",
		Category:    domain.UsagePlaylists,
		PlaylistIDs: []string{"5"},
	}, []byte("zz")))

	removed, err := h.mgr.CleanupOrphans()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	gone, err := h.store.GetBlobMeta("orphan")
	require.NoError(t, err)
	assert.Nil(t, gone)
	for _, uuid := range []string{"manual", "owned"} {
		meta, err := h.store.GetBlobMeta(uuid)
		require.NoError(t, err)
		assert.NotNil(t, meta, uuid)
	}
}

func TestAudioTouchesAccessTime(t *testing.T) {
	h := newDLHarness(t)
	require.NoError(t, h.store.PutBlob(domain.AudioBlob{
		SongUUID:       "a",
		MIMEType:       "audio/ogg",
		Category:       domain.UsageSongs,
		DownloadSource: "song:manual",
		LastAccessedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}, []byte("play me")))

	meta, data, err := h.mgr.Audio("a")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, []byte("play me"), data)

	touched, err := h.store.GetBlobMeta("a")
	require.NoError(t, err)
	assert.True(t, touched.LastAccessedAt.After(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))

	missingMeta, missingData, err := h.mgr.Audio("nope")
	require.NoError(t, err)
	assert.Nil(t, missingMeta)
	assert.Nil(t, missingData)
}
