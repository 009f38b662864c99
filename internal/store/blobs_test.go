package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offbeat/internal/domain"
)

func TestBlobRoundTrip(t *testing.T) {
	s := newTestStore(t)

	meta := domain.AudioBlob{
		SongUUID:     "a",
		MIMEType:     "audio/ogg",
		Category:     domain.UsagePlaylists,
		PlaylistIDs:  []string{"5"},
		DownloadedAt: time.Now(),
	}
	require.NoError(t, s.PutBlob(meta, []byte("0123456789")))

	got, data, err := s.GetBlob("a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "audio/ogg", got.MIMEType)
	assert.Equal(t, int64(10), got.Size)
	assert.Equal(t, []byte("0123456789"), data)

	gotMeta, err := s.GetBlobMeta("a")
	require.NoError(t, err)
	require.NotNil(t, gotMeta)
	assert.Equal(t, []string{"5"}, gotMeta.PlaylistIDs)

	missing, data, err := s.GetBlob("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Nil(t, data)
}

func TestBlobUsageAccounting(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutBlob(domain.AudioBlob{SongUUID: "a", Category: domain.UsagePlaylists}, make([]byte, 100)))
	require.NoError(t, s.PutBlob(domain.AudioBlob{SongUUID: "b", Category: domain.UsagePlaylists}, make([]byte, 50)))
	require.NoError(t, s.PutBlob(domain.AudioBlob{SongUUID: "c", Category: domain.UsageFolders}, make([]byte, 25)))

	usage, err := s.Usage()
	require.NoError(t, err)
	assert.Equal(t, domain.UsageEntry{Bytes: 150, Count: 2}, usage[domain.UsagePlaylists])
	assert.Equal(t, domain.UsageEntry{Bytes: 25, Count: 1}, usage[domain.UsageFolders])

	t.Run("replacement backs out the old size and category", func(t *testing.T) {
		require.NoError(t, s.PutBlob(domain.AudioBlob{SongUUID: "a", Category: domain.UsageFolders}, make([]byte, 10)))
		usage, err := s.Usage()
		require.NoError(t, err)
		assert.Equal(t, domain.UsageEntry{Bytes: 50, Count: 1}, usage[domain.UsagePlaylists])
		assert.Equal(t, domain.UsageEntry{Bytes: 35, Count: 2}, usage[domain.UsageFolders])
	})

	t.Run("delete decrements", func(t *testing.T) {
		require.NoError(t, s.DeleteBlob("b"))
		usage, err := s.Usage()
		require.NoError(t, err)
		assert.Equal(t, domain.UsageEntry{Bytes: 0, Count: 0}, usage[domain.UsagePlaylists])
	})

	t.Run("double delete never clamps below zero", func(t *testing.T) {
		require.NoError(t, s.DeleteBlob("b"))
		usage, err := s.Usage()
		require.NoError(t, err)
		assert.Equal(t, domain.UsageEntry{Bytes: 0, Count: 0}, usage[domain.UsagePlaylists])
	})

	t.Run("empty category counts under songs", func(t *testing.T) {
		require.NoError(t, s.PutBlob(domain.AudioBlob{SongUUID: "d"}, make([]byte, 7)))
		usage, err := s.Usage()
		require.NoError(t, err)
		assert.Equal(t, domain.UsageEntry{Bytes: 7, Count: 1}, usage[domain.UsageSongs])
	})
}

func TestFolders(t *testing.T) {
	s := newTestStore(t)

	f := domain.OfflineFolder{
		ID:        domain.FolderIDForPath("/music/jazz"),
		Name:      "jazz",
		Path:      "/music/jazz",
		SongUUIDs: []string{"a", "b"},
	}
	require.NoError(t, s.PutFolder(f))

	got, err := s.GetFolder(f.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jazz", got.Name)

	all, err := s.AllFolders()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteFolder(f.ID))
	got, err = s.GetFolder(f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
