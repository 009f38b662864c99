// Package store persists the offline cache in a single BoltDB file:
// song metadata, playlists, queue snapshots, the pending-write log,
// downloaded audio, and assorted settings records.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"offbeat/internal/domain"
)

// schemaVersion is bumped whenever a migration is added. Opening a file
// written by a newer build fails rather than corrupting it.
const schemaVersion = 1

// Bucket names
var (
	bucketMeta      = []byte("meta")
	bucketSongs     = []byte("songs")
	bucketPlaylists = []byte("playlists")
	bucketFolders   = []byte("folders")
	bucketQueue     = []byte("queue")
	bucketSettings  = []byte("settings")
	bucketFavorites = []byte("favorites")
	bucketPending   = []byte("pending")
	bucketBlobs     = []byte("blobs")
	bucketBlobData  = []byte("blobdata")
	bucketUsage     = []byte("usage")
)

var allBuckets = [][]byte{
	bucketMeta, bucketSongs, bucketPlaylists, bucketFolders, bucketQueue,
	bucketSettings, bucketFavorites, bucketPending, bucketBlobs,
	bucketBlobData, bucketUsage,
}

// Store implements domain.Store using BoltDB.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access). Raw audio
	// bytes are never cached here.
	cache map[string][]byte
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "offbeat.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return migrate(tx)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

// migrate runs inside the opening transaction. New schema fields are
// additive, so older files only need their version stamp bumped.
func migrate(tx *bolt.Tx) error {
	meta := tx.Bucket(bucketMeta)
	stored := 0
	if v := meta.Get([]byte("schemaVersion")); v != nil {
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("corrupt schema version %q", v)
		}
		stored = n
	}
	if stored > schemaVersion {
		return fmt.Errorf("cache schema version %d is newer than supported %d", stored, schemaVersion)
	}
	return meta.Put([]byte("schemaVersion"), []byte(strconv.Itoa(schemaVersion)))
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string, dest any) (bool, error) {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return true, json.Unmarshal(data, dest)
	}
	s.mu.RUnlock()

	// Read from BoltDB
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return true, json.Unmarshal(data, dest)
}

func (s *Store) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) delete(bucket []byte, key string) error {
	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// dropCache evicts everything; used after multi-record transactions where
// tracking the touched keys individually isn't worth it.
func (s *Store) dropCache() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()
}

// dropCachePrefix evicts cache entries for one bucket's key prefix.
func (s *Store) dropCachePrefix(bucket []byte, prefix string) {
	full := string(bucket) + ":" + prefix
	s.mu.Lock()
	for k := range s.cache {
		if strings.HasPrefix(k, full) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()
}

// === Songs ===

func (s *Store) PutSongs(songs []domain.Song) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSongs)
		for _, song := range songs {
			data, err := json.Marshal(song)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(song.UUID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dropCachePrefix(bucketSongs, "")
	return nil
}

func (s *Store) GetSong(uuid string) (*domain.Song, error) {
	var song domain.Song
	ok, err := s.get(bucketSongs, uuid, &song)
	if err != nil || !ok {
		return nil, err
	}
	return &song, nil
}

func (s *Store) AllSongs() ([]domain.Song, error) {
	var songs []domain.Song
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSongs).ForEach(func(k, v []byte) error {
			var song domain.Song
			if err := json.Unmarshal(v, &song); err != nil {
				return err
			}
			songs = append(songs, song)
			return nil
		})
	})
	return songs, err
}

func (s *Store) DeleteSongs(uuids []string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSongs)
		for _, uuid := range uuids {
			if err := b.Delete([]byte(uuid)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dropCachePrefix(bucketSongs, "")
	return nil
}

// === Queue snapshots ===

func (s *Store) GetQueue(key domain.QueueKey) (*domain.QueueSnapshot, error) {
	var snap domain.QueueSnapshot
	ok, err := s.get(bucketQueue, string(key), &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) PutQueue(key domain.QueueKey, snap domain.QueueSnapshot) error {
	return s.set(bucketQueue, string(key), snap)
}

func (s *Store) DeleteQueue(key domain.QueueKey) error {
	return s.delete(bucketQueue, string(key))
}

// === Settings ===

func (s *Store) GetSetting(key string, out any) (bool, error) {
	return s.get(bucketSettings, key, out)
}

func (s *Store) PutSetting(key string, v any) error {
	return s.set(bucketSettings, key, v)
}

func (s *Store) DeleteSetting(key string) error {
	return s.delete(bucketSettings, key)
}

// === Favorites ===

func (s *Store) AddFavorite(songUUID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFavorites).Put([]byte(songUUID), []byte("1"))
	})
}

func (s *Store) RemoveFavorite(songUUID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFavorites).Delete([]byte(songUUID))
	})
}

func (s *Store) ListFavorites() ([]string, error) {
	var uuids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFavorites).ForEach(func(k, _ []byte) error {
			uuids = append(uuids, string(k))
			return nil
		})
	})
	return uuids, err
}

func (s *Store) ReplaceFavorites(songUUIDs []string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFavorites)
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		for _, uuid := range songUUIDs {
			if err := b.Put([]byte(uuid), []byte("1")); err != nil {
				return err
			}
		}
		return nil
	})
}
