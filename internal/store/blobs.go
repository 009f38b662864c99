package store

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"offbeat/internal/domain"
)

// PutBlob stores audio bytes with their metadata and moves the disk-usage
// counters in the same transaction. Replacing an existing blob first backs
// its old size out of its old category.
func (s *Store) PutBlob(meta domain.AudioBlob, data []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		mb := tx.Bucket(bucketBlobs)
		key := []byte(meta.SongUUID)

		if v := mb.Get(key); v != nil {
			var old domain.AudioBlob
			if err := json.Unmarshal(v, &old); err != nil {
				return err
			}
			if err := adjustUsage(tx, old.Category, -old.Size, -1); err != nil {
				return err
			}
		}

		meta.Size = int64(len(data))
		encoded, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := mb.Put(key, encoded); err != nil {
			return err
		}
		if err := tx.Bucket(bucketBlobData).Put(key, data); err != nil {
			return err
		}
		return adjustUsage(tx, meta.Category, meta.Size, 1)
	})
	if err != nil {
		return err
	}
	s.dropCachePrefix(bucketBlobs, meta.SongUUID)
	return nil
}

func (s *Store) GetBlob(songUUID string) (*domain.AudioBlob, []byte, error) {
	var meta *domain.AudioBlob
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get([]byte(songUUID))
		if v == nil {
			return nil
		}
		var m domain.AudioBlob
		if err := json.Unmarshal(v, &m); err != nil {
			return err
		}
		meta = &m
		if raw := tx.Bucket(bucketBlobData).Get([]byte(songUUID)); raw != nil {
			data = make([]byte, len(raw))
			copy(data, raw)
		}
		return nil
	})
	if err != nil || meta == nil {
		return nil, nil, err
	}
	return meta, data, nil
}

func (s *Store) GetBlobMeta(songUUID string) (*domain.AudioBlob, error) {
	var meta domain.AudioBlob
	ok, err := s.get(bucketBlobs, songUUID, &meta)
	if err != nil || !ok {
		return nil, err
	}
	return &meta, nil
}

// PutBlobMeta rewrites metadata only (membership lists, access times).
// Size and category must not change here; use PutBlob for that.
func (s *Store) PutBlobMeta(meta domain.AudioBlob) error {
	return s.set(bucketBlobs, meta.SongUUID, meta)
}

func (s *Store) AllBlobMeta() ([]domain.AudioBlob, error) {
	var metas []domain.AudioBlob
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).ForEach(func(_, v []byte) error {
			var m domain.AudioBlob
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			metas = append(metas, m)
			return nil
		})
	})
	return metas, err
}

func (s *Store) DeleteBlob(songUUID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		mb := tx.Bucket(bucketBlobs)
		key := []byte(songUUID)
		v := mb.Get(key)
		if v == nil {
			return nil
		}
		var meta domain.AudioBlob
		if err := json.Unmarshal(v, &meta); err != nil {
			return err
		}
		if err := mb.Delete(key); err != nil {
			return err
		}
		if err := tx.Bucket(bucketBlobData).Delete(key); err != nil {
			return err
		}
		return adjustUsage(tx, meta.Category, -meta.Size, -1)
	})
	if err != nil {
		return err
	}
	s.dropCachePrefix(bucketBlobs, songUUID)
	return nil
}

func (s *Store) Usage() (map[string]domain.UsageEntry, error) {
	usage := make(map[string]domain.UsageEntry)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsage).ForEach(func(k, v []byte) error {
			var e domain.UsageEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			usage[string(k)] = e
			return nil
		})
	})
	return usage, err
}

// adjustUsage applies a delta to one category's counters, clamping at
// zero so a double delete never drives the accounting negative.
func adjustUsage(tx *bolt.Tx, category string, bytes, count int64) error {
	if category == "" {
		category = domain.UsageSongs
	}
	b := tx.Bucket(bucketUsage)
	var e domain.UsageEntry
	if v := b.Get([]byte(category)); v != nil {
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
	}
	e.Bytes = max(e.Bytes+bytes, 0)
	e.Count = max(e.Count+count, 0)
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.Put([]byte(category), data)
}

// === Offline folders ===

func (s *Store) PutFolder(f domain.OfflineFolder) error {
	return s.set(bucketFolders, f.ID, f)
}

func (s *Store) GetFolder(id string) (*domain.OfflineFolder, error) {
	var f domain.OfflineFolder
	ok, err := s.get(bucketFolders, id, &f)
	if err != nil || !ok {
		return nil, err
	}
	return &f, nil
}

func (s *Store) AllFolders() ([]domain.OfflineFolder, error) {
	var folders []domain.OfflineFolder
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFolders).ForEach(func(_, v []byte) error {
			var f domain.OfflineFolder
			if err := json.Unmarshal(v, &f); err != nil {
				return err
			}
			folders = append(folders, f)
			return nil
		})
	})
	return folders, err
}

func (s *Store) DeleteFolder(id string) error {
	return s.delete(bucketFolders, id)
}
