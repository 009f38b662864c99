package store

import (
	"encoding/binary"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"offbeat/internal/domain"
)

// The pending bucket is an ordered log: keys are 8-byte big-endian
// sequence numbers from the bucket's NextSequence counter, so iteration
// order is creation order and IDs survive deletions without reuse.

func pendingKey(id uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], id)
	return k[:]
}

func (s *Store) AppendPending(w domain.PendingWrite) (domain.PendingWrite, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPending)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		w.ID = seq
		data, err := json.Marshal(w)
		if err != nil {
			return err
		}
		return b.Put(pendingKey(seq), data)
	})
	if err != nil {
		return domain.PendingWrite{}, err
	}
	return w, nil
}

func (s *Store) ListPending() ([]domain.PendingWrite, error) {
	var writes []domain.PendingWrite
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPending).ForEach(func(_, v []byte) error {
			var w domain.PendingWrite
			if err := json.Unmarshal(v, &w); err != nil {
				return err
			}
			writes = append(writes, w)
			return nil
		})
	})
	return writes, err
}

func (s *Store) CountPending() (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketPending).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *Store) DeletePending(ids []uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPending)
		for _, id := range ids {
			if err := b.Delete(pendingKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) UpdatePending(w domain.PendingWrite) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPending)
		if b.Get(pendingKey(w.ID)) == nil {
			return nil // Already consumed by a concurrent sync
		}
		data, err := json.Marshal(w)
		if err != nil {
			return err
		}
		return b.Put(pendingKey(w.ID), data)
	})
}

func (s *Store) ClearPending() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPending)
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}
