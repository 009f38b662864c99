package store

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"offbeat/internal/domain"
)

func (s *Store) PutPlaylist(p domain.Playlist) error {
	return s.set(bucketPlaylists, p.ID.String(), p)
}

func (s *Store) GetPlaylist(id domain.PlaylistID) (*domain.Playlist, error) {
	var p domain.Playlist
	ok, err := s.get(bucketPlaylists, id.String(), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *Store) AllPlaylists() ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPlaylists).ForEach(func(_, v []byte) error {
			var p domain.Playlist
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			playlists = append(playlists, p)
			return nil
		})
	})
	return playlists, err
}

func (s *Store) DeletePlaylist(id domain.PlaylistID) error {
	return s.delete(bucketPlaylists, id.String())
}

// ResolvePlaylistID rewrites a placeholder identity to its server-assigned
// one in a single transaction: the playlist record itself, song and blob
// membership lists, the cached per-playlist song list, the cached server
// listing, and the favorites-playlist marker. Nothing that referenced the
// placeholder survives the commit still holding it.
func (s *Store) ResolvePlaylistID(local, remote domain.PlaylistID) error {
	oldKey, newKey := local.String(), remote.String()

	err := s.db.Update(func(tx *bolt.Tx) error {
		// Re-key the playlist record.
		pb := tx.Bucket(bucketPlaylists)
		if v := pb.Get([]byte(oldKey)); v != nil {
			var p domain.Playlist
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			p.ID = remote
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := pb.Delete([]byte(oldKey)); err != nil {
				return err
			}
			if err := pb.Put([]byte(newKey), data); err != nil {
				return err
			}
		}

		// Song membership lists.
		sb := tx.Bucket(bucketSongs)
		if err := rewriteMembership(sb, oldKey, newKey, func(v []byte) (any, []string, error) {
			var song domain.Song
			if err := json.Unmarshal(v, &song); err != nil {
				return nil, nil, err
			}
			return &song, song.Playlists, nil
		}); err != nil {
			return err
		}

		// Blob membership lists.
		bb := tx.Bucket(bucketBlobs)
		if err := rewriteMembership(bb, oldKey, newKey, func(v []byte) (any, []string, error) {
			var blob domain.AudioBlob
			if err := json.Unmarshal(v, &blob); err != nil {
				return nil, nil, err
			}
			return &blob, blob.PlaylistIDs, nil
		}); err != nil {
			return err
		}

		// Settings: cached song list, server listing, favorites marker.
		stb := tx.Bucket(bucketSettings)
		oldSongsKey := []byte(domain.PlaylistSongsKey(local))
		if v := stb.Get(oldSongsKey); v != nil {
			data := make([]byte, len(v))
			copy(data, v)
			if err := stb.Delete(oldSongsKey); err != nil {
				return err
			}
			if err := stb.Put([]byte(domain.PlaylistSongsKey(remote)), data); err != nil {
				return err
			}
		}
		if v := stb.Get([]byte(domain.SettingServerPlaylists)); v != nil {
			var list []domain.PlaylistSummary
			if err := json.Unmarshal(v, &list); err != nil {
				return err
			}
			changed := false
			for i := range list {
				if list[i].ID == local {
					list[i].ID = remote
					list[i].Pending = false
					changed = true
				}
			}
			if changed {
				data, err := json.Marshal(list)
				if err != nil {
					return err
				}
				if err := stb.Put([]byte(domain.SettingServerPlaylists), data); err != nil {
					return err
				}
			}
		}
		if v := stb.Get([]byte(domain.SettingFavoritesPlaylistID)); v != nil {
			var fav domain.PlaylistID
			if err := json.Unmarshal(v, &fav); err != nil {
				return err
			}
			if fav == local {
				data, err := json.Marshal(remote)
				if err != nil {
					return err
				}
				if err := stb.Put([]byte(domain.SettingFavoritesPlaylistID), data); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.dropCache()
	return nil
}

// rewriteMembership swaps oldKey for newKey inside the membership list of
// every record in the bucket. decode returns the record and a view of its
// membership slice; the slice is mutated in place before re-marshaling.
func rewriteMembership(b *bolt.Bucket, oldKey, newKey string, decode func([]byte) (any, []string, error)) error {
	type update struct {
		key  []byte
		data []byte
	}
	var updates []update

	err := b.ForEach(func(k, v []byte) error {
		rec, members, err := decode(v)
		if err != nil {
			return err
		}
		changed := false
		for i, m := range members {
			if m == oldKey {
				members[i] = newKey
				changed = true
			}
		}
		if !changed {
			return nil
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		key := make([]byte, len(k))
		copy(key, k)
		updates = append(updates, update{key: key, data: data})
		return nil
	})
	if err != nil {
		return err
	}

	for _, u := range updates {
		if err := b.Put(u.key, u.data); err != nil {
			return err
		}
	}
	return nil
}
