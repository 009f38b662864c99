package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// localIDPrefix is the wire form of placeholder identities. The server's
// sync commit resolves tokens of this shape to real playlist IDs.
const localIDPrefix = "pending-"

// PlaylistID is a tagged identity: either a server-assigned numeric ID or a
// client-generated placeholder token for a playlist created while offline.
// The zero value is neither local nor remote and marshals as null.
type PlaylistID struct {
	remote int64
	local  string
}

// RemotePlaylistID wraps a server-assigned numeric identity.
func RemotePlaylistID(id int64) PlaylistID {
	return PlaylistID{remote: id}
}

// LocalPlaylistID wraps an existing placeholder token.
func LocalPlaylistID(token string) PlaylistID {
	return PlaylistID{local: token}
}

// NewLocalPlaylistID mints a placeholder identity from the given instant.
func NewLocalPlaylistID(now time.Time) PlaylistID {
	return PlaylistID{local: localIDPrefix + strconv.FormatInt(now.UnixMilli(), 10)}
}

// ParsePlaylistID interprets a wire identity: "pending-*" tokens become
// local, anything numeric becomes remote.
func ParsePlaylistID(s string) (PlaylistID, error) {
	if strings.HasPrefix(s, localIDPrefix) {
		return PlaylistID{local: s}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return PlaylistID{}, fmt.Errorf("invalid playlist id %q", s)
	}
	return PlaylistID{remote: n}, nil
}

// IsLocal reports whether this is a not-yet-synced placeholder.
func (id PlaylistID) IsLocal() bool { return id.local != "" }

// IsZero reports whether the identity is unset.
func (id PlaylistID) IsZero() bool { return id.local == "" && id.remote == 0 }

// Remote returns the numeric server identity; zero for placeholders.
func (id PlaylistID) Remote() int64 { return id.remote }

// Token returns the placeholder token; empty for remote identities.
func (id PlaylistID) Token() string { return id.local }

// String renders the wire form: the token for placeholders, the decimal
// number otherwise.
func (id PlaylistID) String() string {
	if id.local != "" {
		return id.local
	}
	return strconv.FormatInt(id.remote, 10)
}

// Value renders the form sent in RPC payloads: a bare number for remote
// identities (the server compares numerically) and the token string for
// placeholders.
func (id PlaylistID) Value() any {
	if id.local != "" {
		return id.local
	}
	return id.remote
}

// MarshalJSON implements json.Marshaler.
func (id PlaylistID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(id.Value())
}

// UnmarshalJSON implements json.Unmarshaler, accepting numbers, numeric
// strings, and placeholder tokens.
func (id *PlaylistID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*id = PlaylistID{}
		return nil
	case float64:
		*id = PlaylistID{remote: int64(v)}
		return nil
	case string:
		parsed, err := ParsePlaylistID(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	default:
		return fmt.Errorf("invalid playlist id %v", raw)
	}
}
