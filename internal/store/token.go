package store

import (
	"time"

	"github.com/fxamacker/cbor/v2"
)

// StoredToken is the record persisted per user.  Integer map keys keep the encoding small.
type StoredToken struct {
	AccessToken string `cbor:"1,keyasint"`
	// RefreshToken is empty when the token cannot be renewed
	RefreshToken string `cbor:"2,keyasint,omitempty"`
	// ExpiresAt is an absolute unix timestamp in seconds.  Zero means the token does not expire.
	ExpiresAt int64 `cbor:"3,keyasint,omitempty"`
	// UserID is the id the record was saved under.  Records written before it existed leave it empty.
	UserID string `cbor:"4,keyasint,omitempty"`
}

// HasRefreshToken reports whether the token can be renewed without user interaction
func (t *StoredToken) HasRefreshToken() bool {
	return t.RefreshToken != ""
}

// Expires reports whether the token carries an expiry at all
func (t *StoredToken) Expires() bool {
	return t.ExpiresAt != 0
}

// Expiry returns the expiry as a time, or the zero time for non-expiring tokens
func (t *StoredToken) Expiry() time.Time {
	if !t.Expires() {
		return time.Time{}
	}
	return time.Unix(t.ExpiresAt, 0)
}

// Remaining returns the lifetime left at now.  Non-expiring tokens report zero, check Expires first.
func (t *StoredToken) Remaining(now time.Time) time.Duration {
	if !t.Expires() {
		return 0
	}
	return time.Unix(t.ExpiresAt, 0).Sub(now)
}

func (t *StoredToken) expired(now time.Time) bool {
	return t.Expires() && now.Unix() >= t.ExpiresAt
}

func encodeToken(t *StoredToken) ([]byte, error) {
	return cbor.Marshal(t)
}

func decodeToken(data []byte) (*StoredToken, error) {
	var t StoredToken
	if err := cbor.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t.AccessToken == "" {
		return nil, errEmptyAccessToken
	}
	return &t, nil
}
