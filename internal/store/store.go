// Package store keeps OAuth tokens per user in an embedded on-disk key-value store.
//
// Every write, and the directory entry pointing at it, is synced to disk before Save returns.
// Reads are lenient: a record that is missing, cannot be decoded or has expired is reported as
// "no token" so the caller falls back to the interactive authorization flow.
package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/PizzaHomicide/gcal/internal/log"
	"github.com/jonboulle/clockwork"
	"github.com/peterbourgon/diskv/v3"
)

const (
	// DefaultPath is where the store lives, relative to the working directory
	DefaultPath = "token_store"

	// DefaultRefreshThreshold is the remaining lifetime below which a token is refreshed on read
	DefaultRefreshThreshold = 300 * time.Second

	// DefaultUserID is the key used by the CLI when no user is given
	DefaultUserID = "default_user"

	keyPrefix = "user-"

	// Ids longer than this are stored under a hashed key to stay within file name limits
	maxPlainUserIDLen = 100
	hashedPrefixLen   = 32
	hashSeparator     = "."
)

var errEmptyAccessToken = errors.New("record has no access token")

// Config configures a TokenStore
type Config struct {
	// Path is the store directory.  Defaults to DefaultPath.
	Path string
	// RefreshThreshold defaults to DefaultRefreshThreshold
	RefreshThreshold time.Duration
	// Clock defaults to the real clock
	Clock clockwork.Clock
}

// TokenStore is a durable per-user token cache with expiry-aware reads
type TokenStore struct {
	dv               *diskv.Diskv
	path             string
	clock            clockwork.Clock
	refreshThreshold time.Duration

	// refreshMu serialises EnsureValid so one process never refreshes the same token twice
	refreshMu sync.Mutex
}

// Open opens (creating if needed) the store at cfg.Path
func Open(cfg Config) (*TokenStore, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = DefaultRefreshThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	if err := os.MkdirAll(cfg.Path, 0700); err != nil {
		return nil, &domain.StoreError{Kind: domain.StoreIO, Err: fmt.Errorf("create store dir: %w", err)}
	}

	// All records live directly in the base dir.
	flatTransform := func(s string) []string { return []string{} }

	dv := diskv.New(diskv.Options{
		BasePath:  cfg.Path,
		Transform: flatTransform,
		// No read cache: another invocation may have rewritten a record since we last read it.
		CacheSizeMax: 0,
		PathPerm:     0700,
		FilePerm:     0600,
		// Writes land in a temp file first and are renamed into place.
		TempDir: filepath.Clean(cfg.Path) + ".tmp",
	})

	log.Debug("Opened token store", "path", cfg.Path, "refresh_threshold", cfg.RefreshThreshold)

	return &TokenStore{
		dv:               dv,
		path:             cfg.Path,
		clock:            cfg.Clock,
		refreshThreshold: cfg.RefreshThreshold,
	}, nil
}

// Path returns the directory backing the store
func (s *TokenStore) Path() string {
	return s.path
}

// RefreshThreshold returns the freshness threshold used by EnsureValid
func (s *TokenStore) RefreshThreshold() time.Duration {
	return s.refreshThreshold
}

// Save stores token for userID, replacing any earlier token.  The expiry is computed from the
// current time and token.ExpiresIn.  Save only returns once the record is synced to disk.
func (s *TokenStore) Save(userID string, token *domain.AuthToken) error {
	_, err := s.save(userID, token)
	return err
}

func (s *TokenStore) save(userID string, token *domain.AuthToken) (*StoredToken, error) {
	stored := &StoredToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		UserID:       userID,
	}
	if !token.NoExpiry {
		stored.ExpiresAt = s.clock.Now().Add(token.ExpiresIn).Unix()
	}

	data, err := encodeToken(stored)
	if err != nil {
		return nil, &domain.StoreError{Kind: domain.StoreSerialize, UserID: userID, Err: err}
	}

	if err := s.dv.WriteStream(userKey(userID), bytes.NewReader(data), true); err != nil {
		log.Error("Failed to persist token", "user", userID, "error", err)
		return nil, &domain.StoreError{Kind: domain.StoreIO, UserID: userID, Err: err}
	}
	if err := syncDir(s.path); err != nil {
		log.Error("Failed to sync token store directory", "path", s.path, "error", err)
		return nil, &domain.StoreError{Kind: domain.StoreIO, UserID: userID, Err: fmt.Errorf("sync store dir: %w", err)}
	}

	log.Info("Token saved",
		"user", userID,
		"expires_at", stored.ExpiresAt,
		"has_refresh_token", stored.HasRefreshToken(),
	)
	return stored, nil
}

// Load returns the token stored for userID.  ok is false when there is no record, the record
// is corrupt, or the token has expired.  Expired and corrupt records stay on disk until overwritten.
func (s *TokenStore) Load(userID string) (token *StoredToken, ok bool) {
	key := userKey(userID)
	if !s.dv.Has(key) {
		log.Debug("No token stored", "user", userID)
		return nil, false
	}

	data, err := s.dv.Read(key)
	if err != nil {
		log.Warn("Failed to read stored token", "user", userID, "error", err)
		return nil, false
	}

	token, err = decodeToken(data)
	if err != nil {
		log.Debug("Discarding undecodable token record", "user", userID, "error", err)
		return nil, false
	}
	if token.UserID != "" && token.UserID != userID {
		log.Warn("Stored token belongs to a different user", "user", userID, "stored_user", token.UserID)
		return nil, false
	}

	if token.expired(s.clock.Now()) {
		log.Debug("Stored token has expired", "user", userID, "expires_at", token.ExpiresAt)
		return nil, false
	}

	return token, true
}

// EnsureValid returns a usable token for userID.  A token with less than the refresh threshold
// left is renewed through refresher and persisted before it is returned.  When no token can be
// loaded the error matches domain.ErrTokenNotFound.  Refresh failures are returned as-is and the
// stale token is not used as a fallback.
func (s *TokenStore) EnsureValid(ctx context.Context, userID string, refresher domain.TokenRefresher) (*StoredToken, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	token, ok := s.Load(userID)
	if !ok {
		return nil, &domain.StoreError{Kind: domain.StoreNotFound, UserID: userID, Err: errors.New("no token found")}
	}

	if !token.Expires() {
		return token, nil
	}

	remaining := token.Remaining(s.clock.Now())
	if remaining >= s.refreshThreshold {
		return token, nil
	}

	if !token.HasRefreshToken() {
		log.Warn("Token is close to expiry and cannot be refreshed", "user", userID, "remaining", remaining)
		return token, nil
	}

	log.Info("Refreshing token", "user", userID, "remaining", remaining)
	refreshed, err := refresher.Refresh(ctx, token.RefreshToken)
	if err != nil {
		log.Warn("Token refresh failed", "user", userID, "error", err)
		return nil, fmt.Errorf("refresh token for %q: %w", userID, err)
	}

	return s.save(userID, refreshed)
}

// Delete removes the token stored for userID.  Deleting a missing token is not an error.
func (s *TokenStore) Delete(userID string) error {
	key := userKey(userID)
	if !s.dv.Has(key) {
		return nil
	}
	if err := s.dv.Erase(key); err != nil {
		return &domain.StoreError{Kind: domain.StoreIO, UserID: userID, Err: err}
	}
	log.Info("Token deleted", "user", userID)
	return nil
}

// Users lists the user ids that have a record, whether or not it is still usable
func (s *TokenStore) Users() []string {
	var users []string
	for key := range s.dv.KeysPrefix(keyPrefix, nil) {
		userID, err := s.userFromKey(key)
		if err != nil {
			log.Trace("Skipping unrecognised key in token store", "key", key, "error", err)
			continue
		}
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// userKey hex encodes the user id so any string is a safe file name.  Long ids keep a hex
// prefix and get a sha256 suffix, and their id is only recoverable from the record itself.
func userKey(userID string) string {
	if len(userID) <= maxPlainUserIDLen {
		return keyPrefix + hex.EncodeToString([]byte(userID))
	}
	sum := sha256.Sum256([]byte(userID))
	return keyPrefix + hex.EncodeToString([]byte(userID[:hashedPrefixLen])) + hashSeparator + hex.EncodeToString(sum[:])
}

func (s *TokenStore) userFromKey(key string) (string, error) {
	encoded := strings.TrimPrefix(key, keyPrefix)
	if !strings.Contains(encoded, hashSeparator) {
		b, err := hex.DecodeString(encoded)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	data, err := s.dv.Read(key)
	if err != nil {
		return "", err
	}
	token, err := decodeToken(data)
	if err != nil {
		return "", err
	}
	if token.UserID == "" || userKey(token.UserID) != key {
		return "", errors.New("record does not name the user it belongs to")
	}
	return token.UserID, nil
}

// syncDir flushes dir so a rename into it survives a crash.  Windows cannot sync directories.
func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
