// Package tokencache stores non-interactive (service account) tokens on
// disk, keyed by client identifier. It is independent of the login session:
// entries carry their own absolute expiry and are dropped once stale.
package tokencache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Entry is one cached token. Raw keeps the provider's response body for
// introspection with the cache commands.
type Entry struct {
	ClientID    string          `json:"client_id"`
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type,omitempty"`
	Scope       string          `json:"scope,omitempty"`
	ExpiresAt   time.Time       `json:"expires_at"`
	CachedAt    time.Time       `json:"cached_at"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// Cache is a directory of token entries, one file per client ID.
type Cache struct {
	dir string
	now func() time.Time
}

// New returns a cache rooted at the user cache directory.
func New() *Cache {
	return NewWithDir(filepath.Join(xdg.CacheHome, "kauth", "token-cache"))
}

// NewWithDir returns a cache rooted at dir. Used in tests.
func NewWithDir(dir string) *Cache {
	return &Cache{dir: dir, now: time.Now}
}

// entryPath hashes the client ID so arbitrary identifiers map to safe,
// stable file names.
func (c *Cache) entryPath(clientID string) string {
	sum := sha256.Sum256([]byte(clientID))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Get returns the cached entry for the client, or nil when there is none.
// An expired entry is removed and reported as absent; a malformed file is
// treated the same way rather than failing the caller.
func (c *Cache) Get(clientID string) (*Entry, error) {
	path := c.entryPath(clientID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached token: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.AccessToken == "" {
		return nil, nil
	}
	if entry.Expired(c.now()) {
		_ = os.Remove(path)
		return nil, nil
	}
	return &entry, nil
}

// Put stores the entry, replacing any previous one for the same client.
func (c *Cache) Put(entry *Entry) error {
	if entry.ClientID == "" {
		return fmt.Errorf("cache entry has no client ID")
	}
	if entry.AccessToken == "" {
		return fmt.Errorf("cache entry has no access token")
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = c.now()
	}

	if err := os.MkdirAll(c.dir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache entry: %w", err)
	}

	// Write-to-temp-then-rename so a crash cannot leave a torn file.
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restrict cache file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.entryPath(entry.ClientID)); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for the client. Deleting an absent entry is not
// an error.
func (c *Cache) Delete(clientID string) error {
	err := os.Remove(c.entryPath(clientID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, de.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
	}
	return nil
}

// List returns every readable entry sorted by client ID, expired ones
// included so maintenance commands can show staleness.
func (c *Cache) List() ([]*Entry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var out []*Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, de.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil || entry.ClientID == "" {
			continue
		}
		out = append(out, &entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}
