package tokencache

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T, now time.Time) *Cache {
	t.Helper()
	c := NewWithDir(t.TempDir())
	c.now = func() time.Time { return now }
	return c
}

func TestGetAbsent(t *testing.T) {
	t.Parallel()

	c := testCache(t, time.Now())
	entry, err := c.Get("nobody")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := testCache(t, now)

	in := &Entry{
		ClientID:    "svc-reporter",
		AccessToken: "cached-token",
		TokenType:   "Bearer",
		Scope:       "openid profile",
		ExpiresAt:   now.Add(time.Hour),
	}
	require.NoError(t, c.Put(in))

	out, err := c.Get("svc-reporter")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "cached-token", out.AccessToken)
	assert.Equal(t, "svc-reporter", out.ClientID)
	assert.False(t, out.CachedAt.IsZero())
}

func TestPutValidates(t *testing.T) {
	t.Parallel()

	c := testCache(t, time.Now())
	assert.Error(t, c.Put(&Entry{AccessToken: "x"}))
	assert.Error(t, c.Put(&Entry{ClientID: "svc"}))
}

func TestPutReplaces(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := testCache(t, now)

	require.NoError(t, c.Put(&Entry{ClientID: "svc", AccessToken: "old", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, c.Put(&Entry{ClientID: "svc", AccessToken: "new", ExpiresAt: now.Add(time.Hour)}))

	out, err := c.Get("svc")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "new", out.AccessToken)

	entries, err := c.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGetExpiredRemovesEntry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := testCache(t, now)

	require.NoError(t, c.Put(&Entry{
		ClientID:    "svc",
		AccessToken: "stale",
		ExpiresAt:   now.Add(-time.Minute),
	}))

	entry, err := c.Get("svc")
	require.NoError(t, err)
	assert.Nil(t, entry)

	// The stale file is gone, not just skipped.
	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetMalformedTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	c := testCache(t, time.Now())
	require.NoError(t, os.MkdirAll(c.dir, 0700))
	require.NoError(t, os.WriteFile(c.entryPath("svc"), []byte("{not json"), 0600))

	entry, err := c.Get("svc")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestEntryFilePermissions(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("file mode assertions are not meaningful on windows")
	}

	now := time.Now()
	c := testCache(t, now)
	require.NoError(t, c.Put(&Entry{ClientID: "svc", AccessToken: "tok", ExpiresAt: now.Add(time.Hour)}))

	info, err := os.Stat(c.entryPath("svc"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDeleteIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := testCache(t, now)
	require.NoError(t, c.Put(&Entry{ClientID: "svc", AccessToken: "tok", ExpiresAt: now.Add(time.Hour)}))

	require.NoError(t, c.Delete("svc"))
	require.NoError(t, c.Delete("svc"))

	entry, err := c.Get("svc")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestClearAndList(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := testCache(t, now)
	require.NoError(t, c.Put(&Entry{ClientID: "svc-b", AccessToken: "b", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, c.Put(&Entry{ClientID: "svc-a", AccessToken: "a", ExpiresAt: now.Add(-time.Hour)}))

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Sorted by client ID, expired entries still listed.
	assert.Equal(t, "svc-a", entries[0].ClientID)
	assert.Equal(t, "svc-b", entries[1].ClientID)
	assert.True(t, entries[0].Expired(now))

	require.NoError(t, c.Clear())
	entries, err = c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Clearing an empty (or missing) cache is fine.
	require.NoError(t, c.Clear())
	require.NoError(t, NewWithDir(filepath.Join(t.TempDir(), "missing")).Clear())
}
