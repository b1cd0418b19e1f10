package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() *AuthContext {
	return &AuthContext{
		Realm:            "engineering",
		IssuerURL:        "https://sso.example.com/realms/engineering",
		AccessToken:      "at-123",
		RefreshToken:     "rt-456",
		IDToken:          "id-789",
		TokenType:        "Bearer",
		ExpiresIn:        300,
		RefreshExpiresIn: 1800,
		Scope:            "openid profile email",
		IssuedAt:         time.Now().UTC().Truncate(time.Second),
	}
}

func tempFileStore(t *testing.T) *FileStore {
	t.Helper()

	s, err := NewFileStore(filepath.Join(t.TempDir(), "context.json"))
	require.NoError(t, err)
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := tempFileStore(t)
	want := testContext()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, got)
}

func TestFileStoreMissingFileMeansNoContext(t *testing.T) {
	t.Parallel()

	s := tempFileStore(t)
	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStoreMalformedFileMeansNoContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "context.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStoreEmptyFileMeansNoContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "context.json")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStorePermissions(t *testing.T) {
	t.Parallel()

	s := tempFileStore(t)
	require.NoError(t, s.Save(testContext()))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreSaveReplacesPrevious(t *testing.T) {
	t.Parallel()

	s := tempFileStore(t)
	first := testContext()
	require.NoError(t, s.Save(first))

	second := testContext()
	second.Realm = "ops"
	second.AccessToken = "at-other"
	second.RefreshToken = ""
	require.NoError(t, s.Save(second))

	got, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ops", got.Realm)
	assert.Empty(t, got.RefreshToken)
}

func TestFileStoreClearIsIdempotent(t *testing.T) {
	t.Parallel()

	s := tempFileStore(t)
	require.NoError(t, s.Save(testContext()))

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}
