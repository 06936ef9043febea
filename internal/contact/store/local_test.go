package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func newTestLocal(t *testing.T, path string) *LocalStore {
	t.Helper()
	s, err := NewLocal(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLocalStoreContract(t *testing.T) {
	cs := &ContractSuite{}
	cs.newStore = func() contactStore {
		return newTestLocal(cs.T(), filepath.Join(cs.T().TempDir(), "contacts.db"))
	}
	suite.Run(t, cs)
}

func TestLocalStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "contacts.db")

	first, err := NewLocal(path)
	require.NoError(t, err)
	created, err := first.Upsert(ctx, draft("Jane", "vip"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newTestLocal(t, path)
	found, err := second.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *found)
}

func TestLocalStore_StoresWholeCollectionUnderOneKey(t *testing.T) {
	ctx := context.Background()
	s := newTestLocal(t, filepath.Join(t.TempDir(), "contacts.db"))
	_, err := s.Upsert(ctx, draft("A"))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, draft("B"))
	require.NoError(t, err)

	var keys int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM local_storage`).Scan(&keys))
	assert.Equal(t, 1, keys)

	var raw string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, LocalStorageKey).Scan(&raw))
	assert.Contains(t, raw, `"name":"A"`)
	assert.Contains(t, raw, `"name":"B"`)
}

func TestLocalStore_UnreadableDocumentLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestLocal(t, filepath.Join(t.TempDir(), "contacts.db"))
	_, err := s.db.ExecContext(ctx, `INSERT INTO local_storage(key, value) VALUES(?, ?)`, LocalStorageKey, "{not json")
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// the next write replaces the corrupt document
	_, err = s.Upsert(ctx, draft("Fresh"))
	require.NoError(t, err)
	all, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLocalStore_AcceptsMongoStyleIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestLocal(t, filepath.Join(t.TempDir(), "contacts.db"))
	doc := `[{"_id":"65a1f0c2e4b0a1b2c3d4e5f6","name":"Legacy","email":"l@x.io"}]`
	_, err := s.db.ExecContext(ctx, `INSERT INTO local_storage(key, value) VALUES(?, ?)`, LocalStorageKey, doc)
	require.NoError(t, err)

	found, err := s.FindByID(ctx, "65a1f0c2e4b0a1b2c3d4e5f6")
	require.NoError(t, err)
	assert.Equal(t, "Legacy", found.Name)
	assert.Equal(t, []string{}, found.Tags)
}
