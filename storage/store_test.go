package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felix-wang-0307/NaturalDB/ident"
	"github.com/felix-wang-0307/NaturalDB/locker"
	"github.com/felix-wang-0307/NaturalDB/record"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil, nil, locker.NewManager(5*time.Second))
	require.NoError(t, err)
	return s
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateUser(ctx, "felix", "Felix Wang"))

	ok, err := s.UserExists(ctx, "felix")
	require.NoError(t, err)
	assert.True(t, ok)

	err = s.CreateUser(ctx, "felix", "Felix Wang")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"felix"}, users)

	require.NoError(t, s.DeleteUser(ctx, "felix"))
	assert.ErrorIs(t, s.DeleteUser(ctx, "felix"), ErrNotFound)

	ok, err = s.UserExists(ctx, "felix")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDatabaseLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateUser(ctx, "felix", ""))

	err := s.CreateDatabase(ctx, "nobody", "shop", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	settings := record.Document{"region": record.String("eu")}
	require.NoError(t, s.CreateDatabase(ctx, "felix", "shop", settings))
	assert.ErrorIs(t, s.CreateDatabase(ctx, "felix", "shop", nil), ErrAlreadyExists)

	dbs, err := s.ListDatabases(ctx, "felix")
	require.NoError(t, err)
	assert.Equal(t, []string{"shop"}, dbs)

	db, err := s.Database("felix", "shop")
	require.NoError(t, err)
	meta, err := db.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shop", meta.Name)
	assert.Empty(t, meta.Tables)
	v, ok := meta.Settings.Lookup("region")
	require.True(t, ok)
	assert.True(t, v.Equal(record.String("eu")))

	require.NoError(t, s.DeleteDatabase(ctx, "felix", "shop"))
	assert.ErrorIs(t, s.DeleteDatabase(ctx, "felix", "shop"), ErrNotFound)

	dbs, err = s.ListDatabases(ctx, "felix")
	require.NoError(t, err)
	assert.Empty(t, dbs)
}

func TestTableLifecycleKeepsMetadataConsistent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateUser(ctx, "felix", ""))
	require.NoError(t, s.CreateDatabase(ctx, "felix", "shop", nil))

	db, err := s.Database("felix", "shop")
	require.NoError(t, err)

	require.NoError(t, db.CreateTable(ctx, "products", TableMetadata{Keys: []string{"id"}}))
	require.NoError(t, db.CreateTable(ctx, "orders", TableMetadata{}))
	assert.ErrorIs(t, db.CreateTable(ctx, "products", TableMetadata{}), ErrAlreadyExists)

	tables, err := db.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "products"}, tables)

	meta, err := db.TableMetadata(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, "products", meta.Name)
	assert.Equal(t, []string{"id"}, meta.Keys)

	require.NoError(t, db.DeleteTable(ctx, "orders"))
	assert.ErrorIs(t, db.DeleteTable(ctx, "orders"), ErrNotFound)

	tables, err = db.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"products"}, tables)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateUser(ctx, "felix", ""))
	require.NoError(t, s.CreateDatabase(ctx, "felix", "shop", nil))
	db, err := s.Database("felix", "shop")
	require.NoError(t, err)
	require.NoError(t, db.CreateTable(ctx, "products", TableMetadata{}))
	require.NoError(t, db.SaveRecord(ctx, "products", record.Record{
		ID:   "p1",
		Data: record.Document{"name": record.String("X")},
	}))

	require.NoError(t, s.DeleteUser(ctx, "felix"))

	_, err = db.LoadAllRecords(ctx, "products")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPathTraversalRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateUser(ctx, "felix", ""))

	err := s.CreateDatabase(ctx, "felix", "../../etc", nil)
	assert.ErrorIs(t, err, ident.ErrInvalidIdentifier)

	// Nothing may leak outside the base directory.
	outside := filepath.Join(s.base, "..", "etc")
	_, statErr := os.Stat(outside)
	assert.True(t, os.IsNotExist(statErr))
}

// The literal name "metadata.json" sanitizes to itself, so accepting it
// would aim table and database operations at the parent's own metadata
// file. Every layer must reject it and leave the metadata untouched.
func TestMetadataFileNameRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateUser(ctx, "felix", ""))
	require.NoError(t, s.CreateDatabase(ctx, "felix", "shop", nil))
	db, err := s.Database("felix", "shop")
	require.NoError(t, err)
	require.NoError(t, db.CreateTable(ctx, "products", TableMetadata{}))

	assert.ErrorIs(t, db.DeleteTable(ctx, "metadata.json"), ident.ErrInvalidIdentifier)
	assert.ErrorIs(t, db.CreateTable(ctx, "metadata.json", TableMetadata{}), ident.ErrInvalidIdentifier)
	assert.ErrorIs(t, s.DeleteDatabase(ctx, "felix", "metadata.json"), ident.ErrInvalidIdentifier)
	assert.ErrorIs(t, s.CreateDatabase(ctx, "felix", "metadata.json", nil), ident.ErrInvalidIdentifier)
	assert.ErrorIs(t, s.DeleteUser(ctx, "metadata.json"), ident.ErrInvalidIdentifier)

	tables, err := db.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"products"}, tables)

	dbs, err := s.ListDatabases(ctx, "felix")
	require.NoError(t, err)
	assert.Equal(t, []string{"shop"}, dbs)
}

func TestSanitizedNamesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateUser(ctx, "team rocket", ""))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"team rocket"}, users)

	// The directory on disk is the escaped token, not the raw name.
	_, err = os.Stat(filepath.Join(s.base, "team%20rocket"))
	assert.NoError(t, err)
}
