package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/felix-wang-0307/NaturalDB/ident"
	"github.com/felix-wang-0307/NaturalDB/record"
)

// Database is a handle scoped to one database of one user. It manages the
// database's tables and metadata under the database lock.
type Database struct {
	store   *Store
	userID  string
	name    string
	userTok string
	dbTok   string
}

// Name returns the raw database name.
func (d *Database) Name() string { return d.name }

// UserID returns the raw owning user id.
func (d *Database) UserID() string { return d.userID }

func (d *Database) dir() string {
	return filepath.Join(d.store.base, d.userTok, d.dbTok)
}

func (d *Database) tableDir(tableTok string) string {
	return filepath.Join(d.dir(), tableTok)
}

// lockKey is the canonical lock resource for this database.
func (d *Database) lockKey() string {
	return d.userTok + "/" + d.dbTok
}

func (d *Database) tableLockKey(tableTok string) string {
	return d.lockKey() + "/" + tableTok
}

// requireExists reports ErrNotFound when the database directory is absent.
func (d *Database) requireExists() error {
	ok, err := d.store.exists(d.dir())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: database %q", ErrNotFound, d.name)
	}
	return nil
}

// Exists is the explicit presence test for the database.
func (d *Database) Exists(ctx context.Context) (bool, error) {
	release, err := d.store.locks.AcquireRead(ctx, d.lockKey())
	if err != nil {
		return false, err
	}
	defer release()
	return d.store.exists(d.dir())
}

// Metadata reads the database metadata.
func (d *Database) Metadata(ctx context.Context) (DatabaseMetadata, error) {
	release, err := d.store.locks.AcquireRead(ctx, d.lockKey())
	if err != nil {
		return DatabaseMetadata{}, err
	}
	defer release()

	var meta DatabaseMetadata
	if err := d.store.readMetadataFile(filepath.Join(d.dir(), metadataFileName), &meta); err != nil {
		return DatabaseMetadata{}, err
	}
	return meta, nil
}

// SetSettings replaces the database settings blob.
func (d *Database) SetSettings(ctx context.Context, settings record.Document) error {
	release, err := d.store.locks.AcquireWrite(ctx, d.lockKey())
	if err != nil {
		return err
	}
	defer release()

	metaPath := filepath.Join(d.dir(), metadataFileName)
	var meta DatabaseMetadata
	if err := d.store.readMetadataFile(metaPath, &meta); err != nil {
		return err
	}
	meta.Settings = settings.Clone()
	return d.store.writeMetadataFile(metaPath, meta)
}

// CreateTable creates a table directory and its metadata, and records the
// table in the database metadata under the same write lock, so the table
// list always matches the persisted child set.
func (d *Database) CreateTable(ctx context.Context, name string, meta TableMetadata) error {
	tableTok, err := ident.Sanitize(name)
	if err != nil {
		return err
	}

	release, err := d.store.locks.AcquireWrite(ctx, d.lockKey())
	if err != nil {
		return err
	}
	defer release()

	if err := d.requireExists(); err != nil {
		return err
	}

	dir := d.tableDir(tableTok)
	ok, err := d.store.exists(dir)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: table %q", ErrAlreadyExists, name)
	}

	if err := d.store.fs.MkdirAll(dir, dirPerm); err != nil {
		return err
	}
	meta.Name = name
	if err := d.store.writeMetadataFile(filepath.Join(dir, metadataFileName), meta); err != nil {
		return err
	}

	metaPath := filepath.Join(d.dir(), metadataFileName)
	var dbMeta DatabaseMetadata
	if err := d.store.readMetadataFile(metaPath, &dbMeta); err != nil {
		return err
	}
	if !contains(dbMeta.Tables, name) {
		dbMeta.Tables = append(dbMeta.Tables, name)
		sort.Strings(dbMeta.Tables)
	}
	return d.store.writeMetadataFile(metaPath, dbMeta)
}

// DeleteTable removes a table subtree, cascading to its records.
//
// Lock order is database then table; record operations only take the
// table lock, so a concurrent record write completes before the subtree
// is removed.
func (d *Database) DeleteTable(ctx context.Context, name string) error {
	tableTok, err := ident.Sanitize(name)
	if err != nil {
		return err
	}

	release, err := d.store.locks.AcquireWrite(ctx, d.lockKey())
	if err != nil {
		return err
	}
	defer release()

	tblRelease, err := d.store.locks.AcquireWrite(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return err
	}
	defer tblRelease()

	dir := d.tableDir(tableTok)
	ok, err := d.store.existsDir(dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: table %q", ErrNotFound, name)
	}
	if err := d.store.fs.RemoveAll(dir); err != nil {
		return err
	}

	metaPath := filepath.Join(d.dir(), metadataFileName)
	var dbMeta DatabaseMetadata
	if err := d.store.readMetadataFile(metaPath, &dbMeta); err != nil {
		return err
	}
	dbMeta.Tables = remove(dbMeta.Tables, name)
	return d.store.writeMetadataFile(metaPath, dbMeta)
}

// ListTables returns the table names recorded in the database metadata.
func (d *Database) ListTables(ctx context.Context) ([]string, error) {
	meta, err := d.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if meta.Tables == nil {
		return []string{}, nil
	}
	return meta.Tables, nil
}

// TableExists is the explicit presence test for a table. A table with
// zero records exists; use this, never a length check on LoadAllRecords.
func (d *Database) TableExists(ctx context.Context, name string) (bool, error) {
	tableTok, err := ident.Sanitize(name)
	if err != nil {
		return false, err
	}
	release, err := d.store.locks.AcquireRead(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return false, err
	}
	defer release()
	return d.store.exists(d.tableDir(tableTok))
}

// TableMetadata reads a table's metadata (declared keys and advisory
// indexes).
func (d *Database) TableMetadata(ctx context.Context, name string) (TableMetadata, error) {
	tableTok, err := ident.Sanitize(name)
	if err != nil {
		return TableMetadata{}, err
	}
	release, err := d.store.locks.AcquireRead(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return TableMetadata{}, err
	}
	defer release()

	var meta TableMetadata
	if err := d.store.readMetadataFile(filepath.Join(d.tableDir(tableTok), metadataFileName), &meta); err != nil {
		return TableMetadata{}, err
	}
	return meta, nil
}

// SetTableMetadata replaces a table's metadata.
func (d *Database) SetTableMetadata(ctx context.Context, name string, meta TableMetadata) error {
	tableTok, err := ident.Sanitize(name)
	if err != nil {
		return err
	}
	release, err := d.store.locks.AcquireWrite(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return err
	}
	defer release()

	dir := d.tableDir(tableTok)
	ok, err := d.store.exists(dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: table %q", ErrNotFound, name)
	}
	meta.Name = name
	return d.store.writeMetadataFile(filepath.Join(dir, metadataFileName), meta)
}
