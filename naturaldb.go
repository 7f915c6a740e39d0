package naturaldb

import (
	"context"

	"github.com/felix-wang-0307/NaturalDB/backup"
	"github.com/felix-wang-0307/NaturalDB/blobstore"
	"github.com/felix-wang-0307/NaturalDB/locker"
	"github.com/felix-wang-0307/NaturalDB/record"
	"github.com/felix-wang-0307/NaturalDB/storage"
)

// DB is a handle to one store root. It manages users and databases and
// hands out per-database query engines. All methods are safe for
// concurrent use; one DB must own a store root exclusively, the locking
// is in-process.
type DB struct {
	store *storage.Store
	opts  options
}

// Open opens (or initializes) a store rooted at basePath.
func Open(basePath string, optFns ...Option) (*DB, error) {
	o := applyOptions(optFns)
	locks := locker.NewManager(o.lockTimeout)
	store, err := storage.New(basePath, o.fs, o.codec, locks)
	if err != nil {
		return nil, translateError(err)
	}
	o.logger.Info("store opened", "path", basePath)
	return &DB{store: store, opts: o}, nil
}

// CreateUser creates a user namespace.
func (db *DB) CreateUser(ctx context.Context, userID string) error {
	return translateError(db.store.CreateUser(ctx, userID, ""))
}

// CreateUserWithName creates a user namespace with a display name.
func (db *DB) CreateUserWithName(ctx context.Context, userID, displayName string) error {
	return translateError(db.store.CreateUser(ctx, userID, displayName))
}

// DeleteUser removes a user and every database it owns.
func (db *DB) DeleteUser(ctx context.Context, userID string) error {
	return translateError(db.store.DeleteUser(ctx, userID))
}

// UserExists reports whether a user namespace exists.
func (db *DB) UserExists(ctx context.Context, userID string) (bool, error) {
	ok, err := db.store.UserExists(ctx, userID)
	return ok, translateError(err)
}

// ListUsers returns all user identifiers.
func (db *DB) ListUsers(ctx context.Context) ([]string, error) {
	users, err := db.store.ListUsers(ctx)
	return users, translateError(err)
}

// CreateDatabase creates a database under a user, with optional
// settings.
func (db *DB) CreateDatabase(ctx context.Context, userID, name string, settings record.Document) error {
	return translateError(db.store.CreateDatabase(ctx, userID, name, settings))
}

// DeleteDatabase removes a database and everything in it.
func (db *DB) DeleteDatabase(ctx context.Context, userID, name string) error {
	return translateError(db.store.DeleteDatabase(ctx, userID, name))
}

// ListDatabases returns the database names owned by a user.
func (db *DB) ListDatabases(ctx context.Context, userID string) ([]string, error) {
	dbs, err := db.store.ListDatabases(ctx, userID)
	return dbs, translateError(err)
}

// Engine returns the query engine for one database. The handle is
// cheap; the first operation on a missing database reports ErrNotFound.
func (db *DB) Engine(userID, database string) (*Engine, error) {
	d, err := db.store.Database(userID, database)
	if err != nil {
		return nil, translateError(err)
	}
	return &Engine{
		db:      d,
		opts:    &db.opts,
		logger:  db.opts.logger.WithDatabase(userID, database),
		metrics: db.opts.metricsCollector,
	}, nil
}

// BackupManager returns a backup manager that archives databases of
// this store into the given blob store, throttled by the configured
// resource limits.
func (db *DB) BackupManager(blobs blobstore.Store) *backup.Manager {
	return backup.NewManager(db.store, blobs, db.opts.resources).WithClock(db.opts.clock)
}
