package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/felix-wang-0307/NaturalDB/codec"
	"github.com/felix-wang-0307/NaturalDB/ident"
	"github.com/felix-wang-0307/NaturalDB/internal/fs"
	"github.com/felix-wang-0307/NaturalDB/locker"
	"github.com/felix-wang-0307/NaturalDB/record"
)

// Store is the storage engine: it owns the base directory and performs
// all durable mutations of the entity tree.
//
// The lock manager is injected at construction; Store never creates its
// own process-wide state.
type Store struct {
	base  string
	fs    fs.FileSystem
	codec codec.Codec
	locks *locker.Manager
}

// New creates a storage engine rooted at base. The base directory is
// created if it does not exist.
func New(base string, fsys fs.FileSystem, c codec.Codec, locks *locker.Manager) (*Store, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if c == nil {
		c = codec.Default
	}
	if err := fsys.MkdirAll(base, dirPerm); err != nil {
		return nil, err
	}
	return &Store{base: base, fs: fsys, codec: c, locks: locks}, nil
}

// userPath returns the directory for a sanitized user token.
func (s *Store) userPath(userTok string) string {
	return filepath.Join(s.base, userTok)
}

func (s *Store) exists(path string) (bool, error) {
	_, err := s.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// existsDir reports whether path is an existing directory. Cascading
// deletes check this instead of exists so a token can never resolve
// onto a managed file.
func (s *Store) existsDir(path string) (bool, error) {
	info, err := s.fs.Stat(path)
	if err == nil {
		return info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// readMetadataFile decodes a metadata file into v.
// Returns ErrNotFound when the file does not exist.
func (s *Store) readMetadataFile(path string, v any) error {
	data, err := fs.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	if err := s.codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSerialization, path, err)
	}
	return nil
}

// writeMetadataFile encodes v and atomically replaces the metadata file.
func (s *Store) writeMetadataFile(path string, v any) error {
	data, err := s.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return fs.WriteFileAtomic(s.fs, path, data, filePerm)
}

// CreateUser creates the directory and metadata for a new user.
// Fails with ErrAlreadyExists when the sanitized path already exists.
func (s *Store) CreateUser(ctx context.Context, userID, displayName string) error {
	tok, err := ident.Sanitize(userID)
	if err != nil {
		return err
	}

	release, err := s.locks.AcquireWrite(ctx, tok)
	if err != nil {
		return err
	}
	defer release()

	dir := s.userPath(tok)
	ok, err := s.exists(dir)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: user %q", ErrAlreadyExists, userID)
	}
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return err
	}
	meta := UserMetadata{ID: userID, Name: displayName, Databases: []string{}}
	return s.writeMetadataFile(filepath.Join(dir, metadataFileName), meta)
}

// DeleteUser removes the user's subtree, cascading to all owned databases.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tok, err := ident.Sanitize(userID)
	if err != nil {
		return err
	}

	release, err := s.locks.AcquireWrite(ctx, tok)
	if err != nil {
		return err
	}
	defer release()

	dir := s.userPath(tok)
	ok, err := s.existsDir(dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %q", ErrNotFound, userID)
	}
	return s.fs.RemoveAll(dir)
}

// UserExists is the explicit presence test for a user.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	tok, err := ident.Sanitize(userID)
	if err != nil {
		return false, err
	}
	release, err := s.locks.AcquireRead(ctx, tok)
	if err != nil {
		return false, err
	}
	defer release()
	return s.exists(s.userPath(tok))
}

// ListUsers returns the raw identifiers of all users.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	entries, err := s.fs.ReadDir(s.base)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		raw, err := ident.Restore(e.Name())
		if err != nil {
			continue // foreign directory, not one of ours
		}
		users = append(users, raw)
	}
	sort.Strings(users)
	return users, nil
}

// CreateDatabase creates a database under a user, with optional settings.
func (s *Store) CreateDatabase(ctx context.Context, userID, name string, settings record.Document) error {
	userTok, err := ident.Sanitize(userID)
	if err != nil {
		return err
	}
	dbTok, err := ident.Sanitize(name)
	if err != nil {
		return err
	}

	// The user-level lock guards the user's metadata and database
	// creation/deletion, mirroring the database lock's role for tables.
	release, err := s.locks.AcquireWrite(ctx, userTok)
	if err != nil {
		return err
	}
	defer release()

	userDir := s.userPath(userTok)
	ok, err := s.exists(userDir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %q", ErrNotFound, userID)
	}

	dbDir := filepath.Join(userDir, dbTok)
	ok, err = s.exists(dbDir)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: database %q", ErrAlreadyExists, name)
	}

	if err := s.fs.MkdirAll(dbDir, dirPerm); err != nil {
		return err
	}
	meta := DatabaseMetadata{Name: name, Tables: []string{}, Settings: settings.Clone()}
	if err := s.writeMetadataFile(filepath.Join(dbDir, metadataFileName), meta); err != nil {
		return err
	}

	return s.addUserDatabase(userDir, userID, name)
}

// DeleteDatabase removes a database subtree, cascading to tables and
// records, and updates the user's metadata.
func (s *Store) DeleteDatabase(ctx context.Context, userID, name string) error {
	userTok, err := ident.Sanitize(userID)
	if err != nil {
		return err
	}
	dbTok, err := ident.Sanitize(name)
	if err != nil {
		return err
	}

	release, err := s.locks.AcquireWrite(ctx, userTok)
	if err != nil {
		return err
	}
	defer release()

	dbRelease, err := s.locks.AcquireWrite(ctx, userTok+"/"+dbTok)
	if err != nil {
		return err
	}
	defer dbRelease()

	userDir := s.userPath(userTok)
	dbDir := filepath.Join(userDir, dbTok)
	ok, err := s.existsDir(dbDir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: database %q", ErrNotFound, name)
	}
	if err := s.fs.RemoveAll(dbDir); err != nil {
		return err
	}

	return s.removeUserDatabase(userDir, userID, name)
}

// ListDatabases returns the database names owned by a user.
func (s *Store) ListDatabases(ctx context.Context, userID string) ([]string, error) {
	userTok, err := ident.Sanitize(userID)
	if err != nil {
		return nil, err
	}
	release, err := s.locks.AcquireRead(ctx, userTok)
	if err != nil {
		return nil, err
	}
	defer release()

	var meta UserMetadata
	if err := s.readMetadataFile(filepath.Join(s.userPath(userTok), metadataFileName), &meta); err != nil {
		return nil, err
	}
	if meta.Databases == nil {
		return []string{}, nil
	}
	return meta.Databases, nil
}

func (s *Store) addUserDatabase(userDir, userID, name string) error {
	metaPath := filepath.Join(userDir, metadataFileName)
	var meta UserMetadata
	if err := s.readMetadataFile(metaPath, &meta); err != nil {
		return err
	}
	if !contains(meta.Databases, name) {
		meta.Databases = append(meta.Databases, name)
		sort.Strings(meta.Databases)
	}
	return s.writeMetadataFile(metaPath, meta)
}

func (s *Store) removeUserDatabase(userDir, userID, name string) error {
	metaPath := filepath.Join(userDir, metadataFileName)
	var meta UserMetadata
	if err := s.readMetadataFile(metaPath, &meta); err != nil {
		return err
	}
	meta.Databases = remove(meta.Databases, name)
	return s.writeMetadataFile(metaPath, meta)
}

// Database returns a handle scoped to one database. The handle carries
// the sanitized path segments; it does not verify existence, so the first
// operation on a missing database reports ErrNotFound.
func (s *Store) Database(userID, name string) (*Database, error) {
	userTok, err := ident.Sanitize(userID)
	if err != nil {
		return nil, err
	}
	dbTok, err := ident.Sanitize(name)
	if err != nil {
		return nil, err
	}
	return &Database{
		store:   s,
		userID:  userID,
		name:    name,
		userTok: userTok,
		dbTok:   dbTok,
	}, nil
}
