// Package backup archives whole databases into compressed tar blobs and
// restores them. An archive holds the database metadata plus every table
// directory exactly as the storage engine lays them out, so a restored
// database is byte-for-byte equivalent in content.
package backup

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/felix-wang-0307/NaturalDB/blobstore"
	"github.com/felix-wang-0307/NaturalDB/codec"
	"github.com/felix-wang-0307/NaturalDB/ident"
	"github.com/felix-wang-0307/NaturalDB/resource"
	"github.com/felix-wang-0307/NaturalDB/storage"
)

// Compression selects the archive compression algorithm.
type Compression string

const (
	// CompressionZstd compresses with zstandard, the default.
	CompressionZstd Compression = "zstd"
	// CompressionLZ4 compresses with lz4, cheaper on CPU.
	CompressionLZ4 Compression = "lz4"
	// CompressionNone stores the tar stream uncompressed.
	CompressionNone Compression = "none"
)

func (c Compression) ext() string {
	switch c {
	case CompressionLZ4:
		return ".tar.lz4"
	case CompressionNone:
		return ".tar"
	default:
		return ".tar.zst"
	}
}

// Manifest describes one stored backup. It lives next to the archive
// blob as a small JSON document.
type Manifest struct {
	User        string      `json:"user"`
	Database    string      `json:"database"`
	CreatedAt   time.Time   `json:"created_at"`
	Compression Compression `json:"compression"`
	Blob        string      `json:"blob"`
	Tables      int         `json:"tables"`
	Records     int         `json:"records"`
}

const (
	manifestExt     = ".manifest.json"
	archiveMetaName = "metadata.json"
	recordExt       = ".json"
)

// Manager runs backup and restore jobs against a storage engine and a
// blob store. Jobs count against the resource controller's background
// slots and IO budget; a nil controller means unbounded.
type Manager struct {
	store *storage.Store
	blobs blobstore.Store
	codec codec.Codec
	res   *resource.Controller
	now   func() time.Time
}

// NewManager creates a backup manager.
func NewManager(store *storage.Store, blobs blobstore.Store, res *resource.Controller) *Manager {
	return &Manager{
		store: store,
		blobs: blobs,
		codec: codec.Default,
		res:   res,
		now:   time.Now,
	}
}

// WithClock replaces the time source stamping archive names. Intended
// for tests that need deterministic names.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	if now != nil {
		m.now = now
	}
	return m
}

func backupPrefix(userID, dbName string) (string, error) {
	userTok, err := ident.Sanitize(userID)
	if err != nil {
		return "", err
	}
	dbTok, err := ident.Sanitize(dbName)
	if err != nil {
		return "", err
	}
	return path.Join(userTok, dbTok) + "/", nil
}

// Backup archives one database and returns the archive blob name.
//
// Tables are archived one after another, each under its own read lock,
// so the archive is per-table consistent; writes racing the backup land
// in either the archive or the live tree, never half in both.
func (m *Manager) Backup(ctx context.Context, userID, dbName string, comp Compression) (string, error) {
	prefix, err := backupPrefix(userID, dbName)
	if err != nil {
		return "", err
	}
	db, err := m.store.Database(userID, dbName)
	if err != nil {
		return "", err
	}

	if err := m.res.AcquireJob(ctx); err != nil {
		return "", err
	}
	defer m.res.ReleaseJob()

	createdAt := m.now().UTC()
	name := prefix + createdAt.Format("20060102T150405.000000000Z") + comp.ext()

	blob, err := m.blobs.Create(ctx, name)
	if err != nil {
		return "", err
	}

	manifest := Manifest{
		User:        userID,
		Database:    dbName,
		CreatedAt:   createdAt,
		Compression: comp,
		Blob:        name,
	}
	if err := m.writeArchive(ctx, db, blob, comp, &manifest); err != nil {
		blob.Close()
		m.blobs.Delete(ctx, name)
		return "", err
	}
	if err := blob.Close(); err != nil {
		m.blobs.Delete(ctx, name)
		return "", err
	}

	if err := m.writeManifest(ctx, name, manifest); err != nil {
		m.blobs.Delete(ctx, name)
		return "", err
	}
	return name, nil
}

func (m *Manager) writeArchive(ctx context.Context, db *storage.Database, blob io.Writer, comp Compression, manifest *Manifest) error {
	throttled := resource.NewLimitedWriter(ctx, m.res, blob)

	var (
		tw     *tar.Writer
		finish func() error
	)
	switch comp {
	case CompressionNone:
		tw = tar.NewWriter(throttled)
		finish = func() error { return nil }
	case CompressionLZ4:
		lw := lz4.NewWriter(throttled)
		tw = tar.NewWriter(lw)
		finish = lw.Close
	default:
		zw, err := zstd.NewWriter(throttled)
		if err != nil {
			return err
		}
		tw = tar.NewWriter(zw)
		finish = zw.Close
	}

	dbMeta, err := db.Metadata(ctx)
	if err != nil {
		return err
	}
	if err := m.writeEntry(tw, archiveMetaName, dbMeta); err != nil {
		return err
	}

	tables, err := db.ListTables(ctx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		tableTok, err := ident.Sanitize(table)
		if err != nil {
			return err
		}
		tableMeta, err := db.TableMetadata(ctx, table)
		if err != nil {
			return err
		}
		if err := m.writeEntry(tw, path.Join(tableTok, archiveMetaName), tableMeta); err != nil {
			return err
		}

		records, err := db.LoadAllRecords(ctx, table)
		if err != nil {
			return err
		}
		for _, rec := range records {
			idTok, err := ident.Sanitize(rec.ID)
			if err != nil {
				return err
			}
			if err := m.writeEntry(tw, path.Join(tableTok, idTok+recordExt), rec); err != nil {
				return err
			}
		}
		manifest.Tables++
		manifest.Records += len(records)
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return finish()
}

func (m *Manager) writeEntry(tw *tar.Writer, name string, v any) error {
	data, err := m.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", storage.ErrSerialization, name, err)
	}
	hdr := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = tw.Write(data)
	return err
}

func (m *Manager) writeManifest(ctx context.Context, archiveName string, manifest Manifest) error {
	data, err := m.codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("%w: manifest: %v", storage.ErrSerialization, err)
	}
	w, err := m.blobs.Create(ctx, archiveName+manifestExt)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// List returns the manifests of all backups of one database, oldest
// first.
func (m *Manager) List(ctx context.Context, userID, dbName string) ([]Manifest, error) {
	prefix, err := backupPrefix(userID, dbName)
	if err != nil {
		return nil, err
	}
	names, err := m.blobs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	manifests := []Manifest{}
	for _, name := range names {
		if !strings.HasSuffix(name, manifestExt) {
			continue
		}
		manifest, err := m.readManifest(ctx, name)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, manifest)
	}
	return manifests, nil
}

func (m *Manager) readManifest(ctx context.Context, name string) (Manifest, error) {
	blob, err := m.blobs.Open(ctx, name)
	if err != nil {
		return Manifest{}, err
	}
	defer blob.Close()

	data, err := io.ReadAll(blob)
	if err != nil {
		return Manifest{}, err
	}
	var manifest Manifest
	if err := m.codec.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("%w: manifest %s: %v", storage.ErrSerialization, name, err)
	}
	return manifest, nil
}

// Delete removes a backup archive and its manifest.
func (m *Manager) Delete(ctx context.Context, archiveName string) error {
	if err := m.blobs.Delete(ctx, archiveName); err != nil {
		return err
	}
	return m.blobs.Delete(ctx, archiveName+manifestExt)
}
