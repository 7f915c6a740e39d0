package backup

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/felix-wang-0307/NaturalDB/ident"
	"github.com/felix-wang-0307/NaturalDB/record"
	"github.com/felix-wang-0307/NaturalDB/resource"
	"github.com/felix-wang-0307/NaturalDB/storage"
)

// Restore recreates a database from an archive blob under the given
// user and name. The target database must not exist; restoring over a
// live database fails with AlreadyExists rather than merging.
func (m *Manager) Restore(ctx context.Context, archiveName, userID, dbName string) error {
	if err := m.res.AcquireJob(ctx); err != nil {
		return err
	}
	defer m.res.ReleaseJob()

	blob, err := m.blobs.Open(ctx, archiveName)
	if err != nil {
		return err
	}
	defer blob.Close()

	tr, cleanup, err := m.archiveReader(ctx, archiveName, blob)
	if err != nil {
		return err
	}
	defer cleanup()

	// The first entry is always the database metadata; it seeds the
	// database before any table entry arrives.
	hdr, err := tr.Next()
	if err != nil {
		return fmt.Errorf("%w: archive %s: %v", storage.ErrSerialization, archiveName, err)
	}
	if hdr.Name != archiveMetaName {
		return fmt.Errorf("%w: archive %s: unexpected first entry %q", storage.ErrSerialization, archiveName, hdr.Name)
	}
	var dbMeta storage.DatabaseMetadata
	if err := m.readEntry(tr, hdr.Name, &dbMeta); err != nil {
		return err
	}
	if err := m.store.CreateDatabase(ctx, userID, dbName, dbMeta.Settings); err != nil {
		return err
	}
	db, err := m.store.Database(userID, dbName)
	if err != nil {
		return err
	}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: archive %s: %v", storage.ErrSerialization, archiveName, err)
		}
		if err := m.restoreEntry(ctx, db, tr, hdr.Name); err != nil {
			return err
		}
	}
}

// archiveReader builds the decompression chain matching the archive's
// file extension.
func (m *Manager) archiveReader(ctx context.Context, name string, blob io.Reader) (*tar.Reader, func(), error) {
	throttled := resource.NewLimitedReader(ctx, m.res, blob)

	switch {
	case strings.HasSuffix(name, CompressionZstd.ext()):
		zr, err := zstd.NewReader(throttled)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(zr), zr.Close, nil
	case strings.HasSuffix(name, CompressionLZ4.ext()):
		return tar.NewReader(lz4.NewReader(throttled)), func() {}, nil
	default:
		return tar.NewReader(throttled), func() {}, nil
	}
}

func (m *Manager) restoreEntry(ctx context.Context, db *storage.Database, tr *tar.Reader, name string) error {
	parts := strings.Split(name, "/")
	if len(parts) != 2 {
		return fmt.Errorf("%w: unexpected archive entry %q", storage.ErrSerialization, name)
	}
	table, err := ident.Restore(parts[0])
	if err != nil {
		return err
	}

	if parts[1] == archiveMetaName {
		var tableMeta storage.TableMetadata
		if err := m.readEntry(tr, name, &tableMeta); err != nil {
			return err
		}
		return db.CreateTable(ctx, table, tableMeta)
	}

	var rec record.Record
	if err := m.readEntry(tr, name, &rec); err != nil {
		return err
	}
	return db.SaveRecord(ctx, table, rec)
}

func (m *Manager) readEntry(tr *tar.Reader, name string, v any) error {
	data, err := io.ReadAll(tr)
	if err != nil {
		return fmt.Errorf("%w: archive entry %s: %v", storage.ErrSerialization, name, err)
	}
	if err := m.codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: archive entry %s: %v", storage.ErrSerialization, name, err)
	}
	return nil
}
