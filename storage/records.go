package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felix-wang-0307/NaturalDB/ident"
	"github.com/felix-wang-0307/NaturalDB/internal/fs"
	"github.com/felix-wang-0307/NaturalDB/record"
)

func (d *Database) recordPath(tableTok, idTok string) string {
	return filepath.Join(d.tableDir(tableTok), idTok+recordExt)
}

// requireTable reports ErrNotFound when the table directory is absent.
// Callers must hold the table lock.
func (d *Database) requireTable(tableTok, name string) error {
	ok, err := d.store.exists(d.tableDir(tableTok))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: table %q", ErrNotFound, name)
	}
	return nil
}

// saveRecordLocked is the single write primitive: it serializes the
// record envelope and atomically replaces the record file. It does not
// distinguish create from update; that distinction belongs to
// InsertRecord/UpdateRecord, which perform their existence check under
// the same write lock before calling this.
func (d *Database) saveRecordLocked(tableTok string, rec record.Record) error {
	idTok, err := ident.Sanitize(rec.ID)
	if err != nil {
		return err
	}
	data, err := d.store.codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: record %q: %v", ErrSerialization, rec.ID, err)
	}
	return fs.WriteFileAtomic(d.store.fs, d.recordPath(tableTok, idTok), data, filePerm)
}

func (d *Database) recordExistsLocked(tableTok, id string) (bool, error) {
	idTok, err := ident.Sanitize(id)
	if err != nil {
		return false, err
	}
	return d.store.exists(d.recordPath(tableTok, idTok))
}

// SaveRecord persists a record, overwriting any prior content (upsert).
func (d *Database) SaveRecord(ctx context.Context, table string, rec record.Record) error {
	tableTok, err := ident.Sanitize(table)
	if err != nil {
		return err
	}
	if _, err := ident.Sanitize(rec.ID); err != nil {
		return err
	}

	release, err := d.store.locks.AcquireWrite(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return err
	}
	defer release()

	if err := d.requireTable(tableTok, table); err != nil {
		return err
	}
	return d.saveRecordLocked(tableTok, rec)
}

// InsertRecord persists a new record. The existence check and the write
// happen under one table write lock, so two concurrent inserts of the
// same id resolve to exactly one success and one ErrAlreadyExists.
func (d *Database) InsertRecord(ctx context.Context, table string, rec record.Record) error {
	tableTok, err := ident.Sanitize(table)
	if err != nil {
		return err
	}
	if _, err := ident.Sanitize(rec.ID); err != nil {
		return err
	}

	release, err := d.store.locks.AcquireWrite(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return err
	}
	defer release()

	if err := d.requireTable(tableTok, table); err != nil {
		return err
	}
	ok, err := d.recordExistsLocked(tableTok, rec.ID)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: record %q", ErrAlreadyExists, rec.ID)
	}
	return d.saveRecordLocked(tableTok, rec)
}

// UpdateRecord replaces the payload of an existing record. The existence
// check and the write happen under one table write lock.
func (d *Database) UpdateRecord(ctx context.Context, table string, rec record.Record) error {
	tableTok, err := ident.Sanitize(table)
	if err != nil {
		return err
	}
	if _, err := ident.Sanitize(rec.ID); err != nil {
		return err
	}

	release, err := d.store.locks.AcquireWrite(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return err
	}
	defer release()

	if err := d.requireTable(tableTok, table); err != nil {
		return err
	}
	ok, err := d.recordExistsLocked(tableTok, rec.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: record %q", ErrNotFound, rec.ID)
	}
	return d.saveRecordLocked(tableTok, rec)
}

// LoadRecord reads one record by id.
func (d *Database) LoadRecord(ctx context.Context, table, id string) (record.Record, error) {
	tableTok, err := ident.Sanitize(table)
	if err != nil {
		return record.Record{}, err
	}
	idTok, err := ident.Sanitize(id)
	if err != nil {
		return record.Record{}, err
	}

	release, err := d.store.locks.AcquireRead(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return record.Record{}, err
	}
	defer release()

	if err := d.requireTable(tableTok, table); err != nil {
		return record.Record{}, err
	}
	return d.loadRecordFile(d.recordPath(tableTok, idTok), id)
}

func (d *Database) loadRecordFile(path, id string) (record.Record, error) {
	data, err := fs.ReadFile(d.store.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return record.Record{}, fmt.Errorf("%w: record %q", ErrNotFound, id)
		}
		return record.Record{}, err
	}
	var rec record.Record
	if err := d.store.codec.Unmarshal(data, &rec); err != nil {
		return record.Record{}, fmt.Errorf("%w: record %q: %v", ErrSerialization, id, err)
	}
	return rec, nil
}

// LoadAllRecords returns every record in the table, ordered by record id.
//
// A table with zero records yields an empty, non-nil slice; only a
// missing table yields ErrNotFound. Callers must never infer "table does
// not exist" from an empty result.
func (d *Database) LoadAllRecords(ctx context.Context, table string) ([]record.Record, error) {
	tableTok, err := ident.Sanitize(table)
	if err != nil {
		return nil, err
	}

	release, err := d.store.locks.AcquireRead(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return nil, err
	}
	defer release()

	if err := d.requireTable(tableTok, table); err != nil {
		return nil, err
	}

	entries, err := d.store.fs.ReadDir(d.tableDir(tableTok))
	if err != nil {
		return nil, err
	}

	records := make([]record.Record, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == metadataFileName || !strings.HasSuffix(name, recordExt) {
			continue
		}
		idTok := strings.TrimSuffix(name, recordExt)
		id, err := ident.Restore(idTok)
		if err != nil {
			continue // foreign file, not one of ours
		}
		rec, err := d.loadRecordFile(filepath.Join(d.tableDir(tableTok), name), id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	// ReadDir returns entries sorted by filename, which sorts sanitized
	// ids; callers get the sequence ordered by raw record id.
	sortRecordsByID(records)
	return records, nil
}

func sortRecordsByID(records []record.Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

// DeleteRecord removes a record file.
func (d *Database) DeleteRecord(ctx context.Context, table, id string) error {
	tableTok, err := ident.Sanitize(table)
	if err != nil {
		return err
	}
	idTok, err := ident.Sanitize(id)
	if err != nil {
		return err
	}

	release, err := d.store.locks.AcquireWrite(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return err
	}
	defer release()

	if err := d.requireTable(tableTok, table); err != nil {
		return err
	}
	path := d.recordPath(tableTok, idTok)
	ok, err := d.store.exists(path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: record %q", ErrNotFound, id)
	}
	return d.store.fs.Remove(path)
}

// RecordExists is the explicit presence test for a record.
func (d *Database) RecordExists(ctx context.Context, table, id string) (bool, error) {
	tableTok, err := ident.Sanitize(table)
	if err != nil {
		return false, err
	}

	release, err := d.store.locks.AcquireRead(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return false, err
	}
	defer release()

	if err := d.requireTable(tableTok, table); err != nil {
		return false, err
	}
	return d.recordExistsLocked(tableTok, id)
}

// CountRecords returns the number of records in a table without decoding
// them.
func (d *Database) CountRecords(ctx context.Context, table string) (int, error) {
	tableTok, err := ident.Sanitize(table)
	if err != nil {
		return 0, err
	}

	release, err := d.store.locks.AcquireRead(ctx, d.tableLockKey(tableTok))
	if err != nil {
		return 0, err
	}
	defer release()

	if err := d.requireTable(tableTok, table); err != nil {
		return 0, err
	}
	entries, err := d.store.fs.ReadDir(d.tableDir(tableTok))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && e.Name() != metadataFileName && strings.HasSuffix(e.Name(), recordExt) {
			n++
		}
	}
	return n, nil
}
