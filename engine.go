package naturaldb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/felix-wang-0307/NaturalDB/query"
	"github.com/felix-wang-0307/NaturalDB/record"
	"github.com/felix-wang-0307/NaturalDB/resource"
	"github.com/felix-wang-0307/NaturalDB/storage"
)

// Engine binds the storage engine of one database to the query
// pipeline. Writes go straight to storage under the table write lock;
// reads load the table once and transform the record sequence in
// memory.
type Engine struct {
	db      *storage.Database
	opts    *options
	logger  *Logger
	metrics MetricsCollector
}

// CreateTable creates an empty table.
func (e *Engine) CreateTable(ctx context.Context, name string) error {
	return translateError(e.db.CreateTable(ctx, name, storage.TableMetadata{}))
}

// CreateTableWithMetadata creates a table with declared keys and
// advisory indexes.
func (e *Engine) CreateTableWithMetadata(ctx context.Context, name string, meta storage.TableMetadata) error {
	return translateError(e.db.CreateTable(ctx, name, meta))
}

// DropTable removes a table and all its records.
func (e *Engine) DropTable(ctx context.Context, name string) error {
	return translateError(e.db.DeleteTable(ctx, name))
}

// ListTables returns the table names of the database.
func (e *Engine) ListTables(ctx context.Context) ([]string, error) {
	tables, err := e.db.ListTables(ctx)
	return tables, translateError(err)
}

// TableExists reports whether a table exists. An empty table exists;
// never infer absence from an empty query result.
func (e *Engine) TableExists(ctx context.Context, name string) (bool, error) {
	ok, err := e.db.TableExists(ctx, name)
	return ok, translateError(err)
}

// Insert stores a new record and returns its id. An empty id is filled
// by the configured generator; a supplied id that already exists fails
// with ErrAlreadyExists.
func (e *Engine) Insert(ctx context.Context, table, id string, data record.Document) (string, error) {
	start := time.Now()
	if id == "" {
		id = e.opts.idGenerator()
	}
	rec := record.Record{ID: id, Data: data.Clone()}
	err := translateError(e.db.InsertRecord(ctx, table, rec))
	e.metrics.RecordInsert(time.Since(start), err)
	e.logger.LogInsert(ctx, table, id, err)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindByID returns one record.
func (e *Engine) FindByID(ctx context.Context, table, id string) (record.Record, error) {
	start := time.Now()
	rec, err := e.db.LoadRecord(ctx, table, id)
	err = translateError(err)
	results := 0
	if err == nil {
		results = 1
	}
	e.metrics.RecordQuery(results, time.Since(start), err)
	return rec, err
}

// FindAll returns every record of a table, ordered by id.
func (e *Engine) FindAll(ctx context.Context, table string) ([]record.Record, error) {
	start := time.Now()
	recs, err := e.db.LoadAllRecords(ctx, table)
	err = translateError(err)
	e.metrics.RecordQuery(len(recs), time.Since(start), err)
	e.logger.LogQuery(ctx, table, "find_all", len(recs), err)
	return recs, err
}

// Update replaces the payload of an existing record.
func (e *Engine) Update(ctx context.Context, table, id string, data record.Document) error {
	start := time.Now()
	rec := record.Record{ID: id, Data: data.Clone()}
	err := translateError(e.db.UpdateRecord(ctx, table, rec))
	e.metrics.RecordUpdate(time.Since(start), err)
	e.logger.LogUpdate(ctx, table, id, err)
	return err
}

// Upsert stores a record, replacing any existing one with the same id.
func (e *Engine) Upsert(ctx context.Context, table, id string, data record.Document) error {
	start := time.Now()
	rec := record.Record{ID: id, Data: data.Clone()}
	err := translateError(e.db.SaveRecord(ctx, table, rec))
	e.metrics.RecordInsert(time.Since(start), err)
	e.logger.LogInsert(ctx, table, id, err)
	return err
}

// Delete removes one record.
func (e *Engine) Delete(ctx context.Context, table, id string) error {
	start := time.Now()
	err := translateError(e.db.DeleteRecord(ctx, table, id))
	e.metrics.RecordDelete(time.Since(start), err)
	e.logger.LogDelete(ctx, table, id, err)
	return err
}

// Count returns the number of records in a table.
func (e *Engine) Count(ctx context.Context, table string) (int, error) {
	n, err := e.db.CountRecords(ctx, table)
	return n, translateError(err)
}

// Table captures the table's record sequence and returns a chainable
// builder over it. The snapshot is taken once; chains built from the
// same call observe identical data.
func (e *Engine) Table(ctx context.Context, table string) (*query.Builder, error) {
	recs, err := e.db.LoadAllRecords(ctx, table)
	if err != nil {
		return nil, translateError(err)
	}
	return query.NewBuilder(recs), nil
}

// Filter returns the records matching every condition. When the table
// declares advisory indexes covering a condition field, posting lists
// narrow the scan; the result is identical either way.
func (e *Engine) Filter(ctx context.Context, table string, conds ...query.Condition) ([]record.Record, error) {
	start := time.Now()
	recs, err := e.filter(ctx, table, conds)
	e.metrics.RecordQuery(len(recs), time.Since(start), err)
	e.logger.LogQuery(ctx, table, "filter", len(recs), err)
	return recs, err
}

func (e *Engine) filter(ctx context.Context, table string, conds []query.Condition) ([]record.Record, error) {
	recs, err := e.db.LoadAllRecords(ctx, table)
	if err != nil {
		return nil, translateError(err)
	}

	if fields := e.indexedFields(ctx, table, conds); len(fields) > 0 {
		out, err := query.BuildIndex(recs, fields).Filter(conds...)
		return out, translateError(err)
	}
	out, err := query.Filter(recs, conds...)
	return out, translateError(err)
}

// indexedFields returns the declared index fields that cover at least
// one condition.
func (e *Engine) indexedFields(ctx context.Context, table string, conds []query.Condition) []string {
	meta, err := e.db.TableMetadata(ctx, table)
	if err != nil || len(meta.Indexes) == 0 {
		return nil
	}
	declared := map[string]bool{}
	for _, spec := range meta.Indexes {
		for _, field := range spec.Fields {
			declared[field] = true
		}
	}
	fields := []string{}
	for _, c := range conds {
		if declared[c.Field] && (c.Operator == query.OpEqual || c.Operator == query.OpIn) {
			fields = append(fields, c.Field)
		}
	}
	return fields
}

// Project loads a table, optionally filters it, and returns documents
// holding only the named fields.
func (e *Engine) Project(ctx context.Context, table string, fields []string, conds ...query.Condition) ([]record.Document, error) {
	start := time.Now()
	recs, err := e.filter(ctx, table, conds)
	if err != nil {
		e.metrics.RecordQuery(0, time.Since(start), err)
		return nil, err
	}
	docs := query.Project(recs, fields)
	e.metrics.RecordQuery(len(docs), time.Since(start), nil)
	e.logger.LogQuery(ctx, table, "project", len(docs), nil)
	return docs, nil
}

// Sort returns the table's records sorted by the given keys.
func (e *Engine) Sort(ctx context.Context, table string, keys ...query.SortKey) ([]record.Record, error) {
	start := time.Now()
	recs, err := e.db.LoadAllRecords(ctx, table)
	if err != nil {
		err = translateError(err)
		e.metrics.RecordQuery(0, time.Since(start), err)
		return nil, err
	}
	out := query.Sort(recs, keys...)
	e.metrics.RecordQuery(len(out), time.Since(start), nil)
	e.logger.LogQuery(ctx, table, "sort", len(out), nil)
	return out, nil
}

// GroupBy groups a table's records by field and computes the requested
// aggregations per group.
func (e *Engine) GroupBy(ctx context.Context, table, field string, aggs ...query.Aggregation) ([]record.Document, error) {
	start := time.Now()
	recs, err := e.db.LoadAllRecords(ctx, table)
	if err != nil {
		err = translateError(err)
		e.metrics.RecordQuery(0, time.Since(start), err)
		return nil, err
	}
	docs, err := query.GroupAggregate(recs, field, aggs)
	err = translateError(err)
	e.metrics.RecordQuery(len(docs), time.Since(start), err)
	e.logger.LogQuery(ctx, table, "group_by", len(docs), err)
	return docs, err
}

// Join matches two tables on field equality.
func (e *Engine) Join(ctx context.Context, typ query.JoinType, leftTable, rightTable, leftField, rightField string) ([]record.Document, error) {
	start := time.Now()
	left, err := e.db.LoadAllRecords(ctx, leftTable)
	if err != nil {
		return nil, translateError(err)
	}
	right, err := e.db.LoadAllRecords(ctx, rightTable)
	if err != nil {
		return nil, translateError(err)
	}
	docs, err := query.Join(typ, left, right, leftField, rightField)
	err = translateError(err)
	e.metrics.RecordQuery(len(docs), time.Since(start), err)
	e.logger.LogQuery(ctx, leftTable, "join", len(docs), err)
	return docs, err
}

// ImportJSON reads a JSON array of documents (or a single object) and
// inserts each as a new record. A document may carry its id under "id";
// otherwise one is generated. Returns the number of records imported;
// the first failure stops the import with records up to it persisted.
func (e *Engine) ImportJSON(ctx context.Context, table string, r io.Reader) (int, error) {
	if err := e.opts.resources.AcquireJob(ctx); err != nil {
		return 0, err
	}
	defer e.opts.resources.ReleaseJob()

	dec := json.NewDecoder(resource.NewLimitedReader(ctx, e.opts.resources, r))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		err = fmt.Errorf("%w: import: %v", ErrSerialization, err)
		e.logger.LogImport(ctx, table, 0, err)
		return 0, err
	}
	var raw []any
	switch x := decoded.(type) {
	case []any:
		raw = x
	case map[string]any:
		raw = []any{x}
	default:
		err := fmt.Errorf("%w: import: neither an array nor an object", ErrSerialization)
		e.logger.LogImport(ctx, table, 0, err)
		return 0, err
	}

	imported := 0
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			err := fmt.Errorf("%w: import record %d: not an object", ErrSerialization, imported)
			e.logger.LogImport(ctx, table, imported, err)
			return imported, err
		}
		doc, err := record.DocumentFromAny(obj)
		if err != nil {
			err = fmt.Errorf("%w: import record %d: %v", ErrSerialization, imported, err)
			e.logger.LogImport(ctx, table, imported, err)
			return imported, err
		}
		id := ""
		if v, ok := doc.Lookup("id"); ok {
			if s, isString := v.AsString(); isString {
				id = s
				delete(doc, "id")
			}
		}
		if _, err := e.Insert(ctx, table, id, doc); err != nil {
			e.logger.LogImport(ctx, table, imported, err)
			return imported, err
		}
		imported++
	}
	e.logger.LogImport(ctx, table, imported, nil)
	return imported, nil
}

// ExportJSON writes a table's records as a JSON array of documents,
// each with its id under "id". With pretty set the array is indented
// for human consumption.
func (e *Engine) ExportJSON(ctx context.Context, table string, w io.Writer, pretty bool) error {
	if err := e.opts.resources.AcquireJob(ctx); err != nil {
		return err
	}
	defer e.opts.resources.ReleaseJob()

	recs, err := e.db.LoadAllRecords(ctx, table)
	if err != nil {
		return translateError(err)
	}
	docs := query.ToDocuments(recs)

	enc := json.NewEncoder(resource.NewLimitedWriter(ctx, e.opts.resources, w))
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("%w: export: %v", ErrSerialization, err)
	}
	return nil
}
