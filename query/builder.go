package query

import "github.com/felix-wang-0307/NaturalDB/record"

// step is one deferred transform in a builder chain.
type step func([]record.Record) ([]record.Record, error)

// Builder is a chainable cursor over a captured record sequence. Every
// chainable method returns a new Builder; existing builders are never
// mutated, so two chains branching from the same builder do not observe
// each other. Transforms run only when a terminal method materializes
// the result, in the exact order they were chained.
type Builder struct {
	source []record.Record
	steps  []step
}

// NewBuilder wraps a record sequence in a fresh builder.
func NewBuilder(records []record.Record) *Builder {
	return &Builder{source: records}
}

// with copies the step list so sibling chains never share a backing
// array.
func (b *Builder) with(s step) *Builder {
	steps := make([]step, len(b.steps), len(b.steps)+1)
	copy(steps, b.steps)
	return &Builder{source: b.source, steps: append(steps, s)}
}

// Filter appends a conjunction of conditions to the chain.
func (b *Builder) Filter(conds ...Condition) *Builder {
	return b.with(func(records []record.Record) ([]record.Record, error) {
		return Filter(records, conds...)
	})
}

// FilterFunc appends an arbitrary predicate to the chain.
func (b *Builder) FilterFunc(pred Predicate) *Builder {
	return b.with(func(records []record.Record) ([]record.Record, error) {
		return FilterFunc(records, pred), nil
	})
}

// FilterBy appends field-equality filters to the chain.
func (b *Builder) FilterBy(fields record.Document) *Builder {
	return b.with(func(records []record.Record) ([]record.Record, error) {
		return FilterBy(records, fields), nil
	})
}

// Sort appends a stable multi-key sort to the chain.
func (b *Builder) Sort(keys ...SortKey) *Builder {
	return b.with(func(records []record.Record) ([]record.Record, error) {
		return Sort(records, keys...), nil
	})
}

// Limit caps the sequence as transformed so far; later chained steps see
// only the capped subset.
func (b *Builder) Limit(count int) *Builder {
	return b.with(func(records []record.Record) ([]record.Record, error) {
		return Limit(records, 0, count), nil
	})
}

// Skip drops the first count records of the sequence as transformed so
// far.
func (b *Builder) Skip(count int) *Builder {
	return b.with(func(records []record.Record) ([]record.Record, error) {
		return Limit(records, count, -1), nil
	})
}

// materialize runs the chain against the captured source.
func (b *Builder) materialize() ([]record.Record, error) {
	records := b.source
	for _, s := range b.steps {
		var err error
		records, err = s(records)
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// All materializes the chain and returns the full result sequence.
func (b *Builder) All() ([]record.Record, error) {
	records, err := b.materialize()
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, len(records))
	copy(out, records)
	return out, nil
}

// First returns the first result. ok is false for an empty result.
func (b *Builder) First() (rec record.Record, ok bool, err error) {
	records, err := b.materialize()
	if err != nil || len(records) == 0 {
		return record.Record{}, false, err
	}
	return records[0], true, nil
}

// Last returns the last result. ok is false for an empty result.
func (b *Builder) Last() (rec record.Record, ok bool, err error) {
	records, err := b.materialize()
	if err != nil || len(records) == 0 {
		return record.Record{}, false, err
	}
	return records[len(records)-1], true, nil
}

// Count materializes the chain and returns the result length.
func (b *Builder) Count() (int, error) {
	records, err := b.materialize()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Select materializes the chain and projects the named fields.
func (b *Builder) Select(fields ...string) ([]record.Document, error) {
	records, err := b.materialize()
	if err != nil {
		return nil, err
	}
	return Project(records, fields), nil
}

// ToDocuments materializes the chain as plain documents with the record
// id injected under "id".
func (b *Builder) ToDocuments() ([]record.Document, error) {
	records, err := b.materialize()
	if err != nil {
		return nil, err
	}
	return ToDocuments(records), nil
}

// GroupBy materializes the chain, groups by field and computes the
// requested aggregations per group.
func (b *Builder) GroupBy(field string, aggs ...Aggregation) ([]record.Document, error) {
	records, err := b.materialize()
	if err != nil {
		return nil, err
	}
	return GroupAggregate(records, field, aggs)
}
