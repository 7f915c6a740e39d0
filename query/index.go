package query

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/felix-wang-0307/NaturalDB/record"
)

// Index holds in-memory posting lists for a record sequence: one bitmap
// of row positions per (field, value) pair, built only for the declared
// fields. It is a scan accelerator for equality and membership
// conditions; nothing about it is persisted.
type Index struct {
	records []record.Record
	fields  map[string]map[string]*roaring.Bitmap
}

// BuildIndex scans records once and builds posting lists for the given
// fields. Rows missing a field get no posting for it.
func BuildIndex(records []record.Record, fields []string) *Index {
	ix := &Index{
		records: records,
		fields:  make(map[string]map[string]*roaring.Bitmap, len(fields)),
	}
	for _, field := range fields {
		ix.fields[field] = make(map[string]*roaring.Bitmap)
	}
	for row, rec := range records {
		for field, postings := range ix.fields {
			v, ok := rec.Data.Lookup(field)
			if !ok {
				continue
			}
			key := v.Key()
			bm, ok := postings[key]
			if !ok {
				bm = roaring.New()
				postings[key] = bm
			}
			bm.Add(uint32(row))
		}
	}
	return ix
}

// Covers reports whether the index can narrow a condition: equality and
// membership on an indexed field.
func (ix *Index) Covers(c Condition) bool {
	if _, ok := ix.fields[c.Field]; !ok {
		return false
	}
	return c.Operator == OpEqual || c.Operator == OpIn
}

// candidates returns the row bitmap for one covered condition.
func (ix *Index) candidates(c Condition) *roaring.Bitmap {
	postings := ix.fields[c.Field]
	switch c.Operator {
	case OpEqual:
		if bm, ok := postings[c.Value.Key()]; ok {
			return bm.Clone()
		}
		return roaring.New()
	case OpIn:
		out := roaring.New()
		items, _ := c.Value.AsArray()
		for _, item := range items {
			if bm, ok := postings[item.Key()]; ok {
				out.Or(bm)
			}
		}
		return out
	default:
		return nil
	}
}

// Filter evaluates a conjunction of conditions, using posting lists to
// narrow the scan for every covered condition and a document match for
// the rest. Results are in record order, identical to the unindexed
// Filter.
func (ix *Index) Filter(conds ...Condition) ([]record.Record, error) {
	for _, c := range conds {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	var rows *roaring.Bitmap
	rest := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if !ix.Covers(c) {
			rest = append(rest, c)
			continue
		}
		bm := ix.candidates(c)
		if rows == nil {
			rows = bm
		} else {
			rows.And(bm)
		}
	}
	if rows == nil {
		return Filter(ix.records, conds...)
	}

	out := make([]record.Record, 0, rows.GetCardinality())
	it := rows.Iterator()
	for it.HasNext() {
		rec := ix.records[it.Next()]
		if matchesAll(rec.Data, rest) {
			out = append(out, rec)
		}
	}
	return out, nil
}
