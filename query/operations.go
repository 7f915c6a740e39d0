package query

import (
	"sort"

	"github.com/felix-wang-0307/NaturalDB/record"
)

// Predicate is an arbitrary record filter.
type Predicate func(record.Record) bool

// FilterFunc returns the records satisfying an arbitrary predicate.
func FilterFunc(records []record.Record, pred Predicate) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Filter returns the records matching every condition (conjunction).
func Filter(records []record.Record, conds ...Condition) ([]record.Record, error) {
	for _, c := range conds {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	out := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if matchesAll(rec.Data, conds) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func matchesAll(doc record.Document, conds []Condition) bool {
	for _, c := range conds {
		if !c.Matches(doc) {
			return false
		}
	}
	return true
}

// FilterBy returns the records whose fields equal every entry of the
// given document. Keys are dot-paths.
func FilterBy(records []record.Record, fields record.Document) []record.Record {
	conds := make([]Condition, 0, len(fields))
	for field, value := range fields {
		conds = append(conds, Eq(field, value))
	}
	out := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if matchesAll(rec.Data, conds) {
			out = append(out, rec)
		}
	}
	return out
}

// Project returns, for each record, a new document holding only the named
// fields. Dot-paths select nested fields and recreate the nesting in the
// output. Fields absent from a record are omitted, not an error.
func Project(records []record.Record, fields []string) []record.Document {
	out := make([]record.Document, 0, len(records))
	for _, rec := range records {
		doc := record.Document{}
		for _, field := range fields {
			if v, ok := rec.Data.Lookup(field); ok {
				doc.Set(field, v.Clone())
			}
		}
		out = append(out, doc)
	}
	return out
}

// SortKey names one sort field and its direction.
type SortKey struct {
	Field      string
	Descending bool
}

// Sort returns a new slice sorted by the given keys in order. The sort is
// stable. Records missing a field (or holding null) sort before records
// with a present value, regardless of direction.
func Sort(records []record.Record, keys ...SortKey) []record.Record {
	out := make([]record.Record, len(records))
	copy(out, records)
	if len(keys) == 0 {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, key := range keys {
			ord := compareForSort(out[i].Data, out[j].Data, key)
			if ord != 0 {
				return ord < 0
			}
		}
		return false
	})
	return out
}

func compareForSort(a, b record.Document, key SortKey) int {
	av, aok := a.Lookup(key.Field)
	bv, bok := b.Lookup(key.Field)
	aAbsent := !aok || av.IsNull()
	bAbsent := !bok || bv.IsNull()

	// Null and missing values always sort first; the descending flag
	// never moves them to the end.
	switch {
	case aAbsent && bAbsent:
		return 0
	case aAbsent:
		return -1
	case bAbsent:
		return 1
	}

	ord := record.Compare(av, bv)
	if key.Descending {
		return -ord
	}
	return ord
}

// Limit returns at most count records starting at offset. A negative
// count means no limit; offsets past the end yield an empty slice.
func Limit(records []record.Record, offset, count int) []record.Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []record.Record{}
	}
	rest := records[offset:]
	if count < 0 || count > len(rest) {
		count = len(rest)
	}
	out := make([]record.Record, count)
	copy(out, rest[:count])
	return out
}

// ToDocuments returns each record's payload with the record id injected
// under "id", matching the persisted envelope flattened into one mapping.
func ToDocuments(records []record.Record) []record.Document {
	out := make([]record.Document, 0, len(records))
	for _, rec := range records {
		doc := rec.Data.Clone()
		if doc == nil {
			doc = record.Document{}
		}
		doc["id"] = record.String(rec.ID)
		out = append(out, doc)
	}
	return out
}
