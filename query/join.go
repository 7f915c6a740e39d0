package query

import (
	"fmt"

	"github.com/felix-wang-0307/NaturalDB/record"
)

// JoinType selects the join behavior for unmatched left rows.
type JoinType string

const (
	// JoinInner drops left records with no matching right record.
	JoinInner JoinType = "inner"
	// JoinLeft keeps unmatched left records with a null right side.
	JoinLeft JoinType = "left"
)

// Default aliases for the two sides of a join result document.
const (
	LeftAlias  = "left"
	RightAlias = "right"
)

// Join matches left records against right records on field equality and
// returns one document per pair, with the left payload under LeftAlias
// and the right payload under RightAlias. A left record whose join field
// matches several right records produces several documents.
//
// Records missing their join field never match; under JoinLeft an
// unmatched left record is kept with a null right side.
func Join(typ JoinType, left, right []record.Record, leftField, rightField string) ([]record.Document, error) {
	if typ != JoinInner && typ != JoinLeft {
		return nil, fmt.Errorf("%w: unsupported join type %q", ErrInvalidQuery, typ)
	}

	lookup := map[string][]record.Record{}
	for _, rec := range right {
		v, ok := rec.Data.Lookup(rightField)
		if !ok {
			continue
		}
		key := v.Key()
		lookup[key] = append(lookup[key], rec)
	}

	out := []record.Document{}
	for _, lrec := range left {
		var matches []record.Record
		if v, ok := lrec.Data.Lookup(leftField); ok {
			matches = lookup[v.Key()]
		}
		if len(matches) == 0 {
			if typ == JoinLeft {
				out = append(out, record.Document{
					LeftAlias:  record.Object(lrec.Data.Clone()),
					RightAlias: record.Null(),
				})
			}
			continue
		}
		for _, rrec := range matches {
			out = append(out, record.Document{
				LeftAlias:  record.Object(lrec.Data.Clone()),
				RightAlias: record.Object(rrec.Data.Clone()),
			})
		}
	}
	return out, nil
}
