package query

import (
	"fmt"

	"github.com/felix-wang-0307/NaturalDB/record"
)

// AggregateOp names an aggregation function.
type AggregateOp string

const (
	// AggCount counts rows; with the wildcard field it counts every row
	// regardless of field presence.
	AggCount AggregateOp = "count"
	// AggSum sums numeric field values.
	AggSum AggregateOp = "sum"
	// AggAvg averages numeric field values.
	AggAvg AggregateOp = "avg"
	// AggMin takes the minimum numeric field value.
	AggMin AggregateOp = "min"
	// AggMax takes the maximum numeric field value.
	AggMax AggregateOp = "max"
)

// WildcardField makes a count aggregation count rows instead of values.
const WildcardField = "*"

// Aggregation requests one named aggregate over a field within a group.
type Aggregation struct {
	Name  string
	Op    AggregateOp
	Field string
}

// Group is one partition of a grouped record sequence.
type Group struct {
	Key     record.Value
	Records []record.Record
}

// GroupBy partitions records by the value of one field. Records missing
// the field land in a single null-keyed group. Groups appear in order of
// first appearance, so grouping is deterministic for a given input order.
func GroupBy(records []record.Record, field string) []Group {
	index := map[string]int{}
	groups := []Group{}
	for _, rec := range records {
		key, ok := rec.Data.Lookup(field)
		if !ok {
			key = record.Null()
		}
		mapKey := key.Key()
		i, seen := index[mapKey]
		if !seen {
			i = len(groups)
			index[mapKey] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

// Aggregate computes one aggregate over a record sequence. Values that
// are missing or non-numeric are skipped for sum/avg/min/max; when no
// numeric value remains the result is null. Count with the wildcard
// field counts rows; with a named field it counts present values.
func Aggregate(records []record.Record, op AggregateOp, field string) (record.Value, error) {
	if op == AggCount {
		if field == WildcardField {
			return record.Int(int64(len(records))), nil
		}
		n := 0
		for _, rec := range records {
			if _, ok := rec.Data.Lookup(field); ok {
				n++
			}
		}
		return record.Int(int64(n)), nil
	}

	switch op {
	case AggSum, AggAvg, AggMin, AggMax:
	default:
		return record.Null(), fmt.Errorf("%w: unsupported aggregation %q", ErrInvalidQuery, op)
	}

	values := make([]record.Value, 0, len(records))
	for _, rec := range records {
		v, ok := rec.Data.Lookup(field)
		if !ok || !v.IsNumber() {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return record.Null(), nil
	}

	switch op {
	case AggSum:
		return sumValues(values), nil
	case AggAvg:
		sum, _ := sumValues(values).AsFloat64()
		return record.Float(sum / float64(len(values))), nil
	case AggMin:
		min := values[0]
		for _, v := range values[1:] {
			if record.Compare(v, min) < 0 {
				min = v
			}
		}
		return min, nil
	default: // AggMax
		max := values[0]
		for _, v := range values[1:] {
			if record.Compare(v, max) > 0 {
				max = v
			}
		}
		return max, nil
	}
}

// sumValues keeps integer sums exact; the first float switches the
// accumulation to float.
func sumValues(values []record.Value) record.Value {
	var i64 int64
	var f64 float64
	isFloat := false
	for _, v := range values {
		if n, ok := v.AsInt64(); ok && !isFloat {
			i64 += n
			continue
		}
		if !isFloat {
			isFloat = true
			f64 = float64(i64)
		}
		f, _ := v.AsFloat64()
		f64 += f
	}
	if isFloat {
		return record.Float(f64)
	}
	return record.Int(i64)
}

// GroupKeyField is the document field holding the group key in
// GroupAggregate results. Aggregations may not reuse it as their name.
const GroupKeyField = "key"

// GroupAggregate groups records by field and computes each requested
// aggregation within every group. Each result document carries the group
// key under GroupKeyField plus one entry per aggregation name.
func GroupAggregate(records []record.Record, field string, aggs []Aggregation) ([]record.Document, error) {
	for _, agg := range aggs {
		if agg.Name == "" {
			return nil, fmt.Errorf("%w: aggregation needs a name", ErrInvalidQuery)
		}
		if agg.Name == GroupKeyField {
			return nil, fmt.Errorf("%w: aggregation name %q collides with the group key", ErrInvalidQuery, agg.Name)
		}
	}
	groups := GroupBy(records, field)
	out := make([]record.Document, 0, len(groups))
	for _, g := range groups {
		doc := record.Document{GroupKeyField: g.Key}
		for _, agg := range aggs {
			v, err := Aggregate(g.Records, agg.Op, agg.Field)
			if err != nil {
				return nil, err
			}
			doc[agg.Name] = v
		}
		out = append(out, doc)
	}
	return out, nil
}
