package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felix-wang-0307/NaturalDB/record"
)

func laptops() []record.Record {
	return []record.Record{
		{ID: "l1", Data: record.Document{
			"name":  record.String("Aero 14"),
			"brand": record.String("Sky"),
			"price": record.Int(999),
			"specs": record.Object(record.Document{
				"storage": record.Int(512),
				"ram":     record.Int(16),
			}),
		}},
		{ID: "l2", Data: record.Document{
			"name":  record.String("Brick 17"),
			"brand": record.String("Stone"),
			"price": record.Float(1499.5),
			"specs": record.Object(record.Document{
				"storage": record.Int(1024),
				"ram":     record.Int(32),
			}),
		}},
		{ID: "l3", Data: record.Document{
			"name":  record.String("Clip 13"),
			"brand": record.String("Sky"),
			"price": record.Int(799),
		}},
	}
}

func ids(records []record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFilterOperators(t *testing.T) {
	recs := laptops()

	tests := []struct {
		name string
		cond Condition
		want []string
	}{
		{"eq string", Eq("brand", record.String("Sky")), []string{"l1", "l3"}},
		{"eq cross-numeric", Eq("price", record.Float(999)), []string{"l1"}},
		{"ne", Ne("brand", record.String("Sky")), []string{"l2"}},
		{"gt", Gt("price", record.Int(900)), []string{"l1", "l2"}},
		{"gte boundary", Gte("price", record.Int(999)), []string{"l1", "l2"}},
		{"lt", Lt("price", record.Int(999)), []string{"l3"}},
		{"lte boundary", Lte("price", record.Int(999)), []string{"l1", "l3"}},
		{"nested path", Gte("specs.storage", record.Int(1024)), []string{"l2"}},
		{"in", In("brand", record.String("Stone"), record.String("Marble")), []string{"l2"}},
		{"nin", NotIn("brand", record.String("Sky")), []string{"l2"}},
		{"contains", Contains("name", "ri"), []string{"l2"}},
		{"contains non-string field", Contains("price", "9"), nil},
		// l3 has no specs: comparison operators exclude it, nin includes it.
		{"missing field comparison", Gt("specs.ram", record.Int(0)), []string{"l1", "l2"}},
		{"missing field nin", NotIn("specs.ram", record.Int(16)), []string{"l2", "l3"}},
		{"missing field in", In("specs.ram", record.Int(16)), []string{"l1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(recs, tt.cond)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, ids(got))
			}
		})
	}
}

func TestFilterValidation(t *testing.T) {
	recs := laptops()

	_, err := Filter(recs, Condition{Field: "price", Operator: "regex", Value: record.String(".*")})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = Filter(recs, Condition{Field: "brand", Operator: OpIn, Value: record.String("Sky")})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestFilterConjunction(t *testing.T) {
	got, err := Filter(laptops(),
		Eq("brand", record.String("Sky")),
		Lt("price", record.Int(900)),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"l3"}, ids(got))
}

func TestFilterBy(t *testing.T) {
	got := FilterBy(laptops(), record.Document{
		"brand":     record.String("Sky"),
		"specs.ram": record.Int(16),
	})
	assert.Equal(t, []string{"l1"}, ids(got))
}

func TestFilterFunc(t *testing.T) {
	got := FilterFunc(laptops(), func(r record.Record) bool {
		return r.ID != "l2"
	})
	assert.Equal(t, []string{"l1", "l3"}, ids(got))
}

func TestProjectNestedFields(t *testing.T) {
	docs := Project(laptops(), []string{"name", "specs.storage"})
	require.Len(t, docs, 3)

	v, ok := docs[0].Lookup("specs.storage")
	require.True(t, ok)
	assert.True(t, v.Equal(record.Int(512)))
	_, ok = docs[0].Lookup("price")
	assert.False(t, ok)

	// l3 has no specs: the field is omitted, not an error.
	_, ok = docs[2].Lookup("specs.storage")
	assert.False(t, ok)
	v, ok = docs[2].Lookup("name")
	require.True(t, ok)
	assert.True(t, v.Equal(record.String("Clip 13")))
}

func TestSortNullsFirstBothDirections(t *testing.T) {
	recs := laptops() // l3 misses specs.ram

	asc := Sort(recs, SortKey{Field: "specs.ram"})
	assert.Equal(t, []string{"l3", "l1", "l2"}, ids(asc))

	desc := Sort(recs, SortKey{Field: "specs.ram", Descending: true})
	assert.Equal(t, []string{"l3", "l2", "l1"}, ids(desc))

	// The input order is untouched.
	assert.Equal(t, []string{"l1", "l2", "l3"}, ids(recs))
}

func TestSortMultiKeyStable(t *testing.T) {
	recs := Sort(laptops(),
		SortKey{Field: "brand"},
		SortKey{Field: "price", Descending: true},
	)
	assert.Equal(t, []string{"l1", "l3", "l2"}, ids(recs))

	// Equal keys keep their input order.
	same := Sort(laptops(), SortKey{Field: "brand"})
	assert.Equal(t, []string{"l1", "l3", "l2"}, ids(same))
}

func TestLimitAndOffset(t *testing.T) {
	recs := laptops()

	assert.Equal(t, []string{"l1", "l2"}, ids(Limit(recs, 0, 2)))
	assert.Equal(t, []string{"l2", "l3"}, ids(Limit(recs, 1, -1)))
	assert.Empty(t, Limit(recs, 5, 2))
	assert.Equal(t, []string{"l3"}, ids(Limit(recs, 2, 10)))
}

func TestGroupBy(t *testing.T) {
	groups := GroupBy(laptops(), "brand")
	require.Len(t, groups, 2)
	assert.True(t, groups[0].Key.Equal(record.String("Sky")))
	assert.Equal(t, []string{"l1", "l3"}, ids(groups[0].Records))
	assert.True(t, groups[1].Key.Equal(record.String("Stone")))

	// Missing field lands in one null-keyed group.
	groups = GroupBy(laptops(), "specs.ram")
	require.Len(t, groups, 3)
	assert.True(t, groups[2].Key.IsNull())
	assert.Equal(t, []string{"l3"}, ids(groups[2].Records))
}

func TestAggregate(t *testing.T) {
	recs := laptops()

	count, err := Aggregate(recs, AggCount, WildcardField)
	require.NoError(t, err)
	assert.True(t, count.Equal(record.Int(3)))

	// Named-field count counts present values only.
	count, err = Aggregate(recs, AggCount, "specs.ram")
	require.NoError(t, err)
	assert.True(t, count.Equal(record.Int(2)))

	sum, err := Aggregate(recs, AggSum, "price")
	require.NoError(t, err)
	f, ok := sum.AsFloat64()
	require.True(t, ok)
	assert.InDelta(t, 3297.5, f, 1e-9)

	avg, err := Aggregate(recs, AggAvg, "price")
	require.NoError(t, err)
	f, _ = avg.AsFloat64()
	assert.InDelta(t, 3297.5/3, f, 1e-9)

	min, err := Aggregate(recs, AggMin, "price")
	require.NoError(t, err)
	assert.True(t, min.Equal(record.Int(799)))

	max, err := Aggregate(recs, AggMax, "price")
	require.NoError(t, err)
	assert.True(t, max.Equal(record.Float(1499.5)))

	// Integer-only sums stay integers.
	sum, err = Aggregate(recs, AggSum, "specs.ram")
	require.NoError(t, err)
	assert.Equal(t, record.KindInt, sum.Kind())
	assert.True(t, sum.Equal(record.Int(48)))

	// Non-numeric values are skipped; nothing numeric means null.
	null, err := Aggregate(recs, AggSum, "name")
	require.NoError(t, err)
	assert.True(t, null.IsNull())

	_, err = Aggregate(recs, "median", "price")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestGroupAggregate(t *testing.T) {
	docs, err := GroupAggregate(laptops(), "brand", []Aggregation{
		{Name: "models", Op: AggCount, Field: WildcardField},
		{Name: "cheapest", Op: AggMin, Field: "price"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	key, _ := docs[0].Lookup("key")
	assert.True(t, key.Equal(record.String("Sky")))
	models, _ := docs[0].Lookup("models")
	assert.True(t, models.Equal(record.Int(2)))
	cheapest, _ := docs[0].Lookup("cheapest")
	assert.True(t, cheapest.Equal(record.Int(799)))

	_, err = GroupAggregate(laptops(), "brand", []Aggregation{{Op: AggCount, Field: WildcardField}})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	// An aggregation named like the group key would overwrite it.
	_, err = GroupAggregate(laptops(), "brand", []Aggregation{
		{Name: GroupKeyField, Op: AggCount, Field: WildcardField},
	})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestJoin(t *testing.T) {
	orders := []record.Record{
		{ID: "o1", Data: record.Document{"id": record.Int(1), "pid": record.Int(10)}},
		{ID: "o2", Data: record.Document{"id": record.Int(2), "pid": record.Int(99)}},
		{ID: "o3", Data: record.Document{"id": record.Int(3)}},
	}
	products := []record.Record{
		{ID: "p1", Data: record.Document{"id": record.Int(10), "name": record.String("X")}},
		{ID: "p2", Data: record.Document{"id": record.Int(10), "name": record.String("X refurbished")}},
	}

	inner, err := Join(JoinInner, orders, products, "pid", "id")
	require.NoError(t, err)
	// o1 matches both products, o2 and o3 match nothing.
	require.Len(t, inner, 2)
	for _, doc := range inner {
		left, _ := doc.Lookup("left.pid")
		assert.True(t, left.Equal(record.Int(10)))
	}
	name, ok := inner[1].Lookup("right.name")
	require.True(t, ok)
	assert.True(t, name.Equal(record.String("X refurbished")))

	left, err := Join(JoinLeft, orders, products, "pid", "id")
	require.NoError(t, err)
	require.Len(t, left, 4)
	// Unmatched left rows keep a null right side, they are not dropped.
	rhs, ok := left[2].Lookup("right")
	require.True(t, ok)
	assert.True(t, rhs.IsNull())
	rhs, ok = left[3].Lookup("right")
	require.True(t, ok)
	assert.True(t, rhs.IsNull())

	_, err = Join("outer", orders, products, "pid", "id")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestToDocuments(t *testing.T) {
	docs := ToDocuments(laptops()[:1])
	require.Len(t, docs, 1)
	id, ok := docs[0].Lookup("id")
	require.True(t, ok)
	assert.True(t, id.Equal(record.String("l1")))
	name, ok := docs[0].Lookup("name")
	require.True(t, ok)
	assert.True(t, name.Equal(record.String("Aero 14")))
}
