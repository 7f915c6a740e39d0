package naturaldb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felix-wang-0307/NaturalDB/query"
	"github.com/felix-wang-0307/NaturalDB/record"
	"github.com/felix-wang-0307/NaturalDB/storage"
)

func newTestEngine(t *testing.T, optFns ...Option) *Engine {
	t.Helper()
	ctx := context.Background()
	db := openTestDB(t, optFns...)
	require.NoError(t, db.CreateUser(ctx, "felix"))
	require.NoError(t, db.CreateDatabase(ctx, "felix", "shop", nil))
	eng, err := db.Engine("felix", "shop")
	require.NoError(t, err)
	require.NoError(t, eng.CreateTable(ctx, "products"))
	return eng
}

func laptop(brand string, price record.Value) record.Document {
	return record.Document{
		"brand": record.String(brand),
		"price": price,
	}
}

func seedLaptops(t *testing.T, eng *Engine) {
	t.Helper()
	ctx := context.Background()
	_, err := eng.Insert(ctx, "products", "l1", laptop("Sky", record.Int(999)))
	require.NoError(t, err)
	_, err = eng.Insert(ctx, "products", "l2", laptop("Stone", record.Float(1499.5)))
	require.NoError(t, err)
	_, err = eng.Insert(ctx, "products", "l3", laptop("Sky", record.Int(799)))
	require.NoError(t, err)
}

func TestInsertFindUpdateDelete(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	id, err := eng.Insert(ctx, "products", "p1", laptop("Sky", record.Int(999)))
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	rec, err := eng.FindByID(ctx, "products", "p1")
	require.NoError(t, err)
	brand, _ := rec.Data["brand"].AsString()
	assert.Equal(t, "Sky", brand)

	_, err = eng.Insert(ctx, "products", "p1", laptop("Stone", record.Int(1)))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, eng.Update(ctx, "products", "p1", laptop("Sky", record.Int(899))))
	rec, err = eng.FindByID(ctx, "products", "p1")
	require.NoError(t, err)
	price, _ := rec.Data["price"].AsInt64()
	assert.Equal(t, int64(899), price)

	err = eng.Update(ctx, "products", "ghost", laptop("Sky", record.Int(1)))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, eng.Delete(ctx, "products", "p1"))
	_, err = eng.FindByID(ctx, "products", "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertGeneratesID(t *testing.T) {
	ctx := context.Background()
	seq := 0
	eng := newTestEngine(t, WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("gen-%d", seq)
	}))

	id, err := eng.Insert(ctx, "products", "", laptop("Sky", record.Int(999)))
	require.NoError(t, err)
	assert.Equal(t, "gen-1", id)

	id, err = eng.Insert(ctx, "products", "", laptop("Stone", record.Int(1)))
	require.NoError(t, err)
	assert.Equal(t, "gen-2", id)
}

func TestInsertDoesNotShareCallerMemory(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	doc := laptop("Sky", record.Int(999))
	_, err := eng.Insert(ctx, "products", "p1", doc)
	require.NoError(t, err)

	doc["brand"] = record.String("mutated")

	rec, err := eng.FindByID(ctx, "products", "p1")
	require.NoError(t, err)
	brand, _ := rec.Data["brand"].AsString()
	assert.Equal(t, "Sky", brand)
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	require.NoError(t, eng.Upsert(ctx, "products", "p1", laptop("Sky", record.Int(999))))
	require.NoError(t, eng.Upsert(ctx, "products", "p1", laptop("Stone", record.Int(1))))

	n, err := eng.Count(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTableLifecycle(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	require.NoError(t, eng.CreateTable(ctx, "orders"))
	assert.ErrorIs(t, eng.CreateTable(ctx, "orders"), ErrAlreadyExists)

	tables, err := eng.ListTables(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"products", "orders"}, tables)

	ok, err := eng.TableExists(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, eng.DropTable(ctx, "orders"))
	ok, err = eng.TableExists(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = eng.FindAll(ctx, "orders")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindAllOrderedByID(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedLaptops(t, eng)

	recs, err := eng.FindAll(ctx, "products")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "l1", recs[0].ID)
	assert.Equal(t, "l2", recs[1].ID)
	assert.Equal(t, "l3", recs[2].ID)
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedLaptops(t, eng)

	recs, err := eng.Filter(ctx, "products", query.Eq("brand", record.String("Sky")))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	recs, err = eng.Filter(ctx, "products",
		query.Eq("brand", record.String("Sky")),
		query.Lt("price", record.Int(900)),
	)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "l3", recs[0].ID)

	_, err = eng.Filter(ctx, "products", query.Condition{Field: "brand", Operator: "like"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestFilterWithAdvisoryIndex(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	meta := storage.TableMetadata{
		Indexes: map[string]storage.IndexSpec{
			"by_brand": {Name: "by_brand", Fields: []string{"brand"}},
		},
	}
	require.NoError(t, eng.CreateTableWithMetadata(ctx, "indexed", meta))

	for i := 0; i < 10; i++ {
		brand := "Sky"
		if i%2 == 0 {
			brand = "Stone"
		}
		_, err := eng.Insert(ctx, "indexed", fmt.Sprintf("p%02d", i), laptop(brand, record.Int(int64(100*i))))
		require.NoError(t, err)
	}

	recs, err := eng.Filter(ctx, "indexed", query.Eq("brand", record.String("Sky")))
	require.NoError(t, err)
	assert.Len(t, recs, 5)

	recs, err = eng.Filter(ctx, "indexed",
		query.Eq("brand", record.String("Sky")),
		query.Gte("price", record.Int(500)),
	)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestProject(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedLaptops(t, eng)

	docs, err := eng.Project(ctx, "products", []string{"brand"})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for _, doc := range docs {
		_, hasBrand := doc["brand"]
		_, hasPrice := doc["price"]
		assert.True(t, hasBrand)
		assert.False(t, hasPrice)
	}

	docs, err = eng.Project(ctx, "products", []string{"brand"}, query.Gt("price", record.Int(1000)))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSort(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedLaptops(t, eng)

	recs, err := eng.Sort(ctx, "products", query.SortKey{Field: "price"})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "l3", recs[0].ID)
	assert.Equal(t, "l1", recs[1].ID)
	assert.Equal(t, "l2", recs[2].ID)
}

func TestGroupBy(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedLaptops(t, eng)

	docs, err := eng.GroupBy(ctx, "products", "brand",
		query.Aggregation{Name: "n", Op: query.AggCount, Field: query.WildcardField},
		query.Aggregation{Name: "cheapest", Op: query.AggMin, Field: "price"},
	)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	key, _ := docs[0]["key"].AsString()
	assert.Equal(t, "Sky", key)
	n, _ := docs[0]["n"].AsInt64()
	assert.Equal(t, int64(2), n)
	cheapest, _ := docs[0]["cheapest"].AsInt64()
	assert.Equal(t, int64(799), cheapest)
}

func TestJoin(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_, err := eng.Insert(ctx, "products", "l1", record.Document{
		"sku":   record.String("SKY-999"),
		"brand": record.String("Sky"),
	})
	require.NoError(t, err)

	require.NoError(t, eng.CreateTable(ctx, "orders"))
	_, err = eng.Insert(ctx, "orders", "o1", record.Document{
		"sku": record.String("SKY-999"),
		"qty": record.Int(2),
	})
	require.NoError(t, err)
	_, err = eng.Insert(ctx, "orders", "o2", record.Document{
		"sku": record.String("GHOST-1"),
		"qty": record.Int(1),
	})
	require.NoError(t, err)

	docs, err := eng.Join(ctx, query.JoinInner, "orders", "products", "sku", "sku")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	left, ok := docs[0][query.LeftAlias].AsObject()
	require.True(t, ok)
	qty, _ := left["qty"].AsInt64()
	assert.Equal(t, int64(2), qty)

	right, ok := docs[0][query.RightAlias].AsObject()
	require.True(t, ok)
	brand, _ := right["brand"].AsString()
	assert.Equal(t, "Sky", brand)

	docs, err = eng.Join(ctx, query.JoinLeft, "orders", "products", "sku", "sku")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, record.KindNull, docs[1][query.RightAlias].Kind())
}

func TestTableBuilderPipeline(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedLaptops(t, eng)

	builder, err := eng.Table(ctx, "products")
	require.NoError(t, err)

	docs, err := builder.
		Filter(query.Eq("brand", record.String("Sky"))).
		Sort(query.SortKey{Field: "price", Descending: true}).
		Limit(1).
		ToDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	id, _ := docs[0]["id"].AsString()
	assert.Equal(t, "l1", id)

	// The original builder is untouched by the chain above.
	n, err := builder.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestImportExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	input := `[
		{"id": "p1", "brand": "Sky", "price": 999},
		{"brand": "Stone", "price": 1499.5}
	]`
	n, err := eng.ImportJSON(ctx, "products", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec, err := eng.FindByID(ctx, "products", "p1")
	require.NoError(t, err)
	price, ok := rec.Data["price"].AsInt64()
	require.True(t, ok)
	assert.Equal(t, int64(999), price)

	var buf bytes.Buffer
	require.NoError(t, eng.ExportJSON(ctx, "products", &buf, false))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	for _, doc := range out {
		assert.Contains(t, doc, "id")
		assert.Contains(t, doc, "brand")
	}
}

func TestImportSingleObject(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	n, err := eng.ImportJSON(ctx, "products", strings.NewReader(`{"id": "p9", "brand": "Pine"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := eng.FindByID(ctx, "products", "p9")
	require.NoError(t, err)
	brand, _ := rec.Data["brand"].AsString()
	assert.Equal(t, "Pine", brand)
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_, err := eng.ImportJSON(ctx, "products", strings.NewReader(`"just a string"`))
	assert.ErrorIs(t, err, ErrSerialization)

	_, err = eng.ImportJSON(ctx, "products", strings.NewReader(`["not an object"]`))
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestImportStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_, err := eng.Insert(ctx, "products", "dup", laptop("Sky", record.Int(1)))
	require.NoError(t, err)

	input := `[
		{"id": "a", "brand": "Sky"},
		{"id": "dup", "brand": "Stone"},
		{"id": "b", "brand": "Pine"}
	]`
	n, err := eng.ImportJSON(ctx, "products", strings.NewReader(input))
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 1, n)

	total, err := eng.Count(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestMetricsCollected(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	eng := newTestEngine(t, WithMetricsCollector(metrics))
	seedLaptops(t, eng)

	_, err := eng.Filter(ctx, "products", query.Eq("brand", record.String("Sky")))
	require.NoError(t, err)
	require.NoError(t, eng.Delete(ctx, "products", "l1"))

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.InsertCount)
	assert.Equal(t, int64(1), stats.DeleteCount)
	assert.GreaterOrEqual(t, stats.QueryCount, int64(1))
}
