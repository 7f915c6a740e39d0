// Package naturaldb is a lightweight document store that keeps every
// record as one JSON file on disk, organized as user/database/table
// directory trees, with an in-memory query engine on top.
//
// The storage layer guards every directory subtree with reader/writer
// locks and replaces files atomically, so concurrent readers never see
// partial writes. Queries load a table once and transform the record
// sequence in memory: filtering, projection, sorting, grouping with
// aggregation, and joins, either as one-shot calls or through a
// chainable builder.
//
//	db, _ := naturaldb.Open("./data")
//	_ = db.CreateUser(ctx, "felix")
//	_ = db.CreateDatabase(ctx, "felix", "shop", nil)
//	eng, _ := db.Engine("felix", "shop")
//	_ = eng.CreateTable(ctx, "products")
//	id, _ := eng.Insert(ctx, "products", "", record.Document{
//		"name":  record.String("Widget"),
//		"price": record.Int(999),
//	})
//
//	cheap, _ := eng.Table(ctx, "products")
//	recs, _ := cheap.Filter(query.Lt("price", record.Int(1000))).All()
package naturaldb
