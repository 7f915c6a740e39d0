package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/felix-wang-0307/NaturalDB/query"
	"github.com/felix-wang-0307/NaturalDB/record"
)

// runQuery filters, sorts, slices and projects a table.
func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: naturaldb.yaml)")
	basePath := fs.String("base", "", "Data directory (overrides config)")
	user := fs.String("user", "", "User identifier")
	database := fs.String("db", "", "Database name")
	table := fs.String("table", "", "Table name")
	where := fs.StringArray("where", nil, "Condition field:op:value (op: eq ne gt gte lt lte in nin contains)")
	sortKeys := fs.StringArray("sort", nil, "Sort key field[:desc]")
	limit := fs.Int("limit", -1, "Maximum number of records")
	skip := fs.Int("skip", 0, "Records to skip")
	project := fs.StringSlice("project", nil, "Fields to project (dot-paths)")
	count := fs.Bool("count", false, "Print the result count only")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: naturaldb query --user <u> --db <d> --table <t> [options]

Examples:
  naturaldb query --table products --where 'price:lt:1000'
  naturaldb query --table products --where 'brand:eq:"Sky"' --sort price:desc --limit 5
  naturaldb query --table products --project name,specs.storage

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *table == "" {
		fs.Usage()
		os.Exit(exitUsage)
	}

	ctx := context.Background()
	eng := openEngine(openDB(loadConfig(*configPath), *basePath), *user, *database)

	builder, err := eng.Table(ctx, *table)
	if err != nil {
		fatal(err)
	}

	conds := make([]query.Condition, 0, len(*where))
	for _, w := range *where {
		cond, err := parseCondition(w)
		if err != nil {
			fatal(err)
		}
		conds = append(conds, cond)
	}
	if len(conds) > 0 {
		builder = builder.Filter(conds...)
	}

	keys := make([]query.SortKey, 0, len(*sortKeys))
	for _, s := range *sortKeys {
		field, dir, _ := strings.Cut(s, ":")
		keys = append(keys, query.SortKey{Field: field, Descending: dir == "desc"})
	}
	if len(keys) > 0 {
		builder = builder.Sort(keys...)
	}

	if *skip > 0 {
		builder = builder.Skip(*skip)
	}
	if *limit >= 0 {
		builder = builder.Limit(*limit)
	}

	switch {
	case *count:
		n, err := builder.Count()
		if err != nil {
			fatal(err)
		}
		fmt.Println(n)
	case len(*project) > 0:
		docs, err := builder.Select(*project...)
		if err != nil {
			fatal(err)
		}
		printJSON(docs)
	default:
		docs, err := builder.ToDocuments()
		if err != nil {
			fatal(err)
		}
		printJSON(docs)
	}
}

// parseCondition turns "field:op:value" into a condition. The value is
// JSON; a bare word that is not valid JSON is taken as a string.
func parseCondition(s string) (query.Condition, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return query.Condition{}, fmt.Errorf("condition %q is not field:op:value", s)
	}
	return query.Condition{
		Field:    parts[0],
		Operator: query.Operator(parts[1]),
		Value:    parseValue(parts[2]),
	}, nil
}

func parseValue(s string) record.Value {
	var v record.Value
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		// Bare words read as strings: brand:eq:Sky works without
		// shell-escaped quotes.
		return record.String(s)
	}
	return v
}
