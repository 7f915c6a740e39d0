package main

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"
)

// runTables lists tables, or creates/drops one.
func runTables(args []string) {
	fs := flag.NewFlagSet("tables", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: naturaldb.yaml)")
	basePath := fs.String("base", "", "Data directory (overrides config)")
	user := fs.String("user", "", "User identifier")
	database := fs.String("db", "", "Database name")
	create := fs.String("create", "", "Create a table with this name")
	drop := fs.String("drop", "", "Drop the table with this name")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	ctx := context.Background()
	eng := openEngine(openDB(loadConfig(*configPath), *basePath), *user, *database)

	switch {
	case *create != "":
		if err := eng.CreateTable(ctx, *create); err != nil {
			fatal(err)
		}
		fmt.Printf("created table %s\n", *create)
	case *drop != "":
		if err := eng.DropTable(ctx, *drop); err != nil {
			fatal(err)
		}
		fmt.Printf("dropped table %s\n", *drop)
	default:
		tables, err := eng.ListTables(ctx)
		if err != nil {
			fatal(err)
		}
		for _, t := range tables {
			fmt.Println(t)
		}
	}
}
