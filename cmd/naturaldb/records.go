package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/felix-wang-0307/NaturalDB/record"
)

// runPut inserts or replaces one record. The payload is a JSON object,
// given inline or piped on stdin.
func runPut(args []string) {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: naturaldb.yaml)")
	basePath := fs.String("base", "", "Data directory (overrides config)")
	user := fs.String("user", "", "User identifier")
	database := fs.String("db", "", "Database name")
	table := fs.String("table", "", "Table name")
	id := fs.String("id", "", "Record id (generated when empty)")
	replace := fs.Bool("replace", false, "Replace an existing record instead of failing")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *table == "" {
		fmt.Fprintln(os.Stderr, "Error: --table is required")
		os.Exit(exitUsage)
	}

	payload := ""
	if fs.NArg() > 0 {
		payload = fs.Arg(0)
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal(err)
		}
		payload = string(data)
	}

	var doc record.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		fatal(fmt.Errorf("payload is not a JSON object: %w", err))
	}

	ctx := context.Background()
	eng := openEngine(openDB(loadConfig(*configPath), *basePath), *user, *database)

	if *replace {
		if *id == "" {
			fmt.Fprintln(os.Stderr, "Error: --replace requires --id")
			os.Exit(exitUsage)
		}
		if err := eng.Upsert(ctx, *table, *id, doc); err != nil {
			fatal(err)
		}
		fmt.Println(*id)
		return
	}

	newID, err := eng.Insert(ctx, *table, *id, doc)
	if err != nil {
		fatal(err)
	}
	fmt.Println(newID)
}

// runGet prints one record as JSON.
func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: naturaldb.yaml)")
	basePath := fs.String("base", "", "Data directory (overrides config)")
	user := fs.String("user", "", "User identifier")
	database := fs.String("db", "", "Database name")
	table := fs.String("table", "", "Table name")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *table == "" || fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: naturaldb get --table <table> <id>")
		os.Exit(exitUsage)
	}

	ctx := context.Background()
	eng := openEngine(openDB(loadConfig(*configPath), *basePath), *user, *database)

	rec, err := eng.FindByID(ctx, *table, fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	printJSON(rec)
}

// runDel deletes one record.
func runDel(args []string) {
	fs := flag.NewFlagSet("del", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: naturaldb.yaml)")
	basePath := fs.String("base", "", "Data directory (overrides config)")
	user := fs.String("user", "", "User identifier")
	database := fs.String("db", "", "Database name")
	table := fs.String("table", "", "Table name")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *table == "" || fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: naturaldb del --table <table> <id>")
		os.Exit(exitUsage)
	}

	ctx := context.Background()
	eng := openEngine(openDB(loadConfig(*configPath), *basePath), *user, *database)

	if err := eng.Delete(ctx, *table, fs.Arg(0)); err != nil {
		fatal(err)
	}
	fmt.Println("deleted")
}
