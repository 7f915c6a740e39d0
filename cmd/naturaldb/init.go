package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	naturaldb "github.com/felix-wang-0307/NaturalDB"
)

// runInit creates a user and database, tolerating ones that already
// exist so the command is safe to re-run.
func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: naturaldb.yaml)")
	basePath := fs.String("base", "", "Data directory (overrides config)")
	user := fs.String("user", "", "User identifier")
	database := fs.String("db", "", "Database name")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	if *user == "" {
		fmt.Println("Error: --user is required")
		return
	}

	ctx := context.Background()
	db := openDB(loadConfig(*configPath), *basePath)

	if err := db.CreateUser(ctx, *user); err != nil && !errors.Is(err, naturaldb.ErrAlreadyExists) {
		fatal(err)
	}
	if *database != "" {
		if err := db.CreateDatabase(ctx, *user, *database, nil); err != nil && !errors.Is(err, naturaldb.ErrAlreadyExists) {
			fatal(err)
		}
	}
	fmt.Println("initialized")
}
