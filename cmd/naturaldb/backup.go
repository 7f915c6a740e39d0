package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/felix-wang-0307/NaturalDB/backup"
)

// runBackup archives one database to the configured backup backend.
func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: naturaldb.yaml)")
	basePath := fs.String("base", "", "Data directory (overrides config)")
	user := fs.String("user", "", "User identifier")
	database := fs.String("db", "", "Database name")
	compression := fs.String("compression", "zstd", "Archive compression: zstd, lz4 or none")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *user == "" || *database == "" {
		fmt.Fprintln(os.Stderr, "Error: --user and --db are required")
		os.Exit(exitUsage)
	}

	var comp backup.Compression
	switch *compression {
	case "zstd":
		comp = backup.CompressionZstd
	case "lz4":
		comp = backup.CompressionLZ4
	case "none":
		comp = backup.CompressionNone
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown compression %q\n", *compression)
		os.Exit(exitUsage)
	}

	ctx := context.Background()
	cfg := loadConfig(*configPath)
	db := openDB(cfg, *basePath)

	blobs, err := blobStore(ctx, cfg.Backup)
	if err != nil {
		fatal(err)
	}

	name, err := db.BackupManager(blobs).Backup(ctx, *user, *database, comp)
	if err != nil {
		fatal(err)
	}
	fmt.Println(name)
}

// runRestore recreates a database from an archive. The target database
// must not exist.
func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: naturaldb.yaml)")
	basePath := fs.String("base", "", "Data directory (overrides config)")
	user := fs.String("user", "", "User to restore into")
	database := fs.String("db", "", "Database name to restore as")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *user == "" || *database == "" || fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: naturaldb restore --user <u> --db <d> <archive>")
		os.Exit(exitUsage)
	}

	ctx := context.Background()
	cfg := loadConfig(*configPath)
	db := openDB(cfg, *basePath)

	blobs, err := blobStore(ctx, cfg.Backup)
	if err != nil {
		fatal(err)
	}

	if err := db.BackupManager(blobs).Restore(ctx, fs.Arg(0), *user, *database); err != nil {
		fatal(err)
	}
	fmt.Println("restored")
}

// runBackups lists the archives of one database, oldest first.
func runBackups(args []string) {
	fs := flag.NewFlagSet("backups", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: naturaldb.yaml)")
	basePath := fs.String("base", "", "Data directory (overrides config)")
	user := fs.String("user", "", "User identifier")
	database := fs.String("db", "", "Database name")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *user == "" || *database == "" {
		fmt.Fprintln(os.Stderr, "Error: --user and --db are required")
		os.Exit(exitUsage)
	}

	ctx := context.Background()
	cfg := loadConfig(*configPath)
	db := openDB(cfg, *basePath)

	blobs, err := blobStore(ctx, cfg.Backup)
	if err != nil {
		fatal(err)
	}

	manifests, err := db.BackupManager(blobs).List(ctx, *user, *database)
	if err != nil {
		fatal(err)
	}
	printJSON(manifests)
}
