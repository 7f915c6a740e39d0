// Command naturaldb is the command-line interface to a NaturalDB store:
// creating users, databases and tables, reading and writing records,
// running queries, and moving data in and out via JSON files and
// backup archives.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	naturaldb "github.com/felix-wang-0307/NaturalDB"
	"github.com/felix-wang-0307/NaturalDB/blobstore"
	blobminio "github.com/felix-wang-0307/NaturalDB/blobstore/minio"
	blobs3 "github.com/felix-wang-0307/NaturalDB/blobstore/s3"
	"github.com/felix-wang-0307/NaturalDB/config"
)

const (
	exitUsage    = 2
	exitConfig   = 3
	exitDatabase = 4
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: naturaldb <command> [options]

Commands:
  init      Create a user and database
  tables    List, create or drop tables
  put       Insert or replace a record
  get       Read a record by id
  del       Delete a record
  query     Filter, sort and project records
  import    Import a JSON array of documents into a table
  export    Export a table as a JSON array
  backup    Archive a database to the backup store
  restore   Recreate a database from an archive
  backups   List archives of a database

Run 'naturaldb <command> --help' for command options.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "init":
		runInit(args)
	case "tables":
		runTables(args)
	case "put":
		runPut(args)
	case "get":
		runGet(args)
	case "del":
		runDel(args)
	case "query":
		runQuery(args)
	case "import":
		runImport(args)
	case "export":
		runExport(args)
	case "backup":
		runBackup(args)
	case "restore":
		runRestore(args)
	case "backups":
		runBackups(args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", cmd)
		usage()
		os.Exit(exitUsage)
	}
}

// loadConfig reads the configuration file, falling back to defaults
// when none exists.
func loadConfig(path string) config.Config {
	if path == "" {
		path = "naturaldb.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.Default()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitConfig)
	}
	return cfg
}

func openDB(cfg config.Config, basePath string) *naturaldb.DB {
	if basePath == "" {
		basePath = cfg.BasePath
	}
	db, err := naturaldb.Open(basePath, cfg.Options()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitDatabase)
	}
	return db
}

func openEngine(db *naturaldb.DB, user, database string) *naturaldb.Engine {
	if user == "" || database == "" {
		fmt.Fprintln(os.Stderr, "Error: --user and --db are required")
		os.Exit(exitUsage)
	}
	eng, err := db.Engine(user, database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitDatabase)
	}
	return eng
}

// blobStore builds the backup backend named by the configuration.
func blobStore(ctx context.Context, cfg config.BackupConfig) (blobstore.Store, error) {
	switch cfg.Backend {
	case "", "local":
		dir := cfg.Dir
		if dir == "" {
			dir = "./backups"
		}
		return blobstore.NewLocalStore(dir)
	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return blobminio.NewStore(client, cfg.Bucket, cfg.Prefix), nil
	case "s3":
		return blobs3.NewStoreFromDefaultConfig(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown backup backend %q", cfg.Backend)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
