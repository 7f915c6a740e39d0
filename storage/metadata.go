package storage

import "github.com/felix-wang-0307/NaturalDB/record"

const (
	metadataFileName = "metadata.json"
	recordExt        = ".json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// UserMetadata describes a user and the databases it owns.
type UserMetadata struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Databases []string `json:"databases"`
}

// DatabaseMetadata describes a database and the tables it owns.
//
// The table list is updated under the database write lock together with
// the directory operation that changes the child set, so it always
// reflects the persisted tables.
type DatabaseMetadata struct {
	Name     string          `json:"name"`
	Tables   []string        `json:"tables"`
	Settings record.Document `json:"settings,omitempty"`
}

// IndexSpec declares an advisory index over one or more fields.
//
// Indexes are not backed by an on-disk structure; the query engine may
// use them to build in-memory posting lists when scanning a table.
type IndexSpec struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// TableMetadata describes a table: its declared keys and advisory indexes.
type TableMetadata struct {
	Name    string               `json:"name"`
	Keys    []string             `json:"keys,omitempty"`
	Indexes map[string]IndexSpec `json:"indexes,omitempty"`
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	out := list[:0]
	for _, item := range list {
		if item != s {
			out = append(out, item)
		}
	}
	return out
}
