package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// A backup listing prefix ends in a slash to mark the database
// boundary; the object key must keep it so "u/d/" never matches the
// archives of "u/dx/".
func TestKeyKeepsTrailingSlash(t *testing.T) {
	s := NewStore(nil, "bucket", "backups")

	assert.Equal(t, "backups/u/d/", s.key("u/d/"))
	assert.Equal(t, "backups/u/d/a.tar.zst", s.key("u/d/a.tar.zst"))
}

func TestKeyWithoutRootPrefix(t *testing.T) {
	s := NewStore(nil, "bucket", "")

	assert.Equal(t, "u/d/", s.key("u/d/"))
	assert.Equal(t, "u/d/a.tar.zst", s.key("u/d/a.tar.zst"))
}
