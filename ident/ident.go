// Package ident sanitizes user-supplied identifiers (user ids, database,
// table and record names) into filesystem-safe path segments.
//
// Sanitization is deterministic and injective: two different raw
// identifiers never produce the same token, because unsafe characters are
// escaped rather than stripped. Inputs that could escape the parent
// directory are rejected outright.
package ident

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLength is the maximum accepted length of a raw identifier in bytes.
const MaxLength = 128

// ErrInvalidIdentifier is returned when a raw identifier cannot be
// sanitized into a safe path segment.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// reserved path segments that would collide with files the storage engine
// manages itself. "metadata.json" sanitizes to itself, so accepting it
// would resolve an identifier onto the parent's own metadata file.
var reserved = map[string]struct{}{
	"metadata":      {},
	"metadata.json": {},
}

// Sanitize turns a raw identifier into a filesystem-safe token.
//
// Accepted characters pass through unchanged: ASCII letters, digits, '_',
// '-' and non-leading '.'. Every other byte is escaped as %XX, with '%'
// itself escaped, which makes the mapping injective.
//
// Rejected with ErrInvalidIdentifier: empty input, input longer than
// MaxLength, path separators, NUL bytes, a leading dot (".." would resolve
// outside the parent directory) and reserved segments.
func Sanitize(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if len(raw) > MaxLength {
		return "", fmt.Errorf("%w: length %d exceeds %d", ErrInvalidIdentifier, len(raw), MaxLength)
	}
	if strings.ContainsAny(raw, "/\\\x00") {
		return "", fmt.Errorf("%w: %q contains a path separator or NUL", ErrInvalidIdentifier, raw)
	}
	if raw[0] == '.' {
		return "", fmt.Errorf("%w: %q has a leading dot", ErrInvalidIdentifier, raw)
	}
	if _, ok := reserved[raw]; ok {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidIdentifier, raw)
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if safeByte(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteString(fmt.Sprintf("%%%02X", c))
	}
	return sb.String(), nil
}

// Restore inverts Sanitize, decoding %XX escapes back into the raw
// identifier. It is used to recover raw names from directory listings.
func Restore(token string) (string, error) {
	if !strings.Contains(token, "%") {
		return token, nil
	}
	var sb strings.Builder
	sb.Grow(len(token))
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		if i+2 >= len(token) {
			return "", fmt.Errorf("%w: truncated escape in %q", ErrInvalidIdentifier, token)
		}
		hi, ok1 := unhex(token[i+1])
		lo, ok2 := unhex(token[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("%w: malformed escape in %q", ErrInvalidIdentifier, token)
		}
		sb.WriteByte(hi<<4 | lo)
		i += 2
	}
	return sb.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

func safeByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-' || c == '.':
		return true
	default:
		return false
	}
}
