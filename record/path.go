package record

import "strings"

// Lookup resolves a dot-separated field path (e.g. "specs.storage") against
// the document. The boolean result distinguishes a stored null from a
// missing field; callers must never conflate the two.
func (d Document) Lookup(path string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	if !strings.Contains(path, ".") {
		v, ok := d[path]
		return v, ok
	}

	parts := strings.Split(path, ".")
	current := d
	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return Value{}, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		current, ok = v.AsObject()
		if !ok {
			return Value{}, false
		}
	}
	return Value{}, false
}

// Set stores a value at a dot-separated field path, creating intermediate
// objects as needed. A non-object intermediate value is replaced.
func (d Document) Set(path string, v Value) {
	if !strings.Contains(path, ".") {
		d[path] = v
		return
	}

	parts := strings.Split(path, ".")
	current := d
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		obj, isObj := next.AsObject()
		if !ok || !isObj {
			obj = make(Document)
			current[part] = Object(obj)
		}
		current = obj
	}
	current[parts[len(parts)-1]] = v
}
