package record

// Record is the unit of stored data: an immutable identifier plus a
// schemaless payload. The identifier is assigned at insert time and never
// changes; the payload is fully replaceable on update.
type Record struct {
	ID   string   `json:"id"`
	Data Document `json:"data"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	return Record{ID: r.ID, Data: r.Data.Clone()}
}

// Field resolves a dot-separated field path against the record payload.
func (r Record) Field(path string) (Value, bool) {
	return r.Data.Lookup(path)
}
