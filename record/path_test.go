package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentLookup(t *testing.T) {
	doc := Document{
		"name":  String("Laptop"),
		"specs": Object(Document{"storage": String("1TB"), "dims": Object(Document{"w": Int(30)})}),
		"none":  Null(),
	}

	tests := []struct {
		path   string
		want   Value
		wantOK bool
	}{
		{path: "name", want: String("Laptop"), wantOK: true},
		{path: "specs.storage", want: String("1TB"), wantOK: true},
		{path: "specs.dims.w", want: Int(30), wantOK: true},
		{path: "none", want: Null(), wantOK: true},
		{path: "missing", wantOK: false},
		{path: "specs.missing", wantOK: false},
		{path: "name.sub", wantOK: false}, // scalar is not traversable
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := doc.Lookup(tt.path)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.True(t, tt.want.Equal(got))
			}
		})
	}
}

func TestDocumentLookupDistinguishesNullFromMissing(t *testing.T) {
	doc := Document{"present": Null()}

	_, ok := doc.Lookup("present")
	assert.True(t, ok, "stored null must be reported as present")

	_, ok = doc.Lookup("absent")
	assert.False(t, ok)
}

func TestDocumentSet(t *testing.T) {
	doc := Document{}
	doc.Set("name", String("X"))
	doc.Set("specs.storage", String("512GB"))
	doc.Set("specs.ram", Int(8))

	v, ok := doc.Lookup("specs.storage")
	require.True(t, ok)
	assert.True(t, v.Equal(String("512GB")))

	v, ok = doc.Lookup("specs.ram")
	require.True(t, ok)
	assert.True(t, v.Equal(Int(8)))
}

func TestFromAnyJSONNumbers(t *testing.T) {
	d, err := DocumentFromAny(map[string]any{
		"count": 3,
		"ratio": 0.25,
		"list":  []any{1, "two", nil},
		"deep":  map[string]any{"ok": true},
	})
	require.NoError(t, err)

	v, _ := d.Lookup("count")
	assert.Equal(t, KindInt, v.Kind())
	v, _ = d.Lookup("ratio")
	assert.Equal(t, KindFloat, v.Kind())
	v, _ = d.Lookup("deep.ok")
	assert.True(t, v.Equal(Bool(true)))

	back := d.ToAny()
	assert.Equal(t, int64(3), back["count"])
}

func TestFromAnyRejectsUnsupported(t *testing.T) {
	_, err := FromAny(make(chan int))
	require.Error(t, err)
}
