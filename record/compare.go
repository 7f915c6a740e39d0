package record

import (
	"sort"
	"strings"
)

// Equal compares two values for equality.
//
// Numbers compare numerically across KindInt and KindFloat; all other
// kinds must match exactly. Arrays compare elementwise, objects keywise.
func (v Value) Equal(other Value) bool {
	if v.kind == KindNull && other.kind == KindNull {
		return true
	}

	if v.IsNumber() && other.IsNumber() {
		// Prefer exact int compare when possible.
		if v.kind == KindInt && other.kind == KindInt {
			return v.i == other.i
		}
		a, _ := v.AsFloat64()
		b, _ := other.AsFloat64()
		return a == b
	}

	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.a) != len(other.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(other.a[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.o) != len(other.o) {
			return false
		}
		for k, lv := range v.o {
			rv, ok := other.o[k]
			if !ok || !lv.Equal(rv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// kindRank orders values of different kinds for sorting.
// Null (and missing fields) sort before everything else.
func kindRank(k Kind) int {
	switch k {
	case KindInvalid, KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt, KindFloat:
		return 2
	case KindString:
		return 3
	case KindArray:
		return 4
	case KindObject:
		return 5
	default:
		return 6
	}
}

// Compare returns -1, 0 or 1 ordering a before, equal to, or after b.
//
// The total order is: null < bool < number < string < array < object.
// Numbers compare numerically across int and float; booleans order
// false before true; strings compare lexically; arrays compare
// elementwise then by length; objects compare by sorted key sequence.
func Compare(a, b Value) int {
	ra, rb := kindRank(a.kind), kindRank(b.kind)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case 0: // null
		return 0
	case 1: // bool
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case 2: // number
		if a.kind == KindInt && b.kind == KindInt {
			switch {
			case a.i < b.i:
				return -1
			case a.i > b.i:
				return 1
			default:
				return 0
			}
		}
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case 3: // string
		return strings.Compare(a.s, b.s)
	case 4: // array
		n := min(len(a.a), len(b.a))
		for i := 0; i < n; i++ {
			if c := Compare(a.a[i], b.a[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(a.a) < len(b.a):
			return -1
		case len(a.a) > len(b.a):
			return 1
		default:
			return 0
		}
	case 5: // object
		return strings.Compare(objectKeyString(a.o), objectKeyString(b.o))
	default:
		return 0
	}
}

func objectKeyString(d Document) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('\x1e')
		sb.WriteString(d[k].Key())
		sb.WriteByte('\x1f')
	}
	return sb.String()
}
