package lang

import (
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a [Value].
type Kind int

const (
	KindNull   Kind = iota // null
	KindBool               // bool
	KindNumber             // number
	KindString             // string
	KindList               // list
	KindRecord             // record
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Value is a template runtime value. The zero Value is null.
//
// Values are immutable. Lists and records returned by accessors must not be
// modified.
type Value struct {
	rec  *Record
	s    string
	list []Value
	n    float64
	kind Kind
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a list value holding elems.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: slices.Clip(elems)}
}

// RecordOf returns a record value backed by r. A nil r is an empty record.
func RecordOf(r *Record) Value {
	if r == nil {
		r = NewRecord()
	}

	return Value{kind: KindRecord, rec: r}
}

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns the elements held by v.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsRecord returns the record held by v.
func (v Value) AsRecord() (*Record, bool) { return v.rec, v.kind == KindRecord }

// Len returns the number of runes of a string, or the number of elements of a
// list or record.
func (v Value) Len() (int, bool) {
	switch v.kind {
	case KindString:
		return len([]rune(v.s)), true
	case KindList:
		return len(v.list), true
	case KindRecord:
		return v.rec.Len(), true
	case KindNull, KindBool, KindNumber:
		return 0, false
	default:
		return 0, false
	}
}

// Text returns the interpolated form of a scalar value: numbers in canonical
// decimal form, booleans as true or false, strings verbatim, and null as
// "null". Lists and records have no interpolated form.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindNull:
		return "null", true
	case KindBool:
		return strconv.FormatBool(v.b), true
	case KindNumber:
		return formatNumber(v.n), true
	case KindString:
		return v.s, true
	case KindList, KindRecord:
		return "", false
	default:
		return "", false
	}
}

// String returns a readable rendering of v. Scalars render as [Value.Text];
// strings nested in collections are quoted.
func (v Value) String() string {
	if v.kind == KindString {
		return v.s
	}

	var sb strings.Builder

	v.write(&sb)

	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case KindString:
		sb.WriteString(strconv.Quote(v.s))

	case KindList:
		sb.WriteByte('[')

		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}

			e.write(sb)
		}

		sb.WriteByte(']')

	case KindRecord:
		sb.WriteByte('{')

		i := 0
		for k, e := range v.rec.All() {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(k)
			sb.WriteString(": ")
			e.write(sb)

			i++
		}

		sb.WriteByte('}')

	case KindNull, KindBool, KindNumber:
		s, _ := v.Text()
		sb.WriteString(s)
	}
}

// Equal reports whether v and w are the same kind and hold equal contents.
// Lists compare element-wise and records compare by key set and field values,
// ignoring key order.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == w.b
	case KindNumber:
		return v.n == w.n
	case KindString:
		return v.s == w.s
	case KindList:
		return slices.EqualFunc(v.list, w.list, Value.Equal)
	case KindRecord:
		if v.rec.Len() != w.rec.Len() {
			return false
		}

		for k, e := range v.rec.All() {
			f, ok := w.rec.Get(k)
			if !ok || !e.Equal(f) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsInf(n, 1):
		return "+Inf"
	case math.IsInf(n, -1):
		return "-Inf"
	case n == 0:
		return "0" // also normalizes negative zero
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

// Record is an ordered mapping from field name to [Value].
type Record struct {
	vals map[string]Value
	keys []string
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{vals: make(map[string]Value)}
}

// Set binds key to v and returns r. A new key is appended to the key order;
// an existing key keeps its position. Set is for building a record and must
// not be called once the record is reachable from a [Value] in use.
func (r *Record) Set(key string, v Value) *Record {
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}

	r.vals[key] = v

	return r
}

// Get returns the value bound to key.
func (r *Record) Get(key string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}

	v, ok := r.vals[key]

	return v, ok
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}

	return len(r.keys)
}

// Keys returns an iterator over the field names in insertion order.
func (r *Record) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		if r == nil {
			return
		}

		for _, k := range r.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// All returns an iterator over the fields in insertion order.
func (r *Record) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if r == nil {
			return
		}

		for _, k := range r.keys {
			if !yield(k, r.vals[k]) {
				return
			}
		}
	}
}
