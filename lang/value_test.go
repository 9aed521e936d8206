package lang

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestValue_Text(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
		ok    bool
	}{
		{name: "null", value: Null(), want: "null", ok: true},
		{name: "zero value", value: Value{}, want: "null", ok: true},
		{name: "true", value: Bool(true), want: "true", ok: true},
		{name: "integer", value: Number(42), want: "42", ok: true},
		{name: "negative", value: Number(-1.25), want: "-1.25", ok: true},
		{name: "large", value: Number(1e21), want: "1000000000000000000000", ok: true},
		{name: "small", value: Number(0.000001), want: "0.000001", ok: true},
		{name: "negative zero", value: Number(math.Copysign(0, -1)), want: "0", ok: true},
		{name: "infinity", value: Number(math.Inf(1)), want: "+Inf", ok: true},
		{name: "string", value: String("a\"b"), want: "a\"b", ok: true},
		{name: "list", value: List(Number(1)), ok: false},
		{name: "record", value: RecordOf(nil), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Text()
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}

			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValue_String(t *testing.T) {
	rec := NewRecord().Set("name", String("Ada")).Set("tags", List(String("x"), Null()))

	tests := []struct {
		value Value
		want  string
	}{
		{String("plain"), "plain"},
		{Number(3), "3"},
		{List(String("a"), Number(1), Bool(false)), `["a", 1, false]`},
		{RecordOf(rec), `{name: "Ada", tags: ["x", null]}`},
		{List(), "[]"},
		{RecordOf(nil), "{}"},
	}

	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestValue_Equal(t *testing.T) {
	a := RecordOf(NewRecord().Set("x", Number(1)).Set("y", List(String("s"))))
	b := RecordOf(NewRecord().Set("y", List(String("s"))).Set("x", Number(1)))
	c := RecordOf(NewRecord().Set("x", Number(1)))

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nulls", Null(), Null(), true},
		{"numbers", Number(1), Number(1), true},
		{"different kinds", Number(1), String("1"), false},
		{"lists", List(Number(1), Null()), List(Number(1), Null()), true},
		{"list lengths", List(Number(1)), List(Number(1), Number(1)), false},
		{"records ignore order", a, b, true},
		{"records differ", a, c, false},
		{"nan", Number(math.NaN()), Number(math.NaN()), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	if _, ok := Number(1).AsString(); ok {
		t.Error("number should not be a string")
	}

	if b, ok := Bool(true).AsBool(); !ok || !b {
		t.Error("expected bool true")
	}

	if n, ok := String("héllo").Len(); !ok || n != 5 {
		t.Errorf("expected 5 runes, got %d", n)
	}

	if _, ok := Number(1).Len(); ok {
		t.Error("number has no length")
	}

	if !Null().IsNull() || Bool(false).IsNull() {
		t.Error("unexpected IsNull result")
	}
}

func TestRecord_Order(t *testing.T) {
	r := NewRecord().Set("z", Null()).Set("a", Null()).Set("z", Bool(true))

	if got := slices.Collect(r.Keys()); !slices.Equal(got, []string{"z", "a"}) {
		t.Errorf("expected [z a], got %v", got)
	}

	if v, _ := r.Get("z"); !v.Equal(Bool(true)) {
		t.Errorf("expected rebound value, got %v", v)
	}

	var nilRecord *Record
	if nilRecord.Len() != 0 {
		t.Error("expected nil record to be empty")
	}

	if _, ok := nilRecord.Get("x"); ok {
		t.Error("expected nil record lookup to fail")
	}
}

func TestFromGo(t *testing.T) {
	type named string

	n := 5

	tests := []struct {
		name  string
		input any
		want  Value
	}{
		{name: "nil", input: nil, want: Null()},
		{name: "bool", input: true, want: Bool(true)},
		{name: "int", input: 3, want: Number(3)},
		{name: "int8", input: int8(-3), want: Number(-3)},
		{name: "uint16", input: uint16(9), want: Number(9)},
		{name: "float32", input: float32(0.5), want: Number(0.5)},
		{name: "string", input: "s", want: String("s")},
		{name: "named string", input: named("n"), want: String("n")},
		{name: "pointer", input: &n, want: Number(5)},
		{name: "nil pointer", input: (*int)(nil), want: Null()},
		{name: "value", input: Bool(false), want: Bool(false)},
		{name: "slice", input: []int{1, 2}, want: List(Number(1), Number(2))},
		{name: "array", input: [2]string{"a", "b"}, want: List(String("a"), String("b"))},
		{name: "nested any", input: []any{nil, "x", []any{1}}, want: List(Null(), String("x"), List(Number(1)))},
		{
			name:  "typed map",
			input: map[string]int{"b": 2, "a": 1},
			want:  RecordOf(NewRecord().Set("a", Number(1)).Set("b", Number(2))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFromGo_Order(t *testing.T) {
	got, err := FromGo(map[string]any{"b": 1, "c": 2, "a": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, _ := got.AsRecord()
	if keys := slices.Collect(rec.Keys()); !slices.Equal(keys, []string{"a", "b", "c"}) {
		t.Errorf("expected map keys in sorted order, got %v", keys)
	}

	got, err = FromGo(yaml.MapSlice{{Key: "b", Value: 1}, {Key: "a", Value: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, _ = got.AsRecord()
	if keys := slices.Collect(rec.Keys()); !slices.Equal(keys, []string{"b", "a"}) {
		t.Errorf("expected MapSlice order preserved, got %v", keys)
	}
}

func TestFromGo_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"channel", make(chan int)},
		{"function", func() {}},
		{"int keyed map", map[int]string{1: "a"}},
		{"struct", struct{ A int }{1}},
		{"nested", []any{1, make(chan int)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromGo(tt.input)
			if !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("expected ErrTypeMismatch, got %v", err)
			}
		})
	}
}

func TestValue_ToNative(t *testing.T) {
	v := List(
		Null(),
		Number(2),
		Number(2.5),
		String("s"),
		RecordOf(NewRecord().Set("z", Bool(true)).Set("a", Number(1))),
	)

	got, ok := v.ToNative().([]any)
	if !ok || len(got) != 5 {
		t.Fatalf("expected []any of 5, got %#v", v.ToNative())
	}

	if got[0] != nil {
		t.Errorf("expected nil, got %#v", got[0])
	}

	if got[1] != int64(2) {
		t.Errorf("expected int64(2), got %#v", got[1])
	}

	if got[2] != 2.5 {
		t.Errorf("expected 2.5, got %#v", got[2])
	}

	ms, ok := got[4].(yaml.MapSlice)
	if !ok || len(ms) != 2 || ms[0].Key != "z" || ms[1].Value != int64(1) {
		t.Errorf("expected ordered MapSlice, got %#v", got[4])
	}

	back, err := FromGo(v.ToNative())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !back.Equal(v) {
		t.Errorf("expected %v after conversion, got %v", v, back)
	}
}
