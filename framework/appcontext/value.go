package appcontext

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/viant/toolbox"
)

// ── Value ─────────────────────────────────────────────────────────────────────

// Kind enumerates the variants a Value can hold.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindRef
)

var kindNames = [...]string{"nil", "bool", "int", "long", "float", "double", "string", "ref"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a closed variant over the types a Context can store.
// The zero Value is Nil.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	ref  any
	// orig is the sized Go number the Value was classified from, so
	// Interface hands back an int16 as an int16.
	orig any
}

func Nil() Value             { return Value{} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Int(i int) Value        { return Value{kind: KindInt, i: int64(i)} }
func Long(i int64) Value     { return Value{kind: KindLong, i: i} }
func Float(f float32) Value  { return Value{kind: KindFloat, f: float64(f)} }
func Double(f float64) Value { return Value{kind: KindDouble, f: f} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Ref(v any) Value        { return Value{kind: KindRef, ref: v} }

func sized(kind Kind, i int64, orig any) Value {
	return Value{kind: kind, i: i, orig: orig}
}

// ValueOf classifies an arbitrary Go value into its variant. Sized integers
// keep their Go type through Interface; unsigned values above math.MaxInt64
// have no signed variant and are stored as Ref.
//
//	appcontext.ValueOf(42)        // Int
//	appcontext.ValueOf(int64(42)) // Long
//	appcontext.ValueOf("42")      // String
//	appcontext.ValueOf(&Server{}) // Ref
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Nil()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(x)
	case int8:
		return sized(KindInt, int64(x), x)
	case int16:
		return sized(KindInt, int64(x), x)
	case int32:
		return sized(KindInt, int64(x), x)
	case uint8:
		return sized(KindInt, int64(x), x)
	case uint16:
		return sized(KindInt, int64(x), x)
	case int64:
		return Long(x)
	case uint32:
		return sized(KindLong, int64(x), x)
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Ref(x)
		}
		return sized(KindLong, int64(x), x)
	case uint64:
		if x > math.MaxInt64 {
			return Ref(x)
		}
		return sized(KindLong, int64(x), x)
	case float32:
		return Float(x)
	case float64:
		return Double(x)
	case string:
		return String(x)
	default:
		return Ref(v)
	}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v holds nothing.
func (v Value) IsNil() bool { return v.kind == KindNil }

// Interface returns the Go value v was built from. Values made by the Int,
// Long, Float and Double constructors come back as int, int64, float32 and
// float64.
func (v Value) Interface() any {
	if v.orig != nil {
		return v.orig
	}
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return int(v.i)
	case KindLong:
		return v.i
	case KindFloat:
		return float32(v.f)
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindRef:
		return v.ref
	default:
		return nil
	}
}

func (v Value) String() string {
	s, ok := v.AsString()
	if !ok {
		return "<nil>"
	}
	return s
}

// ── Coercion ──────────────────────────────────────────────────────────────────

// AsBool converts v to a bool. Numbers are true when non-zero; strings accept
// strconv.ParseBool forms plus yes/no, on/off and y/n.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindInt, KindLong:
		return v.i != 0, true
	case KindFloat, KindDouble:
		return v.f != 0, true
	case KindString:
		return parseBool(v.s)
	case KindRef:
		if s, ok := v.refString(); ok {
			return parseBool(s)
		}
	}
	return false, false
}

// AsInt64 converts v to an int64. Floating point values are truncated and
// fail outside the int64 range.
func (v Value) AsInt64() (int64, bool) {
	switch v.kind {
	case KindInt, KindLong:
		return v.i, true
	case KindFloat, KindDouble:
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit
		if math.IsNaN(v.f) || v.f < math.MinInt64 || v.f >= math.MaxInt64 {
			return 0, false
		}
		return int64(v.f), true
	case KindString:
		return parseInt(v.s)
	case KindRef:
		if s, ok := v.refString(); ok {
			return parseInt(s)
		}
	}
	return 0, false
}

// AsInt converts v to an int, narrowing from 64 bits where needed.
func (v Value) AsInt() (int, bool) {
	i, ok := v.AsInt64()
	return int(i), ok
}

// AsFloat64 converts v to a float64.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindInt, KindLong:
		return float64(v.i), true
	case KindFloat, KindDouble:
		return v.f, true
	case KindString:
		return parseFloat(v.s)
	case KindRef:
		if s, ok := v.refString(); ok {
			return parseFloat(s)
		}
	}
	return 0, false
}

// AsFloat32 converts v to a float32.
func (v Value) AsFloat32() (float32, bool) {
	f, ok := v.AsFloat64()
	return float32(f), ok
}

// AsString converts v to its string form. Nil has no string form.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindBool:
		return toolbox.AsString(v.b), true
	case KindInt, KindLong:
		return toolbox.AsString(v.i), true
	case KindFloat:
		// shortest form that round-trips the float32, "2.5" not "2.5000000"
		return strconv.FormatFloat(v.f, 'g', -1, 32), true
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64), true
	case KindRef:
		return v.refString()
	}
	return "", false
}

// refString renders a Ref, preferring its String method.
func (v Value) refString() (string, bool) {
	switch r := v.ref.(type) {
	case nil:
		return "", false
	case fmt.Stringer:
		return r.String(), true
	default:
		return toolbox.AsString(r), true
	}
}

func parseBool(s string) (bool, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	}
	b, err := toolbox.ToBoolean(s)
	if err != nil {
		return false, false
	}
	return b, true
}

// parseInt accepts whole numbers only; "3.7" is not an int.
func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, ".eE") {
		return 0, false
	}
	i, err := toolbox.ToInt(s)
	if err != nil {
		return 0, false
	}
	return int64(i), true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := toolbox.ToFloat(s)
	if err != nil {
		return 0, false
	}
	return f, true
}
