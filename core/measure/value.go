// Package measure holds the typed metric values, metric definitions and the
// per-report measure repository.
package measure

import "fmt"

// ValueKind identifies which representation a Value holds.
type ValueKind int

// Value kinds.
const (
	NoValue ValueKind = iota
	Boolean
	Int
	Long
	Double
	String
)

var kindNames = [...]string{"NO_VALUE", "BOOLEAN", "INT", "LONG", "DOUBLE", "STRING"}

// String returns the name of the kind.
func (k ValueKind) String() string {
	if k < NoValue || k > String {
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
	return kindNames[k]
}

// IsNumeric reports whether the kind is Int, Long or Double.
func (k ValueKind) IsNumeric() bool {
	return k == Int || k == Long || k == Double
}

// KindMismatchError is the panic value raised when a Value is read as a
// representation it does not hold.
type KindMismatchError struct {
	Held      ValueKind
	Requested ValueKind
}

// Error implements error.
func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("value of kind %s cannot be read as %s", e.Held, e.Requested)
}

// Value is a tagged union of exactly one kind.
type Value struct {
	kind ValueKind
	b    bool
	l    int64
	d    float64
	s    string
}

// Empty is the Value that holds nothing.
var Empty = Value{kind: NoValue}

// NewBool creates a Boolean value.
func NewBool(v bool) Value { return Value{kind: Boolean, b: v} }

// NewInt creates an Int value.
func NewInt(v int32) Value { return Value{kind: Int, l: int64(v)} }

// NewLong creates a Long value.
func NewLong(v int64) Value { return Value{kind: Long, l: v} }

// NewDouble creates a Double value.
func NewDouble(v float64) Value { return Value{kind: Double, d: v} }

// NewString creates a String value.
func NewString(v string) Value { return Value{kind: String, s: v} }

// Kind returns the kind held by v.
func (v Value) Kind() ValueKind {
	return v.kind
}

// HasValue reports whether v holds anything.
func (v Value) HasValue() bool {
	return v.kind != NoValue
}

func (v Value) check(k ValueKind) {
	if v.kind != k {
		panic(&KindMismatchError{Held: v.kind, Requested: k})
	}
}

// Bool returns the Boolean representation.
func (v Value) Bool() bool {
	v.check(Boolean)
	return v.b
}

// Int returns the Int representation.
func (v Value) Int() int32 {
	v.check(Int)
	return int32(v.l)
}

// Long returns the Long representation.
func (v Value) Long() int64 {
	v.check(Long)
	return v.l
}

// Double returns the Double representation.
func (v Value) Double() float64 {
	v.check(Double)
	return v.d
}

// Text returns the String representation.
func (v Value) Text() string {
	v.check(String)
	return v.s
}

// String renders v for display regardless of kind.
func (v Value) String() string {
	switch v.kind {
	case Boolean:
		return fmt.Sprintf("%t", v.b)
	case Int, Long:
		return fmt.Sprintf("%d", v.l)
	case Double:
		return fmt.Sprintf("%g", v.d)
	case String:
		return v.s
	default:
		return ""
	}
}

// ZeroOf returns the zero value for a numeric kind.
func ZeroOf(k ValueKind) Value {
	switch k {
	case Int:
		return NewInt(0)
	case Long:
		return NewLong(0)
	case Double:
		return NewDouble(0)
	default:
		panic(&KindMismatchError{Held: k, Requested: Double})
	}
}
