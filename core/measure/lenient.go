package measure

// LenientLong reads v as a long, widening Int values.
// It reports false when v holds no value and panics for any other kind.
func LenientLong(v Value) (int64, bool) {
	switch v.kind {
	case NoValue:
		return 0, false
	case Int, Long:
		return v.l, true
	default:
		panic(&KindMismatchError{Held: v.kind, Requested: Long})
	}
}

// LenientDouble reads v as a double, widening Int and Long values.
// It reports false when v holds no value and panics for any other kind.
func LenientDouble(v Value) (float64, bool) {
	switch v.kind {
	case NoValue:
		return 0, false
	case Int, Long:
		return float64(v.l), true
	case Double:
		return v.d, true
	default:
		panic(&KindMismatchError{Held: v.kind, Requested: Double})
	}
}
