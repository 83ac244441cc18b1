package measure

import "errors"

// MaxVariations is the number of historical periods a measure can carry deltas for.
const MaxVariations = 5

// Variation errors.
var (
	ErrTooManyVariations = errors.New("there can not be more than 5 variations")
	ErrNoVariation       = errors.New("there must be at least one variation")
)

// Variations holds optional deltas against up to five historical periods.
type Variations struct {
	values [MaxVariations]*float64
}

// NewVariations creates Variations from period deltas in order; nil means no delta.
func NewVariations(values ...*float64) (*Variations, error) {
	if len(values) > MaxVariations {
		return nil, ErrTooManyVariations
	}
	v := &Variations{}
	found := false
	for i, val := range values {
		if val == nil {
			continue
		}
		d := *val
		v.values[i] = &d
		found = true
	}
	if !found {
		return nil, ErrNoVariation
	}
	return v, nil
}

// Has reports whether a delta exists for the 1-based period index.
func (v *Variations) Has(period int) bool {
	return period >= 1 && period <= MaxVariations && v.values[period-1] != nil
}

// Get returns the delta for the 1-based period index.
func (v *Variations) Get(period int) (float64, bool) {
	if !v.Has(period) {
		return 0, false
	}
	return *v.values[period-1], true
}

// Slice returns the five deltas, nil where absent.
func (v *Variations) Slice() []*float64 {
	out := make([]*float64, MaxVariations)
	for i, val := range v.values {
		if val != nil {
			d := *val
			out[i] = &d
		}
	}
	return out
}
