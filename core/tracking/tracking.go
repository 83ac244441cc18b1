// Package tracking reconciles new issues (raws) with the issues of the previous
// analysis (bases) of the same file.
package tracking

import "fmt"

// Trackable is the part of an issue that reconciliation looks at.
type Trackable interface {
	RuleKey() string
	// Line is 1-based. 0 means the issue is not attached to a line.
	Line() int
	LineHash() string
}

// Pair is one matched raw and base, with their indexes in the tracked slices.
type Pair[R, B Trackable] struct {
	RawIndex  int
	BaseIndex int
	Raw       R
	Base      B
}

// Tracking records the matches between raws and bases by index.
// Each raw and each base is matched at most once.
type Tracking[R, B Trackable] struct {
	raws      []R
	bases     []B
	rawToBase []int
	baseToRaw []int
}

// NewTracking creates a Tracking with everything unmatched.
func NewTracking[R, B Trackable](raws []R, bases []B) *Tracking[R, B] {
	t := &Tracking[R, B]{
		raws:      raws,
		bases:     bases,
		rawToBase: make([]int, len(raws)),
		baseToRaw: make([]int, len(bases)),
	}
	for i := range t.rawToBase {
		t.rawToBase[i] = -1
	}
	for i := range t.baseToRaw {
		t.baseToRaw[i] = -1
	}
	return t
}

// Raws returns the tracked raws.
func (t *Tracking[R, B]) Raws() []R { return t.raws }

// Bases returns the tracked bases.
func (t *Tracking[R, B]) Bases() []B { return t.bases }

// Match associates a raw with a base. Matching an already matched item panics.
func (t *Tracking[R, B]) Match(rawIdx, baseIdx int) {
	if t.rawToBase[rawIdx] >= 0 || t.baseToRaw[baseIdx] >= 0 {
		panic(fmt.Sprintf("tracking: raw %d or base %d is already matched", rawIdx, baseIdx))
	}
	t.rawToBase[rawIdx] = baseIdx
	t.baseToRaw[baseIdx] = rawIdx
}

// IsRawMatched reports whether the raw at rawIdx has a base.
func (t *Tracking[R, B]) IsRawMatched(rawIdx int) bool {
	return t.rawToBase[rawIdx] >= 0
}

// IsBaseMatched reports whether the base at baseIdx has a raw.
func (t *Tracking[R, B]) IsBaseMatched(baseIdx int) bool {
	return t.baseToRaw[baseIdx] >= 0
}

// BaseFor returns the base matched with the raw at rawIdx.
func (t *Tracking[R, B]) BaseFor(rawIdx int) (B, bool) {
	if j := t.rawToBase[rawIdx]; j >= 0 {
		return t.bases[j], true
	}
	var zero B
	return zero, false
}

// MatchedPairs returns the matches in raw order.
func (t *Tracking[R, B]) MatchedPairs() []Pair[R, B] {
	var pairs []Pair[R, B]
	for i, j := range t.rawToBase {
		if j >= 0 {
			pairs = append(pairs, Pair[R, B]{RawIndex: i, BaseIndex: j, Raw: t.raws[i], Base: t.bases[j]})
		}
	}
	return pairs
}

// UnmatchedRaws returns the raws without a base, in their original order.
func (t *Tracking[R, B]) UnmatchedRaws() []R {
	var out []R
	for _, i := range t.unmatchedRawIndexes() {
		out = append(out, t.raws[i])
	}
	return out
}

// UnmatchedBases returns the bases without a raw, in their original order.
func (t *Tracking[R, B]) UnmatchedBases() []B {
	var out []B
	for _, j := range t.unmatchedBaseIndexes() {
		out = append(out, t.bases[j])
	}
	return out
}

// IsComplete reports whether every raw has been matched.
func (t *Tracking[R, B]) IsComplete() bool {
	return len(t.unmatchedRawIndexes()) == 0
}

func (t *Tracking[R, B]) unmatchedRawIndexes() []int {
	var out []int
	for i, j := range t.rawToBase {
		if j < 0 {
			out = append(out, i)
		}
	}
	return out
}

func (t *Tracking[R, B]) unmatchedBaseIndexes() []int {
	var out []int
	for j, i := range t.baseToRaw {
		if i < 0 {
			out = append(out, j)
		}
	}
	return out
}

// matchFirst matches each unmatched raw in rawIdxs with the first unmatched
// base in baseIdxs that has the same rule key. It returns the number of matches.
func (t *Tracking[R, B]) matchFirst(rawIdxs, baseIdxs []int) int {
	n := 0
	for _, i := range rawIdxs {
		if t.IsRawMatched(i) {
			continue
		}
		for _, j := range baseIdxs {
			if !t.IsBaseMatched(j) && t.bases[j].RuleKey() == t.raws[i].RuleKey() {
				t.Match(i, j)
				n++
				break
			}
		}
	}
	return n
}
