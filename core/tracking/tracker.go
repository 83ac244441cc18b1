package tracking

import "strconv"

// Tracker reconciles the issues of one file.
type Tracker[R, B Trackable] struct {
	recognizer *BlockRecognizer[R, B]
}

// NewTracker creates a Tracker using the default block recognizer.
func NewTracker[R, B Trackable]() *Tracker[R, B] {
	return &Tracker[R, B]{recognizer: NewBlockRecognizer[R, B]()}
}

// Track matches raws with bases. Exact passes run first:
// same rule, line and line hash, then same rule and line hash.
// When both sources are known, block recognition handles what is left.
// rawLines and baseLines may be nil.
func (tr *Tracker[R, B]) Track(raws []R, bases []B, rawLines, baseLines *LineHashSequence) *Tracking[R, B] {
	t := NewTracking(raws, bases)

	tr.exactPass(t, func(x Trackable) string {
		return x.RuleKey() + "\x00" + strconv.Itoa(x.Line()) + "\x00" + x.LineHash()
	})
	if t.IsComplete() {
		return t
	}
	tr.exactPass(t, func(x Trackable) string {
		return x.RuleKey() + "\x00" + x.LineHash()
	})
	if t.IsComplete() || rawLines == nil || baseLines == nil {
		return t
	}

	tr.recognizer.Match(t, NewInput(rawLines), NewInput(baseLines))
	return t
}

func (tr *Tracker[R, B]) exactPass(t *Tracking[R, B], key func(Trackable) string) {
	basesByKey := make(map[string][]int)
	for _, j := range t.unmatchedBaseIndexes() {
		k := key(t.bases[j])
		basesByKey[k] = append(basesByKey[k], j)
	}
	for _, i := range t.unmatchedRawIndexes() {
		for _, j := range basesByKey[key(t.raws[i])] {
			if !t.IsBaseMatched(j) {
				t.Match(i, j)
				break
			}
		}
	}
}
