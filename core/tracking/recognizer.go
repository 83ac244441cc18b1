package tracking

import (
	"cmp"
	"slices"
)

// DefaultMaxLinePairs caps the pairwise scoring phase. Files whose remaining
// base lines times raw lines reach it skip that phase.
const DefaultMaxLinePairs = 250000

// Input is the source of one side of a file, as line and block hashes.
type Input struct {
	Lines  *LineHashSequence
	Blocks *BlockHashSequence
}

// NewInput computes the block hashes of lines.
func NewInput(lines *LineHashSequence) *Input {
	return &Input{Lines: lines, Blocks: NewBlockHashSequence(lines)}
}

// BlockRecognizer matches issues that moved along with the code around them.
// Only issues attached to a line take part.
type BlockRecognizer[R, B Trackable] struct {
	MaxLinePairs int
}

// NewBlockRecognizer creates a recognizer with DefaultMaxLinePairs.
func NewBlockRecognizer[R, B Trackable]() *BlockRecognizer[R, B] {
	return &BlockRecognizer[R, B]{MaxLinePairs: DefaultMaxLinePairs}
}

// byLine groups item indexes by line, keeping lines in ascending order.
// Lines outside the file are left out.
type byLine struct {
	lines []int
	items map[int][]int
}

func groupByLine(idxs []int, lineOf func(int) int, length int) *byLine {
	g := &byLine{items: make(map[int][]int)}
	for _, i := range idxs {
		line := lineOf(i)
		if line <= 0 || line > length {
			continue
		}
		if _, ok := g.items[line]; !ok {
			g.lines = append(g.lines, line)
		}
		g.items[line] = append(g.items[line], i)
	}
	slices.Sort(g.lines)
	return g
}

func (g *byLine) remove(line int) {
	delete(g.items, line)
	g.lines = slices.DeleteFunc(g.lines, func(l int) bool { return l == line })
}

type hashOccurrence struct {
	baseLine  int
	rawLine   int
	baseCount int
	rawCount  int
}

type linePair struct {
	baseLine int
	rawLine  int
	weight   int
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// Match runs both phases on the items of t that are still unmatched.
func (br *BlockRecognizer[R, B]) Match(t *Tracking[R, B], raw, base *Input) {
	raws := groupByLine(t.unmatchedRawIndexes(), func(i int) int { return t.raws[i].Line() }, raw.Lines.Length())
	bases := groupByLine(t.unmatchedBaseIndexes(), func(j int) int { return t.bases[j].Line() }, base.Lines.Length())

	// Phase 1: a block hash found on exactly one base line and one raw line is a move.
	occurrences := make(map[uint64]*hashOccurrence)
	var order []uint64
	for _, line := range bases.lines {
		h := base.Blocks.BlockHashForLine(line)
		if occ, ok := occurrences[h]; ok {
			occ.baseCount++
			continue
		}
		occurrences[h] = &hashOccurrence{baseLine: line, baseCount: 1}
		order = append(order, h)
	}
	for _, line := range raws.lines {
		if occ, ok := occurrences[raw.Blocks.BlockHashForLine(line)]; ok {
			occ.rawLine = line
			occ.rawCount++
		}
	}
	for _, h := range order {
		occ := occurrences[h]
		if occ.baseCount != 1 || occ.rawCount != 1 {
			continue
		}
		t.matchFirst(raws.items[occ.rawLine], bases.items[occ.baseLine])
		bases.remove(occ.baseLine)
		raws.remove(occ.rawLine)
	}

	// Phase 2: score every remaining pair of lines by the block they share.
	if len(bases.lines)*len(raws.lines) >= br.MaxLinePairs {
		return
	}
	pairs := make([]linePair, 0, len(bases.lines)*len(raws.lines))
	for _, bl := range bases.lines {
		for _, rl := range raws.lines {
			pairs = append(pairs, linePair{
				baseLine: bl,
				rawLine:  rl,
				weight:   LengthOfMaximalBlock(base.Lines, bl, raw.Lines, rl),
			})
		}
	}
	slices.SortStableFunc(pairs, func(a, b linePair) int {
		if c := cmp.Compare(b.weight, a.weight); c != 0 {
			return c
		}
		return cmp.Compare(absDiff(a.baseLine, a.rawLine), absDiff(b.baseLine, b.rawLine))
	})

	consumed := func(idxs []int, matched func(int) bool) bool {
		return !slices.ContainsFunc(idxs, func(i int) bool { return !matched(i) })
	}
	for _, p := range pairs {
		rawIdxs, baseIdxs := raws.items[p.rawLine], bases.items[p.baseLine]
		if consumed(rawIdxs, t.IsRawMatched) || consumed(baseIdxs, t.IsBaseMatched) {
			continue
		}
		t.matchFirst(rawIdxs, baseIdxs)
	}
}
