package tracking

import (
	"crypto/md5"
	"encoding/hex"
	"hash/fnv"
	"strings"
	"unicode"
)

// blockHalfSize is the number of lines on each side of a line that make up its block.
const blockHalfSize = 5

// LineHash returns the md5 hex digest of line with all whitespace removed,
// or "" when nothing is left.
func LineHash(line string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, line)
	if stripped == "" {
		return ""
	}
	sum := md5.Sum([]byte(stripped))
	return hex.EncodeToString(sum[:])
}

// LineHashSequence holds one hash per line of a file. Lines are 1-based.
type LineHashSequence struct {
	hashes []string
}

// NewLineHashSequence wraps hashes that were computed earlier, e.g. loaded from the store.
func NewLineHashSequence(hashes []string) *LineHashSequence {
	return &LineHashSequence{hashes: append([]string(nil), hashes...)}
}

// NewLineHashSequenceFromLines hashes source lines.
func NewLineHashSequenceFromLines(lines []string) *LineHashSequence {
	hashes := make([]string, len(lines))
	for i, line := range lines {
		hashes[i] = LineHash(line)
	}
	return &LineHashSequence{hashes: hashes}
}

// Length is the number of lines.
func (s *LineHashSequence) Length() int {
	return len(s.hashes)
}

// HasLine reports whether line is within the file.
func (s *LineHashSequence) HasLine(line int) bool {
	return line > 0 && line <= len(s.hashes)
}

// HashForLine returns the hash of line, or "" when the line is out of range.
func (s *LineHashSequence) HashForLine(line int) string {
	if !s.HasLine(line) {
		return ""
	}
	return s.hashes[line-1]
}

// Hashes returns a copy of all line hashes.
func (s *LineHashSequence) Hashes() []string {
	return append([]string(nil), s.hashes...)
}

// BlockHashSequence holds, for every line, a hash of the lines around it.
type BlockHashSequence struct {
	blocks []uint64
}

// NewBlockHashSequence computes block hashes over a window of blockHalfSize
// lines on each side, clipped to the file.
func NewBlockHashSequence(lines *LineHashSequence) *BlockHashSequence {
	n := lines.Length()
	blocks := make([]uint64, n)
	for line := 1; line <= n; line++ {
		h := fnv.New64a()
		from := max(1, line-blockHalfSize)
		to := min(n, line+blockHalfSize)
		for l := from; l <= to; l++ {
			_, _ = h.Write([]byte(lines.HashForLine(l)))
			_, _ = h.Write([]byte{'\n'})
		}
		blocks[line-1] = h.Sum64()
	}
	return &BlockHashSequence{blocks: blocks}
}

// BlockHashForLine returns the block hash of line, or 0 when out of range.
func (s *BlockHashSequence) BlockHashForLine(line int) uint64 {
	if line <= 0 || line > len(s.blocks) {
		return 0
	}
	return s.blocks[line-1]
}

// LengthOfMaximalBlock returns the number of lines in the longest run of equal
// hashes around lineA in a and lineB in b. The anchor is counted once, and
// the result is 0 when the anchors differ.
func LengthOfMaximalBlock(a *LineHashSequence, lineA int, b *LineHashSequence, lineB int) int {
	if !a.HasLine(lineA) || !b.HasLine(lineB) || a.HashForLine(lineA) != b.HashForLine(lineB) {
		return 0
	}
	length := 0
	for ai, bi := lineA, lineB; a.HasLine(ai) && b.HasLine(bi) && a.HashForLine(ai) == b.HashForLine(bi); ai, bi = ai+1, bi+1 {
		length++
	}
	for ai, bi := lineA-1, lineB-1; a.HasLine(ai) && b.HasLine(bi) && a.HashForLine(ai) == b.HashForLine(bi); ai, bi = ai-1, bi-1 {
		length++
	}
	return length
}
