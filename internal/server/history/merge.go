package history

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MergeFile performs a three-way, line-oriented merge of ours and theirs
// against their common ancestor base. Non-overlapping edits interleave;
// identical edits coalesce; overlapping divergent edits keep ours and report
// conflicted=true. The result never contains conflict markers; marker
// generation, if ever wanted, is the caller's concern. Deterministic for
// identical inputs.
func (s *Store) MergeFile(base, ours, theirs []byte) ([]byte, bool) {
	return MergeLines(base, ours, theirs)
}

// MergeLines is the underlying implementation of MergeFile.
func MergeLines(base, ours, theirs []byte) ([]byte, bool) {
	baseLines := splitLines(string(base))
	oursHunks := diffHunks(string(base), string(ours))
	theirsHunks := diffHunks(string(base), string(theirs))

	merged, conflicted := applyHunks(baseLines, oursHunks, theirsHunks)
	return []byte(merged), conflicted
}

// hunk replaces the half-open base line range [start, end) with lines.
// start == end is a pure insertion at that point.
type hunk struct {
	start, end int
	lines      []string
}

// diffHunks computes the line-mode diff base -> other and folds it into
// hunks over base line coordinates. Hunks come out sorted and disjoint.
func diffHunks(base, other string) []hunk {
	if base == other {
		return nil
	}

	dmp := diffmatchpatch.New()
	// No timeout: a truncated diff search would make merges nondeterministic.
	dmp.DiffTimeout = 0
	c1, c2, lineArray := dmp.DiffLinesToChars(base, other)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(c1, c2, false), lineArray)

	var hunks []hunk
	pos := 0 // current base line
	open := -1

	ensureOpen := func() {
		if open < 0 {
			hunks = append(hunks, hunk{start: pos, end: pos})
			open = len(hunks) - 1
		}
	}

	for _, d := range diffs {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			open = -1
			pos += len(lines)
		case diffmatchpatch.DiffDelete:
			ensureOpen()
			hunks[open].end += len(lines)
			pos += len(lines)
		case diffmatchpatch.DiffInsert:
			ensureOpen()
			hunks[open].lines = append(hunks[open].lines, lines...)
		}
	}
	return hunks
}

// applyHunks interleaves two hunk lists over the base lines. Overlap means
// strictly intersecting ranges or the same anchor point (covers insertions
// colliding with insertions or replacements at one spot).
func applyHunks(baseLines []string, ours, theirs []hunk) (string, bool) {
	var out strings.Builder
	conflicted := false
	pos := 0

	copyBaseUpTo := func(line int) {
		for ; pos < line; pos++ {
			out.WriteString(baseLines[pos])
		}
	}
	apply := func(h hunk) {
		copyBaseUpTo(h.start)
		for _, l := range h.lines {
			out.WriteString(l)
		}
		pos = h.end
	}

	i, j := 0, 0
	for i < len(ours) || j < len(theirs) {
		switch {
		case j >= len(theirs):
			apply(ours[i])
			i++
		case i >= len(ours):
			apply(theirs[j])
			j++
		case hunksEqual(ours[i], theirs[j]):
			// Identical independent edit.
			apply(ours[i])
			i++
			j++
		case ours[i].end <= theirs[j].start && ours[i].start != theirs[j].start:
			apply(ours[i])
			i++
		case theirs[j].end <= ours[i].start && ours[i].start != theirs[j].start:
			apply(theirs[j])
			j++
		default:
			// Overlapping divergent edits: ours wins.
			conflicted = true
			applied := ours[i]
			apply(applied)
			i++
			for j < len(theirs) && consumedBy(applied, theirs[j]) {
				j++
			}
		}
	}
	copyBaseUpTo(len(baseLines))

	return out.String(), conflicted
}

// consumedBy reports whether h falls inside the base range already resolved
// by the applied conflicting hunk.
func consumedBy(applied, h hunk) bool {
	if h.start == applied.start {
		return true
	}
	return h.start < applied.end && h.end > applied.start
}

func hunksEqual(a, b hunk) bool {
	if a.start != b.start || a.end != b.end || len(a.lines) != len(b.lines) {
		return false
	}
	for i := range a.lines {
		if a.lines[i] != b.lines[i] {
			return false
		}
	}
	return true
}

// splitLines splits s after every newline, keeping terminators, so joining
// the pieces reproduces s exactly.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
