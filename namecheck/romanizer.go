package namecheck

import "strings"

// DefaultVariantBudget caps the number of romanization candidates
// Romanizer.Romanize returns for a single kana string.
const DefaultVariantBudget = 10

// Romanizer converts hiragana/katakana into the set of Hepburn
// romanizations a passport-style transliteration might use. It holds
// no mutable state beyond its budget and is safe to construct once and
// reuse across validations, exactly like the table-driven converters it
// wraps.
type Romanizer struct {
	budget int
}

// NewRomanizer builds a Romanizer. A non-positive budget falls back to
// DefaultVariantBudget.
func NewRomanizer(budget int) *Romanizer {
	if budget <= 0 {
		budget = DefaultVariantBudget
	}
	return &Romanizer{budget: budget}
}

// Romanize returns the ordered, deduplicated set of acceptable Hepburn
// romanizations for kana. The result is never empty for a nonempty
// input and never exceeds the romanizer's budget.
func (rz *Romanizer) Romanize(kana string) []string {
	if kana == "" {
		return []string{""}
	}
	hiragana := toHiragana(kana)
	segments := segmentHiragana([]rune(hiragana))
	segments = applyLongVowelPostPass(segments)
	return combineSegments(segments, rz.budget)
}

// segmentHiragana scans r left to right and emits one variant-set
// segment per position, per spec.md §4.2.2: sokuon and hatsuon are
// intercepted before table lookup, and the prolonged-sound mark
// extends the immediately preceding segment in place rather than
// waiting for the long-vowel post-pass.
func segmentHiragana(r []rune) [][]string {
	var segments [][]string
	i := 0
	for i < len(r) {
		switch r[i] {
		case 'っ':
			segments = append(segments, sokuonSegment(r, i))
			i++
		case 'ん':
			segments = append(segments, hatsuonSegment(r, i))
			i++
		case 'ー':
			if n := len(segments); n > 0 {
				segments[n-1] = extendForProlongedMark(segments[n-1])
			}
			i++
		default:
			if v, ok := twoRuneLookup(r, i); ok {
				segments = append(segments, []string{v})
				i += 2
			} else if v, ok := oneRuneLookup(r, i); ok {
				segments = append(segments, []string{v})
				i++
			} else {
				// Unknown scalar: pass through as a literal, per
				// spec.md §4.2.5.
				segments = append(segments, []string{string(r[i])})
				i++
			}
		}
	}
	return segments
}

// syllableAt returns the romaji for the syllable starting at index i,
// or "" if none can be identified. Used to look ahead from a sokuon or
// hatsuon position.
func syllableAt(r []rune, i int) string {
	if i >= len(r) {
		return ""
	}
	if v, ok := twoRuneLookup(r, i); ok {
		return v
	}
	if v, ok := oneRuneLookup(r, i); ok {
		return v
	}
	return ""
}

// sokuonSegment handles っ: geminate the initial consonant of the
// following syllable, collapsing CH to T (っち→TCHI), falling back to
// T when nothing identifiable follows. Per spec.md §9, a following
// vowel or Y is emitted literally rather than special-cased away.
func sokuonSegment(r []rune, i int) []string {
	next := syllableAt(r, i+1)
	if next == "" {
		return []string{"T"}
	}
	consonant := next[0:1]
	if strings.HasPrefix(next, "CH") {
		consonant = "T"
	}
	return []string{consonant}
}

// hatsuonSegment handles ん: it becomes M before B/M/P, N otherwise.
func hatsuonSegment(r []rune, i int) []string {
	next := syllableAt(r, i+1)
	if next != "" && strings.ContainsRune("BMP", rune(next[0])) {
		return []string{"M"}
	}
	return []string{"N"}
}

const vowels = "AIUEO"

// lastVowel returns the final vowel letter in s, or "" if s has none.
func lastVowel(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if strings.ContainsRune(vowels, rune(s[i])) {
			return string(s[i])
		}
	}
	return ""
}

// ohVariant produces the passport-style "OH" spelling for a segment
// ending in O (大野→OHNO). Only meaningful when s already ends in O.
func ohVariant(s string) string {
	if strings.HasSuffix(s, "O") {
		return s[:len(s)-1] + "OH"
	}
	return s + "H"
}

// extendForProlongedMark implements spec.md §4.2.2's ー handling: each
// variant already in the preceding segment gains long-vowel variants
// keyed on its own final vowel, using the same variant shapes as the
// §4.2.3 post-pass (with the O row's extra "OH" spelling).
func extendForProlongedMark(seg []string) []string {
	out := make([]string, 0, len(seg)*2)
	for _, variant := range seg {
		v := lastVowel(variant)
		switch v {
		case "O":
			out = append(out, variant, variant+"O", ohVariant(variant))
		case "":
			out = append(out, variant)
		default:
			out = append(out, variant, variant+v)
		}
	}
	return dedupStrings(out)
}

// applyLongVowelPostPass rewrites adjacent singleton segments matching
// one of the four vowel-sequence patterns in spec.md §4.2.3 into a
// single multi-variant segment. Segments already widened by the
// prolonged-sound mark are never singletons here, so the two mechanisms
// never both fire on the same pair (spec.md §9).
func applyLongVowelPostPass(segments [][]string) [][]string {
	result := make([][]string, 0, len(segments))
	i := 0
	for i < len(segments) {
		if i+1 < len(segments) && len(segments[i]) == 1 && len(segments[i+1]) == 1 {
			a, b := segments[i][0], segments[i+1][0]
			switch {
			case strings.HasSuffix(a, "O") && b == "O":
				result = append(result, dedupStrings([]string{a, a + "O", ohVariant(a)}))
				i += 2
				continue
			case strings.HasSuffix(a, "O") && b == "U",
				strings.HasSuffix(a, "U") && b == "U":
				result = append(result, dedupStrings([]string{a, a + "U"}))
				i += 2
				continue
			case strings.HasSuffix(a, "I") && b == "I":
				result = append(result, dedupStrings([]string{a, a + "I"}))
				i += 2
				continue
			}
		}
		result = append(result, segments[i])
		i++
	}
	return result
}

// combineSegments enumerates the Cartesian product of segments,
// clipping any segment over three variants once the full product would
// exceed budget, then dedups (preserving first occurrence) and
// truncates to budget. Matches spec.md §4.2.4.
func combineSegments(segments [][]string, budget int) []string {
	if len(segments) == 0 {
		return []string{""}
	}

	total := 1
	for _, seg := range segments {
		total *= len(seg)
		if total > budget {
			break
		}
	}

	working := segments
	if total > budget {
		clipped := make([][]string, len(segments))
		for i, seg := range segments {
			if len(seg) <= 3 {
				clipped[i] = seg
			} else {
				clipped[i] = seg[:3]
			}
		}
		working = clipped
	}

	candidates := make([]string, 0, budget)
	var walk func(idx int, prefix string)
	walk = func(idx int, prefix string) {
		if idx == len(working) {
			candidates = append(candidates, prefix)
			return
		}
		for _, v := range working[idx] {
			walk(idx+1, prefix+v)
		}
	}
	walk(0, "")

	deduped := dedupStrings(candidates)
	if len(deduped) > budget {
		deduped = deduped[:budget]
	}
	return deduped
}

// dedupStrings removes duplicates from in, preserving first-occurrence
// order.
func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
