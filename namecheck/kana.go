package namecheck

import "strings"

// katakanaToHiragana converts a single katakana rune to its hiragana
// equivalent. The prolonged-sound mark and anything outside the
// katakana block pass through unchanged.
func katakanaToHiragana(r rune) rune {
	if r >= 0x30A1 && r <= 0x30F6 {
		return r - 0x60
	}
	return r
}

// toHiragana folds every katakana rune in s to hiragana. The
// prolonged-sound mark ー and all other runes pass through unchanged.
func toHiragana(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(katakanaToHiragana(r))
	}
	return b.String()
}

// isKanji reports whether r falls in the common CJK Unified Ideographs
// block.
func isKanji(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}
