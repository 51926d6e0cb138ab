package similarity

import "strings"

// WordSet splits text on whitespace into a set of distinct words.
func WordSet(text string) map[string]struct{} {
	fields := strings.Fields(text)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// TextDivergence returns 1 - |common| / max(|w1|, |w2|) for the word sets
// of two texts. ok is false when either side has minWords words or fewer,
// in which case the texts are not comparable.
func TextDivergence(text1, text2 string, minWords int) (divergence float64, ok bool) {
	w1, w2 := WordSet(text1), WordSet(text2)
	if len(w1) <= minWords || len(w2) <= minWords {
		return 0, false
	}

	common := 0
	for w := range w1 {
		if _, found := w2[w]; found {
			common++
		}
	}

	return 1 - float64(common)/float64(max(len(w1), len(w2))), true
}
