package metrics

import (
	"fmt"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Unit costs across the board. The package default charges 2 for a
// substitution (delete+insert), which would double-count every
// substituted character against the student.
var cerOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// CharacterErrorRate computes CER between a reference transcript and a
// candidate: Levenshtein distance (insertions, deletions, substitutions)
// over runes, normalized by the reference rune count.
//
// Tokenization is character-level everywhere in this system. Word-level
// WER is deliberately not offered so the two cannot be mixed up.
func CharacterErrorRate(reference, candidate string) (float64, error) {
	refRunes := []rune(reference)
	candRunes := []rune(candidate)

	if len(refRunes) == 0 {
		if len(candRunes) == 0 {
			return 0.0, nil
		}
		// Normalizing by a zero-length reference would divide by zero.
		return 1.0, fmt.Errorf("reference is empty, cannot normalize CER (candidate: %d chars)", len(candRunes))
	}

	distance := levenshtein.DistanceForStrings(refRunes, candRunes, cerOptions)
	return float64(distance) / float64(len(refRunes)), nil
}
