package grader

import (
	"log"
	"strings"

	"ocr-autograder/internal/metrics"
)

// PreviewUnavailable marks a run that produced no candidate text.
const PreviewUnavailable = "not available"

const previewRunes = 100

// Result is the outcome of one grading run.
type Result struct {
	ErrorRate float64 `json:"error_rate"`
	Score     float64 `json:"score"`
	Preview   string  `json:"candidate_preview"`
	// Failed is set when the run earned a hard zero: the student callable
	// never produced text, or the metric itself blew up. An empty
	// transcript is not a hard failure; it lands on the score floor.
	Failed bool `json:"failed"`
}

// Evaluate scores a candidate transcript against the ground truth.
// ok reports whether the invocation actually produced a transcript;
// when false the candidate is ignored and the run is a hard zero.
func Evaluate(groundTruth, candidate string, ok bool) Result {
	if !ok {
		return Result{ErrorRate: 1.0, Score: 0, Preview: PreviewUnavailable, Failed: true}
	}

	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		// Ran fine, transcribed nothing. Worst-case rate, but it still
		// goes through the mapping and earns the floor rather than zero.
		return Result{ErrorRate: 1.0, Score: Score(1.0), Preview: ""}
	}

	rate, err := metrics.CharacterErrorRate(groundTruth, candidate)
	if err != nil {
		log.Printf("CER computation failed, forcing worst case: %v", err)
		return Result{ErrorRate: 1.0, Score: 0, Preview: preview(candidate), Failed: true}
	}
	if rate > 1.0 {
		rate = 1.0
	}
	return Result{ErrorRate: rate, Score: Score(rate), Preview: preview(candidate)}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > previewRunes {
		r = r[:previewRunes]
	}
	return string(r)
}
