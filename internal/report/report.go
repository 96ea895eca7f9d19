package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"ocr-autograder/internal/grader"
)

// Lines renders the grading result as key=value pairs, one per line, in
// the order the summary step expects. All four fields are always present.
func Lines(res grader.Result) []string {
	return []string{
		fmt.Sprintf("error_rate=%.4f", res.ErrorRate),
		fmt.Sprintf("error_rate_percent=%.2f", res.ErrorRate*100),
		fmt.Sprintf("score=%.2f", res.Score),
		fmt.Sprintf("candidate_preview=%s", sanitize(res.Preview)),
	}
}

// Emit writes the report to w.
func Emit(w io.Writer, res grader.Result) error {
	for _, line := range Lines(res) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("emit report: %w", err)
		}
	}
	return nil
}

// AppendGitHubOutput appends the report to the file named by
// GITHUB_OUTPUT, when set, so a later workflow step can pick the fields
// up. A run outside CI is not an error.
func AppendGitHubOutput(res grader.Result) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Emit(f, res)
}

// key=value output is line-oriented; the preview must stay on one line.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
