package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"ocr-autograder/internal/grader"
)

func fields(t *testing.T, res grader.Result) map[string]string {
	t.Helper()
	var buf bytes.Buffer
	if err := Emit(&buf, res); err != nil {
		t.Fatalf("emit: %v", err)
	}
	out := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			t.Fatalf("malformed line %q", line)
		}
		out[k] = v
	}
	return out
}

func TestEmitAllFields(t *testing.T) {
	got := fields(t, grader.Result{ErrorRate: 0.1234, Score: 87.66, Preview: "hello"})
	for _, k := range []string{"error_rate", "error_rate_percent", "score", "candidate_preview"} {
		if _, ok := got[k]; !ok {
			t.Fatalf("missing field %q in %v", k, got)
		}
	}
	if got["error_rate"] != "0.1234" {
		t.Fatalf("error_rate = %q", got["error_rate"])
	}
	if got["error_rate_percent"] != "12.34" {
		t.Fatalf("error_rate_percent = %q", got["error_rate_percent"])
	}
	if got["score"] != "87.66" {
		t.Fatalf("score = %q", got["score"])
	}
	if got["candidate_preview"] != "hello" {
		t.Fatalf("candidate_preview = %q", got["candidate_preview"])
	}
}

func TestEmitPercentMatchesRate(t *testing.T) {
	for _, rate := range []float64{0.0, 0.0001, 0.1234, 0.5, 0.9876, 1.0} {
		got := fields(t, grader.Result{ErrorRate: rate})
		r, err := strconv.ParseFloat(got["error_rate"], 64)
		if err != nil {
			t.Fatalf("parse error_rate: %v", err)
		}
		p, err := strconv.ParseFloat(got["error_rate_percent"], 64)
		if err != nil {
			t.Fatalf("parse error_rate_percent: %v", err)
		}
		want := fmt.Sprintf("%.2f", r*100)
		if fmt.Sprintf("%.2f", p) != want {
			t.Fatalf("rate %v: percent %v does not match rate*100", rate, p)
		}
	}
}

func TestEmitUnavailablePreview(t *testing.T) {
	got := fields(t, grader.Result{ErrorRate: 1, Preview: grader.PreviewUnavailable, Failed: true})
	if got["candidate_preview"] != "not available" {
		t.Fatalf("candidate_preview = %q", got["candidate_preview"])
	}
}

func TestAppendGitHubOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_output")
	t.Setenv("GITHUB_OUTPUT", path)

	res := grader.Result{ErrorRate: 0.25, Score: 75, Preview: "partial text"}
	if err := AppendGitHubOutput(res); err != nil {
		t.Fatalf("append: %v", err)
	}
	// A second write appends rather than truncating.
	if err := AppendGitHubOutput(res); err != nil {
		t.Fatalf("second append: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines from two reports, got %d:\n%s", len(lines), b)
	}
	if lines[0] != "error_rate=0.2500" {
		t.Fatalf("first line = %q", lines[0])
	}
	if lines[2] != "score=75.00" {
		t.Fatalf("third line = %q", lines[2])
	}
}

func TestAppendGitHubOutputOutsideCI(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	if err := AppendGitHubOutput(grader.Result{}); err != nil {
		t.Fatalf("expected no-op without GITHUB_OUTPUT, got %v", err)
	}
}

func TestEmitSanitizesNewlines(t *testing.T) {
	got := fields(t, grader.Result{Preview: "line one\nline two"})
	if strings.Contains(got["candidate_preview"], "\n") {
		t.Fatalf("preview still contains newline: %q", got["candidate_preview"])
	}
}
