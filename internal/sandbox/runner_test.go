package sandbox

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImageRef(t *testing.T) {
	cases := map[string]string{
		"python:3.12":       "python:3.12",
		"alpine/git:latest": "alpine/git:latest",
		"python":            "docker.io/library/python:latest",
	}
	for in, want := range cases {
		if got := imageRef(in); got != want {
			t.Fatalf("imageRef(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProbeScriptNamesContract(t *testing.T) {
	for _, script := range []string{probeScript, invokeScript} {
		if !strings.Contains(script, `"solution"`) {
			t.Fatalf("script does not import the solution module:\n%s", script)
		}
	}
	if !strings.Contains(invokeScript, "image_url=sys.argv[1]") {
		t.Fatalf("invoke script does not pass image_url by name:\n%s", invokeScript)
	}
}

func TestInvokeScriptIsolatesTranscript(t *testing.T) {
	if !strings.Contains(invokeScript, transcriptPath) {
		t.Fatalf("invoke script does not write the transcript file:\n%s", invokeScript)
	}
	// Student print() calls share stdout; the graded text must not.
	if strings.Contains(invokeScript, "sys.stdout.write") {
		t.Fatalf("invoke script writes the transcript to stdout:\n%s", invokeScript)
	}
}

func TestRunFailureClassification(t *testing.T) {
	var ie *InvocationError
	timeout := runFailure(fmt.Errorf("wait: %w", context.DeadlineExceeded))
	if !errors.As(timeout, &ie) {
		t.Fatalf("timeout should be a recovered invocation failure, got %v", timeout)
	}
	infra := runFailure(fmt.Errorf("create: daemon unreachable"))
	if errors.As(infra, &ie) {
		t.Fatalf("docker failure must not be scored against the student: %v", infra)
	}
}

func TestInvocationErrorTruncatesStderr(t *testing.T) {
	e := &InvocationError{ExitCode: 1, Stderr: strings.Repeat("x", 2000)}
	if len(e.Error()) > 600 {
		t.Fatalf("error string too long: %d", len(e.Error()))
	}
}

func TestTarDirRelativePaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "pkg"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "solution.py"), []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pkg", "util.py"), []byte("y = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := tarDir(dir)
	if err != nil {
		t.Fatalf("tarDir: %v", err)
	}
	names := tarNames(t, r)
	if !names["solution.py"] || !names["pkg/util.py"] {
		t.Fatalf("missing expected entries, got %v", names)
	}
	for n := range names {
		if strings.HasPrefix(n, ".git/") {
			t.Fatalf(".git contents leaked into archive: %v", names)
		}
	}
}

func tarNames(t *testing.T, r io.Reader) map[string]bool {
	t.Helper()
	names := map[string]bool{}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read tar: %v", err)
		}
		names[hdr.Name] = true
	}
	return names
}
