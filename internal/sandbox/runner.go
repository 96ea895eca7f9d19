package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	img "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
)

// Fixed contract with the assignment: the submission must expose
// transcribe_image(image_url=...) -> str in a module named solution.
const (
	EntryModule = "solution"
	EntryFunc   = "transcribe_image"
)

// Integration failures. The submission never ran; the grading run should
// abort rather than degrade.
var (
	ErrModuleLoad        = errors.New("student module failed to load")
	ErrEntryPointMissing = errors.New("entry point missing or not callable")
	ErrBadReturnType     = errors.New("entry point returned a non-string value")
)

// InvocationError is the recovered failure class: the entry point was
// found and called, but raised or otherwise produced nothing. The
// pipeline converts it into a worst-case score instead of aborting.
type InvocationError struct {
	ExitCode int
	Stderr   string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("transcription call failed (exit=%d): %s", e.ExitCode, truncate(e.Stderr, 500))
}

// Exit codes agreed with the probe/invoke snippets below.
const (
	exitModuleLoad    = 3
	exitEntryMissing  = 4
	exitBadReturnType = 5
)

var probeScript = fmt.Sprintf(`
import importlib, sys
try:
    mod = importlib.import_module(%[1]q)
except Exception as e:
    sys.stderr.write("import failed: %%s\n" %% e)
    sys.exit(%[3]d)
fn = getattr(mod, %[2]q, None)
if not callable(fn):
    sys.exit(%[4]d)
`, EntryModule, EntryFunc, exitModuleLoad, exitEntryMissing)

// The transcript goes to a file, not stdout: stray print() calls inside
// the student code must never end up in the graded text.
const transcriptPath = "/submission/.transcript.out"

var invokeScript = fmt.Sprintf(`
import importlib, sys
fn = getattr(importlib.import_module(%[1]q), %[2]q)
out = fn(image_url=sys.argv[1])
if not isinstance(out, str):
    sys.exit(%[3]d)
with open(%[4]q, "w", encoding="utf-8") as f:
    f.write(out)
`, EntryModule, EntryFunc, exitBadReturnType, transcriptPath)

// Runner executes a student submission inside a docker container with
// /submission mounted from a throwaway volume. Requires DOCKER_HOST to
// point at a reachable daemon (e.g. tcp://dind:2375 in CI).
type Runner struct {
	cli     *client.Client
	image   string
	apiKey  string
	timeout time.Duration
}

func NewRunner(ctx context.Context, image, apiKey string, timeout time.Duration) (*Runner, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("cannot reach docker daemon: %w", err)
	}
	return &Runner{cli: cli, image: image, apiKey: apiKey, timeout: timeout}, nil
}

// Source names where the submission comes from: a local directory (CI
// checkout) or a git repository to clone.
type Source struct {
	Dir     string
	RepoURL string
	Commit  string
}

// Transcribe stages the submission into a fresh volume, verifies the
// entry point exists, then invokes it with the image URL. The student
// code runs with the API key in its environment and network access on
// (the transcription itself is a vision-API call); the probe runs with
// the network off.
func (r *Runner) Transcribe(ctx context.Context, src Source, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := pullIfNeeded(ctx, r.cli, r.image); err != nil {
		return "", fmt.Errorf("pull sandbox image %s: %w", r.image, err)
	}

	volName := fmt.Sprintf("grader-%d", time.Now().UnixNano())
	if _, err := r.cli.VolumeCreate(ctx, volume.CreateOptions{Name: volName}); err != nil {
		return "", fmt.Errorf("volume create: %w", err)
	}
	defer func() {
		if err := r.cli.VolumeRemove(context.Background(), volName, true); err != nil {
			log.Printf("warn: remove volume %s: %v", volName, err)
		}
	}()

	if err := r.stage(ctx, volName, src); err != nil {
		return "", err
	}

	if err := r.probe(ctx, volName); err != nil {
		return "", err
	}

	log.Printf("sandbox: invoking %s.%s(image_url=%s)", EntryModule, EntryFunc, imageURL)
	_, stderr, exitCode, err := runWithLogs(ctx, r.cli, r.image, volName,
		[]string{"python", "-c", invokeScript, imageURL},
		true,
		[]string{"OPENAI_API_KEY=" + r.apiKey},
		defaultResources(),
	)
	if err != nil {
		return "", runFailure(err)
	}
	switch exitCode {
	case 0:
		return r.readTranscript(ctx, volName)
	case exitBadReturnType:
		return "", ErrBadReturnType
	default:
		return "", &InvocationError{ExitCode: exitCode, Stderr: stderr}
	}
}

// runFailure classifies a docker-level failure during the invocation. A
// blown deadline is the student's timeout and is scored as a failed
// invocation; anything else is grader infrastructure and stays fatal.
func runFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &InvocationError{ExitCode: -1, Stderr: "transcription timed out"}
	}
	return fmt.Errorf("invoke transcription: %w", err)
}

// readTranscript fetches the transcript file in a follow-up step with
// the network off.
func (r *Runner) readTranscript(ctx context.Context, volName string) (string, error) {
	stdout, stderr, exitCode, err := runWithLogs(ctx, r.cli, r.image, volName,
		[]string{"cat", transcriptPath}, false, nil, nil)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	if exitCode != 0 {
		return "", fmt.Errorf("read transcript exit=%d: %s", exitCode, truncate(stderr, 500))
	}
	return stdout, nil
}

// stage puts the submission at /submission in the volume.
func (r *Runner) stage(ctx context.Context, volName string, src Source) error {
	if src.Dir != "" {
		log.Printf("sandbox: copying submission dir %s", src.Dir)
		if err := copyDirToVolume(ctx, r.cli, volName, src.Dir); err != nil {
			return fmt.Errorf("copy submission: %w", err)
		}
		return nil
	}

	const gitImage = "alpine/git:latest"
	if err := pullIfNeeded(ctx, r.cli, gitImage); err != nil {
		return fmt.Errorf("pull %s: %w", gitImage, err)
	}
	log.Printf("sandbox: cloning %s commit %s", src.RepoURL, src.Commit)
	if err := runOneShot(ctx, r.cli, gitImage, volName,
		[]string{"clone", src.RepoURL, "/submission"}, true); err != nil {
		return fmt.Errorf("git clone: %w", err)
	}
	if c := strings.TrimSpace(src.Commit); c != "" && c != "HEAD" {
		if err := runOneShot(ctx, r.cli, gitImage, volName,
			[]string{"-C", "/submission", "checkout", c}, true); err != nil {
			return fmt.Errorf("git checkout %q: %w", c, err)
		}
	}
	return nil
}

// probe checks the entry point before the real invocation so a missing
// function reports as a misconfiguration, not a failed transcription.
func (r *Runner) probe(ctx context.Context, volName string) error {
	_, stderr, exitCode, err := runWithLogs(ctx, r.cli, r.image, volName,
		[]string{"python", "-c", probeScript}, false, nil, defaultResources())
	if err != nil {
		return fmt.Errorf("entry point probe: %w", err)
	}
	switch exitCode {
	case 0:
		return nil
	case exitModuleLoad:
		return fmt.Errorf("%w: %s", ErrModuleLoad, truncate(stderr, 500))
	case exitEntryMissing:
		return fmt.Errorf("%w: expected %s.%s", ErrEntryPointMissing, EntryModule, EntryFunc)
	default:
		return fmt.Errorf("entry point probe exit=%d: %s", exitCode, truncate(stderr, 500))
	}
}

func defaultResources() *container.Resources {
	return &container.Resources{
		Memory:   1 << 30, // 1 GiB
		NanoCPUs: 2e9,     // 2 CPUs
	}
}

func pullIfNeeded(ctx context.Context, cli *client.Client, image string) error {
	reader, err := cli.ImagePull(ctx, imageRef(image), img.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()
	drain(reader) // eat the progress stream
	return nil
}

func imageRef(image string) string {
	// allow "python:3.12", "alpine/git:latest", etc.
	if strings.Contains(image, "/") || strings.Contains(image, ":") {
		return image
	}
	return "docker.io/library/" + image + ":latest"
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
