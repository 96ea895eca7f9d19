package main

import (
	"context"
	"errors"
	"log"
	"os"

	"ocr-autograder/internal/config"
	"ocr-autograder/internal/grader"
	"ocr-autograder/internal/groundtruth"
	"ocr-autograder/internal/report"
	"ocr-autograder/internal/sandbox"
)

// One-shot grading run for CI: load the ground truth, invoke the student
// submission in the sandbox, score the transcript, emit the report.
func main() {
	cfg, err := config.LoadGrade()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	gt, err := groundtruth.Load(cfg.GroundTruthPath)
	if err != nil {
		log.Fatalf("ground truth: %v", err)
	}
	log.Printf("loaded ground truth (%d chars) from %s", len([]rune(gt)), cfg.GroundTruthPath)

	ctx := context.Background()
	runner, err := sandbox.NewRunner(ctx, cfg.SandboxImage, cfg.APIKey, cfg.SandboxTimeout)
	if err != nil {
		log.Fatalf("sandbox: %v", err)
	}

	candidate, err := runner.Transcribe(ctx, sandbox.Source{Dir: cfg.SubmissionDir}, cfg.ImageURL)
	if err != nil {
		var invErr *sandbox.InvocationError
		if !errors.As(err, &invErr) {
			// Module load, missing entry point, bad return type, staging:
			// the submission never ran as agreed. Abort instead of scoring.
			log.Fatalf("submission integration failure: %v", err)
		}
		// Student code raised or timed out. Recover into a zero score.
		log.Printf("no transcription produced: %v", err)
	}

	res := grader.Evaluate(gt, candidate, err == nil)
	log.Printf("error_rate=%.4f score=%.2f", res.ErrorRate, res.Score)

	if err := report.Emit(os.Stdout, res); err != nil {
		log.Fatalf("report: %v", err)
	}
	if err := report.AppendGitHubOutput(res); err != nil {
		log.Printf("warn: github output: %v", err)
	}
}
