package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKey, "sk-test")
	t.Setenv(EnvImageURL, "https://example.com/scan.png")
}

func TestLoadGradeDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := LoadGrade()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GroundTruthPath != "ground_truth.txt" {
		t.Fatalf("GroundTruthPath = %q", cfg.GroundTruthPath)
	}
	if cfg.SubmissionDir != "." {
		t.Fatalf("SubmissionDir = %q", cfg.SubmissionDir)
	}
	if cfg.SandboxImage != "python:3.12" {
		t.Fatalf("SandboxImage = %q", cfg.SandboxImage)
	}
	if cfg.SandboxTimeout != 5*time.Minute {
		t.Fatalf("SandboxTimeout = %v", cfg.SandboxTimeout)
	}
}

func TestLoadGradeMissingAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvImageURL, "https://example.com/scan.png")
	if _, err := LoadGrade(); err == nil {
		t.Fatalf("expected error when %s is unset", EnvAPIKey)
	}
}

func TestLoadGradeMissingImageURL(t *testing.T) {
	t.Setenv(EnvAPIKey, "sk-test")
	t.Setenv(EnvImageURL, "")
	if _, err := LoadGrade(); err == nil {
		t.Fatalf("expected error when %s is unset", EnvImageURL)
	}
}

func TestLoadGradeTimeoutOverride(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvSandboxTimeout, "90s")
	cfg, err := LoadGrade()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SandboxTimeout != 90*time.Second {
		t.Fatalf("SandboxTimeout = %v", cfg.SandboxTimeout)
	}
}

func TestLoadGradeBadTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvSandboxTimeout, "soon")
	if _, err := LoadGrade(); err == nil {
		t.Fatalf("expected error for unparseable timeout")
	}
}

func TestLoadStore(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_BUCKET", "grades")
	t.Setenv("MINIO_ACCESS_KEY", "ak")
	t.Setenv("MINIO_SECRET_KEY", "sk")
	cfg, err := LoadStore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Endpoint != "minio:9000" || cfg.Bucket != "grades" {
		t.Fatalf("unexpected store config: %+v", cfg)
	}
}

func TestLoadStoreMissingRequired(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("MINIO_BUCKET", "grades")
	if _, err := LoadStore(); err == nil {
		t.Fatalf("expected error when MINIO_ENDPOINT is unset")
	}
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_BUCKET", "")
	if _, err := LoadStore(); err == nil {
		t.Fatalf("expected error when MINIO_BUCKET is unset")
	}
}
