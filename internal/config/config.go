package config

import (
	"fmt"
	"os"
	"time"
)

// Env var names fixed by convention with the assignment workflow.
const (
	EnvAPIKey          = "OPENAI_API_KEY"
	EnvImageURL        = "IMAGE_URL"
	EnvGroundTruthPath = "GROUND_TRUTH_PATH"
	EnvSubmissionDir   = "SUBMISSION_DIR"
	EnvSandboxImage    = "SANDBOX_IMAGE"
	EnvSandboxTimeout  = "SANDBOX_TIMEOUT"
)

// Grade holds everything one grading run needs, resolved once at startup
// so the pipeline never reads the environment ad hoc.
type Grade struct {
	APIKey          string
	ImageURL        string
	GroundTruthPath string
	SubmissionDir   string
	SandboxImage    string
	SandboxTimeout  time.Duration
}

// LoadGrade resolves the grading config from the environment. The secret
// and the target image URL are hard requirements; everything else has a
// working default.
func LoadGrade() (*Grade, error) {
	cfg := &Grade{
		APIKey:          os.Getenv(EnvAPIKey),
		ImageURL:        os.Getenv(EnvImageURL),
		GroundTruthPath: envOr(EnvGroundTruthPath, "ground_truth.txt"),
		SubmissionDir:   envOr(EnvSubmissionDir, "."),
		SandboxImage:    envOr(EnvSandboxImage, "python:3.12"),
		SandboxTimeout:  5 * time.Minute,
	}
	if v := os.Getenv(EnvSandboxTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvSandboxTimeout, err)
		}
		cfg.SandboxTimeout = d
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s is not set", EnvAPIKey)
	}
	if cfg.ImageURL == "" {
		return nil, fmt.Errorf("%s is not set", EnvImageURL)
	}
	return cfg, nil
}

// Store holds the object-store settings for grading reports.
type Store struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
}

// LoadStore resolves the MinIO settings from the environment.
func LoadStore() (*Store, error) {
	cfg := &Store{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		Bucket:    os.Getenv("MINIO_BUCKET"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is not set")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("MINIO_BUCKET is not set")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
