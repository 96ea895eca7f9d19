package main

import (
	"context"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ocr-autograder/internal/config"
	"ocr-autograder/internal/db"
	"ocr-autograder/internal/sandbox"
	"ocr-autograder/internal/storage"
	"ocr-autograder/internal/worker"
)

func main() {
	ctx := context.Background()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY is not set")
	}
	image := os.Getenv("SANDBOX_IMAGE")
	if image == "" {
		image = "python:3.12"
	}

	dbase := db.MustOpen()
	sc, err := config.LoadStore()
	if err != nil {
		log.Fatal(err)
	}
	s3c, err := storage.New(ctx, sc)
	if err != nil {
		log.Fatal(err)
	}
	runner, err := sandbox.NewRunner(ctx, image, apiKey, 10*time.Minute)
	if err != nil {
		log.Fatal(err)
	}
	if err := worker.Run(os.Getenv("REDIS_ADDR"), dbase, s3c, runner); err != nil {
		log.Fatal(err)
	}
}
