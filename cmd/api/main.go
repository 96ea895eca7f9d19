package main

import (
	"context"
	"log"
	"os"

	"github.com/hibiken/asynq"

	"ocr-autograder/internal/config"
	"ocr-autograder/internal/db"
	httpSrv "ocr-autograder/internal/http"
	"ocr-autograder/internal/migrations"
	"ocr-autograder/internal/storage"
)

func main() {
	// Run embedded migrations (idempotent)
	migrations.Run()

	dbase := db.MustOpen()
	sc, err := config.LoadStore()
	if err != nil {
		log.Fatal(err)
	}
	s3c, err := storage.New(context.Background(), sc)
	if err != nil {
		log.Fatal(err)
	}
	asq := asynq.NewClient(asynq.RedisClientOpt{Addr: os.Getenv("REDIS_ADDR")})
	srv := httpSrv.NewServer(dbase, s3c, asq)
	log.Printf("grading API listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
