package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"

	"ocr-autograder/internal/db"
	"ocr-autograder/internal/grader"
	httpapi "ocr-autograder/internal/http"
	"ocr-autograder/internal/sandbox"
	"ocr-autograder/internal/storage"
)

type Server struct {
	DB     *sqlx.DB
	S3     *storage.Client
	Runner *sandbox.Runner
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(httpapi.TaskGradeSubmission, s.handleGrade)
	return mux
}

func (s *Server) handleGrade(ctx context.Context, t *asynq.Task) error {
	id := string(t.Payload())
	log.Printf("grading submission %s", id)

	var sub db.Submission
	if err := s.DB.GetContext(ctx, &sub, `select * from submissions where id=$1`, id); err != nil {
		return err
	}
	var asg db.Assignment
	if err := s.DB.GetContext(ctx, &asg, `select * from assignments where id=$1`, sub.AssignmentID); err != nil {
		return err
	}

	candidate, invokeErr := s.Runner.Transcribe(ctx,
		sandbox.Source{RepoURL: sub.RepoURL, Commit: sub.Commit}, asg.ImageURL)

	if invokeErr != nil {
		var ie *sandbox.InvocationError
		if !errors.As(invokeErr, &ie) {
			// The submission never ran as agreed (missing entry point, bad
			// return type, clone failure). Record the failure, no grade.
			log.Printf("submission %s integration failure: %v", id, invokeErr)
			_, err := s.DB.ExecContext(ctx,
				`update submissions set status=$1, last_error=$2 where id=$3`,
				db.StatusFailed, invokeErr.Error(), id)
			return err
		}
		log.Printf("submission %s produced no transcription: %v", id, invokeErr)
	}

	res := grader.Evaluate(asg.GroundTruth, candidate, invokeErr == nil)
	log.Printf("submission %s: error_rate=%.4f score=%.2f", id, res.ErrorRate, res.Score)

	doc := map[string]any{
		"submission_id": id,
		"assignment_id": asg.ID,
		"image_url":     asg.ImageURL,
		"result":        res,
		"transcript":    candidate,
		"graded_at":     time.Now().UTC(),
	}
	if invokeErr != nil {
		doc["sandbox_error"] = invokeErr.Error()
	}
	ref, err := s.S3.PutReport(ctx, id, doc)
	if err != nil {
		// The grade itself still lands; the full report is best-effort.
		log.Printf("warn: store report for %s: %v", id, err)
		ref = ""
	}

	return db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`insert into grade_results(id, submission_id, error_rate, score, preview, failed, report_ref) values($1,$2,$3,$4,$5,$6,$7)`,
			uuid.NewString(), id, res.ErrorRate, res.Score, res.Preview, res.Failed, ref); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`update submissions set status=$1, last_error='' where id=$2`,
			db.StatusGraded, id)
		return err
	})
}

func Run(addr string, dbx *sqlx.DB, s3c *storage.Client, runner *sandbox.Runner) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: addr}, asynq.Config{Concurrency: 2})
	w := &Server{DB: dbx, S3: s3c, Runner: runner}
	return srv.Run(w.mux())
}
