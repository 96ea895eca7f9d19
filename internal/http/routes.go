package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"

	"ocr-autograder/internal/auth"
	"ocr-autograder/internal/db"
	"ocr-autograder/internal/schemas"
	"ocr-autograder/internal/storage"
)

const TaskGradeSubmission = "grade_submission"

type Server struct {
	DB    *sqlx.DB
	S3    *storage.Client
	Asynq *asynq.Client
}

func NewServer(dbx *sqlx.DB, s3c *storage.Client, asq *asynq.Client) *http.Server {
	s := &Server{DB: dbx, S3: s3c, Asynq: asq}
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	// Instructor endpoints (API_TOKEN)
	r.Group(func(r chi.Router) {
		r.Use(RequireAdminToken)
		r.Post("/assignments", s.createAssignment)
		r.Get("/assignments/{id}", s.getAssignment)
		r.Post("/submissions/{id}/grade", s.enqueueGrade)
		r.Get("/submissions/{id}", s.getSubmission)
		r.Get("/submissions/{id}/report", s.getReport)
	})

	// Student endpoint (per-assignment submit token)
	r.Post("/assignments/{id}/submissions", s.createSubmission)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbx.Ping(); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"status":"db error"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &http.Server{Addr: ":8000", Handler: r}
}

type errResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req schemas.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, errResp{err.Error()})
		return
	}
	if req.ImageURL == "" || strings.TrimSpace(req.GroundTruth) == "" {
		writeJSON(w, 400, errResp{"image_url and ground_truth are required"})
		return
	}
	id := uuid.NewString()
	submit := uuid.NewString()
	_, err := s.DB.Exec(`insert into assignments(id, name, image_url, ground_truth, submit_token_hash) values($1,$2,$3,$4,$5)`,
		id, req.Name, req.ImageURL, strings.TrimSpace(req.GroundTruth), auth.HashToken(submit))
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	writeJSON(w, 200, schemas.CreateAssignmentResponse{AssignmentID: id, SubmitToken: submit})
}

func (s *Server) getAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var a db.Assignment
	if err := s.DB.Get(&a, `select * from assignments where id=$1`, id); err != nil {
		writeJSON(w, 404, errResp{"not found"})
		return
	}
	writeJSON(w, 200, schemas.AssignmentOut{
		AssignmentID: a.ID,
		Name:         a.Name,
		ImageURL:     a.ImageURL,
		CreatedAt:    a.CreatedAt,
	})
}

func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	submit := bearerToken(r)
	if submit == "" {
		writeJSON(w, 401, errResp{"missing bearer"})
		return
	}
	var cnt int
	if err := s.DB.Get(&cnt, `select count(1) from assignments where id=$1 and submit_token_hash=$2`, id, auth.HashToken(submit)); err != nil || cnt == 0 {
		writeJSON(w, 404, errResp{"assignment not found"})
		return
	}
	var req schemas.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, errResp{err.Error()})
		return
	}
	if req.RepoURL == "" {
		writeJSON(w, 400, errResp{"repo_url is required"})
		return
	}
	subID := uuid.NewString()
	student, _ := json.Marshal(req.Student)
	_, err := s.DB.Exec(`insert into submissions(id, assignment_id, student, repo_url, commit_sha, status) values($1,$2,$3,$4,$5,$6)`,
		subID, id, student, req.RepoURL, req.Commit, db.StatusReceived)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	writeJSON(w, 200, schemas.CreateSubmissionResponse{SubmissionID: subID})
}

func (s *Server) enqueueGrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var cnt int
	if err := s.DB.Get(&cnt, `select count(1) from submissions where id=$1`, id); err != nil || cnt == 0 {
		writeJSON(w, 404, errResp{"submission not found"})
		return
	}
	task := asynq.NewTask(TaskGradeSubmission, []byte(id))
	if _, err := s.Asynq.Enqueue(task, asynq.MaxRetry(0)); err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	_, _ = s.DB.Exec(`update submissions set status=$1 where id=$2`, db.StatusGrading, id)
	writeJSON(w, 200, map[string]string{"enqueued": "ok"})
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var sub db.Submission
	if err := s.DB.Get(&sub, `select * from submissions where id=$1`, id); err != nil {
		writeJSON(w, 404, errResp{"not found"})
		return
	}
	out := schemas.SubmissionOut{
		SubmissionID: sub.ID,
		AssignmentID: sub.AssignmentID,
		RepoURL:      sub.RepoURL,
		Commit:       sub.Commit,
		Status:       sub.Status,
		LastError:    sub.LastError,
		CreatedAt:    sub.CreatedAt,
	}
	_ = json.Unmarshal(sub.Student, &out.Student)

	var g db.GradeResult
	err := s.DB.Get(&g, `select * from grade_results where submission_id=$1 order by created_at desc limit 1`, id)
	if err == nil {
		out.Grade = &schemas.GradeOut{
			ErrorRate: g.ErrorRate,
			Score:     g.Score,
			Preview:   g.Preview,
			Failed:    g.Failed,
			ReportRef: g.ReportRef,
			GradedAt:  g.CreatedAt,
		}
	}
	writeJSON(w, 200, out)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var ref string
	err := s.DB.Get(&ref, `select report_ref from grade_results where submission_id=$1 order by created_at desc limit 1`, id)
	if err != nil || ref == "" {
		writeJSON(w, 404, errResp{"no report"})
		return
	}
	doc, err := s.S3.GetReport(r.Context(), ref)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	writeJSON(w, 200, doc)
}
