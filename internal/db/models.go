package db

import "time"

// Assignment is one grading target: a scanned image plus the reference
// transcript it must be transcribed into. The submit token lets students
// register submissions without the admin token; only its hash is stored.
type Assignment struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	ImageURL        string    `db:"image_url"`
	GroundTruth     string    `db:"ground_truth"`
	SubmitTokenHash string    `db:"submit_token_hash"`
	CreatedAt       time.Time `db:"created_at"`
}

// Submission statuses.
const (
	StatusReceived = "received"
	StatusGrading  = "grading"
	StatusGraded   = "graded"
	StatusFailed   = "failed"
)

type Submission struct {
	ID           string    `db:"id"`
	AssignmentID string    `db:"assignment_id"`
	Student      []byte    `db:"student"`
	RepoURL      string    `db:"repo_url"`
	Commit       string    `db:"commit_sha"`
	Status       string    `db:"status"`
	LastError    string    `db:"last_error"`
	CreatedAt    time.Time `db:"created_at"`
}

type GradeResult struct {
	ID           string    `db:"id"`
	SubmissionID string    `db:"submission_id"`
	ErrorRate    float64   `db:"error_rate"`
	Score        float64   `db:"score"`
	Preview      string    `db:"preview"`
	Failed       bool      `db:"failed"`
	ReportRef    string    `db:"report_ref"`
	CreatedAt    time.Time `db:"created_at"`
}
