package schemas

import "time"

type CreateAssignmentRequest struct {
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	GroundTruth string `json:"ground_truth"`
}

type CreateAssignmentResponse struct {
	AssignmentID string `json:"assignment_id"`
	SubmitToken  string `json:"submit_token"`
}

type AssignmentOut struct {
	AssignmentID string    `json:"assignment_id"`
	Name         string    `json:"name"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateSubmissionRequest struct {
	Student map[string]any `json:"student"`
	RepoURL string         `json:"repo_url"`
	Commit  string         `json:"commit,omitempty"`
}

type CreateSubmissionResponse struct {
	SubmissionID string `json:"submission_id"`
}

type GradeOut struct {
	ErrorRate float64   `json:"error_rate"`
	Score     float64   `json:"score"`
	Preview   string    `json:"candidate_preview"`
	Failed    bool      `json:"failed"`
	ReportRef string    `json:"report_ref,omitempty"`
	GradedAt  time.Time `json:"graded_at"`
}

type SubmissionOut struct {
	SubmissionID string         `json:"submission_id"`
	AssignmentID string         `json:"assignment_id"`
	Student      map[string]any `json:"student"`
	RepoURL      string         `json:"repo_url"`
	Commit       string         `json:"commit,omitempty"`
	Status       string         `json:"status"`
	LastError    string         `json:"last_error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Grade        *GradeOut      `json:"grade,omitempty"`
}
