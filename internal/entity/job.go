package entity

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job tracks one asynchronous filter request.
type Job struct {
	ID        string    `json:"id"`
	Filter    string    `json:"filter"`
	FileName  string    `json:"file_name"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the job reached a final state.
func (j *Job) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// FilterTask is the message published for the processor.
type FilterTask struct {
	JobID  string `json:"job_id"`
	Filter string `json:"filter"`
}

// MessageKey keeps every message of one job on the same partition.
func (t FilterTask) MessageKey() string {
	return t.JobID
}

type FilterInfo struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type FilterListResponse struct {
	Filters []FilterInfo `json:"filters"`
}

type DataURIResponse struct {
	Name    string `json:"name"`
	Filter  string `json:"filter"`
	DataURI string `json:"data_uri,omitempty"`
	Error   string `json:"error,omitempty"`
}

type BatchResponse struct {
	Filter  string            `json:"filter"`
	Results []DataURIResponse `json:"results"`
}

type SubmitResponse struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}

type JobResponse struct {
	ID        string    `json:"id"`
	Filter    string    `json:"filter"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	ResultURL string    `json:"result_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
