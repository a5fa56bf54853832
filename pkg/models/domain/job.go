package domain

import "time"

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is a background aggregation run and its latest progress.
type Job struct {
	ID        string
	Region    string
	From      string
	To        string
	Status    JobStatus
	Completed int
	Total     int
	Current   string
	Rows      int
	Err       error
	StartedAt time.Time
	EndedAt   *time.Time
}

func (j Job) Done() bool {
	return j.Status != JobRunning
}

// JobError is a job failure restored from storage; it keeps the original kind.
type JobError struct {
	ErrKind string
	Message string
}

func (e *JobError) Error() string { return e.Message }

func (e *JobError) Kind() string { return e.ErrKind }
