package api

import "time"

type Region struct {
	Name       string      `json:"name"`
	Code       string      `json:"code"`
	SubRegions []SubRegion `json:"sub_regions,omitempty"`
}

type SubRegion struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Count   int        `json:"count"`
}

type CountRow struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

type CountTable struct {
	Dimensions []string   `json:"dimensions"`
	Rows       []CountRow `json:"rows"`
	Total      int        `json:"total"`
}

type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

type Job struct {
	ID        string     `json:"id"`
	Region    string     `json:"region"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Status    JobStatus  `json:"status"`
	Completed int        `json:"completed"`
	Total     int        `json:"total"`
	Current   string     `json:"current,omitempty"`
	Rows      int        `json:"rows"`
	Error     *Error     `json:"error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

type CreateJobRequest struct {
	Region string `json:"region"`
	From   string `json:"from"`
	To     string `json:"to"`
}

type Report struct {
	Title       string          `json:"title"`
	Region      string          `json:"region"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Months      int             `json:"months"`
	Rows        int             `json:"rows"`
	TotalAmount float64         `json:"total_amount"`
	Currency    string          `json:"currency"`
	GeneratedAt time.Time       `json:"generated_at"`
	Sections    []ReportSection `json:"sections"`
}

type ReportSection struct {
	Title   string                 `json:"title"`
	Summary map[string]interface{} `json:"summary,omitempty"`
	Details []ReportDetail         `json:"details"`
	Counts  *CountTable            `json:"counts,omitempty"`
}

type ReportDetail struct {
	Name        string      `json:"name"`
	Value       interface{} `json:"value"`
	Unit        string      `json:"unit,omitempty"`
	Description string      `json:"description,omitempty"`
}
