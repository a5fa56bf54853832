package domain

import "time"

// Report represents a complete analysis report
type Report struct {
	Title       string
	Region      string
	Period      ReportPeriod
	Sections    []ReportSection
	Rows        int
	TotalAmount float64
	Currency    string
	GeneratedAt time.Time
}

// ReportPeriod represents the queried month range
type ReportPeriod struct {
	Start  Period
	End    Period
	Months int
}

// ReportSection represents a logical section in the report
type ReportSection struct {
	Title   string
	Summary map[string]interface{}
	Details []ReportDetail
	Counts  *CountTable
}

// ReportDetail represents detailed information within a section
type ReportDetail struct {
	Name        string
	Value       interface{}
	Unit        string
	Description string
}
