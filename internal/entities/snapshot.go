package entities

import "time"

// IssueRecord is one open-issue snapshot row.
type IssueRecord struct {
	Env       Environment
	Service   string
	Number    int
	URL       string
	CreatedBy string
	CreatedAt time.Time
	Duration  int
	Comments  int
	Assignees string
}

// CommitRecord is one doc-staleness snapshot row: the newest commit touching
// a document tree.
type CommitRecord struct {
	Service     string
	DocType     string
	CommittedAt time.Time
	DaysPassed  int
	URL         string
}

// ReviewRecord is one requested-changes snapshot row.
type ReviewRecord struct {
	Number     int
	Service    string
	URL        string
	DaysPassed int
	Reviewer   string
	Status     string
}

// LabelRecord is one review-label snapshot row: the analyzed label paired
// with the counterpart comment state.
type LabelRecord struct {
	Number     int
	Service    string
	URL        string
	DaysPassed int
	Reviewer   string
	Label      string
	Comment    string
}

// RstRecord is one structured-doc presence snapshot row.
type RstRecord struct {
	Number     int
	Service    string
	URL        string
	DaysPassed int
	HasRst     bool
}

// DiffRecord is one files/lines snapshot row.
type DiffRecord struct {
	Number     int
	Service    string
	URL        string
	DaysPassed int
	FilesCount int
	LinesCount int
}

// ZuulRecord is one failed-CI snapshot row.
type ZuulRecord struct {
	Service      string
	Title        string
	URL          string
	State        PRState
	ZuulURL      string
	CheckStatus  string
	CreatedAt    time.Time
	DaysPassed   int
	ParentNumber int
}
