package entities

// AlertType is the closed tag selecting the notification message template.
type AlertType string

const (
	// AlertOrphan flags a diverged proposal/aggregation PR pair.
	AlertOrphan AlertType = "orphan"
	// AlertIssue flags an unassigned issue past its age threshold.
	AlertIssue AlertType = "issue"
	// AlertDoc flags a document crossing a staleness checkpoint.
	AlertDoc AlertType = "doc"
	// AlertAnalyzed flags a review-label/comment mismatch.
	AlertAnalyzed AlertType = "analyzed"
	// AlertRst flags a PR missing timely structured-doc review.
	AlertRst AlertType = "rst"
	// AlertFilesLines flags a large diff without timely review.
	AlertFilesLines AlertType = "files_lines"
)

// AlertCandidate is one snapshot row qualifying for a notification, read
// fresh from the store at evaluation time with named fields populated at the
// store-read boundary.
type AlertCandidate struct {
	Type        AlertType
	RowID       int64
	Service     string
	Squad       string
	Zone        Zone
	URL         string
	DaysPassed  int
	LinesCount  int
	HasRst      bool
	Label       string
	Comment     string
	Environment Environment
	Assignees   string
}

// DeliveryResult reports the outcome of one chat send attempt.
type DeliveryResult struct {
	Success bool
	Message string
}
