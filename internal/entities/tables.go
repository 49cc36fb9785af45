package entities

// Table is a typed snapshot table name. Zone-qualified names are derived via
// ForZone; raw strings never reach query text from outside this set.
type Table string

const (
	// CatalogTable maps repositories to titles and squads.
	CatalogTable Table = "repo_title_category"
	// DocsTable lists published documents per service.
	DocsTable Table = "doc_types"
	// OpenPRsTable holds reconciled pairs: open pairs in the snapshots DB,
	// orphaned pairs under the same name in the orphans DB.
	OpenPRsTable Table = "open_prs"
	// OpenIssuesTable holds the issue snapshot.
	OpenIssuesTable Table = "open_issues"
	// EcoIssuesTable holds the infra-org issue snapshot. Zone-independent:
	// one table for the whole organization, no catalog relabel.
	EcoIssuesTable Table = "open_issues_eco"
	// LastCommitTable holds the doc-staleness snapshot.
	LastCommitTable Table = "last_update_commit"
	// RequestedChangesTable holds the requested-changes review snapshot.
	RequestedChangesTable Table = "requested_changes"
	// LabelTable holds the review-label snapshot.
	LabelTable Table = "huawei_label"
	// RstTable holds the structured-doc presence snapshot.
	RstTable Table = "huawei_to_otc"
	// FilesLinesTable holds the diff-size snapshot.
	FilesLinesTable Table = "huawei_files_lines"
	// ZuulTable holds the failed-CI snapshot in the zuul DB.
	ZuulTable Table = "open_zuul"
)

// ForZone returns the zone-qualified table name.
func (t Table) ForZone(zone Zone) string {
	if zone == ZoneHybrid {
		return string(t) + "_swiss"
	}
	return string(t)
}
