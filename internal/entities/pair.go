package entities

// PairClass is the reconciliation outcome for a proposal/aggregation PR pair.
type PairClass string

const (
	// PairOpen means both child and parent are open.
	PairOpen PairClass = "open"
	// PairOrphaned means child and parent states or merge flags diverged.
	PairOrphaned PairClass = "orphaned"
	// PairResolved means both sides are consistently closed; not alert-worthy.
	PairResolved PairClass = "resolved"
)

// ReconciledPair joins a proposal PR with the aggregation-repo PR its body
// references. Constructed fresh each run and discarded after storage.
type ReconciledPair struct {
	Child        PullRequestRecord
	ParentNumber int
	ParentState  PRState
	ParentMerged bool
	Class        PairClass

	// Enrichment from the service catalog, filled before storage.
	Service string
	Squad   string
	Zone    Zone
}
