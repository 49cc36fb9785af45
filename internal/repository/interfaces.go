// Package repository contains repository interfaces for persistence layers.
package repository

import (
	"context"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// LifecycleInterface describes storage startup/shutdown hooks.
type LifecycleInterface interface {
	OnStart(_ context.Context) error
	OnStop(_ context.Context) error
}

// CatalogInterface exposes service-catalog operations.
type CatalogInterface interface {
	ReplaceCatalog(ctx context.Context, zone entities.Zone, entries []entities.CatalogEntry) error
	ReplaceDocs(ctx context.Context, zone entities.Zone, docs []entities.DocEntry) error
	Repos(ctx context.Context, zone entities.Zone, envs ...string) ([]string, error)
	ExcludedRepos(ctx context.Context, zone entities.Zone) ([]string, error)
}

// PairInterface exposes reconciled-pair storage. Open pairs land in the
// snapshots DB, orphaned pairs in the orphans DB.
type PairInterface interface {
	ResetPairTables(ctx context.Context, zone entities.Zone) error
	InsertPair(ctx context.Context, zone entities.Zone, pair entities.ReconciledPair) error
	RelabelPairs(ctx context.Context, zone entities.Zone) error
}

// SnapshotInterface exposes the per-category snapshot tables. Every table is
// dropped and recreated at the start of its collector's run.
type SnapshotInterface interface {
	ResetIssues(ctx context.Context, zone entities.Zone) error
	InsertIssue(ctx context.Context, zone entities.Zone, rec entities.IssueRecord) error

	ResetEcoIssues(ctx context.Context) error
	InsertEcoIssue(ctx context.Context, rec entities.IssueRecord) error

	ResetCommits(ctx context.Context, zone entities.Zone) error
	InsertCommit(ctx context.Context, zone entities.Zone, rec entities.CommitRecord) error

	ResetReviews(ctx context.Context, zone entities.Zone) error
	InsertReview(ctx context.Context, zone entities.Zone, rec entities.ReviewRecord) error
	UpdateReviewStatus(ctx context.Context, zone entities.Zone, number int, repo, status string) error
	StaleReviews(ctx context.Context, zone entities.Zone, minAgeDays int) ([]entities.ReviewRecord, error)

	ResetLabels(ctx context.Context, zone entities.Zone) error
	InsertLabel(ctx context.Context, zone entities.Zone, rec entities.LabelRecord) error

	ResetRst(ctx context.Context, zone entities.Zone) error
	InsertRst(ctx context.Context, zone entities.Zone, rec entities.RstRecord) error

	ResetDiffs(ctx context.Context, zone entities.Zone) error
	InsertDiff(ctx context.Context, zone entities.Zone, rec entities.DiffRecord) error
	UpdateDiffLines(ctx context.Context, zone entities.Zone, number int, repo string, lines int) error

	ResetZuul(ctx context.Context, zone entities.Zone) error
	InsertZuul(ctx context.Context, zone entities.Zone, rec entities.ZuulRecord) error

	Relabel(ctx context.Context, zone entities.Zone, table entities.Table) error
}

// AlertInterface exposes evaluator reads. Each method maps its table's
// columns into named-field candidates at the store boundary; an empty squad
// means no squad filter.
type AlertInterface interface {
	OrphanCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	IssueCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	DocCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	LabelCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	RstCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	DiffCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
}
