package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

func (p *Postgres) exec(ctx context.Context, query string, args ...any) error {
	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()
	_, err := p.snapshots.Exec(queryCtx, query, args...)
	return err
}

// ResetIssues drops and recreates the open-issues table.
func (p *Postgres) ResetIssues(ctx context.Context, zone entities.Zone) error {
	return p.replaceTable(ctx, p.snapshots, entities.OpenIssuesTable.ForZone(zone), issueColumns)
}

// InsertIssue stores one open-issue row.
func (p *Postgres) InsertIssue(ctx context.Context, zone entities.Zone, rec entities.IssueRecord) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (
			"Environment", "Service Name", "Squad", "Issue Number", "Issue URL",
			"Created by", "Created at", "Duration", "Comments", "Assignees"
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`, entities.OpenIssuesTable.ForZone(zone))

	err := p.exec(ctx, insert,
		string(rec.Env), rec.Service, "", rec.Number, rec.URL,
		rec.CreatedBy, rec.CreatedAt, rec.Duration, rec.Comments, rec.Assignees)
	if err != nil {
		p.log.Errorw("insert issue", "number", rec.Number, "service", rec.Service, "error", err)
		return fmt.Errorf("insert issue #%d: %w", rec.Number, err)
	}
	return nil
}

// ResetEcoIssues drops and recreates the infra-org issues table.
func (p *Postgres) ResetEcoIssues(ctx context.Context) error {
	return p.replaceTable(ctx, p.snapshots, string(entities.EcoIssuesTable), ecoIssueColumns)
}

// InsertEcoIssue stores one infra-org issue row.
func (p *Postgres) InsertEcoIssue(ctx context.Context, rec entities.IssueRecord) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (
			"Repo Name", "Issue Number", "Issue URL", "Created by", "Created at",
			"Duration", "Comments", "Assignees"
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`, entities.EcoIssuesTable)

	err := p.exec(ctx, insert,
		rec.Service, rec.Number, rec.URL, rec.CreatedBy, rec.CreatedAt.Format(time.DateOnly),
		rec.Duration, rec.Comments, rec.Assignees)
	if err != nil {
		p.log.Errorw("insert eco issue", "number", rec.Number, "repo", rec.Service, "error", err)
		return fmt.Errorf("insert eco issue #%d: %w", rec.Number, err)
	}
	return nil
}

// ResetCommits drops and recreates the doc-staleness table.
func (p *Postgres) ResetCommits(ctx context.Context, zone entities.Zone) error {
	return p.replaceTable(ctx, p.snapshots, entities.LastCommitTable.ForZone(zone), commitColumns)
}

// InsertCommit stores one doc-staleness row.
func (p *Postgres) InsertCommit(ctx context.Context, zone entities.Zone, rec entities.CommitRecord) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (
			"Service Name", "Doc Type", "Squad", "Last commit at", "Days passed", "Commit URL"
		)
		VALUES ($1, $2, $3, $4, $5, $6);`, entities.LastCommitTable.ForZone(zone))

	err := p.exec(ctx, insert,
		rec.Service, rec.DocType, "", rec.CommittedAt.Format(time.DateOnly), rec.DaysPassed, rec.URL)
	if err != nil {
		p.log.Errorw("insert commit", "service", rec.Service, "doc_type", rec.DocType, "error", err)
		return fmt.Errorf("insert commit for %s: %w", rec.Service, err)
	}
	return nil
}

// ResetReviews drops and recreates the requested-changes table.
func (p *Postgres) ResetReviews(ctx context.Context, zone entities.Zone) error {
	return p.replaceTable(ctx, p.snapshots, entities.RequestedChangesTable.ForZone(zone), reviewColumns)
}

// InsertReview stores one requested-changes row.
func (p *Postgres) InsertReview(ctx context.Context, zone entities.Zone, rec entities.ReviewRecord) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (
			"PR Number", "Service Name", "Squad", "PR URL", "Days passed", "Reviewer", "Parent PR Status"
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`, entities.RequestedChangesTable.ForZone(zone))

	err := p.exec(ctx, insert,
		rec.Number, rec.Service, "", rec.URL, rec.DaysPassed, rec.Reviewer, rec.Status)
	if err != nil {
		p.log.Errorw("insert review", "number", rec.Number, "error", err)
		return fmt.Errorf("insert review #%d: %w", rec.Number, err)
	}
	return nil
}

// UpdateReviewStatus rewrites the parent status of one requested-changes row.
func (p *Postgres) UpdateReviewStatus(ctx context.Context, zone entities.Zone, number int, repo, status string) error {
	update := fmt.Sprintf(`
		UPDATE %s SET "Parent PR Status" = $1
		WHERE "PR Number" = $2 AND "Service Name" = $3;`, entities.RequestedChangesTable.ForZone(zone))

	if err := p.exec(ctx, update, status, number, repo); err != nil {
		p.log.Errorw("update review status", "number", number, "repo", repo, "error", err)
		return fmt.Errorf("update review status #%d: %w", number, err)
	}
	return nil
}

// StaleReviews returns requested-changes rows older than minAgeDays whose
// parent still has changes requested, outside the counterpart squad; the
// label collector starts from them.
func (p *Postgres) StaleReviews(ctx context.Context, zone entities.Zone, minAgeDays int) ([]entities.ReviewRecord, error) {
	query, args, err := p.sb.
		Select(`"PR Number"`, `"Service Name"`, `"PR URL"`, `"Days passed"`, `"Reviewer"`, `"Parent PR Status"`).
		From(entities.RequestedChangesTable.ForZone(zone)).
		Where(sq.Eq{`"Parent PR Status"`: "CHANGES REQUESTED"}).
		Where(sq.NotEq{`"Squad"`: "Huawei"}).
		Where(sq.Gt{`"Days passed"`: minAgeDays}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stale reviews query: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	rows, err := p.snapshots.Query(queryCtx, query, args...)
	if err != nil {
		p.log.Errorw("select stale reviews", "zone", zone, "error", err)
		return nil, fmt.Errorf("select stale reviews: %w", err)
	}
	defer rows.Close()

	var records []entities.ReviewRecord
	for rows.Next() {
		var rec entities.ReviewRecord
		if err := rows.Scan(&rec.Number, &rec.Service, &rec.URL, &rec.DaysPassed, &rec.Reviewer, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan stale review: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ResetLabels drops and recreates the review-label table.
func (p *Postgres) ResetLabels(ctx context.Context, zone entities.Zone) error {
	return p.replaceTable(ctx, p.snapshots, entities.LabelTable.ForZone(zone), labelColumns)
}

// InsertLabel stores one review-label row.
func (p *Postgres) InsertLabel(ctx context.Context, zone entities.Zone, rec entities.LabelRecord) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (
			"PR Number", "Service Name", "Squad", "PR URL", "Days passed", "Reviewer", "Label", "Huawei comment"
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`, entities.LabelTable.ForZone(zone))

	err := p.exec(ctx, insert,
		rec.Number, rec.Service, "", rec.URL, rec.DaysPassed, rec.Reviewer, rec.Label, rec.Comment)
	if err != nil {
		p.log.Errorw("insert label", "number", rec.Number, "error", err)
		return fmt.Errorf("insert label #%d: %w", rec.Number, err)
	}
	return nil
}

// ResetRst drops and recreates the structured-doc presence table.
func (p *Postgres) ResetRst(ctx context.Context, zone entities.Zone) error {
	return p.replaceTable(ctx, p.snapshots, entities.RstTable.ForZone(zone), rstColumns)
}

// InsertRst stores one structured-doc presence row.
func (p *Postgres) InsertRst(ctx context.Context, zone entities.Zone, rec entities.RstRecord) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (
			"PR Number", "Service Name", "Squad", "PR URL", "Days passed", "If .rst"
		)
		VALUES ($1, $2, $3, $4, $5, $6);`, entities.RstTable.ForZone(zone))

	err := p.exec(ctx, insert, rec.Number, rec.Service, "", rec.URL, rec.DaysPassed, rec.HasRst)
	if err != nil {
		p.log.Errorw("insert rst row", "number", rec.Number, "error", err)
		return fmt.Errorf("insert rst row #%d: %w", rec.Number, err)
	}
	return nil
}

// ResetDiffs drops and recreates the diff-size table.
func (p *Postgres) ResetDiffs(ctx context.Context, zone entities.Zone) error {
	return p.replaceTable(ctx, p.snapshots, entities.FilesLinesTable.ForZone(zone), diffColumns)
}

// InsertDiff stores one diff-size row. Lines count is zero until the file
// fan-out completes and UpdateDiffLines fills it in.
func (p *Postgres) InsertDiff(ctx context.Context, zone entities.Zone, rec entities.DiffRecord) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (
			"PR Number", "Service Name", "Squad", "PR URL", "Days passed", "Files count", "Lines count"
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`, entities.FilesLinesTable.ForZone(zone))

	err := p.exec(ctx, insert,
		rec.Number, rec.Service, "", rec.URL, rec.DaysPassed, rec.FilesCount, rec.LinesCount)
	if err != nil {
		p.log.Errorw("insert diff row", "number", rec.Number, "error", err)
		return fmt.Errorf("insert diff row #%d: %w", rec.Number, err)
	}
	return nil
}

// UpdateDiffLines writes the aggregated line count of one PR's diff.
func (p *Postgres) UpdateDiffLines(ctx context.Context, zone entities.Zone, number int, repo string, lines int) error {
	update := fmt.Sprintf(`
		UPDATE %s SET "Lines count" = $1
		WHERE "PR Number" = $2 AND "Service Name" = $3;`, entities.FilesLinesTable.ForZone(zone))

	if err := p.exec(ctx, update, lines, number, repo); err != nil {
		p.log.Errorw("update diff lines", "number", number, "repo", repo, "error", err)
		return fmt.Errorf("update diff lines #%d: %w", number, err)
	}
	return nil
}

// ResetZuul drops and recreates the failed-CI table in the zuul DB.
func (p *Postgres) ResetZuul(ctx context.Context, zone entities.Zone) error {
	return p.replaceTable(ctx, p.zuul, entities.ZuulTable.ForZone(zone), zuulColumns)
}

// InsertZuul stores one failed-CI row.
func (p *Postgres) InsertZuul(ctx context.Context, zone entities.Zone, rec entities.ZuulRecord) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (
			"Service Name", "Failed PR Title", "Failed PR URL", "Squad", "Failed PR State",
			"Zuul URL", "Zuul Check Status", "Created at", "Days Passed", "Parent PR Number"
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`, entities.ZuulTable.ForZone(zone))

	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	_, err := p.zuul.Exec(queryCtx, insert,
		rec.Service, rec.Title, rec.URL, "", string(rec.State),
		rec.ZuulURL, rec.CheckStatus, rec.CreatedAt.Format(time.DateOnly), rec.DaysPassed, rec.ParentNumber)
	if err != nil {
		p.log.Errorw("insert zuul row", "url", rec.URL, "error", err)
		return fmt.Errorf("insert zuul row %s: %w", rec.URL, err)
	}
	return nil
}
