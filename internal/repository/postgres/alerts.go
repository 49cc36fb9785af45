package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// candidateQuery reads one snapshot table into alert candidates. The scan
// closure maps that table's columns onto named candidate fields; squad is an
// optional filter, empty means all squads.
func (p *Postgres) candidateQuery(
	ctx context.Context,
	pool *pgxpool.Pool,
	builder sq.SelectBuilder,
	squad string,
	scan func(pgx.Rows, *entities.AlertCandidate) error,
) ([]entities.AlertCandidate, error) {
	if squad != "" {
		builder = builder.Where(sq.Eq{`"Squad"`: squad})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build candidate query: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	rows, err := pool.Query(queryCtx, query, args...)
	if err != nil {
		p.log.Errorw("select candidates", "error", err)
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	defer rows.Close()

	var candidates []entities.AlertCandidate
	for rows.Next() {
		var c entities.AlertCandidate
		if err := scan(rows, &c); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// OrphanCandidates returns diverged pairs from the orphans database.
func (p *Postgres) OrphanCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	builder := p.sb.
		Select("id", `"Parent PR Number"`, `"Service Name"`, `"Squad"`, `"Auto PR URL"`, `"Environment"`).
		From(entities.OpenPRsTable.ForZone(zone))
	return p.candidateQuery(ctx, p.orphans, builder, squad, func(rows pgx.Rows, c *entities.AlertCandidate) error {
		var parent int
		var env string
		if err := rows.Scan(&c.RowID, &parent, &c.Service, &c.Squad, &c.URL, &env); err != nil {
			return err
		}
		c.Type = entities.AlertOrphan
		c.Zone = zone
		c.Environment = entities.Environment(env)
		return nil
	})
}

// IssueCandidates returns open-issue rows with their environment, age and
// assignee list; the evaluator applies the age and assignment policy.
func (p *Postgres) IssueCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	builder := p.sb.
		Select("id", `"Environment"`, `"Service Name"`, `"Squad"`, `"Issue URL"`, `"Duration"`, `"Assignees"`).
		From(entities.OpenIssuesTable.ForZone(zone))
	return p.candidateQuery(ctx, p.snapshots, builder, squad, func(rows pgx.Rows, c *entities.AlertCandidate) error {
		var env string
		if err := rows.Scan(&c.RowID, &env, &c.Service, &c.Squad, &c.URL, &c.DaysPassed, &c.Assignees); err != nil {
			return err
		}
		c.Type = entities.AlertIssue
		c.Zone = zone
		c.Environment = entities.Environment(env)
		return nil
	})
}

// DocCandidates returns doc-staleness rows; the evaluator applies the
// checkpoint policy.
func (p *Postgres) DocCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	builder := p.sb.
		Select("id", `"Service Name"`, `"Squad"`, `"Commit URL"`, `"Days passed"`, `"Doc Type"`).
		From(entities.LastCommitTable.ForZone(zone))
	return p.candidateQuery(ctx, p.snapshots, builder, squad, func(rows pgx.Rows, c *entities.AlertCandidate) error {
		if err := rows.Scan(&c.RowID, &c.Service, &c.Squad, &c.URL, &c.DaysPassed, &c.Label); err != nil {
			return err
		}
		c.Type = entities.AlertDoc
		c.Zone = zone
		return nil
	})
}

// LabelCandidates returns review-label rows with the counterpart comment
// state.
func (p *Postgres) LabelCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	builder := p.sb.
		Select("id", `"Service Name"`, `"Squad"`, `"PR URL"`, `"Days passed"`, `"Label"`, `"Huawei comment"`).
		From(entities.LabelTable.ForZone(zone))
	return p.candidateQuery(ctx, p.snapshots, builder, squad, func(rows pgx.Rows, c *entities.AlertCandidate) error {
		if err := rows.Scan(&c.RowID, &c.Service, &c.Squad, &c.URL, &c.DaysPassed, &c.Label, &c.Comment); err != nil {
			return err
		}
		c.Type = entities.AlertAnalyzed
		c.Zone = zone
		return nil
	})
}

// RstCandidates returns structured-doc presence rows.
func (p *Postgres) RstCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	builder := p.sb.
		Select("id", `"Service Name"`, `"Squad"`, `"PR URL"`, `"Days passed"`, `"If .rst"`).
		From(entities.RstTable.ForZone(zone))
	return p.candidateQuery(ctx, p.snapshots, builder, squad, func(rows pgx.Rows, c *entities.AlertCandidate) error {
		if err := rows.Scan(&c.RowID, &c.Service, &c.Squad, &c.URL, &c.DaysPassed, &c.HasRst); err != nil {
			return err
		}
		c.Type = entities.AlertRst
		c.Zone = zone
		return nil
	})
}

// DiffCandidates returns diff-size rows; the evaluator applies the tiered
// size/lag policy.
func (p *Postgres) DiffCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	builder := p.sb.
		Select("id", `"Service Name"`, `"Squad"`, `"PR URL"`, `"Days passed"`, `"Lines count"`).
		From(entities.FilesLinesTable.ForZone(zone))
	return p.candidateQuery(ctx, p.snapshots, builder, squad, func(rows pgx.Rows, c *entities.AlertCandidate) error {
		if err := rows.Scan(&c.RowID, &c.Service, &c.Squad, &c.URL, &c.DaysPassed, &c.LinesCount); err != nil {
			return err
		}
		c.Type = entities.AlertFilesLines
		c.Zone = zone
		return nil
	})
}
