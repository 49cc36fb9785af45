package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

func (p *Postgres) pools() []*pgxpool.Pool {
	return []*pgxpool.Pool{p.snapshots, p.orphans, p.zuul}
}

// ReplaceCatalog rebuilds the catalog table in all three databases so every
// relabel join stays within its own database.
func (p *Postgres) ReplaceCatalog(ctx context.Context, zone entities.Zone, entries []entities.CatalogEntry) error {
	name := entities.CatalogTable.ForZone(zone)
	insert := fmt.Sprintf(`
		INSERT INTO %s ("Repository", "Title", "Category", "Squad", "Env")
		VALUES ($1, $2, $3, $4, $5);`, name)

	for _, pool := range p.pools() {
		if err := p.replaceTable(ctx, pool, name, catalogColumns); err != nil {
			return err
		}
		for _, e := range entries {
			queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
			_, err := pool.Exec(queryCtx, insert, e.Repository, e.Title, e.Category, e.Squad, e.Env)
			cancel()
			if err != nil {
				p.log.Errorw("insert catalog entry", "repository", e.Repository, "error", err)
				return fmt.Errorf("insert catalog entry %s: %w", e.Repository, err)
			}
		}
	}
	p.log.Infow("catalog replaced", "zone", zone, "entries", len(entries))
	return nil
}

// ReplaceDocs rebuilds the published-documents table in the snapshots DB.
func (p *Postgres) ReplaceDocs(ctx context.Context, zone entities.Zone, docs []entities.DocEntry) error {
	name := entities.DocsTable.ForZone(zone)
	if err := p.replaceTable(ctx, p.snapshots, name, docsColumns); err != nil {
		return err
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s ("Service Type", "Title", "Document Type", "Link")
		VALUES ($1, $2, $3, $4);`, name)
	for _, d := range docs {
		queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
		_, err := p.snapshots.Exec(queryCtx, insert, d.ServiceType, d.Title, d.DocumentType, d.Link)
		cancel()
		if err != nil {
			p.log.Errorw("insert doc entry", "title", d.Title, "error", err)
			return fmt.Errorf("insert doc entry %s: %w", d.Title, err)
		}
	}
	return nil
}

// Repos returns catalog repository names, optionally restricted to the given
// environments.
func (p *Postgres) Repos(ctx context.Context, zone entities.Zone, envs ...string) ([]string, error) {
	builder := p.sb.
		Select(`"Repository"`).
		From(entities.CatalogTable.ForZone(zone))
	if len(envs) > 0 {
		builder = builder.Where(sq.Eq{`"Env"`: envs})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build repos query: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	rows, err := p.snapshots.Query(queryCtx, query, args...)
	if err != nil {
		p.log.Errorw("select repos", "zone", zone, "error", err)
		return nil, fmt.Errorf("select repos: %w", err)
	}
	defer rows.Close()

	var repos []string
	for rows.Next() {
		var repo string
		if err := rows.Scan(&repo); err != nil {
			return nil, fmt.Errorf("scan repo: %w", err)
		}
		repos = append(repos, repo)
	}
	return repos, rows.Err()
}

// ExcludedRepos returns service titles hidden from reconciliation, the
// internal and hidden environments.
func (p *Postgres) ExcludedRepos(ctx context.Context, zone entities.Zone) ([]string, error) {
	query, args, err := p.sb.
		Select(`DISTINCT "Title"`).
		From(entities.CatalogTable.ForZone(zone)).
		Where(sq.Eq{`"Env"`: []string{"internal", "hidden"}}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build excluded repos query: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	rows, err := p.snapshots.Query(queryCtx, query, args...)
	if err != nil {
		p.log.Errorw("select excluded repos", "zone", zone, "error", err)
		return nil, fmt.Errorf("select excluded repos: %w", err)
	}
	defer rows.Close()

	var repos []string
	for rows.Next() {
		var repo string
		if err := rows.Scan(&repo); err != nil {
			return nil, fmt.Errorf("scan excluded repo: %w", err)
		}
		repos = append(repos, repo)
	}
	return repos, rows.Err()
}
