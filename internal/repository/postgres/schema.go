package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Column sets mirror the dashboard spreadsheets that read these tables, hence
// the human-readable quoted names.
const (
	catalogColumns = `
		id SERIAL PRIMARY KEY,
		"Repository" VARCHAR(255),
		"Title" VARCHAR(255),
		"Category" VARCHAR(255),
		"Squad" VARCHAR(255),
		"Env" VARCHAR(255)`

	docsColumns = `
		id SERIAL PRIMARY KEY,
		"Service Type" VARCHAR(255),
		"Title" VARCHAR(255),
		"Document Type" VARCHAR(255),
		"Link" VARCHAR(255)`

	pairColumns = `
		id SERIAL PRIMARY KEY,
		"Parent PR Number" INT,
		"Service Name" VARCHAR(255),
		"Squad" VARCHAR(255),
		"Auto PR URL" VARCHAR(255),
		"Auto PR State" VARCHAR(255),
		"If merged" BOOLEAN,
		"Environment" VARCHAR(255),
		"Parent PR State" VARCHAR(255),
		"Parent PR merged" BOOLEAN`

	issueColumns = `
		id SERIAL PRIMARY KEY,
		"Environment" VARCHAR(255),
		"Service Name" VARCHAR(255),
		"Squad" VARCHAR(255),
		"Issue Number" INT,
		"Issue URL" VARCHAR(255),
		"Created by" VARCHAR(255),
		"Created at" TIMESTAMP,
		"Duration" INT,
		"Comments" INT,
		"Assignees" TEXT`

	ecoIssueColumns = `
		id SERIAL PRIMARY KEY,
		"Repo Name" VARCHAR(255),
		"Issue Number" INT,
		"Issue URL" VARCHAR(255),
		"Created by" VARCHAR(255),
		"Created at" VARCHAR(255),
		"Duration" INT,
		"Comments" INT,
		"Assignees" TEXT`

	commitColumns = `
		id SERIAL PRIMARY KEY,
		"Service Name" VARCHAR(255),
		"Doc Type" VARCHAR(255),
		"Squad" VARCHAR(255),
		"Last commit at" VARCHAR(255),
		"Days passed" INT,
		"Commit URL" VARCHAR(255)`

	reviewColumns = `
		id SERIAL PRIMARY KEY,
		"PR Number" INT,
		"Service Name" VARCHAR(255),
		"Squad" VARCHAR(255),
		"PR URL" VARCHAR(255),
		"Days passed" INT,
		"Reviewer" VARCHAR(255),
		"Parent PR Status" VARCHAR(255)`

	labelColumns = `
		id SERIAL PRIMARY KEY,
		"PR Number" INT,
		"Service Name" VARCHAR(255),
		"Squad" VARCHAR(255),
		"PR URL" VARCHAR(255),
		"Days passed" INT,
		"Reviewer" VARCHAR(255),
		"Label" VARCHAR(255),
		"Huawei comment" VARCHAR(255)`

	rstColumns = `
		id SERIAL PRIMARY KEY,
		"PR Number" INT,
		"Service Name" VARCHAR(255),
		"Squad" VARCHAR(255),
		"PR URL" VARCHAR(255),
		"Days passed" INT,
		"If .rst" BOOLEAN`

	diffColumns = `
		id SERIAL PRIMARY KEY,
		"PR Number" INT,
		"Service Name" VARCHAR(255),
		"Squad" VARCHAR(255),
		"PR URL" VARCHAR(255),
		"Days passed" INT,
		"Files count" INT,
		"Lines count" INT`

	zuulColumns = `
		id SERIAL PRIMARY KEY,
		"Service Name" VARCHAR(255),
		"Failed PR Title" VARCHAR(255),
		"Failed PR URL" VARCHAR(255),
		"Squad" VARCHAR(255),
		"Failed PR State" VARCHAR(255),
		"Zuul URL" VARCHAR(255),
		"Zuul Check Status" VARCHAR(255),
		"Created at" VARCHAR(255),
		"Days Passed" INT,
		"Parent PR Number" INT`
)

// replaceTable drops and recreates one table. Every collector run starts from
// an empty table; there is no migration history to preserve.
func (p *Postgres) replaceTable(ctx context.Context, pool *pgxpool.Pool, name, columns string) error {
	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	if _, err := pool.Exec(queryCtx, fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, name)); err != nil {
		p.log.Errorw("drop table", "table", name, "error", err)
		return fmt.Errorf("drop %s: %w", name, err)
	}
	if _, err := pool.Exec(queryCtx, fmt.Sprintf(`CREATE TABLE %s (%s);`, name, columns)); err != nil {
		p.log.Errorw("create table", "table", name, "error", err)
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

// relabelOn rewrites Service Name and Squad from the catalog table colocated
// in the same database, then forces aggregation-owned repos into the Other
// squad so service dashboards stay clean.
func (p *Postgres) relabelOn(ctx context.Context, pool *pgxpool.Pool, zone entities.Zone, table entities.Table) error {
	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	name := table.ForZone(zone)
	catalog := entities.CatalogTable.ForZone(zone)

	relabel := fmt.Sprintf(`
		UPDATE %[1]s
		SET "Service Name" = rtc."Title", "Squad" = rtc."Squad"
		FROM %[2]s AS rtc
		WHERE %[1]s."Service Name" = rtc."Repository";`, name, catalog)
	if _, err := pool.Exec(queryCtx, relabel); err != nil {
		p.log.Errorw("relabel", "table", name, "error", err)
		return fmt.Errorf("relabel %s: %w", name, err)
	}

	other := fmt.Sprintf(`
		UPDATE %s
		SET "Squad" = 'Other'
		WHERE "Service Name" IN ('doc-exports', 'docs_on_docs', 'docsportal');`, name)
	if _, err := pool.Exec(queryCtx, other); err != nil {
		p.log.Errorw("relabel other squad", "table", name, "error", err)
		return fmt.Errorf("relabel %s other squad: %w", name, err)
	}
	return nil
}

// poolFor routes a table to the database that owns it.
func (p *Postgres) poolFor(table entities.Table) *pgxpool.Pool {
	switch table {
	case entities.ZuulTable:
		return p.zuul
	default:
		return p.snapshots
	}
}

// Relabel re-labels one snapshot table from the colocated catalog.
func (p *Postgres) Relabel(ctx context.Context, zone entities.Zone, table entities.Table) error {
	return p.relabelOn(ctx, p.poolFor(table), zone, table)
}
