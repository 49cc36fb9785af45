package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// pairPool routes a reconciled pair to the database its class belongs to.
// Resolved pairs have no destination and are dropped by the caller.
func (p *Postgres) pairPool(class entities.PairClass) *pgxpool.Pool {
	if class == entities.PairOrphaned {
		return p.orphans
	}
	return p.snapshots
}

// ResetPairTables drops and recreates the pair table in the snapshots and
// orphans databases.
func (p *Postgres) ResetPairTables(ctx context.Context, zone entities.Zone) error {
	name := entities.OpenPRsTable.ForZone(zone)
	for _, pool := range []*pgxpool.Pool{p.snapshots, p.orphans} {
		if err := p.replaceTable(ctx, pool, name, pairColumns); err != nil {
			return err
		}
	}
	return nil
}

// InsertPair stores one reconciled pair in the database matching its class.
func (p *Postgres) InsertPair(ctx context.Context, zone entities.Zone, pair entities.ReconciledPair) error {
	insert := fmt.Sprintf(`
		INSERT INTO %s (
			"Parent PR Number", "Service Name", "Squad", "Auto PR URL",
			"Auto PR State", "If merged", "Environment",
			"Parent PR State", "Parent PR merged"
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`, entities.OpenPRsTable.ForZone(zone))

	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	_, err := p.pairPool(pair.Class).Exec(queryCtx, insert,
		pair.ParentNumber,
		pair.Service,
		pair.Squad,
		pair.Child.URL,
		string(pair.Child.State),
		pair.Child.Merged,
		string(pair.Child.Env),
		string(pair.ParentState),
		pair.ParentMerged,
	)
	if err != nil {
		p.log.Errorw("insert pair",
			"parent", pair.ParentNumber, "url", pair.Child.URL, "class", pair.Class, "error", err)
		return fmt.Errorf("insert pair #%d: %w", pair.ParentNumber, err)
	}
	return nil
}

// RelabelPairs rewrites service titles and squads in both pair tables.
func (p *Postgres) RelabelPairs(ctx context.Context, zone entities.Zone) error {
	for _, pool := range []*pgxpool.Pool{p.snapshots, p.orphans} {
		if err := p.relabelOn(ctx, pool, zone, entities.OpenPRsTable); err != nil {
			return err
		}
	}
	return nil
}
