// Package postgres implements the repository against PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
)

// Postgres holds one pgx pool per logical database. Snapshot tables live in
// the snapshots DB, diverged pairs in the orphans DB, failed-CI rows in the
// zuul DB; the service catalog is replicated into all three so relabel joins
// stay local.
type Postgres struct {
	baseCtx   context.Context
	log       *zap.SugaredLogger
	cfg       config.PostgresConfig
	snapshots *pgxpool.Pool
	orphans   *pgxpool.Pool
	zuul      *pgxpool.Pool
	sb        sq.StatementBuilderType
}

// New creates a Postgres repository instance. Pools are opened in OnStart.
func New(ctx context.Context, log *zap.SugaredLogger, cfg *config.Config) *Postgres {
	return &Postgres{
		baseCtx: ctx,
		log:     log.Named("repo.postgres"),
		cfg:     cfg.Postgres,
		sb:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OnStart establishes the three connection pools.
func (p *Postgres) OnStart(_ context.Context) error {
	for _, db := range []struct {
		name string
		dest **pgxpool.Pool
	}{
		{p.cfg.SnapshotsDB, &p.snapshots},
		{p.cfg.OrphansDB, &p.orphans},
		{p.cfg.ZuulDB, &p.zuul},
	} {
		pool, err := p.open(db.name)
		if err != nil {
			return err
		}
		*db.dest = pool
	}
	p.log.Infow("postgres ready", "host", p.cfg.Host, "port", p.cfg.Port)
	return nil
}

func (p *Postgres) open(dbName string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(p.cfg.DSN(dbName))
	if err != nil {
		return nil, fmt.Errorf("parse pool config for %s: %w", dbName, err)
	}
	poolCfg.MaxConns = p.cfg.MaxConns
	poolCfg.MinConns = p.cfg.MinConns

	connectCtx, cancel := context.WithTimeout(p.baseCtx, p.cfg.QueryTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool for %s: %w", dbName, err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", dbName, err)
	}
	return pool, nil
}

// OnStop closes pool connections.
func (p *Postgres) OnStop(_ context.Context) error {
	for _, pool := range []*pgxpool.Pool{p.snapshots, p.orphans, p.zuul} {
		if pool != nil {
			pool.Close()
		}
	}
	return nil
}
