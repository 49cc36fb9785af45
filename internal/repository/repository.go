// Package repository provides factory for repositories.
package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/repository/postgres"
)

// Repository aggregates all persistence interfaces.
type Repository interface {
	LifecycleInterface
	CatalogInterface
	PairInterface
	SnapshotInterface
	AlertInterface
}

// New constructs repository backend by name.
func New(ctx context.Context, name string, log *zap.SugaredLogger, cfg *config.Config) (Repository, error) {
	switch name {
	case "postgres":
		return postgres.New(ctx, log, cfg), nil
	default:
		return nil, fmt.Errorf("unknown repo backend: %s", name)
	}
}
