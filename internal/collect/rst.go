package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Rst rebuilds the structured-doc presence table of one zone: bot-authored
// open PRs that have waited more than three days without a requested
// reviewer, and whether their diff contains any .rst file.
func (c *Collector) Rst(ctx context.Context, spec config.ZoneSpec) error {
	if err := c.store.ResetRst(ctx, spec.Zone); err != nil {
		return fmt.Errorf("reset rst table: %w", err)
	}

	repos, err := c.store.Repos(ctx, spec.Zone, "public")
	if err != nil {
		return fmt.Errorf("load catalog repos: %w", err)
	}
	for _, repo := range repos {
		pulls, err := c.gitea.ListPulls(ctx, spec.GiteaOrg, repo, "open")
		if err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				continue
			}
			c.log.Errorw("list open PRs", "repo", repo, "error", err)
			continue
		}
		for _, pull := range pulls {
			if !isBotBody(pull.Body) || len(pull.RequestedReviewers) > 0 {
				continue
			}
			days := c.daysSince(pull.CreatedAt)
			if days <= 3 {
				continue
			}
			files, err := c.gitea.ListPullFiles(ctx, spec.GiteaOrg, repo, pull.Number)
			if err != nil {
				c.log.Errorw("list PR files", "repo", repo, "number", pull.Number, "error", err)
				continue
			}
			hasRst := false
			for _, f := range files {
				if strings.HasSuffix(f.Filename, ".rst") {
					hasRst = true
					break
				}
			}
			rec := entities.RstRecord{
				Number:     pull.Number,
				Service:    repo,
				URL:        pull.URL,
				DaysPassed: days,
				HasRst:     hasRst,
			}
			if err := c.store.InsertRst(ctx, spec.Zone, rec); err != nil {
				c.log.Errorw("store rst row", "repo", repo, "number", pull.Number, "error", err)
			}
		}
	}

	return c.store.Relabel(ctx, spec.Zone, entities.RstTable)
}
