package collect

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Zuul rebuilds the failed-CI table of one zone: open unmerged bot PRs whose
// newest commit carries a failed check, with the check's target URL and age.
func (c *Collector) Zuul(ctx context.Context, spec config.ZoneSpec) error {
	if err := c.store.ResetZuul(ctx, spec.Zone); err != nil {
		return fmt.Errorf("reset zuul table: %w", err)
	}

	repos, err := c.gitea.ListOrgRepos(ctx, spec.GiteaOrg)
	if err != nil {
		return fmt.Errorf("list org repos: %w", err)
	}
	for _, repo := range repos {
		if repo.Name == c.cfg.Zones.AggregationRepo {
			continue
		}
		pulls, err := c.gitea.ListPulls(ctx, spec.GiteaOrg, repo.Name, "open")
		if err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				continue
			}
			c.log.Errorw("list open PRs", "repo", repo.Name, "error", err)
			continue
		}
		for _, pull := range pulls {
			if !isBotBody(pull.Body) || pull.Merged {
				continue
			}
			if err := c.zuulOne(ctx, spec, repo.Name, pull); err != nil {
				c.log.Errorw("zuul check", "repo", repo.Name, "number", pull.Number, "error", err)
			}
		}
	}

	return c.store.Relabel(ctx, spec.Zone, entities.ZuulTable)
}

func (c *Collector) zuulOne(ctx context.Context, spec config.ZoneSpec, repo string, pull entities.PullRequestRecord) error {
	commits, err := c.gitea.ListPullCommits(ctx, spec.GiteaOrg, repo, pull.Number)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		return nil
	}
	statuses, err := c.gitea.ListCommitStatuses(ctx, spec.GiteaOrg, repo, commits[0].SHA)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return nil
	}
	latest := statuses[0]
	if latest.Status != "failure" && latest.Status != "error" {
		return nil
	}

	parentNumber, _ := extractRefNumber(pull.Body)
	rec := entities.ZuulRecord{
		Service:      repo,
		Title:        pull.Title,
		URL:          pull.URL,
		State:        pull.State,
		ZuulURL:      latest.TargetURL,
		CheckStatus:  latest.Status,
		CreatedAt:    latest.CreatedAt,
		DaysPassed:   c.daysSince(latest.CreatedAt),
		ParentNumber: parentNumber,
	}
	return c.store.InsertZuul(ctx, spec.Zone, rec)
}
