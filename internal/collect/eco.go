package collect

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// EcoIssues rebuilds the infra-org issues table: open issues across the
// ecosystem GitHub organization, for repos pushed to within the last year.
// Runs once per pipeline run, outside the zone scheme, and skips the catalog
// relabel since infra repos carry no squad ownership.
func (c *Collector) EcoIssues(ctx context.Context) error {
	if err := c.store.ResetEcoIssues(ctx); err != nil {
		return fmt.Errorf("reset eco issues: %w", err)
	}

	if err := c.ecoIssuesPass(ctx, c.github); err != nil {
		if !errors.Is(err, entities.ErrAuth) {
			return err
		}
		c.log.Warnw("eco issues failed on auth, retrying with fallback token")
		if err := c.ecoIssuesPass(ctx, c.fallback); err != nil {
			return fmt.Errorf("eco issues with fallback token: %w", err)
		}
	}
	return nil
}

func (c *Collector) ecoIssuesPass(ctx context.Context, gh GithubSource) error {
	repos, err := gh.ListOrgRepos(ctx, c.cfg.Zones.EcoOrg)
	if err != nil {
		return fmt.Errorf("list infra repos: %w", err)
	}
	cutoff := c.now().AddDate(-1, 0, 0)
	for _, repo := range repos {
		if repo.Archived || repo.PushedAt.Before(cutoff) {
			continue
		}
		issues, err := gh.ListIssues(ctx, c.cfg.Zones.EcoOrg, repo.Name)
		if err != nil {
			if errors.Is(err, entities.ErrAuth) {
				return err
			}
			c.log.Errorw("list infra issues", "repo", repo.Name, "error", err)
			continue
		}
		for _, issue := range issues {
			if issue.PullRequest != nil {
				continue
			}
			rec := entities.IssueRecord{
				Service:   repo.Name,
				Number:    issue.Number,
				URL:       issue.HTMLURL,
				CreatedBy: issue.User.Login,
				CreatedAt: issue.CreatedAt,
				Duration:  c.daysSince(issue.CreatedAt),
				Comments:  issue.Comments,
				Assignees: joinAssignees(issue.Assignees),
			}
			if err := c.store.InsertEcoIssue(ctx, rec); err != nil {
				c.log.Errorw("store infra issue", "repo", repo.Name, "number", issue.Number, "error", err)
			}
		}
	}
	return nil
}
