package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/forge"
)

// Issues rebuilds the open-issues table of one zone: the whole Gitea org
// issue search plus per-repo GitHub issues with pull requests filtered out.
func (c *Collector) Issues(ctx context.Context, spec config.ZoneSpec) error {
	if err := c.store.ResetIssues(ctx, spec.Zone); err != nil {
		return fmt.Errorf("reset issues: %w", err)
	}

	giteaIssues, err := c.gitea.SearchIssues(ctx, spec.GiteaOrg)
	if err != nil {
		return fmt.Errorf("search gitea issues: %w", err)
	}
	for _, issue := range giteaIssues {
		if strings.Contains(issue.HTMLURL, "/pulls/") {
			continue
		}
		createdBy := issue.User.FullName
		if createdBy == "" {
			createdBy = "proposalbot"
		}
		rec := entities.IssueRecord{
			Env:       entities.EnvGitea,
			Service:   issue.Repository.Name,
			Number:    issue.Number,
			URL:       issue.HTMLURL,
			CreatedBy: createdBy,
			CreatedAt: issue.CreatedAt,
			Duration:  c.daysSince(issue.CreatedAt),
			Comments:  issue.Comments,
			Assignees: joinAssignees(issue.Assignees),
		}
		if err := c.store.InsertIssue(ctx, spec.Zone, rec); err != nil {
			c.log.Errorw("store gitea issue", "number", issue.Number, "error", err)
		}
	}

	if err := c.githubIssues(ctx, spec, c.github); err != nil {
		if !errors.Is(err, entities.ErrAuth) {
			return err
		}
		c.log.Warnw("github issues failed on auth, retrying with fallback token", "zone", spec.Zone)
		if err := c.githubIssues(ctx, spec, c.fallback); err != nil {
			return fmt.Errorf("github issues with fallback token: %w", err)
		}
	}

	return c.store.Relabel(ctx, spec.Zone, entities.OpenIssuesTable)
}

func (c *Collector) githubIssues(ctx context.Context, spec config.ZoneSpec, gh GithubSource) error {
	repos, err := c.store.Repos(ctx, spec.Zone, "public", "tech")
	if err != nil {
		return fmt.Errorf("load catalog repos: %w", err)
	}
	for _, repo := range repos {
		issues, err := gh.ListIssues(ctx, spec.GithubOrg, repo)
		if err != nil {
			if errors.Is(err, entities.ErrAuth) {
				return err
			}
			c.log.Errorw("list github issues", "repo", repo, "error", err)
			continue
		}
		for _, issue := range issues {
			if issue.PullRequest != nil {
				continue
			}
			rec := entities.IssueRecord{
				Env:       entities.EnvGithub,
				Service:   repo,
				Number:    issue.Number,
				URL:       issue.HTMLURL,
				CreatedBy: issue.User.Login,
				CreatedAt: issue.CreatedAt,
				Duration:  c.daysSince(issue.CreatedAt),
				Comments:  issue.Comments,
				Assignees: joinAssignees(issue.Assignees),
			}
			if err := c.store.InsertIssue(ctx, spec.Zone, rec); err != nil {
				c.log.Errorw("store github issue", "repo", repo, "number", issue.Number, "error", err)
			}
		}
	}
	return nil
}

func joinAssignees(assignees []forge.Account) string {
	logins := make([]string, 0, len(assignees))
	for _, a := range assignees {
		logins = append(logins, a.Login)
	}
	return strings.Join(logins, ", ")
}
