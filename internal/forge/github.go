package forge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// GitHub reads the GitHub REST API.
type GitHub struct {
	log      *zap.SugaredLogger
	http     *http.Client
	endpoint string
	token    string
}

// NewGitHub creates a GitHub client using the primary token.
func NewGitHub(log *zap.SugaredLogger, cfg *config.Config) *GitHub {
	return &GitHub{
		log:      log.Named("forge.github"),
		http:     &http.Client{Timeout: cfg.HTTP.RequestTimeout},
		endpoint: cfg.Github.Endpoint,
		token:    cfg.Github.Token,
	}
}

// WithToken returns a copy of the client authenticating with another token.
// Used for the one-shot fallback retry on batch-level auth failure.
func (g *GitHub) WithToken(token string) *GitHub {
	clone := *g
	clone.token = token
	return &clone
}

func (g *GitHub) get(ctx context.Context, url string, out any) (string, error) {
	return getJSON(ctx, g.http, url, "Bearer", g.token, out)
}

// ListOrgRepos lists all repositories of an organization.
func (g *GitHub) ListOrgRepos(ctx context.Context, org string) ([]RepoInfo, error) {
	var repos []RepoInfo
	next := fmt.Sprintf("%s/orgs/%s/repos?per_page=100", g.endpoint, url.PathEscape(org))
	for next != "" {
		var page []RepoInfo
		var err error
		next, err = g.get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("list repos of %s: %w", org, err)
		}
		repos = append(repos, page...)
	}
	return repos, nil
}

// ListPulls lists pull requests of a repository for the given state.
func (g *GitHub) ListPulls(ctx context.Context, org, repo, state string) ([]entities.PullRequestRecord, error) {
	var records []entities.PullRequestRecord
	next := fmt.Sprintf("%s/repos/%s/%s/pulls?state=%s&per_page=100",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo), url.QueryEscape(state))
	for next != "" {
		var page []githubPull
		var err error
		next, err = g.get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("list pulls of %s/%s: %w", org, repo, err)
		}
		for _, p := range page {
			records = append(records, p.record())
		}
	}
	return records, nil
}

// ListIssues lists open issues of a repository. Pull requests come back in
// the same listing and carry a pull_request marker for the caller to filter.
func (g *GitHub) ListIssues(ctx context.Context, org, repo string) ([]Issue, error) {
	var issues []Issue
	next := fmt.Sprintf("%s/repos/%s/%s/issues?state=open&filter=all&per_page=100",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo))
	for next != "" {
		var page []Issue
		var err error
		next, err = g.get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("list issues of %s/%s: %w", org, repo, err)
		}
		for i := range page {
			page[i].Repository.Name = repo
		}
		issues = append(issues, page...)
	}
	return issues, nil
}

// ListCommits lists commits touching a path, newest first.
func (g *GitHub) ListCommits(ctx context.Context, org, repo, path string) ([]CommitRef, error) {
	var commits []CommitRef
	next := fmt.Sprintf("%s/repos/%s/%s/commits?path=%s&per_page=30",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo), url.QueryEscape(path))
	for next != "" {
		var page []CommitRef
		var err error
		next, err = g.get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("list commits of %s/%s at %s: %w", org, repo, path, err)
		}
		commits = append(commits, page...)
	}
	return commits, nil
}

// GetCommit fetches one commit including its changed files.
func (g *GitHub) GetCommit(ctx context.Context, org, repo, sha string) (CommitRef, error) {
	var commit CommitRef
	u := fmt.Sprintf("%s/repos/%s/%s/commits/%s",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo), url.PathEscape(sha))
	if _, err := g.get(ctx, u, &commit); err != nil {
		return CommitRef{}, fmt.Errorf("get commit %s/%s@%s: %w", org, repo, sha, err)
	}
	return commit, nil
}

func (p githubPull) record() entities.PullRequestRecord {
	return entities.PullRequestRecord{
		Env:       entities.EnvGithub,
		Repo:      p.Base.Repo.Name,
		Number:    p.Number,
		Title:     p.Title,
		URL:       p.HTMLURL,
		State:     entities.PRState(p.State),
		Merged:    p.MergedAt != nil,
		Body:      p.Body,
		CreatedAt: p.CreatedAt,
	}
}
