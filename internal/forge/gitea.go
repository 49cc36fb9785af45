package forge

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Gitea reads the Gitea REST API.
type Gitea struct {
	log      *zap.SugaredLogger
	http     *http.Client
	endpoint string
	token    string
}

// NewGitea creates a Gitea client.
func NewGitea(log *zap.SugaredLogger, cfg *config.Config) *Gitea {
	return &Gitea{
		log:      log.Named("forge.gitea"),
		http:     &http.Client{Timeout: cfg.HTTP.RequestTimeout},
		endpoint: cfg.Gitea.Endpoint,
		token:    cfg.Gitea.Token,
	}
}

func (g *Gitea) get(ctx context.Context, url string, out any) (string, error) {
	return getJSON(ctx, g.http, url, "token", g.token, out)
}

// ListOrgRepos lists all non-archived repositories of an organization.
func (g *Gitea) ListOrgRepos(ctx context.Context, org string) ([]RepoInfo, error) {
	var repos []RepoInfo
	next := fmt.Sprintf("%s/orgs/%s/repos?page=1&limit=50", g.endpoint, url.PathEscape(org))
	for next != "" {
		var page []RepoInfo
		var err error
		next, err = g.get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("list repos of %s: %w", org, err)
		}
		for _, r := range page {
			if r.Archived {
				continue
			}
			repos = append(repos, r)
		}
	}
	return repos, nil
}

// ListPulls lists pull requests of a repository for the given state
// ("open", "closed" or "all").
func (g *Gitea) ListPulls(ctx context.Context, org, repo, state string) ([]entities.PullRequestRecord, error) {
	var records []entities.PullRequestRecord
	next := fmt.Sprintf("%s/repos/%s/%s/pulls?state=%s&page=1&limit=50",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo), url.QueryEscape(state))
	for next != "" {
		var page []giteaPull
		var err error
		next, err = g.get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("list pulls of %s/%s: %w", org, repo, err)
		}
		for _, p := range page {
			records = append(records, p.record(repo))
		}
	}
	return records, nil
}

// GetPull fetches one pull request.
func (g *Gitea) GetPull(ctx context.Context, org, repo string, number int) (entities.PullRequestRecord, error) {
	var p giteaPull
	u := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", g.endpoint, url.PathEscape(org), url.PathEscape(repo), number)
	if _, err := g.get(ctx, u, &p); err != nil {
		return entities.PullRequestRecord{}, fmt.Errorf("get pull %s/%s#%d: %w", org, repo, number, err)
	}
	return p.record(repo), nil
}

// ListPullFiles lists the changed files of a pull request.
func (g *Gitea) ListPullFiles(ctx context.Context, org, repo string, number int) ([]ChangedFile, error) {
	var files []ChangedFile
	next := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?page=1",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo), number)
	for next != "" {
		var page []ChangedFile
		var err error
		next, err = g.get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("list files of %s/%s#%d: %w", org, repo, number, err)
		}
		files = append(files, page...)
	}
	return files, nil
}

// ListPullReviews lists the reviews of a pull request, oldest first.
func (g *Gitea) ListPullReviews(ctx context.Context, org, repo string, number int) ([]Review, error) {
	var reviews []Review
	u := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo), number)
	if _, err := g.get(ctx, u, &reviews); err != nil {
		return nil, fmt.Errorf("list reviews of %s/%s#%d: %w", org, repo, number, err)
	}
	return reviews, nil
}

// ListReviewComments lists the comments of one review.
func (g *Gitea) ListReviewComments(ctx context.Context, org, repo string, number int, reviewID int64) ([]ReviewComment, error) {
	var comments []ReviewComment
	u := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews/%d/comments",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo), number, reviewID)
	if _, err := g.get(ctx, u, &comments); err != nil {
		return nil, fmt.Errorf("list review comments of %s/%s#%d: %w", org, repo, number, err)
	}
	return comments, nil
}

// SearchIssues lists all open issues of an organization.
func (g *Gitea) SearchIssues(ctx context.Context, org string) ([]Issue, error) {
	var issues []Issue
	next := fmt.Sprintf("%s/repos/issues/search?state=open&owner=%s&page=1&limit=50",
		g.endpoint, url.QueryEscape(org))
	for next != "" {
		var page []Issue
		var err error
		next, err = g.get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("search issues of %s: %w", org, err)
		}
		issues = append(issues, page...)
	}
	return issues, nil
}

// ListPullCommits lists the commits of a pull request, newest first.
func (g *Gitea) ListPullCommits(ctx context.Context, org, repo string, number int) ([]CommitRef, error) {
	var commits []CommitRef
	u := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/commits",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo), number)
	if _, err := g.get(ctx, u, &commits); err != nil {
		return nil, fmt.Errorf("list commits of %s/%s#%d: %w", org, repo, number, err)
	}
	return commits, nil
}

// ListCommitStatuses lists the CI statuses of a commit, newest first.
func (g *Gitea) ListCommitStatuses(ctx context.Context, org, repo, sha string) ([]CommitStatus, error) {
	var statuses []CommitStatus
	u := fmt.Sprintf("%s/repos/%s/%s/statuses/%s",
		g.endpoint, url.PathEscape(org), url.PathEscape(repo), url.PathEscape(sha))
	if _, err := g.get(ctx, u, &statuses); err != nil {
		return nil, fmt.Errorf("list statuses of %s/%s@%s: %w", org, repo, sha, err)
	}
	return statuses, nil
}

// ListDir lists the files of a repository directory via the contents API.
func (g *Gitea) ListDir(ctx context.Context, owner, repo, dir string) ([]ContentEntry, error) {
	var entries []ContentEntry
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		g.endpoint, url.PathEscape(owner), url.PathEscape(repo), dir)
	if _, err := g.get(ctx, u, &entries); err != nil {
		return nil, fmt.Errorf("list dir %s of %s/%s: %w", dir, owner, repo, err)
	}
	return entries, nil
}

// FileContent fetches and decodes one file via the contents API.
func (g *Gitea) FileContent(ctx context.Context, owner, repo, path string) ([]byte, error) {
	var file contentFile
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		g.endpoint, url.PathEscape(owner), url.PathEscape(repo), path)
	if _, err := g.get(ctx, u, &file); err != nil {
		return nil, fmt.Errorf("get content %s of %s/%s: %w", path, owner, repo, err)
	}
	decoded, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return nil, fmt.Errorf("decode content %s: %w", path, err)
	}
	return decoded, nil
}

// FetchRaw downloads a raw file by its absolute URL.
func (g *Gitea) FetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "token "+g.token)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, entities.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (p giteaPull) record(repo string) entities.PullRequestRecord {
	rec := entities.PullRequestRecord{
		Env:          entities.EnvGitea,
		Repo:         repo,
		Number:       p.Number,
		Title:        p.Title,
		URL:          p.URL,
		State:        entities.PRState(p.State),
		Merged:       p.Merged,
		Body:         p.Body,
		CreatedAt:    p.CreatedAt,
		ChangedFiles: p.ChangedFiles,
	}
	for _, l := range p.Labels {
		rec.Labels = append(rec.Labels, l.Name)
	}
	for _, r := range p.RequestedReviewers {
		name := r.Login
		if name == "" {
			name = r.FullName
		}
		rec.RequestedReviewers = append(rec.RequestedReviewers, name)
	}
	return rec
}
