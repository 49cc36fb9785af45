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

// Repos that carry no service documentation and would only produce noise.
var commitExcludedRepos = map[string]bool{
	"docsportal": true, "doc-exports": true, "docs_on_docs": true, ".github": true,
	"presentations": true, "sandbox": true, "security": true, "template": true,
	"content-delivery-network": true, "data-admin-service": true, "resource-template-service": true,
}

var docTrees = []struct {
	path    string
	docType string
}{
	{"umn/source", "UMN"},
	{"api-ref/source", "API"},
}

// Commits rebuilds the doc-staleness table of one zone: for every mirror
// repo, the newest commit touching .rst files under each documentation tree.
func (c *Collector) Commits(ctx context.Context, spec config.ZoneSpec) error {
	if err := c.store.ResetCommits(ctx, spec.Zone); err != nil {
		return fmt.Errorf("reset commits: %w", err)
	}

	if err := c.commitsPass(ctx, spec, c.github); err != nil {
		if !errors.Is(err, entities.ErrAuth) {
			return err
		}
		c.log.Warnw("commit pass failed on auth, retrying with fallback token", "zone", spec.Zone)
		if err := c.commitsPass(ctx, spec, c.fallback); err != nil {
			return fmt.Errorf("commit pass with fallback token: %w", err)
		}
	}

	return c.store.Relabel(ctx, spec.Zone, entities.LastCommitTable)
}

func (c *Collector) commitsPass(ctx context.Context, spec config.ZoneSpec, gh GithubSource) error {
	repos, err := gh.ListOrgRepos(ctx, spec.GithubOrg)
	if err != nil {
		return fmt.Errorf("list mirror repos: %w", err)
	}
	for _, repo := range repos {
		if commitExcludedRepos[repo.Name] {
			continue
		}
		for _, tree := range docTrees {
			if err := c.latestDocCommit(ctx, spec, gh, repo.Name, tree.path, tree.docType); err != nil {
				if errors.Is(err, entities.ErrAuth) {
					return err
				}
				c.log.Errorw("doc staleness", "repo", repo.Name, "path", tree.path, "error", err)
			}
		}
	}
	return nil
}

// latestDocCommit walks a repo's commit history for one documentation tree,
// newest first, and stores the first commit that touched a .rst file.
func (c *Collector) latestDocCommit(ctx context.Context, spec config.ZoneSpec, gh GithubSource, repo, path, docType string) error {
	commits, err := gh.ListCommits(ctx, spec.GithubOrg, repo, path)
	if err != nil {
		return err
	}
	for _, ref := range commits {
		commit, err := gh.GetCommit(ctx, spec.GithubOrg, repo, ref.SHA)
		if err != nil {
			return err
		}
		if !touchesRst(commit.Files) {
			continue
		}
		rec := entities.CommitRecord{
			Service:     repo,
			DocType:     docType,
			CommittedAt: commit.Commit.Author.Date,
			DaysPassed:  c.daysSince(commit.Commit.Author.Date),
			URL:         commit.HTMLURL,
		}
		if err := c.store.InsertCommit(ctx, spec.Zone, rec); err != nil {
			c.log.Errorw("store doc commit", "repo", repo, "doc_type", docType, "error", err)
		}
		return nil
	}
	return nil
}

func touchesRst(files []forge.ChangedFile) bool {
	for _, f := range files {
		if strings.HasSuffix(f.Filename, ".rst") {
			return true
		}
	}
	return false
}
