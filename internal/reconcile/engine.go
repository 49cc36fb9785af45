// Package reconcile pairs bot-authored proposal PRs with the aggregation-repo
// PRs their bodies reference and classifies each pair.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/forge"
)

// GiteaSource is the subset of the Gitea client the engine reads from.
type GiteaSource interface {
	ListOrgRepos(ctx context.Context, org string) ([]forge.RepoInfo, error)
	ListPulls(ctx context.Context, org, repo, state string) ([]entities.PullRequestRecord, error)
	GetPull(ctx context.Context, org, repo string, number int) (entities.PullRequestRecord, error)
}

// GithubSource is the subset of the GitHub client the engine reads from.
type GithubSource interface {
	ListOrgRepos(ctx context.Context, org string) ([]forge.RepoInfo, error)
	ListPulls(ctx context.Context, org, repo, state string) ([]entities.PullRequestRecord, error)
}

// PairStore is the subset of the repository the engine writes to.
type PairStore interface {
	ExcludedRepos(ctx context.Context, zone entities.Zone) ([]string, error)
	ResetPairTables(ctx context.Context, zone entities.Zone) error
	InsertPair(ctx context.Context, zone entities.Zone, pair entities.ReconciledPair) error
	RelabelPairs(ctx context.Context, zone entities.Zone) error
}

// Engine reconciles one zone per Run call. A fallback GitHub client is
// consulted exactly once when the whole mirror pass fails on auth.
type Engine struct {
	log      *zap.SugaredLogger
	gitea    GiteaSource
	github   GithubSource
	fallback GithubSource
	store    PairStore
	cfg      *config.Config
}

// NewEngine creates a reconciliation engine.
func NewEngine(log *zap.SugaredLogger, gitea GiteaSource, github, fallback GithubSource, store PairStore, cfg *config.Config) *Engine {
	return &Engine{
		log:      log.Named("reconcile"),
		gitea:    gitea,
		github:   github,
		fallback: fallback,
		store:    store,
		cfg:      cfg,
	}
}

// Run rebuilds both pair tables of one zone from live forge state.
func (e *Engine) Run(ctx context.Context, spec config.ZoneSpec) error {
	if err := e.store.ResetPairTables(ctx, spec.Zone); err != nil {
		return fmt.Errorf("reset pair tables: %w", err)
	}

	parents, err := e.loadParents(ctx, spec)
	if err != nil {
		return fmt.Errorf("load aggregation PRs: %w", err)
	}

	if err := e.giteaPass(ctx, spec, parents); err != nil {
		return err
	}

	if err := e.githubPass(ctx, spec, e.github); err != nil {
		if !errors.Is(err, entities.ErrAuth) {
			return err
		}
		e.log.Warnw("github pass failed on auth, retrying with fallback token", "zone", spec.Zone)
		if err := e.githubPass(ctx, spec, e.fallback); err != nil {
			return fmt.Errorf("github pass with fallback token: %w", err)
		}
	}

	if err := e.store.RelabelPairs(ctx, spec.Zone); err != nil {
		return fmt.Errorf("relabel pairs: %w", err)
	}
	return nil
}

// loadParents pages the aggregation repo's open and closed PRs into a
// number-keyed map.
func (e *Engine) loadParents(ctx context.Context, spec config.ZoneSpec) (map[int]entities.PullRequestRecord, error) {
	parents := make(map[int]entities.PullRequestRecord)
	for _, state := range []string{"open", "closed"} {
		pulls, err := e.gitea.ListPulls(ctx, spec.GiteaOrg, e.cfg.Zones.AggregationRepo, state)
		if err != nil {
			return nil, err
		}
		for _, p := range pulls {
			parents[p.Number] = p
		}
	}
	e.log.Infow("aggregation PRs loaded", "zone", spec.Zone, "count", len(parents))
	return parents, nil
}

// giteaPass walks every source repo of the zone. One repo's failure is
// logged and contributes nothing; the batch continues.
func (e *Engine) giteaPass(ctx context.Context, spec config.ZoneSpec, parents map[int]entities.PullRequestRecord) error {
	repos, err := e.gitea.ListOrgRepos(ctx, spec.GiteaOrg)
	if err != nil {
		return fmt.Errorf("list org repos: %w", err)
	}
	excluded, err := e.store.ExcludedRepos(ctx, spec.Zone)
	if err != nil {
		return fmt.Errorf("load excluded repos: %w", err)
	}
	skip := map[string]bool{e.cfg.Zones.AggregationRepo: true, "dsf": true}
	for _, name := range excluded {
		skip[name] = true
	}

	for _, repo := range repos {
		if skip[repo.Name] {
			continue
		}
		pulls, err := e.gitea.ListPulls(ctx, spec.GiteaOrg, repo.Name, "all")
		if err != nil {
			e.log.Errorw("list proposal PRs", "repo", repo.Name, "error", err)
			continue
		}
		for _, pull := range pulls {
			e.reconcileOne(ctx, spec, pull, parents)
		}
	}
	return nil
}

func (e *Engine) reconcileOne(ctx context.Context, spec config.ZoneSpec, pull entities.PullRequestRecord, parents map[int]entities.PullRequestRecord) {
	if !isBotBody(pull.Body) {
		return
	}
	if pull.State == entities.StateClosed && !pull.Merged {
		return
	}
	ref, ok := ExtractRef(pull.Body)
	if !ok {
		e.log.Infow("proposal PR without parent reference", "repo", pull.Repo, "number", pull.Number)
		return
	}
	parent, ok := parents[ref]
	if !ok {
		return
	}
	class := Classify(pull, parent.State, parent.Merged)
	if class == entities.PairResolved {
		return
	}
	pair := entities.ReconciledPair{
		Child:        pull,
		ParentNumber: ref,
		ParentState:  parent.State,
		ParentMerged: parent.Merged,
		Class:        class,
		Service:      pull.Repo,
		Zone:         spec.Zone,
	}
	if err := e.store.InsertPair(ctx, spec.Zone, pair); err != nil {
		e.log.Errorw("store pair", "repo", pull.Repo, "number", pull.Number, "error", err)
	}
}

// githubPass reconciles open mirror PRs whose bodies carry the automation
// marker, resolving each parent's live state from Gitea.
func (e *Engine) githubPass(ctx context.Context, spec config.ZoneSpec, gh GithubSource) error {
	repos, err := gh.ListOrgRepos(ctx, spec.GithubOrg)
	if err != nil {
		return fmt.Errorf("list mirror repos: %w", err)
	}
	for _, repo := range repos {
		pulls, err := gh.ListPulls(ctx, spec.GithubOrg, repo.Name, "open")
		if err != nil {
			if errors.Is(err, entities.ErrAuth) {
				return err
			}
			e.log.Errorw("list mirror PRs", "repo", repo.Name, "error", err)
			continue
		}
		for _, pull := range pulls {
			if !isGithubBotBody(pull.Body) {
				continue
			}
			url, parentRepo, number, ok := extractGiteaParent(pull.Body)
			if !ok {
				e.log.Infow("mirror PR without parent reference", "repo", repo.Name, "number", pull.Number)
				continue
			}
			parent, err := e.gitea.GetPull(ctx, spec.GiteaOrg, parentRepo, number)
			if err != nil {
				e.log.Errorw("resolve mirror parent", "repo", parentRepo, "number", number, "error", err)
				continue
			}
			class := Classify(pull, parent.State, parent.Merged)
			if class == entities.PairResolved {
				continue
			}
			pair := entities.ReconciledPair{
				Child:        pull,
				ParentNumber: pull.Number,
				ParentState:  parent.State,
				ParentMerged: parent.Merged,
				Class:        class,
				Service:      repo.Name,
				Zone:         spec.Zone,
			}
			pair.Child.URL = url
			if err := e.store.InsertPair(ctx, spec.Zone, pair); err != nil {
				e.log.Errorw("store mirror pair", "repo", repo.Name, "number", pull.Number, "error", err)
			}
		}
	}
	return nil
}

func isBotBody(body string) bool {
	return strings.HasPrefix(body, botBodyMarker)
}

func isGithubBotBody(body string) bool {
	return strings.Contains(body, githubBodyMarker)
}
