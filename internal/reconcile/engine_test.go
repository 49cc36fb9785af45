package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/forge"
)

type giteaMock struct{ mock.Mock }

var _ GiteaSource = (*giteaMock)(nil)

func (m *giteaMock) ListOrgRepos(ctx context.Context, org string) ([]forge.RepoInfo, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]forge.RepoInfo), args.Error(1)
}

func (m *giteaMock) ListPulls(ctx context.Context, org, repo, state string) ([]entities.PullRequestRecord, error) {
	args := m.Called(ctx, org, repo, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.PullRequestRecord), args.Error(1)
}

func (m *giteaMock) GetPull(ctx context.Context, org, repo string, number int) (entities.PullRequestRecord, error) {
	args := m.Called(ctx, org, repo, number)
	return args.Get(0).(entities.PullRequestRecord), args.Error(1)
}

type githubMock struct{ mock.Mock }

var _ GithubSource = (*githubMock)(nil)

func (m *githubMock) ListOrgRepos(ctx context.Context, org string) ([]forge.RepoInfo, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]forge.RepoInfo), args.Error(1)
}

func (m *githubMock) ListPulls(ctx context.Context, org, repo, state string) ([]entities.PullRequestRecord, error) {
	args := m.Called(ctx, org, repo, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.PullRequestRecord), args.Error(1)
}

type pairStoreMock struct {
	mock.Mock
	pairs []entities.ReconciledPair
}

var _ PairStore = (*pairStoreMock)(nil)

func (m *pairStoreMock) ExcludedRepos(ctx context.Context, zone entities.Zone) ([]string, error) {
	args := m.Called(ctx, zone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *pairStoreMock) ResetPairTables(ctx context.Context, zone entities.Zone) error {
	return m.Called(ctx, zone).Error(0)
}

func (m *pairStoreMock) InsertPair(ctx context.Context, zone entities.Zone, pair entities.ReconciledPair) error {
	m.pairs = append(m.pairs, pair)
	return m.Called(ctx, zone, pair).Error(0)
}

func (m *pairStoreMock) RelabelPairs(ctx context.Context, zone entities.Zone) error {
	return m.Called(ctx, zone).Error(0)
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()

	l, _ := zap.NewDevelopment()
	t.Cleanup(func() { _ = l.Sync() })
	return l.Sugar()
}

func testConfig() *config.Config {
	return &config.Config{
		Zones: config.ZonesConfig{
			GiteaOrg:        "docs",
			GithubOrg:       "opentelekomcloud-docs",
			AggregationRepo: "doc-exports",
		},
	}
}

func publicSpec() config.ZoneSpec {
	return config.ZoneSpec{Zone: entities.ZonePublic, GiteaOrg: "docs", GithubOrg: "opentelekomcloud-docs"}
}

func TestEngineRun(t *testing.T) {
	ctx := context.Background()
	gitea := &giteaMock{}
	github := &githubMock{}
	store := &pairStoreMock{}
	cfg := testConfig()
	spec := publicSpec()

	store.On("ResetPairTables", ctx, entities.ZonePublic).Return(nil)
	store.On("ExcludedRepos", ctx, entities.ZonePublic).Return([]string{"hidden-repo"}, nil)
	store.On("InsertPair", ctx, entities.ZonePublic, mock.Anything).Return(nil)
	store.On("RelabelPairs", ctx, entities.ZonePublic).Return(nil)

	gitea.On("ListPulls", ctx, "docs", "doc-exports", "open").Return([]entities.PullRequestRecord{
		{Number: 100, State: entities.StateOpen},
	}, nil)
	gitea.On("ListPulls", ctx, "docs", "doc-exports", "closed").Return([]entities.PullRequestRecord{
		{Number: 200, State: entities.StateClosed, Merged: true},
	}, nil)

	gitea.On("ListOrgRepos", ctx, "docs").Return([]forge.RepoInfo{
		{Name: "ecs"}, {Name: "vpc"}, {Name: "hidden-repo"}, {Name: "doc-exports"},
	}, nil)

	gitea.On("ListPulls", ctx, "docs", "ecs", "all").Return([]entities.PullRequestRecord{
		{
			Repo: "ecs", Number: 1, State: entities.StateOpen,
			Body: botBodyMarker + " for changes to ecs made under #100.",
		},
		{
			// not bot-authored, skipped
			Repo: "ecs", Number: 2, State: entities.StateOpen,
			Body: "manual change referencing #100",
		},
		{
			// closed-unmerged proposal, skipped
			Repo: "ecs", Number: 3, State: entities.StateClosed,
			Body: botBodyMarker + " under #100.",
		},
	}, nil)
	gitea.On("ListPulls", ctx, "docs", "vpc", "all").Return([]entities.PullRequestRecord{
		{
			// parent merged away, orphaned
			Repo: "vpc", Number: 4, State: entities.StateOpen,
			Body: botBodyMarker + " under #200.",
		},
		{
			// no parent reference, skipped with a log line
			Repo: "vpc", Number: 5, State: entities.StateOpen,
			Body: botBodyMarker + " without a reference.",
		},
	}, nil)

	github.On("ListOrgRepos", ctx, "opentelekomcloud-docs").Return([]forge.RepoInfo{}, nil)

	engine := NewEngine(testLogger(t), gitea, github, github, store, cfg)
	require.NoError(t, engine.Run(ctx, spec))

	require.Len(t, store.pairs, 2)
	require.Equal(t, entities.PairOpen, store.pairs[0].Class)
	require.Equal(t, 100, store.pairs[0].ParentNumber)
	require.Equal(t, "ecs", store.pairs[0].Service)
	require.Equal(t, entities.PairOrphaned, store.pairs[1].Class)
	require.Equal(t, 200, store.pairs[1].ParentNumber)
	store.AssertExpectations(t)
}

func TestEngineRunRepoFailureContinues(t *testing.T) {
	ctx := context.Background()
	gitea := &giteaMock{}
	github := &githubMock{}
	store := &pairStoreMock{}
	spec := publicSpec()

	store.On("ResetPairTables", ctx, entities.ZonePublic).Return(nil)
	store.On("ExcludedRepos", ctx, entities.ZonePublic).Return([]string{}, nil)
	store.On("InsertPair", ctx, entities.ZonePublic, mock.Anything).Return(nil)
	store.On("RelabelPairs", ctx, entities.ZonePublic).Return(nil)

	gitea.On("ListPulls", ctx, "docs", "doc-exports", "open").Return([]entities.PullRequestRecord{
		{Number: 7, State: entities.StateOpen},
	}, nil)
	gitea.On("ListPulls", ctx, "docs", "doc-exports", "closed").Return([]entities.PullRequestRecord{}, nil)
	gitea.On("ListOrgRepos", ctx, "docs").Return([]forge.RepoInfo{{Name: "broken"}, {Name: "ok"}}, nil)
	gitea.On("ListPulls", ctx, "docs", "broken", "all").Return(nil, entities.ErrNotFound)
	gitea.On("ListPulls", ctx, "docs", "ok", "all").Return([]entities.PullRequestRecord{
		{Repo: "ok", Number: 8, State: entities.StateOpen, Body: botBodyMarker + " under #7."},
	}, nil)
	github.On("ListOrgRepos", ctx, "opentelekomcloud-docs").Return([]forge.RepoInfo{}, nil)

	engine := NewEngine(testLogger(t), gitea, github, github, store, testConfig())
	require.NoError(t, engine.Run(ctx, spec))
	require.Len(t, store.pairs, 1)
	require.Equal(t, "ok", store.pairs[0].Service)
}

func TestEngineGithubFallbackToken(t *testing.T) {
	ctx := context.Background()
	gitea := &giteaMock{}
	github := &githubMock{}
	fallback := &githubMock{}
	store := &pairStoreMock{}
	spec := publicSpec()

	store.On("ResetPairTables", ctx, entities.ZonePublic).Return(nil)
	store.On("ExcludedRepos", ctx, entities.ZonePublic).Return([]string{}, nil)
	store.On("InsertPair", ctx, entities.ZonePublic, mock.Anything).Return(nil)
	store.On("RelabelPairs", ctx, entities.ZonePublic).Return(nil)

	gitea.On("ListPulls", ctx, "docs", "doc-exports", "open").Return([]entities.PullRequestRecord{}, nil)
	gitea.On("ListPulls", ctx, "docs", "doc-exports", "closed").Return([]entities.PullRequestRecord{}, nil)
	gitea.On("ListOrgRepos", ctx, "docs").Return([]forge.RepoInfo{}, nil)
	gitea.On("GetPull", ctx, "docs", "ecs", 77).Return(entities.PullRequestRecord{
		Number: 77, State: entities.StateClosed, Merged: true,
	}, nil)

	github.On("ListOrgRepos", ctx, "opentelekomcloud-docs").Return(nil, entities.ErrAuth)
	fallback.On("ListOrgRepos", ctx, "opentelekomcloud-docs").Return([]forge.RepoInfo{{Name: "ecs"}}, nil)
	fallback.On("ListPulls", ctx, "opentelekomcloud-docs", "ecs", "open").Return([]entities.PullRequestRecord{
		{
			Env: entities.EnvGithub, Repo: "ecs", Number: 12, State: entities.StateOpen,
			Body: githubBodyMarker + " docs merged under https://gitea.example.com/docs/ecs/pulls/77.",
		},
	}, nil)

	engine := NewEngine(testLogger(t), gitea, github, fallback, store, testConfig())
	require.NoError(t, engine.Run(ctx, spec))

	require.Len(t, store.pairs, 1)
	require.Equal(t, entities.PairOrphaned, store.pairs[0].Class)
	require.Equal(t, 12, store.pairs[0].ParentNumber)
	require.Equal(t, entities.EnvGithub, store.pairs[0].Child.Env)
	github.AssertExpectations(t)
	fallback.AssertExpectations(t)
}
