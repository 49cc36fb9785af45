package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

func TestStoreIntegration(t *testing.T) {
	ctx := context.Background()

	cfg, cleanup := setupPostgres(t)
	t.Cleanup(cleanup)

	repo := New(ctx, testLogger(t), cfg)
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() { _ = repo.OnStop(ctx) })

	zone := entities.ZonePublic

	entries := []entities.CatalogEntry{
		{Repository: "ecs", Title: "Elastic Cloud Server", Category: "Compute", Squad: "Compute Squad", Env: "public"},
		{Repository: "vpc", Title: "Virtual Private Cloud", Category: "Network", Squad: "Network Squad", Env: "public"},
		{Repository: "doc-exports", Title: "doc-exports", Category: "", Squad: "", Env: "public"},
		{Repository: "dev-env", Title: "dev-env", Category: "", Squad: "", Env: "internal"},
	}
	require.NoError(t, repo.ReplaceCatalog(ctx, zone, entries))

	repos, err := repo.Repos(ctx, zone, "public")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"ecs", "vpc", "doc-exports"}, repos)

	excluded, err := repo.ExcludedRepos(ctx, zone)
	require.NoError(t, err)
	require.Equal(t, []string{"dev-env"}, excluded)

	require.NoError(t, repo.ResetPairTables(ctx, zone))
	open := entities.ReconciledPair{
		Child: entities.PullRequestRecord{
			Env:   entities.EnvGitea,
			Repo:  "ecs",
			URL:   "https://gitea.example.com/docs/ecs/pulls/5",
			State: entities.StateOpen,
		},
		ParentNumber: 101,
		ParentState:  entities.StateOpen,
		Class:        entities.PairOpen,
		Service:      "ecs",
		Squad:        "",
	}
	orphan := open
	orphan.Child.URL = "https://gitea.example.com/docs/vpc/pulls/9"
	orphan.Service = "vpc"
	orphan.ParentNumber = 102
	orphan.ParentState = entities.StateClosed
	orphan.ParentMerged = true
	orphan.Class = entities.PairOrphaned

	require.NoError(t, repo.InsertPair(ctx, zone, open))
	require.NoError(t, repo.InsertPair(ctx, zone, orphan))
	require.NoError(t, repo.RelabelPairs(ctx, zone))

	orphans, err := repo.OrphanCandidates(ctx, zone, "")
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	require.Equal(t, entities.AlertOrphan, orphans[0].Type)
	require.Equal(t, "Virtual Private Cloud", orphans[0].Service)
	require.Equal(t, "Network Squad", orphans[0].Squad)
	require.Equal(t, zone, orphans[0].Zone)

	filtered, err := repo.OrphanCandidates(ctx, zone, "Compute Squad")
	require.NoError(t, err)
	require.Empty(t, filtered)
}

func TestStoreSnapshotsIntegration(t *testing.T) {
	ctx := context.Background()

	cfg, cleanup := setupPostgres(t)
	t.Cleanup(cleanup)

	repo := New(ctx, testLogger(t), cfg)
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() { _ = repo.OnStop(ctx) })

	zone := entities.ZoneHybrid

	entries := []entities.CatalogEntry{
		{Repository: "ecs", Title: "Elastic Cloud Server", Category: "Compute", Squad: "Compute Squad", Env: "hybrid"},
		{Repository: "doc-exports", Title: "doc-exports", Category: "", Squad: "", Env: "hybrid"},
	}
	require.NoError(t, repo.ReplaceCatalog(ctx, zone, entries))

	require.NoError(t, repo.ResetIssues(ctx, zone))
	require.NoError(t, repo.InsertIssue(ctx, zone, entities.IssueRecord{
		Env:       entities.EnvGithub,
		Service:   "ecs",
		Number:    42,
		URL:       "https://github.com/opentelekomcloud-docs/ecs/issues/42",
		CreatedBy: "someone",
		CreatedAt: time.Now().AddDate(0, 0, -10),
		Duration:  10,
		Comments:  2,
	}))
	require.NoError(t, repo.Relabel(ctx, zone, entities.OpenIssuesTable))

	issues, err := repo.IssueCandidates(ctx, zone, "")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, "Elastic Cloud Server", issues[0].Service)
	require.Equal(t, entities.EnvGithub, issues[0].Environment)
	require.Equal(t, 10, issues[0].DaysPassed)

	require.NoError(t, repo.ResetEcoIssues(ctx))
	require.NoError(t, repo.InsertEcoIssue(ctx, entities.IssueRecord{
		Service:   "infra-tools",
		Number:    3,
		URL:       "https://github.com/opentelekomcloud/infra-tools/issues/3",
		CreatedBy: "dana",
		CreatedAt: time.Now().AddDate(0, 0, -4),
		Duration:  4,
		Comments:  1,
		Assignees: "erin",
	}))

	require.NoError(t, repo.ResetReviews(ctx, zone))
	require.NoError(t, repo.InsertReview(ctx, zone, entities.ReviewRecord{
		Number: 7, Service: "ecs", URL: "u1", DaysPassed: 5, Reviewer: "rev", Status: "open",
	}))
	require.NoError(t, repo.InsertReview(ctx, zone, entities.ReviewRecord{
		Number: 8, Service: "ecs", URL: "u2", DaysPassed: 1, Reviewer: "rev", Status: "open",
	}))

	stale, err := repo.StaleReviews(ctx, zone, 3)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, 7, stale[0].Number)

	require.NoError(t, repo.ResetDiffs(ctx, zone))
	require.NoError(t, repo.InsertDiff(ctx, zone, entities.DiffRecord{
		Number: 7, Service: "ecs", URL: "u1", DaysPassed: 6, FilesCount: 3,
	}))
	require.NoError(t, repo.UpdateDiffLines(ctx, zone, 7, "ecs", 1200))

	diffs, err := repo.DiffCandidates(ctx, zone, "")
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	require.Equal(t, 1200, diffs[0].LinesCount)

	require.NoError(t, repo.ResetZuul(ctx, zone))
	require.NoError(t, repo.InsertZuul(ctx, zone, entities.ZuulRecord{
		Service:     "ecs",
		Title:       "Changes to ecs",
		URL:         "https://gitea.example.com/docs-swiss/ecs/pulls/3",
		State:       entities.StateOpen,
		ZuulURL:     "https://zuul.example.com/build/abc",
		CheckStatus: "failure",
		CreatedAt:   time.Now().AddDate(0, 0, -2),
		DaysPassed:  2,
	}))
}

func setupPostgres(t *testing.T) (*config.Config, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=eod_snapshots",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	require.NoError(t, err)

	hostPort := resource.GetPort("5432/tcp")
	port, err := strconv.Atoi(hostPort)
	require.NoError(t, err)

	dsn := "host=localhost port=" + hostPort + " user=postgres password=postgres dbname=eod_snapshots sslmode=disable"
	require.NoError(t, pool.Retry(func() error {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return db.Ping()
	}))

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	for _, name := range []string{"eod_orphans", "eod_zuul"} {
		_, err = db.Exec("CREATE DATABASE " + name)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	cfg := &config.Config{
		HTTP: config.HTTPConfig{RequestTimeout: 5 * time.Second},
		Postgres: config.PostgresConfig{
			Host:         "localhost",
			Port:         port,
			User:         "postgres",
			Password:     "postgres",
			SnapshotsDB:  "eod_snapshots",
			OrphansDB:    "eod_orphans",
			ZuulDB:       "eod_zuul",
			SSLMode:      "disable",
			QueryTimeout: 10 * time.Second,
			MaxConns:     4,
			MinConns:     1,
		},
	}

	return cfg, func() { _ = pool.Purge(resource) }
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()

	l, _ := zap.NewDevelopment()
	t.Cleanup(func() { _ = l.Sync() })
	return l.Sugar()
}
