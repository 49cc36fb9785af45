package forge

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()

	l, _ := zap.NewDevelopment()
	t.Cleanup(func() { _ = l.Sync() })
	return l.Sugar()
}

func testGitea(t *testing.T, handler http.Handler) *Gitea {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Gitea{
		log:      testLogger(t),
		http:     &http.Client{Timeout: 5 * time.Second},
		endpoint: srv.URL,
		token:    "secret",
	}
}

func testGitHub(t *testing.T, handler http.Handler) *GitHub {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &GitHub{
		log:      testLogger(t),
		http:     &http.Client{Timeout: 5 * time.Second},
		endpoint: srv.URL,
		token:    "secret",
	}
}

func TestNextLink(t *testing.T) {
	header := `<https://x.test/repos?page=2>; rel="next", <https://x.test/repos?page=5>; rel="last"`
	require.Equal(t, "https://x.test/repos?page=2", nextLink(header))
	require.Empty(t, nextLink(`<https://x.test/repos?page=5>; rel="last"`))
	require.Empty(t, nextLink(""))
}

func TestGiteaListOrgReposPagination(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/docs/repos", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token secret", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("page") {
		case "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/orgs/docs/repos?page=2&limit=50>; rel="next"`, srvURL))
			fmt.Fprint(w, `[{"name":"ecs"},{"name":"attic","archived":true}]`)
		case "2":
			fmt.Fprint(w, `[{"name":"vpc"}]`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	g := testGitea(t, mux)
	srvURL = g.endpoint

	repos, err := g.ListOrgRepos(context.Background(), "docs")
	require.NoError(t, err)
	require.Equal(t, []RepoInfo{{Name: "ecs"}, {Name: "vpc", Archived: false}}, repos)
}

func TestGetJSONRetriesOnRateLimit(t *testing.T) {
	calls := 0
	g := testGitea(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `[]`)
	}))

	_, err := g.ListOrgRepos(context.Background(), "docs")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestGetJSONRateLimitExhausted(t *testing.T) {
	calls := 0
	g := testGitea(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := g.ListOrgRepos(context.Background(), "docs")
	require.ErrorIs(t, err, entities.ErrRateLimited)
	require.Equal(t, retryAttempts, calls)
}

func TestGetJSONAuthError(t *testing.T) {
	g := testGitea(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := g.ListOrgRepos(context.Background(), "docs")
	require.ErrorIs(t, err, entities.ErrAuth)
}

func TestGiteaGetPullNotFound(t *testing.T) {
	g := testGitea(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := g.GetPull(context.Background(), "docs", "ecs", 1)
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestGiteaListPullsEmptyRepoConflict(t *testing.T) {
	// Gitea answers 409 for repositories without any commit.
	g := testGitea(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	_, err := g.ListPulls(context.Background(), "docs", "empty", "open")
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestGiteaPullRecord(t *testing.T) {
	g := testGitea(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"number": 7,
			"title": "Changes to ecs",
			"url": "https://gitea.test/docs/ecs/pulls/7",
			"state": "open",
			"merged": false,
			"body": "This is an automatically created Pull Request for changes #44",
			"created_at": "2024-05-01T10:00:00Z",
			"changed_files": 2,
			"labels": [{"name": "analyzed"}],
			"requested_reviewers": [{"login": "alice"}, {"full_name": "Bob B"}]
		}`)
	}))

	rec, err := g.GetPull(context.Background(), "docs", "ecs", 7)
	require.NoError(t, err)
	require.Equal(t, entities.EnvGitea, rec.Env)
	require.Equal(t, "ecs", rec.Repo)
	require.Equal(t, 7, rec.Number)
	require.Equal(t, entities.StateOpen, rec.State)
	require.Equal(t, []string{"analyzed"}, rec.Labels)
	require.Equal(t, []string{"alice", "Bob B"}, rec.RequestedReviewers)
	require.Equal(t, 2, rec.ChangedFiles)
}

func TestGiteaFetchRaw(t *testing.T) {
	g := testGitea(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, "line one\nline two\n")
	}))

	content, err := g.FetchRaw(context.Background(), g.endpoint+"/raw/docs/ecs/a.rst")
	require.NoError(t, err)
	require.Equal(t, "line one\nline two\n", string(content))
}

func TestGithubListIssuesTagsRepo(t *testing.T) {
	gh := testGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[
			{"number": 1, "html_url": "https://github.com/o/ecs/issues/1"},
			{"number": 2, "html_url": "https://github.com/o/ecs/pull/2", "pull_request": {}}
		]`)
	}))

	issues, err := gh.ListIssues(context.Background(), "o", "ecs")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	require.Equal(t, "ecs", issues[0].Repository.Name)
	require.Nil(t, issues[0].PullRequest)
	require.NotNil(t, issues[1].PullRequest)
}

func TestGithubPullRecordMergedAt(t *testing.T) {
	gh := testGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"number": 1, "state": "closed", "merged_at": "2024-05-01T10:00:00Z", "base": {"repo": {"name": "ecs"}}},
			{"number": 2, "state": "closed", "merged_at": null, "base": {"repo": {"name": "ecs"}}}
		]`)
	}))

	pulls, err := gh.ListPulls(context.Background(), "o", "ecs", "closed")
	require.NoError(t, err)
	require.Len(t, pulls, 2)
	require.True(t, pulls[0].Merged)
	require.False(t, pulls[1].Merged)
}

func TestGithubWithToken(t *testing.T) {
	gh := &GitHub{token: "primary"}
	clone := gh.WithToken("fallback")
	require.Equal(t, "fallback", clone.token)
	require.Equal(t, "primary", gh.token)
}
