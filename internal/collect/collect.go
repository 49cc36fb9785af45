// Package collect rebuilds the per-category snapshot tables from live forge
// state. Each collector owns one table: it drops and recreates it, fetches,
// inserts row by row, then relabels service titles and squads from the
// catalog.
package collect

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/forge"
)

const botBodyMarker = "This is an automatically created Pull Request"

// GiteaSource is the subset of the Gitea client the collectors read from.
type GiteaSource interface {
	ListOrgRepos(ctx context.Context, org string) ([]forge.RepoInfo, error)
	ListPulls(ctx context.Context, org, repo, state string) ([]entities.PullRequestRecord, error)
	GetPull(ctx context.Context, org, repo string, number int) (entities.PullRequestRecord, error)
	ListPullFiles(ctx context.Context, org, repo string, number int) ([]forge.ChangedFile, error)
	ListPullReviews(ctx context.Context, org, repo string, number int) ([]forge.Review, error)
	ListReviewComments(ctx context.Context, org, repo string, number int, reviewID int64) ([]forge.ReviewComment, error)
	SearchIssues(ctx context.Context, org string) ([]forge.Issue, error)
	ListPullCommits(ctx context.Context, org, repo string, number int) ([]forge.CommitRef, error)
	ListCommitStatuses(ctx context.Context, org, repo, sha string) ([]forge.CommitStatus, error)
	FetchRaw(ctx context.Context, rawURL string) ([]byte, error)
}

// GithubSource is the subset of the GitHub client the collectors read from.
type GithubSource interface {
	ListOrgRepos(ctx context.Context, org string) ([]forge.RepoInfo, error)
	ListIssues(ctx context.Context, org, repo string) ([]forge.Issue, error)
	ListCommits(ctx context.Context, org, repo, path string) ([]forge.CommitRef, error)
	GetCommit(ctx context.Context, org, repo, sha string) (forge.CommitRef, error)
}

// Store is the subset of the repository the collectors write to.
type Store interface {
	Repos(ctx context.Context, zone entities.Zone, envs ...string) ([]string, error)

	ResetIssues(ctx context.Context, zone entities.Zone) error
	InsertIssue(ctx context.Context, zone entities.Zone, rec entities.IssueRecord) error

	ResetEcoIssues(ctx context.Context) error
	InsertEcoIssue(ctx context.Context, rec entities.IssueRecord) error

	ResetCommits(ctx context.Context, zone entities.Zone) error
	InsertCommit(ctx context.Context, zone entities.Zone, rec entities.CommitRecord) error

	ResetReviews(ctx context.Context, zone entities.Zone) error
	InsertReview(ctx context.Context, zone entities.Zone, rec entities.ReviewRecord) error
	UpdateReviewStatus(ctx context.Context, zone entities.Zone, number int, repo, status string) error
	StaleReviews(ctx context.Context, zone entities.Zone, minAgeDays int) ([]entities.ReviewRecord, error)

	ResetLabels(ctx context.Context, zone entities.Zone) error
	InsertLabel(ctx context.Context, zone entities.Zone, rec entities.LabelRecord) error

	ResetRst(ctx context.Context, zone entities.Zone) error
	InsertRst(ctx context.Context, zone entities.Zone, rec entities.RstRecord) error

	ResetDiffs(ctx context.Context, zone entities.Zone) error
	InsertDiff(ctx context.Context, zone entities.Zone, rec entities.DiffRecord) error
	UpdateDiffLines(ctx context.Context, zone entities.Zone, number int, repo string, lines int) error

	ResetZuul(ctx context.Context, zone entities.Zone) error
	InsertZuul(ctx context.Context, zone entities.Zone, rec entities.ZuulRecord) error

	Relabel(ctx context.Context, zone entities.Zone, table entities.Table) error
}

// Collector runs the snapshot collectors for one zone at a time.
type Collector struct {
	log      *zap.SugaredLogger
	gitea    GiteaSource
	github   GithubSource
	fallback GithubSource
	store    Store
	cfg      *config.Config
	now      func() time.Time
}

// New creates a collector. The fallback GitHub client is consulted exactly
// once when a whole GitHub-backed pass fails on auth.
func New(log *zap.SugaredLogger, gitea GiteaSource, github, fallback GithubSource, store Store, cfg *config.Config) *Collector {
	return &Collector{
		log:      log.Named("collect"),
		gitea:    gitea,
		github:   github,
		fallback: fallback,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
	}
}

// daysSince counts whole days between a timestamp and now, UTC.
func (c *Collector) daysSince(t time.Time) int {
	return int(c.now().UTC().Sub(t) / (24 * time.Hour))
}

func isBotBody(body string) bool {
	return strings.HasPrefix(body, botBodyMarker)
}

var refPattern = regexp.MustCompile(`#\d+`)

// extractRefNumber returns the first #NNN token of a PR body.
func extractRefNumber(body string) (int, bool) {
	match := refPattern.FindString(body)
	if match == "" {
		return 0, false
	}
	number, err := strconv.Atoi(match[1:])
	if err != nil {
		return 0, false
	}
	return number, true
}

// parsePullURL splits a PR URL into its repository and number. Needed where
// snapshot rows have already been relabeled and only the URL still carries
// the repository name.
func parsePullURL(url string) (repo string, number int, ok bool) {
	parts := strings.Split(url, "/")
	for i := 1; i < len(parts)-1; i++ {
		if parts[i] != "pulls" && parts[i] != "pull" {
			continue
		}
		number, err := strconv.Atoi(parts[i+1])
		if err != nil || number <= 0 {
			return "", 0, false
		}
		return parts[i-1], number, true
	}
	return "", 0, false
}
