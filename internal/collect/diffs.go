package collect

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/forge"
)

// PRs carrying any of these labels are parked on purpose and excluded from
// the diff-size snapshot.
var diffExcludedLabels = map[string]bool{
	"on hold": true, "new_service": true, "broken_pr_huawei": true, "broken_pr_eco": true,
}

var textExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".json": true, ".yaml": true, ".yml": true,
	".md": true, ".rst": true, ".txt": true, ".sh": true, ".ini": true, ".conf": true,
}

type diffFile struct {
	repo   string
	number int
	rawURL string
	lines  int
}

// Diffs rebuilds the diff-size table of one zone. Rows are inserted with a
// zero line count, then the changed files of every PR are fetched through a
// bounded concurrent fan-out and the per-PR line totals written back.
func (c *Collector) Diffs(ctx context.Context, spec config.ZoneSpec) error {
	if err := c.store.ResetDiffs(ctx, spec.Zone); err != nil {
		return fmt.Errorf("reset diffs: %w", err)
	}

	repos, err := c.store.Repos(ctx, spec.Zone, "public")
	if err != nil {
		return fmt.Errorf("load catalog repos: %w", err)
	}

	type prKey struct {
		repo   string
		number int
	}
	var keys []prKey
	for _, repo := range repos {
		pulls, err := c.gitea.ListPulls(ctx, spec.GiteaOrg, repo, "open")
		if err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				continue
			}
			c.log.Errorw("list open PRs", "repo", repo, "error", err)
			continue
		}
		for _, pull := range pulls {
			if !isBotBody(pull.Body) || hasExcludedLabel(pull.Labels) {
				continue
			}
			rec := entities.DiffRecord{
				Number:     pull.Number,
				Service:    repo,
				URL:        pull.URL,
				DaysPassed: c.daysSince(pull.CreatedAt),
				FilesCount: pull.ChangedFiles,
			}
			if err := c.store.InsertDiff(ctx, spec.Zone, rec); err != nil {
				c.log.Errorw("store diff row", "repo", repo, "number", pull.Number, "error", err)
				continue
			}
			keys = append(keys, prKey{repo: repo, number: pull.Number})
		}
	}

	for _, key := range keys {
		files, err := c.gitea.ListPullFiles(ctx, spec.GiteaOrg, key.repo, key.number)
		if err != nil {
			c.log.Errorw("list PR files", "repo", key.repo, "number", key.number, "error", err)
			continue
		}
		total := c.countLines(ctx, c.classifyFiles(key.repo, key.number, files))
		if err := c.store.UpdateDiffLines(ctx, spec.Zone, key.number, key.repo, total); err != nil {
			c.log.Errorw("update diff lines", "repo", key.repo, "number", key.number, "error", err)
		}
	}

	return c.store.Relabel(ctx, spec.Zone, entities.FilesLinesTable)
}

// classifyFiles maps a PR's changed files to fetch jobs: deleted files are
// dropped and binary files count as one line without a fetch.
func (c *Collector) classifyFiles(repo string, number int, files []forge.ChangedFile) []diffFile {
	jobs := make([]diffFile, 0, len(files))
	for _, f := range files {
		if f.Status == "deleted" {
			continue
		}
		job := diffFile{repo: repo, number: number, rawURL: f.RawURL}
		if !textExtensions[strings.ToLower(path.Ext(f.RawURL))] {
			job.lines = 1
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// countLines fetches the text files of one PR concurrently. In-flight
// requests are bounded, consecutive launches are spaced out, and each fetch
// retries on rate limiting with exponential backoff.
func (c *Collector) countLines(ctx context.Context, jobs []diffFile) int {
	sem := make(chan struct{}, c.cfg.Diff.MaxInFlight)
	results := make([]int, len(jobs))

	var wg sync.WaitGroup
	for idx, job := range jobs {
		if job.lines > 0 {
			results[idx] = job.lines
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int, job diffFile) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = c.fetchLineCount(ctx, job.rawURL)
		}(idx, job)
		time.Sleep(c.cfg.Diff.RequestDelay)
	}
	wg.Wait()

	total := 0
	for _, n := range results {
		total += n
	}
	return total
}

func (c *Collector) fetchLineCount(ctx context.Context, rawURL string) int {
	wait := time.Second
	for attempt := 1; ; attempt++ {
		content, err := c.gitea.FetchRaw(ctx, rawURL)
		if err == nil {
			return countNewlineSeparated(content)
		}
		if !errors.Is(err, entities.ErrRateLimited) || attempt >= c.cfg.Diff.RetryAttempts {
			c.log.Errorw("fetch raw file", "url", rawURL, "error", err)
			return 0
		}
		select {
		case <-ctx.Done():
			return 0
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func countNewlineSeparated(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	lines := strings.Count(string(content), "\n")
	if content[len(content)-1] != '\n' {
		lines++
	}
	return lines
}

func hasExcludedLabel(labels []string) bool {
	for _, l := range labels {
		if diffExcludedLabels[l] {
			return true
		}
	}
	return false
}
