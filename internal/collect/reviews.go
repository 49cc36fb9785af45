package collect

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Reviews rebuilds the requested-changes table of one zone. A proposal PR
// lands here when its latest review requested changes and nobody but the
// reviewer has pushed since; afterwards each row's parent PR is checked and
// rows whose parent still has changes requested are marked so.
func (c *Collector) Reviews(ctx context.Context, spec config.ZoneSpec) error {
	if err := c.store.ResetReviews(ctx, spec.Zone); err != nil {
		return fmt.Errorf("reset reviews: %w", err)
	}

	repos, err := c.store.Repos(ctx, spec.Zone, "public", "tech")
	if err != nil {
		return fmt.Errorf("load catalog repos: %w", err)
	}
	var inserted []entities.ReviewRecord
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
			rec, err := c.reviewOne(ctx, spec, repo, pull.Number)
			if err != nil {
				c.log.Errorw("review check", "repo", repo, "number", pull.Number, "error", err)
				continue
			}
			if rec != nil {
				inserted = append(inserted, *rec)
			}
		}
	}

	if err := c.markParentStatuses(ctx, spec, inserted); err != nil {
		return err
	}
	return c.store.Relabel(ctx, spec.Zone, entities.RequestedChangesTable)
}

func (c *Collector) reviewOne(ctx context.Context, spec config.ZoneSpec, repo string, number int) (*entities.ReviewRecord, error) {
	reviews, err := c.gitea.ListPullReviews(ctx, spec.GiteaOrg, repo, number)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, nil
	}
	last := reviews[len(reviews)-1]
	if last.State != "REQUEST_CHANGES" {
		return nil, nil
	}

	commits, err := c.gitea.ListPullCommits(ctx, spec.GiteaOrg, repo, number)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}
	// Commits come newest first. A commit pushed after the review means the
	// ball went back to the reviewer; count the lag from that commit instead
	// of the review.
	activity := last.UpdatedAt
	if newest := commits[0]; newest.Commit.Author.Date.After(last.UpdatedAt) {
		activity = newest.Commit.Author.Date
	}

	rec := entities.ReviewRecord{
		Number:     number,
		Service:    repo,
		URL:        last.PullRequestURL,
		DaysPassed: c.daysSince(activity),
		Reviewer:   last.User.FullName,
		Status:     "No changes requested",
	}
	if err := c.store.InsertReview(ctx, spec.Zone, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// markParentStatuses flags rows whose aggregation-repo parent still has
// changes requested.
func (c *Collector) markParentStatuses(ctx context.Context, spec config.ZoneSpec, rows []entities.ReviewRecord) error {
	for _, row := range rows {
		child, err := c.gitea.GetPull(ctx, spec.GiteaOrg, row.Service, row.Number)
		if err != nil {
			c.log.Errorw("fetch child PR", "repo", row.Service, "number", row.Number, "error", err)
			continue
		}
		if !isBotBody(child.Body) {
			continue
		}
		parentNumber, ok := extractRefNumber(child.Body)
		if !ok {
			continue
		}
		parentReviews, err := c.gitea.ListPullReviews(ctx, spec.GiteaOrg, c.cfg.Zones.AggregationRepo, parentNumber)
		if err != nil {
			c.log.Errorw("fetch parent reviews", "number", parentNumber, "error", err)
			continue
		}
		if len(parentReviews) == 0 {
			continue
		}
		if parentReviews[len(parentReviews)-1].State == "REQUEST_CHANGES" {
			if err := c.store.UpdateReviewStatus(ctx, spec.Zone, row.Number, row.Service, "CHANGES REQUESTED"); err != nil {
				c.log.Errorw("mark parent status", "repo", row.Service, "number", row.Number, "error", err)
			}
		}
	}
	return nil
}
