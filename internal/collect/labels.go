package collect

import (
	"context"
	"fmt"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Labels rebuilds the review-label table of one zone. It starts from
// requested-changes rows older than three days and records, per PR, the
// analyzed label and whether the latest review comment came from the
// counterpart rather than the reviewer.
func (c *Collector) Labels(ctx context.Context, spec config.ZoneSpec) error {
	if err := c.store.ResetLabels(ctx, spec.Zone); err != nil {
		return fmt.Errorf("reset labels: %w", err)
	}

	rows, err := c.store.StaleReviews(ctx, spec.Zone, 3)
	if err != nil {
		return fmt.Errorf("load stale reviews: %w", err)
	}
	for _, row := range rows {
		// Rows have been relabeled; only the URL still names the repo.
		repo, number, ok := parsePullURL(row.URL)
		if !ok {
			c.log.Errorw("unparseable PR URL", "url", row.URL)
			continue
		}
		if err := c.labelOne(ctx, spec, repo, number, row); err != nil {
			c.log.Errorw("label check", "repo", repo, "number", number, "error", err)
		}
	}

	return c.store.Relabel(ctx, spec.Zone, entities.LabelTable)
}

func (c *Collector) labelOne(ctx context.Context, spec config.ZoneSpec, repo string, number int, row entities.ReviewRecord) error {
	pull, err := c.gitea.GetPull(ctx, spec.GiteaOrg, repo, number)
	if err != nil {
		return err
	}
	label := "Not labeled"
	for _, l := range pull.Labels {
		if l == "analyzed" {
			label = "Analyzed"
			break
		}
	}

	reviews, err := c.gitea.ListPullReviews(ctx, spec.GiteaOrg, repo, number)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		return nil
	}
	last := reviews[len(reviews)-1]

	comment := "Not commented"
	if last.CommentsCount > 0 {
		comments, err := c.gitea.ListReviewComments(ctx, spec.GiteaOrg, repo, number, last.ID)
		if err != nil {
			return err
		}
		if len(comments) > 0 && comments[len(comments)-1].User.FullName != row.Reviewer {
			comment = "Commented"
		}
	}

	rec := entities.LabelRecord{
		Number:     number,
		Service:    repo,
		URL:        row.URL,
		DaysPassed: row.DaysPassed,
		Reviewer:   row.Reviewer,
		Label:      label,
		Comment:    comment,
	}
	return c.store.InsertLabel(ctx, spec.Zone, rec)
}
