package notify

import (
	"fmt"
	"time"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// render builds the message body for one candidate row. The template is
// selected by the row's type tag.
func render(c entities.AlertCandidate, now time.Time) string {
	date := now.Format("2006-01-02")

	switch c.Type {
	case entities.AlertDoc:
		var head string
		switch {
		case c.DaysPassed == 344:
			head = ":notifications:    **Outdated Documents Alert**    :notifications:\n\n" +
				"This document's last release date will break the **1-year threshold after 3 weeks.**"
		case c.DaysPassed == 351:
			head = ":notifications::notifications:    **Outdated Documents Alert**    :notifications::notifications:\n\n" +
				"This document's last release date will break the **1-year threshold after 2 weeks.**"
		case c.DaysPassed == 358:
			head = ":notifications::notifications::notifications:   **Outdated Documents Alert**    :notifications::notifications::notifications:\n\n" +
				"This document's last release date will break the **1-year threshold after 1 week.**"
		case c.DaysPassed >= 365:
			head = ":exclamation:    **Outdated Documents Alert**    :exclamation:\n\n" +
				"This document's release date breaks 1-year threshold!"
		default:
			return ""
		}
		return head + footer(c, date, "Commit URL")

	case entities.AlertIssue:
		return ":point_right:      **Unattended Issues Alert**      :point_left:\n\n" +
			"You have an issue which has no assignees for more than 7 days" +
			footer(c, date, "Issue URL")

	case entities.AlertOrphan:
		return ":boom:    **Orphaned PRs Alert**   :boom:\n\nYou have orphaned PR here!" +
			footer(c, date, "Orphan URL")

	case entities.AlertAnalyzed:
		return ":ghost:   **Review Labels Alert**  :ghost:\n\nPlease check label and comments here!" +
			footer(c, date, "PR URL")

	case entities.AlertRst:
		return ":ghost:   **Unreviewed PRs Alert**  :ghost:\n\nThis PR waits for a reviewer!" +
			footer(c, date, "PR URL")

	case entities.AlertFilesLines:
		return ":holyhandgrenade:   **Reviewing PRs content Alert**  :holyhandgrenade:\n\nTime to check content in this PR!" +
			footer(c, date, "PR URL")
	}
	return ""
}

func footer(c entities.AlertCandidate, date, urlLabel string) string {
	return fmt.Sprintf(
		"\n\n**Squad name:** %s\n**Service name:** %s\n**Zone:** %s\n**Date:** %s\n\n**%s:** %s"+
			"\n\n---------------------------------------------------------",
		c.Squad, c.Service, c.Zone, date, urlLabel, c.URL,
	)
}
