package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Bot-authored proposal bodies start with this marker; the GitHub mirror
// variant carries a longer prefix and an explicit Gitea URL.
const (
	botBodyMarker    = "This is an automatically created Pull Request"
	githubBodyMarker = "This is an automatically created Pull Request for changes to"
)

var (
	refPattern       = regexp.MustCompile(`#\d+`)
	giteaURLPattern  = regexp.MustCompile(`under\s(\S+)`)
	giteaPathPattern = regexp.MustCompile(`/docs[^/\s]*/([^/\s]+)/pulls/(\d+)`)
)

// ExtractRef returns the first #NNN token of a PR body. Absence is a skip,
// not an error.
func ExtractRef(body string) (int, bool) {
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

// extractGiteaParent pulls the Gitea parent PR location out of a mirror PR
// body: the display URL plus the repo and number needed for a live lookup.
func extractGiteaParent(body string) (url, repo string, number int, ok bool) {
	urlMatch := giteaURLPattern.FindStringSubmatch(body)
	pathMatch := giteaPathPattern.FindStringSubmatch(body)
	if urlMatch == nil || pathMatch == nil {
		return "", "", 0, false
	}
	number, err := strconv.Atoi(pathMatch[2])
	if err != nil {
		return "", "", 0, false
	}
	// The URL ends the bot's sentence; keep the period out of the stored link.
	return strings.TrimRight(urlMatch[1], "."), pathMatch[1], number, true
}

// Classify is total over all state combinations: a pair is open only while
// both sides are open, diverged state or merge flags make it orphaned, and
// anything consistently finished is resolved.
func Classify(child entities.PullRequestRecord, parentState entities.PRState, parentMerged bool) entities.PairClass {
	if child.State == entities.StateOpen && parentState == entities.StateOpen {
		return entities.PairOpen
	}
	if child.State != parentState || child.Merged != parentMerged {
		return entities.PairOrphaned
	}
	return entities.PairResolved
}
