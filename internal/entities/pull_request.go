// Package entities contains core business entities.
package entities

import "time"

// Environment marks which forge a record came from.
type Environment string

const (
	// EnvGitea marks records fetched from the Gitea organization.
	EnvGitea Environment = "Gitea"
	// EnvGithub marks records fetched from the mirror GitHub organization.
	EnvGithub Environment = "Github"
)

// Zone marks which of the two parallel organizations produced a row.
type Zone string

const (
	// ZonePublic is the primary organization.
	ZonePublic Zone = "Public"
	// ZoneHybrid is the secondary ("swiss") organization.
	ZoneHybrid Zone = "Hybrid"
)

// PRState enumerates forge pull request states.
type PRState string

const (
	// StateOpen marks an open pull request.
	StateOpen PRState = "open"
	// StateClosed marks a closed pull request.
	StateClosed PRState = "closed"
)

// PullRequestRecord is an immutable snapshot of a forge pull request,
// fetched fresh each run.
type PullRequestRecord struct {
	Env                Environment
	Repo               string
	Number             int
	Title              string
	URL                string
	State              PRState
	Merged             bool
	Body               string
	CreatedAt          time.Time
	Labels             []string
	RequestedReviewers []string
	ChangedFiles       int
}
