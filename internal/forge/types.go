package forge

import "time"

// RepoInfo is a repository listing entry.
type RepoInfo struct {
	Name     string    `json:"name"`
	Archived bool      `json:"archived"`
	PushedAt time.Time `json:"pushed_at"`
}

// ChangedFile is one file of a pull request diff.
type ChangedFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	RawURL   string `json:"raw_url"`
}

// Review is one pull request review.
type Review struct {
	ID             int64     `json:"id"`
	State          string    `json:"state"`
	UpdatedAt      time.Time `json:"updated_at"`
	CommentsCount  int       `json:"comments_count"`
	User           Account   `json:"user"`
	PullRequestURL string    `json:"pull_request_url"`
}

// ReviewComment is one comment attached to a review.
type ReviewComment struct {
	User Account `json:"user"`
}

// Account identifies a forge user.
type Account struct {
	Login    string `json:"login"`
	FullName string `json:"full_name"`
}

// Issue is a raw forge issue with the fields the collectors need.
type Issue struct {
	Number     int       `json:"number"`
	HTMLURL    string    `json:"html_url"`
	Comments   int       `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
	User       Account   `json:"user"`
	Assignees  []Account `json:"assignees"`
	Repository struct {
		Name string `json:"name"`
	} `json:"repository"`
	PullRequest *struct{} `json:"pull_request,omitempty"`
}

// CommitRef is a commit listing entry.
type CommitRef struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Author struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Files []ChangedFile `json:"files"`
}

// CommitStatus is one CI status attached to a commit.
type CommitStatus struct {
	Status    string    `json:"status"`
	TargetURL string    `json:"target_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentEntry is one item of a repository contents listing.
type ContentEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

type contentFile struct {
	Content string `json:"content"`
}

// giteaPull mirrors the Gitea pull request payload.
type giteaPull struct {
	Number             int       `json:"number"`
	Title              string    `json:"title"`
	URL                string    `json:"url"`
	State              string    `json:"state"`
	Merged             bool      `json:"merged"`
	Body               string    `json:"body"`
	CreatedAt          time.Time `json:"created_at"`
	ChangedFiles       int       `json:"changed_files"`
	Labels             []label   `json:"labels"`
	RequestedReviewers []Account `json:"requested_reviewers"`
}

type label struct {
	Name string `json:"name"`
}

// githubPull mirrors the GitHub pull request payload.
type githubPull struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	HTMLURL   string     `json:"html_url"`
	State     string     `json:"state"`
	MergedAt  *time.Time `json:"merged_at"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	Base      struct {
		Repo struct {
			Name string `json:"name"`
		} `json:"repo"`
	} `json:"base"`
}
