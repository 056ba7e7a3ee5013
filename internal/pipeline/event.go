package pipeline

import "fmt"

// Event is a repository event that triggers a pipeline run.
type Event struct {
	// Repository in "owner/name" form.
	Repository string `json:"repository"`
	// CloneURL is the HTTPS clone URL, also used as the image build context.
	CloneURL string `json:"clone_url"`
	// Ref is the git ref that was pushed, e.g. "refs/heads/main".
	Ref string `json:"ref"`
	// Commit is the full SHA of the head commit.
	Commit string `json:"commit"`
	// PullRequest is the PR number when the event belongs to one, 0 otherwise.
	PullRequest int `json:"pull_request,omitempty"`
	// Pusher is informational only.
	Pusher string `json:"pusher,omitempty"`
}

// Validate checks the fields every stage depends on.
func (e *Event) Validate() error {
	if e.Repository == "" {
		return fmt.Errorf("event is missing repository")
	}
	if e.Ref == "" {
		return fmt.Errorf("event is missing ref")
	}
	if e.Commit == "" {
		return fmt.Errorf("event is missing commit")
	}
	return nil
}

// ShortCommit returns the abbreviated commit SHA used in image tags.
func (e *Event) ShortCommit() string {
	if len(e.Commit) > 12 {
		return e.Commit[:12]
	}
	return e.Commit
}
