// Package scm abstracts the source-control host used for diff retrieval
// and review feedback.
package scm

import "context"

// ChangedFile describes one file touched by a commit or pull request.
type ChangedFile struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// Client reads change sets and posts review feedback.
type Client interface {
	// ChangedFiles lists the files touched by the given commit.
	ChangedFiles(ctx context.Context, owner, repo, commit string) ([]ChangedFile, error)
	// PostComment attaches a comment to the pull request, if any.
	PostComment(ctx context.Context, owner, repo string, prNumber int, body string) error
}
