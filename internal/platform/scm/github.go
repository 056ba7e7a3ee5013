package scm

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// GitHubClient implements Client against the GitHub REST API.
type GitHubClient struct {
	client *github.Client
}

// NewGitHubClient creates a client authenticated with the given token.
// A non-empty baseURL points the client at a GitHub Enterprise instance.
func NewGitHubClient(ctx context.Context, token, baseURL string) *GitHubClient {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	if baseURL != "" {
		if enterprise, err := client.WithEnterpriseURLs(baseURL, baseURL); err == nil {
			client = enterprise
		}
	}
	return &GitHubClient{client: client}
}

// ChangedFiles lists the files touched by a commit.
func (g *GitHubClient) ChangedFiles(ctx context.Context, owner, repo, commit string) ([]ChangedFile, error) {
	rc, _, err := g.client.Repositories.GetCommit(ctx, owner, repo, commit, &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", commit, err)
	}

	files := make([]ChangedFile, 0, len(rc.Files))
	for _, f := range rc.Files {
		files = append(files, ChangedFile{
			Path:      f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Patch:     f.GetPatch(),
		})
	}
	return files, nil
}

// PostComment attaches a comment to a pull request.
func (g *GitHubClient) PostComment(ctx context.Context, owner, repo string, prNumber int, body string) error {
	if prNumber <= 0 {
		return nil
	}
	_, _, err := g.client.Issues.CreateComment(ctx, owner, repo, prNumber, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("failed to post comment on %s/%s#%d: %w", owner, repo, prNumber, err)
	}
	return nil
}
