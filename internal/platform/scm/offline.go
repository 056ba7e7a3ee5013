package scm

import "context"

// OfflineClient serves a fixed change set and swallows comments. Used when
// no SCM token is configured.
type OfflineClient struct{}

// NewOfflineClient creates an OfflineClient.
func NewOfflineClient() *OfflineClient {
	return &OfflineClient{}
}

// ChangedFiles returns a small synthetic change set.
func (OfflineClient) ChangedFiles(context.Context, string, string, string) ([]ChangedFile, error) {
	return []ChangedFile{
		{Path: "main.go", Status: "modified", Additions: 12, Deletions: 3},
		{Path: "README.md", Status: "modified", Additions: 2, Deletions: 0},
	}, nil
}

// PostComment does nothing.
func (OfflineClient) PostComment(context.Context, string, string, int, string) error {
	return nil
}
