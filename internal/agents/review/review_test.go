package review

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/pipewright/internal/config"
	"github.com/imamik/pipewright/internal/pipeline"
	"github.com/imamik/pipewright/internal/platform/scm"
)

type fakeSCM struct {
	files    []scm.ChangedFile
	filesErr error
	comments []string
}

func (f *fakeSCM) ChangedFiles(context.Context, string, string, string) ([]scm.ChangedFile, error) {
	return f.files, f.filesErr
}

func (f *fakeSCM) PostComment(_ context.Context, _, _ string, _ int, body string) error {
	f.comments = append(f.comments, body)
	return nil
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(context.Context, string, string) (string, error) {
	return f.response, f.err
}

func testContext(event pipeline.Event) *pipeline.Context {
	return pipeline.NewContext(context.Background(), event, &config.Config{}, &config.Timeouts{}, pipeline.NopObserver{})
}

func TestRunApproved(t *testing.T) {
	agent := New(
		&fakeSCM{files: []scm.ChangedFile{{Path: "main.go", Status: "modified"}}},
		&fakeLLM{response: "APPROVED: looks good."},
		logr.Discard(),
	)
	ctx := testContext(pipeline.Event{Repository: "acme/shop", Ref: "refs/heads/main", Commit: "abc"})

	out, err := agent.Run(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"verdict":"approved"`)
	assert.Equal(t, "approved", ctx.State.ReviewVerdict)
}

func TestRunBlocksOnCriticalIssue(t *testing.T) {
	response := "ISSUE:\nSEVERITY: critical\nDESCRIPTION: SQL injection in handler.\n"
	agent := New(&fakeSCM{}, &fakeLLM{response: response}, logr.Discard())
	ctx := testContext(pipeline.Event{Repository: "acme/shop", Ref: "refs/heads/main", Commit: "abc"})

	out, err := agent.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, string(out), `"verdict":"block"`)
	assert.Equal(t, "block", ctx.State.ReviewVerdict)
	assert.Equal(t, 1, ctx.State.ReviewIssues)
}

func TestRunMinorIssuesDoNotFail(t *testing.T) {
	response := "ISSUE:\nSEVERITY: minor\nDESCRIPTION: naming nit.\n"
	agent := New(&fakeSCM{}, &fakeLLM{response: response}, logr.Discard())
	ctx := testContext(pipeline.Event{Repository: "acme/shop", Ref: "refs/heads/main", Commit: "abc"})

	_, err := agent.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "issues", ctx.State.ReviewVerdict)
}

func TestRunPostsCommentOnPullRequest(t *testing.T) {
	fs := &fakeSCM{}
	agent := New(fs, &fakeLLM{response: "APPROVED: fine."}, logr.Discard())
	ctx := testContext(pipeline.Event{Repository: "acme/shop", Ref: "refs/heads/main", Commit: "abcdef1234567890", PullRequest: 42})

	out, err := agent.Run(ctx)
	require.NoError(t, err)
	require.Len(t, fs.comments, 1)
	assert.Contains(t, fs.comments[0], "abcdef123456")
	assert.Contains(t, string(out), `"comment_posted":true`)
}

func TestRunInvalidRepository(t *testing.T) {
	agent := New(&fakeSCM{}, &fakeLLM{}, logr.Discard())
	ctx := testContext(pipeline.Event{Repository: "noslash", Ref: "refs/heads/main", Commit: "abc"})

	_, err := agent.Run(ctx)
	require.Error(t, err)
}

func TestRunSCMFailure(t *testing.T) {
	agent := New(&fakeSCM{filesErr: errors.New("api down")}, &fakeLLM{}, logr.Discard())
	ctx := testContext(pipeline.Event{Repository: "acme/shop", Ref: "refs/heads/main", Commit: "abc"})

	_, err := agent.Run(ctx)
	require.Error(t, err)
}

func TestParseResponseCountsIssues(t *testing.T) {
	response := "ISSUE:\nSEVERITY: major\nDESCRIPTION: a\nISSUE:\nSEVERITY: minor\nDESCRIPTION: b\n"
	report := parseResponse(response)
	assert.Equal(t, 2, report.Issues)
	assert.Equal(t, 0, report.Critical)
	assert.Equal(t, VerdictIssues, report.Verdict)
}
