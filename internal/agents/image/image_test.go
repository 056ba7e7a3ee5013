package image

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/pipewright/internal/config"
	"github.com/imamik/pipewright/internal/pipeline"
	"github.com/imamik/pipewright/internal/platform/registry"
)

type fakeBuilder struct {
	digest string
	err    error
	req    registry.BuildRequest
}

func (f *fakeBuilder) BuildAndPush(_ context.Context, req registry.BuildRequest) (string, error) {
	f.req = req
	return f.digest, f.err
}

type fakeVerifier struct {
	digest string
	err    error
}

func (f *fakeVerifier) ResolveDigest(context.Context, string) (string, error) {
	return f.digest, f.err
}

func testContext(event pipeline.Event) *pipeline.Context {
	cfg := &config.Config{}
	cfg.Registry.URL = "registry.example.com"
	cfg.Registry.Repository = "acme/shop"
	return pipeline.NewContext(context.Background(), event, cfg, &config.Timeouts{}, pipeline.NopObserver{})
}

func TestRunBuildsAndVerifies(t *testing.T) {
	builder := &fakeBuilder{digest: "sha256:aa"}
	agent := New(builder, &fakeVerifier{digest: "sha256:aa"}, logr.Discard())
	ctx := testContext(pipeline.Event{
		Repository: "acme/shop",
		CloneURL:   "https://github.com/acme/shop.git",
		Ref:        "refs/heads/main",
		Commit:     "abcdef1234567890abcdef",
	})

	out, err := agent.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, "registry.example.com/acme/shop:abcdef123456", builder.req.Tag)
	assert.Equal(t, "https://github.com/acme/shop.git#main", builder.req.ContextURL)
	assert.Equal(t, "registry.example.com/acme/shop:abcdef123456", ctx.State.ImageRef)
	assert.Equal(t, "sha256:aa", ctx.State.ImageDigest)
	assert.Contains(t, string(out), `"verified":true`)
}

func TestRunDigestMismatch(t *testing.T) {
	agent := New(&fakeBuilder{digest: "sha256:aa"}, &fakeVerifier{digest: "sha256:bb"}, logr.Discard())
	ctx := testContext(pipeline.Event{Repository: "acme/shop", CloneURL: "u", Ref: "refs/heads/main", Commit: "abc"})

	_, err := agent.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestRunEmptyPushedDigestAccepted(t *testing.T) {
	// Daemons that do not report an aux digest leave it to verification.
	agent := New(&fakeBuilder{digest: ""}, &fakeVerifier{digest: "sha256:cc"}, logr.Discard())
	ctx := testContext(pipeline.Event{Repository: "acme/shop", CloneURL: "u", Ref: "refs/heads/main", Commit: "abc"})

	_, err := agent.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sha256:cc", ctx.State.ImageDigest)
}

func TestRunBuildFailure(t *testing.T) {
	agent := New(&fakeBuilder{err: errors.New("daemon down")}, &fakeVerifier{}, logr.Discard())
	ctx := testContext(pipeline.Event{Repository: "acme/shop", CloneURL: "u", Ref: "refs/heads/main", Commit: "abc"})

	_, err := agent.Run(ctx)
	require.Error(t, err)
}

func TestBuildContext(t *testing.T) {
	assert.Equal(t, "https://x.git#main", buildContext(pipeline.Event{CloneURL: "https://x.git", Ref: "refs/heads/main"}))
	assert.Equal(t, "https://x.git#feat/y", buildContext(pipeline.Event{CloneURL: "https://x.git", Ref: "refs/heads/feat/y"}))
	assert.Equal(t, "https://x.git", buildContext(pipeline.Event{CloneURL: "https://x.git", Ref: "refs/tags/v1"}))
}
