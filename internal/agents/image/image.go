// Package image implements the container build stage. It builds the
// repository's Dockerfile from the clone URL, pushes the image tagged with
// the commit, and verifies the manifest landed in the registry.
package image

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/pipewright/internal/pipeline"
	"github.com/imamik/pipewright/internal/platform/registry"
)

// Report is the stage output stored on the run.
type Report struct {
	ImageRef string `json:"image_ref"`
	Digest   string `json:"digest"`
	Context  string `json:"context"`
	Verified bool   `json:"verified"`
}

// Agent is the image build pipeline stage.
type Agent struct {
	builder  registry.Builder
	verifier registry.Verifier
	log      logr.Logger
}

// New creates an image agent.
func New(builder registry.Builder, verifier registry.Verifier, log logr.Logger) *Agent {
	return &Agent{builder: builder, verifier: verifier, log: log}
}

// Name implements pipeline.Stage.
func (a *Agent) Name() string { return "image" }

// Run builds, pushes and verifies the image for the event's commit.
func (a *Agent) Run(ctx *pipeline.Context) (json.RawMessage, error) {
	tag := imageTag(ctx)
	contextURL := buildContext(ctx.Event)

	pushed, err := a.builder.BuildAndPush(ctx, registry.BuildRequest{
		ContextURL: contextURL,
		Dockerfile: ctx.Config.Registry.Dockerfile,
		Tag:        tag,
	})
	if err != nil {
		return nil, fmt.Errorf("image build failed for %s: %w", tag, err)
	}

	digest, err := a.verifier.ResolveDigest(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("image verification failed for %s: %w", tag, err)
	}
	if pushed != "" && pushed != digest {
		return nil, fmt.Errorf("digest mismatch for %s: pushed %s, registry has %s", tag, pushed, digest)
	}

	ctx.State.ImageRef = tag
	ctx.State.ImageDigest = digest

	report := Report{ImageRef: tag, Digest: digest, Context: contextURL, Verified: true}
	out, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image report: %w", err)
	}
	return out, nil
}

// imageTag builds the full reference registry/repository:shortcommit.
func imageTag(ctx *pipeline.Context) string {
	repository := ctx.Config.Registry.Repository
	if repository == "" {
		repository = ctx.Event.Repository
	}
	return fmt.Sprintf("%s/%s:%s", ctx.Config.Registry.URL, repository, ctx.Event.ShortCommit())
}

// buildContext appends the branch fragment the daemon's remote-context
// build expects.
func buildContext(event pipeline.Event) string {
	branch := strings.TrimPrefix(event.Ref, "refs/heads/")
	if branch == "" || strings.HasPrefix(branch, "refs/") {
		return event.CloneURL
	}
	return event.CloneURL + "#" + branch
}
