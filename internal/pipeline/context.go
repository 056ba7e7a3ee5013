package pipeline

import (
	"context"

	"github.com/imamik/pipewright/internal/config"
)

// State holds the shared results of pipeline stages. It is progressively
// populated as each stage completes and is read by subsequent stages.
type State struct {
	// Review results
	ReviewVerdict string
	ReviewIssues  int

	// Prediction results
	BuildLikelihood float64

	// Image results
	ImageRef    string
	ImageDigest string

	// Provisioning results
	ClusterName  string
	ClusterReady bool

	// Deployment results
	DeployedRelease string
	Namespace       string
}

// Context wraps all per-run data a stage needs.
type Context struct {
	context.Context
	Event    Event
	Config   *config.Config
	Timeouts *config.Timeouts
	State    *State
	Observer Observer
}

// NewContext creates a pipeline context for one run.
func NewContext(ctx context.Context, event Event, cfg *config.Config, timeouts *config.Timeouts, observer Observer) *Context {
	return &Context{
		Context:  ctx,
		Event:    event,
		Config:   cfg,
		Timeouts: timeouts,
		State:    &State{},
		Observer: observer,
	}
}
