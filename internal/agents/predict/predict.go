// Package predict implements the build prediction stage. It asks the LLM
// how likely the pushed commit is to build cleanly. The stage is advisory:
// it records its estimate and never fails the run.
package predict

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/pipewright/internal/pipeline"
	"github.com/imamik/pipewright/internal/platform/llm"
	"github.com/imamik/pipewright/internal/platform/scm"
)

const systemPrompt = `You are a build-outcome predictor for a CI system.

Given the diff statistics of a commit, estimate how likely the project is to
compile and pass its tests after this change.

Your response MUST start with:
LIKELIHOOD: <integer 0-100>

followed by at most three short risk factors, one per line.`

// Report is the stage output stored on the run.
type Report struct {
	// Likelihood is the predicted build success probability in [0, 1].
	// -1 when no prediction was obtained.
	Likelihood  float64  `json:"likelihood"`
	RiskFactors []string `json:"risk_factors,omitempty"`
	// Skipped is set when the prediction could not be made; the stage
	// still succeeds.
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Agent is the build prediction pipeline stage.
type Agent struct {
	scm scm.Client
	llm llm.Client
	log logr.Logger
}

// New creates a predict agent.
func New(scmClient scm.Client, llmClient llm.Client, log logr.Logger) *Agent {
	return &Agent{scm: scmClient, llm: llmClient, log: log}
}

// Name implements pipeline.Stage.
func (a *Agent) Name() string { return "predict" }

// Run records a build-likelihood estimate. Failures downgrade to a skipped
// report instead of failing the run.
func (a *Agent) Run(ctx *pipeline.Context) (json.RawMessage, error) {
	report := a.predict(ctx)
	ctx.State.BuildLikelihood = report.Likelihood

	out, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction report: %w", err)
	}
	return out, nil
}

func (a *Agent) predict(ctx *pipeline.Context) Report {
	owner, repo, ok := strings.Cut(ctx.Event.Repository, "/")
	if !ok {
		return skipped(fmt.Sprintf("invalid repository %q", ctx.Event.Repository))
	}

	files, err := a.scm.ChangedFiles(ctx, owner, repo, ctx.Event.Commit)
	if err != nil {
		a.log.Error(err, "prediction skipped, change set unavailable")
		return skipped("change set unavailable")
	}

	response, err := a.llm.Complete(ctx, systemPrompt, diffStats(files))
	if err != nil {
		a.log.Error(err, "prediction skipped, completion failed")
		return skipped("completion failed")
	}

	report, err := parseResponse(response)
	if err != nil {
		a.log.Error(err, "prediction skipped, unparseable response")
		return skipped("unparseable response")
	}
	return report
}

func skipped(reason string) Report {
	return Report{Likelihood: -1, Skipped: true, Reason: reason}
}

func diffStats(files []scm.ChangedFile) string {
	var additions, deletions int
	var b strings.Builder
	for _, f := range files {
		additions += f.Additions
		deletions += f.Deletions
		fmt.Fprintf(&b, "%s (%s, +%d -%d)\n", f.Path, f.Status, f.Additions, f.Deletions)
	}
	return fmt.Sprintf("Files changed: %d, additions: %d, deletions: %d\n\n%s", len(files), additions, deletions, b.String())
}

// parseResponse extracts the likelihood and risk factors.
func parseResponse(response string) (Report, error) {
	lines := strings.Split(strings.TrimSpace(response), "\n")
	if len(lines) == 0 {
		return Report{}, fmt.Errorf("empty response")
	}

	report := Report{Likelihood: -1}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if after, found := strings.CutPrefix(line, "LIKELIHOOD:"); found {
			pct, err := strconv.Atoi(strings.TrimSpace(after))
			if err != nil || pct < 0 || pct > 100 {
				return Report{}, fmt.Errorf("invalid likelihood %q", after)
			}
			report.Likelihood = float64(pct) / 100
			for _, factor := range lines[i+1:] {
				if factor = strings.TrimSpace(factor); factor != "" {
					report.RiskFactors = append(report.RiskFactors, factor)
				}
			}
			return report, nil
		}
	}
	return Report{}, fmt.Errorf("no LIKELIHOOD line in response")
}
