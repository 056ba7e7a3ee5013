// Package review implements the code review stage. It fetches the change
// set from the SCM, asks the LLM for a verdict, and optionally posts the
// result back to the pull request.
package review

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/pipewright/internal/pipeline"
	"github.com/imamik/pipewright/internal/platform/llm"
	"github.com/imamik/pipewright/internal/platform/scm"
)

const systemPrompt = `You are a senior software engineer acting as an automated code reviewer.

Review the diff for:
- Correctness: does the change do what the commit describes?
- Security: injection, path traversal, secrets in code.
- Error handling: are errors handled and propagated?
- Edge cases: boundary conditions.

Your response MUST end with EITHER:

1. If approved (no issues found):
APPROVED: Brief explanation of why the changes look good.

2. If issues found, list each as a structured block:
ISSUE:
SEVERITY: critical|major|minor
DESCRIPTION: What is wrong and how to fix it.

Only use APPROVED if there are truly no issues.`

// maxPatchBytes caps how much diff text goes into the prompt.
const maxPatchBytes = 16 * 1024

// Verdict values recorded in the run report.
const (
	VerdictApproved = "approved"
	VerdictIssues   = "issues"
	VerdictBlock    = "block"
)

// Report is the stage output stored on the run.
type Report struct {
	Verdict       string `json:"verdict"`
	Issues        int    `json:"issues"`
	Critical      int    `json:"critical"`
	FilesReviewed int    `json:"files_reviewed"`
	CommentPosted bool   `json:"comment_posted"`
}

// Agent is the review pipeline stage.
type Agent struct {
	scm scm.Client
	llm llm.Client
	log logr.Logger
}

// New creates a review agent.
func New(scmClient scm.Client, llmClient llm.Client, log logr.Logger) *Agent {
	return &Agent{scm: scmClient, llm: llmClient, log: log}
}

// Name implements pipeline.Stage.
func (a *Agent) Name() string { return "review" }

// Run reviews the change set. Only a block verdict (critical issue found)
// fails the run.
func (a *Agent) Run(ctx *pipeline.Context) (json.RawMessage, error) {
	owner, repo, ok := strings.Cut(ctx.Event.Repository, "/")
	if !ok {
		return nil, fmt.Errorf("invalid repository %q, want owner/name", ctx.Event.Repository)
	}

	files, err := a.scm.ChangedFiles(ctx, owner, repo, ctx.Event.Commit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch change set: %w", err)
	}

	response, err := a.llm.Complete(ctx, systemPrompt, buildPrompt(ctx.Event, files))
	if err != nil {
		return nil, fmt.Errorf("review completion failed: %w", err)
	}

	report := parseResponse(response)
	report.FilesReviewed = len(files)

	ctx.State.ReviewVerdict = report.Verdict
	ctx.State.ReviewIssues = report.Issues

	if ctx.Event.PullRequest > 0 {
		comment := fmt.Sprintf("Automated review of %s:\n\n%s", ctx.Event.ShortCommit(), response)
		if err := a.scm.PostComment(ctx, owner, repo, ctx.Event.PullRequest, comment); err != nil {
			a.log.Error(err, "failed to post review comment", "pr", ctx.Event.PullRequest)
		} else {
			report.CommentPosted = true
		}
	}

	out, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal review report: %w", err)
	}

	if report.Verdict == VerdictBlock {
		return out, fmt.Errorf("review blocked: %d critical issue(s) found", report.Critical)
	}
	return out, nil
}

// buildPrompt assembles the user prompt from the change set, capping the
// total patch size.
func buildPrompt(event pipeline.Event, files []scm.ChangedFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\nRef: %s\nCommit: %s\n\nChanged files:\n", event.Repository, event.Ref, event.Commit)

	budget := maxPatchBytes
	for _, f := range files {
		fmt.Fprintf(&b, "\n--- %s (%s, +%d -%d)\n", f.Path, f.Status, f.Additions, f.Deletions)
		if f.Patch == "" || budget <= 0 {
			continue
		}
		patch := f.Patch
		if len(patch) > budget {
			patch = patch[:budget] + "\n[truncated]"
		}
		budget -= len(patch)
		b.WriteString(patch)
		b.WriteString("\n")
	}
	return b.String()
}

// parseResponse extracts the verdict and issue counts from the LLM output.
func parseResponse(response string) Report {
	report := Report{Verdict: VerdictIssues}

	approved := false
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "APPROVED"):
			approved = true
		case strings.HasPrefix(line, "ISSUE:"):
			report.Issues++
		case strings.HasPrefix(line, "SEVERITY:"):
			severity := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "SEVERITY:")))
			if severity == "critical" {
				report.Critical++
			}
		}
	}

	switch {
	case report.Critical > 0:
		report.Verdict = VerdictBlock
	case report.Issues == 0 && approved:
		report.Verdict = VerdictApproved
	case report.Issues == 0:
		// No explicit APPROVED and no issues parsed; treat as approved but
		// note nothing was flagged.
		report.Verdict = VerdictApproved
	}
	return report
}
