package predict

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
}

func (f *fakeSCM) ChangedFiles(context.Context, string, string, string) ([]scm.ChangedFile, error) {
	return f.files, f.filesErr
}

func (f *fakeSCM) PostComment(context.Context, string, string, int, string) error { return nil }

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

func TestRunParsesLikelihood(t *testing.T) {
	agent := New(&fakeSCM{}, &fakeLLM{response: "LIKELIHOOD: 85\nlarge diff in build files"}, logr.Discard())
	ctx := testContext(pipeline.Event{Repository: "acme/shop", Ref: "r", Commit: "c"})

	out, err := agent.Run(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, ctx.State.BuildLikelihood, 1e-9)
	assert.Contains(t, string(out), "large diff in build files")
}

func TestRunNeverFails(t *testing.T) {
	cases := map[string]struct {
		scm *fakeSCM
		llm *fakeLLM
	}{
		"scm error":    {&fakeSCM{filesErr: errors.New("down")}, &fakeLLM{response: "LIKELIHOOD: 50"}},
		"llm error":    {&fakeSCM{}, &fakeLLM{err: errors.New("down")}},
		"bad response": {&fakeSCM{}, &fakeLLM{response: "no idea"}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			agent := New(tc.scm, tc.llm, logr.Discard())
			ctx := testContext(pipeline.Event{Repository: "acme/shop", Ref: "r", Commit: "c"})

			out, err := agent.Run(ctx)
			require.NoError(t, err)
			assert.Contains(t, string(out), `"skipped":true`)
			assert.Equal(t, float64(-1), ctx.State.BuildLikelihood)
		})
	}
}

func TestParseResponseRejectsOutOfRange(t *testing.T) {
	_, err := parseResponse("LIKELIHOOD: 130")
	require.Error(t, err)

	_, err = parseResponse("LIKELIHOOD: abc")
	require.Error(t, err)
}

func TestParseResponseRiskFactors(t *testing.T) {
	report, err := parseResponse("LIKELIHOOD: 40\nrefactors core loop\ntouches CI config")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, report.Likelihood, 1e-9)
	assert.Equal(t, []string{"refactors core loop", "touches CI config"}, report.RiskFactors)
}
