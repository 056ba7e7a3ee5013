package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/pipewright/internal/config"
	"github.com/imamik/pipewright/internal/k8s"
	"github.com/imamik/pipewright/internal/pipeline"
)

type fakeChecker struct {
	waitErr    error
	health     k8s.PodHealth
	healthErr  error
	namespaces []string
	selectors  []string
	waited     []time.Duration
}

func (f *fakeChecker) WaitForPodsReady(ctx context.Context, namespace, selector string, timeout time.Duration) error {
	f.namespaces = append(f.namespaces, namespace)
	f.selectors = append(f.selectors, selector)
	f.waited = append(f.waited, timeout)
	if f.waitErr != nil {
		return f.waitErr
	}
	if ctx.Err() != nil {
		return fmt.Errorf("watch aborted: %w", ctx.Err())
	}
	return nil
}

func (f *fakeChecker) CheckPodHealth(context.Context, string, string) (k8s.PodHealth, error) {
	if f.healthErr != nil {
		return k8s.PodHealth{}, f.healthErr
	}
	return f.health, nil
}

func testContext(window time.Duration) *pipeline.Context {
	cfg := &config.Config{}
	cfg.Monitor.Selector = "app=shop"
	timeouts := &config.Timeouts{MonitorWindow: window}
	event := pipeline.Event{Repository: "acme/shop", Ref: "r", Commit: "c"}
	ctx := pipeline.NewContext(context.Background(), event, cfg, timeouts, pipeline.NopObserver{})
	ctx.State.Namespace = "apps"
	return ctx
}

func TestRunHealthy(t *testing.T) {
	checker := &fakeChecker{health: k8s.PodHealth{Total: 2, Ready: 2}}
	agent := New(checker, logr.Discard())

	out, err := agent.Run(testContext(time.Minute))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"healthy":true`)
	assert.Contains(t, string(out), `"pods":2`)
	assert.Equal(t, []string{"apps"}, checker.namespaces)
	assert.Equal(t, []string{"app=shop"}, checker.selectors)
	assert.Equal(t, []time.Duration{time.Minute}, checker.waited)
}

func TestRunWindowCloses(t *testing.T) {
	checker := &fakeChecker{
		waitErr: errors.New("pods not ready: timed out"),
		health:  k8s.PodHealth{Total: 2, Ready: 1, Restarts: 4},
	}
	agent := New(checker, logr.Discard())

	out, err := agent.Run(testContext(30 * time.Second))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1/2 pods ready")
	assert.Contains(t, string(out), `"restarts":4`)
	assert.Contains(t, string(out), `"healthy":false`)
}

func TestRunNoPodsFails(t *testing.T) {
	checker := &fakeChecker{waitErr: errors.New("pods not ready: timed out")}
	agent := New(checker, logr.Discard())

	_, err := agent.Run(testContext(30 * time.Second))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0/0 pods ready")
}

func TestRunFinalSampleErrorTolerated(t *testing.T) {
	checker := &fakeChecker{healthErr: errors.New("apiserver hiccup")}
	agent := New(checker, logr.Discard())

	out, err := agent.Run(testContext(time.Minute))
	require.NoError(t, err, "a failed summary sample must not fail a healthy app")
	assert.Contains(t, string(out), `"healthy":true`)
}

func TestRunContextCancelled(t *testing.T) {
	pctx := testContext(time.Minute)
	cancelCtx, cancel := context.WithCancel(pctx.Context)
	cancel()
	pctx.Context = cancelCtx

	agent := New(&fakeChecker{}, logr.Discard())

	_, err := agent.Run(pctx)
	require.ErrorIs(t, err, context.Canceled)
}
