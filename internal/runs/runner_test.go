package runs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/pipewright/internal/artifacts"
	"github.com/imamik/pipewright/internal/config"
	"github.com/imamik/pipewright/internal/pipeline"
)

type stubStage struct {
	name string
	err  error
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Run(*pipeline.Context) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"ok":true}`), nil
}

type recordingStore struct {
	mu      sync.Mutex
	reports map[string][]byte
	err     error
}

func (s *recordingStore) SaveReport(_ context.Context, runID string, report []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reports == nil {
		s.reports = make(map[string][]byte)
	}
	s.reports[runID] = report
	return s.err
}

func (s *recordingStore) GetReport(_ context.Context, runID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[runID]
	if !ok {
		return nil, artifacts.ErrNoReport
	}
	return report, nil
}

func newRunner(stages []pipeline.Stage, store artifacts.Store) (*Runner, *Registry) {
	registry := NewRegistry(10)
	runner := NewRunner(
		&config.Config{},
		&config.Timeouts{StageTimeout: time.Minute},
		registry,
		stages,
		pipeline.NopObserver{},
		store,
		logr.Discard(),
	)
	return runner, registry
}

func TestExecuteSuccess(t *testing.T) {
	store := &recordingStore{}
	runner, registry := newRunner([]pipeline.Stage{
		&stubStage{name: "review"},
		&stubStage{name: "image"},
	}, store)

	run := registry.Create(event("acme/shop"))
	runner.Execute(context.Background(), run.ID)

	got := registry.Get(run.ID)
	assert.Equal(t, StatusSucceeded, got.Status)
	require.Len(t, got.Stages, 2)
	assert.Equal(t, StatusSucceeded, got.Stages[0].Status)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Contains(t, store.reports, run.ID)
}

func TestExecuteStopsAtFailure(t *testing.T) {
	runner, registry := newRunner([]pipeline.Stage{
		&stubStage{name: "review"},
		&stubStage{name: "image", err: errors.New("build broke")},
		&stubStage{name: "deploy"},
	}, artifacts.NopStore{})

	run := registry.Create(event("acme/shop"))
	runner.Execute(context.Background(), run.ID)

	got := registry.Get(run.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "build broke")
	require.Len(t, got.Stages, 2, "stages after the failure must not run")
	assert.Equal(t, StatusFailed, got.Stages[1].Status)
}

func TestExecuteUnknownRun(t *testing.T) {
	runner, _ := newRunner(nil, artifacts.NopStore{})
	runner.Execute(context.Background(), "missing")
}

func TestLaunchRunsAsynchronously(t *testing.T) {
	runner, registry := newRunner([]pipeline.Stage{&stubStage{name: "noop"}}, artifacts.NopStore{})

	run := runner.Launch(event("acme/shop"))
	require.NotNil(t, run)

	require.Eventually(t, func() bool {
		got := registry.Get(run.ID)
		return got != nil && got.Status == StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReportFetch(t *testing.T) {
	store := &recordingStore{}
	runner, registry := newRunner([]pipeline.Stage{&stubStage{name: "noop"}}, store)

	run := registry.Create(event("acme/shop"))
	runner.Execute(context.Background(), run.ID)

	report, err := runner.Report(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Contains(t, string(report), run.ID)

	_, err = runner.Report(context.Background(), "missing")
	require.ErrorIs(t, err, artifacts.ErrNoReport)
}

func TestUploadFailureDoesNotFailRun(t *testing.T) {
	store := &recordingStore{err: errors.New("bucket gone")}
	runner, registry := newRunner([]pipeline.Stage{&stubStage{name: "noop"}}, store)

	run := registry.Create(event("acme/shop"))
	runner.Execute(context.Background(), run.ID)

	assert.Equal(t, StatusSucceeded, registry.Get(run.ID).Status)
}
