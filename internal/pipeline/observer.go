package pipeline

import (
	"github.com/go-logr/logr"
)

// Observer receives progress notifications while a run executes.
type Observer interface {
	// StageStarted is called before a stage runs.
	StageStarted(run, stage string)
	// StageCompleted is called after a stage succeeds.
	StageCompleted(run, stage string, output []byte)
	// StageFailed is called after a stage fails.
	StageFailed(run, stage string, err error)
}

// LogObserver reports stage progress through a logr.Logger.
type LogObserver struct {
	log logr.Logger
}

// NewLogObserver creates a LogObserver.
func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) StageStarted(run, stage string) {
	o.log.Info("stage started", "run", run, "stage", stage)
}

func (o *LogObserver) StageCompleted(run, stage string, output []byte) {
	o.log.Info("stage completed", "run", run, "stage", stage, "outputBytes", len(output))
}

func (o *LogObserver) StageFailed(run, stage string, err error) {
	o.log.Error(err, "stage failed", "run", run, "stage", stage)
}

// NopObserver discards all notifications.
type NopObserver struct{}

func (NopObserver) StageStarted(string, string)           {}
func (NopObserver) StageCompleted(string, string, []byte) {}
func (NopObserver) StageFailed(string, string, error)     {}
