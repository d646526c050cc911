package model

import (
	"fmt"
	"time"
)

// PipelineRun is the unit of work for one item
type PipelineRun struct {
	ID          string
	ItemURL     string
	Title       string
	State       RunState
	Selected    []StreamDescriptor
	TempFiles   []string // intermediate files owned by this run
	CaptionPath string
	OutputPath  string
	LastError   string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewPipelineRun creates a run in the Resolving state
func NewPipelineRun(id, itemURL string) *PipelineRun {
	return &PipelineRun{
		ID:        id,
		ItemURL:   itemURL,
		State:     RunStateResolving,
		StartedAt: time.Now(),
	}
}

// Transition moves the run to next, enforcing the strict sequence
func (r *PipelineRun) Transition(next RunState) error {
	if !r.State.CanTransition(next) {
		return fmt.Errorf("invalid run transition %s -> %s", r.State, next)
	}
	r.State = next
	if next.IsTerminal() {
		r.FinishedAt = time.Now()
	}
	return nil
}

// Fail moves the run to Failed and records err
func (r *PipelineRun) Fail(err error) {
	if r.State.IsTerminal() {
		return
	}
	r.State = RunStateFailed
	if err != nil {
		r.LastError = err.Error()
	}
	r.FinishedAt = time.Now()
}

// AddTempFile registers an intermediate file for cleanup
func (r *PipelineRun) AddTempFile(path string) {
	r.TempFiles = append(r.TempFiles, path)
}

// GetDisplayTitle returns the title, or the item URL if the title is not known yet
func (r *PipelineRun) GetDisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.ItemURL
}
