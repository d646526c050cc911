package model

import (
	"time"
)

// DownloadTask binds a stream descriptor to a local destination and tracks bytes received
type DownloadTask struct {
	ID          string
	ItemURL     string
	Descriptor  StreamDescriptor
	Destination string // local file path
	Received    int64  // bytes written so far
	Total       int64  // expected bytes, 0 if unknown
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewDownloadTask creates a task for descriptor d writing to destination
func NewDownloadTask(id, itemURL string, d StreamDescriptor, destination string) *DownloadTask {
	return &DownloadTask{
		ID:          id,
		ItemURL:     itemURL,
		Descriptor:  d,
		Destination: destination,
		Total:       d.Size,
	}
}

// Fraction returns received/total clamped to [0,1]; ok is false if total is unknown
func (dt *DownloadTask) Fraction() (float64, bool) {
	return ComputeFraction(dt.Received, dt.Total)
}

// ComputeFraction returns received/total clamped to [0,1]; ok is false if total is unknown
func ComputeFraction(received, total int64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	f := float64(received) / float64(total)
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return f, true
}

// ProgressEvent is pushed to the caller; exactly one of Status or Fraction is meaningful
type ProgressEvent struct {
	ItemURL     string
	Fraction    float64 // in [0,1], valid when HasFraction
	HasFraction bool
	Status      string
	State       RunState // state the run was in when the event was emitted
}

// IsStatus reports whether the event carries a status message
func (e ProgressEvent) IsStatus() bool {
	return !e.HasFraction
}
