package model

import (
	"time"
)

// CollectionStatus represents the current status of a whole run over one URL
type CollectionStatus string

const (
	CollectionStatusResolving   CollectionStatus = "resolving"
	CollectionStatusDownloading CollectionStatus = "downloading"
	CollectionStatusDone        CollectionStatus = "done"
	CollectionStatusError       CollectionStatus = "error"
)

// CollectionItem is the outcome of one item's pipeline run
type CollectionItem struct {
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	State       RunState  `json:"state"`
	OutputPath  string    `json:"output_path,omitempty"`
	CaptionPath string    `json:"caption_path,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Collection is the per-item status stream of one run.
// A single-item URL is a collection of length one.
type Collection struct {
	URL          string            `json:"url"`
	IsCollection bool              `json:"is_collection"`
	Items        []*CollectionItem `json:"items"`
	Status       CollectionStatus  `json:"status"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewCollection creates a new collection in the resolving status
func NewCollection(url string) *Collection {
	now := time.Now()
	return &Collection{
		URL:       url,
		Status:    CollectionStatusResolving,
		Items:     make([]*CollectionItem, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItem appends an item URL in enumeration order
func (c *Collection) AddItem(url string) *CollectionItem {
	now := time.Now()
	item := &CollectionItem{
		URL:       url,
		State:     RunStateResolving,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = now
	return item
}

// UpdateStatus updates the collection status
func (c *Collection) UpdateStatus(status CollectionStatus) {
	c.Status = status
	c.UpdatedAt = time.Now()
}

// Record copies the outcome of run into item
func (c *Collection) Record(item *CollectionItem, run *PipelineRun) {
	item.Title = run.Title
	item.State = run.State
	item.OutputPath = run.OutputPath
	item.CaptionPath = run.CaptionPath
	item.Error = run.LastError
	item.UpdatedAt = time.Now()
	c.UpdatedAt = item.UpdatedAt
}

// GetCompletedItems returns all items that reached Done
func (c *Collection) GetCompletedItems() []*CollectionItem {
	var completed []*CollectionItem
	for _, item := range c.Items {
		if item.State == RunStateDone {
			completed = append(completed, item)
		}
	}
	return completed
}

// GetFailedItems returns all items that ended in Failed
func (c *Collection) GetFailedItems() []*CollectionItem {
	var failed []*CollectionItem
	for _, item := range c.Items {
		if item.State == RunStateFailed {
			failed = append(failed, item)
		}
	}
	return failed
}

// HasErrors checks if the run itself or any item failed
func (c *Collection) HasErrors() bool {
	return c.Status == CollectionStatusError || len(c.GetFailedItems()) > 0
}
