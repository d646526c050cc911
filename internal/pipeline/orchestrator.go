package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/ytmux/internal/compress"
	"github.com/ytget/ytmux/internal/download"
	"github.com/ytget/ytmux/internal/media"
	"github.com/ytget/ytmux/internal/metrics"
	"github.com/ytget/ytmux/internal/model"
	"github.com/ytget/ytmux/internal/platform"
)

const (
	// RunIDPrefix is prepended to generated run IDs
	RunIDPrefix = "run-"

	tempVideoSuffix = ".video.tmp"
	tempAudioSuffix = ".audio.tmp"
)

// Request describes one run over a URL
type Request struct {
	URL            string
	DestinationDir string
	Mode           model.Mode
	WantCaptions   bool
	LanguageCode   string // defaults to media.DefaultCaptionLanguage
}

// Validate checks the request before any work starts
func (r Request) Validate() error {
	if r.URL == "" {
		return errors.New("url is required")
	}
	if r.DestinationDir == "" {
		return errors.New("destination directory is required")
	}
	return r.Mode.Validate()
}

// Orchestrator sequences resolver, selector, fetcher, caption extractor and muxer
type Orchestrator struct {
	resolver Resolver
	items    ItemSource
	fetcher  download.Fetcher
	captions CaptionExtractor
	muxer    compress.Muxer
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// New creates an orchestrator over its collaborators
func New(resolver Resolver, items ItemSource, fetcher download.Fetcher, captions CaptionExtractor, muxer compress.Muxer, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		resolver: resolver,
		items:    items,
		fetcher:  fetcher,
		captions: captions,
		muxer:    muxer,
		log:      log,
	}
}

// SetMetrics enables run metrics; nil disables them
func (o *Orchestrator) SetMetrics(m *metrics.Metrics) {
	o.metrics = m
}

// StartRun executes req on a background goroutine. Status messages and
// progress fractions are delivered through onStatus and onProgress from that
// goroutine. The returned channel yields the per-item outcomes once and is
// then closed.
func (o *Orchestrator) StartRun(ctx context.Context, req Request, onStatus func(string), onProgress func(float64)) <-chan *model.Collection {
	done := make(chan *model.Collection, 1)
	go func() {
		defer close(done)
		done <- o.Run(ctx, req, func(ev model.ProgressEvent) {
			if ev.IsStatus() {
				if onStatus != nil {
					onStatus(ev.Status)
				}
				return
			}
			if onProgress != nil {
				onProgress(ev.Fraction)
			}
		})
	}()
	return done
}

// Run executes req and blocks until every item has reached Done or Failed.
// Errors never escape: each one is reported as a status message and recorded
// on the returned collection.
func (o *Orchestrator) Run(ctx context.Context, req Request, onEvent EventFunc) *model.Collection {
	if req.LanguageCode == "" {
		req.LanguageCode = media.DefaultCaptionLanguage
	}

	emit := newEmitter(onEvent)
	collection := model.NewCollection(req.URL)
	collection.IsCollection = platform.IsCollectionURL(req.URL)

	fail := func(err error) *model.Collection {
		o.log.Error("run failed", slog.String("url", req.URL), slog.String("error", err.Error()))
		collection.Error = err.Error()
		collection.UpdateStatus(model.CollectionStatusError)
		emit.status("", model.RunStateFailed, failedMessage(err))
		return collection
	}

	if err := req.Validate(); err != nil {
		return fail(err)
	}
	if err := platform.CreateDirectoryIfNotExists(req.DestinationDir); err != nil {
		return fail(fmt.Errorf("failed to create destination directory: %w", err))
	}

	itemURLs, err := o.resolver.Resolve(ctx, req.URL)
	if err != nil {
		return fail(err)
	}
	for _, itemURL := range itemURLs {
		collection.AddItem(itemURL)
	}
	collection.UpdateStatus(model.CollectionStatusDownloading)

	o.log.Info("run started",
		slog.String("url", req.URL),
		slog.Int("items", len(itemURLs)),
		slog.String("mode", req.Mode.String()),
		slog.Bool("captions", req.WantCaptions),
	)

	if collection.IsCollection && len(itemURLs) == 0 {
		emit.status("", model.RunStateDone, MsgPlaylistEmpty)
	}

	names := &outputNames{}
	for i, item := range collection.Items {
		resolving := fmt.Sprintf(msgResolvingItem, item.URL)
		if collection.IsCollection {
			resolving = fmt.Sprintf(msgResolvingPlaylist, i+1, len(collection.Items), item.URL)
		}
		run := o.runItem(ctx, req, item.URL, resolving, names, emit)
		collection.Record(item, run)
	}

	collection.UpdateStatus(model.CollectionStatusDone)
	if collection.IsCollection {
		if failed := len(collection.GetFailedItems()); failed > 0 {
			emit.status("", model.RunStateDone, fmt.Sprintf(msgPlaylistWithFailure, failed, len(collection.Items)))
		} else {
			emit.status("", model.RunStateDone, MsgPlaylistComplete)
		}
	}

	o.log.Info("run finished",
		slog.String("url", req.URL),
		slog.Int("done", len(collection.GetCompletedItems())),
		slog.Int("failed", len(collection.GetFailedItems())),
	)
	return collection
}

// runItem walks one item through the state machine. Every transition emits one
// status message. Temp files are removed before it returns.
func (o *Orchestrator) runItem(ctx context.Context, req Request, itemURL, resolvingMsg string, names *outputNames, emit *emitter) *model.PipelineRun {
	run := model.NewPipelineRun(generateRunID(), itemURL)
	o.metrics.RunStarted()
	defer o.metrics.RunFinished()
	defer o.items.Forget(itemURL)

	emit.status(itemURL, run.State, resolvingMsg)

	if err := o.execute(ctx, req, run, names, emit); err != nil {
		run.Fail(err)
		o.cleanupFailed(run)
		o.log.Warn("item failed",
			slog.String("run", run.ID),
			slog.String("url", itemURL),
			slog.String("error", err.Error()),
		)
		emit.status(itemURL, run.State, failedMessage(err))
		o.metrics.ItemFinished(metrics.ResultFailed)
		return run
	}

	o.cleanupTemp(run)
	o.log.Info("item done",
		slog.String("run", run.ID),
		slog.String("output", run.OutputPath),
		slog.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)
	o.metrics.ItemFinished(metrics.ResultDone)
	return run
}

func (o *Orchestrator) execute(ctx context.Context, req Request, run *model.PipelineRun, names *outputNames, emit *emitter) error {
	advance := func(next model.RunState) error {
		if err := run.Transition(next); err != nil {
			return err
		}
		emit.status(run.ItemURL, next, enterMessage(next, req, run))
		return nil
	}

	// Resolving
	item, err := o.items.Item(ctx, run.ItemURL)
	if err != nil {
		return &platform.ResolutionError{URL: run.ItemURL, Err: err}
	}
	run.Title = item.Title

	stem := names.reserve(platform.FileStem(item.Title))
	ext := compress.OutputExtensionMP4
	if req.Mode.AudioOnly {
		ext = compress.OutputExtensionMP3
	}
	finalPath := filepath.Join(req.DestinationDir, stem+ext)

	// Selecting
	if err := advance(model.RunStateSelecting); err != nil {
		return err
	}
	selected, err := media.Select(item, req.Mode)
	if err != nil {
		return err
	}
	run.Selected = selected

	// Fetching
	if err := advance(model.RunStateFetching); err != nil {
		return err
	}
	progress := emit.progress(run.ItemURL)

	var videoPath, audioPath string
	if req.Mode.AudioOnly {
		audio := o.newTask(req, run, selected[0], tempAudioSuffix)
		if audioPath, err = o.fetcher.Fetch(ctx, audio, progress); err != nil {
			return err
		}
	} else {
		video := o.newTask(req, run, selected[0], tempVideoSuffix)
		audio := o.newTask(req, run, selected[1], tempAudioSuffix)
		if videoPath, audioPath, err = o.fetcher.FetchPair(ctx, video, audio, progress); err != nil {
			return err
		}
	}

	// Captioning
	if err := advance(model.RunStateCaptioning); err != nil {
		return err
	}
	if req.WantCaptions {
		o.extractCaptions(ctx, req, run, item, filepath.Join(req.DestinationDir, stem+media.SRTExtension), emit)
	}

	// Muxing
	if err := advance(model.RunStateMuxing); err != nil {
		return err
	}
	if req.Mode.AudioOnly {
		err = o.muxer.TranscodeAudio(ctx, audioPath, finalPath)
	} else {
		err = o.muxer.Mux(ctx, videoPath, audioPath, finalPath)
	}
	if err != nil {
		return err
	}
	run.OutputPath = finalPath

	return advance(model.RunStateDone)
}

// extractCaptions never fails the run; a missing track is reported as a status
func (o *Orchestrator) extractCaptions(ctx context.Context, req Request, run *model.PipelineRun, item *model.SourceItem, dest string, emit *emitter) {
	path, err := o.captions.Extract(ctx, item, req.LanguageCode, dest)
	if err != nil {
		if !errors.Is(err, media.ErrCaptionUnavailable) {
			o.log.Warn("caption extraction failed",
				slog.String("run", run.ID),
				slog.String("language", req.LanguageCode),
				slog.String("error", err.Error()),
			)
		}
		emit.status(run.ItemURL, run.State, MsgCaptionsNotFound)
		return
	}
	run.CaptionPath = path
	emit.status(run.ItemURL, run.State, MsgCaptionsDownloaded)
}

// newTask creates a download task writing to a run-scoped temp file and registers it for cleanup
func (o *Orchestrator) newTask(req Request, run *model.PipelineRun, d model.StreamDescriptor, suffix string) *model.DownloadTask {
	dest := filepath.Join(req.DestinationDir, run.ID+suffix)
	run.AddTempFile(dest)
	return model.NewDownloadTask(download.GenerateTaskID(), run.ItemURL, d, dest)
}

func (o *Orchestrator) cleanupTemp(run *model.PipelineRun) {
	if err := platform.RemoveFiles(run.TempFiles...); err != nil {
		o.log.Warn("failed to remove temp files", slog.String("run", run.ID), slog.String("error", err.Error()))
	}
}

// cleanupFailed removes everything the run produced. The muxer already
// removes its own partial output and never touches the final path on failure.
func (o *Orchestrator) cleanupFailed(run *model.PipelineRun) {
	o.cleanupTemp(run)
	if run.CaptionPath != "" {
		if err := platform.RemoveFiles(run.CaptionPath); err != nil {
			o.log.Warn("failed to remove caption file", slog.String("run", run.ID), slog.String("error", err.Error()))
		}
		run.CaptionPath = ""
	}
}

// outputNames hands out file stems that are unique within one run, so items
// with equal titles never share an output or caption path
type outputNames struct {
	used map[string]bool
}

// reserve returns stem, or "stem (N)" with the lowest free N starting at 2.
// Names are compared case-insensitively.
func (n *outputNames) reserve(stem string) string {
	if n.used == nil {
		n.used = make(map[string]bool)
	}
	candidate := stem
	for i := 2; ; i++ {
		key := strings.ToLower(candidate)
		if !n.used[key] {
			n.used[key] = true
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)", stem, i)
	}
}

// generateRunID generates a unique run ID using UUID v7 for time ordering
func generateRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(RunIDPrefix+"%d", time.Now().UnixNano())
	}
	return RunIDPrefix + id.String()
}

// emitter serializes callback invocations and keeps per-item progress monotone
type emitter struct {
	mu      sync.Mutex
	onEvent EventFunc
}

func newEmitter(onEvent EventFunc) *emitter {
	return &emitter{onEvent: onEvent}
}

func (e *emitter) send(ev model.ProgressEvent) {
	if e.onEvent == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEvent(ev)
}

func (e *emitter) status(itemURL string, state model.RunState, msg string) {
	e.send(model.ProgressEvent{ItemURL: itemURL, Status: msg, State: state})
}

// progress returns a byte progress callback for one item. Fractions never
// decrease, and an unknown total is reported once as a status message.
func (e *emitter) progress(itemURL string) download.ProgressFunc {
	var mu sync.Mutex
	last := 0.0
	reportedUnknown := false

	return func(received, total int64) {
		mu.Lock()
		defer mu.Unlock()

		fraction, ok := model.ComputeFraction(received, total)
		if !ok {
			if !reportedUnknown {
				reportedUnknown = true
				e.status(itemURL, model.RunStateFetching, MsgSizeUnknown)
			}
			return
		}
		if fraction < last {
			return
		}
		last = fraction
		e.send(model.ProgressEvent{
			ItemURL:     itemURL,
			Fraction:    fraction,
			HasFraction: true,
			State:       model.RunStateFetching,
		})
	}
}
