package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ytget/ytmux/internal/model"
)

const (
	// TaskIDPrefix is prepended to generated task IDs
	TaskIDPrefix = "task-"

	// bufferSize is the copy buffer for one stream
	bufferSize = 256 * 1024

	filePermissions = 0644
)

// DownloadError reports a network or I/O failure while fetching a stream
type DownloadError struct {
	Target string // destination path
	Err    error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for %s: %v", e.Target, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Service handles download operations
type Service struct {
	opener  Opener
	log     *slog.Logger
	limiter *rate.Limiter
	onBytes func(n int) // called for every chunk written, used for metrics
}

// NewService creates a new download service reading streams from opener
func NewService(opener Opener, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		opener: opener,
		log:    log,
	}
}

// SetRateLimit caps the total bandwidth in KiB/s; 0 disables the limit.
// A single limiter is shared by concurrent fetches.
func (s *Service) SetRateLimit(kbps int) {
	if kbps <= 0 {
		s.limiter = nil
		return
	}
	bytesPerSec := kbps * 1024
	s.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
}

// SetBytesCallback sets the callback invoked with every chunk size written
func (s *Service) SetBytesCallback(callback func(n int)) {
	s.onBytes = callback
}

// Fetch streams task's descriptor into task.Destination and returns the path.
// The partial file is removed on failure. No retry is attempted.
func (s *Service) Fetch(ctx context.Context, task *model.DownloadTask, onProgress ProgressFunc) (string, error) {
	task.StartedAt = time.Now()
	defer func() {
		task.FinishedAt = time.Now()
	}()

	body, size, err := s.opener.OpenStream(ctx, task.ItemURL, task.Descriptor)
	if err != nil {
		return "", &DownloadError{Target: task.Destination, Err: err}
	}
	defer body.Close()

	if size > 0 {
		task.Total = size
	}

	s.log.Debug("fetch started",
		slog.String("task", task.ID),
		slog.String("stream", task.Descriptor.String()),
		slog.String("destination", task.Destination),
		slog.Int64("total", task.Total),
	)

	f, err := os.OpenFile(task.Destination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return "", &DownloadError{Target: task.Destination, Err: err}
	}

	// announce the opened size before the first byte arrives
	if onProgress != nil {
		onProgress(0, task.Total)
	}

	if err := s.copy(ctx, f, body, task, onProgress); err != nil {
		f.Close()
		os.Remove(task.Destination)
		return "", &DownloadError{Target: task.Destination, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(task.Destination)
		return "", &DownloadError{Target: task.Destination, Err: err}
	}

	s.log.Debug("fetch finished",
		slog.String("task", task.ID),
		slog.Int64("received", task.Received),
		slog.Duration("elapsed", time.Since(task.StartedAt)),
	)
	return task.Destination, nil
}

// FetchPair downloads video and audio concurrently and returns both paths.
// The call returns once both transfers have ended. A failing transfer does not
// cancel its sibling; the first error encountered is returned.
func (s *Service) FetchPair(ctx context.Context, video, audio *model.DownloadTask, onProgress ProgressFunc) (string, string, error) {
	tracker := newPairTracker(video, audio, onProgress)

	var g errgroup.Group
	var videoPath, audioPath string

	g.Go(func() error {
		path, err := s.Fetch(ctx, video, tracker.update(0))
		videoPath = path
		return err
	})
	g.Go(func() error {
		path, err := s.Fetch(ctx, audio, tracker.update(1))
		audioPath = path
		return err
	})

	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return videoPath, audioPath, nil
}

func (s *Service) copy(ctx context.Context, dst io.Writer, src io.Reader, task *model.DownloadTask, onProgress ProgressFunc) error {
	if s.limiter != nil {
		src = &rateLimitedReader{reader: src, limiter: s.limiter, ctx: ctx}
	}

	buf := make([]byte, bufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			task.Received += int64(n)
			if s.onBytes != nil {
				s.onBytes(n)
			}
			if onProgress != nil {
				onProgress(task.Received, task.Total)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// pairTracker merges the progress of two concurrent tasks into one report.
// Nothing is reported until both streams are open, and the total stays
// unknown if either side does not know its size.
type pairTracker struct {
	mu         sync.Mutex
	received   [2]int64
	totals     [2]int64
	opened     [2]bool
	onProgress ProgressFunc
}

func newPairTracker(video, audio *model.DownloadTask, onProgress ProgressFunc) *pairTracker {
	return &pairTracker{
		totals:     [2]int64{video.Total, audio.Total},
		onProgress: onProgress,
	}
}

func (p *pairTracker) update(side int) ProgressFunc {
	return func(received, total int64) {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.received[side] = received
		p.totals[side] = total
		p.opened[side] = true
		if p.onProgress == nil || !p.opened[0] || !p.opened[1] {
			return
		}

		var combinedTotal int64
		if p.totals[0] > 0 && p.totals[1] > 0 {
			combinedTotal = p.totals[0] + p.totals[1]
		}
		p.onProgress(p.received[0]+p.received[1], combinedTotal)
	}
}

type rateLimitedReader struct {
	reader  io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func (r *rateLimitedReader) Read(p []byte) (int, error) {
	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := r.reader.Read(p)
	if n > 0 {
		if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// GenerateTaskID generates a unique task ID using UUID v7 for time ordering
func GenerateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
