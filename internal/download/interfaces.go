package download

import (
	"context"
	"io"

	"github.com/ytget/ytmux/internal/model"
)

// Opener opens the body of a selected stream.
// The returned size is 0 when the source does not announce it.
type Opener interface {
	OpenStream(ctx context.Context, itemURL string, d model.StreamDescriptor) (io.ReadCloser, int64, error)
}

// ProgressFunc receives bytes received so far and the expected total (0 if unknown)
type ProgressFunc func(received, total int64)

// Fetcher defines the interface for the download service.
type Fetcher interface {
	// Fetch downloads one stream to task.Destination
	Fetch(ctx context.Context, task *model.DownloadTask, onProgress ProgressFunc) (string, error)

	// FetchPair downloads a video and an audio stream concurrently.
	// Progress is reported for the combined byte count.
	FetchPair(ctx context.Context, video, audio *model.DownloadTask, onProgress ProgressFunc) (string, string, error)
}
