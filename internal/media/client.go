package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytmux/internal/model"
)

// YouTubeAPI is the subset of *youtube.Client used here.
type YouTubeAPI interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
	GetTranscriptCtx(ctx context.Context, video *youtube.Video, lang string) (youtube.VideoTranscript, error)
}

// Compile-time check: *youtube.Client must implement YouTubeAPI.
var _ YouTubeAPI = (*youtube.Client)(nil)

// Client resolves item metadata and opens stream bodies.
// Resolved videos are kept until Forget is called for their item URL.
type Client struct {
	api    YouTubeAPI
	log    *slog.Logger
	mu     sync.Mutex
	videos map[string]*youtube.Video
}

// NewClient creates a client backed by kkdai/youtube using httpClient for
// metadata and stream requests. A nil httpClient means http.DefaultClient.
func NewClient(httpClient *http.Client, log *slog.Logger) *Client {
	return NewClientWithAPI(&youtube.Client{HTTPClient: httpClient}, log)
}

// NewClientWithAPI creates a client over any YouTubeAPI implementation
func NewClientWithAPI(api YouTubeAPI, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		api:    api,
		log:    log,
		videos: make(map[string]*youtube.Video),
	}
}

// Item fetches metadata for itemURL and converts it to a SourceItem
func (c *Client) Item(ctx context.Context, itemURL string) (*model.SourceItem, error) {
	video, err := c.api.GetVideoContext(ctx, itemURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get video metadata: %w", err)
	}

	c.mu.Lock()
	c.videos[itemURL] = video
	c.mu.Unlock()

	item := &model.SourceItem{
		URL:     itemURL,
		ID:      video.ID,
		Title:   video.Title,
		Streams: make([]model.StreamDescriptor, 0, len(video.Formats)),
	}
	for _, f := range video.Formats {
		item.Streams = append(item.Streams, DescriptorFromFormat(f))
	}
	for _, track := range video.CaptionTracks {
		item.CaptionLanguages = append(item.CaptionLanguages, track.LanguageCode)
	}

	c.log.Debug("item resolved",
		slog.String("url", itemURL),
		slog.String("title", item.Title),
		slog.Int("streams", len(item.Streams)),
		slog.Int("captions", len(item.CaptionLanguages)),
	)
	return item, nil
}

// Forget drops the cached video for itemURL
func (c *Client) Forget(itemURL string) {
	c.mu.Lock()
	delete(c.videos, itemURL)
	c.mu.Unlock()
}

// OpenStream opens the body of descriptor d of a previously resolved item.
// The returned size is 0 when the source does not announce it.
func (c *Client) OpenStream(ctx context.Context, itemURL string, d model.StreamDescriptor) (io.ReadCloser, int64, error) {
	video, err := c.video(itemURL)
	if err != nil {
		return nil, 0, err
	}

	formats := video.Formats.Itag(d.Itag)
	if len(formats) == 0 {
		return nil, 0, fmt.Errorf("stream itag=%d not found for %s", d.Itag, itemURL)
	}

	return c.api.GetStreamContext(ctx, video, &formats[0])
}

// Transcript fetches the caption cues for lang of a previously resolved item
func (c *Client) Transcript(ctx context.Context, itemURL, lang string) ([]Cue, error) {
	video, err := c.video(itemURL)
	if err != nil {
		return nil, err
	}

	transcript, err := c.api.GetTranscriptCtx(ctx, video, lang)
	if err != nil {
		return nil, err
	}

	cues := make([]Cue, 0, len(transcript))
	for _, seg := range transcript {
		cues = append(cues, CueFromMillis(seg.StartMs, seg.Duration, seg.Text))
	}
	return cues, nil
}

func (c *Client) video(itemURL string) (*youtube.Video, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	video, ok := c.videos[itemURL]
	if !ok {
		return nil, fmt.Errorf("item not resolved: %s", itemURL)
	}
	return video, nil
}

// DescriptorFromFormat converts a library format into a stream descriptor
func DescriptorFromFormat(f youtube.Format) model.StreamDescriptor {
	mediaType, _, err := mime.ParseMediaType(f.MimeType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(f.MimeType, ";", 2)[0])
	}

	major, container, _ := strings.Cut(mediaType, "/")

	d := model.StreamDescriptor{
		Itag:      f.ItagNo,
		Container: container,
		MimeType:  f.MimeType,
		Bitrate:   f.Bitrate,
		Size:      f.ContentLength,
	}

	switch {
	case major == "audio":
		d.Kind = model.StreamKindAudioOnly
	case f.AudioChannels > 0:
		d.Kind = model.StreamKindProgressive
	default:
		d.Kind = model.StreamKindVideoOnly
	}

	// the quality label names the short side, so it also holds for portrait videos
	if d.Kind != model.StreamKindAudioOnly {
		d.Resolution = model.NormalizeResolution(f.QualityLabel)
		if !strings.HasSuffix(d.Resolution, "p") {
			d.Resolution = model.ResolutionFromHeight(f.Height)
		}
	}
	return d
}
