package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytmux/internal/model"
)

// ErrCaptionUnavailable is returned when the requested caption track does not exist
var ErrCaptionUnavailable = errors.New("captions not found")

// DefaultCaptionLanguage is used when no language is configured
const DefaultCaptionLanguage = "en"

// SRT formatting
const (
	SRTExtension   = ".srt"
	srtArrow       = " --> "
	srtTimeLayout  = "%02d:%02d:%02d,%03d"
	srtPermissions = 0644
)

// Cue is one timed caption line
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// CueFromMillis builds a cue from a start offset and a duration in milliseconds
func CueFromMillis(startMs, durationMs int, text string) Cue {
	start := time.Duration(startMs) * time.Millisecond
	return Cue{
		Start: start,
		End:   start + time.Duration(durationMs)*time.Millisecond,
		Text:  text,
	}
}

// TranscriptSource fetches caption cues for a resolved item
type TranscriptSource interface {
	Transcript(ctx context.Context, itemURL, lang string) ([]Cue, error)
}

// CaptionExtractor writes one language's caption track as an SRT file
type CaptionExtractor struct {
	source TranscriptSource
}

// NewCaptionExtractor creates an extractor reading cues from source
func NewCaptionExtractor(source TranscriptSource) *CaptionExtractor {
	return &CaptionExtractor{source: source}
}

// Extract writes the lang caption track of item to destPath and returns the path.
// ErrCaptionUnavailable is returned when the item has no track for lang.
// A partially written file is removed on error.
func (e *CaptionExtractor) Extract(ctx context.Context, item *model.SourceItem, lang, destPath string) (string, error) {
	if lang == "" {
		lang = DefaultCaptionLanguage
	}
	if !item.HasCaptionLanguage(lang) {
		return "", ErrCaptionUnavailable
	}

	cues, err := e.source.Transcript(ctx, item.URL, lang)
	if errors.Is(err, youtube.ErrTranscriptDisabled) {
		return "", ErrCaptionUnavailable
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	if len(cues) == 0 {
		return "", ErrCaptionUnavailable
	}

	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srtPermissions)
	if err != nil {
		return "", fmt.Errorf("failed to create caption file: %w", err)
	}

	if err := WriteSRT(f, cues); err != nil {
		f.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write caption file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write caption file: %w", err)
	}
	return destPath, nil
}

// WriteSRT serializes cues as numbered SRT blocks. Text is written verbatim.
func WriteSRT(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for i, cue := range cues {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%d\n", i+1)
		bw.WriteString(FormatSRTTimestamp(cue.Start))
		bw.WriteString(srtArrow)
		bw.WriteString(FormatSRTTimestamp(cue.End))
		bw.WriteString("\n")
		bw.WriteString(strings.TrimRight(cue.Text, "\n"))
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// FormatSRTTimestamp formats d as HH:MM:SS,mmm
func FormatSRTTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf(srtTimeLayout, hours, minutes, seconds, millis)
}
