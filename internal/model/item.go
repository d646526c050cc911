package model

import (
	"fmt"
	"strconv"
	"strings"
)

// StreamKind classifies an encoded stream by the tracks it carries
type StreamKind string

const (
	StreamKindAudioOnly   StreamKind = "audio-only"
	StreamKindVideoOnly   StreamKind = "video-only"
	StreamKindProgressive StreamKind = "progressive"
)

// ContainerMP4 is the container both streams of a muxed download must use
const ContainerMP4 = "mp4"

// StreamDescriptor identifies one concrete encoded stream without its bytes
type StreamDescriptor struct {
	Itag       int        // source-side stream identifier
	Kind       StreamKind // audio-only, video-only or progressive
	Resolution string     // e.g. "1080p"; empty for audio-only
	Container  string     // e.g. "mp4", "webm"
	MimeType   string     // raw mime type with codecs
	Bitrate    int        // bits per second
	Size       int64      // approximate byte size, 0 if unknown
}

// String returns a short human readable description
func (d StreamDescriptor) String() string {
	if d.Kind == StreamKindAudioOnly {
		return fmt.Sprintf("%s/%s itag=%d", d.Kind, d.Container, d.Itag)
	}
	return fmt.Sprintf("%s/%s %s itag=%d", d.Kind, d.Container, d.Resolution, d.Itag)
}

// SourceItem is one resolved media resource
type SourceItem struct {
	URL              string // canonical item URL, the identity
	ID               string
	Title            string
	Streams          []StreamDescriptor
	CaptionLanguages []string
}

// HasCaptionLanguage reports whether a caption track exists for code
func (i *SourceItem) HasCaptionLanguage(code string) bool {
	for _, lang := range i.CaptionLanguages {
		if lang == code {
			return true
		}
	}
	return false
}

// Mode is the user-chosen acquisition mode: audio-only, or video at a resolution
type Mode struct {
	AudioOnly  bool
	Resolution string
}

// AudioOnlyMode returns the audio-only mode
func AudioOnlyMode() Mode {
	return Mode{AudioOnly: true}
}

// VideoMode returns the video mode for resolution, normalized to the "<height>p" form
func VideoMode(resolution string) Mode {
	return Mode{Resolution: NormalizeResolution(resolution)}
}

// String returns "audio-only" or "video(<resolution>)"
func (m Mode) String() string {
	if m.AudioOnly {
		return "audio-only"
	}
	return "video(" + m.Resolution + ")"
}

// Validate checks that a video mode carries a resolution
func (m Mode) Validate() error {
	if m.AudioOnly {
		return nil
	}
	if m.Resolution == "" {
		return fmt.Errorf("video mode requires a resolution")
	}
	if _, err := strconv.Atoi(strings.TrimSuffix(m.Resolution, "p")); err != nil {
		return fmt.Errorf("invalid resolution: %s", m.Resolution)
	}
	return nil
}

// NormalizeResolution turns "1080", "1080P" or "1080p60" into "1080p"
func NormalizeResolution(resolution string) string {
	r := strings.ToLower(strings.TrimSpace(resolution))
	if r == "" {
		return ""
	}
	end := 0
	for end < len(r) && r[end] >= '0' && r[end] <= '9' {
		end++
	}
	if end == 0 {
		return r
	}
	return r[:end] + "p"
}

// ResolutionFromHeight formats a pixel height as "<height>p"
func ResolutionFromHeight(height int) string {
	if height <= 0 {
		return ""
	}
	return strconv.Itoa(height) + "p"
}
