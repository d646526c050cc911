package media

import (
	"fmt"

	"github.com/ytget/ytmux/internal/model"
)

// Missing stream sides reported by NoStreamError
const (
	MissingVideo = "video"
	MissingAudio = "audio"
)

// NoStreamError reports that no descriptor matches the requested mode
type NoStreamError struct {
	Mode    model.Mode
	Missing string // MissingVideo or MissingAudio
}

func (e *NoStreamError) Error() string {
	if e.Missing == MissingVideo {
		return fmt.Sprintf("no %s video stream available, try another resolution", e.Mode.Resolution)
	}
	return "no audio stream available"
}

// Select picks the streams to download for mode.
// Audio-only mode returns the best audio-only descriptor. Video mode returns
// exactly two descriptors: a non-progressive mp4 video at the requested
// resolution followed by an mp4 audio-only descriptor. No fallback resolution
// is tried.
func Select(item *model.SourceItem, mode model.Mode) ([]model.StreamDescriptor, error) {
	if mode.AudioOnly {
		audio, ok := bestStream(item.Streams, func(d model.StreamDescriptor) bool {
			return d.Kind == model.StreamKindAudioOnly
		})
		if !ok {
			return nil, &NoStreamError{Mode: mode, Missing: MissingAudio}
		}
		return []model.StreamDescriptor{audio}, nil
	}

	resolution := model.NormalizeResolution(mode.Resolution)
	video, ok := bestStream(item.Streams, func(d model.StreamDescriptor) bool {
		return d.Kind == model.StreamKindVideoOnly &&
			d.Resolution == resolution &&
			d.Container == model.ContainerMP4
	})
	if !ok {
		return nil, &NoStreamError{Mode: mode, Missing: MissingVideo}
	}

	audio, ok := bestStream(item.Streams, func(d model.StreamDescriptor) bool {
		return d.Kind == model.StreamKindAudioOnly && d.Container == model.ContainerMP4
	})
	if !ok {
		return nil, &NoStreamError{Mode: mode, Missing: MissingAudio}
	}

	return []model.StreamDescriptor{video, audio}, nil
}

// bestStream returns the highest-bitrate descriptor accepted by match.
// Ties keep the earliest one in source order.
func bestStream(streams []model.StreamDescriptor, match func(model.StreamDescriptor) bool) (model.StreamDescriptor, bool) {
	var best model.StreamDescriptor
	found := false
	for _, d := range streams {
		if !match(d) {
			continue
		}
		if !found || d.Bitrate > best.Bitrate {
			best = d
			found = true
		}
	}
	return best, found
}
