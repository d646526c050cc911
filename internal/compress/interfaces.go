package compress

import (
	"context"
)

// Muxer defines the interface for the ffmpeg finalization service.
type Muxer interface {
	// TranscodeAudio converts a raw audio stream into the final audio file
	TranscodeAudio(ctx context.Context, rawAudioPath, finalPath string) error

	// Mux combines a video-only and an audio-only file into one container
	Mux(ctx context.Context, videoPath, audioPath, finalPath string) error
}

// Runner executes an external command and returns its error.
// Only the exit status matters; output is discarded.
type Runner func(ctx context.Context, name string, args ...string) error
