package compress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alessio/shellescape"
)

// FFmpeg constants for finalization settings
const (
	// Audio-only output
	AudioOnlyCodec   = "libmp3lame"
	AudioOnlyQuality = "2"

	// Muxed output: video copied, audio re-encoded
	VideoCopyCodec = "copy"
	MuxAudioCodec  = "aac"
	VideoStreamMap = "0:v:0"
	AudioStreamMap = "1:a:0"

	// Executable and extensions
	FFmpegCommand      = "ffmpeg"
	OutputExtensionMP3 = ".mp3"
	OutputExtensionMP4 = ".mp4"

	// partialMarker is inserted before the extension of the file ffmpeg writes to
	partialMarker = ".partial"

	// Operation names reported in MuxError
	OpTranscode = "transcode"
	OpMux       = "mux"

	// ExitCodeNotStarted is reported when the process never ran
	ExitCodeNotStarted = -1
)

// MuxError reports a failed ffmpeg invocation
type MuxError struct {
	Op       string // OpTranscode or OpMux
	ExitCode int    // process exit code, ExitCodeNotStarted if it never ran
	Err      error
}

func (e *MuxError) Error() string {
	if e.Canceled() {
		return fmt.Sprintf("ffmpeg %s canceled: %v", e.Op, e.Err)
	}
	if e.ExitCode == ExitCodeNotStarted {
		return fmt.Sprintf("ffmpeg %s failed to start: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ffmpeg %s exited with code %d", e.Op, e.ExitCode)
}

func (e *MuxError) Unwrap() error {
	return e.Err
}

// Canceled reports whether the invocation was stopped by its context
func (e *MuxError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}

// Service runs ffmpeg to produce final output files
type Service struct {
	ffmpegPath string
	run        Runner
	log        *slog.Logger
	onFailure  func(op string) // called for every failed invocation, used for metrics
}

// NewService creates a new ffmpeg service. An empty ffmpegPath means "ffmpeg" from PATH.
func NewService(ffmpegPath string, log *slog.Logger) *Service {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegCommand
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		ffmpegPath: ffmpegPath,
		run:        ExecRunner,
		log:        log,
	}
}

// SetRunner replaces the process runner
func (s *Service) SetRunner(run Runner) {
	s.run = run
}

// SetFailureCallback sets the callback invoked when an invocation fails
func (s *Service) SetFailureCallback(callback func(op string)) {
	s.onFailure = callback
}

// TranscodeAudio converts rawAudioPath to an mp3 at finalPath and removes the raw file.
// On failure the raw file is kept, the partial output is removed and an existing
// file at finalPath is left untouched.
func (s *Service) TranscodeAudio(ctx context.Context, rawAudioPath, finalPath string) error {
	build := func(output string) []string { return BuildTranscodeArgs(rawAudioPath, output) }
	return s.invoke(ctx, OpTranscode, build, finalPath, rawAudioPath)
}

// Mux copies the video track and re-encodes the audio track into finalPath,
// then removes both inputs. On failure the inputs are kept and an existing file
// at finalPath is left untouched.
func (s *Service) Mux(ctx context.Context, videoPath, audioPath, finalPath string) error {
	build := func(output string) []string { return BuildMuxArgs(videoPath, audioPath, output) }
	return s.invoke(ctx, OpMux, build, finalPath, videoPath, audioPath)
}

// invoke runs ffmpeg into a partial file next to output and renames it into
// place only after ffmpeg succeeded
func (s *Service) invoke(ctx context.Context, op string, build func(output string) []string, output string, inputs ...string) error {
	partial := PartialPath(output)
	args := build(partial)

	s.log.Debug("running ffmpeg",
		slog.String("op", op),
		slog.String("command", shellescape.QuoteCommand(append([]string{s.ffmpegPath}, args...))),
	)

	started := time.Now()
	err := s.run(ctx, s.ffmpegPath, args...)
	if err == nil {
		err = os.Rename(partial, output)
	}
	if err != nil {
		os.Remove(partial)
		if s.onFailure != nil {
			s.onFailure(op)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		muxErr := &MuxError{Op: op, ExitCode: exitCode(err), Err: err}
		s.log.Warn("ffmpeg failed",
			slog.String("op", op),
			slog.Int("exit_code", muxErr.ExitCode),
			slog.Bool("canceled", muxErr.Canceled()),
			slog.String("error", err.Error()),
		)
		return muxErr
	}

	for _, input := range inputs {
		if err := os.Remove(input); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove ffmpeg input", slog.String("path", input), slog.String("error", err.Error()))
		}
	}

	s.log.Debug("ffmpeg finished",
		slog.String("op", op),
		slog.String("output", output),
		slog.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// PartialPath returns the file ffmpeg writes to before it is renamed to output.
// The extension is kept so ffmpeg still infers the container from it.
func PartialPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + partialMarker + ext
}

// BuildTranscodeArgs builds the ffmpeg arguments for audio-only output
func BuildTranscodeArgs(inputPath, outputPath string) []string {
	return []string{
		"-nostdin",      // Never read from the terminal
		"-y",            // Overwrite output file
		"-i", inputPath, // Input file
		"-c:a", AudioOnlyCodec, // Audio codec
		"-q:a", AudioOnlyQuality, // VBR quality
		outputPath, // Output file
	}
}

// BuildMuxArgs builds the ffmpeg arguments for combining video and audio
func BuildMuxArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-nostdin",      // Never read from the terminal
		"-y",            // Overwrite output file
		"-i", videoPath, // Video input
		"-i", audioPath, // Audio input
		"-map", VideoStreamMap, // First video track of input 0
		"-map", AudioStreamMap, // First audio track of input 1
		"-c:v", VideoCopyCodec, // Video stream unchanged
		"-c:a", MuxAudioCodec, // Audio codec
		outputPath, // Output file
	}
}

// ExecRunner runs the command with stdin, stdout and stderr detached
func ExecRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Run()
}

// exitCode extracts a process exit code from err, or ExitCodeNotStarted
func exitCode(err error) int {
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		if code := coder.ExitCode(); code >= 0 {
			return code
		}
	}
	return ExitCodeNotStarted
}
