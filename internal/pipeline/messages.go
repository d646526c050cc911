package pipeline

import (
	"fmt"

	"github.com/ytget/ytmux/internal/model"
)

// Status messages
const (
	MsgCaptionsDownloaded  = "Captions downloaded"
	MsgCaptionsNotFound    = "Captions not found"
	MsgCaptionsSkipped     = "Captions not requested"
	MsgFinalizing          = "Finalizing..."
	MsgAudioConverted      = "Audio converted"
	MsgDownloadComplete    = "Download complete"
	MsgPlaylistComplete    = "Playlist download complete"
	MsgPlaylistEmpty       = "Playlist is empty"
	MsgSizeUnknown         = "Downloading, size unknown"
	msgResolvingItem       = "Resolving: %s"
	msgResolvingPlaylist   = "Resolving item %d/%d: %s"
	msgSelecting           = "Selecting streams: %s"
	msgDownloadingAudio    = "Downloading audio: %s"
	msgDownloadingVideo    = "Downloading video: %s"
	msgExtractingCaptions  = "Extracting captions (%s)"
	msgFailed              = "Failed: %v"
	msgPlaylistWithFailure = "Playlist download complete, %d of %d failed"
)

// enterMessage returns the status emitted when a run enters state
func enterMessage(state model.RunState, req Request, run *model.PipelineRun) string {
	switch state {
	case model.RunStateSelecting:
		return fmt.Sprintf(msgSelecting, run.GetDisplayTitle())
	case model.RunStateFetching:
		if req.Mode.AudioOnly {
			return fmt.Sprintf(msgDownloadingAudio, run.GetDisplayTitle())
		}
		return fmt.Sprintf(msgDownloadingVideo, run.GetDisplayTitle())
	case model.RunStateCaptioning:
		if !req.WantCaptions {
			return MsgCaptionsSkipped
		}
		return fmt.Sprintf(msgExtractingCaptions, req.LanguageCode)
	case model.RunStateMuxing:
		return MsgFinalizing
	case model.RunStateDone:
		if req.Mode.AudioOnly {
			return MsgAudioConverted
		}
		return MsgDownloadComplete
	}
	return string(state)
}

func failedMessage(err error) string {
	return fmt.Sprintf(msgFailed, err)
}
