package services

import "errors"

// Job-level failure modes. Stage-internal partial failures (a single clip,
// a single cue, music mixing) are absorbed at the stage boundary and never
// surface as one of these; everything below aborts the current job.
var (
	// ErrNoUsableClips means no clip survived search, download, and decode.
	ErrNoUsableClips = errors.New("no usable video clips")

	// ErrEmptyNarration means the script carried no narration text.
	ErrEmptyNarration = errors.New("script has no narration text")

	// ErrSynthesisFailed means speech synthesis produced no audio.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrEncodeFailure means the final render step errored or produced an
	// empty output file.
	ErrEncodeFailure = errors.New("video encode failed")

	// ErrMalformedResponse means a third-party response decoded but carried
	// none of the fields the adapter knows how to normalize.
	ErrMalformedResponse = errors.New("malformed service response")
)

// ErrorCode maps a job-level error to the short code persisted on the video
// row. Unknown errors fall through to "pipeline_failed".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoUsableClips):
		return "no_usable_clips"
	case errors.Is(err, ErrEmptyNarration):
		return "empty_narration"
	case errors.Is(err, ErrSynthesisFailed):
		return "synthesis_failed"
	case errors.Is(err, ErrEncodeFailure):
		return "encode_failed"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "pipeline_failed"
	}
}
