package models

import (
	"time"

	"github.com/google/uuid"
)

// Enums
type VideoStatus string

const (
	VideoStatusQueued      VideoStatus = "queued"
	VideoStatusScriptReady VideoStatus = "script_ready"
	VideoStatusAudioReady  VideoStatus = "audio_ready"
	VideoStatusClipsReady  VideoStatus = "clips_ready"
	VideoStatusComposing   VideoStatus = "composing"
	VideoStatusEncoding    VideoStatus = "encoding"
	VideoStatusCompleted   VideoStatus = "completed"
	VideoStatusFailed      VideoStatus = "failed"
)

// Terminal reports whether no further transitions are possible from s.
func (s VideoStatus) Terminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

type QualityTier string

const (
	QualityBasic   QualityTier = "basic"
	QualityHD      QualityTier = "hd"
	QualityPremium QualityTier = "premium"
)

// Valid reports whether t is a known quality tier.
func (t QualityTier) Valid() bool {
	return t == QualityBasic || t == QualityHD || t == QualityPremium
}

type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

func (a AspectRatio) Valid() bool {
	return a == AspectLandscape || a == AspectPortrait
}

type SubtitlePosition string

const (
	SubtitleBottom SubtitlePosition = "bottom"
	SubtitleTop    SubtitlePosition = "top"
	SubtitleCenter SubtitlePosition = "center"
)

func (p SubtitlePosition) Valid() bool {
	return p == SubtitleBottom || p == SubtitleTop || p == SubtitleCenter
}

// ---------------------------------------------------------------------------
// Pipeline domain types
// ---------------------------------------------------------------------------

// Scene is one beat of the generated script: what the viewer sees
// (VisualDescription drives stock-footage search) and what the narrator says.
// Immutable once the pipeline starts.
type Scene struct {
	Index             int    `json:"index"`
	VisualDescription string `json:"description"`
	Narration         string `json:"narration"`
}

// Script is the full script for one video: the complete narration text plus
// the per-scene breakdown. A user-authored script degenerates to one scene.
type Script struct {
	Narration string  `json:"narration"`
	Scenes    []Scene `json:"scenes"`
	Language  string  `json:"language"`
}

// ClipCandidate is the selected stock clip for one scene.
type ClipCandidate struct {
	ID              string  `json:"id"`
	SourceURL       string  `json:"source_url"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	QualityTag      string  `json:"quality_tag"`
	DurationSeconds float64 `json:"duration_seconds"`
	SceneIndex      int     `json:"scene_index"`

	// LocalPath is set once the clip has been downloaded. The file is owned
	// by the pipeline run and deleted when the run ends.
	LocalPath string `json:"-"`
}

// AudioTrack is a decodable audio file on disk with its probed duration.
type AudioTrack struct {
	LocalPath       string  `json:"local_path"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// WordTiming is a single recognized word with its timing, ordered by start.
type WordTiming struct {
	Text         string  `json:"text"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

// SubtitleCue is a timed caption derived from a run of consecutive words.
type SubtitleCue struct {
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Text         string  `json:"text"`
}

// Renderable reports whether the cue spans actual time. A degenerate cue
// (end <= start) carries fallback text that cannot be timed on screen and
// must be skipped by the composer.
func (c SubtitleCue) Renderable() bool {
	return c.EndSeconds > c.StartSeconds
}

// TimelineSegment is a time-bounded slice of a (possibly looped) clip placed
// at a specific offset in the final timeline. Segments are contiguous and
// their total duration covers at least the narration length.
type TimelineSegment struct {
	ClipIndex   int     `json:"clip_index"`
	TargetStart float64 `json:"target_start"`
	TargetEnd   float64 `json:"target_end"`
	Loops       int     `json:"loops"` // 1 = plain trim, >1 = loop then trim
}

// Duration returns the segment's length on the final timeline.
func (s TimelineSegment) Duration() float64 {
	return s.TargetEnd - s.TargetStart
}

// ComposeOptions carries the quality and layout settings for one compose run.
type ComposeOptions struct {
	QualityTier       QualityTier
	AspectRatio       AspectRatio
	TargetClipSeconds float64 // clamped into [2, narration/clipCount]
	SubtitlePosition  SubtitlePosition
	MusicPath         string  // empty = no background music
	MusicVolume       float64 // [0, 1]
}

// RenderJob aggregates everything one pipeline run needs. It is constructed
// once per job and passed by reference through the state machine; only the
// orchestrator mutates it as stages complete.
type RenderJob struct {
	VideoID    uuid.UUID
	Script     *Script
	Clips      []ClipCandidate
	Narration  *AudioTrack
	Cues       []SubtitleCue
	Options    ComposeOptions
	Voice      string
	OutputPath string
}

// ---------------------------------------------------------------------------
// Persistence models
// ---------------------------------------------------------------------------

type Video struct {
	ID                uuid.UUID        `json:"id"`
	Topic             string           `json:"topic"`
	CustomScript      *string          `json:"custom_script,omitempty"`
	DurationSeconds   int              `json:"duration_seconds"`
	Quality           QualityTier      `json:"quality"`
	AspectRatio       AspectRatio      `json:"aspect_ratio"`
	SubtitlePosition  SubtitlePosition `json:"subtitle_position"`
	Voice             string           `json:"voice"`
	Language          string           `json:"language"`
	MusicEnabled      bool             `json:"music_enabled"`
	MusicVolume       float64          `json:"music_volume"`
	TargetClipSeconds int              `json:"target_clip_seconds"`
	Status            VideoStatus      `json:"status"`
	Progress          int              `json:"progress"`
	StatusMessage     *string          `json:"status_message,omitempty"`
	OutputPath        *string          `json:"output_path,omitempty"`
	PublicURL         *string          `json:"public_url,omitempty"`
	ErrorCode         *string          `json:"error_code,omitempty"`
	ErrorMessage      *string          `json:"error_message,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type Job struct {
	ID           uuid.UUID  `json:"id"`
	VideoID      uuid.UUID  `json:"video_id"`
	Type         string     `json:"type"`
	Status       JobStatus  `json:"status"`
	Attempts     int        `json:"attempts"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ---------------------------------------------------------------------------
// API DTOs
// ---------------------------------------------------------------------------

type CreateVideoRequest struct {
	Topic             string   `json:"topic"`
	Script            *string  `json:"script,omitempty"` // user-authored script, skips generation
	DurationSeconds   *int     `json:"duration_seconds,omitempty"`
	Quality           *string  `json:"quality,omitempty"`
	AspectRatio       *string  `json:"aspect_ratio,omitempty"`
	SubtitlePosition  *string  `json:"subtitle_position,omitempty"`
	Voice             *string  `json:"voice,omitempty"`
	Language          *string  `json:"language,omitempty"`
	MusicEnabled      *bool    `json:"music_enabled,omitempty"`
	MusicVolume       *float64 `json:"music_volume,omitempty"`
	TargetClipSeconds *int     `json:"target_clip_seconds,omitempty"`
}

type CreateVideoResponse struct {
	VideoID uuid.UUID   `json:"video_id"`
	Status  VideoStatus `json:"status"`
}

type VideoResponse struct {
	Video
	DownloadURL *string `json:"download_url,omitempty"`
}

type ListVideosResponse struct {
	Videos []Video `json:"videos"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
