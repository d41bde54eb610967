package services

import (
	"math"

	"github.com/clipsmith/clipsmith/internal/models"
)

// ---------------------------------------------------------------------------
// Timeline planning — pure duration arithmetic, no I/O.
// The composer turns these plans into ffmpeg invocations.
// ---------------------------------------------------------------------------

// Resolution is a target frame size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// ResolveResolution maps (aspect ratio, quality tier) to the encode
// resolution. hd and premium share the same frame size; they differ in
// bitrate only.
func ResolveResolution(aspect models.AspectRatio, tier models.QualityTier) Resolution {
	high := tier == models.QualityHD || tier == models.QualityPremium
	if aspect == models.AspectPortrait {
		if high {
			return Resolution{1080, 1920}
		}
		return Resolution{720, 1280}
	}
	if high {
		return Resolution{1920, 1080}
	}
	return Resolution{1280, 720}
}

// EncodeSettings holds the tier-dependent encoder parameters.
type EncodeSettings struct {
	VideoBitrate string
	AudioBitrate string
	FPS          int
}

// ResolveEncodeSettings returns the bitrate preset for a quality tier.
// Unknown tiers fall back to basic.
func ResolveEncodeSettings(tier models.QualityTier) EncodeSettings {
	switch tier {
	case models.QualityHD:
		return EncodeSettings{VideoBitrate: "2500k", AudioBitrate: "192k", FPS: 24}
	case models.QualityPremium:
		return EncodeSettings{VideoBitrate: "5000k", AudioBitrate: "256k", FPS: 24}
	default:
		return EncodeSettings{VideoBitrate: "1000k", AudioBitrate: "128k", FPS: 24}
	}
}

// ClampSegmentSeconds bounds the requested per-segment duration: at least 2
// seconds, at most an even split of the narration across the available clips.
func ClampSegmentSeconds(requested, narrationSeconds float64, clipCount int) float64 {
	if clipCount < 1 {
		clipCount = 1
	}
	target := math.Min(requested, narrationSeconds/float64(clipCount))
	return math.Max(2, target)
}

// PlanSegments fills the timeline with round-robin clip slices until the
// narration is covered. Clips shorter than the segment length are looped
// end-to-end before trimming. The returned segments are contiguous and their
// total duration is >= narrationSeconds and <= narrationSeconds + one
// segment length.
//
// Reusing clips round-robin means a short scene's footage can dominate a
// long video when few clips are available. That is an accepted tradeoff,
// not a bug.
func PlanSegments(clipDurations []float64, narrationSeconds, targetSeconds float64) []models.TimelineSegment {
	if len(clipDurations) == 0 || narrationSeconds <= 0 {
		return nil
	}

	target := ClampSegmentSeconds(targetSeconds, narrationSeconds, len(clipDurations))
	needed := int(narrationSeconds/target) + 1

	segments := make([]models.TimelineSegment, 0, needed)
	offset := 0.0
	for i := 0; i < needed; i++ {
		clipIdx := i % len(clipDurations)
		loops := 1
		if d := clipDurations[clipIdx]; d > 0 && d < target {
			loops = int(math.Ceil(target/d)) + 1
		}
		segments = append(segments, models.TimelineSegment{
			ClipIndex:   clipIdx,
			TargetStart: offset,
			TargetEnd:   offset + target,
			Loops:       loops,
		})
		offset += target
	}

	return segments
}

// MusicLoopCount returns how many end-to-end plays of the music track are
// needed to cover the narration before trimming to its exact length.
func MusicLoopCount(musicSeconds, narrationSeconds float64) int {
	if musicSeconds <= 0 {
		return 0
	}
	if musicSeconds >= narrationSeconds {
		return 1
	}
	return int(narrationSeconds/musicSeconds) + 1
}

// SubtitleYExpr returns the ffmpeg drawtext y-position expression for a
// subtitle position on a frame of the given height.
func SubtitleYExpr(pos models.SubtitlePosition, height int) int {
	switch pos {
	case models.SubtitleTop:
		return 100
	case models.SubtitleCenter:
		return height / 2
	default:
		return height - 150
	}
}
