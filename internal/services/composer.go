package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Composer — turns downloaded clips, a narration track, and subtitle cues
// into one encoded video file.
//
// Per-clip failures (undecodable download, unreadable duration) are logged
// and skipped; the job only fails when nothing usable remains or the final
// encode itself breaks. Every intermediate file is tracked and removed
// before Compose returns, on both paths.
// ---------------------------------------------------------------------------

// ProgressFunc receives coarse-grained milestones during a long-running
// stage: a percentage in [0,100] and a human-readable message.
type ProgressFunc func(percent int, message string)

type Composer struct {
	ffmpeg    *FFmpegService
	outputDir string
}

func NewComposer(ffmpeg *FFmpegService, outputDir string) *Composer {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		panic(fmt.Sprintf("failed to create output dir: %v", err))
	}

	return &Composer{
		ffmpeg:    ffmpeg,
		outputDir: outputDir,
	}
}

// Compose implements the core timeline build. clips must already be
// downloaded (LocalPath set); narration must be a decodable audio file.
// Returns the path of the finished file in the output directory.
func (c *Composer) Compose(ctx context.Context, clips []models.ClipCandidate, narration *models.AudioTrack, cues []models.SubtitleCue, opts models.ComposeOptions, progress ProgressFunc) (string, error) {
	if progress == nil {
		progress = func(int, string) {}
	}

	outputPath := filepath.Join(c.outputDir, fmt.Sprintf("video_%s.mp4", randomToken()))

	var scratch []string
	defer func() {
		c.ffmpeg.Cleanup(scratch...)
	}()

	// Step 1: resolve the target resolution and encoder settings.
	res := ResolveResolution(opts.AspectRatio, opts.QualityTier)
	settings := ResolveEncodeSettings(opts.QualityTier)
	log.Printf("[Composer] Target %dx%d, %s video / %s audio, %d clips",
		res.Width, res.Height, settings.VideoBitrate, settings.AudioBitrate, len(clips))

	// Step 2: decode + resize every clip; drop the ones that fail.
	progress(68, fmt.Sprintf("Processing %d video clips...", len(clips)))

	type usableClip struct {
		path     string
		duration float64
	}
	var usable []usableClip

	for i, clip := range clips {
		normPath := c.ffmpeg.CreateTempFile(fmt.Sprintf("norm_%d_%s.mp4", i, randomToken()))
		scratch = append(scratch, normPath)

		if err := c.ffmpeg.NormalizeClip(ctx, clip.LocalPath, normPath, res, settings.FPS); err != nil {
			log.Printf("[Composer] Skipping clip %d (scene %d): %v", i, clip.SceneIndex, err)
			continue
		}

		duration, err := c.ffmpeg.ProbeDuration(ctx, normPath)
		if err != nil || duration <= 0 {
			log.Printf("[Composer] Skipping clip %d (scene %d): unreadable duration: %v", i, clip.SceneIndex, err)
			continue
		}

		usable = append(usable, usableClip{path: normPath, duration: duration})
		progress(68+(i*5)/len(clips), fmt.Sprintf("Processed clip %d/%d", i+1, len(clips)))
	}

	if len(usable) == 0 {
		return "", fmt.Errorf("%w: %d downloaded, none decodable", ErrNoUsableClips, len(clips))
	}

	// Steps 3-4: plan the timeline against the narration length and cut each
	// segment, looping short clips end-to-end before the trim.
	progress(74, "Building timeline...")

	durations := make([]float64, len(usable))
	for i, u := range usable {
		durations[i] = u.duration
	}

	segments := PlanSegments(durations, narration.DurationSeconds, opts.TargetClipSeconds)
	log.Printf("[Composer] %d segments planned for %.1fs narration", len(segments), narration.DurationSeconds)

	segmentPaths := make([]string, 0, len(segments))
	for i, seg := range segments {
		segPath := c.ffmpeg.CreateTempFile(fmt.Sprintf("seg_%d_%s.mp4", i, randomToken()))
		scratch = append(scratch, segPath)

		if err := c.ffmpeg.CutSegment(ctx, usable[seg.ClipIndex].path, segPath, seg); err != nil {
			return "", fmt.Errorf("failed to cut segment %d: %w", i, err)
		}
		segmentPaths = append(segmentPaths, segPath)
		progress(74+(i*3)/len(segments), fmt.Sprintf("Cut segment %d/%d", i+1, len(segments)))
	}

	// Step 5: concatenate segments into one continuous track.
	progress(78, fmt.Sprintf("Combining %d segments...", len(segments)))

	concatPath := c.ffmpeg.CreateTempFile(fmt.Sprintf("concat_%s.mp4", randomToken()))
	scratch = append(scratch, concatPath)

	if err := c.ffmpeg.ConcatSegments(ctx, segmentPaths, concatPath); err != nil {
		return "", fmt.Errorf("failed to concatenate segments: %w", err)
	}

	// Step 6: prepare background music when enabled. A failure here degrades
	// to voiceover-only audio, never to a failed job.
	musicPath := ""
	if opts.MusicPath != "" && opts.MusicVolume > 0 {
		progress(82, "Mixing background music...")

		prepared := c.ffmpeg.CreateTempFile(fmt.Sprintf("music_%s.m4a", randomToken()))
		scratch = append(scratch, prepared)

		if err := c.ffmpeg.PrepareMusic(ctx, opts.MusicPath, prepared, narration.DurationSeconds, opts.MusicVolume); err != nil {
			log.Printf("[Composer] Background music failed, using voiceover only: %v", err)
		} else {
			musicPath = prepared
		}
	}

	// Step 7: subtitle overlay. An empty cue list (or one with nothing
	// renderable) simply skips the overlay.
	subtitleFilter := BuildSubtitleFilter(cues, opts.SubtitlePosition, res)
	if subtitleFilter != "" {
		log.Printf("[Composer] Burning in %d subtitle cues", strings.Count(subtitleFilter, "drawtext"))
	}

	// Steps 8-9: final encode and output verification.
	progress(85, "Encoding final video (this may take a few minutes)...")

	if err := c.ffmpeg.Encode(ctx, concatPath, narration.LocalPath, musicPath, outputPath, subtitleFilter, settings); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		os.Remove(outputPath)
		return "", fmt.Errorf("%w: output file missing or empty", ErrEncodeFailure)
	}

	log.Printf("[Composer] Finished %s (%d bytes)", outputPath, info.Size())
	return outputPath, nil
}

// randomToken returns a short random name component so concurrent jobs never
// collide on temp or output files.
func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
