package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
)

// ---------------------------------------------------------------------------
// FFmpegService — thin wrappers around the ffmpeg/ffprobe binaries.
// Each helper performs exactly one pipeline step so the composer can skip
// individual failures without losing the whole job.
// ---------------------------------------------------------------------------

const encodePreset = "ultrafast"

type FFmpegService struct {
	tempDir string
}

func NewFFmpegService(tempDir string) *FFmpegService {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		panic(fmt.Sprintf("failed to create temp dir: %v", err))
	}

	return &FFmpegService{
		tempDir: tempDir,
	}
}

// TempDir returns the scratch directory used for intermediate artifacts.
func (s *FFmpegService) TempDir() string {
	return s.tempDir
}

// ProbeDuration returns the duration of a media file in seconds.
func (s *FFmpegService) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", filepath.Base(path), err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", strings.TrimSpace(string(output)), err)
	}

	return duration, nil
}

// NormalizeClip re-encodes a downloaded clip to the target resolution and
// frame rate with its audio stripped. This is the decode step: a clip that
// fails here is undecodable and gets dropped by the composer.
func (s *FFmpegService) NormalizeClip(ctx context.Context, inputPath, outputPath string, res Resolution, fps int) error {
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,fps=%d",
		res.Width, res.Height, res.Width, res.Height, fps)

	args := []string{
		"-i", inputPath,
		"-vf", vf,
		"-an", // narration is attached later; source audio is never used
		"-c:v", "libx264",
		"-preset", encodePreset,
		"-pix_fmt", "yuv420p",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg normalize failed for %s: %w", filepath.Base(inputPath), err)
	}

	return nil
}

// CutSegment produces one timeline segment from a normalized clip. loops > 1
// plays the clip end-to-end that many times before the trim, covering
// segments longer than their source clip.
func (s *FFmpegService) CutSegment(ctx context.Context, inputPath, outputPath string, seg models.TimelineSegment) error {
	args := []string{}
	if seg.Loops > 1 {
		// -stream_loop N repeats the input N extra times
		args = append(args, "-stream_loop", strconv.Itoa(seg.Loops-1))
	}

	args = append(args,
		"-i", inputPath,
		"-t", formatSeconds(seg.Duration()),
		"-c:v", "libx264",
		"-preset", encodePreset,
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg cut segment failed (clip=%d, loops=%d): %w", seg.ClipIndex, seg.Loops, err)
	}

	return nil
}

// ConcatSegments combines segment files into one continuous video track.
// All segments share codec, resolution, and frame rate, so the concat
// demuxer can copy streams without re-encoding.
func (s *FFmpegService) ConcatSegments(ctx context.Context, segmentPaths []string, outputPath string) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("no segments to concatenate")
	}

	listPath := filepath.Join(s.tempDir, fmt.Sprintf("concat_%s.txt", randomToken()))
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}

	for _, path := range segmentPaths {
		fmt.Fprintf(f, "file '%s'\n", path)
	}
	f.Close()
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concatenate failed: %w", err)
	}

	return nil
}

// PrepareMusic loops the music track until it covers the narration, trims it
// to exactly the narration length, and scales its gain. The result is ready
// to mix additively under the voiceover.
func (s *FFmpegService) PrepareMusic(ctx context.Context, musicPath, outputPath string, narrationSeconds, volume float64) error {
	args := []string{
		"-stream_loop", "-1",
		"-i", musicPath,
		"-t", formatSeconds(narrationSeconds),
		"-af", fmt.Sprintf("volume=%.3f", volume),
		"-c:a", "aac",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg prepare music failed: %w", err)
	}

	return nil
}

// Encode runs the final render: narration (plus optional pre-scaled music)
// is attached to the concatenated video, subtitle cues are burned in, and
// the result is encoded with tier-specific bitrates.
//
// The audio ends exactly at the narration length; any visual overhang beyond
// it stays in the container untrimmed.
func (s *FFmpegService) Encode(ctx context.Context, videoPath, narrationPath, musicPath, outputPath string, subtitleFilter string, settings EncodeSettings) error {
	args := []string{
		"-i", videoPath,
		"-i", narrationPath,
	}

	audioMap := "1:a"
	if musicPath != "" {
		args = append(args, "-i", musicPath)
		// normalize=0 keeps the narration at full gain; the music track was
		// already scaled in PrepareMusic.
		args = append(args, "-filter_complex",
			"[1:a][2:a]amix=inputs=2:duration=first:normalize=0[aout]")
		audioMap = "[aout]"
	}

	if subtitleFilter != "" {
		args = append(args, "-vf", subtitleFilter)
	}

	args = append(args,
		"-map", "0:v",
		"-map", audioMap,
		"-c:v", "libx264",
		"-b:v", settings.VideoBitrate,
		"-c:a", "aac",
		"-b:a", settings.AudioBitrate,
		"-r", strconv.Itoa(settings.FPS),
		"-pix_fmt", "yuv420p",
		"-preset", encodePreset,
		"-y",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}

	return nil
}

// BuildSubtitleFilter assembles the drawtext chain for a cue list. Each
// renderable cue becomes one drawtext expression visible for [start, end);
// cues that cannot be expressed (empty after sanitizing, or degenerate
// timing) are skipped. Returns "" when nothing is renderable.
func BuildSubtitleFilter(cues []models.SubtitleCue, pos models.SubtitlePosition, res Resolution) string {
	y := SubtitleYExpr(pos, res.Height)
	fontSize := res.Height / 18

	var filters []string
	for _, cue := range cues {
		if !cue.Renderable() {
			log.Printf("[FFmpeg] Skipping non-renderable cue (start=%.2f end=%.2f)", cue.StartSeconds, cue.EndSeconds)
			continue
		}

		text := escapeDrawtext(cue.Text)
		if text == "" {
			continue
		}

		filters = append(filters, fmt.Sprintf(
			"drawtext=text='%s':fontsize=%d:fontcolor=white:borderw=2:bordercolor=black:x=(w-text_w)/2:y=%d:enable='between(t\\,%s\\,%s)'",
			text, fontSize, y,
			formatSeconds(cue.StartSeconds), formatSeconds(cue.EndSeconds),
		))
	}

	return strings.Join(filters, ",")
}

// escapeDrawtext escapes the characters ffmpeg's drawtext filter treats
// specially inside a single-quoted text value.
func escapeDrawtext(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "'", "\\\\\\'")
	text = strings.ReplaceAll(text, ":", "\\:")
	text = strings.ReplaceAll(text, "%", "\\%")
	text = strings.ReplaceAll(text, "\n", " ")
	return text
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

// CreateTempFile returns a path for a scratch file inside the temp directory.
func (s *FFmpegService) CreateTempFile(filename string) string {
	return filepath.Join(s.tempDir, filename)
}

// Cleanup removes temporary files, ignoring ones that are already gone.
func (s *FFmpegService) Cleanup(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		os.Remove(path)
	}
}
