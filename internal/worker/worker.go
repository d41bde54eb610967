package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipsmith/clipsmith/internal/db"
	"github.com/clipsmith/clipsmith/internal/models"
	"github.com/clipsmith/clipsmith/internal/queue"
	"github.com/clipsmith/clipsmith/internal/services"
	"github.com/clipsmith/clipsmith/internal/storage"
)

// maxConcurrentDownloads bounds parallel clip downloads per job.
const maxConcurrentDownloads = 3

// clipSource is the stock-footage surface the pipeline depends on.
// Satisfied by services.PexelsService.
type clipSource interface {
	SearchScene(ctx context.Context, scene models.Scene, orientation string) (*models.ClipCandidate, error)
	Download(ctx context.Context, sourceURL, destPath string) (int64, error)
}

type Worker struct {
	db                  *db.DB
	queue               *queue.Queue
	storage             *storage.Storage            // nil = local output only
	script              services.ScriptService
	tts                 services.TTSService
	aligner             *services.TranscriptAligner // nil = no subtitles
	pexels              clipSource
	ffmpeg              *services.FFmpegService
	composer            *services.Composer
	backgroundMusicPath string
}

func New(
	database *db.DB,
	q *queue.Queue,
	stor *storage.Storage,
	scriptSvc services.ScriptService,
	ttsSvc services.TTSService,
	aligner *services.TranscriptAligner,
	pexelsSvc clipSource,
	ffmpegSvc *services.FFmpegService,
	composer *services.Composer,
	backgroundMusicPath string,
) *Worker {
	return &Worker{
		db:                  database,
		queue:               q,
		storage:             stor,
		script:              scriptSvc,
		tts:                 ttsSvc,
		aligner:             aligner,
		pexels:              pexelsSvc,
		ffmpeg:              ffmpegSvc,
		composer:            composer,
		backgroundMusicPath: backgroundMusicPath,
	}
}

// Start begins processing jobs from the queue
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("Worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx, queue.QueueGenerateVideo, w.handleGenerateVideo)
	}

	<-ctx.Done()
	log.Println("Worker shutting down...")
}

func (w *Worker) processQueue(ctx context.Context, queueName string, handler func(context.Context, *queue.Job) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, queueName, 5*time.Second)
			if err != nil {
				log.Printf("Error dequeuing from %s: %v", queueName, err)
				continue
			}

			if job == nil {
				continue // No job available, retry
			}

			log.Printf("Processing job %s (type: %s, video: %s)", job.ID, job.Type, job.VideoID)

			if err := w.db.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning); err != nil {
				log.Printf("Failed to update job status: %v", err)
			}

			if err := handler(ctx, job); err != nil {
				log.Printf("Job %s failed: %v", job.ID, err)
				w.db.UpdateJobError(ctx, job.ID, err.Error())
			} else {
				log.Printf("Job %s completed successfully", job.ID)
				w.db.UpdateJobStatus(ctx, job.ID, models.JobStatusSucceeded)
			}
		}
	}
}

// reportProgress persists a pipeline milestone on the video row. Reported
// percentages only move forward; a late report from a slow stage can never
// roll the bar back.
func (w *Worker) reportProgress(ctx context.Context, video *models.Video, last *int, status models.VideoStatus, percent int, message string) {
	if percent < *last {
		percent = *last
	}
	*last = percent

	log.Printf("[Pipeline] %s: %d%% %s", video.ID, percent, message)
	if err := w.db.UpdateVideoProgress(ctx, video.ID, status, percent, message); err != nil {
		log.Printf("[Pipeline] Failed to persist progress for %s: %v", video.ID, err)
	}
}

// handleGenerateVideo runs the full pipeline for one video:
// script → voiceover → stock clips → subtitle alignment → compose → encode.
// Any failure marks the video failed with a stable error code; every
// downloaded or intermediate file is removed on both paths.
func (w *Worker) handleGenerateVideo(ctx context.Context, job *queue.Job) error {
	video, err := w.db.GetVideo(ctx, job.VideoID)
	if err != nil {
		return fmt.Errorf("failed to get video: %w", err)
	}

	lastProgress := 0

	// Job-scoped artifacts. Appended as soon as a path is created, deleted
	// unconditionally when the job ends — including files that were fetched
	// but never successfully decoded.
	var tempFiles []string
	defer func() {
		w.ffmpeg.Cleanup(tempFiles...)
	}()

	fail := func(stage string, err error) error {
		code := services.ErrorCode(err)
		if dbErr := w.db.UpdateVideoError(ctx, video.ID, code, err.Error()); dbErr != nil {
			log.Printf("[Pipeline] Failed to persist error for %s: %v", video.ID, dbErr)
		}
		return fmt.Errorf("%s: %w", stage, err)
	}

	// ── Stage 1: script ────────────────────────────────────────────────
	w.reportProgress(ctx, video, &lastProgress, models.VideoStatusQueued, 10, "Generating script...")

	var script *models.Script
	if video.CustomScript != nil && strings.TrimSpace(*video.CustomScript) != "" {
		script = services.CustomScript(video.Topic, *video.CustomScript, video.Language)
		log.Printf("[Pipeline] %s: using custom script (%d chars)", video.ID, len(script.Narration))
	} else {
		script, err = w.script.GenerateScript(ctx, video.Topic, video.DurationSeconds, video.Language)
		if err != nil {
			return fail("script generation", err)
		}
		log.Printf("[Pipeline] %s: generated %d scenes", video.ID, len(script.Scenes))
	}

	if strings.TrimSpace(script.Narration) == "" {
		return fail("script generation", services.ErrEmptyNarration)
	}

	w.reportProgress(ctx, video, &lastProgress, models.VideoStatusScriptReady, 10, "Script ready")

	// ── Stage 2: voiceover ─────────────────────────────────────────────
	w.reportProgress(ctx, video, &lastProgress, models.VideoStatusScriptReady, 30, "Generating voiceover...")

	audioPath, err := w.tts.Synthesize(ctx, script.Narration, video.Voice, video.Language)
	if err != nil {
		return fail("voiceover synthesis", err)
	}
	tempFiles = append(tempFiles, audioPath)

	audioDuration, err := w.ffmpeg.ProbeDuration(ctx, audioPath)
	if err != nil || audioDuration <= 0 {
		return fail("voiceover synthesis", fmt.Errorf("%w: undecodable audio: %v", services.ErrSynthesisFailed, err))
	}
	narration := &models.AudioTrack{LocalPath: audioPath, DurationSeconds: audioDuration}

	w.reportProgress(ctx, video, &lastProgress, models.VideoStatusAudioReady, 30, fmt.Sprintf("Voiceover ready (%.1fs)", audioDuration))

	// ── Stage 3: stock clips ───────────────────────────────────────────
	w.reportProgress(ctx, video, &lastProgress, models.VideoStatusAudioReady, 50, "Searching stock footage...")

	clips, downloaded, err := w.fetchClips(ctx, video, script.Scenes)
	tempFiles = append(tempFiles, downloaded...)
	if err != nil {
		return fail("clip search", err)
	}
	if len(clips) == 0 {
		return fail("clip search", fmt.Errorf("%w: no scene produced a candidate", services.ErrNoUsableClips))
	}

	w.reportProgress(ctx, video, &lastProgress, models.VideoStatusClipsReady, 50, fmt.Sprintf("Downloaded %d clips", len(clips)))

	// ── Stage 4: subtitle alignment ────────────────────────────────────
	w.reportProgress(ctx, video, &lastProgress, models.VideoStatusComposing, 60, "Aligning subtitles...")

	var words []models.WordTiming
	transcript := script.Narration
	if w.aligner != nil {
		var alignedText string
		words, alignedText = w.aligner.Align(ctx, audioPath, video.Language)
		if alignedText != "" {
			transcript = alignedText
		}
	}
	cues := services.BuildCues(words, transcript, services.DefaultCueWords)

	// ── Stage 5: compose + encode ──────────────────────────────────────
	opts := models.ComposeOptions{
		QualityTier:       video.Quality,
		AspectRatio:       video.AspectRatio,
		TargetClipSeconds: float64(video.TargetClipSeconds),
		SubtitlePosition:  video.SubtitlePosition,
	}
	if video.MusicEnabled {
		opts.MusicPath = w.backgroundMusicPath
		opts.MusicVolume = video.MusicVolume
	}

	outputPath, err := w.composer.Compose(ctx, clips, narration, cues, opts, func(percent int, message string) {
		status := models.VideoStatusComposing
		if percent >= 85 {
			status = models.VideoStatusEncoding
		}
		w.reportProgress(ctx, video, &lastProgress, status, percent, message)
	})
	if err != nil {
		return fail("compose", err)
	}

	// SRT sidecar next to the output file, best-effort.
	srtPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".srt"
	if err := services.WriteSRT(cues, srtPath); err != nil {
		log.Printf("[Pipeline] %s: no SRT sidecar: %v", video.ID, err)
		srtPath = ""
	}

	// ── Publish (optional) ─────────────────────────────────────────────
	var publicURL *string
	if w.storage != nil {
		url, err := w.storage.PublishVideo(ctx, video.ID, outputPath, srtPath)
		if err != nil {
			log.Printf("[Pipeline] %s: publish failed, keeping local file only: %v", video.ID, err)
		} else {
			publicURL = &url
		}
	}

	if err := w.db.SetVideoOutput(ctx, video.ID, outputPath, publicURL); err != nil {
		return fail("finalize", fmt.Errorf("failed to record output: %w", err))
	}

	w.reportProgress(ctx, video, &lastProgress, models.VideoStatusCompleted, 100, "Video completed")
	return nil
}

// fetchClips searches one candidate per scene and downloads the selections in
// parallel. Returns the usable clips in scene order plus every path that was
// written to disk, so the caller can clean up downloads that later turn out
// to be undecodable. A scene with no result is skipped; a malformed search
// response aborts the whole stage.
func (w *Worker) fetchClips(ctx context.Context, video *models.Video, scenes []models.Scene) ([]models.ClipCandidate, []string, error) {
	orientation := services.OrientationFor(video.AspectRatio)

	var candidates []models.ClipCandidate
	for _, scene := range scenes {
		candidate, err := w.pexels.SearchScene(ctx, scene, orientation)
		if err != nil {
			if errors.Is(err, services.ErrMalformedResponse) {
				return nil, nil, err
			}
			log.Printf("[Pipeline] %s: scene %d search failed, skipping: %v", video.ID, scene.Index, err)
			continue
		}
		if candidate == nil {
			log.Printf("[Pipeline] %s: scene %d has no stock footage, skipping", video.ID, scene.Index)
			continue
		}
		candidates = append(candidates, *candidate)
	}

	if len(candidates) == 0 {
		return nil, nil, nil
	}

	// Download in parallel with a small bound. Slot i belongs to candidate i,
	// so clips stay in scene order no matter which download finishes first.
	paths := make([]string, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)

	for i := range candidates {
		i := i
		g.Go(func() error {
			destPath := w.ffmpeg.CreateTempFile(fmt.Sprintf("clip_%s_%d.mp4", video.ID, i))
			paths[i] = destPath

			if _, err := w.pexels.Download(gctx, candidates[i].SourceURL, destPath); err != nil {
				// A cancelled job is not a skippable clip.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("[Pipeline] %s: clip %d download failed, skipping: %v", video.ID, i, err)
				paths[i] = ""
				return nil
			}
			candidates[i].LocalPath = destPath
			return nil
		})
	}
	err := g.Wait()

	// Collect written paths before checking the group error so partially
	// downloaded files are still handed back for cleanup.
	var clips []models.ClipCandidate
	var written []string
	for i, c := range candidates {
		if paths[i] != "" {
			written = append(written, paths[i])
		}
		if c.LocalPath != "" {
			clips = append(clips, c)
		}
	}

	if err != nil {
		return nil, written, fmt.Errorf("clip downloads aborted: %w", err)
	}

	return clips, written, nil
}
