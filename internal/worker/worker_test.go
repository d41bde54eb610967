package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/clipsmith/clipsmith/internal/models"
	"github.com/clipsmith/clipsmith/internal/services"
)

type stubClipSource struct {
	candidates  map[int]*models.ClipCandidate
	searchErr   map[int]error
	downloadErr error
}

func (s *stubClipSource) SearchScene(ctx context.Context, scene models.Scene, orientation string) (*models.ClipCandidate, error) {
	if err := s.searchErr[scene.Index]; err != nil {
		return nil, err
	}
	return s.candidates[scene.Index], nil
}

func (s *stubClipSource) Download(ctx context.Context, sourceURL, destPath string) (int64, error) {
	if s.downloadErr != nil {
		return 0, s.downloadErr
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data := []byte(sourceURL)
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func newClipWorker(t *testing.T, src clipSource) *Worker {
	t.Helper()
	return &Worker{
		pexels: src,
		ffmpeg: services.NewFFmpegService(t.TempDir()),
	}
}

func testVideo() *models.Video {
	return &models.Video{ID: uuid.New(), AspectRatio: models.AspectLandscape}
}

func testScenes(n int) []models.Scene {
	scenes := make([]models.Scene, n)
	for i := range scenes {
		scenes[i] = models.Scene{Index: i, VisualDescription: fmt.Sprintf("scene %d footage", i)}
	}
	return scenes
}

func TestFetchClipsKeepsSceneOrder(t *testing.T) {
	src := &stubClipSource{candidates: map[int]*models.ClipCandidate{
		0: {ID: "a", SourceURL: "https://example.com/a.mp4", SceneIndex: 0},
		1: {ID: "b", SourceURL: "https://example.com/b.mp4", SceneIndex: 1},
		2: {ID: "c", SourceURL: "https://example.com/c.mp4", SceneIndex: 2},
	}}
	w := newClipWorker(t, src)

	clips, written, err := w.fetchClips(context.Background(), testVideo(), testScenes(3))
	if err != nil {
		t.Fatalf("fetchClips failed: %v", err)
	}

	if len(clips) != 3 || len(written) != 3 {
		t.Fatalf("got %d clips, %d written paths, want 3 and 3", len(clips), len(written))
	}
	for i, clip := range clips {
		if clip.SceneIndex != i {
			t.Errorf("clip %d has scene index %d, want %d", i, clip.SceneIndex, i)
		}
		if clip.LocalPath == "" {
			t.Errorf("clip %d has no local path", i)
		}
	}
}

func TestFetchClipsSkipsScenesWithoutFootage(t *testing.T) {
	src := &stubClipSource{
		candidates: map[int]*models.ClipCandidate{
			0: {ID: "a", SourceURL: "https://example.com/a.mp4", SceneIndex: 0},
			// scene 2 has no candidate at all
		},
		searchErr: map[int]error{1: errors.New("search timeout")},
	}
	w := newClipWorker(t, src)

	clips, _, err := w.fetchClips(context.Background(), testVideo(), testScenes(3))
	if err != nil {
		t.Fatalf("fetchClips failed: %v", err)
	}
	if len(clips) != 1 || clips[0].SceneIndex != 0 {
		t.Errorf("expected only scene 0 to survive, got %+v", clips)
	}
}

func TestFetchClipsMalformedSearchAborts(t *testing.T) {
	src := &stubClipSource{
		searchErr: map[int]error{0: fmt.Errorf("decode: %w", services.ErrMalformedResponse)},
	}
	w := newClipWorker(t, src)

	_, _, err := w.fetchClips(context.Background(), testVideo(), testScenes(1))
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse to abort the stage, got %v", err)
	}
}

func TestFetchClipsSkipsFailedDownloads(t *testing.T) {
	src := &stubClipSource{
		candidates: map[int]*models.ClipCandidate{
			0: {ID: "a", SourceURL: "https://example.com/a.mp4", SceneIndex: 0},
		},
		downloadErr: errors.New("connection reset"),
	}
	w := newClipWorker(t, src)

	clips, written, err := w.fetchClips(context.Background(), testVideo(), testScenes(1))
	if err != nil {
		t.Fatalf("fetchClips failed: %v", err)
	}
	if len(clips) != 0 {
		t.Errorf("expected no clips after download failure, got %d", len(clips))
	}
	if len(written) != 0 {
		t.Errorf("expected no written paths for failed downloads, got %v", written)
	}
}

func TestFetchClipsPropagatesCancellation(t *testing.T) {
	src := &stubClipSource{candidates: map[int]*models.ClipCandidate{
		0: {ID: "a", SourceURL: "https://example.com/a.mp4", SceneIndex: 0},
	}}
	w := newClipWorker(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clips, written, err := w.fetchClips(ctx, testVideo(), testScenes(1))
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(clips) != 0 {
		t.Errorf("expected no clips on cancellation, got %d", len(clips))
	}
	// Paths that were assigned before cancellation still come back for cleanup.
	if len(written) != 1 {
		t.Errorf("expected the assigned path for cleanup, got %v", written)
	}
}
