package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestGetPublicURL(t *testing.T) {
	s := New("https://example.supabase.co", "key", "videos")

	got := s.GetPublicURL("abc/final.mp4")
	want := "https://example.supabase.co/storage/v1/object/public/videos/abc/final.mp4"
	if got != want {
		t.Errorf("GetPublicURL = %q, want %q", got, want)
	}
}

func TestGenerateStoragePath(t *testing.T) {
	s := New("https://example.supabase.co", "key", "videos")
	id := uuid.New()

	got := s.GenerateStoragePath(id, "video_abc.mp4")
	want := filepath.Join(id.String(), "video_abc.mp4")
	if got != want {
		t.Errorf("GenerateStoragePath = %q, want %q", got, want)
	}
}

func TestUploadRetriesOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Method != "PUT" {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer service-key" {
			t.Errorf("auth header = %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := New(server.URL, "service-key", "videos")

	if err := s.Upload(context.Background(), "a/b.mp4", []byte("data"), "video/mp4"); err != nil {
		t.Fatalf("Upload failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestUploadDoesNotRetryClientError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := New(server.URL, "service-key", "videos")

	if err := s.Upload(context.Background(), "a/b.mp4", []byte("data"), "video/mp4"); err == nil {
		t.Fatal("expected error for 403")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 403)", attempts)
	}
}

func TestPublishVideo(t *testing.T) {
	var uploaded []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploaded = append(uploaded, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "video_abc.mp4")
	srtPath := filepath.Join(dir, "video_abc.srt")
	os.WriteFile(videoPath, []byte("mp4"), 0644)
	os.WriteFile(srtPath, []byte("srt"), 0644)

	s := New(server.URL, "service-key", "videos")
	id := uuid.New()

	url, err := s.PublishVideo(context.Background(), id, videoPath, srtPath)
	if err != nil {
		t.Fatalf("PublishVideo failed: %v", err)
	}

	wantURL := s.GetPublicURL(filepath.Join(id.String(), "video_abc.mp4"))
	if url != wantURL {
		t.Errorf("public URL = %q, want %q", url, wantURL)
	}
	if len(uploaded) != 2 {
		t.Errorf("expected 2 uploads (mp4 + srt), got %d: %v", len(uploaded), uploaded)
	}
}

func TestRetryDelayBounded(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := retryDelay(attempt)
		if d < baseRetryDelay {
			t.Errorf("attempt %d: delay %v below base", attempt, d)
		}
		if d > maxRetryDelay+maxRetryDelay/4 {
			t.Errorf("attempt %d: delay %v exceeds cap plus jitter", attempt, d)
		}
	}
}

func TestIsRetryableStatus(t *testing.T) {
	for _, status := range []int{408, 429, 502, 503, 504} {
		if !isRetryableStatus(status) {
			t.Errorf("status %d should be retryable", status)
		}
	}
	for _, status := range []int{200, 400, 401, 403, 404, 413} {
		if isRetryableStatus(status) {
			t.Errorf("status %d should not be retryable", status)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if !isRetryableError(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be retryable")
	}
	if isRetryableError(nil) {
		t.Error("nil error should not be retryable")
	}
}
