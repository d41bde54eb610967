package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/clipsmith/clipsmith/internal/models"
)

// ---------------------------------------------------------------------------
// Pexels stock footage — search candidates per scene and download the
// selected files. One scene yields at most one clip; a scene with no
// results is skipped, never fatal.
// ---------------------------------------------------------------------------

const (
	pexelsBaseURL      = "https://api.pexels.com/videos/search"
	pexelsPerPage      = 3
	maxQueryLength     = 100
	searchTimeout      = 10 * time.Second
	downloadTimeout    = 30 * time.Second
	minCandidateWidth  = 1280
	hdQualityBonus     = 1000
)

type PexelsService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewPexelsService(apiKey string) *PexelsService {
	return &PexelsService{
		apiKey:  apiKey,
		baseURL: pexelsBaseURL,
		client:  &http.Client{Timeout: downloadTimeout},
	}
}

// Wire shapes for the Pexels videos/search response. Decoding is tolerant:
// unknown fields are ignored, missing optional fields default to zero.
type pexelsSearchResponse struct {
	Videos *[]pexelsVideo `json:"videos"`
}

type pexelsVideo struct {
	ID         int               `json:"id"`
	Duration   float64           `json:"duration"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

type pexelsVideoFile struct {
	Link    string `json:"link"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Quality string `json:"quality"`
}

// SearchScene looks up stock footage for one scene description and returns
// the best candidate, or nil when nothing usable was found. A response that
// decodes but carries no recognizable videos field fails closed with
// ErrMalformedResponse instead of guessing.
func (s *PexelsService) SearchScene(ctx context.Context, scene models.Scene, orientation string) (*models.ClipCandidate, error) {
	// Truncate by runes, not bytes: zh/ar descriptions are multi-byte and a
	// byte slice would send a broken trailing rune to the API.
	query := scene.VisualDescription
	if r := []rune(query); len(r) > maxQueryLength {
		query = string(r[:maxQueryLength])
	}
	if query == "" {
		return nil, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(pexelsPerPage))
	params.Set("page", "1")
	params.Set("orientation", orientation)

	req, err := http.NewRequestWithContext(searchCtx, "GET", s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pexels search returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode pexels response: %w", err)
	}

	if decoded.Videos == nil {
		return nil, fmt.Errorf("%w: pexels response has no videos field", ErrMalformedResponse)
	}

	// Try each video until one yields a usable file.
	for _, video := range *decoded.Videos {
		best := selectBestFile(video.VideoFiles)
		if best == nil || best.Link == "" {
			continue
		}

		return &models.ClipCandidate{
			ID:              strconv.Itoa(video.ID),
			SourceURL:       best.Link,
			Width:           best.Width,
			Height:          best.Height,
			QualityTag:      best.Quality,
			DurationSeconds: video.Duration,
			SceneIndex:      scene.Index,
		}, nil
	}

	return nil, nil
}

// selectBestFile scores each rendition: a large bonus for the "hd" quality
// tag plus the raw width, with a hard floor of 1280px. When nothing clears
// the floor, the first available file is used rather than dropping the scene.
func selectBestFile(files []pexelsVideoFile) *pexelsVideoFile {
	var best *pexelsVideoFile
	bestScore := 0

	for i := range files {
		f := &files[i]
		score := f.Width
		if f.Quality == "hd" {
			score += hdQualityBonus
		}

		if score > bestScore && f.Width >= minCandidateWidth {
			best = f
			bestScore = score
		}
	}

	if best == nil && len(files) > 0 {
		best = &files[0]
	}

	return best
}

// Download fetches the clip's media into destPath with its own timeout. The
// caller owns the file and is responsible for deleting it when the run ends.
func (s *PexelsService) Download(ctx context.Context, sourceURL, destPath string) (int64, error) {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, "GET", sourceURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("clip download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("clip download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create clip file: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err != nil {
		os.Remove(destPath)
		return 0, fmt.Errorf("failed to write clip file: %w", err)
	}
	if closeErr != nil {
		os.Remove(destPath)
		return 0, fmt.Errorf("failed to close clip file: %w", closeErr)
	}

	log.Printf("[Pexels] Downloaded %s (%d bytes)", destPath, written)
	return written, nil
}

// OrientationFor maps the output aspect ratio to the Pexels search
// orientation parameter.
func OrientationFor(aspect models.AspectRatio) string {
	if aspect == models.AspectPortrait {
		return "portrait"
	}
	return "landscape"
}
