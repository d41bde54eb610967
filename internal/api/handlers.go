package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipsmith/clipsmith/internal/db"
	"github.com/clipsmith/clipsmith/internal/models"
	"github.com/clipsmith/clipsmith/internal/queue"
	"github.com/clipsmith/clipsmith/internal/storage"
)

type Handler struct {
	db      *db.DB
	queue   *queue.Queue
	storage *storage.Storage // nil when publishing is disabled
}

func NewHandler(database *db.DB, q *queue.Queue, stor *storage.Storage) *Handler {
	return &Handler{
		db:      database,
		queue:   q,
		storage: stor,
	}
}

// CreateVideo handles POST /v1/videos
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Either a topic (script is generated) or a user-authored script is required
	if req.Topic == "" && (req.Script == nil || *req.Script == "") {
		respondError(w, http.StatusBadRequest, "Topic or script is required")
		return
	}

	video := &models.Video{
		ID:                uuid.New(),
		Topic:             req.Topic,
		CustomScript:      req.Script,
		DurationSeconds:   60,
		Quality:           models.QualityBasic,
		AspectRatio:       models.AspectLandscape,
		SubtitlePosition:  models.SubtitleBottom,
		Voice:             "female",
		Language:          "en",
		MusicVolume:       0.2,
		TargetClipSeconds: 5,
		Status:            models.VideoStatusQueued,
	}

	if req.DurationSeconds != nil {
		if *req.DurationSeconds < 15 || *req.DurationSeconds > 180 {
			respondError(w, http.StatusBadRequest, "duration_seconds must be between 15 and 180")
			return
		}
		video.DurationSeconds = *req.DurationSeconds
	}

	if req.Quality != nil {
		q := models.QualityTier(*req.Quality)
		if !q.Valid() {
			respondError(w, http.StatusBadRequest, "Invalid quality. Allowed: basic, hd, premium")
			return
		}
		video.Quality = q
	}

	if req.AspectRatio != nil {
		a := models.AspectRatio(*req.AspectRatio)
		if !a.Valid() {
			respondError(w, http.StatusBadRequest, "Invalid aspect_ratio. Allowed: 16:9, 9:16")
			return
		}
		video.AspectRatio = a
	}

	if req.SubtitlePosition != nil {
		p := models.SubtitlePosition(*req.SubtitlePosition)
		if !p.Valid() {
			respondError(w, http.StatusBadRequest, "Invalid subtitle_position. Allowed: bottom, top, center")
			return
		}
		video.SubtitlePosition = p
	}

	if req.Voice != nil {
		video.Voice = *req.Voice
	}
	if req.Language != nil {
		video.Language = *req.Language
	}
	if req.MusicEnabled != nil {
		video.MusicEnabled = *req.MusicEnabled
	}
	if req.MusicVolume != nil {
		if *req.MusicVolume < 0 || *req.MusicVolume > 1 {
			respondError(w, http.StatusBadRequest, "music_volume must be between 0 and 1")
			return
		}
		video.MusicVolume = *req.MusicVolume
	}
	if req.TargetClipSeconds != nil {
		if *req.TargetClipSeconds < 2 || *req.TargetClipSeconds > 10 {
			respondError(w, http.StatusBadRequest, "target_clip_seconds must be between 2 and 10")
			return
		}
		video.TargetClipSeconds = *req.TargetClipSeconds
	}

	if err := h.db.CreateVideo(r.Context(), video); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create video")
		return
	}

	// Create and enqueue job
	jobID := uuid.New()
	job := &models.Job{
		ID:      jobID,
		VideoID: video.ID,
		Type:    "generate_video",
		Status:  models.JobStatusQueued,
	}

	if err := h.db.CreateJob(r.Context(), job); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	if err := h.queue.EnqueueGenerateVideo(r.Context(), video.ID, jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusCreated, models.CreateVideoResponse{
		VideoID: video.ID,
		Status:  video.Status,
	})
}

// ListVideos handles GET /v1/videos
// Query params:
//   - status: filter by video status
//   - limit:  max results per page (default 20, max 100)
//   - offset: number of results to skip (default 0)
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" {
		switch models.VideoStatus(statusFilter) {
		case models.VideoStatusQueued, models.VideoStatusScriptReady,
			models.VideoStatusAudioReady, models.VideoStatusClipsReady,
			models.VideoStatusComposing, models.VideoStatusEncoding,
			models.VideoStatusCompleted, models.VideoStatusFailed:
			// valid
		default:
			respondError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	total, err := h.db.CountVideos(r.Context(), statusFilter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count videos")
		return
	}

	videos, err := h.db.ListVideos(r.Context(), statusFilter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list videos")
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}

	respondJSON(w, http.StatusOK, models.ListVideosResponse{
		Videos: videos,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetVideo handles GET /v1/videos/{id}
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	video, err := h.db.GetVideo(r.Context(), videoID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}

	response := models.VideoResponse{Video: *video}
	if video.PublicURL != nil {
		response.DownloadURL = video.PublicURL
	} else if video.OutputPath != nil {
		url := "/v1/videos/" + video.ID.String() + "/download"
		response.DownloadURL = &url
	}

	respondJSON(w, http.StatusOK, response)
}

// DownloadVideo handles GET /v1/videos/{id}/download. Published videos
// redirect to their public URL; otherwise the local file is served directly.
func (h *Handler) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	video, err := h.db.GetVideo(r.Context(), videoID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}

	if video.Status != models.VideoStatusCompleted {
		respondError(w, http.StatusNotFound, "Video not ready")
		return
	}

	if video.PublicURL != nil {
		http.Redirect(w, r, *video.PublicURL, http.StatusTemporaryRedirect)
		return
	}

	if video.OutputPath == nil {
		respondError(w, http.StatusNotFound, "Video file not available")
		return
	}

	if _, err := os.Stat(*video.OutputPath); err != nil {
		respondError(w, http.StatusNotFound, "Video file not available")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="video_`+video.ID.String()+`.mp4"`)
	http.ServeFile(w, r, *video.OutputPath)
}

// GetVideoJobs handles GET /v1/videos/{id}/debug/jobs
func (h *Handler) GetVideoJobs(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	jobs, err := h.db.GetVideoJobs(r.Context(), videoID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get jobs")
		return
	}

	respondJSON(w, http.StatusOK, jobs)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
