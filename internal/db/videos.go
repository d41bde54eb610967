package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/clipsmith/clipsmith/internal/models"
)

func (db *DB) CreateVideo(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (
			id, topic, custom_script, duration_seconds, quality, aspect_ratio,
			subtitle_position, voice, language, music_enabled, music_volume,
			target_clip_seconds, status, progress
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		video.ID, video.Topic, video.CustomScript, video.DurationSeconds,
		video.Quality, video.AspectRatio, video.SubtitlePosition,
		video.Voice, video.Language, video.MusicEnabled, video.MusicVolume,
		video.TargetClipSeconds, video.Status, video.Progress,
	).Scan(&video.CreatedAt, &video.UpdatedAt)
}

const videoColumns = `
	id, topic, custom_script, duration_seconds, quality, aspect_ratio,
	subtitle_position, voice, language, music_enabled, music_volume,
	target_clip_seconds, status, progress, status_message, output_path,
	public_url, error_code, error_message, created_at, updated_at
`

func scanVideo(row interface{ Scan(...any) error }) (*models.Video, error) {
	v := &models.Video{}
	err := row.Scan(
		&v.ID, &v.Topic, &v.CustomScript, &v.DurationSeconds, &v.Quality,
		&v.AspectRatio, &v.SubtitlePosition, &v.Voice, &v.Language,
		&v.MusicEnabled, &v.MusicVolume, &v.TargetClipSeconds, &v.Status,
		&v.Progress, &v.StatusMessage, &v.OutputPath, &v.PublicURL,
		&v.ErrorCode, &v.ErrorMessage, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

func (db *DB) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return video, nil
}

// ListVideos returns videos ordered by creation date (newest first).
// Supports optional status filter, limit, and offset for pagination.
func (db *DB) ListVideos(ctx context.Context, status string, limit, offset int) ([]models.Video, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseSelect := `SELECT ` + videoColumns + ` FROM videos`

	if status != "" {
		query := baseSelect + ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = db.QueryContext(ctx, query, status, limit, offset)
	} else {
		query := baseSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = db.QueryContext(ctx, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *v)
	}

	return videos, nil
}

// CountVideos returns the total number of videos, optionally filtered by status.
func (db *DB) CountVideos(ctx context.Context, status string) (int, error) {
	var count int
	if status != "" {
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos WHERE status = $1`, status).Scan(&count)
		return count, err
	}
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count)
	return count, err
}

func (db *DB) UpdateVideoStatus(ctx context.Context, id uuid.UUID, status models.VideoStatus) error {
	query := `UPDATE videos SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.ExecContext(ctx, query, status, id)
	return err
}

// UpdateVideoProgress records the stage, percentage, and a human-readable
// message in one statement. Progress only moves forward: the GREATEST guard
// keeps a stale writer from rolling a later milestone back.
func (db *DB) UpdateVideoProgress(ctx context.Context, id uuid.UUID, status models.VideoStatus, progress int, message string) error {
	query := `
		UPDATE videos
		SET status = $1, progress = GREATEST(progress, $2), status_message = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := db.ExecContext(ctx, query, status, progress, message, id)
	return err
}

func (db *DB) UpdateVideoError(ctx context.Context, id uuid.UUID, errorCode, errorMessage string) error {
	query := `
		UPDATE videos
		SET status = $1, error_code = $2, error_message = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := db.ExecContext(ctx, query, models.VideoStatusFailed, errorCode, errorMessage, id)
	return err
}

// SetVideoOutput marks the run complete and records where the result lives.
// publicURL is nil unless the file was published to external storage.
func (db *DB) SetVideoOutput(ctx context.Context, id uuid.UUID, outputPath string, publicURL *string) error {
	query := `
		UPDATE videos
		SET status = $1, progress = 100, output_path = $2, public_url = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := db.ExecContext(ctx, query, models.VideoStatusCompleted, outputPath, publicURL, id)
	return err
}
