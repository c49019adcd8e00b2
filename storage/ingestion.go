package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ewintr.nl/sermonai/model"
)

type PostgresIngestionRepository struct {
	db *sql.DB
}

func NewPostgresIngestionRepository(postgres *Postgres) *PostgresIngestionRepository {
	return &PostgresIngestionRepository{db: postgres.db}
}

// Create adds a pending record for the video if none exists yet. Re-syncs
// hit this for every known video, so conflicts are ignored.
func (r *PostgresIngestionRepository) Create(ctx context.Context, id model.VideoID) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO ingestion (video_id, status)
VALUES ($1, 'pending')
ON CONFLICT (video_id) DO NOTHING`, id); err != nil {
		return fmt.Errorf("failed to create ingestion record: %w", err)
	}

	return nil
}

func (r *PostgresIngestionRepository) FindByVideoID(ctx context.Context, id model.VideoID) (*model.Ingestion, error) {
	row := r.db.QueryRowContext(ctx, selectIngestion+`
WHERE video_id = $1`, id)

	ingestion, err := scanIngestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ingestion record: %w", err)
	}

	return ingestion, nil
}

func (r *PostgresIngestionRepository) MarkDownloading(ctx context.Context, id model.VideoID) error {
	return r.update(ctx, id, `
UPDATE ingestion
SET status = 'downloading', download_started_at = NOW(), updated_at = NOW()
WHERE video_id = $1`)
}

func (r *PostgresIngestionRepository) MarkDownloaded(ctx context.Context, id model.VideoID, audioPath, audioFormat string, audioSizeBytes int64) error {
	if _, err := r.db.ExecContext(ctx, `
UPDATE ingestion
SET status = 'downloaded', audio_path = $2, audio_format = $3, audio_size_bytes = $4,
download_completed_at = NOW(), updated_at = NOW()
WHERE video_id = $1`, id, audioPath, audioFormat, audioSizeBytes); err != nil {
		return fmt.Errorf("failed to mark downloaded: %w", err)
	}

	return nil
}

func (r *PostgresIngestionRepository) MarkTranscribing(ctx context.Context, id model.VideoID) error {
	return r.update(ctx, id, `
UPDATE ingestion
SET status = 'transcribing', transcription_started_at = NOW(), updated_at = NOW()
WHERE video_id = $1`)
}

func (r *PostgresIngestionRepository) MarkCompleted(ctx context.Context, id model.VideoID, transcriptPath, transcriptText string) error {
	if _, err := r.db.ExecContext(ctx, `
UPDATE ingestion
SET status = 'completed', transcript_path = $2, transcript_text = $3,
transcription_completed_at = NOW(), updated_at = NOW()
WHERE video_id = $1`, id, transcriptPath, transcriptText); err != nil {
		return fmt.Errorf("failed to mark completed: %w", err)
	}

	return nil
}

// MarkFailed records the error and bumps the counter. The counter is never
// reset, retry eligibility is judged against a ceiling.
func (r *PostgresIngestionRepository) MarkFailed(ctx context.Context, id model.VideoID, errorMessage string) error {
	if _, err := r.db.ExecContext(ctx, `
UPDATE ingestion
SET status = 'failed', error_message = $2, error_count = error_count + 1, updated_at = NOW()
WHERE video_id = $1`, id, errorMessage); err != nil {
		return fmt.Errorf("failed to mark failed: %w", err)
	}

	return nil
}

func (r *PostgresIngestionRepository) ResetPending(ctx context.Context, id model.VideoID) error {
	return r.update(ctx, id, `
UPDATE ingestion
SET status = 'pending', updated_at = NOW()
WHERE video_id = $1`)
}

func (r *PostgresIngestionRepository) FindRetryable(ctx context.Context, maxErrorCount, limit int) ([]*model.Ingestion, error) {
	rows, err := r.db.QueryContext(ctx, selectIngestion+`
WHERE status = 'failed' AND error_count < $1
ORDER BY updated_at
LIMIT $2`, maxErrorCount, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find retryable ingestions: %w", err)
	}
	defer rows.Close()

	ingestions := []*model.Ingestion{}
	for rows.Next() {
		ingestion, err := scanIngestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to find retryable ingestions: %w", err)
		}
		ingestions = append(ingestions, ingestion)
	}

	return ingestions, rows.Err()
}

func (r *PostgresIngestionRepository) Stats(ctx context.Context) (model.IngestionStats, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT status, COUNT(*)
FROM ingestion
GROUP BY status`)
	if err != nil {
		return model.IngestionStats{}, fmt.Errorf("failed to fetch ingestion stats: %w", err)
	}
	defer rows.Close()

	var stats model.IngestionStats
	for rows.Next() {
		var status model.IngestionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.IngestionStats{}, fmt.Errorf("failed to fetch ingestion stats: %w", err)
		}
		switch status {
		case model.StatusPending:
			stats.Pending = count
		case model.StatusDownloading:
			stats.Downloading = count
		case model.StatusDownloaded:
			stats.Downloaded = count
		case model.StatusTranscribing:
			stats.Transcribing = count
		case model.StatusCompleted:
			stats.Completed = count
		case model.StatusFailed:
			stats.Failed = count
		}
	}

	return stats, rows.Err()
}

func (r *PostgresIngestionRepository) update(ctx context.Context, id model.VideoID, query string) error {
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update ingestion status: %w", err)
	}

	return nil
}

const selectIngestion = `
SELECT video_id, status, audio_path, audio_format, audio_size_bytes,
transcript_path, transcript_text, error_message, error_count,
download_started_at, download_completed_at,
transcription_started_at, transcription_completed_at,
created_at, updated_at
FROM ingestion`

func scanIngestion(row scanner) (*model.Ingestion, error) {
	var ingestion model.Ingestion
	var dlStart, dlDone, trStart, trDone sql.NullTime
	if err := row.Scan(&ingestion.VideoID, &ingestion.Status, &ingestion.AudioPath,
		&ingestion.AudioFormat, &ingestion.AudioSizeBytes, &ingestion.TranscriptPath,
		&ingestion.TranscriptText, &ingestion.ErrorMessage, &ingestion.ErrorCount,
		&dlStart, &dlDone, &trStart, &trDone,
		&ingestion.CreatedAt, &ingestion.UpdatedAt); err != nil {
		return nil, err
	}
	if dlStart.Valid {
		ingestion.DownloadStartedAt = dlStart.Time
	}
	if dlDone.Valid {
		ingestion.DownloadCompletedAt = dlDone.Time
	}
	if trStart.Valid {
		ingestion.TranscriptionStartedAt = trStart.Time
	}
	if trDone.Valid {
		ingestion.TranscriptionCompletedAt = trDone.Time
	}

	return &ingestion, nil
}
