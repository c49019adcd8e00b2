package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/sermonai/model"
)

type PostgresVideoRepository struct {
	db *sql.DB
}

func NewPostgresVideoRepository(postgres *Postgres) *PostgresVideoRepository {
	return &PostgresVideoRepository{db: postgres.db}
}

// Upsert creates the video or refreshes its mutable metadata. The id and the
// owning channel are fixed at creation and never updated.
func (r *PostgresVideoRepository) Upsert(ctx context.Context, video *model.Video) error {
	var publishedAt sql.NullTime
	if !video.PublishedAt.IsZero() {
		publishedAt = sql.NullTime{Time: video.PublishedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO video (id, channel_id, title, description, duration_seconds, published_at, thumbnail_url, view_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
title = EXCLUDED.title,
description = EXCLUDED.description,
duration_seconds = EXCLUDED.duration_seconds,
published_at = EXCLUDED.published_at,
thumbnail_url = EXCLUDED.thumbnail_url,
view_count = EXCLUDED.view_count`,
		video.ID, video.ChannelID, video.Title, video.Description,
		int(video.Duration/time.Second), publishedAt, video.ThumbnailURL, video.ViewCount)
	if err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}

	return nil
}

func (r *PostgresVideoRepository) FindByID(ctx context.Context, id model.VideoID) (*model.Video, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, channel_id, title, description, duration_seconds, published_at, thumbnail_url, view_count, created_at
FROM video
WHERE id = $1`, id)

	var video model.Video
	var durationSeconds int
	var publishedAt sql.NullTime
	err := row.Scan(&video.ID, &video.ChannelID, &video.Title, &video.Description,
		&durationSeconds, &publishedAt, &video.ThumbnailURL, &video.ViewCount, &video.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find video: %w", err)
	}

	video.Duration = time.Duration(durationSeconds) * time.Second
	if publishedAt.Valid {
		video.PublishedAt = publishedAt.Time
	}

	return &video, nil
}
