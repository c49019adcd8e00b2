package storage

var pgMigration = []string{
	`CREATE TABLE channel (
id VARCHAR(255) PRIMARY KEY,
name VARCHAR(255) NOT NULL,
url VARCHAR(255) NOT NULL,
is_active BOOLEAN NOT NULL DEFAULT TRUE,
last_sync_at TIMESTAMPTZ,
created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE video (
id VARCHAR(255) PRIMARY KEY,
channel_id VARCHAR(255) NOT NULL REFERENCES channel(id) ON DELETE CASCADE,
title TEXT NOT NULL DEFAULT '',
description TEXT NOT NULL DEFAULT '',
duration_seconds INTEGER NOT NULL DEFAULT 0,
published_at TIMESTAMPTZ,
thumbnail_url TEXT NOT NULL DEFAULT '',
view_count BIGINT NOT NULL DEFAULT 0,
created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TYPE ingestion_status AS ENUM ('pending', 'downloading', 'downloaded', 'transcribing', 'completed', 'failed')`,
	`CREATE TABLE ingestion (
video_id VARCHAR(255) PRIMARY KEY REFERENCES video(id) ON DELETE CASCADE,
status ingestion_status NOT NULL DEFAULT 'pending',
audio_path TEXT NOT NULL DEFAULT '',
audio_format VARCHAR(32) NOT NULL DEFAULT '',
audio_size_bytes BIGINT NOT NULL DEFAULT 0,
transcript_path TEXT NOT NULL DEFAULT '',
transcript_text TEXT NOT NULL DEFAULT '',
error_message TEXT NOT NULL DEFAULT '',
error_count INTEGER NOT NULL DEFAULT 0,
download_started_at TIMESTAMPTZ,
download_completed_at TIMESTAMPTZ,
transcription_started_at TIMESTAMPTZ,
transcription_completed_at TIMESTAMPTZ,
created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX ingestion_status_idx ON ingestion (status, error_count, updated_at)`,
}
