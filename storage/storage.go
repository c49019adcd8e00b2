package storage

import (
	"context"
	"time"

	"ewintr.nl/sermonai/model"
)

// Finders return (nil, nil) when the record does not exist. Absence is an
// expected outcome for every lookup in the pipeline, not an error.

type ChannelRepository interface {
	Create(ctx context.Context, channel *model.Channel) error
	FindByID(ctx context.Context, id model.ChannelID) (*model.Channel, error)
	FindActive(ctx context.Context) ([]*model.Channel, error)
	SetLastSync(ctx context.Context, id model.ChannelID, at time.Time) error
}

type VideoRepository interface {
	Upsert(ctx context.Context, video *model.Video) error
	FindByID(ctx context.Context, id model.VideoID) (*model.Video, error)
}

// IngestionRepository exposes one method per legal state transition, so the
// state machine is enumerable instead of being assembled from field bags.
type IngestionRepository interface {
	Create(ctx context.Context, id model.VideoID) error
	FindByVideoID(ctx context.Context, id model.VideoID) (*model.Ingestion, error)
	MarkDownloading(ctx context.Context, id model.VideoID) error
	MarkDownloaded(ctx context.Context, id model.VideoID, audioPath, audioFormat string, audioSizeBytes int64) error
	MarkTranscribing(ctx context.Context, id model.VideoID) error
	MarkCompleted(ctx context.Context, id model.VideoID, transcriptPath, transcriptText string) error
	MarkFailed(ctx context.Context, id model.VideoID, errorMessage string) error
	ResetPending(ctx context.Context, id model.VideoID) error
	FindRetryable(ctx context.Context, maxErrorCount, limit int) ([]*model.Ingestion, error)
	Stats(ctx context.Context) (model.IngestionStats, error)
}

type TranscriptRepository interface {
	Upsert(ctx context.Context, transcript *model.Transcript) error
	FindByVideoID(ctx context.Context, id model.VideoID) (*model.Transcript, error)
	ListVideoIDs(ctx context.Context) ([]model.VideoID, error)
	Delete(ctx context.Context, id model.VideoID) error
}

// ChunkMatch is one nearest-neighbor hit from the vector index.
type ChunkMatch struct {
	Score      float64
	VideoID    model.VideoID
	ChunkIndex int
	Text       string
	StartWord  int
	EndWord    int
	Source     string
}

type ChunkVecRepository interface {
	EnsureSchema(ctx context.Context) error
	ResetSchema(ctx context.Context) error
	Save(ctx context.Context, chunks []model.Chunk, vectors [][]float32, source model.TranscriptSource) error
	Query(ctx context.Context, vector []float32, limit int) ([]ChunkMatch, error)
	DeleteVideo(ctx context.Context, id model.VideoID) error
}
