package index

import (
	"context"
	"fmt"

	"ewintr.nl/sermonai/model"
	"ewintr.nl/sermonai/storage"
	"ewintr.nl/sermonai/transcript"
	"golang.org/x/exp/slog"
)

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// VideoReport tells what happened to one video during an embedding run.
type VideoReport struct {
	VideoID model.VideoID
	Status  string
	Chunks  int
	Err     error
}

const (
	StatusCompleted = "completed"
	StatusNotFound  = "not_found"
	StatusEmpty     = "empty"
	StatusNoChunks  = "no_chunks"
	StatusFailed    = "failed"
)

// Pipeline turns stored transcripts into vectors in the chunk index.
type Pipeline struct {
	transcriptRepo storage.TranscriptRepository
	chunkVecRepo   storage.ChunkVecRepository
	embedder       Embedder
	chunkSize      int
	overlap        int
	logger         *slog.Logger
}

func NewPipeline(transcriptRepo storage.TranscriptRepository, chunkVecRepo storage.ChunkVecRepository, embedder Embedder, chunkSize, overlap int, logger *slog.Logger) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}

	return &Pipeline{
		transcriptRepo: transcriptRepo,
		chunkVecRepo:   chunkVecRepo,
		embedder:       embedder,
		chunkSize:      chunkSize,
		overlap:        overlap,
		logger:         logger,
	}
}

// ProcessVideo chunks and embeds one video's transcript and replaces its
// chunks in the vector index.
func (p *Pipeline) ProcessVideo(ctx context.Context, id model.VideoID) VideoReport {
	report := VideoReport{VideoID: id}

	tr, err := p.transcriptRepo.FindByVideoID(ctx, id)
	if err != nil {
		report.Status = StatusFailed
		report.Err = fmt.Errorf("failed to load transcript: %w", err)
		return report
	}
	if tr == nil {
		report.Status = StatusNotFound
		return report
	}

	cleaned := transcript.Clean(tr.Text)
	if cleaned == "" {
		report.Status = StatusEmpty
		return report
	}

	chunks := transcript.Chunk(cleaned, id, p.chunkSize, p.overlap)
	if len(chunks) == 0 {
		report.Status = StatusNoChunks
		return report
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		report.Status = StatusFailed
		report.Err = fmt.Errorf("failed to embed chunks: %w", err)
		return report
	}

	if err := p.chunkVecRepo.DeleteVideo(ctx, id); err != nil {
		report.Status = StatusFailed
		report.Err = fmt.Errorf("failed to clear old chunks: %w", err)
		return report
	}
	if err := p.chunkVecRepo.Save(ctx, chunks, vectors, tr.Source); err != nil {
		report.Status = StatusFailed
		report.Err = fmt.Errorf("failed to save chunks: %w", err)
		return report
	}

	p.logger.Info("video indexed", slog.String("video", string(id)), slog.Int("chunks", len(chunks)))

	report.Status = StatusCompleted
	report.Chunks = len(chunks)

	return report
}

// ProcessAll indexes every stored transcript. A failing video never aborts
// the batch, it just shows up as failed in its report.
func (p *Pipeline) ProcessAll(ctx context.Context) ([]VideoReport, error) {
	if err := p.chunkVecRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	ids, err := p.transcriptRepo.ListVideoIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	reports := make([]VideoReport, 0, len(ids))
	for _, id := range ids {
		report := p.ProcessVideo(ctx, id)
		if report.Err != nil {
			p.logger.Error("failed to index video", slog.String("video", string(id)), slog.String("error", report.Err.Error()))
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// DeleteVideo removes a video's chunks from the vector index.
func (p *Pipeline) DeleteVideo(ctx context.Context, id model.VideoID) error {
	return p.chunkVecRepo.DeleteVideo(ctx, id)
}

// Reindex drops the whole vector index and rebuilds it from the stored
// transcripts.
func (p *Pipeline) Reindex(ctx context.Context) ([]VideoReport, error) {
	if err := p.chunkVecRepo.ResetSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset schema: %w", err)
	}

	return p.ProcessAll(ctx)
}
