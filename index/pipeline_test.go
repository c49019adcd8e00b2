package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"ewintr.nl/sermonai/model"
	"ewintr.nl/sermonai/storage"
	"golang.org/x/exp/slog"
)

type memTranscriptRepo struct {
	transcripts map[model.VideoID]*model.Transcript
}

func (m *memTranscriptRepo) Upsert(_ context.Context, tr *model.Transcript) error {
	m.transcripts[tr.VideoID] = tr
	return nil
}

func (m *memTranscriptRepo) FindByVideoID(_ context.Context, id model.VideoID) (*model.Transcript, error) {
	return m.transcripts[id], nil
}

func (m *memTranscriptRepo) ListVideoIDs(_ context.Context) ([]model.VideoID, error) {
	ids := make([]model.VideoID, 0, len(m.transcripts))
	for id := range m.transcripts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memTranscriptRepo) Delete(_ context.Context, id model.VideoID) error {
	delete(m.transcripts, id)
	return nil
}

type memChunkVecRepo struct {
	saved      map[model.VideoID][]model.Chunk
	schemaOK   bool
	resetCount int
}

func (m *memChunkVecRepo) EnsureSchema(_ context.Context) error {
	m.schemaOK = true
	return nil
}

func (m *memChunkVecRepo) ResetSchema(_ context.Context) error {
	m.saved = map[model.VideoID][]model.Chunk{}
	m.resetCount++
	return nil
}

func (m *memChunkVecRepo) Save(_ context.Context, chunks []model.Chunk, vectors [][]float32, _ model.TranscriptSource) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunk and vector count differ")
	}
	for _, c := range chunks {
		m.saved[c.VideoID] = append(m.saved[c.VideoID], c)
	}
	return nil
}

func (m *memChunkVecRepo) Query(_ context.Context, _ []float32, _ int) ([]storage.ChunkMatch, error) {
	return nil, nil
}

func (m *memChunkVecRepo) DeleteVideo(_ context.Context, id model.VideoID) error {
	delete(m.saved, id)
	return nil
}

type stubEmbedder struct {
	calls int
	err   error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1.0}
	}
	return vectors, nil
}

func numberedWords(n int) string {
	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		words = append(words, fmt.Sprintf("word%d", i))
	}
	return strings.Join(words, " ")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessVideo(t *testing.T) {
	longText := numberedWords(30)

	for _, tc := range []struct {
		name      string
		text      string
		exists    bool
		expStatus string
		expChunks int
	}{
		{
			name:      "missing transcript",
			exists:    false,
			expStatus: StatusNotFound,
		},
		{
			name:      "empty transcript",
			text:      "   ",
			exists:    true,
			expStatus: StatusEmpty,
		},
		{
			name:      "chunked and saved",
			text:      longText,
			exists:    true,
			expStatus: StatusCompleted,
			expChunks: 4,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			trRepo := &memTranscriptRepo{transcripts: map[model.VideoID]*model.Transcript{}}
			if tc.exists {
				trRepo.transcripts["vid1"] = &model.Transcript{
					VideoID: "vid1",
					Source:  model.SourceWhisper,
					Text:    tc.text,
				}
			}
			vecRepo := &memChunkVecRepo{saved: map[model.VideoID][]model.Chunk{}}
			embedder := &stubEmbedder{}
			pipeline := NewPipeline(trRepo, vecRepo, embedder, 10, 2, discardLogger())

			report := pipeline.ProcessVideo(context.Background(), "vid1")

			if report.Status != tc.expStatus {
				t.Errorf("exp %q, got %q", tc.expStatus, report.Status)
			}
			if report.Chunks != tc.expChunks {
				t.Errorf("exp %d chunks, got %d", tc.expChunks, report.Chunks)
			}
			if tc.expStatus != StatusCompleted && embedder.calls != 0 {
				t.Errorf("exp no embed calls, got %d", embedder.calls)
			}
			if got := len(vecRepo.saved["vid1"]); got != tc.expChunks {
				t.Errorf("exp %d saved chunks, got %d", tc.expChunks, got)
			}
		})
	}
}

func TestProcessVideoEmbedFailure(t *testing.T) {
	trRepo := &memTranscriptRepo{transcripts: map[model.VideoID]*model.Transcript{
		"vid1": {VideoID: "vid1", Source: model.SourceCaptions, Text: numberedWords(20)},
	}}
	vecRepo := &memChunkVecRepo{saved: map[model.VideoID][]model.Chunk{}}
	embedder := &stubEmbedder{err: errors.New("rate limited")}
	pipeline := NewPipeline(trRepo, vecRepo, embedder, 10, 2, discardLogger())

	report := pipeline.ProcessVideo(context.Background(), "vid1")

	if report.Status != StatusFailed {
		t.Errorf("exp %q, got %q", StatusFailed, report.Status)
	}
	if report.Err == nil {
		t.Errorf("exp error, got nil")
	}
	if len(vecRepo.saved) != 0 {
		t.Errorf("exp nothing saved, got %d", len(vecRepo.saved))
	}
}

func TestProcessAllContinuesPastFailures(t *testing.T) {
	trRepo := &memTranscriptRepo{transcripts: map[model.VideoID]*model.Transcript{
		"good": {VideoID: "good", Source: model.SourceWhisper, Text: numberedWords(20)},
		"bad":  {VideoID: "bad", Source: model.SourceWhisper, Text: ""},
	}}
	vecRepo := &memChunkVecRepo{saved: map[model.VideoID][]model.Chunk{}}
	pipeline := NewPipeline(trRepo, vecRepo, &stubEmbedder{}, 10, 2, discardLogger())

	reports, err := pipeline.ProcessAll(context.Background())
	if err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if len(reports) != 2 {
		t.Errorf("exp 2 reports, got %d", len(reports))
	}
	if !vecRepo.schemaOK {
		t.Errorf("exp schema to be ensured")
	}
	statuses := map[model.VideoID]string{}
	for _, r := range reports {
		statuses[r.VideoID] = r.Status
	}
	if statuses["good"] != StatusCompleted {
		t.Errorf("exp completed, got %q", statuses["good"])
	}
	if statuses["bad"] != StatusEmpty {
		t.Errorf("exp empty, got %q", statuses["bad"])
	}
}

func TestReindex(t *testing.T) {
	trRepo := &memTranscriptRepo{transcripts: map[model.VideoID]*model.Transcript{
		"vid1": {VideoID: "vid1", Source: model.SourceWhisper, Text: numberedWords(20)},
	}}
	vecRepo := &memChunkVecRepo{saved: map[model.VideoID][]model.Chunk{
		"stale": {{VideoID: "stale"}},
	}}
	pipeline := NewPipeline(trRepo, vecRepo, &stubEmbedder{}, 10, 2, discardLogger())

	reports, err := pipeline.Reindex(context.Background())
	if err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if vecRepo.resetCount != 1 {
		t.Errorf("exp 1 reset, got %d", vecRepo.resetCount)
	}
	if _, ok := vecRepo.saved["stale"]; ok {
		t.Errorf("exp stale chunks gone after reset")
	}
	if len(reports) != 1 || reports[0].Status != StatusCompleted {
		t.Errorf("exp one completed report, got %v", reports)
	}
}
