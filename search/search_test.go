package search

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

type stubExpander struct {
	expanded string
}

func (s *stubExpander) Expand(_ context.Context, feeling string) string {
	if s.expanded == "" {
		return feeling
	}
	return s.expanded
}

type stubEmbedder struct{}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

type stubChunkVecRepo struct {
	matches  []storage.ChunkMatch
	gotLimit int
}

func (s *stubChunkVecRepo) EnsureSchema(_ context.Context) error { return nil }
func (s *stubChunkVecRepo) ResetSchema(_ context.Context) error  { return nil }
func (s *stubChunkVecRepo) Save(_ context.Context, _ []model.Chunk, _ [][]float32, _ model.TranscriptSource) error {
	return nil
}
func (s *stubChunkVecRepo) DeleteVideo(_ context.Context, _ model.VideoID) error { return nil }

func (s *stubChunkVecRepo) Query(_ context.Context, _ []float32, limit int) ([]storage.ChunkMatch, error) {
	s.gotLimit = limit
	return s.matches, nil
}

type stubVideoRepo struct {
	videos map[model.VideoID]*model.Video
	errs   map[model.VideoID]error
}

func (s *stubVideoRepo) Upsert(_ context.Context, _ *model.Video) error { return nil }
func (s *stubVideoRepo) FindByID(_ context.Context, id model.VideoID) (*model.Video, error) {
	if err, ok := s.errs[id]; ok {
		return nil, err
	}
	return s.videos[id], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearchDedupesByVideo(t *testing.T) {
	// nine matches over three videos, descending score
	matches := make([]storage.ChunkMatch, 0, 9)
	videos := map[model.VideoID]*model.Video{}
	for i := 0; i < 9; i++ {
		id := model.VideoID(fmt.Sprintf("vid%d", i%3))
		matches = append(matches, storage.ChunkMatch{
			Score:      0.9 - float64(i)*0.05,
			VideoID:    id,
			ChunkIndex: i,
			Text:       fmt.Sprintf("chunk %d of %s", i, id),
		})
		videos[id] = &model.Video{ID: id, Title: string(id)}
	}

	vecRepo := &stubChunkVecRepo{matches: matches}
	searcher := NewSearcher(&stubExpander{}, &stubEmbedder{}, vecRepo, &stubVideoRepo{videos: videos}, 0.35, discardLogger())

	resp, err := searcher.Search(context.Background(), "I'm feeling anxious", 3, false)
	if err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if vecRepo.gotLimit != 9 {
		t.Errorf("exp overfetch of 9, got %d", vecRepo.gotLimit)
	}
	if len(resp.Results) != 3 {
		t.Errorf("exp 3 results, got %d", len(resp.Results))
	}
	seen := map[model.VideoID]bool{}
	for _, r := range resp.Results {
		if seen[r.VideoID] {
			t.Errorf("duplicate video %s in results", r.VideoID)
		}
		seen[r.VideoID] = true
	}
	// each video keeps its best chunk
	if resp.Results[0].VideoID != "vid0" || resp.Results[0].RelevanceScore != 0.9 {
		t.Errorf("exp best chunk of vid0 first, got %v", resp.Results[0])
	}
}

func TestSearchFiltersByMinScore(t *testing.T) {
	matches := []storage.ChunkMatch{
		{Score: 0.8, VideoID: "vid1", Text: "relevant"},
		{Score: 0.2, VideoID: "vid2", Text: "noise"},
	}
	videos := map[model.VideoID]*model.Video{
		"vid1": {ID: "vid1", Title: "Relevant sermon"},
		"vid2": {ID: "vid2", Title: "Noise"},
	}
	searcher := NewSearcher(&stubExpander{}, &stubEmbedder{}, &stubChunkVecRepo{matches: matches}, &stubVideoRepo{videos: videos}, 0.35, discardLogger())

	resp, err := searcher.Search(context.Background(), "sad", 5, false)
	if err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("exp 1 result, got %d", len(resp.Results))
	}
	if len(resp.Results) == 1 && resp.Results[0].VideoID != "vid1" {
		t.Errorf("exp vid1, got %s", resp.Results[0].VideoID)
	}
}

func TestSearchSkipsMissingVideos(t *testing.T) {
	matches := []storage.ChunkMatch{
		{Score: 0.9, VideoID: "gone", Text: "orphaned chunk"},
		{Score: 0.8, VideoID: "vid1", Text: "live chunk"},
	}
	videos := map[model.VideoID]*model.Video{
		"vid1": {ID: "vid1", Title: "Still here"},
	}
	searcher := NewSearcher(&stubExpander{}, &stubEmbedder{}, &stubChunkVecRepo{matches: matches}, &stubVideoRepo{videos: videos}, 0.35, discardLogger())

	resp, err := searcher.Search(context.Background(), "lonely", 5, false)
	if err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].VideoID != "vid1" {
		t.Errorf("exp only vid1, got %v", resp.Results)
	}
}

func TestSearchDropsFailingVideoLookup(t *testing.T) {
	matches := []storage.ChunkMatch{
		{Score: 0.9, VideoID: "broken", Text: "unreachable metadata"},
		{Score: 0.8, VideoID: "vid1", Text: "fine"},
	}
	videoRepo := &stubVideoRepo{
		videos: map[model.VideoID]*model.Video{
			"vid1": {ID: "vid1", Title: "Still searchable"},
		},
		errs: map[model.VideoID]error{
			"broken": errors.New("connection reset"),
		},
	}
	searcher := NewSearcher(&stubExpander{}, &stubEmbedder{}, &stubChunkVecRepo{matches: matches}, videoRepo, 0.35, discardLogger())

	resp, err := searcher.Search(context.Background(), "hopeless", 5, false)
	if err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].VideoID != "vid1" {
		t.Errorf("exp only vid1, got %v", resp.Results)
	}
}

func TestSearchTruncatesFields(t *testing.T) {
	longDesc := strings.Repeat("d", 300)
	longChunk := strings.Repeat("c", 400)
	matches := []storage.ChunkMatch{
		{Score: 0.87654, VideoID: "vid1", Text: longChunk},
	}
	videos := map[model.VideoID]*model.Video{
		"vid1": {ID: "vid1", Title: "Long", Description: longDesc},
	}
	searcher := NewSearcher(&stubExpander{}, &stubEmbedder{}, &stubChunkVecRepo{matches: matches}, &stubVideoRepo{videos: videos}, 0.35, discardLogger())

	resp, err := searcher.Search(context.Background(), "overwhelmed", 1, false)
	if err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	result := resp.Results[0]
	if len(result.Description) != 200 {
		t.Errorf("exp description of 200, got %d", len(result.Description))
	}
	if !strings.HasSuffix(result.MatchingExcerpt, "...") || len(result.MatchingExcerpt) != 303 {
		t.Errorf("exp excerpt of 300 plus ellipsis, got %d", len(result.MatchingExcerpt))
	}
	if result.RelevanceScore != 0.877 {
		t.Errorf("exp score rounded to 0.877, got %v", result.RelevanceScore)
	}
	if result.YoutubeURL != "https://www.youtube.com/watch?v=vid1" {
		t.Errorf("exp watch url, got %s", result.YoutubeURL)
	}
}

func TestSearchExpansion(t *testing.T) {
	matches := []storage.ChunkMatch{}
	searcher := NewSearcher(&stubExpander{expanded: "peace, trusting God"}, &stubEmbedder{}, &stubChunkVecRepo{matches: matches}, &stubVideoRepo{videos: map[model.VideoID]*model.Video{}}, 0.35, discardLogger())

	resp, err := searcher.Search(context.Background(), "I'm anxious", 5, true)
	if err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if resp.Query != "I'm anxious" {
		t.Errorf("exp literal query preserved, got %q", resp.Query)
	}
	if resp.ExpandedQuery != "peace, trusting God" {
		t.Errorf("exp expanded query, got %q", resp.ExpandedQuery)
	}

	resp, err = searcher.Search(context.Background(), "I'm anxious", 5, false)
	if err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if resp.ExpandedQuery != "" {
		t.Errorf("exp no expanded query, got %q", resp.ExpandedQuery)
	}
}

func TestSearchByMood(t *testing.T) {
	expander := &recordingExpander{}
	searcher := NewSearcher(expander, &stubEmbedder{}, &stubChunkVecRepo{}, &stubVideoRepo{videos: map[model.VideoID]*model.Video{}}, 0.35, discardLogger())

	if _, err := searcher.SearchByMood(context.Background(), "Anxious", 5); err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if expander.got != "I'm feeling anxious and worried about the future" {
		t.Errorf("exp mapped mood prompt, got %q", expander.got)
	}

	if _, err := searcher.SearchByMood(context.Background(), "nostalgic", 5); err != nil {
		t.Errorf("exp nil, got %v", err)
	}
	if expander.got != "I'm feeling nostalgic" {
		t.Errorf("exp fallback prompt, got %q", expander.got)
	}
}

type recordingExpander struct {
	got string
}

func (r *recordingExpander) Expand(_ context.Context, feeling string) string {
	r.got = feeling
	return feeling
}
