package search

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"ewintr.nl/sermonai/model"
	"ewintr.nl/sermonai/storage"
	"golang.org/x/exp/slog"
)

const (
	DefaultLimit    = 5
	DefaultMinScore = 0.35

	// overfetchFactor widens the vector query so that deduplication by
	// video can still fill the requested limit.
	overfetchFactor = 3

	descriptionLimit = 200
	excerptLimit     = 300
)

// moodPrompts maps predefined mood categories to the feeling sentence that
// is expanded and searched. Unknown moods fall through to "I'm feeling X".
var moodPrompts = map[string]string{
	"anxious":     "I'm feeling anxious and worried about the future",
	"sad":         "I'm feeling sad and going through a difficult time",
	"grieving":    "I'm grieving and dealing with loss",
	"lost":        "I feel lost and confused about my purpose",
	"angry":       "I'm feeling angry and frustrated",
	"grateful":    "I'm feeling grateful and want to praise God",
	"hopeless":    "I'm feeling hopeless and need encouragement",
	"fearful":     "I'm feeling fearful and need courage",
	"lonely":      "I'm feeling lonely and isolated",
	"overwhelmed": "I'm feeling overwhelmed and stressed",
}

// Moods lists the predefined mood categories.
func Moods() []string {
	moods := make([]string, 0, len(moodPrompts))
	for m := range moodPrompts {
		moods = append(moods, m)
	}
	return moods
}

type Result struct {
	VideoID         model.VideoID `json:"video_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	DurationSeconds int64         `json:"duration_seconds"`
	PublishedAt     time.Time     `json:"published_at"`
	ThumbnailURL    string        `json:"thumbnail_url"`
	YoutubeURL      string        `json:"youtube_url"`
	RelevanceScore  float64       `json:"relevance_score"`
	MatchingExcerpt string        `json:"matching_excerpt"`
}

type Response struct {
	Query         string   `json:"query"`
	ExpandedQuery string   `json:"expanded_query,omitempty"`
	Results       []Result `json:"results"`
	TotalResults  int      `json:"total_results"`
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher finds sermons that can help with how someone is feeling.
type Searcher struct {
	expander     Expander
	embedder     Embedder
	chunkVecRepo storage.ChunkVecRepository
	videoRepo    storage.VideoRepository
	minScore     float64
	logger       *slog.Logger
}

func NewSearcher(expander Expander, embedder Embedder, chunkVecRepo storage.ChunkVecRepository, videoRepo storage.VideoRepository, minScore float64, logger *slog.Logger) *Searcher {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	return &Searcher{
		expander:     expander,
		embedder:     embedder,
		chunkVecRepo: chunkVecRepo,
		videoRepo:    videoRepo,
		minScore:     minScore,
		logger:       logger,
	}
}

// Search expands the feeling into search terms, embeds them, queries the
// chunk index wide, then dedupes by video keeping each video's best chunk.
func (s *Searcher) Search(ctx context.Context, feeling string, limit int, expandQuery bool) (*Response, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := feeling
	if expandQuery {
		query = s.expander.Expand(ctx, feeling)
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected one query vector, got %d", len(vectors))
	}

	matches, err := s.chunkVecRepo.Query(ctx, vectors[0], limit*overfetchFactor)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}

	results := make([]Result, 0, limit)
	seen := map[model.VideoID]bool{}
	for _, match := range matches {
		if match.Score < s.minScore {
			continue
		}
		if seen[match.VideoID] {
			continue
		}

		video, err := s.videoRepo.FindByID(ctx, match.VideoID)
		if err != nil {
			// a broken candidate should not sink the whole search
			s.logger.Warn("failed to load video, dropping match",
				slog.String("video", string(match.VideoID)),
				slog.String("error", err.Error()))
			continue
		}
		seen[match.VideoID] = true
		if video == nil {
			// indexed chunk without a video record, skip silently
			continue
		}

		results = append(results, Result{
			VideoID:         video.ID,
			Title:           video.Title,
			Description:     truncate(video.Description, descriptionLimit),
			DurationSeconds: int64(video.Duration.Seconds()),
			PublishedAt:     video.PublishedAt,
			ThumbnailURL:    video.ThumbnailURL,
			YoutubeURL:      video.URL(),
			RelevanceScore:  math.Round(match.Score*1000) / 1000,
			MatchingExcerpt: excerpt(match.Text, excerptLimit),
		})
		if len(results) >= limit {
			break
		}
	}

	s.logger.Info("search completed",
		slog.Int("matches", len(matches)),
		slog.Int("results", len(results)))

	resp := &Response{
		Query:        feeling,
		Results:      results,
		TotalResults: len(results),
	}
	if expandQuery {
		resp.ExpandedQuery = query
	}

	return resp, nil
}

// SearchByMood maps a predefined mood category to its feeling sentence and
// runs a regular search with expansion enabled.
func (s *Searcher) SearchByMood(ctx context.Context, mood string, limit int) (*Response, error) {
	feeling, ok := moodPrompts[strings.ToLower(mood)]
	if !ok {
		feeling = fmt.Sprintf("I'm feeling %s", mood)
	}

	return s.Search(ctx, feeling, limit, true)
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}

func excerpt(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
