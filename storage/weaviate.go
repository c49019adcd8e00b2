package storage

import (
	"context"
	"fmt"
	"net/http"

	"ewintr.nl/sermonai/model"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	className       = "SermonChunk"
	upsertBatchSize = 100
)

type Weaviate struct {
	client *weaviate.Client
}

func NewWeaviate(scheme, host, apiKey string) (*Weaviate, error) {
	config := weaviate.Config{
		Scheme: scheme,
		Host:   host,
	}
	if apiKey != "" {
		config.AuthConfig = auth.ApiKey{Value: apiKey}
	}

	c, err := weaviate.NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Weaviate{client: c}, nil
}

// EnsureSchema creates the chunk class when it does not exist yet. Vectors
// are supplied by the embedding pipeline, so the class has no vectorizer.
func (w *Weaviate) EnsureSchema(ctx context.Context) error {
	exists, err := w.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if exists {
		return nil
	}

	classObj := &models.Class{
		Class:      className,
		Vectorizer: "none",
		VectorIndexConfig: map[string]any{
			"distance": "cosine",
		},
		Properties: []*models.Property{
			{Name: "videoId", DataType: []string{"text"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "text", DataType: []string{"text"}},
			{Name: "startWord", DataType: []string{"int"}},
			{Name: "endWord", DataType: []string{"int"}},
			{Name: "source", DataType: []string{"text"}},
		},
	}

	return w.client.Schema().ClassCreator().WithClass(classObj).Do(ctx)
}

// ResetSchema drops and recreates the chunk class for a full re-index.
func (w *Weaviate) ResetSchema(ctx context.Context) error {
	if err := w.client.Schema().ClassDeleter().WithClassName(className).Do(ctx); err != nil {
		// Weaviate will return a 400 if the class does not exist, so this is allowed, only return an error if it's not a 400
		if status, ok := err.(*fault.WeaviateClientError); ok && status.StatusCode != http.StatusBadRequest {
			return err
		}
	}

	return w.EnsureSchema(ctx)
}

func (w *Weaviate) Save(ctx context.Context, chunks []model.Chunk, vectors [][]float32, source model.TranscriptSource) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk and vector counts do not match: %d vs %d", len(chunks), len(vectors))
	}

	objects := make([]*models.Object, 0, len(chunks))
	for i, chunk := range chunks {
		objects = append(objects, &models.Object{
			ID:    strfmt.UUID(uuid.NewString()),
			Class: className,
			Properties: map[string]any{
				"videoId":    string(chunk.VideoID),
				"chunkIndex": chunk.ChunkIndex,
				"text":       chunk.Text,
				"startWord":  chunk.StartWord,
				"endWord":    chunk.EndWord,
				"source":     string(source),
			},
			Vector: vectors[i],
		})
	}

	for start := 0; start < len(objects); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(objects) {
			end = len(objects)
		}
		if _, err := w.client.Batch().ObjectsBatcher().WithObjects(objects[start:end]...).Do(ctx); err != nil {
			return fmt.Errorf("failed to save chunk batch: %w", err)
		}
	}

	return nil
}

// Query returns the nearest chunks for the vector, ordered by descending
// cosine certainty.
func (w *Weaviate) Query(ctx context.Context, vector []float32, limit int) ([]ChunkMatch, error) {
	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	fields := []graphql.Field{
		{Name: "videoId"},
		{Name: "chunkIndex"},
		{Name: "text"},
		{Name: "startWord"},
		{Name: "endWord"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	resp, err := w.client.GraphQL().Get().
		WithClassName(className).
		WithNearVector(nearVector).
		WithFields(fields...).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("failed to query chunks: %s", resp.Errors[0].Message)
	}

	get, ok := resp.Data["Get"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected query response shape")
	}
	items, ok := get[className].([]any)
	if !ok {
		return nil, nil
	}

	matches := make([]ChunkMatch, 0, len(items))
	for _, item := range items {
		props, ok := item.(map[string]any)
		if !ok {
			continue
		}
		match := ChunkMatch{
			VideoID:    model.VideoID(asString(props["videoId"])),
			ChunkIndex: int(asFloat(props["chunkIndex"])),
			Text:       asString(props["text"]),
			StartWord:  int(asFloat(props["startWord"])),
			EndWord:    int(asFloat(props["endWord"])),
			Source:     asString(props["source"]),
		}
		if add, ok := props["_additional"].(map[string]any); ok {
			match.Score = asFloat(add["certainty"])
		}
		matches = append(matches, match)
	}

	return matches, nil
}

func (w *Weaviate) DeleteVideo(ctx context.Context, id model.VideoID) error {
	where := filters.Where().
		WithPath([]string{"videoId"}).
		WithOperator(filters.Equal).
		WithValueText(string(id))

	if _, err := w.client.Batch().ObjectsBatchDeleter().
		WithClassName(className).
		WithWhere(where).
		Do(ctx); err != nil {
		return fmt.Errorf("failed to delete chunks for video: %w", err)
	}

	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
