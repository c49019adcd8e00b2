package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/sermonai/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const transcriptCollection = "transcripts"

type Mongo struct {
	client      *mongo.Client
	transcripts *mongo.Collection
}

func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	m := &Mongo{
		client:      client,
		transcripts: client.Database(database).Collection(transcriptCollection),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.transcripts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "video_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "channel_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create mongodb indexes: %w", err)
	}

	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type MongoTranscriptRepository struct {
	transcripts *mongo.Collection
}

func NewMongoTranscriptRepository(m *Mongo) *MongoTranscriptRepository {
	return &MongoTranscriptRepository{transcripts: m.transcripts}
}

// Upsert stores the transcript keyed by video id, replacing any earlier
// version. The word count is cached at write time.
func (r *MongoTranscriptRepository) Upsert(ctx context.Context, transcript *model.Transcript) error {
	now := time.Now().UTC()
	_, err := r.transcripts.UpdateOne(ctx,
		bson.M{"video_id": transcript.VideoID},
		bson.M{
			"$set": bson.M{
				"channel_id":   transcript.ChannelID,
				"channel_name": transcript.ChannelName,
				"source":       transcript.Source,
				"text":         transcript.Text,
				"segments":     transcript.Segments,
				"language":     transcript.Language,
				"word_count":   transcript.CountWords(),
				"updated_at":   now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert transcript: %w", err)
	}

	return nil
}

func (r *MongoTranscriptRepository) FindByVideoID(ctx context.Context, id model.VideoID) (*model.Transcript, error) {
	var transcript model.Transcript
	err := r.transcripts.FindOne(ctx, bson.M{"video_id": id}).Decode(&transcript)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transcript: %w", err)
	}

	return &transcript, nil
}

func (r *MongoTranscriptRepository) ListVideoIDs(ctx context.Context) ([]model.VideoID, error) {
	raw, err := r.transcripts.Distinct(ctx, "video_id", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript video ids: %w", err)
	}

	ids := make([]model.VideoID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			ids = append(ids, model.VideoID(id))
		}
	}

	return ids, nil
}

func (r *MongoTranscriptRepository) Delete(ctx context.Context, id model.VideoID) error {
	if _, err := r.transcripts.DeleteOne(ctx, bson.M{"video_id": id}); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}

	return nil
}
