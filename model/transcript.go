package model

import (
	"strings"
	"time"
)

type TranscriptSource string

const (
	SourceCaptions TranscriptSource = "youtube_captions"
	SourceWhisper  TranscriptSource = "whisper"
)

// Segment is a timed slice of a transcript.
type Segment struct {
	Start float64 `bson:"start" json:"start"`
	End   float64 `bson:"end" json:"end"`
	Text  string  `bson:"text" json:"text"`
}

// Transcript is the full text of one video, keyed by video id. ChannelName
// is denormalized so search results can be rendered without a join.
type Transcript struct {
	VideoID     VideoID          `bson:"video_id" json:"video_id"`
	ChannelID   ChannelID        `bson:"channel_id" json:"channel_id"`
	ChannelName string           `bson:"channel_name" json:"channel_name"`
	Source      TranscriptSource `bson:"source" json:"source"`
	Text        string           `bson:"text" json:"text"`
	Segments    []Segment        `bson:"segments" json:"segments"`
	Language    string           `bson:"language" json:"language"`
	WordCount   int              `bson:"word_count" json:"word_count"`
	CreatedAt   time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `bson:"updated_at" json:"updated_at"`
}

func (t Transcript) CountWords() int {
	return len(strings.Fields(t.Text))
}
