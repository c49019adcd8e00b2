package fetch

import (
	"context"
	"errors"
	"time"

	"ewintr.nl/sermonai/model"
)

var (
	ErrChannelNotFound  = errors.New("channel not found")
	ErrVideoUnavailable = errors.New("video unavailable")
	ErrDownloadFailed   = errors.New("download failed")
	ErrDownloadTimeout  = errors.New("download timed out")
)

type ChannelInfo struct {
	ID   model.ChannelID
	Name string
	URL  string
}

// VideoInfo is video metadata as the platform reports it. List views do not
// include duration or view count, DurationKnown tells the caller whether a
// full metadata fetch is still needed.
type VideoInfo struct {
	ID            model.VideoID
	ChannelID     model.ChannelID
	Title         string
	Description   string
	Duration      time.Duration
	DurationKnown bool
	PublishedAt   time.Time
	ThumbnailURL  string
	ViewCount     int64
}

type MetadataFetcher interface {
	FetchChannelInfo(ctx context.Context, channelURL string) (*ChannelInfo, error)
	FetchChannelVideos(ctx context.Context, channelURL string, limit int) ([]VideoInfo, error)
	FetchVideoInfo(ctx context.Context, id model.VideoID) (*VideoInfo, error)
}

type Audio struct {
	Path      string
	Format    string
	SizeBytes int64
}

type AudioFetcher interface {
	DownloadAudio(ctx context.Context, id model.VideoID) (*Audio, error)
}

type Captions struct {
	Text     string
	Segments []model.Segment
	Language string
}

// CaptionFetcher returns (nil, nil) when a video simply has no captions.
// That is the common case, not an error.
type CaptionFetcher interface {
	ExtractCaptions(ctx context.Context, id model.VideoID) (*Captions, error)
}
