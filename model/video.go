package model

import "time"

type VideoID string

type Video struct {
	ID           VideoID
	ChannelID    ChannelID
	Title        string
	Description  string
	Duration     time.Duration
	PublishedAt  time.Time
	ThumbnailURL string
	ViewCount    int64
	CreatedAt    time.Time
}

// URL returns the public watch URL for the video.
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + string(v.ID)
}
