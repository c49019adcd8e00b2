package model

import "time"

type ChannelID string

// Channel is a YouTube channel whose sermons are ingested.
type Channel struct {
	ID         ChannelID
	Name       string
	URL        string
	IsActive   bool
	LastSyncAt time.Time
	CreatedAt  time.Time
}
