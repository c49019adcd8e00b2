package model

import "time"

type IngestionStatus string

const (
	StatusPending      IngestionStatus = "pending"
	StatusDownloading  IngestionStatus = "downloading"
	StatusDownloaded   IngestionStatus = "downloaded"
	StatusTranscribing IngestionStatus = "transcribing"
	StatusCompleted    IngestionStatus = "completed"
	StatusFailed       IngestionStatus = "failed"
)

// Ingestion tracks a single video through the pipeline. There is exactly
// one record per video. ErrorCount only ever goes up, retry eligibility is
// decided against a ceiling, not by resetting the counter.
type Ingestion struct {
	VideoID        VideoID
	Status         IngestionStatus
	AudioPath      string
	AudioFormat    string
	AudioSizeBytes int64
	TranscriptPath string
	TranscriptText string
	ErrorMessage   string
	ErrorCount     int

	DownloadStartedAt        time.Time
	DownloadCompletedAt      time.Time
	TranscriptionStartedAt   time.Time
	TranscriptionCompletedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IngestionStats counts ingestion records per status.
type IngestionStats struct {
	Pending      int
	Downloading  int
	Downloaded   int
	Transcribing int
	Completed    int
	Failed       int
}

func (s IngestionStats) Total() int {
	return s.Pending + s.Downloading + s.Downloaded + s.Transcribing + s.Completed + s.Failed
}
