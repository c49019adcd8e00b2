package transcribe

import (
	"context"
	"errors"

	"ewintr.nl/sermonai/model"
)

var (
	ErrAudioFileNotFound   = errors.New("audio file not found")
	ErrModelLoad           = errors.New("could not load transcription model")
	ErrTranscriptionFailed = errors.New("transcription failed")
)

type Result struct {
	Text     string
	Segments []model.Segment
	Language string
	Path     string
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}
