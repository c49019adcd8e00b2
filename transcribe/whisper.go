package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ewintr.nl/sermonai/model"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/semaphore"
)

type WhisperInfo struct {
	Binary    string
	Model     string
	OutputDir string
}

// Whisper shells out to the whisper CLI. Transcription is memory heavy, so
// only one run is allowed at a time regardless of how many callers there are.
type Whisper struct {
	binary    string
	model     string
	outputDir string
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

func NewWhisper(info WhisperInfo, logger *slog.Logger) *Whisper {
	return &Whisper{
		binary:    info.Binary,
		model:     info.Model,
		outputDir: info.OutputDir,
		sem:       semaphore.NewWeighted(1),
		logger:    logger,
	}
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAudioFileNotFound, audioPath)
	}

	if err := w.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer w.sem.Release(1)

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, err
	}

	w.logger.Info("transcribing audio", slog.String("path", audioPath), slog.String("model", w.model))

	cmd := exec.CommandContext(ctx, w.binary,
		audioPath,
		"--model", w.model,
		"--language", "en",
		"--output_format", "json",
		"--output_dir", w.outputDir,
		"--verbose", "False")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.ToLower(stderr.String())
		if strings.Contains(msg, "checkpoint") || strings.Contains(msg, "model") && strings.Contains(msg, "download") {
			return nil, fmt.Errorf("%w: %s", ErrModelLoad, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrTranscriptionFailed, err, strings.TrimSpace(stderr.String()))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	outPath := filepath.Join(w.outputDir, base+".json")
	result, err := parseWhisperOutput(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptionFailed, err)
	}

	w.logger.Info("transcription done",
		slog.String("path", audioPath),
		slog.Int("text_length", len(result.Text)),
		slog.Int("segments", len(result.Segments)))

	return result, nil
}

type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func parseWhisperOutput(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out whisperOutput
	if err := json.Unmarshal(content, &out); err != nil {
		return nil, err
	}

	segments := make([]model.Segment, 0, len(out.Segments))
	for _, s := range out.Segments {
		segments = append(segments, model.Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}

	return &Result{
		Text:     strings.TrimSpace(out.Text),
		Segments: segments,
		Language: out.Language,
		Path:     path,
	}, nil
}
