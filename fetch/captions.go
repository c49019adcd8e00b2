package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ewintr.nl/sermonai/model"
	"ewintr.nl/sermonai/transcript"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/semaphore"
)

// YtDlpCaptionFetcher retrieves platform captions through yt-dlp without
// downloading any audio. Manual subtitles are preferred over auto-generated
// ones when both exist.
type YtDlpCaptionFetcher struct {
	binary    string
	outputDir string
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

func NewYtDlpCaptionFetcher(binary, outputDir string, logger *slog.Logger) *YtDlpCaptionFetcher {
	return &YtDlpCaptionFetcher{
		binary:    binary,
		outputDir: outputDir,
		sem:       semaphore.NewWeighted(2),
		logger:    logger,
	}
}

func (c *YtDlpCaptionFetcher) ExtractCaptions(ctx context.Context, id model.VideoID) (*Captions, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.binary,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en,en-orig",
		"--sub-format", "vtt",
		"--output", filepath.Join(c.outputDir, string(id)),
		"--quiet",
		"--no-warnings",
		"https://www.youtube.com/watch?v="+string(id))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("caption extraction failed: %s: %s", err, strings.TrimSpace(stderr.String()))
	}

	files, err := filepath.Glob(filepath.Join(c.outputDir, string(id)+"*.vtt"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		c.logger.Info("no captions found", slog.String("video", string(id)))
		return nil, nil
	}
	defer func() {
		for _, f := range files {
			os.Remove(f)
		}
	}()

	content, err := os.ReadFile(pickCaptionFile(files))
	if err != nil {
		return nil, err
	}

	text, segments := transcript.ParseVTT(string(content))
	if text == "" {
		c.logger.Info("empty captions", slog.String("video", string(id)))
		return nil, nil
	}

	c.logger.Info("captions extracted",
		slog.String("video", string(id)),
		slog.Int("text_length", len(text)),
		slog.Int("segments", len(segments)))

	return &Captions{
		Text:     text,
		Segments: segments,
		Language: "en",
	}, nil
}

// pickCaptionFile prefers a manual english track over the auto-generated
// en-orig one.
func pickCaptionFile(files []string) string {
	for _, f := range files {
		if strings.Contains(f, ".en.") && !strings.Contains(f, "en-orig") {
			return f
		}
	}

	return files[0]
}
