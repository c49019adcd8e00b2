package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ewintr.nl/sermonai/model"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/semaphore"
)

// audio extensions yt-dlp may produce, in probe order
var audioExtensions = []string{"mp3", "m4a", "wav", "opus", "webm"}

type DownloaderInfo struct {
	Binary      string
	OutputDir   string
	Format      string
	Quality     string
	Timeout     time.Duration
	MaxParallel int64
}

// YtDlpDownloader fetches the best available audio track through the yt-dlp
// binary. Downloads run through a counting semaphore so at most MaxParallel
// are in flight, and each one is bounded by its own timeout.
type YtDlpDownloader struct {
	binary    string
	outputDir string
	format    string
	quality   string
	timeout   time.Duration
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

func NewYtDlpDownloader(info DownloaderInfo, logger *slog.Logger) *YtDlpDownloader {
	return &YtDlpDownloader{
		binary:    info.Binary,
		outputDir: info.OutputDir,
		format:    info.Format,
		quality:   info.Quality,
		timeout:   info.Timeout,
		sem:       semaphore.NewWeighted(info.MaxParallel),
		logger:    logger,
	}
}

func (d *YtDlpDownloader) DownloadAudio(ctx context.Context, id model.VideoID) (*Audio, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}
	defer d.sem.Release(1)

	if err := os.MkdirAll(d.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}

	d.logger.Info("download started", slog.String("video", string(id)))

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.binary,
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", d.format,
		"--audio-quality", d.quality,
		"--output", filepath.Join(d.outputDir, string(id)+".%(ext)s"),
		"--retries", "3",
		"--continue",
		"--no-progress",
		"--quiet",
		"--no-warnings",
		"https://www.youtube.com/watch?v="+string(id))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %s", ErrDownloadTimeout, d.timeout, id)
		}
		msg := strings.ToLower(stderr.String())
		if strings.Contains(msg, "private video") || strings.Contains(msg, "unavailable") {
			return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, id)
		}

		return nil, fmt.Errorf("%w: %s: %s", ErrDownloadFailed, err, strings.TrimSpace(stderr.String()))
	}

	path, ok := d.AudioPath(id)
	if !ok {
		return nil, fmt.Errorf("%w: output file not found for %s", ErrDownloadFailed, id)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}

	d.logger.Info("download completed", slog.String("video", string(id)), slog.Int64("size_bytes", fi.Size()))

	return &Audio{
		Path:      path,
		Format:    strings.TrimPrefix(filepath.Ext(path), "."),
		SizeBytes: fi.Size(),
	}, nil
}

// AudioPath reports the on-disk location of a previously downloaded audio
// file, if any. Used by retry runs to skip a redundant download.
func (d *YtDlpDownloader) AudioPath(id model.VideoID) (string, bool) {
	for _, ext := range append([]string{d.format}, audioExtensions...) {
		path := filepath.Join(d.outputDir, string(id)+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	return "", false
}
