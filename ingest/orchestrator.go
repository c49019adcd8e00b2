package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"ewintr.nl/sermonai/fetch"
	"ewintr.nl/sermonai/model"
	"ewintr.nl/sermonai/storage"
	"ewintr.nl/sermonai/transcribe"
	"golang.org/x/exp/slog"
)

const (
	DefaultMinDuration   = 15 * time.Minute
	DefaultThrottleDelay = 3 * time.Second
	DefaultMaxRetries    = 3
)

// SyncOptions control one channel sync run.
type SyncOptions struct {
	Limit      int
	Download   bool
	Transcribe bool
}

type SyncResult struct {
	ChannelID   model.ChannelID `json:"channel_id"`
	ChannelName string          `json:"channel_name"`
	Found       int             `json:"found"`
	Skipped     int             `json:"skipped"`
	Created     int             `json:"created"`
	Downloaded  int             `json:"downloaded"`
	Transcribed int             `json:"transcribed"`
	Failed      int             `json:"failed"`
}

type RetryResult struct {
	Retried   int `json:"retried"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// VideoStatus combines a video's metadata with its pipeline record.
type VideoStatus struct {
	Video     *model.Video     `json:"video"`
	Ingestion *model.Ingestion `json:"ingestion"`
}

// Orchestrator drives videos through the ingestion state machine:
// pending, downloading, downloaded, transcribing, completed, with failed
// as the recoverable sidetrack. Videos whose platform captions can be
// fetched skip the download path entirely and go straight to completed.
type Orchestrator struct {
	channelRepo    storage.ChannelRepository
	videoRepo      storage.VideoRepository
	ingestionRepo  storage.IngestionRepository
	transcriptRepo storage.TranscriptRepository
	metadata       fetch.MetadataFetcher
	audio          fetch.AudioFetcher
	captions       fetch.CaptionFetcher
	transcriber    transcribe.Transcriber
	minDuration    time.Duration
	throttleDelay  time.Duration
	maxRetries     int
	logger         *slog.Logger
}

type OrchestratorOptions struct {
	MinDuration   time.Duration
	ThrottleDelay time.Duration
	MaxRetries    int
}

func NewOrchestrator(channelRepo storage.ChannelRepository, videoRepo storage.VideoRepository, ingestionRepo storage.IngestionRepository, transcriptRepo storage.TranscriptRepository, metadata fetch.MetadataFetcher, audio fetch.AudioFetcher, captions fetch.CaptionFetcher, transcriber transcribe.Transcriber, opts OrchestratorOptions, logger *slog.Logger) *Orchestrator {
	if opts.MinDuration <= 0 {
		opts.MinDuration = DefaultMinDuration
	}
	if opts.ThrottleDelay < 0 {
		opts.ThrottleDelay = 0
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}

	return &Orchestrator{
		channelRepo:    channelRepo,
		videoRepo:      videoRepo,
		ingestionRepo:  ingestionRepo,
		transcriptRepo: transcriptRepo,
		metadata:       metadata,
		audio:          audio,
		captions:       captions,
		transcriber:    transcriber,
		minDuration:    opts.MinDuration,
		throttleDelay:  opts.ThrottleDelay,
		maxRetries:     opts.MaxRetries,
		logger:         logger,
	}
}

// SyncChannel discovers a channel's videos, admits the ones that look like
// full sermons and pushes admitted videos through the pipeline. The last
// sync time is recorded even when individual videos fail.
func (o *Orchestrator) SyncChannel(ctx context.Context, channelURL string, opts SyncOptions) (*SyncResult, error) {
	info, err := o.metadata.FetchChannelInfo(ctx, channelURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel: %w", err)
	}

	channel, err := o.channelRepo.FindByID(ctx, info.ID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		channel = &model.Channel{
			ID:       info.ID,
			Name:     info.Name,
			URL:      info.URL,
			IsActive: true,
		}
		if err := o.channelRepo.Create(ctx, channel); err != nil {
			return nil, fmt.Errorf("failed to create channel: %w", err)
		}
		o.logger.Info("channel registered", slog.String("channel", string(info.ID)), slog.String("name", info.Name))
	}

	videos, err := o.metadata.FetchChannelVideos(ctx, channelURL, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel videos: %w", err)
	}

	result := &SyncResult{
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
		Found:       len(videos),
	}

	for i, vi := range videos {
		if i > 0 {
			if err := o.throttle(ctx); err != nil {
				return result, err
			}
		}
		o.syncVideo(ctx, channel, vi, opts, result)
	}

	if err := o.channelRepo.SetLastSync(ctx, channel.ID, time.Now()); err != nil {
		o.logger.Error("failed to record channel sync time", slog.String("channel", string(channel.ID)), slog.String("error", err.Error()))
	}

	o.logger.Info("channel sync done",
		slog.String("channel", string(channel.ID)),
		slog.Int("found", result.Found),
		slog.Int("skipped", result.Skipped),
		slog.Int("created", result.Created),
		slog.Int("transcribed", result.Transcribed),
		slog.Int("failed", result.Failed))

	return result, nil
}

// SyncAllChannels runs a sync for every active channel. A failing channel
// never aborts the batch.
func (o *Orchestrator) SyncAllChannels(ctx context.Context, opts SyncOptions) ([]*SyncResult, error) {
	channels, err := o.channelRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active channels: %w", err)
	}

	results := make([]*SyncResult, 0, len(channels))
	for _, channel := range channels {
		result, err := o.SyncChannel(ctx, channel.URL, opts)
		if err != nil {
			o.logger.Error("failed to sync channel", slog.String("channel", string(channel.ID)), slog.String("error", err.Error()))
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

func (o *Orchestrator) syncVideo(ctx context.Context, channel *model.Channel, vi fetch.VideoInfo, opts SyncOptions, result *SyncResult) {
	existing, err := o.videoRepo.FindByID(ctx, vi.ID)
	if err != nil {
		o.logger.Error("failed to look up video", slog.String("video", string(vi.ID)), slog.String("error", err.Error()))
		result.Failed++
		return
	}

	if existing == nil {
		if !vi.DurationKnown {
			full, err := o.metadata.FetchVideoInfo(ctx, vi.ID)
			if err != nil {
				o.logger.Warn("failed to fetch video details, skipping", slog.String("video", string(vi.ID)), slog.String("error", err.Error()))
				result.Failed++
				return
			}
			vi = *full
		}
		// shorts and clips are not sermons
		if vi.Duration < o.minDuration {
			result.Skipped++
			return
		}

		video := videoFromInfo(vi)
		if err := o.videoRepo.Upsert(ctx, video); err != nil {
			o.logger.Error("failed to save video", slog.String("video", string(vi.ID)), slog.String("error", err.Error()))
			result.Failed++
			return
		}
		if err := o.ingestionRepo.Create(ctx, vi.ID); err != nil {
			o.logger.Error("failed to create ingestion record", slog.String("video", string(vi.ID)), slog.String("error", err.Error()))
			result.Failed++
			return
		}
		result.Created++
	} else {
		// re-sync refreshes mutable metadata, list views without
		// duration keep the stored value
		video := videoFromInfo(vi)
		if !vi.DurationKnown {
			video.Duration = existing.Duration
			video.ViewCount = existing.ViewCount
		}
		if err := o.videoRepo.Upsert(ctx, video); err != nil {
			o.logger.Error("failed to refresh video", slog.String("video", string(vi.ID)), slog.String("error", err.Error()))
			result.Failed++
			return
		}
		// an earlier crash between the video and ingestion inserts
		// leaves the record missing, create is insert-or-ignore so a
		// re-sync heals it
		if err := o.ingestionRepo.Create(ctx, vi.ID); err != nil {
			o.logger.Error("failed to create ingestion record", slog.String("video", string(vi.ID)), slog.String("error", err.Error()))
			result.Failed++
			return
		}
	}

	if !opts.Transcribe {
		return
	}

	ing, err := o.ingestionRepo.FindByVideoID(ctx, vi.ID)
	if err != nil || ing == nil {
		if err != nil {
			o.logger.Error("failed to load ingestion record", slog.String("video", string(vi.ID)), slog.String("error", err.Error()))
		}
		return
	}
	if ing.Status != model.StatusPending && ing.Status != model.StatusFailed {
		return
	}

	if err := o.processVideo(ctx, channel, vi.ID, "", opts.Download, true, result); err != nil {
		result.Failed++
	}
}

// processVideo runs one video through captions-first transcription. A
// non-empty audioPath skips the download and goes straight to whisper.
// Retries pass tryCaptions false: a video that ended up failed already had
// its caption chance, redoing it would mask whatever broke the audio path.
func (o *Orchestrator) processVideo(ctx context.Context, channel *model.Channel, id model.VideoID, audioPath string, download, tryCaptions bool, result *SyncResult) error {
	if audioPath == "" {
		if tryCaptions {
			captions, err := o.captions.ExtractCaptions(ctx, id)
			if err == nil && captions != nil {
				if err := o.storeTranscript(ctx, channel, id, model.SourceCaptions, captions.Text, captions.Segments, captions.Language, ""); err != nil {
					o.markFailed(ctx, id, err)
					return err
				}
				result.Transcribed++
				return nil
			}
			if err != nil {
				o.logger.Warn("caption extraction failed, falling back to audio", slog.String("video", string(id)), slog.String("error", err.Error()))
			}
		}

		if !download {
			// leave it pending so a later run with download enabled
			// picks it up
			if err := o.ingestionRepo.ResetPending(ctx, id); err != nil {
				o.logger.Error("failed to reset ingestion", slog.String("video", string(id)), slog.String("error", err.Error()))
			}
			return nil
		}

		if err := o.ingestionRepo.MarkDownloading(ctx, id); err != nil {
			return err
		}
		audio, err := o.audio.DownloadAudio(ctx, id)
		if err != nil {
			o.markFailed(ctx, id, err)
			return err
		}
		if err := o.ingestionRepo.MarkDownloaded(ctx, id, audio.Path, audio.Format, audio.SizeBytes); err != nil {
			return err
		}
		result.Downloaded++
		audioPath = audio.Path
	}

	if err := o.ingestionRepo.MarkTranscribing(ctx, id); err != nil {
		return err
	}
	tr, err := o.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		o.markFailed(ctx, id, err)
		return err
	}
	if err := o.storeTranscript(ctx, channel, id, model.SourceWhisper, tr.Text, tr.Segments, tr.Language, tr.Path); err != nil {
		o.markFailed(ctx, id, err)
		return err
	}
	result.Transcribed++

	return nil
}

func (o *Orchestrator) storeTranscript(ctx context.Context, channel *model.Channel, id model.VideoID, source model.TranscriptSource, text string, segments []model.Segment, language, path string) error {
	transcript := &model.Transcript{
		VideoID:  id,
		Source:   source,
		Text:     text,
		Segments: segments,
		Language: language,
	}
	if channel != nil {
		transcript.ChannelID = channel.ID
		transcript.ChannelName = channel.Name
	}
	transcript.WordCount = transcript.CountWords()

	if err := o.transcriptRepo.Upsert(ctx, transcript); err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}
	if err := o.ingestionRepo.MarkCompleted(ctx, id, path, text); err != nil {
		return err
	}

	o.logger.Info("video transcribed",
		slog.String("video", string(id)),
		slog.String("source", string(source)),
		slog.Int("words", transcript.WordCount))

	return nil
}

func (o *Orchestrator) markFailed(ctx context.Context, id model.VideoID, cause error) {
	o.logger.Error("video ingestion failed", slog.String("video", string(id)), slog.String("error", cause.Error()))
	if err := o.ingestionRepo.MarkFailed(ctx, id, cause.Error()); err != nil {
		o.logger.Error("failed to record failure", slog.String("video", string(id)), slog.String("error", err.Error()))
	}
}

// RetryFailed picks up failed videos below the retry ceiling. Videos whose
// audio file is still on disk go straight back to transcription, the rest
// redo the download.
func (o *Orchestrator) RetryFailed(ctx context.Context, limit int) (*RetryResult, error) {
	records, err := o.ingestionRepo.FindRetryable(ctx, o.maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find retryable videos: %w", err)
	}

	result := &RetryResult{}
	for i, ing := range records {
		if i > 0 {
			if err := o.throttle(ctx); err != nil {
				return result, err
			}
		}
		result.Retried++

		channel, err := o.channelForVideo(ctx, ing.VideoID)
		if err != nil {
			o.logger.Error("failed to load channel for retry", slog.String("video", string(ing.VideoID)), slog.String("error", err.Error()))
		}

		audioPath := ing.AudioPath
		if audioPath != "" {
			if _, err := os.Stat(audioPath); err != nil {
				audioPath = ""
			}
		}

		sub := &SyncResult{}
		if err := o.processVideo(ctx, channel, ing.VideoID, audioPath, true, false, sub); err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	return result, nil
}

func (o *Orchestrator) channelForVideo(ctx context.Context, id model.VideoID) (*model.Channel, error) {
	video, err := o.videoRepo.FindByID(ctx, id)
	if err != nil || video == nil {
		return nil, err
	}

	return o.channelRepo.FindByID(ctx, video.ChannelID)
}

// Stats reports ingestion record counts per status.
func (o *Orchestrator) Stats(ctx context.Context) (model.IngestionStats, error) {
	return o.ingestionRepo.Stats(ctx)
}

// VideoStatus returns a video and its pipeline record, nil when unknown.
func (o *Orchestrator) VideoStatus(ctx context.Context, id model.VideoID) (*VideoStatus, error) {
	video, err := o.videoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, nil
	}
	ing, err := o.ingestionRepo.FindByVideoID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &VideoStatus{Video: video, Ingestion: ing}, nil
}

func (o *Orchestrator) throttle(ctx context.Context) error {
	if o.throttleDelay == 0 {
		return nil
	}
	select {
	case <-time.After(o.throttleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func videoFromInfo(vi fetch.VideoInfo) *model.Video {
	return &model.Video{
		ID:           vi.ID,
		ChannelID:    vi.ChannelID,
		Title:        vi.Title,
		Description:  vi.Description,
		Duration:     vi.Duration,
		PublishedAt:  vi.PublishedAt,
		ThumbnailURL: vi.ThumbnailURL,
		ViewCount:    vi.ViewCount,
	}
}
