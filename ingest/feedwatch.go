package ingest

import (
	"context"
	"time"

	"ewintr.nl/sermonai/fetch"
	"ewintr.nl/sermonai/model"
	"golang.org/x/exp/slog"
)

// FeedWatcher polls a miniflux instance for new videos on subscribed
// channels and enqueues the ones that pass admission. Entries are marked
// read once handled so they are never picked up twice.
type FeedWatcher struct {
	orchestrator *Orchestrator
	feedReader   fetch.FeedReader
	interval     time.Duration
	logger       *slog.Logger
}

func NewFeedWatcher(orchestrator *Orchestrator, feedReader fetch.FeedReader, interval time.Duration, logger *slog.Logger) *FeedWatcher {
	return &FeedWatcher{
		orchestrator: orchestrator,
		feedReader:   feedReader,
		interval:     interval,
		logger:       logger,
	}
}

func (f *FeedWatcher) Run(ctx context.Context) {
	f.logger.Info("started feed watcher", slog.Duration("interval", f.interval))
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.readOnce(ctx)
		}
	}
}

func (f *FeedWatcher) readOnce(ctx context.Context) {
	entries, err := f.feedReader.Unread()
	if err != nil {
		f.logger.Error("failed to fetch unread entries", slog.String("error", err.Error()))
		return
	}
	if len(entries) == 0 {
		return
	}
	f.logger.Info("fetched unread entries", slog.Int("count", len(entries)))

	for _, entry := range entries {
		if err := f.handleEntry(ctx, entry); err != nil {
			f.logger.Error("failed to process feed entry",
				slog.String("video", entry.YouTubeID),
				slog.String("error", err.Error()))
			continue
		}
		if err := f.feedReader.MarkRead(entry.EntryID); err != nil {
			f.logger.Error("failed to mark entry read", slog.String("error", err.Error()))
		}
	}
}

func (f *FeedWatcher) handleEntry(ctx context.Context, entry fetch.FeedEntry) error {
	id := model.VideoID(entry.YouTubeID)

	existing, err := f.orchestrator.videoRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	info, err := f.orchestrator.metadata.FetchVideoInfo(ctx, id)
	if err != nil {
		return err
	}
	if info.Duration < f.orchestrator.minDuration {
		f.logger.Info("skipping short video", slog.String("video", entry.YouTubeID))
		return nil
	}

	// only videos from active subscribed channels get enqueued
	channel, err := f.orchestrator.channelRepo.FindByID(ctx, info.ChannelID)
	if err != nil {
		return err
	}
	if channel == nil || !channel.IsActive {
		f.logger.Info("skipping video from unknown or inactive channel",
			slog.String("video", entry.YouTubeID),
			slog.String("channel", string(info.ChannelID)))
		return nil
	}

	if err := f.orchestrator.videoRepo.Upsert(ctx, videoFromInfo(*info)); err != nil {
		return err
	}
	if err := f.orchestrator.ingestionRepo.Create(ctx, id); err != nil {
		return err
	}

	f.logger.Info("enqueued new video", slog.String("video", entry.YouTubeID), slog.String("channel", channel.Name))

	return nil
}
