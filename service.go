package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"ewintr.nl/sermonai/fetch"
	"ewintr.nl/sermonai/handler"
	"ewintr.nl/sermonai/index"
	"ewintr.nl/sermonai/ingest"
	"ewintr.nl/sermonai/search"
	"ewintr.nl/sermonai/storage"
	"ewintr.nl/sermonai/transcribe"
	"golang.org/x/exp/slog"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	postgres, err := storage.NewPostgres(storage.PostgresInfo{
		Host:     getParam("POSTGRES_HOST", "localhost"),
		Port:     getParam("POSTGRES_PORT", "5432"),
		User:     getParam("POSTGRES_USER", "sermonai"),
		Password: getParam("POSTGRES_PASSWORD", "sermonai"),
		Database: getParam("POSTGRES_DB", "sermonai"),
	})
	if err != nil {
		logger.Error("unable to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	channelRepo := storage.NewPostgresChannelRepository(postgres)
	videoRepo := storage.NewPostgresVideoRepository(postgres)
	ingestionRepo := storage.NewPostgresIngestionRepository(postgres)

	mongo, err := storage.NewMongo(ctx, getParam("MONGO_URI", "mongodb://localhost:27017"), getParam("MONGO_DB", "sermonai"))
	if err != nil {
		logger.Error("unable to connect to mongo", slog.String("error", err.Error()))
		os.Exit(1)
	}
	transcriptRepo := storage.NewMongoTranscriptRepository(mongo)

	weaviate, err := storage.NewWeaviate(
		getParam("WEAVIATE_SCHEME", "http"),
		getParam("WEAVIATE_HOST", "localhost:8080"),
		getParam("WEAVIATE_APIKEY", ""),
	)
	if err != nil {
		logger.Error("unable to connect to weaviate", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := weaviate.EnsureSchema(ctx); err != nil {
		logger.Error("unable to ensure weaviate schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ytClient, err := youtube.NewService(ctx, option.WithAPIKey(getParam("YOUTUBE_API_KEY", "")))
	if err != nil {
		logger.Error("unable to create youtube service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	metadata := fetch.NewYoutube(ytClient, logger)

	downloadTimeout, err := time.ParseDuration(getParam("DOWNLOAD_TIMEOUT", "10m"))
	if err != nil {
		logger.Error("unable to parse download timeout", slog.String("error", err.Error()))
		os.Exit(1)
	}
	downloader := fetch.NewYtDlpDownloader(fetch.DownloaderInfo{
		Binary:      getParam("YTDLP_BIN", "yt-dlp"),
		OutputDir:   getParam("AUDIO_DIR", "./data/audio"),
		Format:      getParam("AUDIO_FORMAT", "mp3"),
		Quality:     getParam("AUDIO_QUALITY", "192"),
		Timeout:     downloadTimeout,
		MaxParallel: 2,
	}, logger)
	captions := fetch.NewYtDlpCaptionFetcher(getParam("YTDLP_BIN", "yt-dlp"), getParam("CAPTIONS_DIR", "./data/captions"), logger)

	transcriber := transcribe.NewWhisper(transcribe.WhisperInfo{
		Binary:    getParam("WHISPER_BIN", "whisper"),
		Model:     getParam("WHISPER_MODEL", "large-v3"),
		OutputDir: getParam("TRANSCRIPTS_DIR", "./data/transcripts"),
	}, logger)

	openAIKey := getParam("OPENAI_API_KEY", "")
	embedder := index.NewOpenAIEmbedder(openAIKey)

	chunkSize := intParam("CHUNK_SIZE", index.DefaultChunkSize, logger)
	overlap := intParam("CHUNK_OVERLAP", index.DefaultOverlap, logger)
	pipeline := index.NewPipeline(transcriptRepo, weaviate, embedder, chunkSize, overlap, logger)

	minScore, err := strconv.ParseFloat(getParam("MIN_RELEVANCE_SCORE", "0.35"), 64)
	if err != nil {
		logger.Error("unable to parse relevance score", slog.String("error", err.Error()))
		os.Exit(1)
	}
	expander := search.NewOpenAIExpander(openAIKey, logger)
	searcher := search.NewSearcher(expander, embedder, weaviate, videoRepo, minScore, logger)

	orchestrator := ingest.NewOrchestrator(channelRepo, videoRepo, ingestionRepo, transcriptRepo,
		metadata, downloader, captions, transcriber,
		ingest.OrchestratorOptions{
			MinDuration:   time.Duration(intParam("MIN_DURATION_MINUTES", 15, logger)) * time.Minute,
			ThrottleDelay: ingest.DefaultThrottleDelay,
			MaxRetries:    intParam("MAX_RETRIES", ingest.DefaultMaxRetries, logger),
		}, logger)

	if endpoint := getParam("MINIFLUX_ENDPOINT", ""); endpoint != "" {
		mflx := fetch.NewMiniflux(fetch.MinifluxInfo{
			Endpoint: endpoint,
			ApiKey:   getParam("MINIFLUX_APIKEY", ""),
		})
		feedInterval, err := time.ParseDuration(getParam("FEED_INTERVAL", "15m"))
		if err != nil {
			logger.Error("unable to parse feed interval", slog.String("error", err.Error()))
			os.Exit(1)
		}
		watcher := ingest.NewFeedWatcher(orchestrator, mflx, feedInterval, logger)
		go watcher.Run(ctx)
		logger.Info("feed watcher started")
	}

	port, err := strconv.Atoi(getParam("API_PORT", "8080"))
	if err != nil {
		logger.Error("invalid port", slog.String("error", err.Error()))
		os.Exit(1)
	}
	go http.ListenAndServe(fmt.Sprintf(":%d", port), handler.NewServer(searcher, orchestrator, pipeline, transcriptRepo, logger))
	logger.Info("http server started", slog.Int("port", port))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt)
	<-done

	if err := mongo.Close(ctx); err != nil {
		logger.Error("failed to close mongo connection", slog.String("error", err.Error()))
	}
	logger.Info("service stopped")
}

func getParam(param, def string) string {
	if val, ok := os.LookupEnv(param); ok {
		return val
	}
	return def
}

func intParam(param string, def int, logger *slog.Logger) int {
	val, err := strconv.Atoi(getParam(param, strconv.Itoa(def)))
	if err != nil {
		logger.Error("invalid numeric parameter, using default", slog.String("param", param), slog.Int("default", def))
		return def
	}
	return val
}
