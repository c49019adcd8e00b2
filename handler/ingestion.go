package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ewintr.nl/sermonai/ingest"
	"golang.org/x/exp/slog"
)

type IngestionAPI struct {
	orchestrator *ingest.Orchestrator
	logger       *slog.Logger
}

func NewIngestionAPI(orchestrator *ingest.Orchestrator, logger *slog.Logger) *IngestionAPI {
	return &IngestionAPI{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (i *IngestionAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	head, _ := ShiftPath(r.URL.Path)

	switch {
	case r.Method == http.MethodGet && head == "stats":
		i.Stats(w, r)
	case r.Method == http.MethodPost && head == "retry":
		i.Retry(w, r)
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the ingestion api", r.Method, head))
	}
}

func (i *IngestionAPI) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := i.orchestrator.Stats(r.Context())
	if err != nil {
		i.returnErr(r.Context(), w, http.StatusInternalServerError, "could not fetch ingestion stats", err)
		return
	}

	resp := struct {
		Pending      int `json:"pending"`
		Downloading  int `json:"downloading"`
		Downloaded   int `json:"downloaded"`
		Transcribing int `json:"transcribing"`
		Completed    int `json:"completed"`
		Failed       int `json:"failed"`
		Total        int `json:"total"`
	}{
		Pending:      stats.Pending,
		Downloading:  stats.Downloading,
		Downloaded:   stats.Downloaded,
		Transcribing: stats.Transcribing,
		Completed:    stats.Completed,
		Failed:       stats.Failed,
		Total:        stats.Total(),
	}

	jsonBody, err := json.Marshal(resp)
	if err != nil {
		i.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, string(jsonBody))
}

func (i *IngestionAPI) Retry(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r)
	if limit == 0 {
		limit = 10
	}

	result, err := i.orchestrator.RetryFailed(r.Context(), limit)
	if err != nil {
		i.returnErr(r.Context(), w, http.StatusInternalServerError, "could not retry failed videos", err)
		return
	}

	jsonBody, err := json.Marshal(result)
	if err != nil {
		i.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, string(jsonBody))
}

func (i *IngestionAPI) returnErr(_ context.Context, w http.ResponseWriter, status int, message string, err error, details ...any) {
	i.logger.Error(message, slog.String("err", err.Error()), slog.String("details", fmt.Sprintf("%+v", details)))
	Error(w, status, message, err, details...)
}
