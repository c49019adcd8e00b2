package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ewintr.nl/sermonai/ingest"
	"golang.org/x/exp/slog"
)

type ChannelAPI struct {
	orchestrator *ingest.Orchestrator
	logger       *slog.Logger
}

func NewChannelAPI(orchestrator *ingest.Orchestrator, logger *slog.Logger) *ChannelAPI {
	return &ChannelAPI{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (c *ChannelAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	head, _ := ShiftPath(r.URL.Path)

	switch {
	case r.Method == http.MethodPost && head == "sync":
		c.Sync(w, r)
	case r.Method == http.MethodPost && head == "sync-all":
		c.SyncAll(w, r)
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the channel api", r.Method, head))
	}
}

func (c *ChannelAPI) Sync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelURL string `json:"channel_url"`
		Limit      int    `json:"limit"`
		Download   bool   `json:"download"`
		Transcribe bool   `json:"transcribe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ChannelURL == "" {
		Error(w, http.StatusBadRequest, "missing parameter", fmt.Errorf("channel_url is required"))
		return
	}
	if req.Limit <= 0 {
		req.Limit = 25
	}

	result, err := c.orchestrator.SyncChannel(r.Context(), req.ChannelURL, ingest.SyncOptions{
		Limit:      req.Limit,
		Download:   req.Download,
		Transcribe: req.Transcribe,
	})
	if err != nil {
		c.returnErr(r.Context(), w, http.StatusInternalServerError, "could not sync channel", err)
		return
	}

	jsonBody, err := json.Marshal(result)
	if err != nil {
		c.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, string(jsonBody))
}

func (c *ChannelAPI) SyncAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit      int  `json:"limit"`
		Download   bool `json:"download"`
		Transcribe bool `json:"transcribe"`
	}
	// the body is optional, all options have defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		Error(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Limit <= 0 {
		req.Limit = 25
	}

	results, err := c.orchestrator.SyncAllChannels(r.Context(), ingest.SyncOptions{
		Limit:      req.Limit,
		Download:   req.Download,
		Transcribe: req.Transcribe,
	})
	if err != nil {
		c.returnErr(r.Context(), w, http.StatusInternalServerError, "could not sync channels", err)
		return
	}

	jsonBody, err := json.Marshal(results)
	if err != nil {
		c.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, string(jsonBody))
}

func (c *ChannelAPI) returnErr(_ context.Context, w http.ResponseWriter, status int, message string, err error, details ...any) {
	c.logger.Error(message, slog.String("err", err.Error()), slog.String("details", fmt.Sprintf("%+v", details)))
	Error(w, status, message, err, details...)
}
