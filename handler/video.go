package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ewintr.nl/sermonai/ingest"
	"ewintr.nl/sermonai/model"
	"ewintr.nl/sermonai/storage"
	"golang.org/x/exp/slog"
)

type VideoAPI struct {
	orchestrator   *ingest.Orchestrator
	transcriptRepo storage.TranscriptRepository
	logger         *slog.Logger
}

func NewVideoAPI(orchestrator *ingest.Orchestrator, transcriptRepo storage.TranscriptRepository, logger *slog.Logger) *VideoAPI {
	return &VideoAPI{
		orchestrator:   orchestrator,
		transcriptRepo: transcriptRepo,
		logger:         logger,
	}
}

func (v *VideoAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoID, tail := ShiftPath(r.URL.Path)
	action, _ := ShiftPath(tail)

	switch {
	case r.Method == http.MethodGet && videoID != "" && action == "status":
		v.Status(w, r, model.VideoID(videoID))
	case r.Method == http.MethodGet && videoID != "" && action == "transcript":
		v.Transcript(w, r, model.VideoID(videoID))
	case r.Method == http.MethodDelete && videoID != "" && action == "transcript":
		v.DeleteTranscript(w, r, model.VideoID(videoID))
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the video api", r.Method, r.URL.Path))
	}
}

func (v *VideoAPI) Status(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	status, err := v.orchestrator.VideoStatus(r.Context(), id)
	if err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not fetch video status", err)
		return
	}
	if status == nil {
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("video %s is unknown", id))
		return
	}

	v.returnJSON(r.Context(), w, status)
}

func (v *VideoAPI) Transcript(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	transcript, err := v.transcriptRepo.FindByVideoID(r.Context(), id)
	if err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not fetch transcript", err)
		return
	}
	if transcript == nil {
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("video %s has no transcript", id))
		return
	}

	v.returnJSON(r.Context(), w, transcript)
}

func (v *VideoAPI) DeleteTranscript(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	if err := v.transcriptRepo.Delete(r.Context(), id); err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not delete transcript", err)
		return
	}

	Message(w, http.StatusOK, fmt.Sprintf("transcript of %s deleted", id))
}

func (v *VideoAPI) returnJSON(ctx context.Context, w http.ResponseWriter, body any) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		v.returnErr(ctx, w, http.StatusInternalServerError, "could not marshal response", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, string(jsonBody))
}

func (v *VideoAPI) returnErr(_ context.Context, w http.ResponseWriter, status int, message string, err error, details ...any) {
	v.logger.Error(message, slog.String("err", err.Error()), slog.String("details", fmt.Sprintf("%+v", details)))
	Error(w, status, message, err, details...)
}
