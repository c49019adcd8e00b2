package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ewintr.nl/sermonai/index"
	"ewintr.nl/sermonai/model"
	"golang.org/x/exp/slog"
)

type IndexAPI struct {
	pipeline *index.Pipeline
	logger   *slog.Logger
}

func NewIndexAPI(pipeline *index.Pipeline, logger *slog.Logger) *IndexAPI {
	return &IndexAPI{
		pipeline: pipeline,
		logger:   logger,
	}
}

func (i *IndexAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	head, tail := ShiftPath(r.URL.Path)

	switch {
	case r.Method == http.MethodPost && head == "run":
		i.Run(w, r)
	case r.Method == http.MethodPost && head == "reindex":
		i.Reindex(w, r)
	case r.Method == http.MethodPost && head == "video":
		videoID, _ := ShiftPath(tail)
		i.RunVideo(w, r, model.VideoID(videoID))
	case r.Method == http.MethodDelete && head == "video":
		videoID, _ := ShiftPath(tail)
		i.DeleteVideo(w, r, model.VideoID(videoID))
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the index api", r.Method, head))
	}
}

func (i *IndexAPI) Run(w http.ResponseWriter, r *http.Request) {
	reports, err := i.pipeline.ProcessAll(r.Context())
	if err != nil {
		i.returnErr(r.Context(), w, http.StatusInternalServerError, "could not run embedding pipeline", err)
		return
	}

	i.returnReports(r.Context(), w, reports)
}

func (i *IndexAPI) Reindex(w http.ResponseWriter, r *http.Request) {
	reports, err := i.pipeline.Reindex(r.Context())
	if err != nil {
		i.returnErr(r.Context(), w, http.StatusInternalServerError, "could not reindex", err)
		return
	}

	i.returnReports(r.Context(), w, reports)
}

func (i *IndexAPI) RunVideo(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	if id == "" {
		Error(w, http.StatusBadRequest, "missing parameter", fmt.Errorf("video id path component is required"))
		return
	}

	report := i.pipeline.ProcessVideo(r.Context(), id)
	i.returnReports(r.Context(), w, []index.VideoReport{report})
}

func (i *IndexAPI) DeleteVideo(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	if id == "" {
		Error(w, http.StatusBadRequest, "missing parameter", fmt.Errorf("video id path component is required"))
		return
	}
	if err := i.pipeline.DeleteVideo(r.Context(), id); err != nil {
		i.returnErr(r.Context(), w, http.StatusInternalServerError, "could not delete video chunks", err)
		return
	}

	Message(w, http.StatusOK, fmt.Sprintf("chunks of %s deleted", id))
}

func (i *IndexAPI) returnReports(ctx context.Context, w http.ResponseWriter, reports []index.VideoReport) {
	type respReport struct {
		VideoID string `json:"video_id"`
		Status  string `json:"status"`
		Chunks  int    `json:"chunks"`
		Error   string `json:"error,omitempty"`
	}
	resp := make([]respReport, 0, len(reports))
	for _, report := range reports {
		rr := respReport{
			VideoID: string(report.VideoID),
			Status:  report.Status,
			Chunks:  report.Chunks,
		}
		if report.Err != nil {
			rr.Error = report.Err.Error()
		}
		resp = append(resp, rr)
	}

	jsonBody, err := json.Marshal(resp)
	if err != nil {
		i.returnErr(ctx, w, http.StatusInternalServerError, "could not marshal response", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, string(jsonBody))
}

func (i *IndexAPI) returnErr(_ context.Context, w http.ResponseWriter, status int, message string, err error, details ...any) {
	i.logger.Error(message, slog.String("err", err.Error()), slog.String("details", fmt.Sprintf("%+v", details)))
	Error(w, status, message, err, details...)
}
