package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ewintr.nl/sermonai/search"
	"golang.org/x/exp/slog"
)

type SearchAPI struct {
	searcher *search.Searcher
	logger   *slog.Logger
}

func NewSearchAPI(searcher *search.Searcher, logger *slog.Logger) *SearchAPI {
	return &SearchAPI{
		searcher: searcher,
		logger:   logger,
	}
}

func (s *SearchAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	head, tail := ShiftPath(r.URL.Path)

	switch {
	case r.Method == http.MethodGet && head == "":
		s.Search(w, r)
	case r.Method == http.MethodGet && head == "moods":
		s.Moods(w, r)
	case r.Method == http.MethodGet && head == "mood":
		mood, _ := ShiftPath(tail)
		s.SearchByMood(w, r, mood)
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the search api", r.Method, head))
	}
}

func (s *SearchAPI) Search(w http.ResponseWriter, r *http.Request) {
	feeling := r.URL.Query().Get("feeling")
	if feeling == "" {
		Error(w, http.StatusBadRequest, "missing parameter", fmt.Errorf("feeling query parameter is required"))
		return
	}
	expand := r.URL.Query().Get("expand") != "false"

	resp, err := s.searcher.Search(r.Context(), feeling, queryLimit(r), expand)
	if err != nil {
		s.returnErr(r.Context(), w, http.StatusInternalServerError, "could not search sermons", err)
		return
	}

	s.returnJSON(r.Context(), w, resp)
}

func (s *SearchAPI) SearchByMood(w http.ResponseWriter, r *http.Request, mood string) {
	if mood == "" {
		Error(w, http.StatusBadRequest, "missing parameter", fmt.Errorf("mood path component is required"))
		return
	}

	resp, err := s.searcher.SearchByMood(r.Context(), mood, queryLimit(r))
	if err != nil {
		s.returnErr(r.Context(), w, http.StatusInternalServerError, "could not search sermons", err)
		return
	}

	s.returnJSON(r.Context(), w, resp)
}

func (s *SearchAPI) Moods(w http.ResponseWriter, r *http.Request) {
	s.returnJSON(r.Context(), w, struct {
		Moods []string `json:"moods"`
	}{Moods: search.Moods()})
}

func (s *SearchAPI) returnJSON(ctx context.Context, w http.ResponseWriter, body any) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		s.returnErr(ctx, w, http.StatusInternalServerError, "could not marshal response", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, string(jsonBody))
}

func (s *SearchAPI) returnErr(_ context.Context, w http.ResponseWriter, status int, message string, err error, details ...any) {
	s.logger.Error(message, slog.String("err", err.Error()), slog.String("details", fmt.Sprintf("%+v", details)))
	Error(w, status, message, err, details...)
}

// queryLimit reads the limit query parameter, zero when absent or invalid.
// The services substitute their own defaults.
func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}

	return limit
}
