package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/exp/slog"
)

func TestShiftPath(t *testing.T) {
	for _, tc := range []struct {
		name    string
		path    string
		expHead string
		expTail string
	}{
		{
			name:    "root",
			path:    "/",
			expHead: "",
			expTail: "/",
		},
		{
			name:    "single component",
			path:    "/search",
			expHead: "search",
			expTail: "/",
		},
		{
			name:    "nested",
			path:    "/video/abc123/status",
			expHead: "video",
			expTail: "/abc123/status",
		},
		{
			name:    "relative components are cleaned",
			path:    "/search/../video",
			expHead: "video",
			expTail: "/",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			head, tail := ShiftPath(tc.path)
			if head != tc.expHead {
				t.Errorf("exp %q, got %q", tc.expHead, head)
			}
			if tail != tc.expTail {
				t.Errorf("exp %q, got %q", tc.expTail, tail)
			}
		})
	}
}

func testServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(nil, nil, nil, nil, logger)
}

func TestServerRouting(t *testing.T) {
	server := testServer()

	for _, tc := range []struct {
		name      string
		method    string
		path      string
		expStatus int
	}{
		{
			name:      "index",
			method:    http.MethodGet,
			path:      "/",
			expStatus: http.StatusOK,
		},
		{
			name:      "health",
			method:    http.MethodGet,
			path:      "/health",
			expStatus: http.StatusOK,
		},
		{
			name:      "unknown api",
			method:    http.MethodGet,
			path:      "/nonsense",
			expStatus: http.StatusNotFound,
		},
		{
			name:      "search without feeling",
			method:    http.MethodGet,
			path:      "/search",
			expStatus: http.StatusBadRequest,
		},
		{
			name:      "channel sync without body",
			method:    http.MethodPost,
			path:      "/channel/sync",
			expStatus: http.StatusBadRequest,
		},
		{
			name:      "unknown video subpath",
			method:    http.MethodGet,
			path:      "/video/abc123/nonsense",
			expStatus: http.StatusNotFound,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)

			if rec.Code != tc.expStatus {
				t.Errorf("exp %d, got %d", tc.expStatus, rec.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Errorf("exp json body, got %q", rec.Body.String())
			}
		})
	}
}
