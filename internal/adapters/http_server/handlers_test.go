package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hotel_storefront/internal/domain"
)

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		location string
	}{
		{"validation", domain.Validation("Invalid date range", domain.ErrInvalidDateRange), http.StatusBadRequest, ""},
		{"room", domain.Validation("Room not found", domain.ErrRoomNotFound), http.StatusNotFound, ""},
		{"login", &domain.UserError{Kind: domain.KindValidation, Message: "sign in", Redirect: "/login", Err: domain.ErrUnauthenticated}, http.StatusUnauthorized, "/login"},
		{"upstream", domain.Upstream("Could not load room availability", errors.New("502")), http.StatusBadGateway, ""},
		{"upstream 404", domain.Upstream("Hotel not found", fmt.Errorf("%w: x", domain.ErrNotFound)), http.StatusNotFound, ""},
		{"handoff", domain.HandoffFailure("expired", "/back", domain.ErrHandoffMissing), http.StatusConflict, "/back"},
		{"superseded", domain.ErrSuperseded, http.StatusConflict, ""},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if got := rec.Header().Get("Location"); got != tc.location {
				t.Fatalf("location = %q, want %q", got, tc.location)
			}
			var p problem
			if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil || p.Status != tc.status || p.Title == "" {
				t.Fatalf("bad problem body %q: %v", rec.Body.String(), err)
			}
		})
	}
}

func TestWriteJSON_ETag(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, httptest.NewRequest(http.MethodGet, "/x", nil), http.StatusOK, map[string]int{"a": 1})
	etag := rec.Header().Get("ETag")
	if rec.Code != http.StatusOK || etag == "" {
		t.Fatalf("first response: %d %q", rec.Code, etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	writeJSON(rec, req, http.StatusOK, map[string]int{"a": 1})
	if rec.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", rec.Code)
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestWriteError_LogsEveryUserError(t *testing.T) {
	cases := []struct {
		err   error
		level string
		kind  string
		cause string
	}{
		{&domain.UserError{Kind: domain.KindValidation, Message: "Please sign in", Redirect: "/login", Err: domain.ErrUnauthenticated}, "warn", "validation", domain.ErrUnauthenticated.Error()},
		{domain.Validation("Loyalty discount is not available", domain.ErrDiscountUnavailable), "warn", "validation", domain.ErrDiscountUnavailable.Error()},
		{domain.HandoffFailure("expired", "/", domain.ErrHandoffMissing), "warn", "handoff", domain.ErrHandoffMissing.Error()},
		{domain.Upstream("Could not start payment", errors.New("gateway down")), "error", "upstream", "gateway down"},
	}
	for _, tc := range cases {
		buf := captureLog(t)
		writeError(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/views/v/rooms/1/discount", nil), tc.err)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("%v: expected one log line, got %q", tc.err, buf.String())
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", lines[0], err)
		}
		if entry["level"] != tc.level || entry["kind"] != tc.kind || entry["error"] != tc.cause {
			t.Fatalf("unexpected log entry: %v", entry)
		}
		if entry["route"] != "/v1/views/v/rooms/1/discount" {
			t.Fatalf("route missing from log entry: %v", entry)
		}
	}
}
