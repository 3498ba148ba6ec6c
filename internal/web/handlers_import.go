package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agbanzy/pollingunits/internal/core"
	"github.com/agbanzy/pollingunits/internal/logging"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

// progressResponse is a progress snapshot with derived fields.
type progressResponse struct {
	core.ProgressEvent
	Percent int  `json:"percent"`
	Done    bool `json:"done"`
}

func newProgressResponse(e core.ProgressEvent) progressResponse {
	return progressResponse{ProgressEvent: e, Percent: e.Percent(), Done: e.Phase.Terminal()}
}

// handleStartImport accepts a multipart registry upload, parses it, and
// queues the run. The response carries the run id; progress is followed on
// the events or result routes.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondError(w, r, fmt.Errorf("%w: limit %d bytes", errFileTooLarge, s.cfg.Import.MaxFileSize), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	opts, err := parseRunOptions(r, s.cfg.Import.ClearExisting)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	records, err := core.ReadRecords(file)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	runID, err := s.service.StartImport(r.Context(), header.Filename, records, opts)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	logging.WithFields(r.Context(), "run_id", runID).Info("import queued",
		"file", header.Filename,
		"records", records.Total(),
		"clear_existing", opts.ClearExisting,
		"dry_run", opts.DryRun,
	)

	w.Header().Set("Location", "/api/imports/"+runID)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":        runID,
		"total_records": records.Total(),
		"malformed":     len(records.Malformed),
	})
}

// parseRunOptions reads the clear_existing and dry_run form fields. An
// absent clear_existing falls back to the configured default.
func parseRunOptions(r *http.Request, clearDefault bool) (core.RunOptions, error) {
	opts := core.RunOptions{ClearExisting: clearDefault}

	for field, dst := range map[string]*bool{
		"clear_existing": &opts.ClearExisting,
		"dry_run":        &opts.DryRun,
	} {
		raw := r.FormValue(field)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("%w: %s=%q", errBadOption, field, raw)
		}
		*dst = v
	}
	return opts, nil
}

// handleImportProgress returns the latest progress event of a run.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	ev, err := s.service.Progress(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, newProgressResponse(ev))
}

// handleImportResult waits for the run to finish and returns its summary.
// If the request timeout passes first, or wait=false is given for an
// unfinished run, it answers 202 with the current progress.
func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	ev, err := s.service.Progress(runID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if r.URL.Query().Get("wait") == "false" && !ev.Phase.Terminal() {
		writeJSON(w, http.StatusAccepted, newProgressResponse(ev))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	summary, err := s.service.Result(ctx, runID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			ev, _ = s.service.Progress(runID)
			writeJSON(w, http.StatusAccepted, newProgressResponse(ev))
			return
		}
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleImportEvents streams run progress via Server-Sent Events. The event
// id is the completion percentage; a reconnecting client sends it back as
// Last-Event-ID (or lastEventId) and events at or below it are skipped.
func (s *Server) handleImportEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	lastEventIDStr := r.Header.Get("Last-Event-ID")
	if lastEventIDStr == "" {
		lastEventIDStr = r.URL.Query().Get("lastEventId")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(runID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	flush := func() bool {
		if err := rc.Flush(); err != nil {
			logging.FromContext(r.Context()).Warn("sse flush failed", "run_id", runID, "error", err)
			return false
		}
		return true
	}

	var last core.ProgressEvent
	for {
		select {
		case ev, ok := <-progressCh:
			if !ok {
				final, err := s.service.Progress(runID)
				if err != nil {
					final = last
				}
				data, _ := json.Marshal(newProgressResponse(final))
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flush()
				return
			}
			last = ev

			// Chunk events within a phase may share a percentage; only
			// resumed streams skip by id.
			percent := ev.Percent()
			if lastEventID >= 0 && percent <= lastEventID && !ev.Phase.Terminal() {
				continue
			}

			data, err := json.Marshal(newProgressResponse(ev))
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", percent, data)
			if !flush() {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

// handleListImports lists the runs the service still retains, newest first.
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"runs": s.service.Runs()})
}

// handleStatus reports whether an import is running.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.GateStatus())
}

// handleHealth pings the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
