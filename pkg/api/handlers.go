package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/finder"
	"github.com/msnfinder/msnfinder/pkg/realtime"
	"github.com/msnfinder/msnfinder/pkg/storage"
	"github.com/msnfinder/msnfinder/pkg/version"
)

func (s *Server) HandleStartSearch(w http.ResponseWriter, r *http.Request) {
	var req StartSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	mode, err := finder.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid mode", err.Error())
		return
	}

	params := finder.Params{
		Input:      req.Input,
		Mode:       mode,
		MatchCount: req.MatchCount,
		MinScore:   req.MinScore,
	}
	f := s.currentFinder()
	// The run outlives this request: net/http cancels r.Context() as soon
	// as the handler returns, so the background work gets its own context
	// and ends only through Stop or process shutdown.
	if err := f.Start(context.Background(), params); err != nil {
		status := http.StatusBadRequest
		if f.Running() {
			status = http.StatusConflict
		}
		s.writeError(w, status, "Cannot start run", err.Error())
		return
	}

	runID := f.RunID()
	if s.hub != nil {
		s.hub.Broadcast(realtime.NewRunEvent(runID, "started"))
	}
	s.writeJSON(w, http.StatusAccepted, StartSearchResponse{
		RunID: runID,
		State: "started",
	})
}

func (s *Server) HandleStopSearch(w http.ResponseWriter, r *http.Request) {
	f := s.currentFinder()
	results := f.Stop()
	runID := f.RunID()
	if s.hub != nil {
		s.hub.Broadcast(realtime.NewRunEvent(runID, "stopped"))
	}
	s.writeJSON(w, http.StatusOK, StopResponse{
		RunID:   runID,
		Results: results,
		Count:   len(results),
	})
}

func (s *Server) HandleResults(w http.ResponseWriter, r *http.Request) {
	f := s.currentFinder()
	results := f.Results()
	s.writeJSON(w, http.StatusOK, ResultsResponse{
		RunID:    f.RunID(),
		Running:  f.Running(),
		Results:  results,
		Count:    len(results),
		Attempts: f.AttemptCounts(),
	})
}

func (s *Server) HandleLinks(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		// No persistence configured: serve the in-memory set of the
		// current run, in the same shape as the persisted listing.
		urls := s.currentFinder().Links()
		records := make([]storage.LinkRecord, len(urls))
		for i, u := range urls {
			records[i] = storage.LinkRecord{URL: u}
		}
		s.writeJSON(w, http.StatusOK, LinksResponse{Links: records, Count: len(records)})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	links, err := s.store.Links(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list links", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, LinksResponse{Links: links, Count: len(links)})
}

func (s *Server) HandleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		s.writeError(w, http.StatusNotFound, "Logs unavailable", "log capture is not enabled")
		return
	}
	lines := s.logs.Lines()
	s.writeJSON(w, http.StatusOK, LogsResponse{Lines: lines, Count: len(lines)})
}

// HandleExport streams the current results as JSON. With ?compress=zstd the
// body is zstd-compressed, matching the export subcommand's file format.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	f := s.currentFinder()
	results := f.Results()
	payload := ResultsResponse{
		RunID:   f.RunID(),
		Running: f.Running(),
		Results: results,
		Count:   len(results),
	}

	if r.URL.Query().Get("compress") != "zstd" {
		s.writeJSON(w, http.StatusOK, payload)
		return
	}

	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", "attachment; filename=results.json.zst")
	enc, err := zstd.NewWriter(w)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Export failed", err.Error())
		return
	}
	if err := json.NewEncoder(enc).Encode(payload); err != nil {
		s.logger.Errorf("encoding export: %v", err)
	}
	if err := enc.Close(); err != nil {
		s.logger.Errorf("flushing export: %v", err)
	}
}

func (s *Server) HandleStartCrawl(w http.ResponseWriter, r *http.Request) {
	cr := s.currentCrawler()
	if cr == nil {
		s.writeError(w, http.StatusNotFound, "Crawler unconfigured", "no crawler seeds in configuration")
		return
	}

	s.crawlMu.Lock()
	defer s.crawlMu.Unlock()
	if s.crawlRunning {
		s.writeError(w, http.StatusConflict, "Crawl active", "a crawl is already running")
		return
	}
	s.crawlRunning = true
	s.crawlAcc.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	s.crawlCancel = cancel

	go func() {
		defer func() {
			s.crawlMu.Lock()
			s.crawlRunning = false
			s.crawlMu.Unlock()
			cancel()
		}()
		err := cr.Crawl(ctx, func(res core.Result) {
			s.crawlAcc.Append(res)
			s.crawlAcc.RecordLink(res.Link)
		})
		if err != nil {
			s.logger.Infof("crawl ended: %v", err)
		}
	}()

	s.writeJSON(w, http.StatusAccepted, CrawlResponse{State: "started"})
}

func (s *Server) HandleStopCrawl(w http.ResponseWriter, r *http.Request) {
	s.crawlMu.Lock()
	cancel := s.crawlCancel
	s.crawlMu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.writeJSON(w, http.StatusOK, CrawlResponse{State: "stopped"})
}

func (s *Server) HandleCrawlResults(w http.ResponseWriter, r *http.Request) {
	s.crawlMu.Lock()
	running := s.crawlRunning
	s.crawlMu.Unlock()

	results := s.crawlAcc.Snapshot()
	s.writeJSON(w, http.StatusOK, ResultsResponse{
		Running: running,
		Results: results,
		Count:   len(results),
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}
	s.writeJSON(w, http.StatusOK, response)
}
