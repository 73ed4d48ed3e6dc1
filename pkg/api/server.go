// Package api exposes the search orchestrator over a JSON HTTP API plus a
// WebSocket firehose of accepted results. The server never owns run
// semantics; it translates requests into Finder and Crawler calls.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/crawler"
	"github.com/msnfinder/msnfinder/pkg/finder"
	"github.com/msnfinder/msnfinder/pkg/log"
	"github.com/msnfinder/msnfinder/pkg/realtime"
	"github.com/msnfinder/msnfinder/pkg/storage"
)

type Server struct {
	mu      sync.RWMutex
	finder  *finder.Finder
	crawler *crawler.Crawler

	store  *storage.LinkStore
	hub    *realtime.Hub
	logs   *log.Capture
	logger *log.Logger

	crawlMu      sync.Mutex
	crawlRunning bool
	crawlCancel  context.CancelFunc
	crawlAcc     *finder.Accumulator
}

// NewServer wires the API onto an existing finder. store, hub, logs and c
// may be nil; the corresponding endpoints then degrade gracefully (links
// come from the in-memory accumulator, the firehose refuses connections,
// crawling is reported unconfigured).
func NewServer(f *finder.Finder, store *storage.LinkStore, hub *realtime.Hub, logs *log.Capture, c *crawler.Crawler) *Server {
	s := &Server{
		finder:   f,
		store:    store,
		hub:      hub,
		logs:     logs,
		logger:   log.ForService("api"),
		crawler:  c,
		crawlAcc: finder.NewAccumulator(),
	}
	s.wireListeners(f)
	return s
}

// wireListeners attaches the hub broadcast and link persistence listeners
// to a finder. Called on construction and again after every Swap.
func (s *Server) wireListeners(f *finder.Finder) {
	if s.hub != nil {
		f.OnResult(func(r core.Result) {
			s.hub.Broadcast(realtime.NewResultEvent(f.RunID(), r))
		})
	}
	if s.store != nil {
		f.OnResult(func(r core.Result) {
			if err := s.store.RecordLink(r.Link, r.Title, r.Source, f.RunID()); err != nil {
				s.logger.Warnf("persisting link %s: %v", r.Link, err)
			}
		})
	}
}

// Swap replaces the finder and crawler after a configuration reload. An
// in-flight run on the old finder keeps running to completion; only new
// requests see the replacements.
func (s *Server) Swap(f *finder.Finder, c *crawler.Crawler) {
	s.wireListeners(f)
	s.mu.Lock()
	s.finder = f
	s.crawler = c
	s.mu.Unlock()
}

// currentFinder returns the active finder under the read lock.
func (s *Server) currentFinder() *finder.Finder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finder
}

func (s *Server) currentCrawler() *crawler.Crawler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crawler
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
