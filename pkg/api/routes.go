package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API routes with method-specific routing
	mux.HandleFunc("POST /api/search", s.HandleStartSearch)
	mux.HandleFunc("POST /api/stop", s.HandleStopSearch)
	mux.HandleFunc("GET /api/results", s.HandleResults)
	mux.HandleFunc("GET /api/links", s.HandleLinks)
	mux.HandleFunc("GET /api/logs", s.HandleLogs)
	mux.HandleFunc("GET /api/export", s.HandleExport)
	mux.HandleFunc("POST /api/crawl", s.HandleStartCrawl)
	mux.HandleFunc("POST /api/crawl/stop", s.HandleStopCrawl)
	mux.HandleFunc("GET /api/crawl/results", s.HandleCrawlResults)
	mux.HandleFunc("GET /api/firehose/ws", s.HandleFirehoseWS)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
