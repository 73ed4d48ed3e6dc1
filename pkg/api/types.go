package api

import (
	"time"

	"github.com/msnfinder/msnfinder/pkg/core"
	"github.com/msnfinder/msnfinder/pkg/storage"
)

type StartSearchRequest struct {
	Input      string `json:"input"`
	Mode       string `json:"mode"`
	MatchCount int    `json:"match_count"`
	MinScore   int    `json:"min_score"`
}

type StartSearchResponse struct {
	RunID string `json:"run_id"`
	State string `json:"state"`
}

type StopResponse struct {
	RunID   string        `json:"run_id"`
	Results []core.Result `json:"results"`
	Count   int           `json:"count"`
}

type ResultsResponse struct {
	RunID   string        `json:"run_id"`
	Running bool          `json:"running"`
	Results []core.Result `json:"results"`
	Count   int           `json:"count"`
	// Attempts maps "token|backend" to the attempt count consumed so far
	// in the current run.
	Attempts map[string]int `json:"attempts,omitempty"`
}

type LinksResponse struct {
	Links []storage.LinkRecord `json:"links"`
	Count int                  `json:"count"`
}

type LogsResponse struct {
	Lines []string `json:"lines"`
	Count int      `json:"count"`
}

type CrawlResponse struct {
	State string `json:"state"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
