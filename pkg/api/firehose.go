package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The HTTP API is already wide open via CORS; the firehose matches.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type firehoseInit struct {
	Type    string      `json:"type"`
	RunID   string      `json:"run_id,omitempty"`
	Running bool        `json:"running"`
	Results interface{} `json:"results"`
}

// HandleFirehoseWS upgrades to a WebSocket and pushes accepted results as
// they arrive. The first frame is an init message carrying the snapshot
// accumulated so far, so a client connecting mid-run misses nothing.
func (s *Server) HandleFirehoseWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(w, http.StatusNotFound, "Firehose unavailable", "realtime hub is not enabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debugf("closing websocket: %v", err)
		}
	}()

	// Register before snapshotting so no event can fall between the
	// snapshot and the subscription.
	id, events := s.hub.Register()
	defer s.hub.Unregister(id)

	f := s.currentFinder()
	init := firehoseInit{
		Type:    "init",
		RunID:   f.RunID(),
		Running: f.Running(),
		Results: f.Results(),
	}
	if err := conn.WriteJSON(init); err != nil {
		return
	}

	// Reader goroutine: its only job is noticing the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
