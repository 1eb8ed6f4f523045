package rpc

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// origin policy is enforced by the cors wrapper on the plain endpoints;
	// the feed applies the same allow-all default
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleFeed streams claim writes for a domain over a websocket. This is
// the feed-rendering path only; the resolution core never consumes watches.
func (s *Server) handleFeed(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain := r.URL.Query().Get("domain")
		if domain == "" {
			http.Error(w, "feed requires a domain query param", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Error("failed to upgrade feed connection", "err", err)
			return
		}

		events, cancel := s.eng.Store().WatchClaims(domain)
		defer cancel()
		defer conn.Close()

		// drain client frames so closes and pongs are processed
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					s.logger.Debug("feed subscriber went away", "domain", domain, "err", err)
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-ctx.Done():
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
