package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const broadcastInterval = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// broadcaster fans one snapshot-per-second out to every connected
// websocket client (spec.md §7's "arbitrage_snapshot" push), dropping
// slow clients rather than blocking the tick loop.
type broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan SnapshotResponse
}

func newBroadcaster() *broadcaster {
	return &broadcaster{clients: make(map[*websocket.Conn]chan SnapshotResponse)}
}

func (b *broadcaster) add(conn *websocket.Conn) chan SnapshotResponse {
	ch := make(chan SnapshotResponse, 1)
	b.mu.Lock()
	b.clients[conn] = ch
	b.mu.Unlock()
	return ch
}

func (b *broadcaster) remove(conn *websocket.Conn) {
	b.mu.Lock()
	if ch, ok := b.clients[conn]; ok {
		close(ch)
		delete(b.clients, conn)
	}
	b.mu.Unlock()
}

// run ticks every broadcastInterval, building one snapshot via build
// and pushing it to every connected client's channel without
// blocking on a slow reader.
func (b *broadcaster) run(ctx context.Context, build func(msgType string) SnapshotResponse) {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := build("arbitrage_snapshot")
			b.mu.Lock()
			for conn, ch := range b.clients {
				select {
				case ch <- msg:
				default:
					log.Warn().Msg("websocket client too slow, dropping snapshot tick")
				}
				_ = conn
			}
			b.mu.Unlock()
		}
	}
}

// handleWebSocket upgrades the connection, registers it with the
// broadcaster, and writes every snapshot pushed to its channel until
// the connection closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := s.broadcast.add(conn)
	defer s.broadcast.remove(conn)

	// Drain inbound control/ping frames so the connection is detected
	// as closed promptly; the client never needs to send data.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.broadcast.remove(conn)
				return
			}
		}
	}()

	for msg := range ch {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
