package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"

	"backend-foodcart/internal/queue"
)

/*
|--------------------------------------------------------------------------
| WebSocket Client Registry
|--------------------------------------------------------------------------
*/

type wsClient struct {
	conn      *websocket.Conn
	writeMux  sync.Mutex
	closeChan chan struct{}
	closed    bool
	lastPong  time.Time
	id        string
}

// QueueSocket streams the vendor board over WebSocket. Each vendor has its
// own room; join and complete events trigger a debounced broadcast of the
// non-terminal entries so a burst of events still costs one store query.
type QueueSocket struct {
	manager *queue.Manager

	mu      sync.RWMutex
	rooms   map[int64]map[*websocket.Conn]*wsClient
	counter uint64

	timerMu sync.Mutex
	timers  map[int64]*time.Timer
}

const broadcastDelay = 50 * time.Millisecond

func NewQueueSocket(manager *queue.Manager) *QueueSocket {
	return &QueueSocket{
		manager: manager,
		rooms:   make(map[int64]map[*websocket.Conn]*wsClient),
		timers:  make(map[int64]*time.Timer),
	}
}

/*
|--------------------------------------------------------------------------
| Connection Handling
|--------------------------------------------------------------------------
*/

// Serve handles one vendor-board connection. Registered with
// websocket.New on /ws/vendor/:vendorId/queue.
func (s *QueueSocket) Serve(c *websocket.Conn) {
	vendorID, err := strconv.ParseInt(c.Params("vendorId"), 10, 64)
	if err != nil {
		_ = c.Close()
		return
	}

	id := atomic.AddUint64(&s.counter, 1)
	client := &wsClient{
		conn:      c,
		closeChan: make(chan struct{}),
		lastPong:  time.Now(),
		id:        fmt.Sprintf("board-%d", id),
	}

	log.Printf("[ws] %s connecting for vendor %d from %s", client.id, vendorID, c.RemoteAddr())
	s.register(vendorID, client)
	defer s.unregister(vendorID, client)

	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.SetPongHandler(func(string) error {
		client.writeMux.Lock()
		client.lastPong = time.Now()
		client.writeMux.Unlock()
		c.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Fresh snapshot for the new board before any broadcast arrives.
	if message, err := s.buildMessage(vendorID); err == nil {
		s.writeToClient(vendorID, client, message)
	} else {
		log.Printf("[ws] %s initial snapshot error: %v", client.id, err)
	}

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				client.writeMux.Lock()
				if client.closed {
					client.writeMux.Unlock()
					return
				}
				c.SetWriteDeadline(time.Now().Add(5 * time.Second))
				err := c.WriteMessage(websocket.PingMessage, nil)
				client.writeMux.Unlock()

				if err != nil {
					log.Printf("[ws] %s ping error: %v", client.id, err)
					return
				}
			case <-client.closeChan:
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
			) {
				log.Printf("[ws] %s unexpected close: %v", client.id, err)
			} else {
				log.Printf("[ws] %s closed", client.id)
			}
			return
		}
	}
}

func (s *QueueSocket) register(vendorID int64, client *wsClient) {
	s.mu.Lock()
	room, ok := s.rooms[vendorID]
	if !ok {
		room = make(map[*websocket.Conn]*wsClient)
		s.rooms[vendorID] = room
	}
	room[client.conn] = client
	total := len(room)
	s.mu.Unlock()

	log.Printf("[ws] %s registered, vendor %d boards: %d", client.id, vendorID, total)
}

func (s *QueueSocket) unregister(vendorID int64, client *wsClient) {
	s.mu.Lock()
	if room, ok := s.rooms[vendorID]; ok {
		if cl, exists := room[client.conn]; exists {
			cl.writeMux.Lock()
			if !cl.closed {
				cl.closed = true
				close(cl.closeChan)
			}
			cl.writeMux.Unlock()
			delete(room, client.conn)
		}
		if len(room) == 0 {
			delete(s.rooms, vendorID)
		}
	}
	s.mu.Unlock()

	_ = client.conn.Close()
	log.Printf("[ws] %s unregistered", client.id)
}

/*
|--------------------------------------------------------------------------
| Broadcast Logic
|--------------------------------------------------------------------------
*/

// BroadcastVendor schedules a board update for one vendor. Debounced so a
// burst of events still queries the store once.
func (s *QueueSocket) BroadcastVendor(vendorID int64) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if timer, ok := s.timers[vendorID]; ok {
		timer.Reset(broadcastDelay)
		return
	}

	s.timers[vendorID] = time.AfterFunc(broadcastDelay, func() {
		s.timerMu.Lock()
		delete(s.timers, vendorID)
		s.timerMu.Unlock()

		s.broadcast(vendorID)
	})
}

func (s *QueueSocket) broadcast(vendorID int64) {
	s.mu.RLock()
	room := s.rooms[vendorID]
	clients := make([]*wsClient, 0, len(room))
	for _, client := range room {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	message, err := s.buildMessage(vendorID)
	if err != nil {
		log.Printf("[ws] broadcast build error for vendor %d: %v", vendorID, err)
		return
	}

	for _, client := range clients {
		s.writeToClient(vendorID, client, message)
	}
}

func (s *QueueSocket) buildMessage(vendorID int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	q, entries, err := s.manager.VendorQueue(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("vendor queue: %w", err)
	}

	return json.Marshal(map[string]any{
		"type":      "queue_update",
		"queue":     q,
		"entries":   entries,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *QueueSocket) writeToClient(vendorID int64, client *wsClient, message []byte) {
	client.writeMux.Lock()
	defer client.writeMux.Unlock()

	if client.closed {
		return
	}

	client.conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		log.Printf("[ws] %s write error: %v", client.id, err)
		client.closed = true
		select {
		case <-client.closeChan:
		default:
			close(client.closeChan)
		}

		go func(conn *websocket.Conn, id string) {
			s.mu.Lock()
			if room, ok := s.rooms[vendorID]; ok {
				delete(room, conn)
				if len(room) == 0 {
					delete(s.rooms, vendorID)
				}
			}
			s.mu.Unlock()
			conn.Close()
			log.Printf("[ws] %s removed after write error", id)
		}(client.conn, client.id)
	}
}
