package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/handtracker/internal/detector"
)

// writeTimeout bounds a single landmark message write.
const writeTimeout = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type landmarksMessage struct {
	Hands     []detector.Hand `json:"hands"`
	Timestamp int64           `json:"timestamp"`
}

// LandmarksHandler fans detection results out to WebSocket clients. It does
// no detection of its own: Broadcast is registered as a tracker observer.
type LandmarksHandler struct {
	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

// NewLandmarksHandler creates an empty LandmarksHandler.
func NewLandmarksHandler() *LandmarksHandler {
	return &LandmarksHandler{
		clients: make(map[string]*websocket.Conn),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	log.Printf("landmarks: client %s connected", id)

	defer h.remove(id)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *LandmarksHandler) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		log.Printf("landmarks: client %s disconnected", id)
	}
}

// Broadcast sends result to every connected client. Clients whose write
// fails are dropped.
func (h *LandmarksHandler) Broadcast(result *detector.Result) {
	msg := landmarksMessage{Hands: []detector.Hand{}, Timestamp: time.Now().UnixMilli()}
	if result != nil {
		if result.Hands != nil {
			msg.Hands = result.Hands
		}
		if !result.Timestamp.IsZero() {
			msg.Timestamp = result.Timestamp.UnixMilli()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("landmarks: encode error: %v", err)
		return
	}

	for id, conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("landmarks: dropping client %s: %v", id, err)
			conn.Close()
			delete(h.clients, id)
		}
	}
}

// Clients returns the number of connected clients.
func (h *LandmarksHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
