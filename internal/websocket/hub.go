package websocket

import (
	"log"
	"net/http"
	"sync"

	"backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// subscriber is one connected price-feed consumer
type subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans metal price ticks out to every connected subscriber. The most
// recent tick is cached so a subscriber that connects between refreshes gets
// the current board immediately instead of waiting for the next one.
type Hub struct {
	subscribers map[*subscriber]bool
	ticks       chan []byte
	register    chan *subscriber
	unregister  chan *subscriber

	mu       sync.Mutex
	lastTick []byte
}

func NewHub() *Hub {
	return &Hub{
		ticks:       make(chan []byte),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		subscribers: make(map[*subscriber]bool),
	}
}

// Send queues a tick for delivery to every connected subscriber
func (h *Hub) Send(message []byte) {
	h.ticks <- message
}

// Run is the dispatch loop; start it once in its own goroutine
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			last := h.lastTick
			h.mu.Unlock()
			if last != nil {
				select {
				case sub.send <- last:
				default:
				}
			}
			log.Println("price feed subscriber connected")
		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
				log.Println("price feed subscriber disconnected")
			}
			h.mu.Unlock()
		case tick := <-h.ticks:
			h.mu.Lock()
			h.lastTick = tick
			for sub := range h.subscribers {
				select {
				case sub.send <- tick:
				default:
					// slow consumer, drop it
					close(sub.send)
					delete(h.subscribers, sub)
				}
			}
			h.mu.Unlock()
		}
	}
}

// writePump drains the subscriber's send channel onto the connection
func (s *subscriber) writePump() {
	defer func() {
		_ = s.conn.Close()
	}()
	for tick := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, tick); err != nil {
			return
		}
	}
	_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames; the feed is one-way, reading only
// detects the close
func (s *subscriber) readPump() {
	defer func() {
		s.hub.unregister <- s
		_ = s.conn.Close()
	}()
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("price feed read error: %v", err)
			}
			break
		}
	}
}

// ServeWs authenticates the ?token= query param and upgrades the request to a
// price feed subscription
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	tokenString := c.Query("token")
	if tokenString == "" {
		log.Println("price feed rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		log.Println("price feed rejected: invalid token:", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		log.Println("price feed rejected: invalid claims")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role, _ := claims["role"].(string)
	if !model.ValidRole(role) {
		log.Println("price feed rejected: unknown role")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("websocket upgrade failed:", err)
		return
	}
	sub := &subscriber{hub: hub, conn: conn, send: make(chan []byte, 8)}
	hub.register <- sub

	go sub.writePump()
	go sub.readPump()
}
