// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dashboard pushes ledger snapshots to browser dashboards over
// websockets.
package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/truthscore/internal/ledger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 8
)

// MessageTypeLedger tags snapshot frames.
const MessageTypeLedger = "ledger"

// Message is the frame sent to dashboards.
type Message struct {
	Type       string          `json:"type"`
	TotalScore int             `json:"totalScore"`
	History    []ledger.Record `json:"history"`
}

type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans ledger changes out to every connected dashboard. A new
// connection receives the current snapshot immediately; slow clients only
// ever get the latest snapshot.
type Hub struct {
	store    *ledger.Store
	upgrader websocket.Upgrader

	mu          sync.Mutex
	sessions    map[string]*session
	closed      bool
	unsubscribe func()
	wg          sync.WaitGroup
}

// NewHub subscribes to store. allowedOrigins restricts browser origins;
// "*" allows any and requests without an Origin header are always allowed.
func NewHub(store *ledger.Store, allowedOrigins []string) *Hub {
	h := &Hub{
		store:    store,
		sessions: make(map[string]*session),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	h.unsubscribe = store.Subscribe(h.broadcast)
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Encode renders a ledger snapshot frame.
func Encode(l ledger.Ledger) ([]byte, error) {
	history := l.History
	if history == nil {
		history = []ledger.Record{}
	}
	return json.Marshal(Message{Type: MessageTypeLedger, TotalScore: l.TotalScore, History: history})
}

// ServeHTTP upgrades the request and streams snapshots until either side
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("dashboard upgrade failed: %v", err)
		return
	}

	sess := &session{
		id:   uuid.NewString()[:8],
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	// Registration and the initial snapshot happen under one lock so no
	// broadcast can land between them.
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	initial, err := Encode(h.store.Read(r.Context()))
	if err != nil {
		h.mu.Unlock()
		log.Errorf("dashboard encode failed: %v", err)
		_ = conn.Close()
		return
	}
	sess.send <- initial
	h.sessions[sess.id] = sess
	h.wg.Add(2)
	h.mu.Unlock()

	log.WithField("session", sess.id).Debug("dashboard connected")
	go h.writeLoop(sess)
	go h.readLoop(sess)
}

// Sessions returns the number of connected dashboards.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) broadcast(l ledger.Ledger) {
	msg, err := Encode(l)
	if err != nil {
		log.Errorf("dashboard encode failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		select {
		case s.send <- msg:
		default:
			// Full: replace the oldest queued snapshot.
			select {
			case <-s.send:
			default:
			}
			select {
			case s.send <- msg:
			default:
			}
		}
	}
}

func (h *Hub) remove(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.id]; ok {
		delete(h.sessions, s.id)
		close(s.send)
		log.WithField("session", s.id).Debug("dashboard disconnected")
	}
}

func (h *Hub) writeLoop(s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
		h.wg.Done()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				_ = s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(s)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(s)
				return
			}
		}
	}
}

func (h *Hub) readLoop(s *session) {
	defer func() {
		h.remove(s)
		h.wg.Done()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Close unsubscribes from the store, disconnects every dashboard and waits
// for their goroutines to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	h.unsubscribe()
	for _, s := range sessions {
		h.remove(s)
	}
	h.wg.Wait()
}
