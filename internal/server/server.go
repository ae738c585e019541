package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hughes-T/poker-emulator/internal/room"
)

// Server accepts websocket clients and routes their actions into the room
// engine. It performs the per-viewer redaction when broadcasting snapshots.
type Server struct {
	engine   *room.Engine
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu          sync.RWMutex
	connections map[*Connection]bool

	httpServer *http.Server
}

// NewServer creates a websocket server over the given engine.
func NewServer(logger zerolog.Logger, engine *room.Engine) *Server {
	return &Server{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Identity comes from the connection itself, not the origin.
				return true
			},
		},
		logger:      logger.With().Str("component", "server").Logger(),
		connections: make(map[*Connection]bool),
	}
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	s.logger.Info().Str("addr", addr).Msg("starting websocket server")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the listener and closes every client connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	conn := NewConnection(newConnID(), ws, s, s.logger)

	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info().Str("conn", conn.ID()).Int("total", total).Msg("client connected")

	conn.Start()

	go func() {
		<-conn.ctx.Done()
		s.dropConnection(conn)
	}()
}

// dropConnection removes a closed connection and marks its seat offline so
// the grace-window reconnect can reclaim it.
func (s *Server) dropConnection(conn *Connection) {
	s.mu.Lock()
	if _, ok := s.connections[conn]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()

	if roomID := conn.Room(); roomID != "" {
		snap, err := s.engine.MarkOffline(roomID, conn.ID())
		if err == nil {
			s.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
				return MessageTypeGameStateUpdate, GameStateUpdateData{Room: view}
			})
		}
	}
	s.logger.Info().Str("conn", conn.ID()).Int("total", total).Msg("client disconnected")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"rooms":  len(s.engine.Rooms()),
	})
}

// broadcastRoom sends an event to every connection seated in the room. The
// payload is rebuilt per recipient so each viewer only ever sees their own
// hand.
func (s *Server) broadcastRoom(snap room.Snapshot, build func(view RoomView) (MessageType, interface{})) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.Room() != snap.ID {
			continue
		}
		msgType, payload := build(RedactRoom(snap, conn.ID()))
		msg, err := NewMessage(msgType, payload)
		if err != nil {
			s.logger.Error().Err(err).Str("type", string(msgType)).Msg("failed to encode broadcast")
			return
		}
		conn.Send(msg)
	}
}

// broadcastGameEnd announces a finished hand, if the result is non-nil.
func (s *Server) broadcastGameEnd(snap room.Snapshot, result *room.HandResult) {
	if result == nil {
		return
	}
	s.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
		return MessageTypeGameEnd, GameEndData{
			Room:     view,
			WinnerID: result.WinnerID,
			Amount:   result.Amount,
			Showdown: result.Showdown,
			Hands:    result.Hands,
		}
	})
}

// newConnID generates the transport-level connection identifier.
func newConnID() string {
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic(fmt.Sprintf("failed to generate connection id: %v", err))
	}
	return "conn-" + hex.EncodeToString(raw[:])
}
