package server

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hughes-T/poker-emulator/internal/room"
	"github.com/hughes-T/poker-emulator/internal/roomid"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Connection wraps one websocket client. The connection id is the player's
// identity towards the engine.
type Connection struct {
	id     string
	conn   *websocket.Conn
	send   chan *Message
	server *Server
	logger zerolog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu     sync.RWMutex
	roomID string
}

// NewConnection wraps a websocket connection.
func NewConnection(id string, conn *websocket.Conn, server *Server, logger zerolog.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		id:     id,
		conn:   conn,
		send:   make(chan *Message, 256),
		server: server,
		logger: logger.With().Str("conn", id).Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the transport-assigned connection identifier.
func (c *Connection) ID() string { return c.id }

// Room returns the room this connection is seated in, if any.
func (c *Connection) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *Connection) setRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

// Start begins the read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// Send queues a message for delivery. A client that cannot drain its buffer
// is disconnected rather than allowed to stall the broadcaster.
func (c *Connection) Send(msg *Message) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		c.logger.Warn().Msg("send buffer full, closing connection")
		_ = c.Close()
	}
}

func (c *Connection) readPump() {
	defer func() {
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug().Err(err).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug().Str("type", string(msg.Type)).Msg("received message")

	switch msg.Type {
	case MessageTypeCreateRoom:
		var data CreateRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse createRoom data")
			return
		}
		c.handleCreateRoom(data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse joinRoom data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeLeaveRoom:
		var data LeaveRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse leaveRoom data")
			return
		}
		c.handleLeaveRoom(data)

	case MessageTypeDealCards:
		var data DealCardsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse dealCards data")
			return
		}
		c.handleDealCards(data)

	case MessageTypePlayerReady:
		var data PlayerReadyData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse playerReady data")
			return
		}
		c.handlePlayerReady(data)

	case MessageTypePlaceBet:
		var data PlaceBetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse placeBet data")
			return
		}
		c.handlePlaceBet(data)

	case MessageTypeLookAtCards:
		var data LookAtCardsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse lookAtCards data")
			return
		}
		c.handleLookAtCards(data)

	case MessageTypeCompareCards:
		var data CompareCardsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse compareCards data")
			return
		}
		c.handleCompareCards(data)

	case MessageTypeFold:
		var data FoldData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse fold data")
			return
		}
		c.handleFold(data)

	case MessageTypeReconnect:
		var data ReconnectData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse reconnect data")
			return
		}
		c.handleReconnect(data)

	default:
		c.sendError("unknown_message_type", "unknown message type: "+string(msg.Type))
	}
}

func (c *Connection) sendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to create error message")
		return
	}
	c.Send(msg)
}

func (c *Connection) sendEngineError(err error) {
	c.sendError(errorCode(err), err.Error())
}

func (c *Connection) handleCreateRoom(data CreateRoomData) {
	name := strings.TrimSpace(data.PlayerName)
	if name == "" {
		c.sendError("invalid_message", "player name is required")
		return
	}
	mode := room.Mode(data.GameType)
	if !mode.Valid() {
		c.sendError("invalid_game_mode", "game type must be 3 or 5")
		return
	}

	snap, err := c.server.engine.CreateRoom(c.id, name, mode)
	if err != nil {
		c.sendEngineError(err)
		return
	}
	c.setRoom(snap.ID)

	msg, _ := NewMessage(MessageTypeRoomCreated, RoomCreatedData{
		RoomID: snap.ID,
		Room:   RedactRoom(snap, c.id),
	})
	c.Send(msg)
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	name := strings.TrimSpace(data.PlayerName)
	if name == "" {
		c.sendError("invalid_message", "player name is required")
		return
	}

	id := roomid.Normalize(data.RoomID)
	snap, rejoined, err := c.server.engine.JoinRoom(id, c.id, name)
	if err != nil {
		c.sendEngineError(err)
		return
	}
	c.setRoom(snap.ID)

	c.server.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
		return MessageTypePlayerJoined, PlayerJoinedData{Room: view, PlayerID: c.id, Rejoined: rejoined}
	})
}

func (c *Connection) handleLeaveRoom(data LeaveRoomData) {
	id := roomid.Normalize(data.RoomID)
	snap, destroyed, err := c.server.engine.LeaveRoom(id, c.id)
	if err != nil {
		c.sendEngineError(err)
		return
	}
	c.setRoom("")

	if !destroyed {
		c.server.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
			return MessageTypePlayerLeft, PlayerLeftData{Room: view, PlayerID: c.id}
		})
	}
}

func (c *Connection) handleDealCards(data DealCardsData) {
	id := roomid.Normalize(data.RoomID)
	snap, err := c.server.engine.DealCards(id, c.id)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	c.server.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
		return MessageTypeCardsDealt, CardsDealtData{Room: view}
	})
}

func (c *Connection) handlePlayerReady(data PlayerReadyData) {
	id := roomid.Normalize(data.RoomID)
	snap, err := c.server.engine.SetReady(id, c.id, data.IsReady)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	c.server.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
		return MessageTypePlayerReadyUpdate, PlayerReadyUpdateData{Room: view}
	})
}

func (c *Connection) handlePlaceBet(data PlaceBetData) {
	id := roomid.Normalize(data.RoomID)
	snap, result, err := c.server.engine.PlaceBet(id, c.id, data.Amount)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	c.server.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
		return MessageTypeBetPlaced, BetPlacedData{Room: view, PlayerID: c.id, Amount: data.Amount}
	})
	c.server.broadcastGameEnd(snap, result)
}

func (c *Connection) handleLookAtCards(data LookAtCardsData) {
	id := roomid.Normalize(data.RoomID)
	snap, err := c.server.engine.LookAtCards(id, c.id)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	c.server.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
		return MessageTypeCardsLooked, CardsLookedData{Room: view, PlayerID: c.id}
	})
}

func (c *Connection) handleCompareCards(data CompareCardsData) {
	id := roomid.Normalize(data.RoomID)
	snap, cmp, result, err := c.server.engine.CompareCards(id, c.id, data.TargetPlayerID)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	c.server.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
		return MessageTypeCompareResult, CompareResultData{
			Room:       view,
			WinnerID:   cmp.WinnerID,
			LoserID:    cmp.LoserID,
			WinnerHand: cmp.WinnerHand,
			LoserHand:  cmp.LoserHand,
		}
	})
	c.server.broadcastGameEnd(snap, result)
}

func (c *Connection) handleFold(data FoldData) {
	id := roomid.Normalize(data.RoomID)
	snap, result, err := c.server.engine.Fold(id, c.id)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	c.server.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
		return MessageTypePlayerFolded, PlayerFoldedData{Room: view, PlayerID: c.id}
	})
	c.server.broadcastGameEnd(snap, result)
}

func (c *Connection) handleReconnect(data ReconnectData) {
	id := roomid.Normalize(data.RoomID)
	snap, err := c.server.engine.Reconnect(id, data.PreviousID, c.id)
	if err != nil {
		c.sendEngineError(err)
		return
	}
	c.setRoom(snap.ID)

	c.server.broadcastRoom(snap, func(view RoomView) (MessageType, interface{}) {
		return MessageTypePlayerJoined, PlayerJoinedData{Room: view, PlayerID: c.id, Rejoined: true}
	})
}
