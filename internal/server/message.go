package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hughes-T/poker-emulator/internal/deck"
	"github.com/hughes-T/poker-emulator/internal/hand"
	"github.com/hughes-T/poker-emulator/internal/room"
)

// MessageType identifies the websocket event carried by a Message.
type MessageType string

// Client → server events.
const (
	MessageTypeCreateRoom   MessageType = "createRoom"
	MessageTypeJoinRoom     MessageType = "joinRoom"
	MessageTypeLeaveRoom    MessageType = "leaveRoom"
	MessageTypeDealCards    MessageType = "dealCards"
	MessageTypePlayerReady  MessageType = "playerReady"
	MessageTypePlaceBet     MessageType = "placeBet"
	MessageTypeLookAtCards  MessageType = "lookAtCards"
	MessageTypeCompareCards MessageType = "compareCards"
	MessageTypeFold         MessageType = "fold"
	MessageTypeReconnect    MessageType = "reconnect"
)

// Server → client events.
const (
	MessageTypeRoomCreated       MessageType = "roomCreated"
	MessageTypePlayerJoined      MessageType = "playerJoined"
	MessageTypePlayerLeft        MessageType = "playerLeft"
	MessageTypeCardsDealt        MessageType = "cardsDealt"
	MessageTypePlayerReadyUpdate MessageType = "playerReadyUpdate"
	MessageTypeGameStateUpdate   MessageType = "gameStateUpdate"
	MessageTypeBetPlaced         MessageType = "betPlaced"
	MessageTypeCardsLooked       MessageType = "cardsLooked"
	MessageTypeCompareResult     MessageType = "compareResult"
	MessageTypePlayerFolded      MessageType = "playerFolded"
	MessageTypeGameEnd           MessageType = "gameEnd"
	MessageTypeError             MessageType = "error"
)

// Message is the websocket envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps a payload in an envelope with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → server payloads.

type CreateRoomData struct {
	PlayerName string `json:"playerName"`
	GameType   int    `json:"gameType"`
}

type JoinRoomData struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type LeaveRoomData struct {
	RoomID string `json:"roomId"`
}

type DealCardsData struct {
	RoomID string `json:"roomId"`
}

type PlayerReadyData struct {
	RoomID  string `json:"roomId"`
	IsReady bool   `json:"isReady"`
}

type PlaceBetData struct {
	RoomID string `json:"roomId"`
	Amount int    `json:"amount"`
}

type LookAtCardsData struct {
	RoomID string `json:"roomId"`
}

type CompareCardsData struct {
	RoomID         string `json:"roomId"`
	TargetPlayerID string `json:"targetPlayerId"`
}

type FoldData struct {
	RoomID string `json:"roomId"`
}

type ReconnectData struct {
	RoomID     string `json:"roomId"`
	PreviousID string `json:"previousId"`
}

// Server → client payloads.

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomCreatedData struct {
	RoomID string   `json:"roomId"`
	Room   RoomView `json:"room"`
}

type PlayerJoinedData struct {
	Room     RoomView `json:"room"`
	PlayerID string   `json:"playerId"`
	Rejoined bool     `json:"rejoined"`
}

type PlayerLeftData struct {
	Room     RoomView `json:"room"`
	PlayerID string   `json:"playerId"`
}

type CardsDealtData struct {
	Room RoomView `json:"room"`
}

type PlayerReadyUpdateData struct {
	Room RoomView `json:"room"`
}

type GameStateUpdateData struct {
	Room RoomView `json:"room"`
}

type BetPlacedData struct {
	Room     RoomView `json:"room"`
	PlayerID string   `json:"playerId"`
	Amount   int      `json:"amount"`
}

type CardsLookedData struct {
	Room     RoomView `json:"room"`
	PlayerID string   `json:"playerId"`
}

type CompareResultData struct {
	Room       RoomView      `json:"room"`
	WinnerID   string        `json:"winnerId"`
	LoserID    string        `json:"loserId"`
	WinnerHand hand.Analysis `json:"winnerHand"`
	LoserHand  hand.Analysis `json:"loserHand"`
}

type PlayerFoldedData struct {
	Room     RoomView `json:"room"`
	PlayerID string   `json:"playerId"`
}

type GameEndData struct {
	Room     RoomView                 `json:"room"`
	WinnerID string                   `json:"winnerId"`
	Amount   int                      `json:"amount"`
	Showdown bool                     `json:"showdown"`
	Hands    map[string]hand.Analysis `json:"hands,omitempty"`
}

// PlayerView is a player as seen by one particular viewer. Other players'
// hands are card counts only, never values.
type PlayerView struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CardCount  int         `json:"cardCount"`
	Cards      []deck.Card `json:"cards,omitempty"`
	IsReady    bool        `json:"isReady"`
	Chips      int         `json:"chips"`
	IsLooking  bool        `json:"isLooking"`
	IsFolded   bool        `json:"isFolded"`
	CurrentBet int         `json:"currentBet"`
	TotalBet   int         `json:"totalBet"`
	Online     bool        `json:"online"`
}

// RoomView is a room snapshot redacted for one viewer.
type RoomView struct {
	ID                 string           `json:"id"`
	GameType           int              `json:"gameType"`
	Players            []PlayerView     `json:"players"`
	HostID             string           `json:"hostId"`
	Status             room.Status      `json:"status"`
	Round              int              `json:"round"`
	Pot                int              `json:"pot"`
	CurrentPlayerIndex int              `json:"currentPlayerIndex"`
	MaxBet             int              `json:"maxBet"`
	AnteCollected      bool             `json:"anteCollected"`
	LastAction         *room.LastAction `json:"lastAction,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// RedactRoom builds the view of a snapshot that viewerID is allowed to see:
// real card values only for the viewer's own hand, and in three-card mode
// only once the viewer has looked.
func RedactRoom(s room.Snapshot, viewerID string) RoomView {
	players := make([]PlayerView, len(s.Players))
	for i, p := range s.Players {
		pv := PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			CardCount:  len(p.Cards),
			IsReady:    p.Ready,
			Chips:      p.Chips,
			IsLooking:  p.Looking,
			IsFolded:   p.Folded,
			CurrentBet: p.CurrentBet,
			TotalBet:   p.TotalBet,
			Online:     p.Online,
		}
		if p.ID == viewerID && (s.Mode != room.ModeThreeCard || p.Looking) {
			pv.Cards = p.Cards
		}
		players[i] = pv
	}
	return RoomView{
		ID:                 s.ID,
		GameType:           int(s.Mode),
		Players:            players,
		HostID:             s.HostID,
		Status:             s.Status,
		Round:              s.Round,
		Pot:                s.Pot,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		MaxBet:             s.MaxBet,
		AnteCollected:      s.AnteCollected,
		LastAction:         s.LastAction,
		CreatedAt:          s.CreatedAt,
	}
}

// errorCode maps an engine error to its wire code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, room.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, room.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, room.ErrAlreadyFolded):
		return "already_folded"
	case errors.Is(err, room.ErrAlreadyLooked):
		return "already_looked"
	case errors.Is(err, room.ErrNotHost):
		return "not_host"
	case errors.Is(err, room.ErrRoomFull):
		return "room_full"
	case errors.Is(err, room.ErrAlreadySeated):
		return "already_seated"
	case errors.Is(err, room.ErrGameNotInProgress):
		return "game_not_in_progress"
	case errors.Is(err, room.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, room.ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, room.ErrBetBelowMinimum):
		return "bet_below_minimum"
	case errors.Is(err, room.ErrBetBelowCurrentMax):
		return "bet_below_current_max"
	case errors.Is(err, room.ErrInsufficientChips):
		return "insufficient_chips"
	case errors.Is(err, room.ErrInvalidGameMode):
		return "invalid_game_mode"
	default:
		return "internal_error"
	}
}
