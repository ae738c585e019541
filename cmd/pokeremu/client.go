package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/hughes-T/poker-emulator/internal/deck"
	"github.com/hughes-T/poker-emulator/internal/server"
)

// ClientCmd is a line-oriented interactive client for playing by hand.
type ClientCmd struct {
	Server string `kong:"default='ws://localhost:8080/ws',help='WebSocket server URL'"`
	Name   string `kong:"default='',help='Display name (defaults to $USER)'"`
}

var (
	redSuit   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	blackSuit = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	potStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	turnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

func (c *ClientCmd) Run() error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "Player"
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.Server, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.Server, err)
	}
	defer func() { _ = conn.Close() }()

	logger.Info("connected", "server", c.Server, "name", name)
	printHelp()

	session := &clientSession{conn: conn, logger: logger, name: name}
	go session.readLoop()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := session.dispatch(line); err != nil {
			logger.Error("command failed", "err", err)
		}
	}
	return scanner.Err()
}

type clientSession struct {
	conn   *websocket.Conn
	logger *log.Logger
	name   string
	roomID string
}

func (s *clientSession) dispatch(line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		printHelp()
		return nil
	case "create":
		mode := 3
		if len(args) > 0 {
			m, err := strconv.Atoi(args[0])
			if err != nil || (m != 3 && m != 5) {
				return fmt.Errorf("usage: create [3|5]")
			}
			mode = m
		}
		return s.send(server.MessageTypeCreateRoom, server.CreateRoomData{PlayerName: s.name, GameType: mode})
	case "join":
		if len(args) != 1 {
			return fmt.Errorf("usage: join <roomId>")
		}
		s.roomID = strings.ToUpper(args[0])
		return s.send(server.MessageTypeJoinRoom, server.JoinRoomData{RoomID: s.roomID, PlayerName: s.name})
	case "leave":
		return s.send(server.MessageTypeLeaveRoom, server.LeaveRoomData{RoomID: s.roomID})
	case "deal":
		return s.send(server.MessageTypeDealCards, server.DealCardsData{RoomID: s.roomID})
	case "ready":
		return s.send(server.MessageTypePlayerReady, server.PlayerReadyData{RoomID: s.roomID, IsReady: true})
	case "bet":
		if len(args) != 1 {
			return fmt.Errorf("usage: bet <amount>")
		}
		amount, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bet amount must be a number")
		}
		return s.send(server.MessageTypePlaceBet, server.PlaceBetData{RoomID: s.roomID, Amount: amount})
	case "look":
		return s.send(server.MessageTypeLookAtCards, server.LookAtCardsData{RoomID: s.roomID})
	case "compare":
		if len(args) != 1 {
			return fmt.Errorf("usage: compare <playerId>")
		}
		return s.send(server.MessageTypeCompareCards, server.CompareCardsData{RoomID: s.roomID, TargetPlayerID: args[0]})
	case "fold":
		return s.send(server.MessageTypeFold, server.FoldData{RoomID: s.roomID})
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func (s *clientSession) send(msgType server.MessageType, payload interface{}) error {
	msg, err := server.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *clientSession) readLoop() {
	for {
		var msg server.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.logger.Error("connection lost", "err", err)
			os.Exit(1)
		}
		s.handle(&msg)
	}
}

func (s *clientSession) handle(msg *server.Message) {
	switch msg.Type {
	case server.MessageTypeRoomCreated:
		var data server.RoomCreatedData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.roomID = data.RoomID
			s.logger.Info("room created", "roomId", data.RoomID)
			s.printRoom(data.Room)
		}
	case server.MessageTypePlayerJoined:
		var data server.PlayerJoinedData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.roomID = data.Room.ID
			s.logger.Info("player joined", "playerId", data.PlayerID, "rejoined", data.Rejoined)
			s.printRoom(data.Room)
		}
	case server.MessageTypePlayerLeft:
		var data server.PlayerLeftData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.logger.Info("player left", "playerId", data.PlayerID)
			s.printRoom(data.Room)
		}
	case server.MessageTypeCardsDealt:
		var data server.CardsDealtData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.logger.Info("cards dealt")
			s.printRoom(data.Room)
		}
	case server.MessageTypePlayerReadyUpdate, server.MessageTypeGameStateUpdate:
		var data server.GameStateUpdateData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.printRoom(data.Room)
		}
	case server.MessageTypeBetPlaced:
		var data server.BetPlacedData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.logger.Info("bet placed", "playerId", data.PlayerID, "amount", data.Amount)
			s.printRoom(data.Room)
		}
	case server.MessageTypeCardsLooked:
		var data server.CardsLookedData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.logger.Info("player looked at cards", "playerId", data.PlayerID)
			s.printRoom(data.Room)
		}
	case server.MessageTypeCompareResult:
		var data server.CompareResultData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.logger.Info("showdown",
				"winner", data.WinnerID, "winnerHand", data.WinnerHand.Label,
				"loser", data.LoserID, "loserHand", data.LoserHand.Label)
			s.printRoom(data.Room)
		}
	case server.MessageTypePlayerFolded:
		var data server.PlayerFoldedData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.logger.Info("player folded", "playerId", data.PlayerID)
			s.printRoom(data.Room)
		}
	case server.MessageTypeGameEnd:
		var data server.GameEndData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.logger.Info("hand over", "winner", data.WinnerID,
				"pot", potStyle.Render(strconv.Itoa(data.Amount)), "showdown", data.Showdown)
			s.printRoom(data.Room)
		}
	case server.MessageTypeError:
		var data server.ErrorData
		if json.Unmarshal(msg.Data, &data) == nil {
			s.logger.Error("server error", "code", data.Code, "message", data.Message)
		}
	}
}

func (s *clientSession) printRoom(view server.RoomView) {
	fmt.Printf("room %s  status=%s  round=%d  pot=%s  maxBet=%d\n",
		view.ID, view.Status, view.Round, potStyle.Render(strconv.Itoa(view.Pot)), view.MaxBet)
	active := 0
	for _, p := range view.Players {
		marker := " "
		if !p.IsFolded {
			if active == view.CurrentPlayerIndex && view.Status == "playing" {
				marker = turnStyle.Render(">")
			}
			active++
		}
		cards := renderCards(p.Cards, p.CardCount)
		fmt.Printf(" %s %-12s chips=%-4d bet=%-3d %s %s\n",
			marker, p.Name, p.Chips, p.TotalBet, playerFlags(p), cards)
	}
}

func playerFlags(p server.PlayerView) string {
	var flags []string
	if p.IsFolded {
		flags = append(flags, "folded")
	}
	if p.IsLooking {
		flags = append(flags, "looked")
	}
	if !p.Online {
		flags = append(flags, "offline")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func renderCards(cards []deck.Card, count int) string {
	if len(cards) == 0 {
		return strings.Repeat("[?]", count)
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		style := blackSuit
		if c.Suit == deck.Hearts || c.Suit == deck.Diamonds {
			style = redSuit
		}
		parts[i] = style.Render("[" + c.String() + "]")
	}
	return strings.Join(parts, "")
}

func printHelp() {
	fmt.Println(`commands:
  create [3|5]        create a room (default three-card)
  join <roomId>       join or rejoin a room
  leave               leave the current room
  ready               mark yourself ready
  deal                deal cards (host only)
  bet <amount>        place a bet
  look                look at your cards
  compare <playerId>  force a showdown with a player
  fold                fold your hand
  quit                exit`)
}
