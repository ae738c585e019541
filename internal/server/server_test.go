package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hughes-T/poker-emulator/internal/randutil"
	"github.com/hughes-T/poker-emulator/internal/room"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine := room.NewEngine(zerolog.Nop(), randutil.New(1))
	srv := NewServer(zerolog.Nop(), engine)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType MessageType, payload interface{}) {
	t.Helper()
	msg, err := NewMessage(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// waitForMessage reads until a message of the wanted type arrives, skipping
// unrelated broadcasts.
func waitForMessage(t *testing.T, conn *websocket.Conn, want MessageType) *Message {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", want)
		if msg.Type == want {
			return &msg
		}
		if msg.Type == MessageTypeError {
			var data ErrorData
			_ = json.Unmarshal(msg.Data, &data)
			t.Fatalf("got error %s (%s) while waiting for %s", data.Code, data.Message, want)
		}
	}
}

func decodePayload(t *testing.T, msg *Message, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(msg.Data, into))
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestCreateAndJoinRoom(t *testing.T) {
	ts := newTestServer(t)
	host := dialWS(t, ts)
	guest := dialWS(t, ts)

	sendMessage(t, host, MessageTypeCreateRoom, CreateRoomData{PlayerName: "Alice", GameType: 3})
	var created RoomCreatedData
	decodePayload(t, waitForMessage(t, host, MessageTypeRoomCreated), &created)
	require.NotEmpty(t, created.RoomID)
	require.Len(t, created.Room.Players, 1)

	// Room ids are case-insensitive on the wire.
	sendMessage(t, guest, MessageTypeJoinRoom, JoinRoomData{
		RoomID:     strings.ToLower(created.RoomID),
		PlayerName: "Bob",
	})

	var joined PlayerJoinedData
	decodePayload(t, waitForMessage(t, guest, MessageTypePlayerJoined), &joined)
	assert.False(t, joined.Rejoined)
	assert.Len(t, joined.Room.Players, 2)

	// The host sees the join too.
	decodePayload(t, waitForMessage(t, host, MessageTypePlayerJoined), &joined)
	assert.Equal(t, "Bob", joined.Room.Players[1].Name)
}

func TestJoinUnknownRoom(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts)

	sendMessage(t, conn, MessageTypeJoinRoom, JoinRoomData{RoomID: "ZZZZZZ", PlayerName: "Bob"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MessageTypeError, msg.Type)

	var data ErrorData
	decodePayload(t, &msg, &data)
	assert.Equal(t, "room_not_found", data.Code)
}

func TestCreateRoomInvalidGameType(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts)

	sendMessage(t, conn, MessageTypeCreateRoom, CreateRoomData{PlayerName: "Alice", GameType: 4})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MessageTypeError, msg.Type)

	var data ErrorData
	decodePayload(t, &msg, &data)
	assert.Equal(t, "invalid_game_mode", data.Code)
}

func TestDealBroadcastsRedactedHands(t *testing.T) {
	ts := newTestServer(t)
	host := dialWS(t, ts)
	guest := dialWS(t, ts)

	sendMessage(t, host, MessageTypeCreateRoom, CreateRoomData{PlayerName: "Alice", GameType: 3})
	var created RoomCreatedData
	decodePayload(t, waitForMessage(t, host, MessageTypeRoomCreated), &created)
	hostID := created.Room.HostID

	sendMessage(t, guest, MessageTypeJoinRoom, JoinRoomData{RoomID: created.RoomID, PlayerName: "Bob"})
	waitForMessage(t, guest, MessageTypePlayerJoined)
	waitForMessage(t, host, MessageTypePlayerJoined)

	sendMessage(t, host, MessageTypeDealCards, DealCardsData{RoomID: created.RoomID})

	// Nobody has looked yet: both views carry counts only.
	var dealt CardsDealtData
	decodePayload(t, waitForMessage(t, host, MessageTypeCardsDealt), &dealt)
	assert.Equal(t, room.StatusPlaying, dealt.Room.Status)
	for _, p := range dealt.Room.Players {
		assert.Nil(t, p.Cards)
		assert.Equal(t, 3, p.CardCount)
	}
	decodePayload(t, waitForMessage(t, guest, MessageTypeCardsDealt), &dealt)
	for _, p := range dealt.Room.Players {
		assert.Nil(t, p.Cards)
	}

	// The host looks: their next view shows their own hand, the guest's view
	// of the host still does not.
	sendMessage(t, host, MessageTypeLookAtCards, LookAtCardsData{RoomID: created.RoomID})

	var looked CardsLookedData
	decodePayload(t, waitForMessage(t, host, MessageTypeCardsLooked), &looked)
	for _, p := range looked.Room.Players {
		if p.ID == hostID {
			assert.Len(t, p.Cards, 3)
		} else {
			assert.Nil(t, p.Cards)
		}
	}
	looked = CardsLookedData{}
	decodePayload(t, waitForMessage(t, guest, MessageTypeCardsLooked), &looked)
	for _, p := range looked.Room.Players {
		assert.Nil(t, p.Cards)
	}
}

func TestBetIsBroadcast(t *testing.T) {
	ts := newTestServer(t)
	host := dialWS(t, ts)
	guest := dialWS(t, ts)

	sendMessage(t, host, MessageTypeCreateRoom, CreateRoomData{PlayerName: "Alice", GameType: 3})
	var created RoomCreatedData
	decodePayload(t, waitForMessage(t, host, MessageTypeRoomCreated), &created)

	sendMessage(t, guest, MessageTypeJoinRoom, JoinRoomData{RoomID: created.RoomID, PlayerName: "Bob"})
	waitForMessage(t, guest, MessageTypePlayerJoined)
	waitForMessage(t, host, MessageTypePlayerJoined)

	sendMessage(t, host, MessageTypeDealCards, DealCardsData{RoomID: created.RoomID})
	waitForMessage(t, host, MessageTypeCardsDealt)
	waitForMessage(t, guest, MessageTypeCardsDealt)

	// Host acts first: two antes in the pot plus a blind bet of 2.
	sendMessage(t, host, MessageTypePlaceBet, PlaceBetData{RoomID: created.RoomID, Amount: 2})

	var bet BetPlacedData
	decodePayload(t, waitForMessage(t, guest, MessageTypeBetPlaced), &bet)
	assert.Equal(t, 2, bet.Amount)
	assert.Equal(t, 4, bet.Room.Pot)
	assert.Equal(t, 2, bet.Room.MaxBet)
}

func TestDisconnectMarksSeatOffline(t *testing.T) {
	ts := newTestServer(t)
	host := dialWS(t, ts)
	guest := dialWS(t, ts)

	sendMessage(t, host, MessageTypeCreateRoom, CreateRoomData{PlayerName: "Alice", GameType: 3})
	var created RoomCreatedData
	decodePayload(t, waitForMessage(t, host, MessageTypeRoomCreated), &created)

	sendMessage(t, guest, MessageTypeJoinRoom, JoinRoomData{RoomID: created.RoomID, PlayerName: "Bob"})
	waitForMessage(t, guest, MessageTypePlayerJoined)
	waitForMessage(t, host, MessageTypePlayerJoined)

	// A dropped connection keeps the seat, flagged offline, so Bob can come
	// back within the grace window.
	require.NoError(t, guest.Close())

	var update GameStateUpdateData
	decodePayload(t, waitForMessage(t, host, MessageTypeGameStateUpdate), &update)
	require.Len(t, update.Room.Players, 2)
	assert.True(t, update.Room.Players[0].Online)
	assert.False(t, update.Room.Players[1].Online)

	// A new connection with the same name reclaims the seat.
	comeback := dialWS(t, ts)
	sendMessage(t, comeback, MessageTypeJoinRoom, JoinRoomData{RoomID: created.RoomID, PlayerName: "Bob"})

	var joined PlayerJoinedData
	decodePayload(t, waitForMessage(t, comeback, MessageTypePlayerJoined), &joined)
	assert.True(t, joined.Rejoined)
	assert.Len(t, joined.Room.Players, 2)
	assert.True(t, joined.Room.Players[1].Online)
}
