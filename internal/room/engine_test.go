package room

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hughes-T/poker-emulator/internal/randutil"
	"github.com/hughes-T/poker-emulator/internal/roomid"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(zerolog.Nop(), randutil.New(1), opts...)
}

// threePlayerRoom creates a room with host p1 and seats p2 and p3.
func threePlayerRoom(t *testing.T, e *Engine) string {
	t.Helper()
	snap, err := e.CreateRoom("p1", "Alice", ModeThreeCard)
	require.NoError(t, err)
	_, _, err = e.JoinRoom(snap.ID, "p2", "Bob")
	require.NoError(t, err)
	_, _, err = e.JoinRoom(snap.ID, "p3", "Carol")
	require.NoError(t, err)
	return snap.ID
}

func TestCreateRoom(t *testing.T) {
	e := newTestEngine(t)

	snap, err := e.CreateRoom("p1", "Alice", ModeThreeCard)
	require.NoError(t, err)

	assert.True(t, roomid.Valid(snap.ID), "room id %q should be valid", snap.ID)
	assert.Equal(t, StatusWaiting, snap.Status)
	assert.Equal(t, "p1", snap.HostID)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "Alice", snap.Players[0].Name)
	assert.Equal(t, e.Config().StartChips, snap.Players[0].Chips)
	assert.True(t, snap.Players[0].Online)
}

func TestCreateRoomInvalidMode(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateRoom("p1", "Alice", Mode(4))
	assert.ErrorIs(t, err, ErrInvalidGameMode)
}

func TestCreateRoomUniqueIDs(t *testing.T) {
	e := newTestEngine(t)
	ids := make(map[string]bool)
	for i := 0; i < 50; i++ {
		snap, err := e.CreateRoom("host", "Host", ModeThreeCard)
		require.NoError(t, err)
		assert.False(t, ids[snap.ID], "duplicate room id %s", snap.ID)
		ids[snap.ID] = true
	}
}

func TestJoinRoom(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)

	snap, err := e.GetRoom(roomID)
	require.NoError(t, err)
	assert.Len(t, snap.Players, 3)
	assert.Equal(t, "p1", snap.HostID)
}

func TestJoinRoomNotFound(t *testing.T) {
	e := newTestEngine(t)
	_, _, err := e.JoinRoom("ZZZZZZ", "p1", "Alice")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinRoomAlreadySeated(t *testing.T) {
	e := newTestEngine(t)
	snap, err := e.CreateRoom("p1", "Alice", ModeThreeCard)
	require.NoError(t, err)

	_, _, err = e.JoinRoom(snap.ID, "p1", "Alice")
	assert.ErrorIs(t, err, ErrAlreadySeated)
}

func TestJoinRoomFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	e := newTestEngine(t, WithConfig(cfg))

	snap, err := e.CreateRoom("p1", "Alice", ModeThreeCard)
	require.NoError(t, err)
	_, _, err = e.JoinRoom(snap.ID, "p2", "Bob")
	require.NoError(t, err)

	_, _, err = e.JoinRoom(snap.ID, "p3", "Carol")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinRoomGameInProgress(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)
	_, err := e.DealCards(roomID, "p1")
	require.NoError(t, err)

	_, _, err = e.JoinRoom(roomID, "p4", "Dave")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestJoinRoomReclaimsOfflineSeat(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)
	_, err := e.DealCards(roomID, "p1")
	require.NoError(t, err)

	before, err := e.GetRoom(roomID)
	require.NoError(t, err)
	bob := before.Player("p2")
	require.NotNil(t, bob)

	_, err = e.MarkOffline(roomID, "p2")
	require.NoError(t, err)

	// Same display name on a fresh connection reclaims the seat mid-game.
	snap, rejoined, err := e.JoinRoom(roomID, "p2-new", "Bob")
	require.NoError(t, err)
	assert.True(t, rejoined)
	assert.Len(t, snap.Players, 3)

	after := snap.Player("p2-new")
	require.NotNil(t, after)
	assert.True(t, after.Online)
	assert.Equal(t, bob.Chips, after.Chips)
	assert.Equal(t, bob.Cards, after.Cards)
	assert.Nil(t, snap.Player("p2"))
}

func TestJoinRoomReclaimTransfersHost(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)

	_, err := e.MarkOffline(roomID, "p1")
	require.NoError(t, err)

	snap, rejoined, err := e.JoinRoom(roomID, "p1-new", "Alice")
	require.NoError(t, err)
	assert.True(t, rejoined)
	assert.Equal(t, "p1-new", snap.HostID)
}

func TestLeaveRoomTransfersHost(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)

	snap, destroyed, err := e.LeaveRoom(roomID, "p1")
	require.NoError(t, err)
	assert.False(t, destroyed)
	assert.Len(t, snap.Players, 2)
	assert.Equal(t, "p2", snap.HostID)
	assert.Nil(t, snap.Player("p1"))
}

func TestLeaveRoomDestroysWhenEmpty(t *testing.T) {
	e := newTestEngine(t)
	snap, err := e.CreateRoom("p1", "Alice", ModeThreeCard)
	require.NoError(t, err)

	_, destroyed, err := e.LeaveRoom(snap.ID, "p1")
	require.NoError(t, err)
	assert.True(t, destroyed)

	_, err = e.GetRoom(snap.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, e.Rooms())
}

func TestLeaveRoomAbandonsHand(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)
	_, err := e.DealCards(roomID, "p1")
	require.NoError(t, err)

	snap, destroyed, err := e.LeaveRoom(roomID, "p2")
	require.NoError(t, err)
	assert.False(t, destroyed)
	assert.Equal(t, StatusWaiting, snap.Status)
	for _, p := range snap.Players {
		assert.Empty(t, p.Cards, "hands should be cleared when a hand is abandoned")
	}
}

func TestLeaveRoomPlayerNotFound(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)
	_, _, err := e.LeaveRoom(roomID, "nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestSetReady(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)

	snap, err := e.SetReady(roomID, "p2", true)
	require.NoError(t, err)
	assert.True(t, snap.Player("p2").Ready)

	snap, err = e.SetReady(roomID, "p2", false)
	require.NoError(t, err)
	assert.False(t, snap.Player("p2").Ready)
}

func TestReconnect(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)

	_, err := e.MarkOffline(roomID, "p1")
	require.NoError(t, err)

	snap, err := e.Reconnect(roomID, "p1", "p1-new")
	require.NoError(t, err)
	assert.Equal(t, "p1-new", snap.HostID)
	require.NotNil(t, snap.Player("p1-new"))
	assert.True(t, snap.Player("p1-new").Online)
	assert.Nil(t, snap.Player("p1"))
}

func TestReconnectUnknownSeat(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)
	_, err := e.Reconnect(roomID, "nobody", "new")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestDealCardsThreeCard(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)

	snap, err := e.DealCards(roomID, "p1")
	require.NoError(t, err)

	assert.Equal(t, StatusPlaying, snap.Status)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, 0, snap.CurrentPlayerIndex)
	assert.Equal(t, 0, snap.MaxBet)
	assert.True(t, snap.AnteCollected)
	assert.Equal(t, 3, snap.Pot, "one ante per player")

	seen := make(map[string]bool)
	for _, p := range snap.Players {
		require.Len(t, p.Cards, 3)
		assert.Equal(t, 99, p.Chips)
		assert.Equal(t, 1, p.TotalBet)
		assert.False(t, p.Folded)
		assert.False(t, p.Looking)
		for _, c := range p.Cards {
			assert.False(t, seen[c.String()], "card %s dealt twice", c)
			seen[c.String()] = true
		}
	}
}

func TestDealCardsFiveCard(t *testing.T) {
	e := newTestEngine(t)
	snap, err := e.CreateRoom("p1", "Alice", ModeFiveCard)
	require.NoError(t, err)
	_, _, err = e.JoinRoom(snap.ID, "p2", "Bob")
	require.NoError(t, err)

	snap, err = e.DealCards(snap.ID, "p1")
	require.NoError(t, err)

	assert.Equal(t, StatusDealt, snap.Status)
	assert.Equal(t, 0, snap.Pot, "five-card rooms collect no ante")
	for _, p := range snap.Players {
		assert.Len(t, p.Cards, 5)
		assert.Equal(t, 100, p.Chips)
	}
}

func TestDealCardsNotHost(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)
	_, err := e.DealCards(roomID, "p2")
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestDealCardsNeedsTwoPlayers(t *testing.T) {
	e := newTestEngine(t)
	snap, err := e.CreateRoom("p1", "Alice", ModeThreeCard)
	require.NoError(t, err)
	_, err = e.DealCards(snap.ID, "p1")
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestDealCardsRejectedMidHand(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)
	_, err := e.DealCards(roomID, "p1")
	require.NoError(t, err)
	_, err = e.DealCards(roomID, "p1")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestDealCardsAfterFinishedHand(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)
	_, err := e.DealCards(roomID, "p1")
	require.NoError(t, err)

	// Fold the hand down to one survivor, then redeal.
	_, _, err = e.Fold(roomID, "p1")
	require.NoError(t, err)
	snap, _, err := e.Fold(roomID, "p2")
	require.NoError(t, err)
	require.Equal(t, StatusFinished, snap.Status)

	snap, err = e.DealCards(roomID, "p1")
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, snap.Status)
	assert.Equal(t, 1, snap.Round)
}

func TestAnteSkipsBrokePlayer(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)

	// Drain p3 before the deal; the ante is skipped, not forced.
	require.NoError(t, e.withRoom(roomID, func(r *Room) error {
		r.player("p3").Chips = 0
		return nil
	}))

	snap, err := e.DealCards(roomID, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Pot)
	assert.Equal(t, 0, snap.Player("p3").Chips)
	assert.Equal(t, 0, snap.Player("p3").TotalBet)
	assert.False(t, snap.Player("p3").Folded)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e := newTestEngine(t)
	roomID := threePlayerRoom(t, e)
	_, err := e.DealCards(roomID, "p1")
	require.NoError(t, err)

	snap, err := e.GetRoom(roomID)
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the room.
	snap.Players[0].Chips = 0
	snap.Players[0].Cards[0] = snap.Players[1].Cards[0]

	fresh, err := e.GetRoom(roomID)
	require.NoError(t, err)
	assert.Equal(t, 99, fresh.Players[0].Chips)
	assert.NotEqual(t, fresh.Players[1].Cards[0], fresh.Players[0].Cards[0])
}
