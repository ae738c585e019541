package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hughes-T/poker-emulator/internal/deck"
	"github.com/hughes-T/poker-emulator/internal/room"
)

func testSnapshot(mode room.Mode) room.Snapshot {
	hand := func(ranks ...deck.Rank) []deck.Card {
		cards := make([]deck.Card, len(ranks))
		for i, r := range ranks {
			cards[i] = deck.Card{Suit: deck.Hearts, Rank: r}
		}
		return cards
	}
	return room.Snapshot{
		ID:     "ABC123",
		Mode:   mode,
		HostID: "p1",
		Status: room.StatusPlaying,
		Players: []room.Player{
			{ID: "p1", Name: "Alice", Cards: hand(deck.Ace, deck.King, deck.Queen), Chips: 99},
			{ID: "p2", Name: "Bob", Cards: hand(deck.Two, deck.Three, deck.Four), Chips: 99, Looking: true},
		},
	}
}

func TestRedactRoomHidesOtherHands(t *testing.T) {
	snap := testSnapshot(room.ModeThreeCard)
	view := RedactRoom(snap, "p2")

	require.Len(t, view.Players, 2)

	// p2 has looked: they see their own cards.
	assert.Equal(t, snap.Players[1].Cards, view.Players[1].Cards)
	assert.Equal(t, 3, view.Players[1].CardCount)

	// p1's hand is a count only.
	assert.Nil(t, view.Players[0].Cards)
	assert.Equal(t, 3, view.Players[0].CardCount)
}

func TestRedactRoomBlindViewerSeesNothing(t *testing.T) {
	snap := testSnapshot(room.ModeThreeCard)
	view := RedactRoom(snap, "p1")

	// p1 has not looked yet: even their own hand stays hidden.
	assert.Nil(t, view.Players[0].Cards)
	assert.Equal(t, 3, view.Players[0].CardCount)
	assert.Nil(t, view.Players[1].Cards)
}

func TestRedactRoomFiveCardShowsOwnHand(t *testing.T) {
	snap := testSnapshot(room.ModeFiveCard)
	view := RedactRoom(snap, "p1")

	// Five-card rooms have no look step; the viewer always sees their hand.
	assert.Equal(t, snap.Players[0].Cards, view.Players[0].Cards)
	assert.Nil(t, view.Players[1].Cards)
}

func TestRedactRoomSpectator(t *testing.T) {
	snap := testSnapshot(room.ModeThreeCard)
	view := RedactRoom(snap, "someone-else")

	for _, p := range view.Players {
		assert.Nil(t, p.Cards)
	}
	assert.Equal(t, "ABC123", view.ID)
	assert.Equal(t, 3, view.GameType)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{room.ErrRoomNotFound, "room_not_found"},
		{room.ErrNotYourTurn, "not_your_turn"},
		{room.ErrBetBelowCurrentMax, "bet_below_current_max"},
		{room.ErrInsufficientChips, "insufficient_chips"},
		{assert.AnError, "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorCode(tt.err))
	}
}
