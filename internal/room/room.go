package room

import (
	rand "math/rand/v2"
	"time"

	"github.com/hughes-T/poker-emulator/internal/deck"
)

// Mode selects how many cards each player is dealt. Three-card rooms play
// the competitive betting game; five-card rooms just deal and show.
type Mode int

const (
	ModeThreeCard Mode = 3
	ModeFiveCard  Mode = 5
)

// Valid reports whether the mode is one of the supported game types.
func (m Mode) Valid() bool {
	return m == ModeThreeCard || m == ModeFiveCard
}

// Status is the room lifecycle state. The string values are the wire
// representation.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusDealt    Status = "dealt"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// ActionKind identifies the betting actions recorded in LastAction.
type ActionKind string

const (
	ActionBet     ActionKind = "bet"
	ActionLook    ActionKind = "look"
	ActionCompare ActionKind = "compare"
	ActionFold    ActionKind = "fold"
)

// LastAction records the most recent betting action for display.
type LastAction struct {
	PlayerID string     `json:"playerId"`
	Action   ActionKind `json:"action"`
	Amount   int        `json:"amount,omitempty"`
	TargetID string     `json:"targetId,omitempty"`
}

// Player is a seat in a room. A player entry survives a disconnect for the
// grace window so the same display name can reclaim it.
type Player struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Cards          []deck.Card `json:"cards"`
	Ready          bool        `json:"isReady"`
	Chips          int         `json:"chips"`
	Looking        bool        `json:"isLooking"`
	Folded         bool        `json:"isFolded"`
	CurrentBet     int         `json:"currentBet"`
	TotalBet       int         `json:"totalBet"`
	Online         bool        `json:"online"`
	DisconnectedAt time.Time   `json:"-"`
}

// Room is the aggregate owned by the engine. All access goes through the
// per-room guard in the arena; nothing outside this package touches a *Room.
type Room struct {
	ID                 string
	Mode               Mode
	Players            []*Player
	HostID             string
	Status             Status
	Round              int
	Pot                int
	CurrentPlayerIndex int
	MaxBet             int
	AnteCollected      bool
	LastAction         *LastAction
	CreatedAt          time.Time

	// chipBase is the total chips in play recorded at the most recent deal,
	// used to verify chip conservation after every chip-moving operation.
	chipBase int
	rng      *rand.Rand
}

// Snapshot is an immutable copy of a room handed to the transport. Hands are
// unredacted here; per-viewer redaction is the transport's job.
type Snapshot struct {
	ID                 string      `json:"id"`
	Mode               Mode        `json:"gameType"`
	Players            []Player    `json:"players"`
	HostID             string      `json:"hostId"`
	Status             Status      `json:"status"`
	Round              int         `json:"round"`
	Pot                int         `json:"pot"`
	CurrentPlayerIndex int         `json:"currentPlayerIndex"`
	MaxBet             int         `json:"maxBet"`
	AnteCollected      bool        `json:"anteCollected"`
	LastAction         *LastAction `json:"lastAction,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
}

// Player returns the snapshot entry with the given id, or nil.
func (s *Snapshot) Player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

func (r *Room) snapshot() Snapshot {
	players := make([]Player, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		if p.Cards != nil {
			cp.Cards = make([]deck.Card, len(p.Cards))
			copy(cp.Cards, p.Cards)
		}
		players[i] = cp
	}
	var last *LastAction
	if r.LastAction != nil {
		la := *r.LastAction
		last = &la
	}
	return Snapshot{
		ID:                 r.ID,
		Mode:               r.Mode,
		Players:            players,
		HostID:             r.HostID,
		Status:             r.Status,
		Round:              r.Round,
		Pot:                r.Pot,
		CurrentPlayerIndex: r.CurrentPlayerIndex,
		MaxBet:             r.MaxBet,
		AnteCollected:      r.AnteCollected,
		LastAction:         last,
		CreatedAt:          r.CreatedAt,
	}
}

// player finds a seat by connection id.
func (r *Room) player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// activePlayers is the ordered subsequence of non-folded players. It is
// recomputed on every operation; never cache it across mutations.
func (r *Room) activePlayers() []*Player {
	active := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.Folded {
			active = append(active, p)
		}
	}
	return active
}

// onlineCount returns how many seated players have a live connection.
func (r *Room) onlineCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Online {
			n++
		}
	}
	return n
}
