package room

import (
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/hughes-T/poker-emulator/internal/deck"
	"github.com/hughes-T/poker-emulator/internal/randutil"
	"github.com/hughes-T/poker-emulator/internal/roomid"
)

// Config holds the table rules and housekeeping windows.
type Config struct {
	MaxPlayers  int           // seats per room
	StartChips  int           // chips granted to a fresh seat
	Ante        int           // forced bet collected at deal time
	MinBet      int           // table minimum bet amount
	MaxRounds   int           // round count that triggers the forced showdown
	GraceWindow time.Duration // how long an offline seat survives
	RoomTTL     time.Duration // age at which a room with no online players is pruned
}

// DefaultConfig returns the standard table rules.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:  6,
		StartChips:  100,
		Ante:        1,
		MinBet:      1,
		MaxRounds:   10,
		GraceWindow: 2 * time.Minute,
		RoomTTL:     24 * time.Hour,
	}
}

// Engine owns every room. Rooms are independent aggregates: the engine-level
// lock only guards the map and the shared RNG, while each room carries its
// own mutex so operations on different rooms run fully in parallel.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
	clock  quartz.Clock

	mu    sync.RWMutex
	rng   *rand.Rand // guarded by mu; seeds room ids and per-room generators
	rooms map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	room *Room
	// gone marks an entry destroyed while another goroutine held a stale
	// pointer to it; such callers observe RoomNotFound.
	gone bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig overrides the default table rules.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithClock injects a clock, used by tests to drive the grace window and
// room TTL.
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine creates an empty room arena.
func NewEngine(logger zerolog.Logger, rng *rand.Rand, opts ...Option) *Engine {
	e := &Engine{
		cfg:    DefaultConfig(),
		logger: logger.With().Str("component", "engine").Logger(),
		clock:  quartz.NewReal(),
		rng:    rng,
		rooms:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine's table rules.
func (e *Engine) Config() Config {
	return e.cfg
}

// CreateRoom allocates a room with a unique id and seats the host.
func (e *Engine) CreateRoom(hostID, name string, mode Mode) (Snapshot, error) {
	if !mode.Valid() {
		return Snapshot{}, ErrInvalidGameMode
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Regenerate on collision; with 36^6 ids this loop almost never repeats.
	var id string
	for {
		id = roomid.New(e.rng)
		if _, exists := e.rooms[id]; !exists {
			break
		}
	}

	r := &Room{
		ID:        id,
		Mode:      mode,
		Players:   []*Player{e.newPlayer(hostID, name)},
		HostID:    hostID,
		Status:    StatusWaiting,
		CreatedAt: e.clock.Now(),
		rng:       randutil.Derive(e.rng),
	}
	e.rooms[id] = &entry{room: r}

	e.logger.Info().Str("room", id).Str("host", name).Int("mode", int(mode)).Msg("room created")
	return r.snapshot(), nil
}

func (e *Engine) newPlayer(id, name string) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Chips:  e.cfg.StartChips,
		Online: true,
	}
}

// JoinRoom seats connID in the room. If an offline seat with the same
// display name exists the connection reclaims that seat with its chips, hand
// and bets intact, regardless of room status. The returned bool reports
// whether this was such a reconnection.
func (e *Engine) JoinRoom(roomID, connID, name string) (Snapshot, bool, error) {
	var snap Snapshot
	var rejoined bool
	err := e.withRoom(roomID, func(r *Room) error {
		for _, p := range r.Players {
			if !p.Online && p.Name == name {
				if r.HostID == p.ID {
					r.HostID = connID
				}
				p.ID = connID
				p.Online = true
				p.DisconnectedAt = time.Time{}
				rejoined = true
				snap = r.snapshot()
				return nil
			}
		}

		if p := r.player(connID); p != nil && p.Online {
			return ErrAlreadySeated
		}
		if r.Status != StatusWaiting {
			return ErrGameInProgress
		}
		if len(r.Players) >= e.cfg.MaxPlayers {
			return ErrRoomFull
		}

		r.Players = append(r.Players, e.newPlayer(connID, name))
		snap = r.snapshot()
		return nil
	})
	return snap, rejoined, err
}

// LeaveRoom permanently removes the player. The room is destroyed when it
// empties; otherwise the host role transfers if needed and any in-progress
// hand is forfeited: status resets to waiting and all hands are cleared.
// The returned bool reports whether the room was destroyed.
func (e *Engine) LeaveRoom(roomID, connID string) (Snapshot, bool, error) {
	var snap Snapshot
	var destroyed bool
	err := e.withEntry(roomID, func(ent *entry) error {
		r := ent.room
		if r.player(connID) == nil {
			return ErrPlayerNotFound
		}
		e.removePlayer(r, connID)
		if len(r.Players) == 0 {
			// Marked gone under the room guard so a concurrent join cannot
			// slip into the doomed room before it leaves the map.
			ent.gone = true
			destroyed = true
			return nil
		}
		snap = r.snapshot()
		return nil
	})
	if err != nil {
		return Snapshot{}, false, err
	}
	if destroyed {
		e.unregister(roomID)
	}
	return snap, destroyed, nil
}

// removePlayer deletes a seat and resets the room for the remaining players.
// Callers must hold the room guard.
func (e *Engine) removePlayer(r *Room, connID string) {
	players := r.Players[:0]
	for _, p := range r.Players {
		if p.ID != connID {
			players = append(players, p)
		}
	}
	r.Players = players
	if len(r.Players) == 0 {
		return
	}
	if r.HostID == connID {
		r.HostID = r.Players[0].ID
	}
	// Abandon any hand in progress. The pot is forfeited without payout;
	// the next deal resets it.
	r.Status = StatusWaiting
	for _, p := range r.Players {
		p.Cards = nil
	}
}

// SetReady updates a player's ready flag.
func (e *Engine) SetReady(roomID, connID string, ready bool) (Snapshot, error) {
	var snap Snapshot
	err := e.withRoom(roomID, func(r *Room) error {
		p := r.player(connID)
		if p == nil {
			return ErrPlayerNotFound
		}
		p.Ready = ready
		snap = r.snapshot()
		return nil
	})
	return snap, err
}

// MarkOffline flags a transient disconnect. The seat, chips and hand survive
// for the grace window; the sweep prunes it afterwards.
func (e *Engine) MarkOffline(roomID, connID string) (Snapshot, error) {
	var snap Snapshot
	err := e.withRoom(roomID, func(r *Room) error {
		p := r.player(connID)
		if p == nil {
			return ErrPlayerNotFound
		}
		p.Online = false
		p.DisconnectedAt = e.clock.Now()
		snap = r.snapshot()
		return nil
	})
	return snap, err
}

// Reconnect reattaches a known seat to a new connection id, updating the
// host reference if the host reconnected.
func (e *Engine) Reconnect(roomID, oldID, newID string) (Snapshot, error) {
	var snap Snapshot
	err := e.withRoom(roomID, func(r *Room) error {
		p := r.player(oldID)
		if p == nil {
			return ErrPlayerNotFound
		}
		if r.HostID == oldID {
			r.HostID = newID
		}
		p.ID = newID
		p.Online = true
		p.DisconnectedAt = time.Time{}
		snap = r.snapshot()
		return nil
	})
	return snap, err
}

// DealCards starts a fresh hand: new shuffled deck, cleared per-hand state,
// mode cards to every seat. Three-card rooms enter the betting game and
// collect the ante; five-card rooms just show their cards.
func (e *Engine) DealCards(roomID, hostID string) (Snapshot, error) {
	var snap Snapshot
	err := e.withRoom(roomID, func(r *Room) error {
		if r.HostID != hostID {
			return ErrNotHost
		}
		if len(r.Players) < 2 {
			return ErrInsufficientPlayers
		}
		if r.Status == StatusPlaying {
			return ErrGameInProgress
		}

		d := deck.New(r.rng)
		for _, p := range r.Players {
			p.Cards = nil
			p.Looking = false
			p.Folded = false
			p.CurrentBet = 0
			p.TotalBet = 0
		}
		for _, p := range r.Players {
			cards, err := d.Deal(int(r.Mode))
			if err != nil {
				return err
			}
			p.Cards = cards
		}
		r.LastAction = nil

		if r.Mode == ModeThreeCard {
			r.Round = 1
			r.Pot = 0
			r.CurrentPlayerIndex = 0
			r.MaxBet = 0
			r.Status = StatusPlaying
			e.collectAnte(r)
			r.chipBase = e.totalChips(r)
		} else {
			r.Status = StatusDealt
		}

		snap = r.snapshot()
		return nil
	})
	return snap, err
}

// collectAnte takes the forced bet from every player who can pay it. A seat
// that cannot cover the ante is skipped, not folded.
func (e *Engine) collectAnte(r *Room) {
	for _, p := range r.Players {
		if p.Folded || p.Chips < e.cfg.Ante {
			continue
		}
		p.Chips -= e.cfg.Ante
		p.TotalBet += e.cfg.Ante
		r.Pot += e.cfg.Ante
	}
	r.AnteCollected = true
}

func (e *Engine) totalChips(r *Room) int {
	total := r.Pot
	for _, p := range r.Players {
		total += p.Chips
	}
	return total
}

// GetRoom returns a snapshot of the room.
func (e *Engine) GetRoom(roomID string) (Snapshot, error) {
	var snap Snapshot
	err := e.withRoom(roomID, func(r *Room) error {
		snap = r.snapshot()
		return nil
	})
	return snap, err
}

// Rooms returns snapshots of every live room.
func (e *Engine) Rooms() []Snapshot {
	e.mu.RLock()
	entries := make([]*entry, 0, len(e.rooms))
	for _, ent := range e.rooms {
		entries = append(entries, ent)
	}
	e.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(entries))
	for _, ent := range entries {
		ent.mu.Lock()
		if !ent.gone {
			snaps = append(snaps, ent.room.snapshot())
		}
		ent.mu.Unlock()
	}
	return snaps
}

// withRoom runs fn with exclusive access to the room. fn either fully
// commits its mutation or returns an error having touched nothing.
func (e *Engine) withRoom(roomID string, fn func(*Room) error) error {
	return e.withEntry(roomID, func(ent *entry) error {
		return fn(ent.room)
	})
}

// withEntry is withRoom for callers that also need to mark the entry gone
// (leave and sweep destroy rooms from inside the guard).
func (e *Engine) withEntry(roomID string, fn func(*entry) error) error {
	e.mu.RLock()
	ent, ok := e.rooms[roomID]
	e.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()
	if ent.gone {
		return ErrRoomNotFound
	}
	return fn(ent)
}

// unregister drops a gone entry from the arena map.
func (e *Engine) unregister(roomID string) {
	e.mu.Lock()
	delete(e.rooms, roomID)
	e.mu.Unlock()
	e.logger.Info().Str("room", roomID).Msg("room destroyed")
}

// verify checks the internal invariants after a chip-moving operation. A
// breach can only come from an engine bug, never from client input; the room
// is quarantined to finished rather than mutated further.
func (e *Engine) verify(r *Room) {
	if r.Status != StatusPlaying {
		return
	}
	if got := e.totalChips(r); got != r.chipBase {
		e.logger.Error().Str("room", r.ID).Int("chips", got).Int("want", r.chipBase).
			Msg("chip conservation violated, forcing room to finished")
		r.Status = StatusFinished
		return
	}
	if active := r.activePlayers(); len(active) > 1 &&
		(r.CurrentPlayerIndex < 0 || r.CurrentPlayerIndex >= len(active)) {
		e.logger.Error().Str("room", r.ID).Int("index", r.CurrentPlayerIndex).
			Int("active", len(active)).Msg("turn index out of range, forcing room to finished")
		r.Status = StatusFinished
	}
}
