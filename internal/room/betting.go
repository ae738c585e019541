package room

import "github.com/hughes-T/poker-emulator/internal/hand"

// CompareResult reports the outcome of a paid showdown between two players.
type CompareResult struct {
	WinnerID   string        `json:"winnerId"`
	LoserID    string        `json:"loserId"`
	WinnerHand hand.Analysis `json:"winnerHand"`
	LoserHand  hand.Analysis `json:"loserHand"`
}

// HandResult reports the end of a hand: the winner and the pot they took.
// Hands carries every active player's evaluation when the game ended in a
// forced showdown.
type HandResult struct {
	WinnerID string                   `json:"winnerId"`
	Amount   int                      `json:"amount"`
	Showdown bool                     `json:"showdown"`
	Hands    map[string]hand.Analysis `json:"hands,omitempty"`
}

// PlaceBet stakes amount times the caller's multiplier. Blind players (who
// have not looked) pay half of what an informed player pays for the same
// amount, and the table maximum is tracked pre-multiplier.
func (e *Engine) PlaceBet(roomID, connID string, amount int) (Snapshot, *HandResult, error) {
	var snap Snapshot
	var result *HandResult
	err := e.withRoom(roomID, func(r *Room) error {
		if r.Status != StatusPlaying {
			return ErrGameNotInProgress
		}
		p := r.player(connID)
		if p == nil {
			return ErrPlayerNotFound
		}
		if p.Folded {
			return ErrAlreadyFolded
		}
		if !r.isTurn(connID) {
			return ErrNotYourTurn
		}
		if amount < e.cfg.MinBet {
			return ErrBetBelowMinimum
		}
		if amount < r.MaxBet {
			return ErrBetBelowCurrentMax
		}

		stake := amount * betMultiplier(p)
		if p.Chips < stake {
			return ErrInsufficientChips
		}

		p.Chips -= stake
		p.CurrentBet = stake
		p.TotalBet += stake
		r.Pot += stake
		if amount > r.MaxBet {
			r.MaxBet = amount
		}
		r.LastAction = &LastAction{PlayerID: connID, Action: ActionBet, Amount: stake}

		r.advanceTurn(connID)
		result = e.settle(r)
		e.verify(r)
		snap = r.snapshot()
		return nil
	})
	return snap, result, err
}

// LookAtCards is the one-time blind-to-informed transition. It costs nothing
// and does not consume the turn.
func (e *Engine) LookAtCards(roomID, connID string) (Snapshot, error) {
	var snap Snapshot
	err := e.withRoom(roomID, func(r *Room) error {
		p := r.player(connID)
		if p == nil {
			return ErrPlayerNotFound
		}
		if p.Folded {
			return ErrAlreadyFolded
		}
		if p.Looking {
			return ErrAlreadyLooked
		}
		p.Looking = true
		r.LastAction = &LastAction{PlayerID: connID, Action: ActionLook}
		snap = r.snapshot()
		return nil
	})
	return snap, err
}

// CompareCards is a paid hand-value comparison that folds the loser. Equal
// values resolve against the initiator: the challenger always loses ties.
func (e *Engine) CompareCards(roomID, connID, targetID string) (Snapshot, *CompareResult, *HandResult, error) {
	var snap Snapshot
	var cmp *CompareResult
	var result *HandResult
	err := e.withRoom(roomID, func(r *Room) error {
		if r.Status != StatusPlaying {
			return ErrGameNotInProgress
		}
		p := r.player(connID)
		if p == nil {
			return ErrPlayerNotFound
		}
		target := r.player(targetID)
		if target == nil || target == p {
			return ErrPlayerNotFound
		}
		if p.Folded || target.Folded {
			return ErrAlreadyFolded
		}
		if !r.isTurn(connID) {
			return ErrNotYourTurn
		}

		cost := e.cfg.MinBet * betMultiplier(p)
		if p.Chips < cost {
			return ErrInsufficientChips
		}

		callerHand, err := hand.Analyze(p.Cards)
		if err != nil {
			return err
		}
		targetHand, err := hand.Analyze(target.Cards)
		if err != nil {
			return err
		}

		p.Chips -= cost
		p.TotalBet += cost
		r.Pot += cost

		if hand.Compare(callerHand, targetHand) > 0 {
			target.Folded = true
			cmp = &CompareResult{WinnerID: p.ID, LoserID: target.ID, WinnerHand: callerHand, LoserHand: targetHand}
		} else {
			p.Folded = true
			cmp = &CompareResult{WinnerID: target.ID, LoserID: p.ID, WinnerHand: targetHand, LoserHand: callerHand}
		}
		r.LastAction = &LastAction{PlayerID: connID, Action: ActionCompare, TargetID: targetID}

		r.advanceTurn(connID)
		result = e.settle(r)
		e.verify(r)
		snap = r.snapshot()
		return nil
	})
	if err != nil {
		return Snapshot{}, nil, nil, err
	}
	return snap, cmp, result, nil
}

// Fold marks the caller out of the hand.
func (e *Engine) Fold(roomID, connID string) (Snapshot, *HandResult, error) {
	var snap Snapshot
	var result *HandResult
	err := e.withRoom(roomID, func(r *Room) error {
		if r.Status != StatusPlaying {
			return ErrGameNotInProgress
		}
		p := r.player(connID)
		if p == nil {
			return ErrPlayerNotFound
		}
		if p.Folded {
			return ErrAlreadyFolded
		}
		if !r.isTurn(connID) {
			return ErrNotYourTurn
		}

		p.Folded = true
		r.LastAction = &LastAction{PlayerID: connID, Action: ActionFold}

		r.advanceTurn(connID)
		result = e.settle(r)
		e.verify(r)
		snap = r.snapshot()
		return nil
	})
	return snap, result, err
}

// betMultiplier is 2 once a player has looked at their hand; blind bets cost
// half.
func betMultiplier(p *Player) int {
	if p.Looking {
		return 2
	}
	return 1
}

// isTurn reports whether connID currently holds the turn among non-folded
// players.
func (r *Room) isTurn(connID string) bool {
	active := r.activePlayers()
	if len(active) == 0 || r.CurrentPlayerIndex >= len(active) {
		return false
	}
	return active[r.CurrentPlayerIndex].ID == connID
}

// advanceTurn hands the turn to the first non-folded seat after the actor
// in canonical seat order, expressed as an index into the active
// subsequence. Walking seats rather than the active list keeps the turn from
// skipping a player when the actor (or the compare loser) just folded.
// Every advancement resets everyone's per-round bet; TotalBet is a
// whole-hand accumulator and is untouched.
func (r *Room) advanceTurn(actorID string) {
	active := r.activePlayers()
	if len(active) <= 1 {
		return
	}

	seat := -1
	for i, p := range r.Players {
		if p.ID == actorID {
			seat = i
			break
		}
	}
	if seat < 0 {
		return
	}

	for off := 1; off <= len(r.Players); off++ {
		next := r.Players[(seat+off)%len(r.Players)]
		if next.Folded {
			continue
		}
		for idx, ap := range active {
			if ap == next {
				r.CurrentPlayerIndex = idx
				break
			}
		}
		break
	}

	for _, p := range r.Players {
		p.CurrentBet = 0
	}
}

// settle runs the end-of-round evaluation after every bet, compare and fold:
// a lone survivor takes the pot; at the round limit the best hand takes it
// in a forced showdown; otherwise a wrap back to the first active player
// starts the next round.
func (e *Engine) settle(r *Room) *HandResult {
	active := r.activePlayers()

	if len(active) == 1 {
		winner := active[0]
		amount := r.Pot
		winner.Chips += amount
		r.Pot = 0
		r.Status = StatusFinished
		e.logger.Info().Str("room", r.ID).Str("winner", winner.Name).Int("pot", amount).
			Msg("hand won by default")
		return &HandResult{WinnerID: winner.ID, Amount: amount}
	}

	if r.Round >= e.cfg.MaxRounds {
		return e.forceShowdown(r, active)
	}

	if r.CurrentPlayerIndex == 0 {
		r.Round++
	}
	return nil
}

// forceShowdown evaluates every remaining hand and awards the pot to the
// single maximum value.
func (e *Engine) forceShowdown(r *Room, active []*Player) *HandResult {
	hands := make(map[string]hand.Analysis, len(active))
	var winner *Player
	var best hand.Analysis
	for _, p := range active {
		analysis, err := hand.Analyze(p.Cards)
		if err != nil {
			// Unreachable for a dealt three-card hand; quarantine the room.
			e.logger.Error().Str("room", r.ID).Err(err).Msg("showdown analysis failed")
			r.Status = StatusFinished
			return nil
		}
		hands[p.ID] = analysis
		if winner == nil || hand.Compare(analysis, best) > 0 {
			winner = p
			best = analysis
		}
	}

	amount := r.Pot
	winner.Chips += amount
	r.Pot = 0
	r.Status = StatusFinished
	e.logger.Info().Str("room", r.ID).Str("winner", winner.Name).Int("pot", amount).
		Str("hand", best.Label).Msg("forced showdown")
	return &HandResult{WinnerID: winner.ID, Amount: amount, Showdown: true, Hands: hands}
}
