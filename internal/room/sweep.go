package room

import (
	"context"
	"time"
)

// SweepStats summarises one housekeeping pass.
type SweepStats struct {
	PlayersPruned int
	RoomsDeleted  int
}

// Sweep prunes seats whose disconnect outlived the grace window, deletes
// rooms left empty and deletes rooms past their TTL with nobody online. It
// takes the same per-room guard as user operations, so it never races a
// reconnect against a prune.
func (e *Engine) Sweep() SweepStats {
	e.mu.RLock()
	ids := make([]string, 0, len(e.rooms))
	for id := range e.rooms {
		ids = append(ids, id)
	}
	e.mu.RUnlock()

	var stats SweepStats
	now := e.clock.Now()
	for _, id := range ids {
		var destroyed bool
		err := e.withEntry(id, func(ent *entry) error {
			r := ent.room

			var expiredSeats []string
			for _, p := range r.Players {
				if !p.Online && now.Sub(p.DisconnectedAt) > e.cfg.GraceWindow {
					expiredSeats = append(expiredSeats, p.ID)
					e.logger.Info().Str("room", r.ID).Str("player", p.Name).
						Msg("pruning player past grace window")
				}
			}
			for _, id := range expiredSeats {
				e.removePlayer(r, id)
				stats.PlayersPruned++
			}

			expired := now.Sub(r.CreatedAt) > e.cfg.RoomTTL && r.onlineCount() == 0
			if len(r.Players) == 0 || expired {
				ent.gone = true
				destroyed = true
			}
			return nil
		})
		if err != nil {
			continue // destroyed concurrently
		}
		if destroyed {
			e.unregister(id)
			stats.RoomsDeleted++
		}
	}

	if stats.PlayersPruned > 0 || stats.RoomsDeleted > 0 {
		e.logger.Info().Int("players_pruned", stats.PlayersPruned).
			Int("rooms_deleted", stats.RoomsDeleted).Msg("sweep complete")
	}
	return stats
}

// RunSweeper runs Sweep on the given cadence until the context is cancelled.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := e.clock.TickerFunc(ctx, interval, func() error {
		e.Sweep()
		return nil
	}, "sweeper")
	err := ticker.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
