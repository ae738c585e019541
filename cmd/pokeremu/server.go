package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hughes-T/poker-emulator/cmd/pokeremu/shared"
	"github.com/hughes-T/poker-emulator/internal/randutil"
	"github.com/hughes-T/poker-emulator/internal/room"
	"github.com/hughes-T/poker-emulator/internal/server"
)

// ServerCmd runs the websocket card-room server.
type ServerCmd struct {
	Addr    string `kong:"help='Listen address, overrides the config file'"`
	Config  string `kong:"default='pokeremu.hcl',help='Path to HCL config file'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
	LogJSON bool   `kong:"help='Emit structured JSON logs instead of console output'"`
	Seed    *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	if c.LogJSON {
		logger = shared.SetupStructuredLogger(c.Debug)
	}

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.Addr()
	if c.Addr != "" {
		addr = c.Addr
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info().Int64("seed", seed).Msg("using deterministic seed")
	} else {
		seed = time.Now().UnixNano()
	}
	rng := randutil.New(seed)

	engine := room.NewEngine(logger, rng, room.WithConfig(cfg.RoomConfig()))
	srv := server.NewServer(logger, engine)

	logger.Info().
		Str("address", addr).
		Int("max_players", cfg.Game.MaxPlayers).
		Int("start_chips", cfg.Game.StartChips).
		Int("ante", cfg.Game.Ante).
		Int("max_rounds", cfg.Game.MaxRounds).
		Dur("sweep_interval", cfg.SweepInterval()).
		Msg("starting card-room server")

	ctx := shared.SetupSignalHandler(logger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return engine.RunSweeper(gctx, cfg.SweepInterval())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
