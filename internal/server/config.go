package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/hughes-T/poker-emulator/internal/room"
)

// Config is the complete server configuration, loadable from an HCL file.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
	Sweep  SweepSettings  `hcl:"sweep,block"`
}

// ServerSettings contains process-level settings.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains the table rules.
type GameSettings struct {
	MaxPlayers int `hcl:"max_players,optional"`
	StartChips int `hcl:"start_chips,optional"`
	Ante       int `hcl:"ante,optional"`
	MinBet     int `hcl:"min_bet,optional"`
	MaxRounds  int `hcl:"max_rounds,optional"`
}

// SweepSettings controls background room housekeeping.
type SweepSettings struct {
	IntervalSeconds int `hcl:"interval_seconds,optional"`
	GraceSeconds    int `hcl:"grace_seconds,optional"`
	RoomTTLHours    int `hcl:"room_ttl_hours,optional"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			MaxPlayers: 6,
			StartChips: 100,
			Ante:       1,
			MinBet:     1,
			MaxRounds:  10,
		},
		Sweep: SweepSettings{
			IntervalSeconds: 30,
			GraceSeconds:    120,
			RoomTTLHours:    24,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist. Missing fields take their default values.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config: %s", diags.Error())
	}

	def := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = def.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = def.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = def.Server.LogLevel
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = def.Game.MaxPlayers
	}
	if config.Game.StartChips == 0 {
		config.Game.StartChips = def.Game.StartChips
	}
	if config.Game.Ante == 0 {
		config.Game.Ante = def.Game.Ante
	}
	if config.Game.MinBet == 0 {
		config.Game.MinBet = def.Game.MinBet
	}
	if config.Game.MaxRounds == 0 {
		config.Game.MaxRounds = def.Game.MaxRounds
	}
	if config.Sweep.IntervalSeconds == 0 {
		config.Sweep.IntervalSeconds = def.Sweep.IntervalSeconds
	}
	if config.Sweep.GraceSeconds == 0 {
		config.Sweep.GraceSeconds = def.Sweep.GraceSeconds
	}
	if config.Sweep.RoomTTLHours == 0 {
		config.Sweep.RoomTTLHours = def.Sweep.RoomTTLHours
	}

	return &config, nil
}

// Validate checks configuration sanity.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.MaxPlayers < 2 {
		return fmt.Errorf("max players must be at least 2, got %d", c.Game.MaxPlayers)
	}
	if c.Game.StartChips <= 0 {
		return fmt.Errorf("start chips must be positive, got %d", c.Game.StartChips)
	}
	if c.Game.Ante < 0 || c.Game.Ante > c.Game.StartChips {
		return fmt.Errorf("ante must be between 0 and start chips, got %d", c.Game.Ante)
	}
	if c.Game.MinBet <= 0 {
		return fmt.Errorf("min bet must be positive, got %d", c.Game.MinBet)
	}
	if c.Game.MaxRounds < 1 {
		return fmt.Errorf("max rounds must be at least 1, got %d", c.Game.MaxRounds)
	}
	if c.Sweep.IntervalSeconds <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %d", c.Sweep.IntervalSeconds)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RoomConfig converts the file settings into engine table rules.
func (c *Config) RoomConfig() room.Config {
	return room.Config{
		MaxPlayers:  c.Game.MaxPlayers,
		StartChips:  c.Game.StartChips,
		Ante:        c.Game.Ante,
		MinBet:      c.Game.MinBet,
		MaxRounds:   c.Game.MaxRounds,
		GraceWindow: time.Duration(c.Sweep.GraceSeconds) * time.Second,
		RoomTTL:     time.Duration(c.Sweep.RoomTTLHours) * time.Hour,
	}
}

// SweepInterval returns the sweeper cadence.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweep.IntervalSeconds) * time.Second
}
