package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ShangTsung3/battle-city-pro/internal/rng"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
)

// Codec names accepted by ARENA_CODEC.
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

const (
	DefaultTickRate   = 60
	DefaultRelayAddr  = ":8090"
	DefaultPlayerName = "Player"
)

// Config holds the runtime settings of the arena runner and the relay.
type Config struct {
	Seed       string
	PlayerName string
	// Agents is the number of autonomous tanks. Negative fills the roster.
	Agents    int
	TickRate  int
	RelayURL  string
	NATSURL   string
	Codec     string
	Autopilot bool
	LogLevel  string
	LogJSON   string
	RelayAddr string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Seed:       rng.DefaultSeed,
		PlayerName: DefaultPlayerName,
		Agents:     -1,
		TickRate:   DefaultTickRate,
		Codec:      CodecJSON,
		Autopilot:  true,
		LogLevel:   "info",
		RelayAddr:  DefaultRelayAddr,
	}
}

// Networked reports whether a relay transport is configured.
func (c Config) Networked() bool {
	return c.RelayURL != "" || c.NATSURL != ""
}

// LoadDotEnv reads the given files (".env" when none) into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// FromEnv overlays environment variables on Default. Invalid values are
// reported through logger and the default is kept.
func FromEnv(logger telemetry.Logger) Config {
	return FromLookup(os.LookupEnv, logger)
}

// FromLookup is FromEnv with an injectable lookup.
func FromLookup(lookup func(string) (string, bool), logger telemetry.Logger) Config {
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	cfg := Default()

	if raw, ok := lookup("ARENA_SEED"); ok && raw != "" {
		cfg.Seed = raw
	}
	if raw, ok := lookup("ARENA_PLAYER_NAME"); ok && strings.TrimSpace(raw) != "" {
		cfg.PlayerName = strings.TrimSpace(raw)
	}
	if raw, ok := lookup("ARENA_AGENTS"); ok && raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.Agents = value
		} else {
			logger.Printf("invalid ARENA_AGENTS=%q: %v", raw, err)
		}
	}
	if raw, ok := lookup("ARENA_TICK_RATE"); ok && raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TickRate = value
		} else {
			logger.Printf("invalid ARENA_TICK_RATE=%q: must be a positive integer", raw)
		}
	}
	if raw, ok := lookup("ARENA_RELAY_URL"); ok {
		cfg.RelayURL = strings.TrimSpace(raw)
	}
	if raw, ok := lookup("ARENA_NATS_URL"); ok {
		cfg.NATSURL = strings.TrimSpace(raw)
	}
	if raw, ok := lookup("ARENA_CODEC"); ok && raw != "" {
		switch strings.ToLower(raw) {
		case CodecJSON, CodecMsgpack:
			cfg.Codec = strings.ToLower(raw)
		default:
			logger.Printf("invalid ARENA_CODEC=%q: want %s or %s", raw, CodecJSON, CodecMsgpack)
		}
	}
	if raw, ok := lookup("ARENA_AUTOPILOT"); ok && raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Autopilot = value
		} else {
			logger.Printf("invalid ARENA_AUTOPILOT=%q: %v", raw, err)
		}
	}
	if raw, ok := lookup("ARENA_LOG_LEVEL"); ok && raw != "" {
		cfg.LogLevel = strings.ToLower(raw)
	}
	if raw, ok := lookup("ARENA_LOG_JSON"); ok {
		cfg.LogJSON = strings.TrimSpace(raw)
	}
	if raw, ok := lookup("RELAY_ADDR"); ok && raw != "" {
		cfg.RelayAddr = raw
	}
	return cfg
}
