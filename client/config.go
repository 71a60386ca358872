package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfig.
const (
	EnvWSBaseURL         = "ICEBATTLE_WS_BASE_URL"
	EnvAPIBaseURL        = "ICEBATTLE_API_BASE_URL"
	EnvPlayerID          = "ICEBATTLE_PLAYER_ID"
	EnvMatchID           = "ICEBATTLE_MATCH_ID"
	EnvOpponentID        = "ICEBATTLE_OPPONENT_ID"
	EnvLogFile           = "ICEBATTLE_LOG_FILE"
	EnvDebugAddr         = "ICEBATTLE_DEBUG_ADDR"
	EnvReconnectAttempts = "ICEBATTLE_RECONNECT_ATTEMPTS"
	EnvReconnectDelay    = "ICEBATTLE_RECONNECT_DELAY"
	EnvMoveCooldown      = "ICEBATTLE_MOVE_COOLDOWN"
)

// Config holds everything the client runtime needs for one match.
type Config struct {
	WSBaseURL  string
	APIBaseURL string // used by the lobby, carried for completeness

	PlayerID   string
	MatchID    string
	OpponentID string // optional, learned from the first resync otherwise

	LogFile   string
	Debug     bool
	DebugAddr string // empty disables the debug HTTP surface

	ReconnectAttempts int
	ReconnectDelay    time.Duration
	AnimationTick     time.Duration
	MoveCooldown      time.Duration // mirrors the move animation length
}

func DefaultConfig() Config {
	return Config{
		WSBaseURL:         "ws://localhost:3000",
		APIBaseURL:        "http://localhost:3000",
		LogFile:           "icebattle.log",
		ReconnectAttempts: 10,
		ReconnectDelay:    2 * time.Second,
		AnimationTick:     100 * time.Millisecond,
		MoveCooldown:      500 * time.Millisecond,
	}
}

// LoadConfig starts from DefaultConfig, loads the given dotenv files (or
// ./.env when none are given and it exists) and applies the environment.
// Variables already set in the process environment win over dotenv files.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env: %w", err)
		}
	}

	cfg := DefaultConfig()
	setString(&cfg.WSBaseURL, EnvWSBaseURL)
	setString(&cfg.APIBaseURL, EnvAPIBaseURL)
	setString(&cfg.PlayerID, EnvPlayerID)
	setString(&cfg.MatchID, EnvMatchID)
	setString(&cfg.OpponentID, EnvOpponentID)
	setString(&cfg.LogFile, EnvLogFile)
	setString(&cfg.DebugAddr, EnvDebugAddr)

	if v, ok := os.LookupEnv(EnvReconnectAttempts); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvReconnectAttempts, err)
		}
		cfg.ReconnectAttempts = n
	}
	if err := setDuration(&cfg.ReconnectDelay, EnvReconnectDelay); err != nil {
		return Config{}, err
	}
	if err := setDuration(&cfg.MoveCooldown, EnvMoveCooldown); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values a session cannot run without.
func (c Config) Validate() error {
	switch {
	case c.WSBaseURL == "":
		return errors.New("config: websocket base url is empty")
	case c.ReconnectAttempts < 0:
		return errors.New("config: reconnect attempts must not be negative")
	case c.ReconnectDelay <= 0, c.AnimationTick <= 0, c.MoveCooldown <= 0:
		return errors.New("config: durations must be positive")
	}
	return nil
}

func (c Config) Identity() Identity {
	return Identity{PlayerID: c.PlayerID, MatchID: c.MatchID}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
