// Package config loads server configuration the way the original memory
// game server does: defaults, then an optional config.json, then
// environment variable overrides. Flags (parsed in main) take precedence
// over all of it.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Config holds the knobs a running server needs outside the board's own
// concurrency core.
type Config struct {
	BoardRows         int    `json:"board_rows"`
	BoardCols         int    `json:"board_cols"`
	BoardFile         string `json:"board_file"`
	HTTPAddr          string `json:"http_addr"`
	MaxPlayerIDLength int    `json:"max_player_id_length"`
	BoardCreateRPS    int    `json:"board_create_rps"`
}

// Defaults returns a Config with every field set to its default value.
func Defaults() *Config {
	return &Config{
		BoardRows:         6,
		BoardCols:         6,
		BoardFile:         "",
		HTTPAddr:          ":8080",
		MaxPlayerIDLength: 64,
		BoardCreateRPS:    2,
	}
}

// Load reads configuration from an optional config.json file, then applies
// environment variable overrides. Fields not set in either source retain
// their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	overrideInt(&cfg.BoardRows, "BOARD_ROWS")
	overrideInt(&cfg.BoardCols, "BOARD_COLS")
	overrideString(&cfg.BoardFile, "BOARD_FILE")
	overrideString(&cfg.HTTPAddr, "HTTP_ADDR")
	overrideInt(&cfg.MaxPlayerIDLength, "MAX_PLAYER_ID_LENGTH")
	overrideInt(&cfg.BoardCreateRPS, "BOARD_CREATE_RPS")

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
