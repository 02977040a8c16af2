package internal

import (
	"fmt"
	"os"
)

type Config struct {
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	StoreDir       string `env:"STORE_DIR,default=."`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=.quickchat/badger"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,default=.quickchat/bluge"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`
	SearchLimit    int    `env:"SEARCH_LIMIT,default=10"`
}

// Validate rejects settings the program cannot start with.
func (c Config) Validate() error {
	info, err := os.Stat(c.StoreDir)
	if err != nil {
		return fmt.Errorf("STORE_DIR %q: %w", c.StoreDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("STORE_DIR %q is not a directory", c.StoreDir)
	}
	if c.LimitMessages != nil && *c.LimitMessages <= 0 {
		return fmt.Errorf("LIMIT_MESSAGES must be greater than 0, got %d", *c.LimitMessages)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be greater than 0, got %d", c.SearchLimit)
	}
	return nil
}
