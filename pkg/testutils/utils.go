package testutils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/cardledger/cardledger/config"
)

// GetDSN returns the DSN for the test database. Tests that need a live
// database should be skipped when this returns an empty string.
func GetDSN() string {
	return os.Getenv("CARDLEDGER_TEST_DSN")
}

// NewTestConfig returns a minimal config pointing at the test database.
func NewTestConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{
			Type: "postgres",
			Postgres: config.PostgresConfig{
				DSN: GetDSN(),
			},
		},
		Log: config.LogConfig{
			Level: "info",
		},
	}
}

// GenerateRandomString returns a random hex string of the given length,
// used to avoid collisions between test fixtures.
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, (length+1)/2)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random string: %w", err)
	}
	return hex.EncodeToString(bytes)[:length], nil
}
