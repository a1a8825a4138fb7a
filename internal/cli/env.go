package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "FLOWACTOR_"

// loadDotEnv loads a .env file from the working directory, if there is one.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err == nil {
		slog.Debug("Loaded environment file.", "path", path)
	}
	return err
}

func envString(name, def string) string {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("Ignoring malformed environment variable.", "name", EnvPrefix+name, "value", v)
	}
	return def
}

func envBool(name string, def bool) bool {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		slog.Warn("Ignoring malformed environment variable.", "name", EnvPrefix+name, "value", v)
	}
	return def
}

func envDuration(name string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("Ignoring malformed environment variable.", "name", EnvPrefix+name, "value", v)
	}
	return def
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
