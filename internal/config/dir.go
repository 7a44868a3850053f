package config

import (
	"os"
	"path/filepath"
	"strings"
)

const envConfigDir = "POSTCRAB_CONFIG_DIR"

// Dir resolves the configuration directory: $POSTCRAB_CONFIG_DIR, then the
// user config dir, then ./.postcrab as a last resort.
func Dir() string {
	if dir := strings.TrimSpace(os.Getenv(envConfigDir)); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, "postcrab")
	}
	return ".postcrab"
}
