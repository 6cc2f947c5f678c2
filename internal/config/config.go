package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvAssistantDir is the environment fallback for the assistant directory.
const EnvAssistantDir = "VERIFAI_ASSISTANT_DIR"

// PathKey is the viper key bound to both the --path flag and the env var.
const PathKey = "path"

// Config aggregates process configuration. It is resolved once at startup
// and never reconfigured at runtime.
type Config struct {
	// AssistantDir is the directory holding experts.json and history.json.
	// Empty means unconfigured; document access then fails per call.
	AssistantDir string
}

// Load resolves the configuration from viper. The --path flag is bound by
// the command layer, which owns the flag set; the env var covers hosts that
// cannot pass flags. Flag wins over env.
func Load(v *viper.Viper) Config {
	return Config{AssistantDir: strings.TrimSpace(v.GetString(PathKey))}
}

// BindEnv wires the environment fallback onto v.
func BindEnv(v *viper.Viper) error {
	return v.BindEnv(PathKey, EnvAssistantDir)
}
