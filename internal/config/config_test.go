package config_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verifai/automcp/internal/config"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(config.EnvAssistantDir, "/data/assistant")

	v := viper.New()
	require.NoError(t, config.BindEnv(v))

	cfg := config.Load(v)
	assert.Equal(t, "/data/assistant", cfg.AssistantDir)
}

func TestLoadFlagWinsOverEnv(t *testing.T) {
	t.Setenv(config.EnvAssistantDir, "/from/env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(config.PathKey, "", "")
	require.NoError(t, flags.Set(config.PathKey, "/from/flag"))

	v := viper.New()
	require.NoError(t, config.BindEnv(v))
	require.NoError(t, v.BindPFlag(config.PathKey, flags.Lookup(config.PathKey)))

	cfg := config.Load(v)
	assert.Equal(t, "/from/flag", cfg.AssistantDir)
}

func TestLoadUnset(t *testing.T) {
	t.Setenv(config.EnvAssistantDir, "")

	v := viper.New()
	require.NoError(t, config.BindEnv(v))

	cfg := config.Load(v)
	assert.Equal(t, "", cfg.AssistantDir)
}
