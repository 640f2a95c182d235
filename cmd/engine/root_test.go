package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["boot"])
}

func TestBootQueuesRestore(t *testing.T) {
	t.Setenv("DB_URL", t.TempDir()+"/engine.db")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CHANNEL_SECRET", "")
	t.Setenv("CHANNEL_ACCESS_TOKEN", "")

	cfg, log, err := loadConfig()
	require.NoError(t, err)
	a, err := newApp(cfg, log)
	require.NoError(t, err)
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, a.boot.OnBoot(ctx))
	require.NoError(t, a.boot.OnBoot(ctx))
}
