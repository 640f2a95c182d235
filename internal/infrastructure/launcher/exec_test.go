package launcher

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecLauncherEmpty(t *testing.T) {
	assert.Nil(t, NewExecLauncher("   ", logger.Nop()))
}

func TestLaunchPassesCallbackHandle(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	out := filepath.Join(t.TempDir(), "args")
	script := filepath.Join(t.TempDir(), "entry.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > "+out+"\n"), 0o755))

	l := NewExecLauncher(sh+" "+script, logger.Nop())
	require.NotNil(t, l)
	require.NoError(t, l.Launch(context.Background(), 1234))

	require.Eventually(t, func() bool { return !l.Running() }, 5*time.Second, 10*time.Millisecond)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "--callback-handle=1234\n", string(data))
}

func TestLaunchMissingBinary(t *testing.T) {
	l := NewExecLauncher("/nonexistent/entrypoint", logger.Nop())
	err := l.Launch(context.Background(), 1)
	assert.ErrorIs(t, err, appErrors.ErrLaunch)
	assert.False(t, l.Running())
}
