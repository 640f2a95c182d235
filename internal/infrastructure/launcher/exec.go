package launcher

import (
	"context"
	"fmt"
	"os/exec"
	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"
	"strconv"
	"strings"
	"sync"
)

// CallbackHandleFlag is appended to the command line of the background entry point.
const CallbackHandleFlag = "--callback-handle="

// ExecLauncher starts the application's background entry point as a child
// process. At most one child runs at a time.
type ExecLauncher struct {
	command []string
	log     logger.Logger

	mu      sync.Mutex
	running *exec.Cmd
}

// NewExecLauncher parses a whitespace-separated command line. It returns nil
// when commandLine is empty.
func NewExecLauncher(commandLine string, log logger.Logger) *ExecLauncher {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	return &ExecLauncher{command: fields, log: log}
}

// Launch starts the entry point with the callback handle unless a previous
// launch is still running. The child outlives ctx.
func (l *ExecLauncher) Launch(ctx context.Context, callbackHandle int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running != nil {
		l.log.Debug("Background entry point already running")
		return nil
	}

	args := append(append([]string{}, l.command[1:]...), CallbackHandleFlag+strconv.FormatInt(callbackHandle, 10))
	cmd := exec.Command(l.command[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrLaunch, err)
	}
	l.running = cmd
	l.log.Info(fmt.Sprintf("Launched background entry point %s (pid %d)", l.command[0], cmd.Process.Pid))

	go func() {
		err := cmd.Wait()
		l.mu.Lock()
		l.running = nil
		l.mu.Unlock()
		if err != nil {
			l.log.Warn(fmt.Sprintf("Background entry point exited: %v", err))
		} else {
			l.log.Info("Background entry point exited.")
		}
	}()
	return nil
}

// Running reports whether a launched child has not exited yet.
func (l *ExecLauncher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running != nil
}
