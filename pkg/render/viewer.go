package render

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/shivanshkc/koda/internal/logger"
)

// DefaultViewer opens documents in a private browser window.
const DefaultViewer = "chromium --incognito"

// DefaultGrace is how long a document outlives its viewer command. Browsers that hand the
// file to an already running instance return before the file is read.
const DefaultGrace = 3 * time.Second

// ErrNoViewer is returned when the viewer command is empty.
var ErrNoViewer = errors.New("no viewer command")

// Viewer opens an HTML document for the user.
type Viewer struct {
	// Command is the executable and its leading arguments. The document path is appended.
	Command []string
	// Grace is the time to wait after the command returns.
	Grace time.Duration
}

// NewViewer parses a whitespace-separated command line such as "chromium --incognito".
func NewViewer(command string, grace time.Duration) Viewer {
	return Viewer{Command: strings.Fields(command), Grace: grace}
}

// Open runs the viewer on path and waits out the grace period.
// Cancelling ctx stops the viewer and cuts the grace period short.
func (v Viewer) Open(ctx context.Context, path string) error {
	if len(v.Command) == 0 {
		return ErrNoViewer
	}

	args := append(v.Command[1:len(v.Command):len(v.Command)], path)
	logger.Debug("opening viewer", "command", v.Command[0]+" "+strings.Join(args, " "))

	if err := exec.CommandContext(ctx, v.Command[0], args...).Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("viewer interrupted: %w", ctxErr)
		}
		return fmt.Errorf("failed to run viewer %q: %w", v.Command[0], err)
	}

	if v.Grace <= 0 {
		return nil
	}

	timer := time.NewTimer(v.Grace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
