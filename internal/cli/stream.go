package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/shivanshkc/koda/internal/logger"
	"github.com/shivanshkc/koda/pkg/api"
	"github.com/shivanshkc/koda/pkg/consumer"
	"github.com/shivanshkc/koda/pkg/phase"
	"github.com/shivanshkc/koda/pkg/think"
)

// completionRequest describes one streamed completion issued by a command.
type completionRequest struct {
	model    string
	messages []api.ChatMessage
	mode     consumer.Mode
	scanner  *think.Scanner
	// banner prints the model name to stderr once the request is accepted.
	banner bool
}

// runCompletion issues the request, streams the answer to the command's stdout and
// returns what the consumer learned. Metrics are left to the caller.
func runCompletion(cmd *cobra.Command, req completionRequest) (consumer.Result, error) {
	ctx := cmd.Context()
	streamer := newStreamer(settings)

	logger.Debug("starting completion", "model", req.model, "messages", len(req.messages), "mode", req.mode)

	// The clock starts immediately before the request.
	timer := phase.NewTimer(nil)
	timer.MarkRequestStart()

	stream, err := streamer.ChatCompletionStream(ctx, req.model, req.messages)
	if err != nil {
		return consumer.Result{}, fmt.Errorf("failed to start completion: %w", err)
	}

	if req.banner {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), text.Colors{text.Bold, text.FgCyan}.Sprint("Model:"), req.model)
	}

	// The consumer flushes the buffer after every fragment.
	out := bufio.NewWriter(cmd.OutOrStdout())
	defer func() { _ = out.Flush() }()

	opts := []consumer.Option{consumer.WithMode(req.mode), consumer.WithLive(out)}
	if req.scanner != nil {
		opts = append(opts, consumer.WithScanner(req.scanner))
	}

	result, err := consumer.New(timer, opts...).Consume(ctx, stream)
	if err != nil {
		return result, fmt.Errorf("failed to consume completion: %w", err)
	}

	if result.Skipped > 0 {
		logger.Warn("some fragments could not be decoded", "skipped", result.Skipped)
	}
	logger.Debug("completion finished", "state", result.State, "bytes", len(result.Transcript))
	return result, nil
}

// readAllContext reads r to the end but returns early if the context is canceled.
//
// The blocking read runs in its own goroutine and is raced against ctx.Done. If the
// context wins, that goroutine stays blocked until the read completes, which is
// harmless for a process that is about to exit.
func readAllContext(ctx context.Context, r io.Reader) (string, error) {
	type readResult struct {
		input []byte
		err   error
	}

	// Buffered so the producer never blocks after the consumer has given up.
	resultChan := make(chan readResult, 1)

	go func() {
		input, err := io.ReadAll(r)
		resultChan <- readResult{input: input, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-resultChan:
		return string(result.input), result.err
	}
}
