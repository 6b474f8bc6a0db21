// Package httpx contains HTTP helpers shared by the API clients.
package httpx

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// doneSentinel is the data payload OpenAI-compatible servers send to mark the end of a stream.
const doneSentinel = "[DONE]"

// ServerSentEvent represents a single data event sent by the server.
type ServerSentEvent struct {
	Index     int
	Value     string
	Error     error
	Timestamp time.Time
}

// ReadServerSentEvents reads the given response body assuming it is a stream of Server-Sent events
// and returns a channel for the caller to consume the data events.
//
// Comment lines (keepalives), blank lines and non-data fields are skipped.
// The channel is closed after the [DONE] sentinel, at EOF, or after a read error, which is
// delivered as a final event carrying only an Error.
//
// It takes ownership of the response body and guarantees it will be closed.
func ReadServerSentEvents(ctx context.Context, body io.ReadCloser) <-chan ServerSentEvent {
	eventChan := make(chan ServerSentEvent, 100)

	// producerCtx ends when the producer returns or the parent context is canceled.
	producerCtx, cancel := context.WithCancel(ctx)

	// Closing the body is the only way to unblock a pending read.
	// Body implementations are expected to tolerate a second Close.
	go func() {
		<-producerCtx.Done()
		_ = body.Close()
	}()

	go func() {
		defer close(eventChan)
		defer cancel()
		// The body is closed before the channel so that consumers observe a released connection.
		defer func() { _ = body.Close() }()

		reader := bufio.NewReader(body)

		index := 0
		for {
			line, err := reader.ReadString('\n')
			timestamp := time.Now() // Capture timestamp immediately after read.

			// A final line without a trailing newline is still a valid event.
			if value, ok := parseDataLine(line); ok {
				if value == doneSentinel {
					return
				}
				eventChan <- ServerSentEvent{Index: index, Value: value, Timestamp: timestamp}
				index++
			}

			if err != nil {
				// If the error is due to context cancellation, report the context error.
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				if !errors.Is(err, io.EOF) { // EOF is a normal end of stream.
					eventChan <- ServerSentEvent{Index: index, Error: err, Timestamp: timestamp}
				}
				return
			}
		}
	}()

	return eventChan
}

// parseDataLine extracts the payload of a "data:" line.
//
// IT MUST NOT BE AN EXPENSIVE OPERATION, otherwise the arrival timestamp of the event won't be correct.
func parseDataLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ":") {
		return "", false
	}

	value, found := strings.CutPrefix(line, "data:")
	if !found {
		// event:, id: and retry: fields carry nothing we consume.
		return "", false
	}

	value = strings.TrimSpace(value)
	return value, value != ""
}
