package httpx_test

import (
	"io"
	"strings"
	"sync"
)

// mockReadCloser is a mock implementation of io.ReadCloser. It is used to
// simulate various behaviors of a response body, such as returning specific
// data, errors, or blocking, without making real network calls. It also
// tracks whether its Close method has been called.
type mockReadCloser struct {
	reader io.Reader
	mu     sync.Mutex
	closed bool
}

// newMockReadCloser creates a new mock body from a string.
func newMockReadCloser(data string) *mockReadCloser {
	return &mockReadCloser{reader: strings.NewReader(data)}
}

// Read satisfies the io.Reader interface, delegating to the internal reader.
func (m *mockReadCloser) Read(p []byte) (n int, err error) {
	return m.reader.Read(p)
}

// Close satisfies the io.Closer interface. It records that it has been called.
func (m *mockReadCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// isClosed safely checks if the Close method has been called.
func (m *mockReadCloser) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// blockingReadCloser is a mock designed to accurately simulate a network
// connection. It blocks on Read until its Close method is called from another
// goroutine, at which point it unblocks and returns an error.
type blockingReadCloser struct {
	mu        sync.Mutex
	closed    bool
	closeChan chan struct{} // A channel to signal that Close has been called.
}

// newBlockingReadCloser creates an instance of the blocking mock.
func newBlockingReadCloser() *blockingReadCloser {
	return &blockingReadCloser{
		closeChan: make(chan struct{}),
	}
}

// Read satisfies the io.Reader interface. It blocks until the closeChan receives
// a signal (from the Close method) or until the test times out.
func (m *blockingReadCloser) Read(p []byte) (n int, err error) {
	// Block until Close() is called.
	<-m.closeChan
	// Once unblocked, return an error that simulates a closed connection.
	return 0, io.ErrClosedPipe
}

// Close satisfies the io.Closer interface. It records that it has been called
// and, crucially, closes the closeChan to unblock any pending Read calls.
func (m *blockingReadCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil // Already closed.
	}
	m.closed = true

	// This is the critical part: signal any blocked Read calls to unblock.
	close(m.closeChan)

	return nil
}

// isClosed safely checks if the Close method has been called.
func (m *blockingReadCloser) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// errorReader is a helper that implements io.Reader and always returns an error.
type errorReader struct {
	err error
}

func (e *errorReader) Read([]byte) (n int, err error) {
	return 0, e.err
}
