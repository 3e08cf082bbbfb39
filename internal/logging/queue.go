package logging

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("log queue closed")

// QueueWriter hands every Write to a single goroutine that owns the sink, so
// request handlers never block on log I/O and entries are never interleaved.
type QueueWriter struct {
	out         *bufio.Writer
	closer      io.Closer
	flushEach   bool
	entries     chan []byte
	done        chan struct{}
	mu          sync.RWMutex
	closed      bool
	writeErr    error
	writeErrMux sync.Mutex
}

// NewQueueWriter starts draining entries into w. When flushEach is set the sink
// is flushed after every entry; otherwise only when the buffer fills and on
// Close. If w is an io.Closer it is closed by Close.
func NewQueueWriter(w io.Writer, flushEach bool, capacity int) *QueueWriter {
	if capacity <= 0 {
		capacity = 1024
	}
	q := &QueueWriter{
		out:       bufio.NewWriter(w),
		flushEach: flushEach,
		entries:   make(chan []byte, capacity),
		done:      make(chan struct{}),
	}
	if c, ok := w.(io.Closer); ok {
		q.closer = c
	}
	go q.run()
	return q
}

func (q *QueueWriter) run() {
	defer close(q.done)
	for entry := range q.entries {
		if _, err := q.out.Write(entry); err != nil {
			q.setErr(err)
			continue
		}
		if q.flushEach {
			if err := q.out.Flush(); err != nil {
				q.setErr(err)
			}
		}
	}
}

func (q *QueueWriter) setErr(err error) {
	q.writeErrMux.Lock()
	if q.writeErr == nil {
		q.writeErr = err
	}
	q.writeErrMux.Unlock()
}

// Write queues a copy of p. It blocks only while the queue is full.
func (q *QueueWriter) Write(p []byte) (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return 0, ErrClosed
	}
	entry := make([]byte, len(p))
	copy(entry, p)
	q.entries <- entry
	return len(p), nil
}

// Close drains the queue, flushes the sink and closes it. It returns the first
// error the sink reported.
func (q *QueueWriter) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.entries)
	q.mu.Unlock()

	<-q.done
	err := q.out.Flush()
	if q.closer != nil {
		err = errors.Join(err, q.closer.Close())
	}
	q.writeErrMux.Lock()
	defer q.writeErrMux.Unlock()
	return errors.Join(q.writeErr, err)
}
