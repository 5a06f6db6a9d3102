// Package diagnostics provides an append-only, best-effort log of bridge
// lifecycle transitions.
//
// Records are handed to a single background writer through a bounded queue so
// that a slow or broken disk never stalls the stream read loop. Every I/O
// failure is swallowed: a diagnostics line is never worth a reconnect.
package diagnostics

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var defaultQueueSize uint = 256

// Sink receives diagnostics lines. Implementations must not block and must
// not fail.
type Sink interface {
	Record(line string)
}

// Nop is a Sink that discards every line.
type Nop struct{}

// Record does nothing.
func (Nop) Record(string) {}

// Config is the configuration for a FileSink.
type Config struct {
	// Path is the file lines are appended to. Parent directories are created
	// on first write.
	Path string

	// QueueSize is the capacity of the buffered line channel (defaults to 256).
	QueueSize uint

	// Logger receives debug output about dropped lines and write failures.
	Logger *slog.Logger

	// Now overrides the timestamp source. Defaults to time.Now.
	Now func() time.Time
}

// FileSink appends timestamped lines to a file asynchronously.
type FileSink struct {
	config *Config
	queue  chan string
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewFileSink creates a FileSink and starts its writer goroutine.
func NewFileSink(c *Config) (*FileSink, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("diagnostics path is required")
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	s := &FileSink{
		config: c,
		queue:  make(chan string, c.QueueSize),
		logger: c.Logger,
	}

	s.wg.Add(1)
	go s.writer()

	return s, nil
}

// Record stamps line and queues it for writing. It never blocks: when the
// queue is full, or the sink is closed, the line is dropped.
func (s *FileSink) Record(line string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	stamped := s.config.Now().UTC().Format(time.RFC3339Nano) + " " + strings.TrimRight(line, "\n") + "\n"

	select {
	case s.queue <- stamped:
	default:
		s.logger.Debug("diagnostics line dropped, queue full")
	}
}

// Close stops accepting lines and waits for queued lines to be written.
func (s *FileSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *FileSink) writer() {
	defer s.wg.Done()

	for line := range s.queue {
		if err := s.append(line); err != nil {
			s.logger.Debug("diagnostics write failed", "path", s.config.Path, "error", err)
		}
	}
}

// append opens the file for every line so that external rotation or deletion
// is picked up without a restart.
func (s *FileSink) append(line string) error {
	if err := os.MkdirAll(filepath.Dir(s.config.Path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(s.config.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	_, werr := f.WriteString(line)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// Recordf formats a line and records it on sink.
func Recordf(sink Sink, format string, args ...any) {
	sink.Record(fmt.Sprintf(format, args...))
}
