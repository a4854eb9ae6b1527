// Package interact implements the interactive input gate: a cooperative
// interrupt channel between the operator's terminal and the turn loop.
// Typing a line while an agent is streaming cancels the in-flight turn;
// the line is buffered and consumed by the scheduler afterwards.
package interact

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/cancelreader"

	"github.com/lhartley/sparring/internal/logging"
)

// Command classifies one line of operator input.
type Command int

const (
	// CommandMessage is free text to inject into the conversation.
	CommandMessage Command = iota
	// CommandQuit ends the session (/quit or /exit).
	CommandQuit
	// CommandClear resets the conversation to the opening message (/clear).
	CommandClear
)

// ParseCommand classifies a line and returns the remaining text for
// message commands.
func ParseCommand(line string) (Command, string) {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "/quit", "/exit":
		return CommandQuit, ""
	case "/clear":
		return CommandClear, ""
	default:
		return CommandMessage, trimmed
	}
}

// Gate reads operator input on a background goroutine. While armed, an
// arriving line cancels the registered per-turn context; the line
// itself is buffered for the scheduler to consume. Safe for concurrent
// use.
type Gate struct {
	mu     sync.Mutex
	cancel context.CancelFunc

	lines  chan string
	reader cancelreader.CancelReader
	logger *logging.Logger
}

// New creates a Gate reading from stdin. The cancelreader wrapper lets
// Close unblock the pending read on shutdown.
func New(logger *logging.Logger) (*Gate, error) {
	cr, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		return nil, err
	}
	g := newGate(cr, logger)
	g.reader = cr
	go g.readLoop(cr)
	return g, nil
}

// NewWithReader creates a Gate reading from r, for tests.
func NewWithReader(r io.Reader, logger *logging.Logger) *Gate {
	g := newGate(r, logger)
	go g.readLoop(r)
	return g
}

func newGate(_ io.Reader, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gate{
		lines:  make(chan string, 16),
		logger: logger.WithComponent("interact"),
	}
}

// readLoop delivers lines until the reader is exhausted or cancelled.
func (g *Gate) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		g.mu.Lock()
		if g.cancel != nil {
			g.logger.Debug("operator input interrupting turn")
			g.cancel()
			g.cancel = nil
		}
		g.mu.Unlock()

		select {
		case g.lines <- line:
		default:
			g.logger.Warn("input buffer full, dropping line")
		}
	}
	close(g.lines)
}

// Arm registers the cancel function for the turn about to run.
func (g *Gate) Arm(cancel context.CancelFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancel = cancel
}

// Disarm clears the armed cancel function. Input arriving afterwards
// is buffered but interrupts nothing.
func (g *Gate) Disarm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancel = nil
}

// TakeLine returns a buffered input line without blocking.
func (g *Gate) TakeLine() (string, bool) {
	select {
	case line, ok := <-g.lines:
		return line, ok
	default:
		return "", false
	}
}

// ReadLine blocks for the next input line or ctx cancellation.
func (g *Gate) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-g.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close cancels the pending stdin read. Only meaningful for gates
// created with New.
func (g *Gate) Close() error {
	if g.reader != nil {
		g.reader.Cancel()
		return g.reader.Close()
	}
	return nil
}
