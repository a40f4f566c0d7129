package inet

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	// bufferSize is the size of the read buffer, larger than any irc line.
	bufferSize = 16384
)

// ErrClosed is returned when writing to a closed link.
var ErrClosed = errors.New("inet: Link is closed")

// Link is the connection to our uplink. A siphon goroutine splits what is read
// into lines, and a pump goroutine writes whatever was queued by Write. Lines
// are handed to a single consumer through Lines.
type Link struct {
	conn net.Conn
	log  log15.Logger

	lines chan string
	queue Queue
	wake  chan struct{}
	kill  chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to address and returns a started Link.
func Dial(ctx context.Context, address string, logger log15.Logger) (*Link, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "inet: failed to dial %s", address)
	}

	l := NewLink(conn, logger)
	l.Start()
	return l, nil
}

// NewLink wraps a connection. Start must be called before use.
func NewLink(conn net.Conn, logger log15.Logger) *Link {
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}

	return &Link{
		conn:  conn,
		log:   logger.New("link", conn.RemoteAddr().String()),
		lines: make(chan string),
		wake:  make(chan struct{}, 1),
		kill:  make(chan struct{}),
	}
}

// Start spawns the siphon and the pump.
func (l *Link) Start() {
	l.wg.Add(2)
	go l.siphon()
	go l.pump()
}

// Peer is the address of the other end.
func (l *Link) Peer() SockAddr {
	return FromNetAddr(l.conn.RemoteAddr())
}

// Lines delivers each line read without its line ending. It is closed when
// the connection dies.
func (l *Link) Lines() <-chan string {
	return l.lines
}

// Write queues every complete line in buf, a trailing partial line has \r\n
// appended to it.
func (l *Link) Write(buf []byte) (int, error) {
	select {
	case <-l.kill:
		return 0, ErrClosed
	default:
	}

	if len(buf) == 0 {
		return 0, nil
	}

	var lines [][]byte
	start, remaining := findChunks(buf, func(chunk []byte) bool {
		lines = append(lines, chunk)
		return false
	})
	if remaining {
		tail := make([]byte, 0, len(buf)-start+2)
		tail = append(tail, buf[start:]...)
		lines = append(lines, append(tail, '\r', '\n'))
	}

	l.queue.Enqueue(lines...)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return len(buf), nil
}

// Close shuts the connection and waits for both workers to exit.
func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.kill)
		err = l.conn.Close()
		l.wg.Wait()
	})
	return err
}

func (l *Link) pump() {
	defer l.wg.Done()

	for {
		select {
		case <-l.wake:
			for _, line := range l.queue.Drain() {
				if err := l.writeLine(line); err != nil {
					l.log.Error("write failed", "err", err)
					return
				}
			}
		case <-l.kill:
			return
		}
	}
}

func (l *Link) writeLine(line []byte) error {
	for written := 0; written < len(line); {
		n, err := l.conn.Write(line[written:])
		if err != nil {
			return err
		}
		written += n
	}
	l.log.Debug("<-", "line", string(line[:len(line)-2]))
	return nil
}

func (l *Link) siphon() {
	defer l.wg.Done()
	defer close(l.lines)

	buf := make([]byte, bufferSize)
	position := 0
	for {
		n, err := l.conn.Read(buf[position:])
		if n > 0 {
			var abort bool
			position, abort = l.extractLines(buf[:position+n])
			if abort {
				return
			}
			if position == len(buf) {
				l.log.Warn("line too long, discarding", "len", position)
				position = 0
			}
		}

		if err != nil {
			if err != io.EOF {
				l.log.Error("read failed", "err", err)
			}
			return
		}
	}
}

// extractLines sends every \r\n terminated line in buf and moves any partial
// line to the front of buf, returning the position to continue reading at.
func (l *Link) extractLines(buf []byte) (int, bool) {
	send := func(chunk []byte) bool {
		line := string(chunk[:len(chunk)-2])
		l.log.Debug("->", "line", line)
		select {
		case l.lines <- line:
			return false
		case <-l.kill:
			return true
		}
	}

	start, remaining := findChunks(buf, send)
	if start < 0 {
		return 0, true
	}
	if remaining {
		copy(buf, buf[start:])
		return len(buf) - start, false
	}
	return 0, false
}

// findChunks calls block for each \r\n terminated chunk in buf. It returns the
// start of the unterminated remainder and whether there is one. A block that
// returns true aborts the scan and start is returned as -1.
func findChunks(buf []byte, block func([]byte) bool) (int, bool) {
	start := 0
	for i := 1; i < len(buf); i++ {
		if buf[i-1] == '\r' && buf[i] == '\n' {
			if block(buf[start : i+1]) {
				return -1, false
			}
			start = i + 1
		}
	}

	return start, start < len(buf)
}
