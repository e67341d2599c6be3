package gcode

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// MockPort is an in-memory Port for tests. Writes are recorded; reads are
// served from a queue of scripted reply lines. With AutoAck set (the
// default), every line written enqueues an "ok" reply, which is what a
// healthy firmware does for every command.
type MockPort struct {
	mu      sync.Mutex
	rd      bytes.Buffer
	sent    []string
	partial []byte
	closed  bool

	AutoAck bool
}

// NewMockPort returns an auto-acknowledging mock port.
func NewMockPort() *MockPort {
	return &MockPort{AutoAck: true}
}

// Reply queues lines for the session to read.
func (p *MockPort) Reply(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range lines {
		p.rd.WriteString(l + "\n")
	}
}

// Sent returns every full line written to the port so far.
func (p *MockPort) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.sent))
	copy(out, p.sent)
	return out
}

// Closed reports whether Close has been called.
func (p *MockPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *MockPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rd.Len() == 0 {
		// A real port would time out and return nothing; EOF stands in
		// for "no data right now".
		return 0, io.EOF
	}
	return p.rd.Read(b)
}

func (p *MockPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.partial = append(p.partial, b...)
	for {
		i := bytes.IndexByte(p.partial, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(p.partial[:i]))
		p.partial = p.partial[i+1:]
		p.sent = append(p.sent, line)
		if p.AutoAck {
			p.rd.WriteString("ok\n")
		}
	}
	return len(b), nil
}

func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
