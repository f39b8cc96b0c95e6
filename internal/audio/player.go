package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// State of an output context
type State string

const (
	StateRunning   State = "running"
	StateSuspended State = "suspended"
	StateClosed    State = "closed"
)

var ErrContextClosed = errors.New("audio context is closed")

// Sink receives a buffer for playback
type Sink interface {
	Play(ctx context.Context, buf *Buffer) error
}

// Context is an output context at a fixed sample rate. It starts running
// and may be suspended by the host; playback requires it to be running.
type Context struct {
	mu         sync.Mutex
	state      State
	sampleRate int
}

func NewContext(sampleRate int) *Context {
	return &Context{state: StateRunning, sampleRate: sampleRate}
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) SampleRate() int {
	return c.sampleRate
}

// Suspend pauses the context. It has no effect on a closed context.
func (c *Context) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning {
		c.state = StateSuspended
	}
}

// Resume restarts a suspended context
func (c *Context) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrContextClosed
	}
	c.state = StateRunning
	return nil
}

func (c *Context) Close() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
}

// Player owns the process-wide output context. The context is created on
// first use, reused afterwards and resumed whenever it was suspended.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	out        *Context
	log        *zap.Logger
}

func NewPlayer(sampleRate int, log *zap.Logger) *Player {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Player{sampleRate: sampleRate, log: log}
}

// Context returns the output context, or nil before the first Play
func (p *Player) Context() *Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out
}

// Play sends buf to sink through the shared output context
func (p *Player) Play(ctx context.Context, buf *Buffer, sink Sink) error {
	if buf == nil {
		return errors.New("no audio to play")
	}

	p.mu.Lock()
	if p.out == nil || p.out.State() == StateClosed {
		p.out = NewContext(p.sampleRate)
		p.log.Debug("created audio output context", zap.Int("sample_rate", p.sampleRate))
	}
	if p.out.State() == StateSuspended {
		if err := p.out.Resume(); err != nil {
			p.mu.Unlock()
			return fmt.Errorf("failed to resume audio context: %w", err)
		}
		p.log.Debug("resumed audio output context")
	}
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return sink.Play(ctx, buf)
}

// Close releases the output context
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Close()
	}
}

// WAVSink streams buffers as WAV files. When W is an http.ResponseWriter
// the content headers are set before the body.
type WAVSink struct {
	W io.Writer
}

func (s WAVSink) Play(_ context.Context, buf *Buffer) error {
	if rw, ok := s.W.(http.ResponseWriter); ok {
		rw.Header().Set("Content-Type", "audio/wav")
		rw.Header().Set("Content-Length", strconv.Itoa(44+buf.Frames()*buf.Channels*bytesPerSample))
		rw.Header().Set("Cache-Control", "public, max-age=86400")
	}
	return buf.WriteWAV(s.W)
}

// DiscardSink records what was played without producing output
type DiscardSink struct {
	mu     sync.Mutex
	played []*Buffer
}

func (s *DiscardSink) Play(_ context.Context, buf *Buffer) error {
	s.mu.Lock()
	s.played = append(s.played, buf)
	s.mu.Unlock()
	return nil
}

// Played returns the buffers received so far
func (s *DiscardSink) Played() []*Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Buffer(nil), s.played...)
}
