// Package narration serialises text-to-speech playback so that at most one
// clip is requested or playing at any time.
package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrEmptyText is returned when there is nothing to speak.
	ErrEmptyText = errors.New("narration text is empty")
	// ErrSuperseded is returned when a newer request or a teardown replaced
	// this one before its audio arrived.
	ErrSuperseded = errors.New("narration request superseded")
)

// RequestError reports a failed synthesis request.
type RequestError struct {
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("narration request failed: status %d", e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("narration request failed: %v", e.Err)
	}
	return "narration request failed"
}

func (e *RequestError) Unwrap() error { return e.Err }

// Synthesizer turns text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player starts playback of an audio clip.
type Player interface {
	Play(audio []byte) (Handle, error)
}

// Handle is one playing clip.
type Handle interface {
	// Done is closed when playback ends for any reason.
	Done() <-chan struct{}
	Stop()
	// Release frees the clip's backing resource. Safe to repeat.
	Release()
	Source() string
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	Active    bool
	Pending   bool
	WholePoem bool
	Line      int
	Source    string
}

// Options configure a Controller.
type Options struct {
	Synthesizer Synthesizer
	Player      Player
	// Guard blocks whole-poem reading while it returns true.
	Guard    func() bool
	OnChange func()
	Logger   *zap.Logger
}

// Controller owns the single narration session.
type Controller struct {
	mu        sync.Mutex
	synth     Synthesizer
	player    Player
	guard     func() bool
	onChange  func()
	log       *zap.Logger
	handle    Handle
	seq       uint64
	epoch     uint64
	pending   bool
	cancelReq context.CancelFunc
	wholePoem bool
	line      int
}

// NewController builds an idle controller.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		synth:    opts.Synthesizer,
		player:   opts.Player,
		guard:    opts.Guard,
		onChange: opts.OnChange,
		log:      logger,
		line:     -1,
	}
}

// Token identifies the chapter a request was issued for. Teardown
// invalidates every token taken before it.
type Token uint64

// Reserve returns a token for a request that will run later, off the
// caller's goroutine.
func (c *Controller) Reserve() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Token(c.epoch)
}

// Speak replaces any current session with a clip for text. It blocks until
// playback has started or the request failed.
func (c *Controller) Speak(ctx context.Context, text string) error {
	return c.speak(ctx, c.Reserve(), text, nil)
}

// SpeakLine reads one poem line, ending whole-poem reading first.
func (c *Controller) SpeakLine(ctx context.Context, index int, text string) error {
	return c.SpeakLineFor(ctx, c.Reserve(), index, text)
}

// SpeakLineFor is SpeakLine for a reserved token. It returns ErrSuperseded
// when Teardown ran after tok was taken.
func (c *Controller) SpeakLineFor(ctx context.Context, tok Token, index int, text string) error {
	return c.speak(ctx, tok, text, func() {
		c.wholePoem = false
		c.line = index
	})
}

// ToggleWholePoem stops the current session if there is one. Otherwise it
// starts reading poem unless the guard is up.
func (c *Controller) ToggleWholePoem(ctx context.Context, poem string) error {
	return c.ToggleWholePoemFor(ctx, c.Reserve(), poem)
}

// ToggleWholePoemFor is ToggleWholePoem for a reserved token.
func (c *Controller) ToggleWholePoemFor(ctx context.Context, tok Token, poem string) error {
	c.mu.Lock()
	if Token(c.epoch) != tok {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if c.handle != nil || c.pending {
		c.teardownLocked()
		c.wholePoem = false
		c.line = -1
		c.mu.Unlock()
		c.notify()
		return nil
	}
	c.mu.Unlock()

	if c.guard != nil && c.guard() {
		return nil
	}
	return c.speak(ctx, tok, poem, func() {
		c.wholePoem = true
		c.line = -1
	})
}

// Teardown stops playback, cancels any pending request and clears flags.
func (c *Controller) Teardown() {
	c.mu.Lock()
	c.teardownLocked()
	c.epoch++
	c.wholePoem = false
	c.line = -1
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		Active:    c.handle != nil || c.pending,
		Pending:   c.pending,
		WholePoem: c.wholePoem,
		Line:      c.line,
	}
	if c.handle != nil {
		snap.Source = c.handle.Source()
	}
	return snap
}

func (c *Controller) speak(ctx context.Context, tok Token, text string, setup func()) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if c.synth == nil || c.player == nil {
		return &RequestError{Err: errors.New("narration not configured")}
	}

	c.mu.Lock()
	if Token(c.epoch) != tok {
		c.mu.Unlock()
		c.log.Debug("narration request outlived its chapter", zap.Uint64("token", uint64(tok)))
		return ErrSuperseded
	}
	c.teardownLocked()
	if setup != nil {
		setup()
	}
	c.seq++
	seq := c.seq
	reqCtx, cancel := context.WithCancel(ctx)
	c.pending = true
	c.cancelReq = cancel
	c.mu.Unlock()
	c.notify()

	audio, err := c.synth.Synthesize(reqCtx, text)

	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		cancel()
		c.log.Debug("narration superseded", zap.Uint64("seq", seq))
		return ErrSuperseded
	}
	c.pending = false
	c.cancelReq = nil
	cancel()
	if err != nil {
		c.wholePoem = false
		c.mu.Unlock()
		c.notify()
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			err = &RequestError{Err: err}
		}
		c.log.Warn("narration request failed", zap.Error(err))
		return err
	}

	handle, err := c.player.Play(audio)
	if err != nil {
		c.wholePoem = false
		c.mu.Unlock()
		c.notify()
		c.log.Warn("narration playback failed", zap.Error(err))
		return fmt.Errorf("start playback: %w", err)
	}
	c.handle = handle
	c.mu.Unlock()

	c.log.Debug("narration started", zap.String("source", handle.Source()), zap.Int("bytes", len(audio)))
	go c.watch(handle)
	c.notify()
	return nil
}

func (c *Controller) watch(h Handle) {
	<-h.Done()
	c.mu.Lock()
	if c.handle != h {
		c.mu.Unlock()
		return
	}
	h.Release()
	c.handle = nil
	c.wholePoem = false
	c.mu.Unlock()
	c.notify()
}

// teardownLocked ends the session without touching reading flags.
func (c *Controller) teardownLocked() {
	if c.cancelReq != nil {
		c.cancelReq()
		c.cancelReq = nil
	}
	if c.pending {
		c.pending = false
		c.seq++
	}
	if c.handle != nil {
		c.handle.Stop()
		c.handle.Release()
		c.handle = nil
	}
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
