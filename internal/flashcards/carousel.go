package flashcards

import (
	"sync"
	"time"
)

// DefaultPeriod is how long each card stays on screen.
const DefaultPeriod = 7 * time.Second

// Scheduler arms repeating timers.
type Scheduler interface {
	Every(d time.Duration, fn func()) (cancel func())
}

// TickerScheduler runs each timer on its own goroutine.
type TickerScheduler struct{}

// Every calls fn every d until cancel is called.
func (TickerScheduler) Every(d time.Duration, fn func()) func() {
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

// Carousel rotates through one class deck on a timer.
//
// Timer callbacks only report a generation through OnTick; the owner calls
// Advance with that generation from its own loop, so a tick armed before the
// latest Start or Stop is ignored.
type Carousel struct {
	mu      sync.Mutex
	decks   Decks
	sched   Scheduler
	period  time.Duration
	onTick  func(gen uint64)
	active  bool
	classID string
	index   int
	gen     uint64
	cancel  func()
}

// Options configure a Carousel.
type Options struct {
	Scheduler Scheduler
	Period    time.Duration
	OnTick    func(gen uint64)
}

// NewCarousel returns a stopped carousel with no decks.
func NewCarousel(opts Options) *Carousel {
	c := &Carousel{
		sched:  opts.Scheduler,
		period: opts.Period,
		onTick: opts.OnTick,
	}
	if c.sched == nil {
		c.sched = TickerScheduler{}
	}
	if c.period <= 0 {
		c.period = DefaultPeriod
	}
	return c
}

// SetDecks installs the built decks.
func (c *Carousel) SetDecks(decks Decks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decks = decks
}

// HasCards reports whether classID has a non-empty deck.
func (c *Carousel) HasCards(classID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.decks[classID]) > 0
}

// Start shows card 0 of classID and arms the timer. It does nothing and
// returns false when decks are unbuilt or the deck is empty.
func (c *Carousel) Start(classID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.decks) == 0 || len(c.decks[classID]) == 0 {
		return false
	}
	c.stopLocked()
	c.active = true
	c.classID = classID
	c.index = 0
	c.gen++
	gen := c.gen
	onTick := c.onTick
	c.cancel = c.sched.Every(c.period, func() {
		if onTick != nil {
			onTick(gen)
		}
	})
	return true
}

// Stop cancels the timer and clears the active class. Safe to repeat.
func (c *Carousel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Carousel) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.active = false
	c.classID = ""
}

// Advance moves to the next card when gen matches the armed timer.
func (c *Carousel) Advance(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || gen != c.gen {
		return false
	}
	cards := c.decks[c.classID]
	if len(cards) == 0 {
		return false
	}
	c.index = (c.index + 1) % len(cards)
	return true
}

// Generation returns the generation of the most recently armed timer.
func (c *Carousel) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Current returns the visible card with its position.
func (c *Carousel) Current() (card Card, index, total int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return Card{}, 0, 0, false
	}
	cards := c.decks[c.classID]
	if len(cards) == 0 {
		return Card{}, 0, 0, false
	}
	idx := c.index % len(cards)
	return cards[idx], idx, len(cards), true
}

// Active reports whether the carousel is running.
func (c *Carousel) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// ClassID returns the class being shown, or "" when stopped.
func (c *Carousel) ClassID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classID
}

// Period returns the card interval.
func (c *Carousel) Period() time.Duration {
	return c.period
}
