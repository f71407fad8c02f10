// Package autosave persists a completed optimization at most once per
// distinct content pair, tolerating rapid re-triggering while a save is in
// flight. One Controller owns one optimization session; concurrent sessions
// get their own controllers and never interfere.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/kerru/bonsai/internal/analysis"
	"github.com/kerru/bonsai/internal/errors"
	"github.com/kerru/bonsai/internal/prompt"
)

// Saver persists one optimization record. A repeat save of an existing
// content pair must return a DUPLICATE-coded error, distinguishable from
// other failures.
type Saver interface {
	SaveOptimization(ctx context.Context, rec *prompt.Optimization) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, rec *prompt.Optimization) error

// SaveOptimization calls f.
func (f SaverFunc) SaveOptimization(ctx context.Context, rec *prompt.Optimization) error {
	return f(ctx, rec)
}

// Options configures a Controller.
type Options struct {
	// Debounce is the quiet interval after the last Update before a save
	// fires. Defaults to one second.
	Debounce time.Duration

	// NowNanos supplies record timestamps, preferring the store clock.
	// Defaults to the local clock.
	NowNanos func() int64

	// OnSaved is invoked after a successful persist (not for duplicates).
	OnSaved func(rec *prompt.Optimization)

	// OnError is invoked for persist failures other than duplicates. The
	// failure is non-fatal: the attempt marker is cleared so a later
	// trigger retries.
	OnError func(err error)
}

// Controller is the debounced, content-keyed persistence gate. Updates arm a
// trailing-edge debounce timer; when the quiet interval elapses the current
// content pair is saved unless its signature was already saved. All methods
// are safe for concurrent use.
type Controller struct {
	saver    Saver
	debounce time.Duration
	nowNanos func() int64
	onSaved  func(*prompt.Optimization)
	onError  func(error)

	mu        sync.Mutex
	timer     *time.Timer
	gen       uint64 // bumped on Reset/Close to fence stale timers and late completions
	saving    bool
	savedSig  string // signature of the last successful (or duplicate) save
	closed    bool
	original  string
	optimized string
	savings   float64
}

// New creates a Controller that persists through saver.
func New(saver Saver, opts Options) *Controller {
	c := &Controller{
		saver:    saver,
		debounce: opts.Debounce,
		nowNanos: opts.NowNanos,
		onSaved:  opts.OnSaved,
		onError:  opts.OnError,
	}
	if c.debounce <= 0 {
		c.debounce = time.Second
	}
	if c.nowNanos == nil {
		c.nowNanos = func() int64 { return time.Now().UnixNano() }
	}
	return c
}

// Update feeds the controller the current watched inputs. A complete triple
// (non-empty prompts plus stats) cancels and reschedules the debounce timer;
// an incomplete one only cancels it. Updates while a save is in flight are
// dropped, not queued.
func (c *Controller) Update(original, optimized string, stats *analysis.Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.stopTimerLocked()

	if original == "" || optimized == "" || stats == nil {
		return
	}
	if c.saving {
		return
	}

	c.original = original
	c.optimized = optimized
	c.savings = stats.EstimatedSavings

	gen := c.gen
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(gen) })
}

// Reset cancels any pending save and clears the saved-signature marker.
// Call when starting a new analysis or abandoning the session, so a stale
// timer never fires against new content.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.stopTimerLocked()
	c.savedSig = ""
	c.original = ""
	c.optimized = ""
	c.savings = 0
}

// Close permanently disables the controller and cancels any pending save.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.gen++
	c.stopTimerLocked()
}

// fire runs when the debounce interval elapses with no further change.
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || c.gen != gen || c.saving {
		c.mu.Unlock()
		return
	}

	sig := prompt.Signature(c.original, c.optimized)
	if sig == c.savedSig {
		c.mu.Unlock()
		return
	}

	rec, err := prompt.NewOptimization(c.original, c.optimized, c.savings, c.nowNanos())
	if err != nil {
		onError := c.onError
		c.mu.Unlock()
		if onError != nil {
			onError(errors.NewInternal(err))
		}
		return
	}

	c.saving = true
	c.mu.Unlock()

	saveErr := c.saver.SaveOptimization(context.Background(), rec)

	c.mu.Lock()
	c.saving = false
	if c.closed || c.gen != gen {
		// Session was reset while the save was in flight; the outcome no
		// longer applies to the current content.
		c.mu.Unlock()
		return
	}

	switch {
	case saveErr == nil:
		c.savedSig = sig
		onSaved := c.onSaved
		c.mu.Unlock()
		if onSaved != nil {
			onSaved(rec)
		}
	case errors.Is(saveErr, errors.ErrDuplicate):
		// The record already exists remotely: success-equivalent, silent.
		c.savedSig = sig
		c.mu.Unlock()
	default:
		// Attempt marker stays clear so a later trigger retries.
		onError := c.onError
		c.mu.Unlock()
		if onError != nil {
			onError(saveErr)
		}
	}
}

// stopTimerLocked cancels the pending debounce timer, if any.
// Caller must hold c.mu.
func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
