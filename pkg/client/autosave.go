package client

import (
	"context"
	"sync"
	"time"
)

type Draft struct {
	Title   string
	Content string
}

type SaveFunc func(ctx context.Context, d Draft) error

// Autosaver debounces edits: a save fires once input has been quiet for the
// delay, and only the most recent draft is ever saved. Drafts equal to the
// last saved one are skipped.
type Autosaver struct {
	save    SaveFunc
	delay   time.Duration
	onError func(error)

	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64
	pending  *Draft
	closed   bool
	inFlight sync.WaitGroup

	saving sync.Mutex // serializes saves, guards last
	last   Draft
}

// NewAutosaver starts from saved, the draft as it was loaded. onError may be nil.
func NewAutosaver(saved Draft, delay time.Duration, save SaveFunc, onError func(error)) *Autosaver {
	if onError == nil {
		onError = func(error) {}
	}
	return &Autosaver{save: save, delay: delay, onError: onError, last: saved}
}

// SaveDocument returns a SaveFunc that writes drafts to document id.
func (c *Client) SaveDocument(id string) SaveFunc {
	return func(ctx context.Context, d Draft) error {
		content := d.Content
		_, err := c.UpdateDocument(ctx, id, d.Title, &content)
		return err
	}
}

// Change records a new draft and restarts the idle timer.
func (a *Autosaver) Change(title, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = &Draft{Title: title, Content: content}
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
	}
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
}

func (a *Autosaver) fire(gen uint64) {
	d := a.take(gen)
	if d == nil {
		return
	}
	defer a.inFlight.Done()
	if err := a.run(context.Background(), *d); err != nil {
		a.onError(err)
	}
}

// take claims the pending draft. A stale timer (gen mismatch) claims nothing.
// On success the caller owns one inFlight slot.
func (a *Autosaver) take(gen uint64) *Draft {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.pending == nil || (gen != 0 && gen != a.gen) {
		return nil
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	d := a.pending
	a.pending = nil
	a.inFlight.Add(1)
	return d
}

func (a *Autosaver) run(ctx context.Context, d Draft) error {
	a.saving.Lock()
	defer a.saving.Unlock()
	if d == a.last {
		return nil
	}
	if err := a.save(ctx, d); err != nil {
		return err
	}
	a.last = d
	return nil
}

// Flush saves the pending draft now, if there is one.
func (a *Autosaver) Flush(ctx context.Context) error {
	d := a.take(0)
	if d == nil {
		return nil
	}
	defer a.inFlight.Done()
	return a.run(ctx, *d)
}

// Pending reports whether a draft is waiting for its timer.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Close drops any pending draft and waits for an in-flight save to finish.
// Later changes are ignored.
func (a *Autosaver) Close() {
	a.mu.Lock()
	a.closed = true
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.inFlight.Wait()
}
