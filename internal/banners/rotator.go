package banners

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Loader fetches the banners that should currently rotate.
type Loader func(ctx context.Context) ([]Banner, error)

// State is a snapshot of the rotation.
type State struct {
	Current *Banner `json:"current"`
	Index   int     `json:"index"`
	Count   int     `json:"count"`
	Paused  bool    `json:"paused"`
}

// Rotator cycles through the live banners on a fixed interval. Every method
// is safe for concurrent use; Run owns the only background goroutine.
type Rotator struct {
	load         Loader
	interval     time.Duration
	refreshEvery int
	logger       *slog.Logger
	now          func() time.Time

	mu      sync.RWMutex
	banners []Banner
	index   int
	paused  bool
}

// NewRotator constructs a Rotator that advances every interval and reloads
// from load every refreshEvery ticks. refreshEvery below 1 disables reloads
// after the first.
func NewRotator(load Loader, interval time.Duration, refreshEvery int, logger *slog.Logger) *Rotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rotator{load: load, interval: interval, refreshEvery: refreshEvery, logger: logger, now: time.Now}
}

// Run loads the banners and rotates them until ctx is done.
func (r *Rotator) Run(ctx context.Context) error {
	r.Reload(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ticks++
			if r.refreshEvery > 0 && ticks%r.refreshEvery == 0 {
				r.Reload(ctx)
			}
			r.advance()
		}
	}
}

// Reload fetches the banners and replaces the rotation set. Load failures
// keep the previous set.
func (r *Rotator) Reload(ctx context.Context) {
	if r.load == nil {
		return
	}
	items, err := r.load(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("reload banners", slog.Any("error", err))
		}
		return
	}
	r.Replace(items)
}

func (r *Rotator) advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused {
		return
	}
	r.moveTo(r.liveIndex(r.index+1, 1))
}

// liveIndex walks the set from index from in direction step and returns the
// first banner still live now, or -1. Banners whose window closed since the
// last reload are skipped. Callers hold r.mu.
func (r *Rotator) liveIndex(from, step int) int {
	n := len(r.banners)
	now := r.now()
	for k := range n {
		i := ((from+step*k)%n + n) % n
		if r.banners[i].LiveAt(now) {
			return i
		}
	}
	return -1
}

func (r *Rotator) moveTo(i int) {
	if i >= 0 {
		r.index = i
	}
}

// Replace swaps the rotation set, keeping the current banner when it is
// still present and starting over otherwise.
func (r *Rotator) Replace(items []Banner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var currentID int64
	if r.index < len(r.banners) {
		currentID = r.banners[r.index].ID
	}
	r.banners = append([]Banner(nil), items...)
	r.index = 0
	for i, b := range r.banners {
		if b.ID == currentID {
			r.index = i
			break
		}
	}
}

// Next moves to the following banner, wrapping around.
func (r *Rotator) Next() State {
	r.mu.Lock()
	r.moveTo(r.liveIndex(r.index+1, 1))
	r.mu.Unlock()
	return r.State()
}

// Prev moves to the previous banner, wrapping around.
func (r *Rotator) Prev() State {
	r.mu.Lock()
	r.moveTo(r.liveIndex(r.index-1, -1))
	r.mu.Unlock()
	return r.State()
}

// Pause stops automatic advancing. Manual navigation still works.
func (r *Rotator) Pause() State {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
	return r.State()
}

// Resume restarts automatic advancing.
func (r *Rotator) Resume() State {
	r.mu.Lock()
	r.paused = false
	r.mu.Unlock()
	return r.State()
}

// Current returns the banner on display, skipping any that ended since the
// last reload.
func (r *Rotator) Current() (Banner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.liveIndex(r.index, 1)
	if i < 0 {
		return Banner{}, false
	}
	return r.banners[i], true
}

// State returns a snapshot of the rotation.
func (r *Rotator) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state := State{Index: r.index, Count: len(r.banners), Paused: r.paused}
	if i := r.liveIndex(r.index, 1); i >= 0 {
		current := r.banners[i]
		state.Current = &current
		state.Index = i
	}
	return state
}
