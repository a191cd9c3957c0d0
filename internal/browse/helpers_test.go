package browse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/afrifurn-storefront/internal/catalog"
	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
)

func products(n int) []catalog.Product {
	out := make([]catalog.Product, n)
	for i := range out {
		out[i] = catalog.Product{ID: fmt.Sprintf("p%02d", i), Name: fmt.Sprintf("Product %d", i)}
	}
	return out
}

// recordingFetcher answers immediately and remembers every request.
type recordingFetcher struct {
	mu      sync.Mutex
	calls   []filters.QueryParameters
	respond func(filters.QueryParameters) ([]catalog.Product, error)
}

func (f *recordingFetcher) FilterProducts(_ context.Context, params filters.QueryParameters) ([]catalog.Product, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return products(0), nil
	}
	return respond(params)
}

func (f *recordingFetcher) Calls() []filters.QueryParameters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]filters.QueryParameters(nil), f.calls...)
}

func (f *recordingFetcher) setResponse(respond func(filters.QueryParameters) ([]catalog.Product, error)) {
	f.mu.Lock()
	f.respond = respond
	f.mu.Unlock()
}

type pendingCall struct {
	ctx    context.Context
	params filters.QueryParameters
	reply  chan reply
}

type reply struct {
	products []catalog.Product
	err      error
}

// gatedFetcher blocks every request until the test answers it. It ignores cancellation
// unless honorCancel is set, so late responses can be simulated.
type gatedFetcher struct {
	honorCancel bool
	calls       chan pendingCall
}

func newGatedFetcher(honorCancel bool) *gatedFetcher {
	return &gatedFetcher{honorCancel: honorCancel, calls: make(chan pendingCall, 16)}
}

func (f *gatedFetcher) FilterProducts(ctx context.Context, params filters.QueryParameters) ([]catalog.Product, error) {
	call := pendingCall{ctx: ctx, params: params, reply: make(chan reply, 1)}
	f.calls <- call
	if f.honorCancel {
		select {
		case r := <-call.reply:
			return r.products, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r := <-call.reply
	return r.products, r.err
}

func (f *gatedFetcher) next(timeout time.Duration) (pendingCall, bool) {
	select {
	case call := <-f.calls:
		return call, true
	case <-time.After(timeout):
		return pendingCall{}, false
	}
}

type manualTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) filters.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &manualTimer{fn: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *manualClock) elapse() {
	c.mu.Lock()
	var due []*manualTimer
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired {
			timer.fired = true
			due = append(due, timer)
		}
	}
	c.mu.Unlock()
	for _, timer := range due {
		timer.fn()
	}
}

func (c *manualClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired {
			n++
		}
	}
	return n
}
