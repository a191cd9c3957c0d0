package browse

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/afrifurn-storefront/internal/catalog"
	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/metrics"
)

var (
	// ErrSuperseded is returned for a fetch whose result was discarded because a newer fetch
	// was issued after it.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	ErrClosed     = errors.New("orchestrator closed")
)

// ProductFetcher runs the remote filtered query.
type ProductFetcher interface {
	FilterProducts(ctx context.Context, params filters.QueryParameters) ([]catalog.Product, error)
}

// State is what the view renders: the last applied result plus loading and error flags.
type State struct {
	Data      []catalog.Product
	Loading   bool
	Err       error
	Seq       uint64
	Params    filters.QueryParameters
	UpdatedAt time.Time
}

// Result is the outcome of one fetch.
type Result struct {
	Seq      uint64
	Products []catalog.Product
}

// Completion is delivered by Dispatch once the fetch finished or was discarded.
type Completion struct {
	Result Result
	Err    error
}

// Orchestrator issues filtered fetches and applies only the newest one. Starting a fetch
// cancels the one in flight; a response from an older fetch is never applied.
type Orchestrator struct {
	fetcher ProductFetcher
	logg    *logger.Logger
	metrics *metrics.BrowseMetrics
	now     func() time.Time

	wg sync.WaitGroup

	mu        sync.Mutex
	issued    uint64
	cancel    context.CancelFunc
	requested filters.QueryParameters
	state     State
	closed    bool
}

func NewOrchestrator(fetcher ProductFetcher, logg *logger.Logger, m *metrics.BrowseMetrics) *Orchestrator {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Orchestrator{
		fetcher: fetcher,
		logg:    logg,
		metrics: m,
		now:     time.Now,
		state:   State{Data: []catalog.Product{}},
	}
}

type ticket struct {
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc
	params filters.QueryParameters
}

// Fetch runs one fetch and waits for it. It returns ErrSuperseded when a newer fetch was
// issued in the meantime; the state then reflects the newer one.
func (o *Orchestrator) Fetch(ctx context.Context, params filters.QueryParameters) (Result, error) {
	t, err := o.begin(ctx, params)
	if err != nil {
		return Result{}, err
	}
	return o.run(t)
}

// Dispatch issues the fetch immediately and completes it in the background. Sequence numbers
// follow the order of Dispatch calls. The channel is buffered and receives exactly one value.
func (o *Orchestrator) Dispatch(ctx context.Context, params filters.QueryParameters) <-chan Completion {
	done := make(chan Completion, 1)
	t, err := o.begin(ctx, params)
	if err != nil {
		done <- Completion{Err: err}
		return done
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		result, err := o.run(t)
		done <- Completion{Result: result, Err: err}
	}()
	return done
}

// Retry re-issues the most recently requested parameters.
func (o *Orchestrator) Retry(ctx context.Context) <-chan Completion {
	o.mu.Lock()
	params := o.requested
	o.mu.Unlock()
	return o.Dispatch(ctx, params)
}

func (o *Orchestrator) begin(ctx context.Context, params filters.QueryParameters) (ticket, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ticket{}, ErrClosed
	}
	if o.cancel != nil {
		o.cancel()
	}
	o.issued++
	fetchCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.requested = params
	o.state.Loading = true
	o.state.Err = nil
	return ticket{seq: o.issued, ctx: fetchCtx, cancel: cancel, params: params}, nil
}

func (o *Orchestrator) run(t ticket) (Result, error) {
	defer t.cancel()

	start := o.now()
	products, err := o.fetcher.FilterProducts(t.ctx, t.params)
	elapsed := o.now().Sub(start)

	o.mu.Lock()
	defer o.mu.Unlock()

	if t.seq != o.issued || o.closed {
		o.metrics.ObserveFetch(metrics.OutcomeStale, elapsed)
		return Result{Seq: t.seq}, ErrSuperseded
	}
	o.cancel = nil
	o.state.Loading = false

	if err != nil {
		o.state.Err = err
		outcome := metrics.OutcomeError
		if errors.Is(err, context.Canceled) {
			outcome = metrics.OutcomeCanceled
		}
		o.metrics.ObserveFetch(outcome, elapsed)
		ctx := o.logg.WithFields(t.ctx, map[string]any{
			"seq":        t.seq,
			"error_kind": catalog.Kind(err),
		})
		o.logg.Warn(ctx, "filtered fetch failed, keeping previous results")
		return Result{Seq: t.seq}, err
	}

	if products == nil {
		products = []catalog.Product{}
	}
	o.state.Data = products
	o.state.Seq = t.seq
	o.state.Params = t.params
	o.state.UpdatedAt = o.now()
	o.metrics.ObserveFetch(metrics.OutcomeApplied, elapsed)
	return Result{Seq: t.seq, Products: products}, nil
}

// State returns a copy of the current view state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.state
	out.Data = make([]catalog.Product, len(o.state.Data))
	copy(out.Data, o.state.Data)
	return out
}

// Wait blocks until every dispatched fetch has completed.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels the in-flight fetch and waits for background fetches to return. Results that
// land afterwards are discarded.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.state.Loading = false
	o.mu.Unlock()

	o.wg.Wait()
}
