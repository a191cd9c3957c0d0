package browse

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/afrifurn-storefront/internal/catalog"
	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/metrics"
	"github.com/angelmondragon/afrifurn-storefront/pkg/pagination"
)

// SessionConfig tunes one browse session.
type SessionConfig struct {
	Debounce  time.Duration
	ViewSize  int
	Scheduler filters.Scheduler
	Now       func() time.Time
}

// Session is one browsing view: widgets edit the store, the debouncer commits a stable
// snapshot, the orchestrator fetches it and the pager slices the result.
type Session struct {
	id        string
	store     *filters.Store
	debouncer *filters.Debouncer
	orch      *Orchestrator
	viewSize  int
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	viewPage  int
	committed filters.Snapshot
	lastSeen  time.Time
	closed    bool
}

// NewSession builds the pipeline and commits the initial snapshot right away.
func NewSession(id string, initial filters.Snapshot, fetcher ProductFetcher, cfg SessionConfig, logg *logger.Logger, m *metrics.BrowseMetrics) *Session {
	if logg == nil {
		logg = logger.Nop()
	}
	viewSize := initial.PageSize
	if viewSize <= 0 {
		viewSize = cfg.ViewSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(logg.WithSessionID(context.Background(), id))
	s := &Session{
		id:       id,
		store:    filters.NewStore(initial),
		orch:     NewOrchestrator(fetcher, logg, m),
		viewSize: pagination.NormalizeSize(viewSize),
		now:      cfg.Now,
		ctx:      ctx,
		cancel:   cancel,
		viewPage: 1,
	}
	s.lastSeen = s.now()

	var opts []filters.DebouncerOption
	if cfg.Scheduler != nil {
		opts = append(opts, filters.WithScheduler(cfg.Scheduler))
	}
	s.debouncer = filters.NewDebouncer(cfg.Debounce, s.commit, opts...)
	s.debouncer.Commit(s.store.Current())
	return s
}

func (s *Session) ID() string {
	return s.id
}

// commit runs on the debouncer's commit path; Dispatch assigns the sequence number before
// returning, so fetch order follows commit order.
func (s *Session) commit(snap filters.Snapshot) {
	s.mu.Lock()
	s.committed = snap
	s.mu.Unlock()
	s.orch.Dispatch(s.ctx, filters.Serialize(snap))
}

// Update applies a facet edit. The returned raw snapshot reflects the edit immediately; the
// fetch follows once the debounce interval passes without further edits.
func (s *Session) Update(p filters.Partial) (filters.Snapshot, error) {
	if err := s.touch(); err != nil {
		return filters.Snapshot{}, err
	}
	snap := s.store.Update(p)
	s.setViewPage(1)
	s.debouncer.Push(snap)
	return snap, nil
}

// Reset restores the initial filters and commits them without waiting.
func (s *Session) Reset() (filters.Snapshot, error) {
	if err := s.touch(); err != nil {
		return filters.Snapshot{}, err
	}
	snap := s.store.Reset()
	s.setViewPage(1)
	s.debouncer.Commit(snap)
	return snap, nil
}

// Flush commits a pending edit now instead of waiting for the quiet interval.
func (s *Session) Flush() (bool, error) {
	if err := s.touch(); err != nil {
		return false, err
	}
	return s.debouncer.Flush(), nil
}

// Refresh re-fetches the committed snapshot. It is the explicit retry after an error.
func (s *Session) Refresh() error {
	if err := s.touch(); err != nil {
		return err
	}
	s.orch.Retry(s.ctx)
	return nil
}

// Filters returns the raw, possibly uncommitted, filter state.
func (s *Session) Filters() filters.Snapshot {
	return s.store.Current()
}

// SetViewPage moves the client-side pager.
func (s *Session) SetViewPage(page int) error {
	if err := s.touch(); err != nil {
		return err
	}
	s.setViewPage(page)
	return nil
}

func (s *Session) setViewPage(page int) {
	s.mu.Lock()
	s.viewPage = pagination.NormalizePage(page)
	s.mu.Unlock()
}

// FetchError describes the last failed fetch.
type FetchError struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// View is the rendered state of a session.
type View struct {
	ID         string            `json:"id"`
	Filters    filters.Snapshot  `json:"filters"`
	Committed  filters.Snapshot  `json:"committed"`
	Query      string            `json:"query"`
	Pending    bool              `json:"pending"`
	Loading    bool              `json:"loading"`
	Error      *FetchError       `json:"error,omitempty"`
	Products   []catalog.Product `json:"products"`
	Pagination pagination.Window `json:"pagination"`
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	committed := s.committed.Clone()
	viewPage := s.viewPage
	s.lastSeen = s.now()
	s.mu.Unlock()

	state := s.orch.State()
	items, window := pagination.Slice(state.Data, viewPage, s.viewSize)

	view := View{
		ID:         s.id,
		Filters:    s.store.Current(),
		Committed:  committed,
		Query:      state.Params.Encode(),
		Pending:    s.debouncer.Pending(),
		Loading:    state.Loading,
		Products:   items,
		Pagination: window,
	}
	if !state.UpdatedAt.IsZero() {
		updated := state.UpdatedAt
		view.UpdatedAt = &updated
	}
	if state.Err != nil {
		fe := &FetchError{
			Code:    string(pkgerrors.CodeOf(state.Err)),
			Kind:    catalog.Kind(state.Err),
			Message: pkgerrors.MetadataFor(pkgerrors.CodeOf(state.Err)).PublicMessage,
		}
		view.Error = fe
	}
	return view
}

// State exposes the orchestrator state.
func (s *Session) State() State {
	return s.orch.State()
}

// Wait blocks until dispatched fetches have completed.
func (s *Session) Wait() {
	s.orch.Wait()
}

// IdleSince reports when the session was last used.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close tears the session down: the pending debounce timer and the in-flight fetch are
// cancelled and nothing is applied afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Close()
	s.orch.Close()
	s.cancel()
}

func (s *Session) touch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "browse session closed")
	}
	s.lastSeen = s.now()
	return nil
}
