// Package paging drives a paginated list of remote records: the current
// page, its loading state, per-row delete markers and refresh after
// add/edit. It is generic over the record and draft types so companies and
// employees share one implementation.
//
// All methods are safe for concurrent use. Network calls run outside the
// lock; every fetch is tagged with a sequence number and only the latest
// fetch may change visible state.
package paging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/naveenspark/roster/internal/logging"
	"github.com/naveenspark/roster/pkg/domain"
)

var (
	// ErrPageOutOfRange is returned for a page below 1 or past the last page.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrSuperseded is returned by a fetch whose result was discarded because
	// a newer fetch was issued while it was in flight.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Status is the fetch state of a controller.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Source is the remote side of a controller. *client.Resource satisfies it.
type Source[R domain.Record, D domain.Draft] interface {
	List(ctx context.Context, page int) (domain.Page[R], error)
	Create(ctx context.Context, draft D) (R, error)
	Update(ctx context.Context, id domain.ID, draft D) (R, error)
	Delete(ctx context.Context, id domain.ID) error
}

// State is a snapshot of what the presentation layer renders.
type State[R domain.Record] struct {
	Records    []R
	Pagination domain.Pagination
	Page       int
	Status     Status
	// Err is the last failure of any action; cleared by the next successful fetch.
	Err      error
	Deleting map[domain.ID]bool
}

// IsDeleting reports whether a delete for id is in flight.
func (s State[R]) IsDeleting(id domain.ID) bool {
	return s.Deleting[id]
}

// HasPrev reports whether a previous page exists.
func (s State[R]) HasPrev() bool {
	return s.Page > 1
}

// HasNext reports whether a next page exists.
func (s State[R]) HasNext() bool {
	return s.Pagination.Known() && s.Page < s.Pagination.LastPage
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	log      *slog.Logger
	onChange func()
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithOnChange registers a callback invoked after every state change.
// It runs without the controller lock held.
func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// Controller holds one resource kind's list state.
type Controller[R domain.Record, D domain.Draft] struct {
	src      Source[R, D]
	validate func(D) domain.FieldErrors
	log      *slog.Logger
	onChange func()

	mu       sync.Mutex
	seq      uint64
	state    State[R]
	deleting map[domain.ID]bool
}

// New creates a controller on page 1. validate may be nil.
func New[R domain.Record, D domain.Draft](src Source[R, D], validate func(D) domain.FieldErrors, opts ...Option) *Controller[R, D] {
	o := options{log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[R, D]{
		src:      src,
		validate: validate,
		log:      o.log,
		onChange: o.onChange,
		state:    State[R]{Page: 1},
		deleting: map[domain.ID]bool{},
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller[R, D]) Snapshot() State[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Records = slices.Clone(c.state.Records)
	s.Deleting = make(map[domain.ID]bool, len(c.deleting))
	for id := range c.deleting {
		s.Deleting[id] = true
	}
	return s
}

// SetPage moves to page n and fetches it. Out-of-range pages are rejected
// without calling the source.
func (c *Controller[R, D]) SetPage(ctx context.Context, n int) error {
	c.mu.Lock()
	if err := c.checkPage(n); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("paging.SetPage: %w", err)
	}
	c.state.Page = n
	c.mu.Unlock()
	return c.fetch(ctx, n)
}

// Next moves one page forward.
func (c *Controller[R, D]) Next(ctx context.Context) error {
	c.mu.Lock()
	n := c.state.Page + 1
	c.mu.Unlock()
	return c.SetPage(ctx, n)
}

// Prev moves one page back.
func (c *Controller[R, D]) Prev(ctx context.Context) error {
	c.mu.Lock()
	n := c.state.Page - 1
	c.mu.Unlock()
	return c.SetPage(ctx, n)
}

// Reload fetches the current page again.
func (c *Controller[R, D]) Reload(ctx context.Context) error {
	c.mu.Lock()
	n := c.state.Page
	c.mu.Unlock()
	return c.fetch(ctx, n)
}

// RefreshAfterMutation shows the effect of an add or edit: back to page 1
// when elsewhere, otherwise a reload. Either way exactly one fetch is issued.
func (c *Controller[R, D]) RefreshAfterMutation(ctx context.Context) error {
	c.mu.Lock()
	c.state.Page = 1
	c.mu.Unlock()
	return c.fetch(ctx, 1)
}

// checkPage validates n against known metadata. Caller holds c.mu.
func (c *Controller[R, D]) checkPage(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, n)
	}
	if p := c.state.Pagination; p.Known() && n > p.LastPage {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, p.LastPage)
	}
	return nil
}

func (c *Controller[R, D]) fetch(ctx context.Context, page int) error {
	c.mu.Lock()
	c.seq++
	tag := c.seq
	c.state.Status = StatusLoading
	c.mu.Unlock()
	c.changed()

	result, err := c.src.List(ctx, page)

	c.mu.Lock()
	if tag != c.seq {
		c.mu.Unlock()
		c.log.Debug("discarding stale page", "page", page, "tag", tag)
		return ErrSuperseded
	}
	if err != nil {
		c.state.Status = StatusError
		c.state.Err = err
		c.mu.Unlock()
		c.changed()
		c.log.Warn("page fetch failed", "page", page, "error", err)
		return fmt.Errorf("paging.fetch: %w", err)
	}
	if p := result.Pagination; p.Known() && page > p.LastPage {
		// The collection shrank under us; follow it to its new last page.
		c.state.Pagination = p
		c.state.Page = p.LastPage
		c.mu.Unlock()
		c.log.Debug("page past last page, clamping", "page", page, "last_page", p.LastPage)
		return c.fetch(ctx, p.LastPage)
	}
	c.state.Records = result.Records
	c.state.Pagination = result.Pagination
	c.state.Page = page
	c.state.Status = StatusLoaded
	c.state.Err = nil
	c.mu.Unlock()
	c.changed()
	return nil
}

// Delete removes id remotely and drops it from the loaded page. The page is
// not refetched, so it stays one row short until the next fetch. Ids not on
// the loaded page yield domain.ErrNotFound without a remote call.
func (c *Controller[R, D]) Delete(ctx context.Context, id domain.ID) error {
	c.mu.Lock()
	if !slices.ContainsFunc(c.state.Records, func(r R) bool { return r.RecordID() == id }) {
		c.mu.Unlock()
		return fmt.Errorf("paging.Delete %s: %w", id, domain.ErrNotFound)
	}
	if c.deleting[id] {
		c.mu.Unlock()
		return nil
	}
	c.deleting[id] = true
	c.mu.Unlock()
	c.changed()

	err := c.src.Delete(ctx, id)

	c.mu.Lock()
	delete(c.deleting, id)
	if err != nil {
		c.state.Err = err
	} else {
		c.state.Records = slices.DeleteFunc(c.state.Records, func(r R) bool { return r.RecordID() == id })
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		c.log.Warn("delete failed", "id", id, "error", err)
		return fmt.Errorf("paging.Delete: %w", err)
	}
	return nil
}

// Create validates and submits a draft, then refreshes the list.
// Invalid drafts return domain.FieldErrors and never reach the source.
// Once the source accepts the draft the error is nil; a failed refresh is
// only recorded in the state.
func (c *Controller[R, D]) Create(ctx context.Context, draft D) (R, error) {
	var zero R
	if err := c.check(draft); err != nil {
		return zero, err
	}
	rec, err := c.src.Create(ctx, draft)
	if err != nil {
		c.fail(err)
		return zero, fmt.Errorf("paging.Create: %w", err)
	}
	c.refreshQuietly(ctx)
	return rec, nil
}

// Update validates and submits an edit, then refreshes the list.
func (c *Controller[R, D]) Update(ctx context.Context, id domain.ID, draft D) (R, error) {
	var zero R
	if err := c.check(draft); err != nil {
		return zero, err
	}
	rec, err := c.src.Update(ctx, id, draft)
	if err != nil {
		c.fail(err)
		return zero, fmt.Errorf("paging.Update: %w", err)
	}
	c.refreshQuietly(ctx)
	return rec, nil
}

func (c *Controller[R, D]) check(draft D) error {
	if c.validate == nil {
		return nil
	}
	if errs := c.validate(draft); !errs.OK() {
		return errs
	}
	return nil
}

// refreshQuietly runs RefreshAfterMutation after a saved mutation. A failure
// is already in state.Err; a superseded refresh has a newer fetch behind it.
func (c *Controller[R, D]) refreshQuietly(ctx context.Context) {
	if err := c.RefreshAfterMutation(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		c.log.Warn("refresh after save failed", "error", err)
	}
}

func (c *Controller[R, D]) fail(err error) {
	c.mu.Lock()
	c.state.Err = err
	c.mu.Unlock()
	c.changed()
}

func (c *Controller[R, D]) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
