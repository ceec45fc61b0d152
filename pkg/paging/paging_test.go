package paging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/roster/pkg/domain"
)

// fakeSource serves pages of companies from memory. A page listed in gate
// blocks until its channel is closed.
type fakeSource struct {
	mu      sync.Mutex
	rows    []domain.Company
	perPage int
	lists   []int
	deletes []domain.ID
	created []domain.CompanyDraft
	listErr error
	delErr  error
	gate    map[int]chan struct{}
	started chan int
	delGate chan struct{}
}

func newFakeSource(n int) *fakeSource {
	f := &fakeSource{perPage: 10, gate: map[int]chan struct{}{}}
	for i := 1; i <= n; i++ {
		f.rows = append(f.rows, domain.Company{ID: domain.ID(fmt.Sprint(i)), Name: fmt.Sprintf("Company %d", i)})
	}
	return f
}

func (f *fakeSource) List(ctx context.Context, page int) (domain.Page[domain.Company], error) {
	f.mu.Lock()
	f.lists = append(f.lists, page)
	gate := f.gate[page]
	started := f.started
	f.mu.Unlock()
	if started != nil {
		started <- page
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return domain.Page[domain.Company]{}, f.listErr
	}
	last := (len(f.rows) + f.perPage - 1) / f.perPage
	if last < 1 {
		last = 1
	}
	from := (page - 1) * f.perPage
	to := min(from+f.perPage, len(f.rows))
	recs := []domain.Company{}
	if from < len(f.rows) {
		recs = append(recs, f.rows[from:to]...)
	}
	return domain.Page[domain.Company]{
		Records:    recs,
		Pagination: domain.Pagination{From: from + 1, To: to, Total: len(f.rows), LastPage: last},
	}, nil
}

func (f *fakeSource) Create(ctx context.Context, d domain.CompanyDraft) (domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, d)
	c := domain.Company{ID: domain.ID(fmt.Sprint(len(f.rows) + 1)), Name: d.Name, Email: d.Email}
	f.rows = append(f.rows, c)
	return c, nil
}

func (f *fakeSource) Update(ctx context.Context, id domain.ID, d domain.CompanyDraft) (domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Name = d.Name
			return f.rows[i], nil
		}
	}
	return domain.Company{}, domain.ErrNotFound
}

func (f *fakeSource) Delete(ctx context.Context, id domain.ID) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, id)
	gate := f.delGate
	err := f.delErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeSource) listCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.lists...)
}

func names(s State[domain.Company]) []string {
	out := make([]string, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Name
	}
	return out
}

func TestReloadLoadsFirstPage(t *testing.T) {
	src := newFakeSource(25)
	c := New(src, domain.ValidateCompany)

	assert.Equal(t, StatusIdle, c.Snapshot().Status)
	require.NoError(t, c.Reload(context.Background()))

	s := c.Snapshot()
	assert.Equal(t, StatusLoaded, s.Status)
	assert.Equal(t, 1, s.Page)
	assert.Len(t, s.Records, 10)
	assert.Equal(t, 3, s.Pagination.LastPage)
	assert.Equal(t, 25, s.Pagination.Total)
	assert.False(t, s.HasPrev())
	assert.True(t, s.HasNext())
}

func TestSetPageRange(t *testing.T) {
	src := newFakeSource(25)
	c := New(src, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	err := c.SetPage(ctx, 0)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	err = c.SetPage(ctx, 4)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	assert.Equal(t, []int{1}, src.listCalls(), "rejected pages must not reach the source")

	require.NoError(t, c.SetPage(ctx, 3))
	s := c.Snapshot()
	assert.Equal(t, 3, s.Page)
	assert.Equal(t, []string{"Company 21", "Company 22", "Company 23", "Company 24", "Company 25"}, names(s))
	assert.False(t, s.HasNext())

	assert.ErrorIs(t, c.Next(ctx), ErrPageOutOfRange)
	require.NoError(t, c.Prev(ctx))
	assert.Equal(t, 2, c.Snapshot().Page)
}

func TestSetPageBeforeMetadataKnown(t *testing.T) {
	src := newFakeSource(25)
	c := New(src, nil)

	require.NoError(t, c.SetPage(context.Background(), 2))
	assert.Equal(t, 2, c.Snapshot().Page)
	assert.ErrorIs(t, c.SetPage(context.Background(), -1), ErrPageOutOfRange)
}

func TestStaleResponseDiscarded(t *testing.T) {
	src := newFakeSource(40)
	c := New(src, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	slow := make(chan struct{})
	src.mu.Lock()
	src.gate[2] = slow
	src.started = make(chan int, 2)
	src.mu.Unlock()

	slowErr := make(chan error, 1)
	go func() { slowErr <- c.SetPage(ctx, 2) }()
	require.Equal(t, 2, <-src.started)

	require.NoError(t, c.SetPage(ctx, 3))
	close(slow)

	assert.ErrorIs(t, <-slowErr, ErrSuperseded)
	s := c.Snapshot()
	assert.Equal(t, 3, s.Page)
	assert.Equal(t, "Company 21", s.Records[0].Name)
	assert.Equal(t, StatusLoaded, s.Status)
}

func TestFetchFailureKeepsRecords(t *testing.T) {
	src := newFakeSource(5)
	c := New(src, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	boom := errors.New("boom")
	src.mu.Lock()
	src.listErr = boom
	src.mu.Unlock()

	err := c.Reload(ctx)
	assert.ErrorIs(t, err, boom)
	s := c.Snapshot()
	assert.Equal(t, StatusError, s.Status)
	assert.ErrorIs(t, s.Err, boom)
	assert.Len(t, s.Records, 5)

	src.mu.Lock()
	src.listErr = nil
	src.mu.Unlock()
	require.NoError(t, c.Reload(ctx))
	assert.NoError(t, c.Snapshot().Err)
}

func TestRefreshAfterMutation(t *testing.T) {
	src := newFakeSource(25)
	c := New(src, nil)
	ctx := context.Background()

	require.NoError(t, c.SetPage(ctx, 3))
	require.NoError(t, c.RefreshAfterMutation(ctx))
	assert.Equal(t, 1, c.Snapshot().Page)

	require.NoError(t, c.RefreshAfterMutation(ctx))
	assert.Equal(t, 1, c.Snapshot().Page)
	assert.Equal(t, []int{3, 1, 1}, src.listCalls(), "one fetch per refresh")
}

func TestCreateValidatesFirst(t *testing.T) {
	src := newFakeSource(0)
	c := New(src, domain.ValidateCompany)
	ctx := context.Background()

	_, err := c.Create(ctx, domain.CompanyDraft{})
	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Name is required", fe["name"])
	assert.Empty(t, src.created)
	assert.Empty(t, src.listCalls())

	rec, err := c.Create(ctx, domain.CompanyDraft{Name: "Acme", Email: "a@acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec.Name)
	assert.Equal(t, []int{1}, src.listCalls())
	assert.Equal(t, []string{"Acme"}, names(c.Snapshot()))
}

func TestCreateSavedWhenRefreshFails(t *testing.T) {
	src := newFakeSource(2)
	c := New(src, domain.ValidateCompany)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	down := errors.New("list down")
	src.mu.Lock()
	src.listErr = down
	src.mu.Unlock()

	rec, err := c.Create(ctx, domain.CompanyDraft{Name: "Acme", Email: "a@acme.test"})
	require.NoError(t, err, "a saved record must not be reported as a failure")
	assert.Equal(t, "Acme", rec.Name)
	assert.Len(t, src.created, 1)

	s := c.Snapshot()
	assert.Equal(t, StatusError, s.Status)
	assert.ErrorIs(t, s.Err, down)
	assert.Len(t, s.Records, 2, "previous page stays visible")

	rec, err = c.Update(ctx, "1", domain.CompanyDraft{Name: "Renamed", Email: "r@x.test"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", rec.Name)
	assert.ErrorIs(t, c.Snapshot().Err, down)
}

func TestReloadClampsWhenCollectionShrinks(t *testing.T) {
	src := newFakeSource(25)
	c := New(src, nil)
	ctx := context.Background()
	require.NoError(t, c.SetPage(ctx, 3))

	src.mu.Lock()
	src.rows = src.rows[:15]
	src.mu.Unlock()

	require.NoError(t, c.Reload(ctx))
	s := c.Snapshot()
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, 2, s.Pagination.LastPage)
	assert.Len(t, s.Records, 5)
	assert.Equal(t, StatusLoaded, s.Status)
	assert.False(t, s.HasNext())
	assert.Equal(t, []int{3, 3, 2}, src.listCalls())
}

func TestReloadClampsToFirstPageWhenEmptied(t *testing.T) {
	src := newFakeSource(25)
	c := New(src, nil)
	ctx := context.Background()
	require.NoError(t, c.SetPage(ctx, 3))

	src.mu.Lock()
	src.rows = nil
	src.mu.Unlock()

	require.NoError(t, c.Reload(ctx))
	s := c.Snapshot()
	assert.Equal(t, 1, s.Page)
	assert.Empty(t, s.Records)
	assert.Equal(t, 0, s.Pagination.Total)
}

func TestUpdateRefreshesFromPageOne(t *testing.T) {
	src := newFakeSource(15)
	c := New(src, domain.ValidateCompany)
	ctx := context.Background()
	require.NoError(t, c.SetPage(ctx, 2))

	_, err := c.Update(ctx, "12", domain.CompanyDraft{Name: "Renamed", Email: "r@x.test"})
	require.NoError(t, err)
	s := c.Snapshot()
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, []int{2, 1}, src.listCalls())

	_, err = c.Update(ctx, "99", domain.CompanyDraft{Name: "Ghost", Email: "g@x.test"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, c.Snapshot().Err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	src := newFakeSource(3)
	c := New(src, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	require.NoError(t, c.Delete(ctx, "2"))
	s := c.Snapshot()
	assert.Equal(t, []string{"Company 1", "Company 3"}, names(s))
	assert.Empty(t, s.Deleting)
	assert.Equal(t, []int{1}, src.listCalls(), "delete does not refetch")
}

func TestDeleteUnknownID(t *testing.T) {
	src := newFakeSource(3)
	c := New(src, nil)
	require.NoError(t, c.Reload(context.Background()))

	err := c.Delete(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, src.deletes)
}

func TestDeleteFailureClearsMarker(t *testing.T) {
	src := newFakeSource(3)
	c := New(src, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	boom := errors.New("nope")
	src.delErr = boom
	err := c.Delete(ctx, "1")
	assert.ErrorIs(t, err, boom)

	s := c.Snapshot()
	assert.False(t, s.IsDeleting("1"))
	assert.Len(t, s.Records, 3)
	assert.ErrorIs(t, s.Err, boom)
}

func TestDeleteMarkerWhileInFlight(t *testing.T) {
	src := newFakeSource(3)
	c := New(src, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	gate := make(chan struct{})
	src.delGate = gate
	changed := make(chan struct{}, 16)
	c.onChange = func() { changed <- struct{}{} }

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); assert.NoError(t, c.Delete(ctx, "1")) }()
	go func() { defer wg.Done(); assert.NoError(t, c.Delete(ctx, "3")) }()
	<-changed
	<-changed

	s := c.Snapshot()
	assert.True(t, s.IsDeleting("1"))
	assert.True(t, s.IsDeleting("3"))
	assert.False(t, s.IsDeleting("2"))

	close(gate)
	wg.Wait()
	s = c.Snapshot()
	assert.Empty(t, s.Deleting)
	assert.Equal(t, []string{"Company 2"}, names(s))
}

func TestOnChangeCalled(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	c := New(newFakeSource(1), nil, WithOnChange(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}))
	require.NoError(t, c.Reload(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls, "loading then loaded")
}
