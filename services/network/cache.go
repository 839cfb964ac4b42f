package network

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"circl/metrics"
	"circl/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type memberSet struct {
	byID        map[int64]models.NetworkMember
	byEmail     map[string]struct{}
	state       State
	refreshedAt time.Time
	ready       chan struct{}
	// gen counts local writes; a refresh that read the source before the latest
	// write is not applied.
	gen uint64
}

// absent stands in for owners the cache has never seen. It is never written.
var absent = &memberSet{state: StateEmpty}

func newMemberSet() *memberSet {
	return &memberSet{
		byID:    make(map[int64]models.NetworkMember),
		byEmail: make(map[string]struct{}),
		state:   StateEmpty,
		ready:   make(chan struct{}),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *memberSet) add(member models.NetworkMember) {
	if member.UserID != 0 {
		m.byID[member.UserID] = member
	}
	if e := normalizeEmail(member.Email); e != "" {
		m.byEmail[e] = struct{}{}
	}
}

func (m *memberSet) remove(memberID int64) {
	if member, ok := m.byID[memberID]; ok {
		delete(m.byEmail, normalizeEmail(member.Email))
		delete(m.byID, memberID)
	}
}

func (m *memberSet) drop(member models.NetworkMember) {
	if member.UserID != 0 {
		m.remove(member.UserID)
	}
	delete(m.byEmail, normalizeEmail(member.Email))
}

func (m *memberSet) replace(members []models.NetworkMember) {
	m.byID = make(map[int64]models.NetworkMember, len(members))
	m.byEmail = make(map[string]struct{}, len(members))
	for _, member := range members {
		m.add(member)
	}
}

// Cache holds each user's network membership. One goroutine (Run) owns every set;
// refreshes are the only bulk writers and are collapsed per user.
type Cache struct {
	source Source
	logger *zap.Logger
	group  singleflight.Group

	ops     chan func()
	stopped chan struct{}

	// owned by the Run goroutine
	owners map[int64]*memberSet
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewCache(source Source, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		source:  source,
		logger:  logger.Named("network.cache"),
		ops:     make(chan func()),
		stopped: make(chan struct{}),
		owners:  make(map[int64]*memberSet),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run applies operations until ctx is done.
func (c *Cache) Run(ctx context.Context) {
	defer close(c.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-c.ops:
			op()
		}
	}
}

// Stopped is closed once Run has returned.
func (c *Cache) Stopped() <-chan struct{} {
	return c.stopped
}

func (c *Cache) do(ctx context.Context, op func()) error {
	done := make(chan struct{})
	select {
	case c.ops <- func() { op(); close(done) }:
	case <-c.stopped:
		return ErrCacheStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// set must only be called from inside an op.
func (c *Cache) set(owner int64) *memberSet {
	m, ok := c.owners[owner]
	if !ok {
		m = newMemberSet()
		c.owners[owner] = m
	}
	return m
}

// lookup is set for read-only ops; unknown owners are not recorded.
func (c *Cache) lookup(owner int64) *memberSet {
	if m, ok := c.owners[owner]; ok {
		return m
	}
	return absent
}

// begin registers a background task. It reports false once Shutdown has started.
func (c *Cache) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	return true
}

func flightKey(owner int64) string {
	return strconv.FormatInt(owner, 10)
}

// Refresh reloads owner's members from the source. Concurrent calls for the same owner
// share one source request, which runs and is applied under the cache lifetime: a
// caller whose ctx ends early stops waiting but the refresh still lands. On failure
// the previous members stay in place.
func (c *Cache) Refresh(ctx context.Context, owner int64) error {
	err := c.do(ctx, func() {
		m := c.set(owner)
		if m.state == StateEmpty {
			m.state = StateLoading
		}
	})
	if err != nil {
		return err
	}

	ch := c.group.DoChan(flightKey(owner), func() (interface{}, error) {
		return nil, c.load(owner)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// load fetches owner's members and applies them unless a local write happened
// after the fetch started.
func (c *Cache) load(owner int64) error {
	if !c.begin() {
		return ErrCacheStopped
	}
	defer c.wg.Done()

	var gen uint64
	if err := c.do(c.ctx, func() { gen = c.set(owner).gen }); err != nil {
		return err
	}

	members, err := c.source.Members(c.ctx, owner)
	metrics.ObserveRefresh(err)
	if err != nil {
		c.logger.Warn("network refresh failed", zap.Int64("owner", owner), zap.Error(err))
		_ = c.do(context.Background(), func() {
			m := c.set(owner)
			if m.state == StateLoading {
				m.state = StateEmpty
			}
		})
		return err
	}

	stale := false
	err = c.do(context.Background(), func() {
		m := c.set(owner)
		if m.gen != gen {
			stale = true
			return
		}
		m.replace(members)
		m.refreshedAt = c.now()
		if m.state != StateReady {
			m.state = StateReady
			close(m.ready)
		}
	})
	if err != nil {
		return err
	}
	if stale {
		c.logger.Debug("network refresh superseded by local write", zap.Int64("owner", owner))
		return nil
	}
	c.logger.Debug("network refreshed", zap.Int64("owner", owner), zap.Int("count", len(members)))
	return nil
}

// RefreshAsync starts a refresh bound to the cache lifetime and returns immediately.
// It does nothing once Shutdown has started.
func (c *Cache) RefreshAsync(owner int64) {
	if !c.begin() {
		return
	}
	go func() {
		defer c.wg.Done()
		_ = c.Refresh(c.ctx, owner)
	}()
}

// resync invalidates refreshes that read the source before a local write and
// starts a fresh one.
func (c *Cache) resync(ctx context.Context, owner int64) error {
	if err := c.do(ctx, func() { c.set(owner).gen++ }); err != nil {
		return err
	}
	c.group.Forget(flightKey(owner))
	c.RefreshAsync(owner)
	return nil
}

// Contains reports whether member is in owner's network. Before the first refresh
// completes the answer may be a false negative; state says so.
func (c *Cache) Contains(ctx context.Context, owner, member int64) (bool, State, error) {
	var (
		found bool
		state State
	)
	err := c.do(ctx, func() {
		m := c.lookup(owner)
		_, found = m.byID[member]
		state = m.state
	})
	return found, state, err
}

// ContainsEmail is Contains keyed by email, compared case-insensitively.
func (c *Cache) ContainsEmail(ctx context.Context, owner int64, email string) (bool, State, error) {
	var (
		found bool
		state State
	)
	err := c.do(ctx, func() {
		m := c.lookup(owner)
		_, found = m.byEmail[normalizeEmail(email)]
		state = m.state
	})
	return found, state, err
}

// Members returns owner's members ordered by user id. Members known only by email are omitted.
func (c *Cache) Members(ctx context.Context, owner int64) ([]models.NetworkMember, State, error) {
	var (
		out   []models.NetworkMember
		state State
	)
	err := c.do(ctx, func() {
		m := c.lookup(owner)
		out = make([]models.NetworkMember, 0, len(m.byID))
		for _, member := range m.byID {
			out = append(out, member)
		}
		state = m.state
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, state, err
}

// WaitReady blocks until owner's first refresh has completed or ctx is done.
func (c *Cache) WaitReady(ctx context.Context, owner int64) error {
	var ready chan struct{}
	if err := c.do(ctx, func() { ready = c.set(owner).ready }); err != nil {
		return err
	}
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Add inserts member locally, persists it when the source supports writes, then
// schedules a refresh so the set converges on the source. A failed write undoes
// the local insert and still resyncs.
func (c *Cache) Add(ctx context.Context, owner int64, member models.NetworkMember) error {
	if err := c.do(ctx, func() {
		m := c.set(owner)
		m.add(member)
		m.gen++
	}); err != nil {
		return err
	}
	if w, ok := c.source.(Writer); ok {
		if err := w.AddMember(ctx, owner, member); err != nil {
			_ = c.do(context.Background(), func() { c.set(owner).drop(member) })
			_ = c.resync(context.Background(), owner)
			return err
		}
	}
	return c.resync(ctx, owner)
}

// Remove drops memberID from the source when it supports deletes, then locally.
func (c *Cache) Remove(ctx context.Context, owner, memberID int64) error {
	r, ok := c.source.(Remover)
	if ok {
		if err := r.RemoveMember(ctx, owner, memberID); err != nil {
			return err
		}
	}
	if err := c.do(ctx, func() { c.set(owner).remove(memberID) }); err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return c.resync(ctx, owner)
}

// Shutdown cancels running refreshes and waits for them.
func (c *Cache) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
