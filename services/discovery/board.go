package discovery

import (
	"context"
	"time"

	"circl/models"
)

// Status is the display state of a resource list view.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Entry is what a resource list view shows. Domain, Keyword and Location describe the
// criteria that produced Resources.
type Entry struct {
	View      string            `json:"view"`
	Domain    models.QuizDomain `json:"domain"`
	Keyword   string            `json:"keyword"`
	Location  string            `json:"location"`
	Resources []models.Resource `json:"resources"`
	Status    Status            `json:"status"`
	Failure   FailureKind       `json:"failure,omitempty"`
	Seq       uint64            `json:"seq"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (e *Entry) clone() Entry {
	out := *e
	out.Resources = append([]models.Resource(nil), e.Resources...)
	if out.Resources == nil {
		out.Resources = []models.Resource{}
	}
	return out
}

// Board owns the published state of every view. A single goroutine (Run) applies all
// reads and writes in arrival order, so the last publish for a view wins.
type Board struct {
	ops     chan func()
	stopped chan struct{}

	// owned by the Run goroutine
	entries map[string]*Entry
	seq     uint64
	now     func() time.Time
}

func NewBoard() *Board {
	return &Board{
		ops:     make(chan func()),
		stopped: make(chan struct{}),
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Run applies operations until ctx is done.
func (b *Board) Run(ctx context.Context) {
	defer close(b.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-b.ops:
			op()
		}
	}
}

// Stopped is closed once Run has returned.
func (b *Board) Stopped() <-chan struct{} {
	return b.stopped
}

func (b *Board) do(ctx context.Context, op func()) error {
	done := make(chan struct{})
	select {
	case b.ops <- func() { op(); close(done) }:
	case <-b.stopped:
		return ErrBoardStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// Claim creates a loading entry for view if it has none. first reports whether this
// call created it; an existing entry is returned unchanged.
func (b *Board) Claim(ctx context.Context, view string, answers models.QuizAnswers) (entry Entry, first bool, err error) {
	err = b.do(ctx, func() {
		e, ok := b.entries[view]
		if !ok {
			e = &Entry{
				View:      view,
				Domain:    answers.Domain(),
				Keyword:   answers.Keyword(),
				Location:  answers.Location(),
				Resources: []models.Resource{},
				Status:    StatusLoading,
				UpdatedAt: b.now(),
			}
			b.entries[view] = e
			first = true
		}
		entry = e.clone()
	})
	return entry, first, err
}

// MarkLoading flags view as loading without touching its published resources.
func (b *Board) MarkLoading(ctx context.Context, view string) (Entry, error) {
	var entry Entry
	err := b.do(ctx, func() {
		e, ok := b.entries[view]
		if !ok {
			e = &Entry{View: view, Resources: []models.Resource{}}
			b.entries[view] = e
		}
		e.Status = StatusLoading
		e.UpdatedAt = b.now()
		entry = e.clone()
	})
	return entry, err
}

// Publish records the result of one fetch. A failed result only updates status and
// failure; the previously published resources stay in place.
func (b *Board) Publish(ctx context.Context, view string, res Result) (Entry, error) {
	var entry Entry
	err := b.do(ctx, func() {
		e, ok := b.entries[view]
		if !ok {
			e = &Entry{View: view, Resources: []models.Resource{}}
			b.entries[view] = e
		}
		b.seq++
		e.Seq = b.seq
		e.UpdatedAt = b.now()
		if res.OK() {
			e.Domain = res.Domain
			e.Keyword = res.Keyword
			e.Location = res.Location
			e.Resources = append([]models.Resource{}, res.Resources...)
			e.Status = StatusReady
			e.Failure = FailureNone
		} else {
			e.Status = StatusFailed
			e.Failure = res.Failure
		}
		entry = e.clone()
	})
	return entry, err
}

// Get returns a copy of the view's entry.
func (b *Board) Get(ctx context.Context, view string) (Entry, error) {
	var (
		entry Entry
		found bool
	)
	err := b.do(ctx, func() {
		if e, ok := b.entries[view]; ok {
			entry = e.clone()
			found = true
		}
	})
	if err != nil {
		return Entry{}, err
	}
	if !found {
		return Entry{}, ErrViewNotFound
	}
	return entry, nil
}
