package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"circl/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startBoard(t *testing.T) *Board {
	t.Helper()
	b := NewBoard()
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-b.Stopped()
	})
	return b
}

func resultFor(a models.QuizAnswers, names ...string) Result {
	res := Result{Domain: a.Domain(), Keyword: a.Keyword(), Location: a.Location(), Resources: []models.Resource{}}
	for _, n := range names {
		res.Resources = append(res.Resources, models.Resource{DisplayName: models.DisplayName{Text: n}})
	}
	return res
}

// gatedFetcher holds every fetch until the test releases its keyword.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	results map[string]Result
	calls   atomic.Int32
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: map[string]chan struct{}{}, results: map[string]Result{}}
}

func (g *gatedFetcher) gate(keyword string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[keyword]
	if !ok {
		ch = make(chan struct{})
		g.gates[keyword] = ch
	}
	return ch
}

func (g *gatedFetcher) respond(a models.QuizAnswers, res Result) {
	g.mu.Lock()
	g.results[a.Keyword()] = res
	g.mu.Unlock()
}

func (g *gatedFetcher) release(a models.QuizAnswers) {
	close(g.gate(a.Keyword()))
}

func (g *gatedFetcher) Fetch(ctx context.Context, a models.QuizAnswers) Result {
	g.calls.Add(1)
	select {
	case <-g.gate(a.Keyword()):
	case <-ctx.Done():
		res := resultFor(a)
		res.Failure = FailureTransport
		res.Err = ctx.Err()
		return res
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.results[a.Keyword()]
}

func newService(t *testing.T, f ResourceFetcher) *DefaultDiscoveryService {
	t.Helper()
	svc := NewDefaultDiscoveryService(f, startBoard(t), zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc
}

func recv(t *testing.T, ch <-chan Entry) Entry {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "fetch finished without publishing")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for publish")
		return Entry{}
	}
}

func TestSubmit_LastCallbackWins(t *testing.T) {
	f := newGatedFetcher()
	svc := newService(t, f)
	ctx := context.Background()

	first := models.SalesQuizAnswers{LocationPref: "Miami", SalesModel: "B2B", SalesApproach: "outbound"}
	second := models.SalesQuizAnswers{LocationPref: "Boston", SalesModel: "B2C", SalesApproach: "inbound"}
	f.respond(first, resultFor(first, "Miami Sales Co"))
	f.respond(second, resultFor(second, "Boston Closers", "Beacon Reps"))

	chFirst, err := svc.Submit(ctx, "view-1", first)
	require.NoError(t, err)
	chSecond, err := svc.Submit(ctx, "view-1", second)
	require.NoError(t, err)

	// The second fetch completes first; the first fetch's callback runs last.
	f.release(second)
	e2 := recv(t, chSecond)
	assert.Equal(t, second.Keyword(), e2.Keyword)
	assert.Len(t, e2.Resources, 2)

	f.release(first)
	e1 := recv(t, chFirst)
	assert.Greater(t, e1.Seq, e2.Seq)

	final, err := svc.View(ctx, "view-1")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, final.Status)
	assert.Equal(t, first.Keyword(), final.Keyword)
	require.Len(t, final.Resources, 1)
	assert.Equal(t, "Miami Sales Co", final.Resources[0].ID())
}

func TestSubmit_FailureKeepsPublishedList(t *testing.T) {
	f := newGatedFetcher()
	svc := newService(t, f)
	ctx := context.Background()

	good := models.RealEstateQuizAnswers{LocationPref: "San Diego", SpaceType: "office", LeaseOrBuy: "lease"}
	bad := models.RealEstateQuizAnswers{LocationPref: "Nowhere", SpaceType: "retail", LeaseOrBuy: "buy"}
	f.respond(good, resultFor(good, "Harbor Offices"))
	failed := resultFor(bad)
	failed.Failure = FailureDecode
	f.respond(bad, failed)
	f.release(good)
	f.release(bad)

	ch, err := svc.Submit(ctx, "re", good)
	require.NoError(t, err)
	recv(t, ch)

	ch, err = svc.Submit(ctx, "re", bad)
	require.NoError(t, err)
	e := recv(t, ch)

	assert.Equal(t, StatusFailed, e.Status)
	assert.Equal(t, FailureDecode, e.Failure)
	assert.Equal(t, good.Keyword(), e.Keyword)
	require.Len(t, e.Resources, 1)
	assert.Equal(t, "Harbor Offices", e.Resources[0].ID())
}

func TestSubmit_FirstFetchFailureLeavesEmptyList(t *testing.T) {
	f := newGatedFetcher()
	svc := newService(t, f)

	a := models.CSRQuizAnswers{LocationPref: "Denver"}
	failed := resultFor(a)
	failed.Failure = FailureTransport
	f.respond(a, failed)
	f.release(a)

	ch, err := svc.Submit(context.Background(), "csr", a)
	require.NoError(t, err)
	e := recv(t, ch)

	assert.Equal(t, StatusFailed, e.Status)
	assert.NotNil(t, e.Resources)
	assert.Empty(t, e.Resources)
}

func TestAppear_FetchesOnlyOnFirstAppearance(t *testing.T) {
	f := newGatedFetcher()
	svc := newService(t, f)
	ctx := context.Background()

	a := models.ConsultantQuizAnswers{LocationPref: "Austin", AreaOfFocus: "Growth"}
	f.respond(a, resultFor(a, "Growth Partners"))
	f.release(a)

	e, err := svc.Appear(ctx, "consult", a)
	require.NoError(t, err)
	assert.Equal(t, StatusLoading, e.Status)
	assert.Equal(t, a.Keyword(), e.Keyword)

	require.Eventually(t, func() bool {
		got, err := svc.View(ctx, "consult")
		return err == nil && got.Status == StatusReady
	}, 2*time.Second, 10*time.Millisecond)

	e, err = svc.Appear(ctx, "consult", a)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, e.Status)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestView_Unknown(t *testing.T) {
	svc := newService(t, newGatedFetcher())

	_, err := svc.View(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestShutdown_AbandonsInFlightFetch(t *testing.T) {
	f := newGatedFetcher()
	board := startBoard(t)
	svc := NewDefaultDiscoveryService(f, board, zap.NewNop())

	a := models.HRQuizAnswers{LocationPref: "Chicago", HRNeed: "payroll"}
	ch, err := svc.Submit(context.Background(), "hr", a)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	_, ok := <-ch
	assert.False(t, ok)

	e, err := board.Get(context.Background(), "hr")
	require.NoError(t, err)
	assert.Equal(t, StatusLoading, e.Status)
	assert.Zero(t, e.Seq)
}

func TestSubmit_AfterShutdownIsRejected(t *testing.T) {
	f := newGatedFetcher()
	svc := newService(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	a := models.HRQuizAnswers{LocationPref: "Chicago", HRNeed: "payroll"}
	_, err := svc.Submit(context.Background(), "hr", a)
	assert.ErrorIs(t, err, ErrServiceStopped)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestBoard_StoppedRejectsOperations(t *testing.T) {
	b := NewBoard()
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	cancel()
	<-b.Stopped()

	_, err := b.Publish(context.Background(), "v", Result{})
	assert.ErrorIs(t, err, ErrBoardStopped)
}

func TestDiscover_DoesNotPublish(t *testing.T) {
	f := newGatedFetcher()
	svc := newService(t, f)
	a := models.MarketingQuizAnswers{LocationPref: "NYC", MarketingNeed: "SEO"}
	f.respond(a, resultFor(a, "Rank Co"))
	f.release(a)

	res := svc.Discover(context.Background(), a)

	require.Len(t, res.Resources, 1)
	_, err := svc.View(context.Background(), a.Keyword())
	assert.ErrorIs(t, err, ErrViewNotFound)
}
