package discovery

import (
	"context"
	"sync"

	"circl/models"

	"go.uber.org/zap"
)

// DiscoveryService runs quiz-driven resource discovery for list views.
type DiscoveryService interface {
	// Appear starts a fetch the first time a view is shown and returns its current entry.
	Appear(ctx context.Context, view string, answers models.QuizAnswers) (Entry, error)
	// Submit always starts a fetch. The channel yields the entry as published, then closes.
	Submit(ctx context.Context, view string, answers models.QuizAnswers) (<-chan Entry, error)
	// View returns the current entry of a view.
	View(ctx context.Context, view string) (Entry, error)
	// Discover fetches without publishing.
	Discover(ctx context.Context, answers models.QuizAnswers) Result
}

// DefaultDiscoveryService is the production implementation. Fetches run as tasks bound
// to the service lifetime; Shutdown cancels and waits for them.
type DefaultDiscoveryService struct {
	fetcher ResourceFetcher
	board   *Board
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDefaultDiscoveryService(fetcher ResourceFetcher, board *Board, logger *zap.Logger) *DefaultDiscoveryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DefaultDiscoveryService{
		fetcher: fetcher,
		board:   board,
		logger:  logger.Named("discovery"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *DefaultDiscoveryService) Appear(ctx context.Context, view string, answers models.QuizAnswers) (Entry, error) {
	entry, first, err := s.board.Claim(ctx, view, answers)
	if err != nil {
		return Entry{}, err
	}
	if first {
		if _, err := s.start(view, answers); err != nil {
			return Entry{}, err
		}
	}
	return entry, nil
}

func (s *DefaultDiscoveryService) Submit(ctx context.Context, view string, answers models.QuizAnswers) (<-chan Entry, error) {
	if _, err := s.board.MarkLoading(ctx, view); err != nil {
		return nil, err
	}
	return s.start(view, answers)
}

func (s *DefaultDiscoveryService) View(ctx context.Context, view string) (Entry, error) {
	return s.board.Get(ctx, view)
}

func (s *DefaultDiscoveryService) Discover(ctx context.Context, answers models.QuizAnswers) Result {
	return s.fetcher.Fetch(ctx, answers)
}

// begin registers a fetch task. It reports false once Shutdown has started.
func (s *DefaultDiscoveryService) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// start runs one fetch and publishes its result exactly once, unless the service is
// shutting down first.
func (s *DefaultDiscoveryService) start(view string, answers models.QuizAnswers) (<-chan Entry, error) {
	if !s.begin() {
		return nil, ErrServiceStopped
	}
	out := make(chan Entry, 1)
	go func() {
		defer s.wg.Done()
		defer close(out)

		res := s.fetcher.Fetch(s.ctx, answers)
		if s.ctx.Err() != nil {
			s.logger.Debug("fetch abandoned on shutdown", zap.String("view", view))
			return
		}
		entry, err := s.board.Publish(s.ctx, view, res)
		if err != nil {
			s.logger.Warn("publish failed", zap.String("view", view), zap.Error(err))
			return
		}
		out <- entry
	}()
	return out, nil
}

// Shutdown cancels in-flight fetches and waits for them to finish or ctx to expire.
func (s *DefaultDiscoveryService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
