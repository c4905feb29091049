package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
	audit "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit/store/memory"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/circuit"
)

type published struct {
	key     string
	headers map[string]string
}

// fakeSink records publishes and fails for keys listed in failFor.
type fakeSink struct {
	mu      sync.Mutex
	sent    []published
	failFor map[string]bool
	failAll bool
}

func (f *fakeSink) Publish(_ context.Context, key string, _ []byte, headers map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failFor[key] {
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, published{key: key, headers: headers})
	return nil
}

type RelaySuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.InMemoryStore
	sink    *fakeSink
	metrics *Metrics
	logger  *slog.Logger
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewInMemoryStore()
	s.sink = &fakeSink{failFor: map[string]bool{}}
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RelaySuite) appendEvent(customerID domain.CustomerID, action audit.AuditEvent) {
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		ID:         domain.NewEventID(),
		Category:   action.Category(),
		Timestamp:  time.Now(),
		CustomerID: customerID,
		Action:     string(action),
	}))
}

func (s *RelaySuite) newRelay(opts ...Option) *Relay {
	opts = append([]Option{WithMetrics(s.metrics), WithMaxAttempts(2)}, opts...)
	return NewRelay(s.store, s.sink, s.logger, opts...)
}

func (s *RelaySuite) TestPublishesPendingInOrder() {
	c := domain.NewCustomerID()
	s.appendEvent(c, audit.EventCustomerCreated)
	s.appendEvent(c, audit.EventCustomerActivated)

	n, err := s.newRelay().ProcessOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	s.Require().Len(s.sink.sent, 2)
	s.Equal(c.String(), s.sink.sent[0].key)
	s.Equal("customer.created", s.sink.sent[0].headers["event_type"])
	s.Equal("customer.activated", s.sink.sent[1].headers["event_type"])

	pending, err := s.store.Pending(s.ctx, 10, 2)
	s.Require().NoError(err)
	s.Empty(pending)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Published))
}

func (s *RelaySuite) TestFailureHoldsBackLaterEntriesForSameCustomer() {
	failing := domain.NewCustomerID()
	healthy := domain.NewCustomerID()
	s.sink.failFor[failing.String()] = true

	s.appendEvent(failing, audit.EventCustomerCreated)
	s.appendEvent(healthy, audit.EventCustomerCreated)
	s.appendEvent(failing, audit.EventCustomerSuspended)

	n, err := s.newRelay().ProcessOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Require().Len(s.sink.sent, 1)
	s.Equal(healthy.String(), s.sink.sent[0].key)

	pending, err := s.store.Pending(s.ctx, 10, 2)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(1, pending[0].Attempts)
	s.Equal(0, pending[1].Attempts, "held-back entry must not burn an attempt")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Failures))
}

func (s *RelaySuite) TestEntriesStopAfterMaxAttempts() {
	c := domain.NewCustomerID()
	s.sink.failAll = true
	s.appendEvent(c, audit.EventCustomerBlocked)
	relay := s.newRelay(WithBreaker(circuit.New("test", circuit.WithFailureThreshold(100))))

	for range 3 {
		_, err := relay.ProcessOnce(s.ctx)
		s.Require().NoError(err)
	}

	pending, err := s.store.Pending(s.ctx, 10, 2)
	s.Require().NoError(err)
	s.Empty(pending)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Failures))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Exhausted))
}

func (s *RelaySuite) TestOpenBreakerProbesWithSingleEntry() {
	breaker := circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1))
	relay := s.newRelay(WithBreaker(breaker), WithMaxAttempts(10))

	s.sink.failAll = true
	s.appendEvent(domain.NewCustomerID(), audit.EventCustomerCreated)
	_, err := relay.ProcessOnce(s.ctx)
	s.Require().NoError(err)
	s.True(breaker.IsOpen())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.BreakerOpen))

	s.sink.failAll = false
	s.appendEvent(domain.NewCustomerID(), audit.EventCustomerCreated)
	s.appendEvent(domain.NewCustomerID(), audit.EventCustomerCreated)

	n, err := relay.ProcessOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n, "open breaker sends one probe")
	s.False(breaker.IsOpen())
	s.Equal(0.0, testutil.ToFloat64(s.metrics.BreakerOpen))

	n, err = relay.ProcessOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *RelaySuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.appendEvent(domain.NewCustomerID(), audit.EventCustomerCreated)

	done := make(chan error, 1)
	go func() { done <- s.newRelay(WithInterval(10 * time.Millisecond)).Run(ctx) }()

	s.Eventually(func() bool {
		s.sink.mu.Lock()
		defer s.sink.mu.Unlock()
		return len(s.sink.sent) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("relay did not stop")
	}
}

func (s *RelaySuite) TestLogSinkAcceptsEverything() {
	s.appendEvent(domain.NewCustomerID(), audit.EventCustomerCreated)
	relay := NewRelay(s.store, NewLogSink(s.logger), s.logger)

	n, err := relay.ProcessOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}
