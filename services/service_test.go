package services

import (
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// slowService takes a while to clean up after Stop.
type slowService struct {
	quit     chan struct{}
	cleanup  time.Duration
	finished atomic.Bool
	err      error
}

func newSlowService(cleanup time.Duration) *slowService {
	return &slowService{quit: make(chan struct{}), cleanup: cleanup}
}

func (s *slowService) ID() string {
	return "slow"
}

func (s *slowService) Run() error {
	<-s.quit
	time.Sleep(s.cleanup)
	s.finished.Store(true)
	return s.err
}

func (s *slowService) Stop() {
	close(s.quit)
}

// failingService returns from Run straight away.
type failingService struct{}

func (s *failingService) ID() string {
	return "failing"
}

func (s *failingService) Run() error {
	return errors.New("no hardware")
}

func TestRunServicesWaitsForStop(t *testing.T) {
	slow := newSlowService(50 * time.Millisecond)
	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGTERM

	err := runServices([]Service{slow}, signals, time.Second)
	assert.NoError(t, err)
	assert.True(t, slow.finished.Load())
}

func TestRunServicesStopsOthersOnError(t *testing.T) {
	slow := newSlowService(10 * time.Millisecond)
	err := runServices([]Service{slow, &failingService{}}, make(chan os.Signal), time.Second)
	assert.EqualError(t, err, "running service failing: no hardware")
	assert.True(t, slow.finished.Load())
}

func TestRunServicesTimeout(t *testing.T) {
	slow := newSlowService(time.Second)
	signals := make(chan os.Signal, 1)
	signals <- os.Interrupt

	start := time.Now()
	err := runServices([]Service{slow}, signals, 20*time.Millisecond)
	assert.EqualError(t, err, "1 services still running after 20ms")
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, slow.finished.Load())
}
