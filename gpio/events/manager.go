package events

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/lunahome/luna/gpio"
	"github.com/pkg/errors"
)

const DefaultStartTimeout = 5 * time.Second

// Manager keeps at most one generator per pin. A pin keeps its registry
// entry after its generator is stopped, so it cannot be registered again.
type Manager struct {
	// PollInterval and StartTimeout must be set before the first Register.
	PollInterval time.Duration
	StartTimeout time.Duration

	driver     gpio.Driver
	mu         sync.Mutex
	generators map[gpio.Pin]*Generator
	pending    map[gpio.Pin]bool
}

func NewManager(driver gpio.Driver) *Manager {
	return &Manager{
		PollInterval: DefaultPollInterval,
		StartTimeout: DefaultStartTimeout,
		driver:       driver,
		generators:   map[gpio.Pin]*Generator{},
		pending:      map[gpio.Pin]bool{},
	}
}

// Register starts polling the pin described by config and waits for the
// polling loop to come up. The wait is bounded by ctx, or by StartTimeout
// when ctx has no deadline.
func (m *Manager) Register(ctx context.Context, config gpio.Config) error {
	pin := config.Pin
	if !gpio.Usable(m.driver) {
		return errors.Wrapf(gpio.ErrDriverUnavailable, "registering pin %d", int(pin))
	}
	if !m.driver.IsValidPin(pin) {
		log.Printf("Warning: %s is not a valid pin", pin)
		return errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}

	if !m.reserve(pin) {
		return errors.Wrapf(gpio.ErrDuplicate, "pin %d", int(pin))
	}
	g, err := NewGenerator(m.driver, config, WithPollInterval(m.PollInterval))
	if err != nil {
		m.release(pin)
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.StartTimeout)
		defer cancel()
	}
	if err := g.WaitStarted(ctx); err != nil {
		g.Stop()
		m.releaseWhenDone(g)
		return err
	}

	m.mu.Lock()
	delete(m.pending, pin)
	m.generators[pin] = g
	m.mu.Unlock()
	return nil
}

func (m *Manager) reserve(pin gpio.Pin) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.generators[pin]; exists || m.pending[pin] {
		return false
	}
	m.pending[pin] = true
	return true
}

func (m *Manager) release(pin gpio.Pin) {
	m.mu.Lock()
	delete(m.pending, pin)
	m.mu.Unlock()
}

// releaseWhenDone keeps the pin reserved until a generator that failed to
// start has stopped touching it.
func (m *Manager) releaseWhenDone(g *Generator) {
	select {
	case <-g.Done():
		m.release(g.config.Pin)
	default:
		go func() {
			<-g.Done()
			m.release(g.config.Pin)
		}()
	}
}

// Stop asks the generator of pin to stop polling. The registry entry stays.
func (m *Manager) Stop(pin gpio.Pin) error {
	if !gpio.Usable(m.driver) || !m.driver.IsValidPin(pin) {
		return errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	g, ok := m.Generator(pin)
	if !ok {
		return errors.Wrapf(gpio.ErrNotRegistered, "pin %d", int(pin))
	}
	g.Stop()
	log.Printf("Stopping pin polling for %s", pin)
	return nil
}

// StopAll stops every registered pin.
func (m *Manager) StopAll() {
	for _, pin := range m.Pins() {
		if err := m.Stop(pin); err != nil {
			log.Printf("Error stopping %s: %s", pin, err)
		}
	}
}

// Shutdown stops every pin and waits for the polling loops to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.StopAll()
	m.mu.Lock()
	generators := make([]*Generator, 0, len(m.generators))
	for _, g := range m.generators {
		generators = append(generators, g)
	}
	m.mu.Unlock()

	for _, g := range generators {
		if err := g.Wait(ctx); err != nil {
			return errors.Wrap(err, "waiting for pin polling to stop")
		}
	}
	return nil
}

// Generator returns the generator registered for pin.
func (m *Manager) Generator(pin gpio.Pin) (*Generator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.generators[pin]
	return g, ok
}

// Registered reports whether pin is currently being polled.
func (m *Manager) Registered(pin gpio.Pin) bool {
	g, ok := m.Generator(pin)
	return ok && g.Registered()
}

// Pins lists the pins with a registry entry in ascending order.
func (m *Manager) Pins() []gpio.Pin {
	m.mu.Lock()
	pins := make([]gpio.Pin, 0, len(m.generators))
	for pin := range m.generators {
		pins = append(pins, pin)
	}
	m.mu.Unlock()
	sort.Slice(pins, func(i, j int) bool { return pins[i] < pins[j] })
	return pins
}
