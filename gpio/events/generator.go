// Package events polls gpio pins and reports logical edge transitions.
//
// A Generator owns the polling loop of a single pin. A Manager keeps one
// Generator per pin and stops them on request.
package events

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lunahome/luna/gpio"
	"github.com/pkg/errors"
)

const (
	DefaultPollInterval = time.Millisecond
	// FaultLogEvery throttles logging of consecutive sample faults.
	FaultLogEvery = 1000
)

type Option func(*Generator)

// WithPollInterval sets the delay between samples.
func WithPollInterval(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.interval = d
		}
	}
}

// Stats counts the work done by a generator.
type Stats struct {
	Samples uint64
	Events  uint64
	Faults  uint64
}

// Generator polls one pin and dispatches change events to its handler.
type Generator struct {
	driver   gpio.Driver
	config   gpio.Config
	interval time.Duration
	physical int

	ctx    context.Context
	cancel context.CancelFunc

	// held for the lifetime of the polling loop
	guard      sync.Mutex
	registered atomic.Bool

	ready    chan struct{}
	startErr error
	done     chan struct{}

	// previous sample, owned by the polling goroutine
	prevState gpio.State
	prevValue bool
	failing   int

	samples atomic.Uint64
	events  atomic.Uint64
	faults  atomic.Uint64
}

// NewGenerator starts a goroutine that initializes the pin and then polls
// it. It fails only when the driver is missing or uninitialized. Any other
// problem leaves the generator inert: it never polls and WaitStarted reports
// the cause.
func NewGenerator(driver gpio.Driver, config gpio.Config, opts ...Option) (*Generator, error) {
	if !gpio.Usable(driver) {
		return nil, errors.Wrapf(gpio.ErrDriverUnavailable, "generator for pin %d", int(config.Pin))
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &Generator{
		driver:   driver,
		config:   config,
		interval: DefaultPollInterval,
		ctx:      ctx,
		cancel:   cancel,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	go g.run()
	return g, nil
}

func (g *Generator) run() {
	if err := g.init(); err != nil {
		g.abort(err)
		return
	}
	g.poll()
}

// abort leaves the generator permanently inert.
func (g *Generator) abort(err error) {
	g.startErr = err
	close(g.done)
	close(g.ready)
}

func (g *Generator) init() error {
	pin := g.config.Pin
	if !gpio.Usable(g.driver) {
		log.Printf("Warning: driver not ready, not polling %s", pin)
		return errors.Wrapf(gpio.ErrDriverUnavailable, "pin %d", int(pin))
	}
	if !g.driver.IsValidPin(pin) {
		log.Printf("Warning: %s is not a valid pin for %s", pin, g.driver.Name())
		return errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	if !g.config.Mode.Pollable() {
		log.Printf("Warning: only input/output pins can be polled, %s is %s", pin, g.config.Mode)
		return errors.Wrapf(gpio.ErrUnsupportedMode, "pin %d is %s", int(pin), g.config.Mode)
	}
	if err := g.driver.SetPinMode(pin, g.config.Mode); err != nil {
		log.Printf("Error: failed to set %s to %s: %s", pin, g.config.Mode, err)
		return errors.Wrapf(gpio.ErrSetMode, "pin %d: %s", int(pin), err)
	}
	// stopped while the driver was setting the mode
	if g.ctx.Err() != nil {
		return errors.Wrapf(gpio.ErrStopped, "pin %d", int(pin))
	}

	if g.config.Mode == gpio.Output {
		if err := g.driver.DigitalWrite(pin, gpio.Off.Value()); err != nil {
			log.Printf("Error: failed to drive %s off: %s", pin, err)
			return errors.Wrapf(gpio.ErrSetMode, "pin %d: %s", int(pin), err)
		}
	}
	// sentinel baseline, not a hardware read
	g.prevState, g.prevValue = gpio.Off, true

	if info, err := g.driver.PinMetadata(pin); err == nil {
		g.physical = info.Physical
	} else {
		g.physical = gpio.Physical(pin)
	}
	return nil
}

func (g *Generator) poll() {
	if !g.guard.TryLock() {
		log.Printf("Warning: %s is already being polled", g.config.Pin)
		return
	}
	if g.ctx.Err() != nil {
		g.guard.Unlock()
		g.abort(errors.Wrapf(gpio.ErrStopped, "pin %d", int(g.config.Pin)))
		return
	}
	g.registered.Store(true)
	close(g.ready)
	log.Printf("Started %s pin polling for %s", g.config.Mode, g.config.Pin)

	defer func() {
		g.registered.Store(false)
		log.Printf("Polling for %s has been stopped", g.config.Pin)
		g.guard.Unlock()
		close(g.done)
	}()

	timer := time.NewTimer(g.interval)
	defer timer.Stop()
	for {
		g.sample()
		if g.ctx.Err() != nil {
			return
		}
		select {
		case <-g.ctx.Done():
			return
		case <-timer.C:
			timer.Reset(g.interval)
		}
	}
}

func (g *Generator) sample() {
	value, err := g.driver.DigitalRead(g.config.Pin)
	if err != nil {
		g.fault(err)
		return
	}
	if g.failing > 0 {
		log.Printf("%s recovered after %d failed reads", g.config.Pin, g.failing)
		g.failing = 0
	}
	g.samples.Add(1)

	curr := gpio.StateOf(value)
	if g.config.Filter.Matches(g.prevState, curr) {
		g.dispatch(gpio.ChangeEvent{
			Pin:           g.config.Pin,
			Physical:      g.physical,
			State:         curr,
			Value:         value,
			Mode:          g.config.Mode,
			Filter:        g.config.Filter,
			Previous:      g.prevState,
			PreviousValue: g.prevValue,
			Time:          time.Now(),
		})
	}
	g.prevState, g.prevValue = curr, value
}

func (g *Generator) fault(err error) {
	g.faults.Add(1)
	g.failing++
	if g.failing == 1 || g.failing%FaultLogEvery == 0 {
		log.Printf("Error: reading %s failed (%d in a row): %s", g.config.Pin, g.failing, err)
	}
}

func (g *Generator) dispatch(ev gpio.ChangeEvent) {
	g.events.Add(1)
	if g.config.OnEvent == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.faults.Add(1)
			log.Printf("Error: event handler for %s panicked: %v", g.config.Pin, r)
		}
	}()
	g.config.OnEvent(ev)
}

// Stop asks the polling loop to exit after its current cycle. It does not
// wait; use Done or Wait for that. Safe to call more than once.
func (g *Generator) Stop() {
	g.cancel()
}

// Registered is true while the polling loop is running.
func (g *Generator) Registered() bool {
	return g.registered.Load()
}

// WaitStarted blocks until polling has started or initialization failed,
// returning the initialization error. It gives up when ctx is done.
func (g *Generator) WaitStarted(ctx context.Context) error {
	select {
	case <-g.ready:
		return g.startErr
	case <-ctx.Done():
		return errors.Wrapf(gpio.ErrStartTimeout, "pin %d: %s", int(g.config.Pin), ctx.Err())
	}
}

// Done is closed once the polling loop has exited, or immediately for a
// generator that never started.
func (g *Generator) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the polling loop has exited.
func (g *Generator) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Generator) Config() gpio.Config {
	return g.config
}

func (g *Generator) Stats() Stats {
	return Stats{
		Samples: g.samples.Load(),
		Events:  g.events.Load(),
		Faults:  g.faults.Load(),
	}
}
