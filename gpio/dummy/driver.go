// Package dummy is a simulated gpio driver. Reads are served from scripted
// sequences, writes are recorded, and faults can be injected per pin.
package dummy

import (
	"sync"

	"github.com/lunahome/luna/gpio"
	"github.com/pkg/errors"
)

type line struct {
	mode     gpio.Mode
	level    bool
	script   []bool
	reads    int
	writes   []bool
	failures int
	readErr  error
	modeErr  error
}

// Driver for testing and dry runs.
type Driver struct {
	mu          sync.Mutex
	lines       map[gpio.Pin]*line
	disabled    map[gpio.Pin]bool
	initialized bool
	closed      bool
}

func New() *Driver {
	return &Driver{
		lines:       map[gpio.Pin]*line{},
		disabled:    map[gpio.Pin]bool{},
		initialized: true,
	}
}

// line returns the state for a pin. Idle pins read high (pulled up, logically off).
func (d *Driver) line(pin gpio.Pin) *line {
	l, ok := d.lines[pin]
	if !ok {
		l = &line{level: true}
		d.lines[pin] = l
	}
	return l
}

func (d *Driver) Name() string {
	return "dummy"
}

func (d *Driver) Initialized() bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized && !d.closed
}

// SetInitialized simulates a driver that failed to come up.
func (d *Driver) SetInitialized(v bool) {
	d.mu.Lock()
	d.initialized = v
	d.mu.Unlock()
}

// Disable makes a pin that is on the header allow-list invalid for this board.
func (d *Driver) Disable(pin gpio.Pin) {
	d.mu.Lock()
	d.disabled[pin] = true
	d.mu.Unlock()
}

func (d *Driver) IsValidPin(pin gpio.Pin) bool {
	if !gpio.IsValidPin(pin) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.disabled[pin]
}

func (d *Driver) SetPinMode(pin gpio.Pin, mode gpio.Mode) error {
	if !d.IsValidPin(pin) {
		return errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	if !mode.Pollable() {
		return errors.Wrapf(gpio.ErrUnsupportedMode, "%s", mode)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	l := d.line(pin)
	if l.modeErr != nil {
		return l.modeErr
	}
	l.mode = mode
	return nil
}

func (d *Driver) DigitalRead(pin gpio.Pin) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l := d.line(pin)
	l.reads++
	if l.failures > 0 {
		l.failures--
		return false, l.readErr
	}
	if len(l.script) > 0 {
		l.level = l.script[0]
		l.script = l.script[1:]
	}
	return l.level, nil
}

func (d *Driver) DigitalWrite(pin gpio.Pin, value bool) error {
	if !d.IsValidPin(pin) {
		return errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	l := d.line(pin)
	l.writes = append(l.writes, value)
	l.level = value
	return nil
}

func (d *Driver) PinMetadata(pin gpio.Pin) (gpio.PinInfo, error) {
	if !d.IsValidPin(pin) {
		return gpio.PinInfo{}, errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	return gpio.DefaultPinInfo(pin)
}

func (d *Driver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Script queues values to be returned by successive reads of pin. Once the
// script runs out the last value is held.
func (d *Driver) Script(pin gpio.Pin, values ...bool) {
	d.mu.Lock()
	l := d.line(pin)
	l.script = append(l.script, values...)
	d.mu.Unlock()
}

// Set holds pin at a level, discarding any pending script.
func (d *Driver) Set(pin gpio.Pin, value bool) {
	d.mu.Lock()
	l := d.line(pin)
	l.script = nil
	l.level = value
	d.mu.Unlock()
}

// FailReads makes the next n reads of pin return err.
func (d *Driver) FailReads(pin gpio.Pin, n int, err error) {
	d.mu.Lock()
	l := d.line(pin)
	l.failures = n
	l.readErr = err
	d.mu.Unlock()
}

// FailMode makes SetPinMode on pin return err.
func (d *Driver) FailMode(pin gpio.Pin, err error) {
	d.mu.Lock()
	d.line(pin).modeErr = err
	d.mu.Unlock()
}

// Reads is the number of reads of pin so far.
func (d *Driver) Reads(pin gpio.Pin) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.line(pin).reads
}

// Writes returns the values written to pin.
func (d *Driver) Writes(pin gpio.Pin) []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]bool(nil), d.line(pin).writes...)
}

// Mode returns the last mode set on pin.
func (d *Driver) Mode(pin gpio.Pin) gpio.Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.line(pin).mode
}

// Pending is the number of scripted reads not yet consumed.
func (d *Driver) Pending(pin gpio.Pin) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.line(pin).script)
}

var _ gpio.Driver = (*Driver)(nil)
