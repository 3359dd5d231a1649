// Driver for the Raspberry Pi gpio block, memory mapped through /dev/gpiomem.
package gpiomem

import (
	"sync"

	"github.com/barnybug/ener314/rpio"
	"github.com/lunahome/luna/gpio"
	"github.com/pkg/errors"
)

// Driver rpio
type Driver struct {
	// function select and set/clear registers are shared between pins
	mu   sync.Mutex
	open bool
}

// Open maps the gpio registers.
func Open() (*Driver, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "couldn't open /dev/gpiomem")
	}
	return &Driver{open: true}, nil
}

func (d *Driver) Name() string {
	return "gpiomem"
}

func (d *Driver) Initialized() bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *Driver) IsValidPin(pin gpio.Pin) bool {
	return gpio.IsValidPin(pin)
}

func (d *Driver) SetPinMode(pin gpio.Pin, mode gpio.Mode) error {
	if !d.IsValidPin(pin) {
		return errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	p := rpio.Pin(pin)
	d.mu.Lock()
	defer d.mu.Unlock()
	switch mode {
	case gpio.Input:
		p.Input()
		p.PullOff()
	case gpio.Output:
		p.Output()
	default:
		return errors.Wrapf(gpio.ErrUnsupportedMode, "%s", mode)
	}
	return nil
}

func (d *Driver) DigitalRead(pin gpio.Pin) (bool, error) {
	if !d.IsValidPin(pin) {
		return false, errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	return rpio.Pin(pin).Read() == rpio.High, nil
}

func (d *Driver) DigitalWrite(pin gpio.Pin, value bool) error {
	if !d.IsValidPin(pin) {
		return errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	state := rpio.Low
	if value {
		state = rpio.High
	}
	d.mu.Lock()
	rpio.Pin(pin).Write(state)
	d.mu.Unlock()
	return nil
}

func (d *Driver) PinMetadata(pin gpio.Pin) (gpio.PinInfo, error) {
	return gpio.DefaultPinInfo(pin)
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil
	}
	d.open = false
	return rpio.Close()
}

var _ gpio.Driver = (*Driver)(nil)
