// Package periph drives pins through periph.io, which picks the best
// available host backend (bcm283x registers, sysfs, ...).
package periph

import (
	"fmt"
	"sync"

	"github.com/lunahome/luna/gpio"
	"github.com/pkg/errors"
	periphgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Driver periph
type Driver struct {
	mu   sync.Mutex
	pins map[gpio.Pin]periphgpio.PinIO
	init bool
}

// Open initializes the periph.io host drivers.
func Open() (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph.io host")
	}
	return &Driver{pins: map[gpio.Pin]periphgpio.PinIO{}, init: true}, nil
}

func (d *Driver) Name() string {
	return "periph"
}

func (d *Driver) Initialized() bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.init
}

// resolve looks up the pin by name, caching the handle.
func (d *Driver) resolve(pin gpio.Pin) (periphgpio.PinIO, error) {
	if !gpio.IsValidPin(pin) {
		return nil, errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pins[pin]; ok {
		return p, nil
	}
	name := fmt.Sprintf("GPIO%d", int(pin))
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Wrapf(gpio.ErrInvalidPin, "%s not found on this host", name)
	}
	d.pins[pin] = p
	return p, nil
}

func (d *Driver) IsValidPin(pin gpio.Pin) bool {
	_, err := d.resolve(pin)
	return err == nil
}

func (d *Driver) SetPinMode(pin gpio.Pin, mode gpio.Mode) error {
	p, err := d.resolve(pin)
	if err != nil {
		return err
	}
	switch mode {
	case gpio.Input:
		err = p.In(periphgpio.PullNoChange, periphgpio.NoEdge)
	case gpio.Output:
		err = p.Out(periphgpio.High)
	default:
		return errors.Wrapf(gpio.ErrUnsupportedMode, "%s", mode)
	}
	return errors.Wrapf(err, "setting %s to %s", p.Name(), mode)
}

func (d *Driver) DigitalRead(pin gpio.Pin) (bool, error) {
	p, err := d.resolve(pin)
	if err != nil {
		return false, err
	}
	return p.Read() == periphgpio.High, nil
}

func (d *Driver) DigitalWrite(pin gpio.Pin, value bool) error {
	p, err := d.resolve(pin)
	if err != nil {
		return err
	}
	return errors.Wrapf(p.Out(periphgpio.Level(value)), "writing %s", p.Name())
}

func (d *Driver) PinMetadata(pin gpio.Pin) (gpio.PinInfo, error) {
	p, err := d.resolve(pin)
	if err != nil {
		return gpio.PinInfo{}, err
	}
	info, err := gpio.DefaultPinInfo(pin)
	if err != nil {
		return info, err
	}
	info.Name = p.Name()
	return info, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init = false
	d.pins = map[gpio.Pin]periphgpio.PinIO{}
	return nil
}

var _ gpio.Driver = (*Driver)(nil)
