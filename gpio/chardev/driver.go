// Package chardev drives pins through the Linux GPIO character device
// (/dev/gpiochipN). Pin numbers are line offsets on the chip, which on a
// Raspberry Pi gpiochip0 are the BCM numbers.
package chardev

import (
	"sync"

	"github.com/lunahome/luna/gpio"
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

const Consumer = "luna"

// Driver gpiocdev
type Driver struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[gpio.Pin]*gpiocdev.Line
}

// Open opens a gpiochip by name ("gpiochip0") or path ("/dev/gpiochip0").
func Open(name string) (*Driver, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	return &Driver{chip: chip, lines: map[gpio.Pin]*gpiocdev.Line{}}, nil
}

func (d *Driver) Name() string {
	return "chardev"
}

func (d *Driver) Initialized() bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chip != nil
}

func (d *Driver) IsValidPin(pin gpio.Pin) bool {
	if !gpio.IsValidPin(pin) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chip != nil && int(pin) < d.chip.Lines()
}

func (d *Driver) SetPinMode(pin gpio.Pin, mode gpio.Mode) error {
	if !d.IsValidPin(pin) {
		return errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	var opt interface {
		gpiocdev.LineReqOption
		gpiocdev.LineConfigOption
	}
	switch mode {
	case gpio.Input:
		opt = gpiocdev.AsInput
	case gpio.Output:
		opt = gpiocdev.AsOutput(1)
	default:
		return errors.Wrapf(gpio.ErrUnsupportedMode, "%s", mode)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if l, ok := d.lines[pin]; ok {
		return errors.Wrapf(l.Reconfigure(opt), "reconfiguring line %d", int(pin))
	}
	l, err := d.chip.RequestLine(int(pin), opt)
	if err != nil {
		return errors.Wrapf(err, "requesting line %d", int(pin))
	}
	d.lines[pin] = l
	return nil
}

// line returns the requested line for pin, requesting it as an input if needed.
func (d *Driver) line(pin gpio.Pin) (*gpiocdev.Line, error) {
	if !d.IsValidPin(pin) {
		return nil, errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	d.mu.Lock()
	l, ok := d.lines[pin]
	d.mu.Unlock()
	if ok {
		return l, nil
	}
	if err := d.SetPinMode(pin, gpio.Input); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[pin], nil
}

func (d *Driver) DigitalRead(pin gpio.Pin) (bool, error) {
	l, err := d.line(pin)
	if err != nil {
		return false, err
	}
	v, err := l.Value()
	if err != nil {
		return false, errors.Wrapf(err, "reading line %d", int(pin))
	}
	return v != 0, nil
}

func (d *Driver) DigitalWrite(pin gpio.Pin, value bool) error {
	l, err := d.line(pin)
	if err != nil {
		return err
	}
	v := 0
	if value {
		v = 1
	}
	return errors.Wrapf(l.SetValue(v), "writing line %d", int(pin))
}

func (d *Driver) PinMetadata(pin gpio.Pin) (gpio.PinInfo, error) {
	info, err := gpio.DefaultPinInfo(pin)
	if err != nil {
		return info, err
	}
	if !d.IsValidPin(pin) {
		return info, errors.Wrapf(gpio.ErrInvalidPin, "pin %d", int(pin))
	}
	d.mu.Lock()
	li, err := d.chip.LineInfo(int(pin))
	d.mu.Unlock()
	if err != nil {
		return info, errors.Wrapf(err, "line info %d", int(pin))
	}
	if li.Name != "" {
		info.Name = li.Name
	}
	return info, nil
}

// Close releases every requested line and the chip.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.chip == nil {
		return nil
	}
	for pin, l := range d.lines {
		l.Close()
		delete(d.lines, pin)
	}
	err := d.chip.Close()
	d.chip = nil
	return err
}

var _ gpio.Driver = (*Driver)(nil)
