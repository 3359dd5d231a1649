package raspi

import (
	"github.com/lunahome/luna/config"
	"github.com/lunahome/luna/gpio"
	"github.com/lunahome/luna/gpio/chardev"
	"github.com/lunahome/luna/gpio/dummy"
	"github.com/lunahome/luna/gpio/gpiomem"
	"github.com/lunahome/luna/gpio/periph"
	"github.com/pkg/errors"
)

var Drivers = []string{"gpiomem", "periph", "chardev", "dummy"}

// OpenDriver opens the named gpio driver. chip is only used by chardev.
func OpenDriver(name, chip string) (gpio.Driver, error) {
	switch name {
	case "gpiomem", "":
		return gpiomem.Open()
	case "periph":
		return periph.Open()
	case "chardev":
		return chardev.Open(chip)
	case "dummy":
		return dummy.New(), nil
	}
	return nil, errors.Wrapf(gpio.ErrDriverUnavailable, "unknown driver %q", name)
}

func openConfigured(conf config.GpioConf) (gpio.Driver, error) {
	return OpenDriver(conf.Driver, conf.Chip)
}
