// Service to watch Raspberry Pi gpio pins and switch outputs. Inputs are
// polled, and each change passing the pin's filter is published as a raspi
// event. Output pins are switched by on/off commands to their device.
package raspi

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/lunahome/luna/config"
	"github.com/lunahome/luna/gpio"
	"github.com/lunahome/luna/gpio/events"
	"github.com/lunahome/luna/pubsub"
	"github.com/lunahome/luna/services"
	"github.com/pkg/errors"
)

const ShutdownTimeout = 5 * time.Second

// Service raspi
type Service struct {
	// Driver is opened from the gpio config by Init when nil.
	Driver gpio.Driver

	manager  *events.Manager
	conf     config.GpioConf
	changes  chan gpio.ChangeEvent
	quit     chan struct{}
	stopOnce sync.Once
}

// ID of the service
func (self *Service) ID() string {
	return "raspi"
}

func (self *Service) Init() error {
	if services.Config == nil {
		return errors.New("no configuration loaded")
	}
	self.conf = services.Config.Gpio
	if self.Driver == nil {
		driver, err := openConfigured(self.conf)
		if err != nil {
			return err
		}
		self.Driver = driver
	}
	log.Printf("Using %s gpio driver", self.Driver.Name())

	self.manager = events.NewManager(self.Driver)
	self.manager.PollInterval = self.conf.PollInterval(events.DefaultPollInterval)
	self.manager.StartTimeout = self.conf.StartTimeout(events.DefaultStartTimeout)
	self.changes = make(chan gpio.ChangeEvent, 100)
	self.quit = make(chan struct{})
	return nil
}

// Manager exposes the registered pins.
func (self *Service) Manager() *events.Manager {
	return self.manager
}

func (self *Service) onEvent(ev gpio.ChangeEvent) {
	select {
	case self.changes <- ev:
	case <-self.quit:
	}
}

func (self *Service) setupPins() {
	for _, p := range self.conf.Pins {
		cfg := gpio.Config{Pin: p.Pin, Mode: p.Mode, Filter: p.Filter, OnEvent: self.onEvent}
		if err := self.manager.Register(context.Background(), cfg); err != nil {
			log.Printf("Failed to register %s: %s", cfg, err)
			continue
		}
		log.Println("Registered", cfg)
	}
}

func (self *Service) handleChange(change gpio.ChangeEvent) {
	log.Println("Input", change)
	fields := pubsub.Fields{
		"source":   fmt.Sprintf("raspi.%d", int(change.Pin)),
		"command":  change.State.String(),
		"value":    change.Value,
		"previous": change.Previous.String(),
		"filter":   change.Filter.String(),
		"physical": change.Physical,
	}
	ev := pubsub.NewEvent("raspi", fields)
	ev.Timestamp = change.Time
	services.Config.AddDeviceToEvent(ev)
	services.Publisher.Emit(ev)
}

func (self *Service) lookupPin(device string) (gpio.Pin, bool) {
	ident, ok := services.Config.LookupDeviceProtocol(device)["raspi"]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(ident)
	if err != nil {
		log.Printf("Bad raspi pin %q for %s", ident, device)
		return 0, false
	}
	return gpio.Pin(n), true
}

func (self *Service) handleCommand(ev *pubsub.Event) {
	pin, ok := self.lookupPin(ev.Device())
	if !ok {
		return
	}

	switch command := ev.Command(); command {
	case "on", "off":
		if err := self.switchPin(pin, command == "on"); err != nil {
			log.Printf("Switching %s %s failed: %s", pin, command, err)
		}
	case "stop":
		if err := self.manager.Stop(pin); err != nil {
			log.Printf("Stopping %s failed: %s", pin, err)
		}
	default:
		log.Printf("Unknown command %q for %s", command, ev.Device())
	}
}

// switchPin drives an output. Logical on is the low level.
func (self *Service) switchPin(pin gpio.Pin, on bool) error {
	state := gpio.Off
	if on {
		state = gpio.On
	}
	conf, configured := self.conf.Lookup(pin)
	if configured && conf.Mode != gpio.Output {
		return errors.Wrapf(gpio.ErrUnsupportedMode, "%s is configured as %s", pin, conf.Mode)
	}
	if !configured {
		if self.conf.Safe_Mode {
			return errors.Errorf("%s is not a configured output", pin)
		}
		if err := self.Driver.SetPinMode(pin, gpio.Output); err != nil {
			return errors.Wrapf(gpio.ErrSetMode, "%s: %s", pin, err)
		}
	}
	log.Println("Switching", pin, state)
	return self.Driver.DigitalWrite(pin, state.Value())
}

// Run the service
func (self *Service) Run() error {
	self.setupPins()
	commands := services.Subscriber.Subscribe(pubsub.Prefix("command"))

	for {
		select {
		case ev, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			self.handleCommand(ev)
		case change := <-self.changes:
			self.handleChange(change)
		case <-self.quit:
			return self.shutdown()
		}
	}
}

func (self *Service) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := self.manager.Shutdown(ctx)
	if cerr := self.Driver.Close(); err == nil {
		err = cerr
	}
	return err
}

// Stop makes Run release every pin and return.
func (self *Service) Stop() {
	self.stopOnce.Do(func() { close(self.quit) })
}
