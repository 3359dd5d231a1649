package config

import (
	"io"
	"io/ioutil"
	"os"
	"path"
	"strings"
	"time"

	"github.com/lunahome/luna/gpio"
	"github.com/lunahome/luna/pubsub"
	"github.com/lunahome/luna/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type DeviceConf struct {
	Id       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Group    string   `json:"group"`
	Location string   `json:"location"`
	Caps     []string `json:"caps"`
	Cap      map[string]bool
}

type EndpointsConf struct {
	Mqtt struct {
		Broker string
	}
}

type Duration struct {
	Duration time.Duration
}

func (self *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	self.Duration = val
	return nil
}

// Numbering is how pins are numbered in the configuration file.
type Numbering string

const (
	Logical  Numbering = "logical"
	Physical Numbering = "physical"
)

func (self *Numbering) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch n := Numbering(strings.ToLower(s)); n {
	case Logical, Physical:
		*self = n
		return nil
	}
	return errors.Errorf("unknown pin numbering %q", s)
}

type PinConf struct {
	Pin    gpio.Pin
	Mode   gpio.Mode
	Filter gpio.Filter
}

type GpioConf struct {
	Driver        string
	Chip          string
	Numbering     Numbering
	Poll_Interval *Duration
	Start_Timeout *Duration
	Safe_Mode     bool
	Pins          []PinConf
}

// PollInterval returns the configured interval or the default.
func (self GpioConf) PollInterval(def time.Duration) time.Duration {
	if self.Poll_Interval == nil {
		return def
	}
	return self.Poll_Interval.Duration
}

func (self GpioConf) StartTimeout(def time.Duration) time.Duration {
	if self.Start_Timeout == nil {
		return def
	}
	return self.Start_Timeout.Duration
}

// Lookup finds the configuration of a pin.
func (self GpioConf) Lookup(pin gpio.Pin) (PinConf, bool) {
	for _, p := range self.Pins {
		if p.Pin == pin {
			return p, true
		}
	}
	return PinConf{}, false
}

// Configuration structure
type Config struct {
	// yaml fields
	Devices   map[string]DeviceConf
	Protocols map[string]map[string]string
	Endpoints EndpointsConf
	Gpio      GpioConf
}

// Open configuration from disk.
func Open() (*Config, error) {
	return OpenFile(ConfigPath("luna.yml"))
}

// Open configuration from a named file.
func OpenFile(name string) (*Config, error) {
	file, err := os.Open(util.ExpandUser(name))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return OpenReader(file)
}

// Open configuration from a reader.
func OpenReader(r io.Reader) (*Config, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return OpenRaw(data)
}

// Open configuration from []byte.
func OpenRaw(data []byte) (*Config, error) {
	self := &Config{}
	err := yaml.Unmarshal(data, self)
	if err != nil {
		return nil, err
	}

	for id, device := range self.Devices {
		device.Id = id
		if len(device.Caps) == 0 {
			major := strings.Split(id, ".")[0]
			device.Caps = []string{major}
		}
		device.Type = device.Caps[0]
		device.Cap = map[string]bool{}
		for _, c := range device.Caps {
			device.Cap[c] = true
		}
		self.Devices[id] = device
	}

	if err := self.Gpio.normalize(); err != nil {
		return nil, err
	}
	return self, nil
}

func (self *GpioConf) normalize() error {
	if self.Driver == "" {
		self.Driver = "gpiomem"
	}
	if self.Chip == "" {
		self.Chip = "gpiochip0"
	}
	if self.Numbering == "" {
		self.Numbering = Logical
	}
	seen := map[gpio.Pin]bool{}
	for i, p := range self.Pins {
		if self.Numbering == Physical {
			pin, err := gpio.FromPhysical(int(p.Pin))
			if err != nil {
				return errors.Wrap(err, "gpio pins")
			}
			self.Pins[i].Pin = pin
		}
		if seen[self.Pins[i].Pin] {
			return errors.Errorf("gpio pin %d configured twice", int(self.Pins[i].Pin))
		}
		seen[self.Pins[i].Pin] = true
	}
	return nil
}

func (self *Config) AddDeviceToEvent(ev *pubsub.Event) {
	// split source into protocol.id
	ps := strings.SplitN(ev.Source(), ".", 2)
	protocol := ps[0]
	var id string
	if len(ps) > 1 {
		id = ps[1]
	}
	device := self.Protocols[protocol][id]
	if device != "" {
		ev.SetField("device", device)
	}
}

// Find the protocol and identifier for by device name
func (self *Config) LookupDeviceProtocol(matchName string) map[string]string {
	ret := map[string]string{}
	for protocol, value := range self.Protocols {
		for id, name := range value {
			if name == matchName {
				ret[protocol] = id
			}
		}
	}
	return ret
}

// helpers

// Resolve a configuration file under .config/luna
func ConfigPath(p string) string {
	config := os.Getenv("XDG_CONFIG_HOME")
	if config == "" {
		config = path.Join(os.Getenv("HOME"), ".config")
	}
	return path.Join(config, "luna", p)
}
