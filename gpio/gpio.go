// Package gpio holds the value types shared by the pin event subsystem and
// the driver capability every hardware backend implements.
//
// Pins are addressed by their logical (BCM) number. Reads follow the
// active-low convention: a digital high is logically Off, a digital low is
// logically On.
package gpio

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Pin is a logical (BCM) GPIO number.
type Pin int

func (p Pin) String() string {
	return fmt.Sprintf("GPIO%d", int(p))
}

// Mode is the hardware mode a pin is put in before polling.
type Mode int

const (
	Input Mode = iota
	Output
	Alt1
	Alt2
)

var modeNames = map[Mode]string{
	Input:  "input",
	Output: "output",
	Alt1:   "alt1",
	Alt2:   "alt2",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Pollable reports whether the generator can poll a pin in this mode.
func (m Mode) Pollable() bool {
	return m == Input || m == Output
}

func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return Input, errors.Errorf("unknown pin mode %q", s)
}

func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Filter selects which logical transitions are dispatched.
type Filter int

const (
	None Filter = iota
	Activated
	Deactivated
	Both
)

var filterNames = map[Filter]string{
	None:        "none",
	Activated:   "activated",
	Deactivated: "deactivated",
	Both:        "both",
}

func (f Filter) String() string {
	if s, ok := filterNames[f]; ok {
		return s
	}
	return fmt.Sprintf("filter(%d)", int(f))
}

func ParseFilter(s string) (Filter, error) {
	for f, name := range filterNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return None, errors.Errorf("unknown event filter %q", s)
}

func (f *Filter) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseFilter(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Matches reports whether the transition prev -> curr passes the filter.
func (f Filter) Matches(prev, curr State) bool {
	switch f {
	case Activated:
		return curr == On && prev != On
	case Deactivated:
		return curr == Off && prev != Off
	case Both:
		return prev != curr
	}
	return false
}

// State is the logical level of a pin.
type State int

const (
	Off State = iota
	On
)

func (s State) String() string {
	if s == On {
		return "on"
	}
	return "off"
}

// StateOf maps a digital read to its logical state (active-low).
func StateOf(value bool) State {
	if value {
		return Off
	}
	return On
}

// Value is the digital level that represents the state.
func (s State) Value() bool {
	return s == Off
}
