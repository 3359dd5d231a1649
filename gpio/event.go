package gpio

import (
	"fmt"
	"time"
)

// Handler receives change events on the polling goroutine of the pin.
type Handler func(ChangeEvent)

// Config describes which pin to poll, how, and what to report. It is
// copied by the generator when polling starts and is not consulted again.
type Config struct {
	Pin     Pin
	Mode    Mode
	Filter  Filter
	OnEvent Handler
}

func (c Config) String() string {
	return fmt.Sprintf("%s %s/%s", c.Pin, c.Mode, c.Filter)
}

// ChangeEvent carries the new and the previous sample of a pin.
type ChangeEvent struct {
	Pin      Pin
	Physical int
	State    State
	Value    bool
	Mode     Mode
	Filter   Filter
	Previous State
	// PreviousValue is the digital value of the previous sample.
	PreviousValue bool
	Time          time.Time
}

func (e ChangeEvent) String() string {
	return fmt.Sprintf("%s %s -> %s (%s)", e.Pin, e.Previous, e.State, e.Filter)
}
