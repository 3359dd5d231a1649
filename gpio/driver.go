package gpio

// Driver is the capability the pin event subsystem performs all hardware
// access through. Implementations must make concurrent access to distinct
// pins safe.
type Driver interface {
	Name() string
	// Initialized reports whether the handle is ready for pin access.
	Initialized() bool
	IsValidPin(pin Pin) bool
	// SetPinMode puts the pin in Input or Output mode.
	SetPinMode(pin Pin, mode Mode) error
	DigitalRead(pin Pin) (bool, error)
	DigitalWrite(pin Pin, value bool) error
	PinMetadata(pin Pin) (PinInfo, error)
	Close() error
}

// Usable reports whether d is present and initialized.
func Usable(d Driver) bool {
	return d != nil && d.Initialized()
}
