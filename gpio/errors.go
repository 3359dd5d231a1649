package gpio

import "github.com/pkg/errors"

var (
	// ErrDriverUnavailable is returned when a generator is built without an
	// initialized driver. It is fatal for that generator.
	ErrDriverUnavailable = errors.New("gpio driver unavailable")

	ErrInvalidPin      = errors.New("invalid pin")
	ErrUnsupportedMode = errors.New("unsupported pin mode")
	ErrSetMode         = errors.New("failed to set pin mode")

	// ErrDuplicate is returned when a pin already has a registry entry.
	ErrDuplicate = errors.New("pin already registered")

	ErrNotRegistered = errors.New("pin not registered")
	ErrStartTimeout  = errors.New("timed out waiting for pin polling to start")
	ErrStopped       = errors.New("stopped before polling started")
)
