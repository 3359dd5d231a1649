package gpio

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Bounds of the 40 pin header.
const (
	MinPin = 1
	MaxPin = 40
)

// Header position of every BCM pin exposed on the 40 pin header.
var physicalByBCM = map[Pin]int{
	2: 3, 3: 5, 4: 7, 17: 11, 27: 13, 22: 15, 10: 19, 9: 21, 11: 23,
	5: 29, 6: 31, 13: 33, 19: 35, 26: 37,
	14: 8, 15: 10, 18: 12, 23: 16, 24: 18, 25: 22, 8: 24, 7: 26,
	12: 32, 16: 36, 20: 38, 21: 40,
}

var bcmByPhysical = func() map[int]Pin {
	m := map[int]Pin{}
	for p, h := range physicalByBCM {
		m[h] = p
	}
	return m
}()

// PinInfo describes a pin as reported by a driver.
type PinInfo struct {
	Pin       Pin
	Physical  int
	Name      string
	CanInput  bool
	CanOutput bool
}

// IsValidPin checks the pin against the header bounds and the BCM allow-list.
// Drivers apply this before any board specific check of their own.
func IsValidPin(p Pin) bool {
	if p < MinPin || p > MaxPin {
		return false
	}
	_, ok := physicalByBCM[p]
	return ok
}

// ValidPins returns the allow-list in ascending order.
func ValidPins() []Pin {
	pins := make([]Pin, 0, len(physicalByBCM))
	for p := range physicalByBCM {
		pins = append(pins, p)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i] < pins[j] })
	return pins
}

// Physical returns the header position of a BCM pin, or 0 if it has none.
func Physical(p Pin) int {
	return physicalByBCM[p]
}

// FromPhysical translates a header position to its BCM pin.
func FromPhysical(header int) (Pin, error) {
	if p, ok := bcmByPhysical[header]; ok {
		return p, nil
	}
	return 0, errors.Wrapf(ErrInvalidPin, "header position %d is not a gpio", header)
}

// DefaultPinInfo is the metadata of a header pin that any backend can serve.
func DefaultPinInfo(p Pin) (PinInfo, error) {
	if !IsValidPin(p) {
		return PinInfo{}, errors.Wrapf(ErrInvalidPin, "pin %d", int(p))
	}
	return PinInfo{
		Pin:       p,
		Physical:  Physical(p),
		Name:      fmt.Sprintf("GPIO%d", int(p)),
		CanInput:  true,
		CanOutput: true,
	}, nil
}
