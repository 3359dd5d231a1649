// Luna watches and switches Raspberry Pi gpio pins.
//
// Input pins are polled, and changes are filtered by whether the pin was
// activated, deactivated or either, then published over mqtt. Pins are
// active low: a low level reads as on.
//
// Packages
//
// - gpio: pins, modes, filters and the driver interface
//
// - gpio/events: the per pin polling generators and their manager
//
// - gpio/gpiomem, gpio/periph, gpio/chardev: hardware drivers
//
// - gpio/dummy: a scripted driver for tests and dry runs
//
// - services/raspi: the service publishing pin changes and switching outputs
package luna
