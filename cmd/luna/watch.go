package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lunahome/luna/config"
	"github.com/lunahome/luna/gpio"
	"github.com/lunahome/luna/gpio/events"
	"github.com/lunahome/luna/services"
	"github.com/lunahome/luna/services/raspi"
	"github.com/lunahome/luna/util"
)

// openDriver uses driver= and chip= when given, then the config file.
func openDriver(kwargs map[string]string) (gpio.Driver, config.GpioConf) {
	conf := config.GpioConf{Driver: "gpiomem", Chip: "gpiochip0"}
	if err := services.LoadConfig(*configPath); err == nil {
		conf = services.Config.Gpio
	}
	if name, ok := kwargs["driver"]; ok {
		conf.Driver = name
	}
	if chip, ok := kwargs["chip"]; ok {
		conf.Chip = chip
	}
	driver, err := raspi.OpenDriver(conf.Driver, conf.Chip)
	if err != nil {
		fmtFatalf("error: %s\n", err)
	}
	return driver, conf
}

func watch(ps []string) {
	positional, kwargs := util.KeywordArgs(ps)
	if len(positional) != 1 {
		usage()
		return
	}
	n, err := strconv.Atoi(positional[0])
	if err != nil {
		fmtFatalf("bad pin: %s\n", positional[0])
	}
	cfg := gpio.Config{Pin: gpio.Pin(n), Mode: gpio.Input, Filter: gpio.Both}
	if v, ok := kwargs["mode"]; ok {
		if cfg.Mode, err = gpio.ParseMode(v); err != nil {
			fmtFatalf("error: %s\n", err)
		}
	}
	if v, ok := kwargs["filter"]; ok {
		if cfg.Filter, err = gpio.ParseFilter(v); err != nil {
			fmtFatalf("error: %s\n", err)
		}
	}
	cfg.OnEvent = func(ev gpio.ChangeEvent) {
		fmt.Printf("%s %s value=%t physical=%d\n", ev.Time.Format(time.StampMicro), ev, ev.Value, ev.Physical)
	}

	driver, conf := openDriver(kwargs)
	defer driver.Close()
	manager := events.NewManager(driver)
	manager.PollInterval = conf.PollInterval(events.DefaultPollInterval)
	manager.StartTimeout = conf.StartTimeout(events.DefaultStartTimeout)
	if err := manager.Register(context.Background(), cfg); err != nil {
		fmtFatalf("error: %s\n", err)
	}
	fmt.Printf("Watching %s using %s, ctrl-c to stop\n", cfg, driver.Name())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals

	ctx, cancel := context.WithTimeout(context.Background(), raspi.ShutdownTimeout)
	defer cancel()
	if err := manager.Shutdown(ctx); err != nil {
		fmt.Println("error:", err)
	}
	g, _ := manager.Generator(cfg.Pin)
	stats := g.Stats()
	fmt.Printf("%d samples, %d events, %d faults\n", stats.Samples, stats.Events, stats.Faults)
}

func pins(ps []string) {
	_, kwargs := util.KeywordArgs(ps)
	driver, _ := openDriver(kwargs)
	defer driver.Close()
	fmt.Printf("%-7s %-8s %s\n", "PIN", "PHYSICAL", "NAME")
	for _, pin := range gpio.ValidPins() {
		if !driver.IsValidPin(pin) {
			continue
		}
		info, err := driver.PinMetadata(pin)
		if err != nil {
			fmt.Printf("%-7s error: %s\n", pin, err)
			continue
		}
		fmt.Printf("%-7s %-8d %s\n", pin, info.Physical, info.Name)
	}
}
