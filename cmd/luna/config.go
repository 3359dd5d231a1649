package main

import (
	"fmt"

	"github.com/lunahome/luna/config"
)

func checkConfig(ps []string) {
	var conf *config.Config
	var err error
	switch {
	case len(ps) > 0:
		conf, err = config.OpenFile(ps[0])
	case *configPath != "":
		conf, err = config.OpenFile(*configPath)
	default:
		conf, err = config.Open()
	}
	if err != nil {
		fmtFatalf("Error reading config: %s\n", err)
	}

	fmt.Printf("driver: %s (chip %s), %d devices\n", conf.Gpio.Driver, conf.Gpio.Chip, len(conf.Devices))
	for _, p := range conf.Gpio.Pins {
		device := conf.Protocols["raspi"][fmt.Sprint(int(p.Pin))]
		fmt.Printf("%-7s %-7s %-12s %s\n", p.Pin, p.Mode, p.Filter, device)
	}
}
