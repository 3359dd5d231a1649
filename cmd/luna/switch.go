package main

import (
	"fmt"
	"log"

	"github.com/lunahome/luna/pubsub"
	"github.com/lunahome/luna/services"
	"github.com/lunahome/luna/util"
)

func commandSwitch(ps []string) {
	if len(ps) < 2 {
		usage()
		return
	}
	device := ps[0]
	command, fields := util.ParseArgs(ps[1:])
	if command != "on" && command != "off" {
		fmtFatalf("command must be on or off: %s\n", command)
	}

	if err := services.LoadConfig(*configPath); err != nil {
		log.Println(err)
	}
	services.SetupBroker("switch")
	defer services.Shutdown()

	ev := pubsub.NewCommand(device, command)
	for k, v := range fields {
		ev.SetField(k, v)
	}
	services.Publisher.Emit(ev)
	fmt.Printf("Sent %s %s\n", device, command)
}
