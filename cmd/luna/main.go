package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lunahome/luna/services"
	"github.com/lunahome/luna/services/raspi"
)

var configPath = flag.String("config", "", "config file (default ~/.config/luna/luna.yml)")

func registerServices() {
	// register available services
	services.Register(&raspi.Service{})
}

func usage() {
	fmt.Println("Usage: luna [-config FILE] COMMAND [ARGS]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("   run     [service]                        Run a service")
	fmt.Println("   watch   PIN [mode=] [filter=] [driver=]  Print changes of a pin")
	fmt.Println("   pins    [driver=]                        List usable pins")
	fmt.Println("   switch  DEVICE on|off [key=value]        Switch a device")
	fmt.Println("   config  [file]                           Check a config file")
	fmt.Println()
}

func main() {
	log.SetOutput(os.Stdout)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	ps := []string{}
	if flag.NArg() > 1 {
		ps = flag.Args()[1:]
	}
	// ignore anything after '--'
	for i := range ps {
		if ps[i] == "--" {
			ps = ps[0:i]
			break
		}
	}

	services.SetupLogging()

	command := flag.Args()[0]
	switch command {
	default:
		usage()
	case "run":
		if len(ps) == 0 {
			ps = []string{"raspi"}
		}
		service(ps)
	case "watch":
		if len(ps) == 0 {
			usage()
			return
		}
		watch(ps)
	case "pins":
		pins(ps)
	case "switch":
		commandSwitch(ps)
	case "config":
		checkConfig(ps)
	}
}

func fmtFatalf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
	os.Exit(1)
}

// Start builtin services
func service(ss []string) {
	services.Setup("luna", *configPath)
	registerServices()
	services.Launch(ss)
}
