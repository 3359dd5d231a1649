package services

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunahome/luna/config"
	"github.com/lunahome/luna/pubsub"
	"github.com/lunahome/luna/pubsub/mqtt"
	"github.com/pkg/errors"
)

// Service interface
type Service interface {
	ID() string
	Run() error
}

// ServiceInit interface
type ServiceInit interface {
	Service
	Init() error
}

// ServiceStop is implemented by services that can shut down cleanly.
type ServiceStop interface {
	Service
	Stop()
}

type Flags interface {
	Flags()
}

var serviceMap map[string]Service = map[string]Service{}
var enabled []Service
var Config *config.Config

var Publisher pubsub.Publisher
var Subscriber pubsub.Subscriber
var broker *mqtt.Broker

func SetupLogging() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.SetOutput(os.Stdout)
}

// LoadConfig reads the configuration file, or the default one if path is empty.
func LoadConfig(path string) error {
	var conf *config.Config
	var err error
	if path == "" {
		conf, err = config.Open()
	} else {
		conf, err = config.OpenFile(path)
	}
	if err != nil {
		return errors.Wrap(err, "reading config")
	}
	Config = conf
	return nil
}

func SetupFlags() {
	for _, service := range enabled {
		// any service specific flags
		if f, ok := service.(Flags); ok {
			f.Flags()
		}
	}
	flag.Parse()
}

// BrokerURL is taken from LUNA_MQTT, falling back to the config.
func BrokerURL() string {
	if url := os.Getenv("LUNA_MQTT"); url != "" {
		return url
	}
	if Config != nil {
		return Config.Endpoints.Mqtt.Broker
	}
	return ""
}

func SetupBroker(name string) {
	url := BrokerURL()
	if url == "" {
		log.Fatalln("Set LUNA_MQTT or endpoints.mqtt.broker to the mqtt server. eg: tcp://127.0.0.1:1883")
	}

	var err error
	broker, err = mqtt.NewBroker(url, name)
	if err != nil {
		log.Fatalln(err)
	}
	Publisher = broker.Publisher()
	Subscriber = broker.Subscriber()
}

func Setup(name string, configPath string) {
	if err := LoadConfig(configPath); err != nil {
		log.Fatalln(err)
	}
	SetupBroker(name)
}

func Launch(ss []string) {
	enabled = []Service{}
	for _, name := range ss {
		if service, ok := serviceMap[name]; ok {
			enabled = append(enabled, service)
		} else {
			log.Fatalf("Service %s does not exist", name)
		}
	}

	SetupFlags()

	for _, service := range enabled {
		log.Printf("Starting %s\n", service.ID())
		if service, ok := service.(ServiceInit); ok {
			err := service.Init()
			if err != nil {
				log.Fatalf("Error init service %s: %s", service.ID(), err.Error())
			}
			log.Printf("Initialized %s\n", service.ID())
		}
	}

	for _, service := range enabled {
		go Heartbeat(service.ID())
	}
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	if err := runServices(enabled, signals, StopTimeout); err != nil {
		log.Println("Error:", err)
	}
	Shutdown()
}

// StopTimeout bounds how long stopped services get to return from Run.
var StopTimeout = 10 * time.Second

// runServices runs every service until one returns or a signal arrives,
// then stops the rest and waits for their Run to return.
func runServices(ss []Service, signals <-chan os.Signal, timeout time.Duration) error {
	errs := make(chan error, len(ss))
	for _, service := range ss {
		go func(service Service) {
			err := service.Run()
			if err != nil {
				err = errors.Wrapf(err, "running service %s", service.ID())
			}
			errs <- err
		}(service)
	}

	var first error
	running := len(ss)
	select {
	case sig := <-signals:
		log.Printf("Received %s, shutting down", sig)
	case first = <-errs:
		running--
	}
	for _, service := range ss {
		if service, ok := service.(ServiceStop); ok {
			service.Stop()
		}
	}

	deadline := time.After(timeout)
	for ; running > 0; running-- {
		select {
		case err := <-errs:
			if err != nil {
				log.Println("Error:", err)
			}
		case <-deadline:
			return errors.Errorf("%d services still running after %s", running, timeout)
		}
	}
	return first
}

func Heartbeat(id string) {
	started := time.Now()
	device := fmt.Sprintf("heartbeat.%s", id)
	fields := pubsub.Fields{
		"device":  device,
		"pid":     os.Getpid(),
		"started": started.Format(time.RFC3339),
	}

	// wait 5 seconds before heartbeating - if the process dies very soon
	time.Sleep(time.Second * 5)

	for {
		if Publisher != nil {
			fields["uptime"] = int(time.Since(started).Seconds())
			ev := pubsub.NewEvent("heartbeat", copyFields(fields))
			ev.SetRetained(true)
			Publisher.Emit(ev)
		}
		time.Sleep(time.Second * 60)
	}
}

func copyFields(fields pubsub.Fields) pubsub.Fields {
	ret := pubsub.Fields{}
	for k, v := range fields {
		ret[k] = v
	}
	return ret
}

func Register(service Service) {
	if _, exists := serviceMap[service.ID()]; exists {
		log.Fatalf("Duplicate service registered: %s", service.ID())
	}
	serviceMap[service.ID()] = service
}

func Shutdown() {
	if broker != nil {
		broker.Close()
	}
}
