package mqtt

import (
	"fmt"
	"os"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

// Root prefixes every topic on the broker.
const Root = "luna/"

type Broker struct {
	broker     string
	client     MQTT.Client
	subscriber *Subscriber
}

func clientID(name string) string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("luna/%s-%s-%d", name, hostname, os.Getpid())
}

// NewBroker connects to the broker url (eg: tcp://127.0.0.1:1883).
func NewBroker(broker string, name string) (*Broker, error) {
	self := &Broker{broker: broker}
	self.subscriber = NewSubscriber(self)

	opts := MQTT.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID(name))
	opts.SetCleanSession(true)
	opts.SetDefaultPublishHandler(self.subscriber.publishHandler)
	opts.SetOnConnectHandler(self.subscriber.connectHandler)

	self.client = MQTT.NewClient(opts)
	if token := self.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "couldn't connect to mqtt %s", broker)
	}
	return self, nil
}

func (self *Broker) ID() string {
	return "mqtt: " + self.broker
}

func (self *Broker) Subscriber() *Subscriber {
	return self.subscriber
}

func (self *Broker) Publisher() *Publisher {
	return &Publisher{broker: self.broker, client: self.client}
}

// Close disconnects, allowing in flight messages 250ms to complete.
func (self *Broker) Close() {
	self.client.Disconnect(250)
}
