package raspi

import (
	"testing"
	"time"

	"github.com/lunahome/luna/config"
	"github.com/lunahome/luna/gpio"
	"github.com/lunahome/luna/gpio/dummy"
	"github.com/lunahome/luna/pubsub"
	pubsubdummy "github.com/lunahome/luna/pubsub/dummy"
	"github.com/lunahome/luna/services"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, commands ...*pubsub.Event) (*Service, *dummy.Driver, *pubsubdummy.Publisher) {
	services.Config = config.ExampleConfig
	publisher := &pubsubdummy.Publisher{}
	services.Publisher = publisher
	services.Subscriber = &pubsubdummy.Subscriber{Events: commands}

	d := dummy.New()
	service := &Service{Driver: d}
	require.NoError(t, service.Init())
	return service, d, publisher
}

func start(t *testing.T, service *Service) func() {
	errs := make(chan error, 1)
	go func() { errs <- service.Run() }()
	return func() {
		service.Stop()
		select {
		case err := <-errs:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("service did not stop")
		}
	}
}

func TestInputPublished(t *testing.T) {
	service, d, publisher := setup(t)
	d.Script(17, true, false)
	stop := start(t, service)

	assert.Eventually(t, func() bool { return len(publisher.Emitted()) == 1 },
		time.Second, time.Millisecond)
	stop()

	ev := publisher.Emitted()[0]
	assert.Equal(t, "raspi", ev.Topic)
	assert.Equal(t, "raspi.17", ev.Source())
	assert.Equal(t, "door.front", ev.Device())
	assert.Equal(t, "on", ev.Command())
	assert.Equal(t, "off", ev.StringField("previous"))
	assert.Equal(t, "both", ev.StringField("filter"))
	assert.Equal(t, false, ev.Fields["value"])
	assert.Equal(t, 11, ev.Fields["physical"])

	assert.False(t, d.Initialized())
	assert.Equal(t, []gpio.Pin{17, 18, 27}, service.Manager().Pins())
}

func TestSwitchCommand(t *testing.T) {
	service, d, _ := setup(t,
		pubsub.NewCommand("relay.porch", "on"),
		pubsub.NewCommand("relay.porch", "off"),
		pubsub.NewCommand("garage.door", "on"),
	)
	stop := start(t, service)
	assert.Eventually(t, func() bool { return len(d.Writes(18)) == 3 },
		time.Second, time.Millisecond)
	stop()

	// baseline write then on (low) then off (high)
	assert.Equal(t, []bool{true, false, true}, d.Writes(18))
}

func TestStopCommand(t *testing.T) {
	service, _, _ := setup(t)
	service.setupPins()
	defer service.shutdown()
	require.True(t, service.Manager().Registered(17))

	service.handleCommand(pubsub.NewCommand("door.front", "stop"))
	g, ok := service.Manager().Generator(17)
	require.True(t, ok)
	<-g.Done()
	assert.False(t, service.Manager().Registered(17))
	assert.True(t, service.Manager().Registered(27))
}

func TestSwitchPin(t *testing.T) {
	service, d, _ := setup(t)

	err := service.switchPin(17, true)
	assert.True(t, errors.Is(err, gpio.ErrUnsupportedMode))

	assert.Error(t, service.switchPin(22, true))
	assert.Empty(t, d.Writes(22))

	service.conf.Safe_Mode = false
	require.NoError(t, service.switchPin(22, true))
	assert.Equal(t, gpio.Output, d.Mode(22))
	assert.Equal(t, []bool{false}, d.Writes(22))

	d.FailMode(23, errors.New("busy"))
	err = service.switchPin(23, true)
	assert.True(t, errors.Is(err, gpio.ErrSetMode))
}

func TestOpenDriver(t *testing.T) {
	d, err := OpenDriver("dummy", "")
	require.NoError(t, err)
	assert.Equal(t, "dummy", d.Name())

	_, err = OpenDriver("nope", "")
	assert.True(t, errors.Is(err, gpio.ErrDriverUnavailable))
}
