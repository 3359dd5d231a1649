package config

var ExampleYaml = `
devices:
  door.front:
    name: Front door
    caps: [sensor]
    location: Hall
  relay.porch:
    name: Porch light
    caps: [switch]
    location: Porch
  pir.landing:
    name: Landing motion
    location: Landing
protocols:
  raspi:
    "17": door.front
    "27": pir.landing
    "18": relay.porch
endpoints:
  mqtt:
    broker: tcp://127.0.0.1:1883
gpio:
  driver: dummy
  poll_interval: 1ms
  start_timeout: 2s
  safe_mode: true
  pins:
    - pin: 17
      mode: input
      filter: both
    - pin: 27
      mode: input
      filter: activated
    - pin: 18
      mode: output
      filter: none
`

func openExample() *Config {
	config, err := OpenRaw([]byte(ExampleYaml))
	if err != nil {
		panic(err)
	}
	return config
}

var ExampleConfig = openExample()
