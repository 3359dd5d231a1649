package pubsub

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ExampleEvent_String() {
	ev := NewEvent("test", nil)
	loc, _ := time.LoadLocation("UTC")
	ev.Timestamp = time.Date(2014, 1, 2, 3, 4, 5, 987654321, loc)
	fmt.Println(ev.String())
	//Output: {"timestamp":"2014-01-02 03:04:05.987654","topic":"test"}
}

func ExampleParse() {
	ev := Parse(`{"timestamp":"2014-01-02 03:04:05.987000","topic":"test","field":"value"}`, "")
	fmt.Println(ev.Topic)
	fmt.Println(ev.Timestamp)
	fmt.Println(ev.Fields)
	// Output:
	// test
	// 2014-01-02 03:04:05.987 +0000 UTC
	// map[field:value]
}

func ExampleParse_topic() {
	ev := Parse(`{"command":"on"}`, "command/relay.porch")
	fmt.Println(ev.Topic, ev.Command())
	// Output:
	// command/relay.porch on
}

func ExampleParse_bad() {
	ev := Parse(`{`, "")
	fmt.Println(ev)
	// Output:
	// <nil>
}

func TestNewCommand(t *testing.T) {
	ev := NewCommand("relay.porch", "off")
	assert.Equal(t, "command/relay.porch", ev.Topic)
	assert.Equal(t, "relay.porch", ev.Device())
	assert.Equal(t, "off", ev.Command())
}

func TestIntField(t *testing.T) {
	ev := NewEvent("raspi", Fields{"physical": 11, "parsed": float64(13)})
	assert.Equal(t, int64(11), ev.IntField("physical"))
	assert.Equal(t, int64(13), ev.IntField("parsed"))
	assert.Equal(t, int64(0), ev.IntField("missing"))
}

func TestMatchers(t *testing.T) {
	assert.True(t, Prefix("command").Match("command/relay.porch"))
	assert.True(t, Prefix("command").Match("command"))
	assert.False(t, Prefix("command").Match("commander"))
	assert.True(t, Exact("raspi").Match("raspi"))
	assert.False(t, Exact("raspi").Match("raspi/x"))
	assert.True(t, All().Match("anything"))
}
