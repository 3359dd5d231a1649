package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lunahome/luna/gpio"
	"github.com/lunahome/luna/gpio/dummy"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, d gpio.Driver) *Manager {
	m := NewManager(d)
	m.StartTimeout = waitFor
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		m.Shutdown(ctx)
	})
	return m
}

func TestRegister(t *testing.T) {
	d := dummy.New()
	m := newManager(t, d)

	err := m.Register(context.Background(), gpio.Config{Pin: 17, Mode: gpio.Input, Filter: gpio.Both})
	require.NoError(t, err)
	assert.True(t, m.Registered(17))
	assert.Equal(t, []gpio.Pin{17}, m.Pins())
	g, ok := m.Generator(17)
	require.True(t, ok)
	assert.True(t, g.Registered())
}

func TestRegisterDuplicate(t *testing.T) {
	d := dummy.New()
	m := newManager(t, d)
	cfg := gpio.Config{Pin: 17, Mode: gpio.Input, Filter: gpio.Both}

	require.NoError(t, m.Register(context.Background(), cfg))
	first, _ := m.Generator(17)

	err := m.Register(context.Background(), cfg)
	assert.True(t, errors.Is(err, gpio.ErrDuplicate))
	second, _ := m.Generator(17)
	assert.Same(t, first, second)
	assert.True(t, first.Registered())
}

func TestRegisterConcurrentDuplicates(t *testing.T) {
	d := dummy.New()
	m := newManager(t, d)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.Register(context.Background(), gpio.Config{Pin: 5, Mode: gpio.Input, Filter: gpio.Both})
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.True(t, errors.Is(err, gpio.ErrDuplicate))
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, []gpio.Pin{5}, m.Pins())
}

func TestRegisterSlotKeptAfterStop(t *testing.T) {
	d := dummy.New()
	m := newManager(t, d)
	cfg := gpio.Config{Pin: 6, Mode: gpio.Input, Filter: gpio.Both}
	require.NoError(t, m.Register(context.Background(), cfg))

	require.NoError(t, m.Stop(6))
	g, _ := m.Generator(6)
	<-g.Done()
	assert.False(t, m.Registered(6))
	assert.Equal(t, []gpio.Pin{6}, m.Pins())

	err := m.Register(context.Background(), cfg)
	assert.True(t, errors.Is(err, gpio.ErrDuplicate))
}

func TestRegisterInvalid(t *testing.T) {
	d := dummy.New()
	m := newManager(t, d)

	err := m.Register(context.Background(), gpio.Config{Pin: 1, Mode: gpio.Input})
	assert.True(t, errors.Is(err, gpio.ErrInvalidPin))

	err = m.Register(context.Background(), gpio.Config{Pin: 41, Mode: gpio.Input})
	assert.True(t, errors.Is(err, gpio.ErrInvalidPin))

	for _, mode := range []gpio.Mode{gpio.Alt1, gpio.Alt2} {
		err = m.Register(context.Background(), gpio.Config{Pin: 12, Mode: mode})
		assert.True(t, errors.Is(err, gpio.ErrUnsupportedMode))
		assert.False(t, m.Registered(12))
	}
	assert.Empty(t, m.Pins())

	// a failed registration does not reserve the pin
	require.NoError(t, m.Register(context.Background(), gpio.Config{Pin: 12, Mode: gpio.Input}))
}

func TestRegisterDriverUnavailable(t *testing.T) {
	d := dummy.New()
	d.SetInitialized(false)
	m := newManager(t, d)
	err := m.Register(context.Background(), gpio.Config{Pin: 17, Mode: gpio.Input})
	assert.True(t, errors.Is(err, gpio.ErrDriverUnavailable))

	m = newManager(t, nil)
	err = m.Register(context.Background(), gpio.Config{Pin: 17, Mode: gpio.Input})
	assert.True(t, errors.Is(err, gpio.ErrDriverUnavailable))
}

func TestRegisterTimeout(t *testing.T) {
	d := &blockingDriver{Driver: dummy.New(), release: make(chan struct{})}
	m := newManager(t, d)
	m.StartTimeout = 10 * time.Millisecond

	err := m.Register(context.Background(), gpio.Config{Pin: 26, Mode: gpio.Input, Filter: gpio.Both})
	assert.True(t, errors.Is(err, gpio.ErrStartTimeout))
	assert.Empty(t, m.Pins())

	close(d.release)
	time.Sleep(10 * time.Millisecond)
	assert.False(t, m.Registered(26))
	assert.Zero(t, d.Reads(26))
}

func TestRegisterTimeoutKeepsPin(t *testing.T) {
	d := &blockingDriver{Driver: dummy.New(), release: make(chan struct{})}
	m := newManager(t, d)
	m.StartTimeout = 10 * time.Millisecond
	cfg := gpio.Config{Pin: 18, Mode: gpio.Output, Filter: gpio.None}

	err := m.Register(context.Background(), cfg)
	assert.True(t, errors.Is(err, gpio.ErrStartTimeout))

	// the timed out generator is still setting the mode
	err = m.Register(context.Background(), cfg)
	assert.True(t, errors.Is(err, gpio.ErrDuplicate))

	close(d.release)
	m.StartTimeout = waitFor
	assert.Eventually(t, func() bool {
		return m.Register(context.Background(), cfg) == nil
	}, waitFor, time.Millisecond)
	assert.True(t, m.Registered(18))
	// only the second generator drove the output off
	assert.Equal(t, []bool{true}, d.Writes(18))
}

func TestStop(t *testing.T) {
	d := dummy.New()
	m := newManager(t, d)

	assert.True(t, errors.Is(m.Stop(1), gpio.ErrInvalidPin))
	assert.True(t, errors.Is(m.Stop(17), gpio.ErrNotRegistered))

	require.NoError(t, m.Register(context.Background(), gpio.Config{Pin: 17, Mode: gpio.Input, Filter: gpio.Both}))
	require.NoError(t, m.Stop(17))
	require.NoError(t, m.Stop(17))
	assert.Eventually(t, func() bool { return !m.Registered(17) }, waitFor, time.Millisecond)
}

func TestShutdown(t *testing.T) {
	d := dummy.New()
	m := newManager(t, d)
	for _, pin := range []gpio.Pin{17, 27, 22} {
		require.NoError(t, m.Register(context.Background(), gpio.Config{Pin: pin, Mode: gpio.Input, Filter: gpio.Both}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	for _, pin := range m.Pins() {
		assert.False(t, m.Registered(pin))
	}
	assert.Len(t, m.Pins(), 3)
}

func TestPinsIndependent(t *testing.T) {
	d := dummy.New()
	m := newManager(t, d)
	fired := make(chan gpio.Pin, 4)
	handler := func(ev gpio.ChangeEvent) { fired <- ev.Pin }

	require.NoError(t, m.Register(context.Background(), gpio.Config{Pin: 20, Mode: gpio.Input, Filter: gpio.Activated, OnEvent: handler}))
	require.NoError(t, m.Register(context.Background(), gpio.Config{Pin: 21, Mode: gpio.Input, Filter: gpio.Activated, OnEvent: handler}))
	require.NoError(t, m.Stop(20))

	d.Set(21, false)
	select {
	case pin := <-fired:
		assert.Equal(t, gpio.Pin(21), pin)
	case <-time.After(waitFor):
		t.Fatal("no event from pin 21")
	}
}
