package main

import (
	"context"
	"fmt"

	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/accel"
	"github.com/mklimuk/imu/adapter"
	"github.com/mklimuk/imu/cmd/imu/console"
	"github.com/mklimuk/imu/i2c"
	"github.com/mklimuk/imu/pkg/config"
)

const standardGravity = 9.80665

func openBus(cfg config.Config) (imu.I2CBus, func(), error) {
	noop := func() {}
	switch cfg.Adapter {
	case config.AdapterMCP2221:
		a := adapter.NewMCP2221()
		if err := a.Init(); err != nil {
			return nil, noop, fmt.Errorf("adapter initialization error: %w", err)
		}
		return a, noop, nil
	case config.AdapterGeneric:
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, noop, fmt.Errorf("adapter initialization error: %w", err)
		}
		closer := func() {
			if err := bus.Close(); err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
		}
		speed, err := cfg.BusSpeed()
		if err != nil {
			closer()
			return nil, noop, err
		}
		if speed > 0 {
			if err := bus.SetSpeed(speed); err != nil {
				closer()
				return nil, noop, fmt.Errorf("could not set bus speed to %s: %w", speed, err)
			}
		}
		return bus, closer, nil
	case config.AdapterGobot:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.Connect(); err != nil {
			return nil, noop, fmt.Errorf("adaptor connect error: %w", err)
		}
		closer := func() {
			if err := npi.Finalize(); err != nil {
				console.Errorf("error finalizing adaptor: %s", console.Red(err))
			}
		}
		return i2c.NewGobotBus(npi, cfg.Bus), closer, nil
	}
	return nil, noop, fmt.Errorf("adapter %q has no bus", cfg.Adapter)
}

// openSensor returns a configured accelerometer and a function releasing its bus.
func openSensor(ctx context.Context, cfg config.Config) (accel.Accelerometer, func(), error) {
	if cfg.Adapter == config.AdapterMock {
		return accel.NewStaticMockAccelerometer(0, 0, standardGravity), func() {}, nil
	}
	bus, closer, err := openBus(cfg)
	if err != nil {
		return nil, closer, err
	}
	s, err := accel.NewFXOS8700(ctx, bus)
	if err != nil {
		closer()
		return nil, func() {}, err
	}
	return s, closer, nil
}
