package i2c

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/imu"
	gobot "gobot.io/x/gobot/v2/drivers/i2c"
)

var _ imu.I2CBus = &GobotBus{}

// GobotBus exposes an I2C bus of a gobot adaptor (e.g. NanoPi) as imu.I2CBus.
type GobotBus struct {
	mx        sync.Mutex
	connector gobot.Connector
	busNr     int
}

// NewGobotBus uses the adaptor's default bus when busNr is negative.
func NewGobotBus(connector gobot.Connector, busNr int) *GobotBus {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return &GobotBus{connector: connector, busNr: busNr}
}

func (b *GobotBus) connection(address byte) (gobot.Connection, error) {
	conn, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not get connection to %x on bus %d: %w", address, b.busNr, err)
	}
	return conn, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	_, err = conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	_, err = conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// Tx supports register reads only: w must hold a single register address.
// The block read is issued by the kernel as one combined transaction.
func (b *GobotBus) Tx(ctx context.Context, address byte, w, r []byte) error {
	if len(w) != 1 {
		return fmt.Errorf("gobot bus supports register reads only (got %d byte write)", len(w))
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	err = conn.ReadBlockData(w[0], r)
	if err != nil {
		return fmt.Errorf("i2c transaction with %x failed: %w", address, err)
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}
