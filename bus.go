package imu

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// Transactor performs a combined write/read transaction: w is sent without
// a STOP condition and r is filled by a repeated-start read. The bus must not
// be released between the two phases.
type Transactor interface {
	Tx(ctx context.Context, address byte, w, r []byte) error
}

// I2CBus is the transport contract every chip driver depends on.
// Implementations hold exclusive access to the bus for the duration of each call.
type I2CBus interface {
	AddressableReader
	AddressableWriter
	Transactor
}
