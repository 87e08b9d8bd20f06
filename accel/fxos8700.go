package accel

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/snsctx"
)

const fxos8700Address = 0x1F

const (
	regStatus     byte = 0x00
	regWhoAmI     byte = 0x0D
	regXYZDataCfg byte = 0x0E
	regCtrl1      byte = 0x2A
	regCtrl2      byte = 0x2B
	regMCtrl1     byte = 0x5B
	regMCtrl2     byte = 0x5C
)

const fxos8700ID = 0xC7

// status byte followed by 3 accelerometer and 3 magnetometer axes
const dataBlockLen = 13

// 0.244 mg/LSB in ±2g high resolution mode, data is left aligned 14 bit
const accelScale = 9.80665 * 0.000244 / 4

var ErrDeviceNotFound = errors.New("fxos8700: device not found")

type register struct {
	addr  byte
	value byte
	desc  string
}

// configuration is applied in order; CTRL_REG1 must be in standby while other
// registers are changed.
var fxos8700Config = []register{
	{regCtrl1, 0x00, "standby"},
	{regXYZDataCfg, 0x00, "accelerometer range"},
	{regCtrl2, 0x02, "high resolution"},
	{regCtrl1, 0x15, "active, low noise, 100Hz hybrid"},
	{regMCtrl1, 0x1F, "magnetometer hybrid mode, oversampling 16"},
	{regMCtrl2, 0x20, "magnetometer auto-increment jump"},
}

// FXOS8700 represents NXP FXOS8700 6-axis accelerometer/magnetometer.
// Only acceleration is read back. The magnetometer is configured because
// hybrid mode is required for the 100Hz accelerometer output data rate.
//
// FXOS8700 reuses a single scratch buffer and is not safe for concurrent use.
type FXOS8700 struct {
	transport imu.I2CBus
	buf       []byte
}

// NewFXOS8700 checks the chip identity and applies the register configuration.
// It returns an error wrapping ErrDeviceNotFound if WHO_AM_I does not match.
// A failed configuration write leaves the chip in an undefined state.
func NewFXOS8700(ctx context.Context, trans imu.I2CBus) (*FXOS8700, error) {
	s := &FXOS8700{
		transport: trans,
		buf:       make([]byte, 16),
	}
	id, err := s.readRegister(ctx, regWhoAmI, 1)
	if err != nil {
		return nil, fmt.Errorf("could not read device id: %w", err)
	}
	if id[0] != fxos8700ID {
		return nil, fmt.Errorf("%w at address %#x (WHO_AM_I %#x)", ErrDeviceNotFound, fxos8700Address, id[0])
	}
	for _, reg := range fxos8700Config {
		err = s.writeRegister(ctx, reg.addr, reg.value)
		if err != nil {
			return nil, fmt.Errorf("could not configure %s (%#x): %w", reg.desc, reg.addr, err)
		}
	}
	snsctx.Logger(ctx).Debug("fxos8700 configured", "address", fxos8700Address)
	return s, nil
}

// GetAcceleration returns acceleration along X, Y and Z axes in m/s².
func (s *FXOS8700) GetAcceleration(ctx context.Context) (float64, float64, float64, error) {
	data, err := s.readRegister(ctx, regStatus, dataBlockLen)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("could not read acceleration data: %w", err)
	}
	x, y, z := decodeAcceleration(data)
	return x, y, z, nil
}

func (s *FXOS8700) readRegister(ctx context.Context, reg byte, length int) ([]byte, error) {
	if length < 1 || length > dataBlockLen {
		return nil, fmt.Errorf("invalid read length %d", length)
	}
	s.buf[0] = reg
	err := s.transport.Tx(ctx, fxos8700Address, s.buf[:1], s.buf[:length])
	if err != nil {
		return nil, err
	}
	return s.buf[:length], nil
}

func (s *FXOS8700) writeRegister(ctx context.Context, reg, value byte) error {
	s.buf[0] = reg
	s.buf[1] = value
	return s.transport.WriteToAddr(ctx, fxos8700Address, s.buf[:2])
}

// decodeAcceleration expects the data block starting at STATUS.
func decodeAcceleration(data []byte) (float64, float64, float64) {
	x := int16(binary.BigEndian.Uint16(data[1:3]))
	y := int16(binary.BigEndian.Uint16(data[3:5]))
	z := int16(binary.BigEndian.Uint16(data[5:7]))
	return accelScale * float64(x), accelScale * float64(y), accelScale * float64(z)
}
