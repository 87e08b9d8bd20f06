package accel

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockI2CBus is a mock implementation of imu.I2CBus using testify/mock.
// Written buffers are cloned since the driver reuses its scratch buffer.
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, bytes.Clone(buffer))
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, len(buffer))
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Tx(ctx context.Context, address byte, w, r []byte) error {
	args := m.Called(ctx, address, bytes.Clone(w), len(r))
	if data, ok := args.Get(0).([]byte); ok {
		copy(r, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var expectedConfig = [][]byte{
	{0x2A, 0x00},
	{0x0E, 0x00},
	{0x2B, 0x02},
	{0x2A, 0x15},
	{0x5B, 0x1F},
	{0x5C, 0x20},
}

func readyBus() *MockI2CBus {
	bus := new(MockI2CBus)
	bus.On("Tx", mock.Anything, byte(0x1F), []byte{0x0D}, 1).Return([]byte{0xC7}, nil).Once()
	for _, w := range expectedConfig {
		bus.On("WriteToAddr", mock.Anything, byte(0x1F), w).Return(nil).Once()
	}
	return bus
}

func writtenRegisters(bus *MockI2CBus) [][]byte {
	var res [][]byte
	for _, call := range bus.Calls {
		if call.Method == "WriteToAddr" {
			res = append(res, call.Arguments.Get(2).([]byte))
		}
	}
	return res
}

func TestFXOS8700_New(t *testing.T) {
	bus := readyBus()
	s, err := NewFXOS8700(context.Background(), bus)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, expectedConfig, writtenRegisters(bus))
	bus.AssertExpectations(t)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
	bus.AssertNotCalled(t, "Release", mock.Anything)
}

func TestFXOS8700_NewWrongID(t *testing.T) {
	for _, id := range []byte{0x00, 0xC6, 0xC8, 0xFF, 0x6A} {
		t.Run(hex.EncodeToString([]byte{id}), func(t *testing.T) {
			bus := new(MockI2CBus)
			bus.On("Tx", mock.Anything, byte(0x1F), []byte{0x0D}, 1).Return([]byte{id}, nil).Once()
			s, err := NewFXOS8700(context.Background(), bus)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrDeviceNotFound)
			bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
			bus.AssertExpectations(t)
		})
	}
}

func TestFXOS8700_NewTransportError(t *testing.T) {
	busErr := errors.New("no ack")

	t.Run("identity read", func(t *testing.T) {
		bus := new(MockI2CBus)
		bus.On("Tx", mock.Anything, byte(0x1F), []byte{0x0D}, 1).Return(nil, busErr).Once()
		_, err := NewFXOS8700(context.Background(), bus)
		assert.ErrorIs(t, err, busErr)
		assert.NotErrorIs(t, err, ErrDeviceNotFound)
		bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("configuration write", func(t *testing.T) {
		bus := new(MockI2CBus)
		bus.On("Tx", mock.Anything, byte(0x1F), []byte{0x0D}, 1).Return([]byte{0xC7}, nil).Once()
		bus.On("WriteToAddr", mock.Anything, byte(0x1F), expectedConfig[0]).Return(nil).Once()
		bus.On("WriteToAddr", mock.Anything, byte(0x1F), expectedConfig[1]).Return(nil).Once()
		bus.On("WriteToAddr", mock.Anything, byte(0x1F), expectedConfig[2]).Return(busErr).Once()
		s, err := NewFXOS8700(context.Background(), bus)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, busErr)
		assert.Len(t, writtenRegisters(bus), 3)
		bus.AssertExpectations(t)
	})
}

func TestFXOS8700_ReadRegister(t *testing.T) {
	for _, length := range []int{1, 6, 13} {
		t.Run(fmt.Sprintf("length %d", length), func(t *testing.T) {
			bus := new(MockI2CBus)
			resp := bytes.Repeat([]byte{0xA5}, length)
			bus.On("Tx", mock.Anything, byte(0x1F), []byte{0x33}, length).Return(resp, nil).Once()
			s := &FXOS8700{transport: bus, buf: make([]byte, 16)}
			data, err := s.readRegister(context.Background(), 0x33, length)
			require.NoError(t, err)
			assert.Equal(t, resp, data)
			bus.AssertExpectations(t)
			// address write and read happen in a single transaction
			require.Len(t, bus.Calls, 1)
		})
	}
}

func TestFXOS8700_ReadRegisterInvalidLength(t *testing.T) {
	bus := new(MockI2CBus)
	s := &FXOS8700{transport: bus, buf: make([]byte, 16)}
	for _, length := range []int{0, -1, 14, 16} {
		_, err := s.readRegister(context.Background(), regStatus, length)
		assert.Error(t, err)
	}
	assert.Empty(t, bus.Calls)
}

func TestFXOS8700_WriteRegister(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x1F), []byte{0x2B, 0x02}).Return(nil).Once()
	s := &FXOS8700{transport: bus, buf: make([]byte, 16)}
	require.NoError(t, s.writeRegister(context.Background(), 0x2B, 0x02))
	bus.AssertExpectations(t)
}

func TestFXOS8700_GetAcceleration(t *testing.T) {
	bus := readyBus()
	block := []byte{0x00, 0x00, 0x64, 0x00, 0xC8, 0xFF, 0x38, 0, 0, 0, 0, 0, 0}
	bus.On("Tx", mock.Anything, byte(0x1F), []byte{0x00}, 13).Return(block, nil).Once()
	ctx := context.Background()
	s, err := NewFXOS8700(ctx, bus)
	require.NoError(t, err)

	x, y, z, err := s.GetAcceleration(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.0598206, x, 1e-6)
	assert.InDelta(t, 0.1196411, y, 1e-6)
	assert.InDelta(t, -0.1196411, z, 1e-6)
	bus.AssertExpectations(t)
}

func TestFXOS8700_GetAccelerationTransportError(t *testing.T) {
	bus := readyBus()
	busErr := errors.New("bus busy")
	bus.On("Tx", mock.Anything, byte(0x1F), []byte{0x00}, 13).Return(nil, busErr).Once()
	ctx := context.Background()
	s, err := NewFXOS8700(ctx, bus)
	require.NoError(t, err)

	_, _, _, err = s.GetAcceleration(ctx)
	assert.ErrorIs(t, err, busErr)
}

func TestFXOS8700_DecodeAcceleration(t *testing.T) {
	tests := []struct {
		given   []byte
		x, y, z int16
	}{
		{[]byte{0x00, 0x00, 0x64, 0x00, 0xC8, 0xFF, 0x38, 0, 0, 0, 0, 0, 0}, 100, 200, -200},
		{[]byte{0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x01, 1, 2, 3, 4, 5, 6}, -1, 0, 1},
		{[]byte{0x00, 0x7F, 0xFF, 0x80, 0x00, 0x10, 0x00, 0, 0, 0, 0, 0, 0}, 32767, -32768, 4096},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given[:7]), func(t *testing.T) {
			x, y, z := decodeAcceleration(test.given)
			assert.Equal(t, accelScale*float64(test.x), x)
			assert.Equal(t, accelScale*float64(test.y), y)
			assert.Equal(t, accelScale*float64(test.z), z)
		})
	}
}

func TestFXOS8700_DecodeNegativeOne(t *testing.T) {
	x, _, _ := decodeAcceleration([]byte{0x00, 0xFF, 0xFF, 0, 0, 0, 0})
	assert.InDelta(t, -0.00059820565, x, 1e-12)
}
