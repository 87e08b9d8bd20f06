package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/mklimuk/imu/accel"
)

func fxos8700Init() []i2ctest.IO {
	return []i2ctest.IO{
		// identity check is a single write+read transaction
		{Addr: 0x1F, W: []byte{0x0D}, R: []byte{0xC7}},
		{Addr: 0x1F, W: []byte{0x2A, 0x00}},
		{Addr: 0x1F, W: []byte{0x0E, 0x00}},
		{Addr: 0x1F, W: []byte{0x2B, 0x02}},
		{Addr: 0x1F, W: []byte{0x2A, 0x15}},
		{Addr: 0x1F, W: []byte{0x5B, 0x1F}},
		{Addr: 0x1F, W: []byte{0x5C, 0x20}},
	}
}

func TestGenericBus_FXOS8700(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: append(fxos8700Init(),
			i2ctest.IO{Addr: 0x1F, W: []byte{0x00}, R: []byte{0xFF, 0x00, 0x64, 0x00, 0xC8, 0xFF, 0x38, 1, 2, 3, 4, 5, 6}},
			i2ctest.IO{Addr: 0x1F, W: []byte{0x00}, R: []byte{0x00, 0xFF, 0xFF, 0x00, 0x00, 0x40, 0x00, 0, 0, 0, 0, 0, 0}},
		),
	}
	bus := NewBus(playback)
	ctx := context.Background()

	s, err := accel.NewFXOS8700(ctx, bus)
	require.NoError(t, err)

	x, y, z, err := s.GetAcceleration(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.0598206, x, 1e-6)
	assert.InDelta(t, 0.1196411, y, 1e-6)
	assert.InDelta(t, -0.1196411, z, 1e-6)

	x, y, z, err = s.GetAcceleration(ctx)
	require.NoError(t, err)
	assert.InDelta(t, -0.000598206, x, 1e-9)
	assert.Equal(t, 0.0, y)
	assert.InDelta(t, 9.80, z, 0.01)

	// all recorded operations consumed
	require.NoError(t, bus.Close())
}

func TestGenericBus_FXOS8700NotFound(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x1F, W: []byte{0x0D}, R: []byte{0x6A}},
		},
	}
	bus := NewBus(playback)
	_, err := accel.NewFXOS8700(context.Background(), bus)
	assert.ErrorIs(t, err, accel.ErrDeviceNotFound)
	require.NoError(t, bus.Close())
}

func TestGenericBus_ReadWrite(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x27, W: []byte{0x01, 0x02}},
			{Addr: 0x27, R: []byte{0xAB, 0xCD}},
		},
	}
	bus := NewBus(playback)
	ctx := context.Background()
	require.NoError(t, bus.WriteToAddr(ctx, 0x27, []byte{0x01, 0x02}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x27, buf))
	assert.Equal(t, []byte{0xAB, 0xCD}, buf)
	require.NoError(t, bus.Release(ctx))
	require.NoError(t, bus.Close())
}
