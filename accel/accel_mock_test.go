package accel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockAccelerometer_Static(t *testing.T) {
	sensor := NewStaticMockAccelerometer(0, 0, 9.80665)
	x, y, z, err := sensor.GetAcceleration(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
	assert.Equal(t, 9.80665, z)
}

func TestMockAccelerometer_Behavior(t *testing.T) {
	calls := 0
	sensor := NewMockAccelerometer(func(ctx context.Context) (float64, float64, float64, error) {
		calls++
		if calls > 2 {
			return 0, 0, 0, errors.New("sensor unplugged")
		}
		return float64(calls), -float64(calls), 0, nil
	})
	ctx := context.Background()

	x, y, _, err := sensor.GetAcceleration(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, -1.0, y)

	x, _, _, err = sensor.GetAcceleration(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, x)

	_, _, _, err = sensor.GetAcceleration(ctx)
	assert.EqualError(t, err, "sensor unplugged")
}
