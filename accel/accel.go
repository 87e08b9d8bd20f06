package accel

import "context"

// Accelerometer is implemented by sensors returning acceleration in m/s².
type Accelerometer interface {
	GetAcceleration(ctx context.Context) (float64, float64, float64, error)
}

var _ Accelerometer = &FXOS8700{}
var _ Accelerometer = &MockAccelerometer{}
