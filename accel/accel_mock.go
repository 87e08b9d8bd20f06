package accel

import "context"

// AccelerationBehaviorFunc defines the function signature for accelerometer behavior.
// It returns X, Y and Z acceleration in m/s² or an error.
type AccelerationBehaviorFunc func(ctx context.Context) (float64, float64, float64, error)

// MockAccelerometer is a mock implementation of an accelerometer that uses a behavior function
// to produce readings without requiring any hardware.
type MockAccelerometer struct {
	behavior AccelerationBehaviorFunc
}

// NewMockAccelerometer creates a new mock accelerometer with the given behavior function.
//
// Example usage:
//
//	// Device lying flat
//	sensor := NewMockAccelerometer(func(ctx context.Context) (float64, float64, float64, error) {
//		return 0, 0, 9.80665, nil
//	})
func NewMockAccelerometer(behavior AccelerationBehaviorFunc) *MockAccelerometer {
	return &MockAccelerometer{behavior: behavior}
}

// NewStaticMockAccelerometer returns a mock that always reports the same reading.
func NewStaticMockAccelerometer(x, y, z float64) *MockAccelerometer {
	return NewMockAccelerometer(func(ctx context.Context) (float64, float64, float64, error) {
		return x, y, z, nil
	})
}

func (m *MockAccelerometer) GetAcceleration(ctx context.Context) (float64, float64, float64, error) {
	return m.behavior(ctx)
}
