//go:build !linux

package scanner

import (
	"errors"
	"runtime"
)

// ErrDeviceNotFound is returned when no input device name matches the configured substring.
var ErrDeviceNotFound = errors.New("scanner device not found")

// OpenDevice is only supported on Linux, where evdev exposes raw input devices.
func OpenDevice(cfg DeviceConfig) (Source, error) {
	return nil, errors.New("device mode is not supported on " + runtime.GOOS)
}
