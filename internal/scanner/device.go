//go:build linux

package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/holoplot/go-evdev"
)

// ErrDeviceNotFound is returned when no input device name matches the configured substring.
var ErrDeviceNotFound = errors.New("scanner device not found")

// DeviceLister enumerates input devices.
type DeviceLister func() ([]evdev.InputPath, error)

// FindDevice returns the first device whose name contains substr, ignoring case.
func FindDevice(list DeviceLister, substr string) (evdev.InputPath, error) {
	paths, err := list()
	if err != nil {
		return evdev.InputPath{}, fmt.Errorf("list input devices: %w", err)
	}
	needle := strings.ToLower(substr)
	for _, p := range paths {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p, nil
		}
	}
	return evdev.InputPath{}, fmt.Errorf("%w: no device name contains %q (%d devices checked)", ErrDeviceNotFound, substr, len(paths))
}

type eventDevice interface {
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

// DeviceSource reads scans from a keyboard-emulating barcode scanner.
type DeviceSource struct {
	dev     eventDevice
	path    evdev.InputPath
	decoder *Decoder
	poll    time.Duration
	release func() error
}

// OpenDevice finds the scanner among all input devices, opens it in non-blocking mode and
// optionally grabs it.
func OpenDevice(cfg DeviceConfig) (*DeviceSource, error) {
	path, err := FindDevice(evdev.ListDevicePaths, cfg.NameContains)
	if err != nil {
		return nil, err
	}
	dev, err := evdev.Open(path.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path.Path, err)
	}
	if err := dev.NonBlock(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("set non-blocking %s: %w", path.Path, err)
	}
	src := newDeviceSource(dev, path, cfg.PollInterval)
	if cfg.Grab {
		if err := dev.Grab(); err != nil {
			dev.Close()
			return nil, fmt.Errorf("grab %s: %w", path.Path, err)
		}
		src.release = dev.Ungrab
	}
	return src, nil
}

func newDeviceSource(dev eventDevice, path evdev.InputPath, poll time.Duration) *DeviceSource {
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	return &DeviceSource{
		dev:     dev,
		path:    path,
		decoder: NewDecoder(nil),
		poll:    poll,
	}
}

// Path reports the device that was opened.
func (s *DeviceSource) Path() evdev.InputPath { return s.path }

// Next polls the device until a complete barcode has been typed. Read failures other than
// "no data yet" are returned to the caller as fatal.
func (s *DeviceSource) Next(ctx context.Context) (Scan, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Scan{}, err
		}
		ev, err := s.dev.ReadOne()
		if err != nil {
			if !errors.Is(err, syscall.EAGAIN) {
				return Scan{}, fmt.Errorf("read %s: %w", s.path.Path, err)
			}
			select {
			case <-ctx.Done():
				return Scan{}, ctx.Err()
			case <-time.After(s.poll):
			}
			continue
		}
		if barcode, ok := s.decoder.Feed(*ev); ok {
			return NewScan(barcode, SourceDevice, time.Unix(0, ev.Time.Nano())), nil
		}
	}
}

// Close releases the grab, if any, and closes the device handle.
func (s *DeviceSource) Close() error {
	var releaseErr error
	if s.release != nil {
		releaseErr = s.release()
		s.release = nil
	}
	return errors.Join(releaseErr, s.dev.Close())
}
