//go:build linux

package scanner

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/holoplot/go-evdev"
)

func press(code evdev.EvCode) evdev.InputEvent {
	return evdev.InputEvent{Type: evdev.EV_KEY, Code: code, Value: 1}
}

func release(code evdev.EvCode) evdev.InputEvent {
	return evdev.InputEvent{Type: evdev.EV_KEY, Code: code, Value: 0}
}

func TestDecoderAccumulatesDigits(t *testing.T) {
	d := NewDecoder(nil)
	events := []evdev.InputEvent{
		press(evdev.KEY_1), release(evdev.KEY_1),
		press(evdev.KEY_A), release(evdev.KEY_A),
		{Type: evdev.EV_SYN, Code: 0, Value: 0},
		press(evdev.KEY_2), release(evdev.KEY_2),
		press(evdev.KEY_KP3), release(evdev.KEY_KP3),
	}
	for _, ev := range events {
		if _, ok := d.Feed(ev); ok {
			t.Fatalf("unexpected flush before enter")
		}
	}
	barcode, ok := d.Feed(press(evdev.KEY_ENTER))
	if !ok || barcode != "123" {
		t.Fatalf("expected 123, got %q (ok=%v)", barcode, ok)
	}
	if d.Pending() != "" {
		t.Fatalf("buffer not cleared: %q", d.Pending())
	}
}

func TestDecoderIgnoresRepeatAndEmptyEnter(t *testing.T) {
	d := NewDecoder(nil)
	if _, ok := d.Feed(press(evdev.KEY_ENTER)); ok {
		t.Fatalf("empty enter must not flush")
	}
	d.Feed(press(evdev.KEY_9))
	d.Feed(evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_9, Value: 2})
	if d.Pending() != "9" {
		t.Fatalf("autorepeat must be ignored, pending %q", d.Pending())
	}
}

func TestFindDevice(t *testing.T) {
	list := func() ([]evdev.InputPath, error) {
		return []evdev.InputPath{
			{Name: "AT Translated Set 2 keyboard", Path: "/dev/input/event0"},
			{Name: "Honeywell BARCODE Scanner", Path: "/dev/input/event5"},
		}, nil
	}

	p, err := FindDevice(list, "barcode")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if p.Path != "/dev/input/event5" {
		t.Fatalf("wrong device %+v", p)
	}

	if _, err := FindDevice(list, "zebra"); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

type fakeDevice struct {
	events []evdev.InputEvent
	err    error
	closed bool
}

func (f *fakeDevice) ReadOne() (*evdev.InputEvent, error) {
	if len(f.events) == 0 {
		if f.err != nil {
			return nil, f.err
		}
		return nil, syscall.EAGAIN
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return &ev, nil
}

func (f *fakeDevice) Close() error {
	f.closed = true
	return nil
}

func TestDeviceSourceNext(t *testing.T) {
	dev := &fakeDevice{events: []evdev.InputEvent{
		press(evdev.KEY_1), press(evdev.KEY_2), press(evdev.KEY_3),
		press(evdev.KEY_LEFTSHIFT),
		press(evdev.KEY_ENTER),
	}}
	src := newDeviceSource(dev, evdev.InputPath{Name: "scanner", Path: "/dev/input/event9"}, time.Millisecond)

	scan, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if scan.Barcode != "123" || scan.Source != SourceDevice {
		t.Fatalf("unexpected scan %+v", scan)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected poll loop to stop on deadline, got %v", err)
	}

	if err := src.Close(); err != nil || !dev.closed {
		t.Fatalf("close: %v closed=%v", err, dev.closed)
	}
}

func TestDeviceSourceReadError(t *testing.T) {
	dev := &fakeDevice{err: syscall.ENODEV}
	src := newDeviceSource(dev, evdev.InputPath{Path: "/dev/input/event9"}, time.Millisecond)

	if _, err := src.Next(context.Background()); !errors.Is(err, syscall.ENODEV) {
		t.Fatalf("expected ENODEV, got %v", err)
	}
}
