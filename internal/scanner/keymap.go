//go:build linux

package scanner

import "github.com/holoplot/go-evdev"

// KeyMap translates key codes into barcode characters. A '\n' value marks a key that
// completes the current barcode.
//
// Only digits are mapped, so scanners that emit alphabetic SKUs lose those characters.
type KeyMap map[evdev.EvCode]rune

// DefaultKeyMap covers the top-row digits, the keypad digits and both Enter keys.
var DefaultKeyMap = KeyMap{
	evdev.KEY_1: '1',
	evdev.KEY_2: '2',
	evdev.KEY_3: '3',
	evdev.KEY_4: '4',
	evdev.KEY_5: '5',
	evdev.KEY_6: '6',
	evdev.KEY_7: '7',
	evdev.KEY_8: '8',
	evdev.KEY_9: '9',
	evdev.KEY_0: '0',

	evdev.KEY_KP1: '1',
	evdev.KEY_KP2: '2',
	evdev.KEY_KP3: '3',
	evdev.KEY_KP4: '4',
	evdev.KEY_KP5: '5',
	evdev.KEY_KP6: '6',
	evdev.KEY_KP7: '7',
	evdev.KEY_KP8: '8',
	evdev.KEY_KP9: '9',
	evdev.KEY_KP0: '0',

	evdev.KEY_ENTER:   '\n',
	evdev.KEY_KPENTER: '\n',
}

// keyPress is the EV_KEY value for a key going down; 0 is release and 2 is autorepeat.
const keyPress = 1

// Decoder accumulates key presses into barcodes.
type Decoder struct {
	keys KeyMap
	buf  []rune
}

// NewDecoder returns a Decoder using keys, or DefaultKeyMap when keys is nil.
func NewDecoder(keys KeyMap) *Decoder {
	if keys == nil {
		keys = DefaultKeyMap
	}
	return &Decoder{keys: keys}
}

// Feed consumes one input event. It returns the buffered barcode and true when the event is
// an Enter press on a non-empty buffer.
func (d *Decoder) Feed(ev evdev.InputEvent) (string, bool) {
	if ev.Type != evdev.EV_KEY || ev.Value != keyPress {
		return "", false
	}
	r, ok := d.keys[ev.Code]
	if !ok {
		return "", false
	}
	if r != '\n' {
		d.buf = append(d.buf, r)
		return "", false
	}
	if len(d.buf) == 0 {
		return "", false
	}
	barcode := string(d.buf)
	d.buf = d.buf[:0]
	return barcode, true
}

// Pending returns the characters buffered since the last flush.
func (d *Decoder) Pending() string {
	return string(d.buf)
}
