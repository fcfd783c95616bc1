// Package input binds evdev key presses to actions on the device.
package input

import "encoding/binary"

const evKey = 0x01

// Key is a Linux input-event-codes.h key code.
type Key uint16

const (
	KeyR  Key = 19
	KeyF4 Key = 62
	KeyF5 Key = 63
)

type logger interface {
	Infof(component, format string, args ...interface{})
	Errorf(component, format string, args ...interface{})
}

// pressed walks buf as a run of input_event records (a timeval of tvSize
// bytes, then u16 type, u16 code and s32 value) and reports every key-down.
func pressed(buf []byte, tvSize int, fn func(Key)) {
	size := tvSize + 8
	for off := 0; off+size <= len(buf); off += size {
		rec := buf[off : off+size]
		typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
		code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
		if typ == evKey && value == 1 {
			fn(Key(code))
		}
	}
}
