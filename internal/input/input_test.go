package input

import (
	"encoding/binary"
	"reflect"
	"testing"
)

func event(tvSize int, typ, code uint16, value int32) []byte {
	rec := make([]byte, tvSize+8)
	binary.LittleEndian.PutUint16(rec[tvSize:], typ)
	binary.LittleEndian.PutUint16(rec[tvSize+2:], code)
	binary.LittleEndian.PutUint32(rec[tvSize+4:], uint32(value))
	return rec
}

func TestPressed(t *testing.T) {
	for _, tvSize := range []int{8, 16} {
		var buf []byte
		buf = append(buf, event(tvSize, evKey, uint16(KeyF4), 1)...)
		buf = append(buf, event(tvSize, evKey, uint16(KeyF4), 0)...)  // release
		buf = append(buf, event(tvSize, evKey, uint16(KeyR), 2)...)   // repeat
		buf = append(buf, event(tvSize, 0x00, 0, 0)...)               // sync
		buf = append(buf, event(tvSize, evKey, uint16(KeyF5), 1)...)
		buf = append(buf, event(tvSize, evKey, uint16(KeyR), 1)[:5]...) // truncated

		var got []Key
		pressed(buf, tvSize, func(k Key) { got = append(got, k) })
		if want := []Key{KeyF4, KeyF5}; !reflect.DeepEqual(got, want) {
			t.Errorf("tvSize %d: pressed = %v, want %v", tvSize, got, want)
		}
	}
}
