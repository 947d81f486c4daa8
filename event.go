package evdev

import (
	"encoding/binary"
	"time"
	"unsafe"
)

// InputEvent is the fixed 4-tuple the kernel emits for every state
// change: a timestamp, an event type, a type-scoped code, and a signed
// value whose meaning depends on (Type, Code).
type InputEvent struct {
	Sec   int64
	Usec  int64
	Type  EventType
	Code  uint16
	Value int32
}

// Time returns the event timestamp as a time.Time in the wall-clock
// domain the kernel was configured to stamp with (see SetClockID).
func (e InputEvent) Time() time.Time {
	return time.Unix(e.Sec, e.Usec*1000)
}

// rawEvent mirrors the kernel's struct input_event layout on a 64-bit
// Linux system: two 8-byte time fields (seconds, microseconds as
// platform-width longs), a 16-bit type, a 16-bit code, and a 32-bit
// signed value.
type rawEvent struct {
	sec   int64
	usec  int64
	typ   uint16
	code  uint16
	value int32
}

// eventSize is the on-the-wire size of one record. Reads from the
// descriptor must be exact multiples of this; a short trailing read
// indicates a truncated buffer (§6).
const eventSize = int(unsafe.Sizeof(rawEvent{}))

// decodeEvents splits buf, a byte slice that must hold a whole number
// of records, into InputEvents. It returns ErrTruncatedRead if buf's
// length is not a multiple of eventSize.
func decodeEvents(buf []byte) ([]InputEvent, error) {
	if len(buf)%eventSize != 0 {
		return nil, ErrTruncatedRead
	}
	n := len(buf) / eventSize
	out := make([]InputEvent, n)
	for i := 0; i < n; i++ {
		off := i * eventSize
		out[i] = InputEvent{
			Sec:   int64(binary.LittleEndian.Uint64(buf[off : off+8])),
			Usec:  int64(binary.LittleEndian.Uint64(buf[off+8 : off+16])),
			Type:  EventType(binary.LittleEndian.Uint16(buf[off+16 : off+18])),
			Code:  binary.LittleEndian.Uint16(buf[off+18 : off+20]),
			Value: int32(binary.LittleEndian.Uint32(buf[off+20 : off+24])),
		}
	}
	return out, nil
}

// encodeEvent renders e in the kernel's wire layout, for writing events
// to the descriptor (LED output, see kernelLinux.setLEDs).
func encodeEvent(e InputEvent) []byte {
	buf := make([]byte, eventSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.Sec))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.Usec))
	binary.LittleEndian.PutUint16(buf[16:18], uint16(e.Type))
	binary.LittleEndian.PutUint16(buf[18:20], e.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(e.Value))
	return buf
}

func synEvent(ts InputEvent, code uint16, value int32) InputEvent {
	return InputEvent{Sec: ts.Sec, Usec: ts.Usec, Type: EvSyn, Code: code, Value: value}
}
