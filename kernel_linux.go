package evdev

import (
	"bytes"
	"time"
	"unsafe"

	"github.com/daedaluz/fdev/poll"
	ioctl "github.com/daedaluz/goioctl"
	"golang.org/x/sys/unix"
)

// kernelLinux is the production kernelAdapter: it owns no file
// descriptor lifecycle (the caller opened and will close it, §5) and
// only ever performs reads and ioctls on it, following the same thin
// wrapping style as the teacher's Port in port_linux.go.
type kernelLinux struct {
	fd int
}

// newKernelLinux wraps an already-open evdev character device
// descriptor. The descriptor is borrowed, never closed by this type.
func newKernelLinux(fd int) kernelAdapter {
	return &kernelLinux{fd: fd}
}

func byteLen(bits int) int { return (bits + 7) / 8 }

func bitSet(buf []byte, i int) bool {
	byteIdx := i / 8
	if byteIdx >= len(buf) {
		return false
	}
	return buf[byteIdx]&(1<<uint(i%8)) != 0
}

func (k *kernelLinux) ioctl(req uintptr, arg unsafe.Pointer) error {
	return ioctl.Ioctl(uintptr(k.fd), req, uintptr(arg))
}

func (k *kernelLinux) ioctlString(req uintptr, length int) (string, error) {
	buf := make([]byte, length)
	if err := k.ioctl(req, unsafe.Pointer(&buf[0])); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

func (k *kernelLinux) bitmap(req uintptr, nbits int) []byte {
	buf := make([]byte, byteLen(nbits))
	if err := k.ioctl(req, unsafe.Pointer(&buf[0])); err != nil {
		return nil
	}
	return buf
}

func (k *kernelLinux) probe() (*probeResult, error) {
	pr := &probeResult{}

	var version int32
	if err := k.ioctl(evIOCGVersion, unsafe.Pointer(&version)); err == nil {
		pr.driverVersion = version
	}

	var id deviceID
	if err := k.ioctl(evIOCGID, unsafe.Pointer(&id)); err == nil {
		pr.id = id
	}

	pr.name, _ = k.ioctlString(evIOCGNAME(256), 256)
	pr.phys, _ = k.ioctlString(evIOCGPHYS(256), 256)
	pr.uniq, _ = k.ioctlString(evIOCGUNIQ(256), 256)

	typeBits := k.bitmap(evIOCGBIT(0, byteLen(evCnt)), evCnt)
	for t := 0; t < evCnt; t++ {
		if bitSet(typeBits, t) {
			pr.caps.hasType[t] = true
		}
	}
	pr.caps.hasType[EvSyn] = true

	if propBits := k.bitmap(evIOCGPROP(byteLen(propCnt)), propCnt); propBits != nil {
		for p := 0; p < propCnt; p++ {
			pr.caps.hasProp[p] = bitSet(propBits, p)
		}
	}
	// Missing EVIOCGPROP support degrades gracefully: hasProp stays
	// all-false, no error surfaced (§4.1).

	if pr.caps.hasType[EvKey] {
		if bits := k.bitmap(evIOCGBIT(int(EvKey), byteLen(keyCnt)), keyCnt); bits != nil {
			for c := 0; c < keyCnt; c++ {
				pr.caps.hasKey[c] = bitSet(bits, c)
			}
		}
		if bits := k.bitmap(evIOCGKEY(byteLen(keyCnt)), keyCnt); bits != nil {
			for c := 0; c < keyCnt; c++ {
				if bitSet(bits, c) {
					pr.key[c] = 1
				}
			}
		}
	}
	if pr.caps.hasType[EvRel] {
		if bits := k.bitmap(evIOCGBIT(int(EvRel), byteLen(relCnt)), relCnt); bits != nil {
			for c := 0; c < relCnt; c++ {
				pr.caps.hasRel[c] = bitSet(bits, c)
			}
		}
	}
	if pr.caps.hasType[EvAbs] {
		if bits := k.bitmap(evIOCGBIT(int(EvAbs), byteLen(absCnt)), absCnt); bits != nil {
			for c := 0; c < absCnt; c++ {
				pr.caps.hasAbs[c] = bitSet(bits, c)
			}
		}
		for c := 0; c < absCnt; c++ {
			if !pr.caps.hasAbs[c] {
				continue
			}
			var info AbsInfo
			if err := k.ioctl(evIOCGAbs(c), unsafe.Pointer(&info)); err == nil {
				pr.caps.absInfo[c] = info
				pr.abs[c] = info.Value
			}
		}
	}
	if pr.caps.hasType[EvMsc] {
		if bits := k.bitmap(evIOCGBIT(int(EvMsc), byteLen(mscCnt)), mscCnt); bits != nil {
			for c := 0; c < mscCnt; c++ {
				pr.caps.hasMisc[c] = bitSet(bits, c)
			}
		}
	}
	if pr.caps.hasType[EvSwitch] {
		if bits := k.bitmap(evIOCGBIT(int(EvSwitch), byteLen(switchCnt)), switchCnt); bits != nil {
			for c := 0; c < switchCnt; c++ {
				pr.caps.hasSwitch[c] = bitSet(bits, c)
			}
		}
		if bits := k.bitmap(evIOCGSW(byteLen(switchCnt)), switchCnt); bits != nil {
			for c := 0; c < switchCnt; c++ {
				if bitSet(bits, c) {
					pr.sw[c] = 1
				}
			}
		}
	}
	if pr.caps.hasType[EvLed] {
		if bits := k.bitmap(evIOCGBIT(int(EvLed), byteLen(ledCnt)), ledCnt); bits != nil {
			for c := 0; c < ledCnt; c++ {
				pr.caps.hasLed[c] = bitSet(bits, c)
			}
		}
		if bits := k.bitmap(evIOCGLED(byteLen(ledCnt)), ledCnt); bits != nil {
			for c := 0; c < ledCnt; c++ {
				if bitSet(bits, c) {
					pr.led[c] = 1
				}
			}
		}
	}
	if pr.caps.hasType[EvSound] {
		if bits := k.bitmap(evIOCGBIT(int(EvSound), byteLen(soundCnt)), soundCnt); bits != nil {
			for c := 0; c < soundCnt; c++ {
				pr.caps.hasSound[c] = bitSet(bits, c)
			}
		}
	}
	if pr.caps.hasType[EvRepeat] {
		var rep [2]int32
		if err := k.ioctl(evIOCGRep, unsafe.Pointer(&rep)); err == nil {
			pr.caps.hasRepeat = true
			pr.caps.repInfo = RepeatInfo{Delay: rep[0], Period: rep[1]}
			pr.repInfo = pr.caps.repInfo
		}
	}

	pr.fakeMT = pr.caps.hasAbs[absMTSlot] && pr.caps.hasAbs[absReserved]
	if pr.caps.hasAbs[absMTSlot] && !pr.fakeMT {
		n := int(pr.caps.absInfo[absMTSlot].Maximum) + 1
		if n > maxSlots {
			n = maxSlots
		}
		if n < 0 {
			n = 0
		}
		pr.slotCount = n
		pr.slots = make([][absCnt]int32, n)
		for s := range pr.slots {
			pr.slots[s][absMTTrackingID] = trackingIDInactive
		}
		for c := absMTFirst; c <= absMTLast; c++ {
			if c == absMTSlot || !pr.caps.hasAbs[c] {
				continue
			}
			vals, err := k.refetchSlotValues(c, n)
			if err != nil {
				continue // EVIOCGMTSLOTS unsupported: stays zeroed (§4.1)
			}
			for s := 0; s < n && s < len(vals); s++ {
				pr.slots[s][c] = vals[s]
			}
		}
	}

	return pr, nil
}

func (k *kernelLinux) readBatch(blocking bool) ([]InputEvent, error) {
	if blocking {
		if err := poll.WaitInput(k.fd, time.Duration(-1)); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, eventSize*DefaultBatchSize)
	n, err := unix.Read(k.fd, buf)
	if err != nil {
		if IsWouldBlock(err) {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return decodeEvents(buf[:n])
}

func (k *kernelLinux) refetchKeyState() ([keyCnt]int32, error) {
	var out [keyCnt]int32
	bits := make([]byte, byteLen(keyCnt))
	if err := k.ioctl(evIOCGKEY(len(bits)), unsafe.Pointer(&bits[0])); err != nil {
		return out, err
	}
	for c := 0; c < keyCnt; c++ {
		if bitSet(bits, c) {
			out[c] = 1
		}
	}
	return out, nil
}

func (k *kernelLinux) refetchLEDState() ([ledCnt]int32, error) {
	var out [ledCnt]int32
	bits := make([]byte, byteLen(ledCnt))
	if err := k.ioctl(evIOCGLED(len(bits)), unsafe.Pointer(&bits[0])); err != nil {
		return out, err
	}
	for c := 0; c < ledCnt; c++ {
		if bitSet(bits, c) {
			out[c] = 1
		}
	}
	return out, nil
}

func (k *kernelLinux) refetchSwitchState() ([switchCnt]int32, error) {
	var out [switchCnt]int32
	bits := make([]byte, byteLen(switchCnt))
	if err := k.ioctl(evIOCGSW(len(bits)), unsafe.Pointer(&bits[0])); err != nil {
		return out, err
	}
	for c := 0; c < switchCnt; c++ {
		if bitSet(bits, c) {
			out[c] = 1
		}
	}
	return out, nil
}

func (k *kernelLinux) refetchAbsAxis(code int) (int32, error) {
	var info AbsInfo
	if err := k.ioctl(evIOCGAbs(code), unsafe.Pointer(&info)); err != nil {
		return 0, err
	}
	return info.Value, nil
}

// refetchSlotValues issues EVIOCGMTSLOTS with an []int32 buffer laid out
// like struct input_mt_request_layout: a leading code field followed by
// n slot values.
func (k *kernelLinux) refetchSlotValues(code int, n int) ([]int32, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]int32, n+1)
	buf[0] = int32(code)
	size := (n + 1) * 4
	if err := k.ioctl(evIOCGMTSLOTS(size), unsafe.Pointer(&buf[0])); err != nil {
		return nil, err
	}
	return buf[1:], nil
}

func (k *kernelLinux) refetchRepeat() (RepeatInfo, error) {
	var rep [2]int32
	if err := k.ioctl(evIOCGRep, unsafe.Pointer(&rep)); err != nil {
		return RepeatInfo{}, err
	}
	return RepeatInfo{Delay: rep[0], Period: rep[1]}, nil
}

func (k *kernelLinux) applyAbsInfo(code int, info AbsInfo) error {
	return k.ioctl(evIOCSAbs(code), unsafe.Pointer(&info))
}

func (k *kernelLinux) setLEDs(values map[int]int32) error {
	for code, v := range values {
		ev := InputEvent{Type: EvLed, Code: uint16(code), Value: v}
		if _, err := unix.Write(k.fd, encodeEvent(ev)); err != nil {
			return err
		}
	}
	return nil
}

func (k *kernelLinux) setRepeat(info RepeatInfo) error {
	rep := [2]int32{info.Delay, info.Period}
	return k.ioctl(evIOCSRep, unsafe.Pointer(&rep))
}

func (k *kernelLinux) getEventMask(t EventType, nbits int) ([]byte, error) {
	buf := make([]byte, byteLen(nbits))
	req := maskRequest{
		Type:      uint32(t),
		CodesSize: uint32(len(buf)),
		CodesPtr:  uint64(uintptr(unsafe.Pointer(&buf[0]))),
	}
	if err := k.ioctl(evIOCGMask, unsafe.Pointer(&req)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (k *kernelLinux) setEventMask(t EventType, bits []byte) error {
	if len(bits) == 0 {
		return nil
	}
	req := maskRequest{
		Type:      uint32(t),
		CodesSize: uint32(len(bits)),
		CodesPtr:  uint64(uintptr(unsafe.Pointer(&bits[0]))),
	}
	return k.ioctl(evIOCSMask, unsafe.Pointer(&req))
}

func (k *kernelLinux) grab(exclusive bool) error {
	var v int32
	if exclusive {
		v = 1
	}
	return k.ioctl(evIOCGrab, unsafe.Pointer(&v))
}

func (k *kernelLinux) setClockID(id int) error {
	v := int32(id)
	return k.ioctl(evIOCSClockID, unsafe.Pointer(&v))
}

// pollReadable performs a zero-timeout poll for HasEventPending, via
// x/sys/unix directly rather than the teacher's blocking-only poll
// helper (§10).
func (k *kernelLinux) pollReadable() (bool, error) {
	fds := []unix.PollFd{{Fd: int32(k.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil {
		return false, err
	}
	return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
}

// DefaultBatchSize is the number of event records read per readBatch
// call when the internal buffer needs refilling.
const DefaultBatchSize = 64
