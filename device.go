package evdev

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Device is a handle to one open evdev character device. All read
// operations go through Next; the State Cache and Capability Set are
// otherwise only visible through the accessor methods below. A Device
// is safe for one reader at a time; Close/Grab/Ungrab and the
// accessors may be called concurrently with that reader (§5).
type Device struct {
	kernel kernelAdapter
	fd     int
	closed atomic.Bool

	driverVersion int32
	id            deviceID
	name          string
	phys          string
	uniq          string

	caps  CapabilitySet
	cache *StateCache

	rawBuf     []InputEvent
	discarding bool
}

// Attach opens path (typically /dev/input/eventN), probes its
// capabilities and initial state, and returns a ready Device.
func Attach(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, wrapErr("evdev: open "+path, err)
	}
	d, err := attachFD(fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return d, nil
}

func attachFD(fd int) (*Device, error) {
	k := newKernelLinux(fd)
	pr, err := k.probe()
	if err != nil {
		return nil, wrapErr("evdev: probe", err)
	}
	d := &Device{
		kernel:        k,
		fd:            fd,
		driverVersion: pr.driverVersion,
		id:            pr.id,
		name:          pr.name,
		phys:          pr.phys,
		uniq:          pr.uniq,
		caps:          pr.caps,
	}
	d.cache = newStateCache(&d.caps, pr.slotCount, pr.fakeMT)
	d.cache.key = pr.key
	d.cache.abs = pr.abs
	d.cache.sw = pr.sw
	d.cache.led = pr.led
	d.cache.repInfo = pr.repInfo
	for s := 0; s < pr.slotCount && s < len(pr.slots); s++ {
		d.cache.slotValue[s] = pr.slots[s]
	}
	return d, nil
}

// Close releases the underlying descriptor. Subsequent calls return
// ErrClosed.
func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return unix.Close(d.fd)
}

func (d *Device) checkOpen() error {
	if d.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Name, Phys, Uniq return the device's reported name, physical
// topology path, and unique identifier. Any may be empty: the kernel
// does not require a device to populate them (§3).
func (d *Device) Name() string { return d.name }
func (d *Device) Phys() string { return d.phys }
func (d *Device) Uniq() string { return d.uniq }

// BusType, Vendor, Product, Version return the struct input_id fields.
func (d *Device) BusType() uint16 { return d.id.BusType }
func (d *Device) Vendor() uint16  { return d.id.Vendor }
func (d *Device) Product() uint16 { return d.id.Product }
func (d *Device) Version() uint16 { return d.id.Version }

// DriverVersion returns the evdev driver ABI version from EVIOCGVERSION
// (§11, restored from the original implementation).
func (d *Device) DriverVersion() int32 { return d.driverVersion }

// Capabilities returns the device's Capability Set. The returned
// pointer is shared with the Device's internal state; callers may read
// it freely but mutating it affects this Device's own dispatch.
func (d *Device) Capabilities() *CapabilitySet { return &d.caps }

// State returns the Device's State Cache for direct, signal-safe value
// queries (§4.2).
func (d *Device) State() *StateCache { return d.cache }

// Next returns the next event along with its Status. With NoBlock set,
// it returns ErrNoEvent instead of blocking when nothing is available.
// Synthesized events still queued from an earlier resync are returned
// first. With ForceSync set and nothing queued, it runs the Resync
// Engine before reading anything further from the descriptor. With
// IgnoreSync set, a SYN_DROPPED record is returned verbatim as
// StatusDropped instead of triggering automatic resynchronization.
// Records whose type or code is disabled in the Capability Set are
// skipped. A Device with no State Cache yields ErrNotAttached.
func (d *Device) Next(flags ReadFlags) (Status, InputEvent, error) {
	if err := d.checkOpen(); err != nil {
		return StatusNormal, InputEvent{}, err
	}
	if d.cache == nil {
		return StatusNormal, InputEvent{}, ErrNotAttached
	}

	if len(d.cache.queue) > 0 {
		if flags&IgnoreSync != 0 {
			// Caller opted out of automatic resync after the fact:
			// discard whatever the Resync Engine had queued and fall
			// through to plain ingest instead of handing back more
			// synthesized events (§4.5 dropped-without-sync fallback,
			// Concrete Scenario 6 "Ignored sync").
			d.cache.clearQueue()
		} else if ev, ok := d.cache.popEvent(); ok {
			return StatusSync, ev, nil
		}
	}

	if flags&ForceSync != 0 {
		ts := d.peekTimestamp()
		delta := runResync(d.cache, d.kernel, ts)
		d.cache.queue = delta
		ev, _ := d.cache.popEvent()
		return StatusSync, ev, nil
	}

	for {
		if len(d.rawBuf) == 0 {
			batch, err := d.kernel.readBatch(flags&NoBlock == 0)
			if err != nil {
				return StatusNormal, InputEvent{}, wrapErr("evdev: read", err)
			}
			if len(batch) == 0 {
				return StatusNormal, InputEvent{}, ErrNoEvent
			}
			d.rawBuf = batch
		}

		rec := d.rawBuf[0]
		d.rawBuf = d.rawBuf[1:]

		if d.discarding {
			if rec.Type == EvSyn && rec.Code == SynReport {
				d.discarding = false
			}
			continue
		}

		if rec.Type == EvSyn && rec.Code == SynDropped {
			if flags&IgnoreSync != 0 {
				return StatusDropped, rec, nil
			}
			d.discarding = true
			delta := runResync(d.cache, d.kernel, rec)
			d.cache.queue = delta
			ev, _ := d.cache.popEvent()
			return StatusSync, ev, nil
		}

		if rec.Type != EvSyn && !d.caps.HasType(rec.Type) {
			continue
		}
		if _, ok := d.caps.bitsFor(rec.Type); ok && !d.caps.HasCode(rec.Type, int(rec.Code)) {
			continue
		}

		applyRecord(d.cache, rec)
		return StatusNormal, rec, nil
	}
}

// peekTimestamp returns a timestamp to stamp a ForceSync delta with:
// that of the next buffered, not yet delivered record when one exists,
// else a zero timestamp. The time of the last delivered event is not
// kept.
func (d *Device) peekTimestamp() InputEvent {
	if len(d.rawBuf) > 0 {
		return d.rawBuf[0]
	}
	return InputEvent{}
}

// HasEventPending reports whether a subsequent Next would return
// immediately without blocking.
func (d *Device) HasEventPending() (bool, error) {
	if err := d.checkOpen(); err != nil {
		return false, err
	}
	if len(d.rawBuf) > 0 || len(d.cache.queue) > 0 {
		return true, nil
	}
	return d.kernel.pollReadable()
}

// Grab requests exclusive access to the device; Ungrab releases it.
func (d *Device) Grab() error   { return d.kernel.grab(true) }
func (d *Device) Ungrab() error { return d.kernel.grab(false) }

// SetClockID selects the clock domain (e.g. CLOCK_MONOTONIC) future
// event timestamps are reported in.
func (d *Device) SetClockID(id int) error {
	return d.kernel.setClockID(id)
}

// LEDRequest accumulates LED output changes to apply in one ioctl-free
// batch of EV_LED writes, replacing the teacher's variadic/terminator-
// sentinel call form (SPEC_FULL.md §9 Design Notes).
type LEDRequest struct {
	values map[int]int32
}

// NewLEDRequest returns an empty LED change batch.
func NewLEDRequest() *LEDRequest {
	return &LEDRequest{values: make(map[int]int32)}
}

// Set stages code to be written as on (1) or off (0).
func (r *LEDRequest) Set(code int, on bool) *LEDRequest {
	v := int32(0)
	if on {
		v = 1
	}
	r.values[code] = v
	return r
}

// Apply writes the staged LED changes to the device.
func (d *Device) Apply(r *LEDRequest) error {
	if len(r.values) == 0 {
		return nil
	}
	return d.kernel.setLEDs(r.values)
}

// SetRepeat writes new auto-repeat delay/period parameters.
func (d *Device) SetRepeat(info RepeatInfo) error {
	if err := d.kernel.setRepeat(info); err != nil {
		return wrapErr("evdev: set repeat", err)
	}
	d.caps.hasRepeat = true
	d.caps.repInfo = info
	return nil
}

// EventMask returns the kernel's current opt-in event filter bitmap
// for type t (EVIOCGMASK), sized for typeMax(t) codes.
func (d *Device) EventMask(t EventType) ([]byte, error) {
	bits, err := d.kernel.getEventMask(t, typeMax(t))
	if err != nil {
		return nil, wrapErr("evdev: get event mask", err)
	}
	return bits, nil
}

// SetEventMask writes the kernel's opt-in event filter bitmap for type
// t (EVIOCSMASK).
func (d *Device) SetEventMask(t EventType, bits []byte) error {
	if err := d.kernel.setEventMask(t, bits); err != nil {
		return wrapErr("evdev: set event mask", err)
	}
	return nil
}

// SetAbsInfo writes new parameters for an absolute axis through
// EVIOCSABS, the one capability mutation that reaches the kernel
// instead of staying local to this process (§4.1).
func (d *Device) SetAbsInfo(code int, info AbsInfo) error {
	if err := d.kernel.applyAbsInfo(code, info); err != nil {
		return wrapErr("evdev: set abs info", err)
	}
	return d.caps.EnableCode(EvAbs, code, &info, nil)
}
