package evdev

// trackingIDInactive is the distinguished ABS_MT_TRACKING_ID value
// that marks a multi-touch slot as having no active contact (§3).
const trackingIDInactive = -1

// StateCache holds the last observed logical value for every (type,
// code) that carries retained state, plus the multi-touch slot table
// and the pending-delivery queue. Read operations never touch the
// descriptor (§4.2); only the Ingest and Resync engines mutate it
// during normal operation.
type StateCache struct {
	caps *CapabilitySet

	key    [keyCnt]int32
	abs    [absCnt]int32
	sw [switchCnt]int32
	led    [ledCnt]int32

	repInfo RepeatInfo

	slotCount   int
	slotValue   [][absCnt]int32 // indexed [slot][code], only MT codes meaningful
	currentSlot int

	fakeMT bool

	queue []InputEvent
}

// newStateCache allocates a cache shaped by caps. slotCount is clamped
// to the hard ceiling (§9 Open Questions: enforced at attach).
func newStateCache(caps *CapabilitySet, slotCount int, fakeMT bool) *StateCache {
	if slotCount > maxSlots {
		slotCount = maxSlots
	}
	if slotCount < 0 {
		slotCount = 0
	}
	sc := &StateCache{
		caps:        caps,
		slotCount:   slotCount,
		currentSlot: 0,
		fakeMT:      fakeMT,
	}
	sc.slotValue = make([][absCnt]int32, slotCount)
	for s := range sc.slotValue {
		sc.slotValue[s][absMTTrackingID] = trackingIDInactive
	}
	return sc
}

// Value returns the cached value for (t, code). Querying a disabled or
// out-of-range (t, code) returns 0 without error (§4.2). Relative axes
// never surface a retained value (§9): they always read as 0.
func (s *StateCache) Value(t EventType, code int) int32 {
	if !s.caps.HasCode(t, code) {
		return 0
	}
	switch t {
	case EvKey:
		return s.key[code]
	case EvAbs:
		if s.slotCount > 0 && !s.fakeMT && isMTCode(code) && code != absMTSlot {
			return s.SlotValue(s.currentSlot, code)
		}
		return s.abs[code]
	case EvSwitch:
		return s.sw[code]
	case EvLed:
		return s.led[code]
	default:
		return 0
	}
}

// SlotValue returns the cached value of multi-touch code for an
// explicit slot index. Out-of-range slots yield 0 (§4.2).
func (s *StateCache) SlotValue(slot, code int) int32 {
	if slot < 0 || slot >= s.slotCount || code < 0 || code >= absCnt {
		return 0
	}
	return s.slotValue[slot][code]
}

// CurrentSlot returns the slot index multi-touch writes currently apply
// to.
func (s *StateCache) CurrentSlot() int { return s.currentSlot }

// SlotCount returns the number of tracked multi-touch slots (0 for a
// non-MT or fake-MT device).
func (s *StateCache) SlotCount() int { return s.slotCount }

// IsFakeMT reports whether the device was demoted to single-touch
// semantics because it exposes ABS_MT_SLOT-1 as an ordinary axis (§9,
// §11).
func (s *StateCache) IsFakeMT() bool { return s.fakeMT }

// SlotActive reports whether slot has an active contact (tracking ID
// >= 0).
func (s *StateCache) SlotActive(slot int) bool {
	return s.SlotValue(slot, absMTTrackingID) >= 0
}

// RepeatInfo returns the cached auto-repeat parameters.
func (s *StateCache) RepeatInfo() RepeatInfo { return s.repInfo }

// setValue is the ingest/resync-only mutator for non-slot retained
// state. It is never called for a disabled (t, code): callers check
// HasCode first (dispatch table, §9).
func (s *StateCache) setValue(t EventType, code int, v int32) {
	switch t {
	case EvKey:
		s.key[code] = v
	case EvAbs:
		s.abs[code] = v
	case EvSwitch:
		s.sw[code] = v
	case EvLed:
		s.led[code] = v
	}
}

// setSlotValue is the ingest/resync-only mutator for per-slot
// multi-touch state. Out-of-range slots (beyond the ceiling) are
// silently ignored, per §3's invariant.
func (s *StateCache) setSlotValue(slot, code int, v int32) {
	if slot < 0 || slot >= s.slotCount || code < 0 || code >= absCnt {
		return
	}
	s.slotValue[slot][code] = v
}

// setCurrentSlot is the ingest/resync mutator driven by an incoming or
// synthesized ABS_MT_SLOT event. It does not range-check: the kernel is
// trusted (§4.2).
func (s *StateCache) setCurrentSlot(slot int) {
	s.currentSlot = slot
}

// SetTrackingID sets the tracking ID for slot, the one per-slot setter
// exposed for caller-driven mutation outside of ingest. It enforces the
// invariant that a caller cannot fabricate a new contact on an inactive
// slot (only the kernel, via ingest, is authoritative for that) — see
// §4.2. fromKernel bypasses the check, since ingest/resync records are
// always authoritative.
func (s *StateCache) SetTrackingID(slot int, id int32, fromKernel bool) error {
	if slot < 0 || slot >= s.slotCount {
		return ErrBadSlot
	}
	if !fromKernel && id != trackingIDInactive && s.slotValue[slot][absMTTrackingID] == trackingIDInactive {
		return ErrUnsupported
	}
	s.slotValue[slot][absMTTrackingID] = id
	return nil
}

// clone returns a deep copy of the cache, used to snapshot pre-drop
// state when a drop marker is observed (§4.4 step 2).
func (s *StateCache) clone() *StateCache {
	cp := *s
	cp.slotValue = make([][absCnt]int32, len(s.slotValue))
	copy(cp.slotValue, s.slotValue)
	return &cp
}

// pushEvent appends e to the pending-delivery queue.
func (s *StateCache) pushEvent(e InputEvent) {
	s.queue = append(s.queue, e)
}

// popEvent removes and returns the first queued event, if any.
func (s *StateCache) popEvent() (InputEvent, bool) {
	if len(s.queue) == 0 {
		return InputEvent{}, false
	}
	e := s.queue[0]
	s.queue = s.queue[1:]
	return e, true
}

// clearQueue discards all pending synthesized events (dropped-without-
// sync fallback, §4.5).
func (s *StateCache) clearQueue() {
	s.queue = nil
}
