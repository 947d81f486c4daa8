package evdev

// Status tags where an event returned from Next came from: ordinary
// kernel delivery, a resynchronization delta, or a dropped marker the
// caller asked to see instead of having it resolved automatically.
type Status int

const (
	// StatusNormal marks an event read straight off the descriptor.
	StatusNormal Status = iota
	// StatusSync marks an event synthesized by the Resync Engine; a
	// StatusSync run always ends with a SYN_REPORT carrying the same
	// status.
	StatusSync
	// StatusDropped marks a raw SYN_DROPPED record handed back
	// unresolved because the caller requested IgnoreSync.
	StatusDropped
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusSync:
		return "sync"
	case StatusDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// ReadFlags adjusts a single Next call.
type ReadFlags int

const (
	// NoBlock makes Next return ErrNoEvent instead of blocking when no
	// event is currently available.
	NoBlock ReadFlags = 1 << iota
	// ForceSync makes Next run the Resync Engine before reading anything
	// else, independent of whether a drop occurred; synthesized events
	// still queued from an earlier resync are delivered first.
	// Callers use this after an action that can silently invalidate the
	// cache outside the drop protocol (e.g. re-grabbing the device).
	ForceSync
	// IgnoreSync disables automatic resynchronization: a SYN_DROPPED
	// record is handed back to the caller as-is, tagged StatusDropped,
	// and the State Cache is left untouched until the caller explicitly
	// requests ForceSync.
	IgnoreSync
)

// applyRecord folds one raw kernel record into the State Cache
// (§4.4's per-record dispatch table). EV_SYN records carry no retained
// state; EV_MSC and EV_REL are transient and also carry none. Unknown
// or disabled (type, code) pairs are silently ignored: the descriptor
// is trusted, but a capability mutation between probe and delivery
// (EVIOCSABS racing a read) must not panic.
func applyRecord(cache *StateCache, rec InputEvent) {
	switch rec.Type {
	case EvSyn:
		return
	case EvKey:
		if cache.caps.HasCode(EvKey, int(rec.Code)) {
			cache.setValue(EvKey, int(rec.Code), rec.Value)
		}
	case EvSwitch:
		if cache.caps.HasCode(EvSwitch, int(rec.Code)) {
			cache.setValue(EvSwitch, int(rec.Code), rec.Value)
		}
	case EvLed:
		if cache.caps.HasCode(EvLed, int(rec.Code)) {
			cache.setValue(EvLed, int(rec.Code), rec.Value)
		}
	case EvAbs:
		applyAbsRecord(cache, int(rec.Code), rec.Value)
	case EvRepeat:
		switch rec.Code {
		case RepDelay:
			cache.repInfo.Delay = rec.Value
		case RepPeriod:
			cache.repInfo.Period = rec.Value
		}
	default:
		// EvRel, EvMsc, force-feedback and other transient types: no
		// retained state to update.
	}
}

// applyAbsRecord handles the ABS_MT_SLOT select record and per-slot
// multi-touch codes separately from plain absolute axes, mirroring the
// kernel's own slot-routing rule (§3).
func applyAbsRecord(cache *StateCache, code int, value int32) {
	if !cache.caps.HasCode(EvAbs, code) {
		return
	}
	if code == absMTSlot {
		cache.setCurrentSlot(int(value))
		cache.abs[absMTSlot] = value
		return
	}
	if cache.slotCount > 0 && !cache.fakeMT && isMTCode(code) {
		cache.setSlotValue(cache.currentSlot, code, value)
		return
	}
	cache.setValue(EvAbs, code, value)
}
