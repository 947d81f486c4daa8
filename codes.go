package evdev

// Event types and codes. Only the numeric identifiers the sync engine
// and capability model depend on are defined here; human-readable name
// tables for individual key/button codes are out of scope (see
// SPEC_FULL.md §1).

// EventType identifies the high-level category of an event record.
type EventType uint16

const (
	EvSyn      EventType = 0x00
	EvKey      EventType = 0x01
	EvRel      EventType = 0x02
	EvAbs      EventType = 0x03
	EvMsc      EventType = 0x04
	EvSwitch   EventType = 0x05
	EvLed      EventType = 0x11
	EvSound    EventType = 0x12
	EvRepeat   EventType = 0x14
	EvFF       EventType = 0x15
	EvPower    EventType = 0x16
	EvFFStatus EventType = 0x17

	evMax EventType = 0x1f
	evCnt           = int(evMax) + 1
)

// Per-type maximum code values, from the kernel's input-event-codes.h.
// These size the fixed bit arrays in CapabilitySet and StateCache.
const (
	keyMax     = 0x2ff
	keyCnt     = keyMax + 1
	relMax     = 0x0f
	relCnt     = relMax + 1
	absMax     = 0x3f
	absCnt     = absMax + 1
	mscMax     = 0x07
	mscCnt     = mscMax + 1
	switchMax  = 0x11
	switchCnt  = switchMax + 1
	ledMax     = 0x0f
	ledCnt     = ledMax + 1
	soundMax   = 0x07
	soundCnt   = soundMax + 1
	propMax    = 0x1f
	propCnt    = propMax + 1
	repeatMax  = 0x01
	repeatCnt  = repeatMax + 1
)

// Synchronization codes (EV_SYN).
const (
	SynReport    = 0
	SynConfig    = 1
	SynMTReport  = 2
	SynDropped   = 3
)

// Repeat codes (EV_REP).
const (
	RepDelay  = 0x00
	RepPeriod = 0x01
)

// Multi-touch absolute axis range. ABS_MT_SLOT sits one code below the
// contiguous ABS_MT_TOUCH_MAJOR..ABS_MT_TOOL_Y block; a device is "fake
// multi-touch" when it also exposes absMTFirst-1 (ABS_RESERVED) as an
// ordinary axis (see SPEC_FULL.md §11 / §9 Design Notes).
const (
	absMTSlot        = 0x2f
	absMTTouchMajor  = 0x30
	absMTTrackingID  = 0x39
	absMTLast        = 0x3d // ABS_MT_TOOL_Y

	absMTFirst  = absMTSlot
	absReserved = absMTSlot - 1 // fake-MT sentinel axis
)

// isMTCode reports whether c (an EV_ABS code) belongs to the
// multi-touch range, including the slot-select code itself.
func isMTCode(c int) bool {
	return c >= absMTFirst && c <= absMTLast
}

// maxSlots is the hard ceiling on tracked multi-touch slots (§9).
const maxSlots = 60

func typeMax(t EventType) int {
	switch t {
	case EvKey:
		return keyCnt
	case EvRel:
		return relCnt
	case EvAbs:
		return absCnt
	case EvMsc:
		return mscCnt
	case EvSwitch:
		return switchCnt
	case EvLed:
		return ledCnt
	case EvSound:
		return soundCnt
	case EvRepeat:
		return repeatCnt
	case EvSyn:
		return 16
	default:
		return 0
	}
}
