package evdev

import "testing"

func mtCaps(t *testing.T, slots int) *CapabilitySet {
	t.Helper()
	var c CapabilitySet
	if err := c.EnableCode(EvKey, 30, nil, nil); err != nil {
		t.Fatal(err)
	}
	slotInfo := AbsInfo{Minimum: 0, Maximum: int32(slots - 1)}
	if err := c.EnableCode(EvAbs, absMTSlot, &slotInfo, nil); err != nil {
		t.Fatal(err)
	}
	tidInfo := AbsInfo{Minimum: -1, Maximum: 65535}
	if err := c.EnableCode(EvAbs, absMTTrackingID, &tidInfo, nil); err != nil {
		t.Fatal(err)
	}
	xInfo := AbsInfo{Minimum: 0, Maximum: 4095}
	if err := c.EnableCode(EvAbs, absMTTouchMajor, &xInfo, nil); err != nil {
		t.Fatal(err)
	}
	return &c
}

func lastEvent(delta []InputEvent) InputEvent {
	return delta[len(delta)-1]
}

func TestResyncSimpleKeyDrop(t *testing.T) {
	var c CapabilitySet
	if err := c.EnableCode(EvKey, 30, nil, nil); err != nil {
		t.Fatal(err)
	}
	cache := newStateCache(&c, 0, false)
	cache.setValue(EvKey, 30, 0)

	fk := newFakeKernel()
	fk.key[30] = 1

	delta := runResync(cache, fk, InputEvent{})

	if len(delta) != 2 {
		t.Fatalf("expected key event + SYN_REPORT, got %d: %+v", len(delta), delta)
	}
	if delta[0].Type != EvKey || delta[0].Code != 30 || delta[0].Value != 1 {
		t.Fatalf("unexpected first event: %+v", delta[0])
	}
	term := lastEvent(delta)
	if term.Type != EvSyn || term.Code != SynReport {
		t.Fatalf("expected terminating SYN_REPORT, got %+v", term)
	}
	if cache.Value(EvKey, 30) != 1 {
		t.Fatalf("cache not updated: %d", cache.Value(EvKey, 30))
	}
}

func TestResyncNoChangeEmitsOnlyTerminator(t *testing.T) {
	var c CapabilitySet
	if err := c.EnableCode(EvKey, 30, nil, nil); err != nil {
		t.Fatal(err)
	}
	cache := newStateCache(&c, 0, false)
	fk := newFakeKernel()

	delta := runResync(cache, fk, InputEvent{})
	if len(delta) != 1 || delta[0].Type != EvSyn || delta[0].Code != SynReport {
		t.Fatalf("expected only SYN_REPORT, got %+v", delta)
	}
}

func TestResyncTwoSlotTouchSwap(t *testing.T) {
	c := mtCaps(t, 2)
	cache := newStateCache(c, 2, false)
	cache.setSlotValue(0, absMTTrackingID, 10)
	cache.setSlotValue(1, absMTTrackingID, trackingIDInactive)

	fk := newFakeKernel()
	fk.slots = [][absCnt]int32{
		{absMTTrackingID: trackingIDInactive},
		{absMTTrackingID: 11, absMTTouchMajor: 50},
	}

	delta := runResync(cache, fk, InputEvent{})

	if cache.SlotValue(0, absMTTrackingID) != trackingIDInactive {
		t.Fatalf("slot 0 not updated: %d", cache.SlotValue(0, absMTTrackingID))
	}
	if cache.SlotValue(1, absMTTrackingID) != 11 {
		t.Fatalf("slot 1 not updated: %d", cache.SlotValue(1, absMTTrackingID))
	}

	// Slot 0's release must be reported before slot 1's new contact.
	foundSlot0 := -1
	foundSlot1 := -1
	for i, e := range delta {
		if e.Type == EvAbs && e.Code == absMTSlot && e.Value == 0 {
			foundSlot0 = i
		}
		if e.Type == EvAbs && e.Code == absMTSlot && e.Value == 1 {
			foundSlot1 = i
		}
	}
	if foundSlot0 == -1 || foundSlot1 == -1 || foundSlot0 > foundSlot1 {
		t.Fatalf("expected slot 0 select before slot 1 select, got %+v", delta)
	}
	term := lastEvent(delta)
	if term.Type != EvSyn || term.Code != SynReport {
		t.Fatalf("expected terminating SYN_REPORT, got %+v", term)
	}
}

func TestResyncSlotReplacedMidDrop(t *testing.T) {
	c := mtCaps(t, 1)
	cache := newStateCache(c, 1, false)
	cache.setSlotValue(0, absMTTrackingID, 5)
	cache.setSlotValue(0, absMTTouchMajor, 20)

	fk := newFakeKernel()
	fk.slots = [][absCnt]int32{
		{absMTTrackingID: 9, absMTTouchMajor: 77},
	}

	delta := runResync(cache, fk, InputEvent{})

	// Mirrors the worked example (touch replaced mid-drop): SLOT=0,
	// TRACKING_ID=-1, TRACKING_ID=9, TOUCH_MAJOR=77, SYN_REPORT. The old
	// contact must be seen to die before the new one is born (rule 7).
	var sawSelect bool
	var tidEvents []InputEvent
	majorIdx := -1
	for _, e := range delta {
		if e.Type == EvAbs && e.Code == absMTSlot {
			sawSelect = true
		}
		if e.Type == EvAbs && e.Code == absMTTrackingID {
			tidEvents = append(tidEvents, e)
		}
		if e.Type == EvAbs && e.Code == absMTTouchMajor {
			majorIdx = len(tidEvents)
		}
	}
	if !sawSelect {
		t.Fatalf("expected a slot select event, got %+v", delta)
	}
	if len(tidEvents) != 2 {
		t.Fatalf("expected a release (-1) then a new tracking id event, got %+v", delta)
	}
	if tidEvents[0].Value != trackingIDInactive {
		t.Fatalf("expected old contact released with tracking id -1 first, got %d", tidEvents[0].Value)
	}
	if tidEvents[1].Value != 9 {
		t.Fatalf("expected new tracking id 9 second, got %d", tidEvents[1].Value)
	}
	if majorIdx == -1 || majorIdx < 2 {
		t.Fatalf("expected touch major to follow both tracking id events (rule 7), got %+v", delta)
	}
	if cache.SlotValue(0, absMTTouchMajor) != 77 {
		t.Fatalf("cache not updated: %d", cache.SlotValue(0, absMTTouchMajor))
	}
	if cache.SlotValue(0, absMTTrackingID) != 9 {
		t.Fatalf("cache tracking id not updated: %d", cache.SlotValue(0, absMTTrackingID))
	}
}

func TestResyncSlotDeactivationSuppressesOtherCodes(t *testing.T) {
	c := mtCaps(t, 1)
	cache := newStateCache(c, 1, false)
	cache.setSlotValue(0, absMTTrackingID, 5)
	cache.setSlotValue(0, absMTTouchMajor, 20)

	fk := newFakeKernel()
	fk.slots = [][absCnt]int32{
		{absMTTrackingID: trackingIDInactive, absMTTouchMajor: 0},
	}

	delta := runResync(cache, fk, InputEvent{})
	for _, e := range delta {
		if e.Type == EvAbs && e.Code == absMTTouchMajor {
			t.Fatalf("expected no touch-major event once slot deactivated, got %+v", delta)
		}
	}
}

func TestResyncSkipsFailingCategoryButContinues(t *testing.T) {
	var c CapabilitySet
	if err := c.EnableCode(EvKey, 30, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.EnableCode(EvLed, 0, nil, nil); err != nil {
		t.Fatal(err)
	}
	cache := newStateCache(&c, 0, false)

	fk := newFakeKernel()
	fk.failKey = true
	fk.led[0] = 1

	delta := runResync(cache, fk, InputEvent{})

	var sawLED bool
	for _, e := range delta {
		if e.Type == EvLed {
			sawLED = true
		}
		if e.Type == EvKey {
			t.Fatalf("expected no key event when key refetch fails, got %+v", delta)
		}
	}
	if !sawLED {
		t.Fatalf("expected LED category to still resync, got %+v", delta)
	}
}
