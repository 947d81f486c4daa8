package evdev

import "testing"

func capsWithKeyAndMT(t *testing.T, slots int) *CapabilitySet {
	t.Helper()
	var c CapabilitySet
	if err := c.EnableCode(EvKey, 30, nil, nil); err != nil {
		t.Fatal(err)
	}
	info := AbsInfo{Minimum: 0, Maximum: int32(slots - 1)}
	if err := c.EnableCode(EvAbs, absMTSlot, &info, nil); err != nil {
		t.Fatal(err)
	}
	tidInfo := AbsInfo{Minimum: -1, Maximum: 65535}
	if err := c.EnableCode(EvAbs, absMTTrackingID, &tidInfo, nil); err != nil {
		t.Fatal(err)
	}
	return &c
}

func TestStateCacheValueDisabledCodeIsZero(t *testing.T) {
	var c CapabilitySet
	cache := newStateCache(&c, 0, false)
	if v := cache.Value(EvKey, 30); v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}
}

func TestStateCacheSlotRouting(t *testing.T) {
	c := capsWithKeyAndMT(t, 4)
	cache := newStateCache(c, 4, false)
	cache.setCurrentSlot(2)
	cache.setSlotValue(2, absMTTrackingID, 7)
	if v := cache.Value(EvAbs, absMTTrackingID); v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
	if v := cache.SlotValue(2, absMTTrackingID); v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
	if v := cache.SlotValue(0, absMTTrackingID); v != trackingIDInactive {
		t.Fatalf("expected inactive, got %d", v)
	}
}

func TestStateCacheSlotCeiling(t *testing.T) {
	c := capsWithKeyAndMT(t, 4)
	cache := newStateCache(c, 200, false)
	if cache.SlotCount() != maxSlots {
		t.Fatalf("expected clamp to %d, got %d", maxSlots, cache.SlotCount())
	}
}

func TestStateCacheSetTrackingIDRejectsForeignActivation(t *testing.T) {
	c := capsWithKeyAndMT(t, 2)
	cache := newStateCache(c, 2, false)
	if err := cache.SetTrackingID(0, 3, false); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := cache.SetTrackingID(0, 3, true); err != nil {
		t.Fatalf("expected kernel-sourced activation to succeed, got %v", err)
	}
	if err := cache.SetTrackingID(0, -1, false); err != nil {
		t.Fatalf("expected caller-sourced deactivation to succeed, got %v", err)
	}
}

func TestStateCacheSetTrackingIDBadSlot(t *testing.T) {
	c := capsWithKeyAndMT(t, 2)
	cache := newStateCache(c, 2, false)
	if err := cache.SetTrackingID(5, 0, true); err != ErrBadSlot {
		t.Fatalf("expected ErrBadSlot, got %v", err)
	}
}

func TestStateCacheCloneIsIndependent(t *testing.T) {
	c := capsWithKeyAndMT(t, 2)
	cache := newStateCache(c, 2, false)
	cache.setValue(EvKey, 30, 1)
	cache.setSlotValue(0, absMTTrackingID, 5)

	clone := cache.clone()
	cache.setValue(EvKey, 30, 0)
	cache.setSlotValue(0, absMTTrackingID, -1)

	if clone.key[30] != 1 {
		t.Fatalf("clone mutated by later write to original: key=%d", clone.key[30])
	}
	if clone.slotValue[0][absMTTrackingID] != 5 {
		t.Fatalf("clone mutated by later write to original: tid=%d", clone.slotValue[0][absMTTrackingID])
	}
}

func TestStateCacheQueue(t *testing.T) {
	var c CapabilitySet
	cache := newStateCache(&c, 0, false)
	if _, ok := cache.popEvent(); ok {
		t.Fatal("expected empty queue")
	}
	cache.pushEvent(InputEvent{Type: EvSyn, Code: SynReport})
	ev, ok := cache.popEvent()
	if !ok || ev.Type != EvSyn {
		t.Fatalf("got %v, %v", ev, ok)
	}
	cache.pushEvent(InputEvent{})
	cache.clearQueue()
	if _, ok := cache.popEvent(); ok {
		t.Fatal("expected cleared queue to be empty")
	}
}
