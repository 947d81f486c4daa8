package evdev

import "testing"

func TestCapabilitySetHasCode(t *testing.T) {
	var c CapabilitySet
	if c.HasCode(EvKey, 1) {
		t.Fatal("expected disabled code to report false")
	}
	if err := c.EnableCode(EvKey, 1, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !c.HasCode(EvKey, 1) {
		t.Fatal("expected enabled code to report true")
	}
	if c.HasCode(EvKey, -1) {
		t.Fatal("expected negative code to report false")
	}
	if c.HasCode(EvKey, keyCnt) {
		t.Fatal("expected out-of-range code to report false")
	}
}

func TestCapabilitySetEnableCodeRequiresAbsInfo(t *testing.T) {
	var c CapabilitySet
	if err := c.EnableCode(EvAbs, 0, nil, nil); err != ErrBadPayload {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
	info := AbsInfo{Minimum: 0, Maximum: 255}
	if err := c.EnableCode(EvAbs, 0, &info, nil); err != nil {
		t.Fatal(err)
	}
	got, ok := c.AbsInfo(0)
	if !ok || got != info {
		t.Fatalf("got %v, %v", got, ok)
	}
}

func TestCapabilitySetEnableCodeRequiresRepeatInfo(t *testing.T) {
	var c CapabilitySet
	if err := c.EnableCode(EvRepeat, RepDelay, nil, nil); err != ErrBadPayload {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
	rep := RepeatInfo{Delay: 250, Period: 33}
	if err := c.EnableCode(EvRepeat, RepDelay, nil, &rep); err != nil {
		t.Fatal(err)
	}
	got, ok := c.RepeatInfo()
	if !ok || got != rep {
		t.Fatalf("got %v, %v", got, ok)
	}
}

func TestCapabilitySetDisableSynRejected(t *testing.T) {
	var c CapabilitySet
	if err := c.DisableType(EvSyn); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := c.DisableCode(EvSyn, SynReport); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestCapabilitySetDisableCodeOutOfRangeIsNoop(t *testing.T) {
	var c CapabilitySet
	if err := c.DisableCode(EvKey, keyCnt+10); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := c.DisableCode(EvKey, 5); err != nil {
		t.Fatalf("expected nil for already-disabled code, got %v", err)
	}
}

func TestCapabilitySetEnableProp(t *testing.T) {
	var c CapabilitySet
	if c.HasProp(0) {
		t.Fatal("expected prop unset")
	}
	if err := c.EnableProp(0); err != nil {
		t.Fatal(err)
	}
	if !c.HasProp(0) {
		t.Fatal("expected prop set")
	}
	if err := c.EnableProp(propCnt); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
